package adapter

import (
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

// Service carries what every adapter needs.
type Service struct {
	Logger *log.Logger
}

func NewService(logger *log.Logger) *Service {
	return &Service{
		Logger: logger,
	}
}
