package domain

import (
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
	"github.com/Wenrh2004/judge-sandbox/pkg/sid"
)

// Service carries what every domain service needs.
type Service struct {
	Logger *log.Logger
	Sid    *sid.Sid
}

func NewService(log *log.Logger, s *sid.Sid) *Service {
	return &Service{
		Logger: log,
		Sid:    s,
	}
}
