package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/hertz-contrib/swagger"
	"github.com/spf13/viper"
	swaggerFiles "github.com/swaggo/files"
	"go.uber.org/zap"

	_ "github.com/Wenrh2004/judge-sandbox/docs"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

type Server struct {
	*server.Hertz
	addr   string
	logger *log.Logger
}

type Option func(s *Server)

func NewServer(conf *viper.Viper, logger *log.Logger, opts ...Option) *Server {
	h := server.Default(
		server.WithHostPorts(conf.GetString("app.addr")),
		server.WithBasePath(conf.GetString("app.base_url")),
		server.WithDisablePrintRoute(conf.GetString("app.env") == "prod"),
	)
	url := swagger.URL(fmt.Sprintf("http://localhost%s%s/swagger/doc.json", conf.GetString("app.addr"), conf.GetString("app.base_url")))
	h.GET("/swagger/*any", swagger.WrapHandler(swaggerFiles.Handler, url))
	s := &Server{
		Hertz:  h,
		addr:   conf.GetString("app.addr"),
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Start(context.Context) error {
	s.logger.Info("[Server.Start]http server listening", zap.String("addr", s.addr))
	if err := s.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("[Server.Start]listen: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("[Server.Stop]shutting down http server")
	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("[Server.Stop]%w", err)
	}
	s.logger.Info("[Server.Stop]http server exited")
	return nil
}
