package application

import (
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/adapter/handler"
	"github.com/Wenrh2004/judge-sandbox/pkg/application/server/http"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

// NewSandboxApplication mounts /metrics and the authenticated /v1 routes.
func NewSandboxApplication(conf *viper.Viper, logger *log.Logger, auth *handler.AuthHandler, execute *handler.ExecuteHandler) *http.Server {
	h := http.NewServer(conf, logger)

	h.GET("/metrics", adaptor.HertzHandler(promhttp.Handler()))

	v1 := h.Group("/v1", auth.Authenticate)
	v1.POST("/execute", execute.Execute)
	return h
}
