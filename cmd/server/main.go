package main

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/Wenrh2004/judge-sandbox/cmd/server/wire"
	"github.com/Wenrh2004/judge-sandbox/pkg/application/config"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

// @title						Judge Sandbox API
// @version					1.0.0
// @description				Executes untrusted submissions against stdin test cases in isolated containers.
// @host						localhost:8090
// @BasePath					/api
// @securityDefinitions.apiKey	SharedSecret
// @in							header
// @name						auth
func main() {
	var envConf = flag.String("conf", "config/bootstrap.yml", "config path, eg: -conf ./config/local.yml")
	flag.Parse()
	conf := config.NewConfig(*envConf)

	logger := log.NewLog(conf)
	defer func() { _ = logger.Sync() }()

	app, cleanup, err := wire.NewWire(conf, logger)
	if err != nil {
		logger.Fatal("failed to build application", zap.Error(err))
	}
	defer cleanup()

	logger.Info("server start", zap.String("host", fmt.Sprintf("http://localhost%s%s", conf.GetString("app.addr"), conf.GetString("app.base_url"))))
	logger.Info("docs addr", zap.String("addr", fmt.Sprintf("http://localhost%s%s/swagger/index.html", conf.GetString("app.addr"), conf.GetString("app.base_url"))))
	if err = app.Run(context.Background()); err != nil {
		logger.Error("server exited with error", zap.Error(err))
	}
}
