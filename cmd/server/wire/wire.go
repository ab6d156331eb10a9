//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/google/wire"
	"github.com/spf13/viper"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/adapter/handler"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/application"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/service"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/infrastructure/runner"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/infrastructure/workspace"
	"github.com/Wenrh2004/judge-sandbox/pkg/adapter"
	"github.com/Wenrh2004/judge-sandbox/pkg/application/app"
	"github.com/Wenrh2004/judge-sandbox/pkg/application/server/http"
	"github.com/Wenrh2004/judge-sandbox/pkg/domain"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
	"github.com/Wenrh2004/judge-sandbox/pkg/sid"
)

var infrastructureSet = wire.NewSet(
	workspace.NewManager,
	runner.NewProvider,
	wire.Bind(new(service.WorkspaceManager), new(*workspace.Manager)),
)

var domainSet = wire.NewSet(
	domain.NewService,
	service.NewScreener,
	service.NewDispatcher,
	service.NewSandboxService,
)

var adapterSet = wire.NewSet(
	adapter.NewService,
	handler.NewAuthHandler,
	handler.NewExecuteHandler,
)

var applicationSet = wire.NewSet(
	application.NewSandboxApplication,
)

// build App
func newApp(
	httpServer *http.Server,
	conf *viper.Viper,
	logger *log.Logger,
) *app.App {
	return app.NewApp(
		app.WithServer(httpServer),
		app.WithName(conf.GetString("app.name")),
		app.WithLogger(logger),
	)
}

func NewWire(*viper.Viper, *log.Logger) (*app.App, func(), error) {
	panic(wire.Build(
		infrastructureSet,
		domainSet,
		adapterSet,
		applicationSet,
		sid.NewSid,
		newApp,
	))
}
