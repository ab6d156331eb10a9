package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Wenrh2004/judge-sandbox/pkg/application/server"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

type App struct {
	name        string
	servers     []server.Server
	logger      *log.Logger
	stopTimeout time.Duration
}

type Option func(a *App)

func NewApp(opts ...Option) *App {
	a := &App{stopTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = log.New(zap.NewNop())
	}
	return a
}

func WithServer(servers ...server.Server) Option {
	return func(a *App) {
		a.servers = append(a.servers, servers...)
	}
}

func WithName(name string) Option {
	return func(a *App) {
		a.name = name
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

func WithStopTimeout(d time.Duration) Option {
	return func(a *App) {
		a.stopTimeout = d
	}
}

// Run starts every server and blocks until a signal arrives, ctx is done or a server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	errCh := make(chan error, len(a.servers))
	for _, srv := range a.servers {
		go func(srv server.Server) {
			if err := srv.Start(ctx); err != nil {
				errCh <- err
			}
		}(srv)
	}

	var runErr error
	select {
	case sig := <-signals:
		a.logger.Info("[App.Run]received termination signal", zap.String("app", a.name), zap.String("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info("[App.Run]context canceled", zap.String("app", a.name))
	case runErr = <-errCh:
		a.logger.Error("[App.Run]server failed", zap.String("app", a.name), zap.Error(runErr))
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.stopTimeout)
	defer stopCancel()
	var stopErrs []error
	for _, srv := range a.servers {
		if err := srv.Stop(stopCtx); err != nil {
			stopErrs = append(stopErrs, err)
		}
	}
	return errors.Join(append([]error{runErr}, stopErrs...)...)
}
