package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/executor"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/infrastructure/workspace"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

const provisionTimeout = 10 * time.Minute

// NewProvider builds the execution environment selected by app.sandbox.mode.
func NewProvider(conf *viper.Viper, logger *log.Logger, ws *workspace.Manager) (executor.Provider, func(), error) {
	mode := conf.GetString("app.sandbox.mode")
	logger.Info("[runner.NewProvider]execution mode", zap.String("mode", mode))

	switch mode {
	case "native":
		return NewNativeProvider(logger), func() {}, nil
	case "docker":
		cli, closeClient, err := NewClient()
		if err != nil {
			return nil, nil, err
		}
		pool, err := NewContainerPool(PoolOptionsFromConfig(conf, ws.Root()), cli, logger)
		if err != nil {
			closeClient()
			return nil, nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), provisionTimeout)
		defer cancel()
		if err := pool.Provision(ctx); err != nil {
			closeClient()
			return nil, nil, err
		}
		return pool, func() {
			pool.Close()
			closeClient()
		}, nil
	default:
		return nil, nil, fmt.Errorf("[runner.NewProvider]unknown sandbox mode %q", mode)
	}
}
