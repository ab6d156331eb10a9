package executor

import (
	"context"
	"errors"
	"time"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
)

var ErrNoSuchWorker = errors.New("[Provider.Acquire]no such worker slot")

// Executor runs commands in one execution environment: the host, or a worker's container.
//
// Execute and Compile return an error only for infrastructure failures. A program that
// exits non-zero or hits the deadline still yields a message.
type Executor interface {
	// SourcePath is the workspace source file as the environment sees it.
	SourcePath(ws *aggregate.Workspace, profile *vo.LanguageProfile) string
	// Redact lists path prefixes that must not leak into user-visible output.
	Redact(ws *aggregate.Workspace) []string
	Compile(ctx context.Context, command string, timeout time.Duration) (*aggregate.ExecutionMessage, error)
	Execute(ctx context.Context, command, input string, timeout time.Duration) (*aggregate.ExecutionMessage, error)
}

// Provider hands out the Executor owned by a worker slot.
type Provider interface {
	Acquire(ctx context.Context, worker int) (Executor, error)
}
