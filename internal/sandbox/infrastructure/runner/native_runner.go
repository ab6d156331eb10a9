package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/executor"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

// NativeRunner spawns programs directly on the host. It holds no per-run state and is
// shared by every worker.
type NativeRunner struct {
	logger *log.Logger
}

// NewNativeRunner builds the host-process executor used in native mode.
func NewNativeRunner(logger *log.Logger) *NativeRunner {
	return &NativeRunner{logger: logger}
}

// NativeProvider hands every worker the same NativeRunner.
type NativeProvider struct {
	runner *NativeRunner
}

// NewNativeProvider backs executor.Provider with host processes.
func NewNativeProvider(logger *log.Logger) *NativeProvider {
	return &NativeProvider{runner: NewNativeRunner(logger)}
}

func (p *NativeProvider) Acquire(_ context.Context, worker int) (executor.Executor, error) {
	if worker < 0 {
		return nil, fmt.Errorf("%w: %d", executor.ErrNoSuchWorker, worker)
	}
	return p.runner, nil
}

func (r *NativeRunner) SourcePath(ws *aggregate.Workspace, _ *vo.LanguageProfile) string {
	return filepath.ToSlash(ws.SourcePath)
}

func (r *NativeRunner) Redact(ws *aggregate.Workspace) []string {
	dir := filepath.ToSlash(ws.Dir)
	return []string{dir + "/", ws.Dir + string(filepath.Separator), dir, ws.Dir}
}

func (r *NativeRunner) Compile(ctx context.Context, command string, timeout time.Duration) (*aggregate.ExecutionMessage, error) {
	return r.run(ctx, command, nil, timeout)
}

func (r *NativeRunner) Execute(ctx context.Context, command, input string, timeout time.Duration) (*aggregate.ExecutionMessage, error) {
	return r.run(ctx, command, strings.NewReader(input), timeout)
}

func (r *NativeRunner) run(ctx context.Context, command string, stdin io.Reader, timeout time.Duration) (*aggregate.ExecutionMessage, error) {
	args, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("[NativeRunner.run]split %q: %w", command, err)
	}
	if len(args) == 0 {
		return nil, errors.New("[NativeRunner.run]empty command")
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	configureProcess(cmd)
	// only a kill issued while the process is still running counts as a timeout
	var killed atomic.Bool
	kill := cmd.Cancel
	cmd.Cancel = func() error {
		killed.Store(true)
		if kill == nil {
			return cmd.Process.Kill()
		}
		return kill()
	}
	cmd.Stdin = stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("[NativeRunner.run]start %s: %w", args[0], err)
	}
	waitErr := cmd.Wait()
	elapsed := time.Since(start).Milliseconds()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("[NativeRunner.run]canceled: %w", err)
	}

	msg := &aggregate.ExecutionMessage{
		Stdout: trimNewline(stdout.String()),
		Stderr: stderr.String(),
		Time:   elapsed,
		Memory: peakRSS(cmd.ProcessState),
	}
	if killed.Load() {
		r.logger.Debug("[NativeRunner.run]deadline exceeded, process group killed",
			zap.String("command", args[0]), zap.Int64("elapsed", elapsed))
		msg.ExitCode = -1
		msg.TimedOut = true
		return msg, nil
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			// stdin/stdout copy failures and the like
			return nil, fmt.Errorf("[NativeRunner.run]wait %s: %w", args[0], waitErr)
		}
		msg.ExitCode = exitCode(exitErr.ProcessState)
	}
	return msg, nil
}
