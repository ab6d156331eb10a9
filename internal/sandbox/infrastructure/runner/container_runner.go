package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

const execInspectRetries = 20

// exitCodeSIGKILL is what sh reports for a child killed by signal 9. Deadlines are enforced
// from outside the container, so inside it only the cgroup OOM killer sends SIGKILL.
const exitCodeSIGKILL = 128 + 9

// ContainerRunner executes commands inside the container of one worker slot.
// Only the worker owning the slot uses it, so calls are never concurrent.
type ContainerRunner struct {
	pool    *ContainerPool
	slot    *ContainerSlot
	cli     DockerClient
	monitor *Monitor
	mount   string
	logger  *log.Logger
}

func (r *ContainerRunner) SourcePath(ws *aggregate.Workspace, profile *vo.LanguageProfile) string {
	return path.Join(r.mount, ws.ID, profile.FileName)
}

func (r *ContainerRunner) Redact(ws *aggregate.Workspace) []string {
	inContainer := path.Join(r.mount, ws.ID)
	return []string{inContainer + "/", ws.Dir + "/", inContainer, ws.Dir}
}

func (r *ContainerRunner) Compile(ctx context.Context, command string, timeout time.Duration) (*aggregate.ExecutionMessage, error) {
	return r.exec(ctx, []string{"sh", "-c", command}, timeout, false)
}

// Execute pipes input into command with sh -c "echo '<input>' | <command>".
func (r *ContainerRunner) Execute(ctx context.Context, command, input string, timeout time.Duration) (*aggregate.ExecutionMessage, error) {
	return r.exec(ctx, []string{"sh", "-c", PipeInput(input, command)}, timeout, true)
}

// PipeInput builds the shell line feeding input to command. Single quotes are closed,
// emitted double-quoted and reopened, so any input survives the quoting.
func PipeInput(input, command string) string {
	return fmt.Sprintf("echo '%s' | %s", strings.ReplaceAll(input, "'", `'"'"'`), command)
}

func (r *ContainerRunner) exec(ctx context.Context, cmd []string, timeout time.Duration, sample bool) (*aggregate.ExecutionMessage, error) {
	execResp, err := r.cli.ContainerExecCreate(ctx, r.slot.ID, container.ExecOptions{
		AttachStdout: true,
		AttachStderr: true,
		WorkingDir:   r.mount,
		Cmd:          cmd,
	})
	if err != nil {
		// most likely the container died; restart it on the next acquire
		r.pool.markStale(r.slot)
		return nil, fmt.Errorf("[ContainerRunner.exec]create exec in %s: %w", r.slot.Name, err)
	}

	var sampling *Sampling
	if sample {
		if sampling, err = r.monitor.Start(ctx, r.slot.ID); err != nil {
			r.logger.Warn("[ContainerRunner.exec]memory sampling unavailable", zap.String("container", r.slot.Name), zap.Error(err))
		}
	}
	stopSampling := func() int64 {
		if sampling == nil {
			return 0
		}
		return sampling.Stop()
	}

	start := time.Now()
	hijack, err := r.cli.ContainerExecAttach(ctx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		stopSampling()
		return nil, fmt.Errorf("[ContainerRunner.exec]attach exec: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	done := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, hijack.Reader)
		done <- err
	}()

	var copyErr error
	finished := false
	select {
	case copyErr = <-done:
		finished = true
	case <-runCtx.Done():
	}
	elapsed := time.Since(start).Milliseconds()
	hijack.Close()
	if !finished {
		// closing the connection unblocks the copy
		<-done
	}
	memory := stopSampling()

	if !finished {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("[ContainerRunner.exec]canceled: %w", err)
		}
		r.logger.Warn("[ContainerRunner.exec]deadline exceeded, stopping container",
			zap.String("container", r.slot.Name), zap.Int64("elapsed", elapsed))
		r.pool.retire(r.slot)
		return &aggregate.ExecutionMessage{
			ExitCode: -1,
			Stdout:   trimNewline(stdout.String()),
			Stderr:   stderr.String(),
			Time:     elapsed,
			Memory:   memory,
			TimedOut: true,
		}, nil
	}
	if copyErr != nil {
		return nil, fmt.Errorf("[ContainerRunner.exec]read output: %w", copyErr)
	}

	exitCode, err := r.exitCode(ctx, execResp.ID)
	if err != nil {
		return nil, err
	}
	return &aggregate.ExecutionMessage{
		ExitCode:  exitCode,
		Stdout:    trimNewline(stdout.String()),
		Stderr:    stderr.String(),
		Time:      elapsed,
		Memory:    memory,
		OOMKilled: exitCode == exitCodeSIGKILL,
	}, nil
}

// exitCode waits briefly for the daemon to record the exec as finished.
func (r *ContainerRunner) exitCode(ctx context.Context, execID string) (int, error) {
	for i := 0; i < execInspectRetries; i++ {
		inspect, err := r.cli.ContainerExecInspect(ctx, execID)
		if err != nil {
			return 0, fmt.Errorf("[ContainerRunner.exitCode]inspect exec: %w", err)
		}
		if !inspect.Running {
			return inspect.ExitCode, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	return 0, errors.New("[ContainerRunner.exitCode]exec still running after output closed")
}

func trimNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}
