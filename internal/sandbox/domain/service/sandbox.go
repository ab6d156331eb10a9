package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/executor"
	"github.com/Wenrh2004/judge-sandbox/pkg/domain"
	"github.com/Wenrh2004/judge-sandbox/pkg/metrics"
)

// oom-killed processes exit with 128+SIGKILL
const exitCodeKilled = 137

// WorkspaceManager owns the on-disk lifetime of a submission.
type WorkspaceManager interface {
	Create(profile *vo.LanguageProfile, code string) (*aggregate.Workspace, error)
	Destroy(ws *aggregate.Workspace) bool
}

// SandboxDomainService drives one submission through screen, save, compile, run and
// aggregate, and always cleans the workspace up afterwards.
type SandboxDomainService struct {
	*domain.Service
	screener       *Screener
	workspaces     WorkspaceManager
	provider       executor.Provider
	dispatcher     *Dispatcher
	runTimeout     time.Duration
	compileTimeout time.Duration
	memoryLimit    int64
}

// NewSandboxService reads the timeouts and the memory limit from app.sandbox.
func NewSandboxService(
	conf *viper.Viper,
	srv *domain.Service,
	screener *Screener,
	workspaces WorkspaceManager,
	provider executor.Provider,
	dispatcher *Dispatcher,
) *SandboxDomainService {
	return &SandboxDomainService{
		Service:        srv,
		screener:       screener,
		workspaces:     workspaces,
		provider:       provider,
		dispatcher:     dispatcher,
		runTimeout:     conf.GetDuration("app.sandbox.run_timeout"),
		compileTimeout: conf.GetDuration("app.sandbox.compile_timeout"),
		memoryLimit:    conf.GetInt64("app.sandbox.memory_limit_kb"),
	}
}

// Execute never fails: every outcome, infrastructure failures included, is classified
// into the response.
func (s *SandboxDomainService) Execute(ctx context.Context, req *aggregate.ExecutionRequest) *aggregate.ExecutionResponse {
	start := time.Now()
	if req.ID == "" {
		id, err := s.Sid.GenString()
		if err != nil {
			s.Logger.Warn("[SandboxDomainService.Execute]failed to generate submission id", zap.Error(err))
		}
		req.ID = id
	}
	ctx = s.Logger.WithValue(ctx, zap.String("submissionId", req.ID), zap.String("language", req.Language.Name))

	var resp *aggregate.ExecutionResponse
	if err := s.dispatcher.Dispatch(ctx, func(worker int) {
		resp = s.orchestrate(ctx, worker, req)
	}); err != nil {
		s.Logger.WithContext(ctx).Error("[SandboxDomainService.Execute]failed to dispatch submission", zap.Error(err))
		resp = aggregate.NewFailedResponse(vo.InternalError, "sandbox is unavailable", nil)
	}
	if resp == nil {
		resp = aggregate.NewFailedResponse(vo.InternalError, "unexpected sandbox failure", nil)
	}

	metrics.ExecutionsTotal.WithLabelValues(req.Language.Name, resp.Verdict.String()).Inc()
	metrics.ExecutionDuration.WithLabelValues(req.Language.Name).Observe(time.Since(start).Seconds())
	s.Logger.WithContext(ctx).Info("[SandboxDomainService.Execute]submission finished",
		zap.String("status", resp.Status.String()),
		zap.String("verdict", resp.Verdict.String()),
		zap.Int64("time", resp.JudgeInfo.Time),
		zap.Int64("memory", resp.JudgeInfo.Memory),
		zap.Int("cases", len(req.Inputs)))
	return resp
}

func (s *SandboxDomainService) orchestrate(ctx context.Context, worker int, req *aggregate.ExecutionRequest) (resp *aggregate.ExecutionResponse) {
	logger := s.Logger.WithContext(ctx).With(zap.Int("worker", worker))

	if token, hit := s.screener.Screen(req.Code); hit {
		logger.Info("[SandboxDomainService.orchestrate]source rejected", zap.String("token", token))
		return aggregate.NewFailedResponse(vo.DangerousOperation, fmt.Sprintf("source contains forbidden token %q", token), nil)
	}

	ws, err := s.workspaces.Create(req.Language, req.Code)
	if err != nil {
		logger.Error("[SandboxDomainService.orchestrate]failed to save source", zap.Error(err))
		return aggregate.NewFailedResponse(vo.InternalError, "failed to save source", nil)
	}

	var msgs []*aggregate.ExecutionMessage
	defer func() {
		if !s.workspaces.Destroy(ws) {
			logger.Warn("[SandboxDomainService.orchestrate]workspace left behind", zap.String("workspaceId", ws.ID))
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("[SandboxDomainService.orchestrate]panic while executing submission",
				zap.Any("panic", r), zap.Stack("stack"))
			resp = aggregate.NewFailedResponse(vo.InternalError, "unexpected sandbox failure", msgs)
		}
	}()

	ex, err := s.provider.Acquire(ctx, worker)
	if err != nil {
		logger.Error("[SandboxDomainService.orchestrate]execution environment unavailable", zap.Error(err))
		return aggregate.NewFailedResponse(vo.InternalError, "execution environment unavailable", nil)
	}
	redactions := ex.Redact(ws)
	src := ex.SourcePath(ws, req.Language)

	if command, ok := req.Language.CompileCommand(src); ok {
		msg, err := ex.Compile(ctx, command, s.compileTimeout)
		if err != nil {
			logger.Error("[SandboxDomainService.orchestrate]compile failed to run", zap.Error(err))
			return aggregate.NewFailedResponse(vo.InternalError, "compiler failed to run", nil)
		}
		if msg.TimedOut {
			return aggregate.NewFailedResponse(vo.CompileError,
				fmt.Sprintf("compilation timed out after %d ms", msg.Time), nil)
		}
		if msg.ExitCode != 0 {
			output := msg.Stderr
			if strings.TrimSpace(output) == "" {
				output = msg.Stdout
			}
			return aggregate.NewFailedResponse(vo.CompileError, redact(output, redactions), nil)
		}
	}

	command := req.Language.RunCommand(ws.ID, src)
	for i, input := range req.Inputs {
		msg, err := ex.Execute(ctx, command, input, s.runTimeout)
		metrics.TestCasesTotal.Inc()
		if err != nil {
			logger.Error("[SandboxDomainService.orchestrate]test case failed to run", zap.Int("case", i), zap.Error(err))
			return aggregate.NewFailedResponse(vo.InternalError, "program failed to run", msgs)
		}
		msgs = append(msgs, msg)
		if verdict, detail := s.classify(msg, redactions); verdict.Failed() {
			logger.Debug("[SandboxDomainService.orchestrate]test case failed",
				zap.Int("case", i), zap.String("verdict", verdict.String()))
			return aggregate.NewFailedResponse(verdict, detail, msgs)
		}
	}
	return aggregate.NewCollectedResponse(len(req.Inputs), msgs)
}

func (s *SandboxDomainService) classify(msg *aggregate.ExecutionMessage, redactions []string) (vo.Verdict, string) {
	switch {
	case msg.TimedOut:
		return vo.TimeLimitExceeded, fmt.Sprintf("time limit exceeded after %d ms", msg.Time)
	case msg.OOMKilled:
		return vo.MemoryLimitExceeded, fmt.Sprintf("killed at the container memory ceiling (%d KB measured)", msg.Memory)
	case s.memoryLimit > 0 && (msg.Memory > s.memoryLimit || (msg.ExitCode == exitCodeKilled && msg.Memory >= s.memoryLimit)):
		return vo.MemoryLimitExceeded, fmt.Sprintf("memory usage %d KB exceeds limit %d KB", msg.Memory, s.memoryLimit)
	case msg.ExitCode != 0:
		detail := redact(msg.Stderr, redactions)
		if strings.TrimSpace(detail) == "" {
			detail = fmt.Sprintf("process exited with code %d", msg.ExitCode)
		}
		return vo.RuntimeError, detail
	default:
		return vo.Accepted, ""
	}
}

// redact strips workspace paths from output shown to the submitter.
func redact(text string, prefixes []string) string {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		text = strings.ReplaceAll(text, p, "")
	}
	return text
}
