package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	v1 "github.com/Wenrh2004/judge-sandbox/api/v1"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/adapter/convert"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/service"
	"github.com/Wenrh2004/judge-sandbox/pkg/adapter"
)

type sandboxService interface {
	Execute(ctx context.Context, req *aggregate.ExecutionRequest) *aggregate.ExecutionResponse
}

// ExecuteHandler serves POST /v1/execute.
type ExecuteHandler struct {
	*adapter.Service
	sandbox sandboxService
	sf      singleflight.Group
}

// NewExecuteHandler binds the handler to the sandbox domain service.
func NewExecuteHandler(srv *adapter.Service, sandbox *service.SandboxDomainService) *ExecuteHandler {
	return &ExecuteHandler{
		Service: srv,
		sandbox: sandbox,
	}
}

// Execute godoc
//	@Summary		Execute code
//	@Description	Compiles the submission and runs it once per input, returning each case's stdout
//	@Tags			sandbox
//	@Accept			json
//	@Produce		json
//	@Param			auth	header		string				true	"shared secret"
//	@Param			request	body		v1.ExecuteRequest	true	"submission"
//	@Success		200		{object}	v1.ExecuteResponse	"classified result, failures included"
//	@Failure		400		{object}	v1.Response			"invalid request or unsupported language"
//	@Failure		403		{object}	v1.Response			"missing or wrong secret"
//	@Failure		500		{object}	v1.Response			"internal server error"
//	@Router			/v1/execute [post]
func (h *ExecuteHandler) Execute(ctx context.Context, c *app.RequestContext) {
	var req v1.ExecuteRequest
	if err := c.BindAndValidate(&req); err != nil {
		h.Logger.WithContext(ctx).Warn("[ExecuteHandler.Execute]invalid request", zap.Error(err))
		v1.HandlerError(c, consts.StatusBadRequest, v1.ErrBadRequest)
		return
	}

	// identical bodies submitted concurrently are run once
	sum := sha256.Sum256(c.Request.Body())
	result, err, shared := h.sf.Do(hex.EncodeToString(sum[:]), func() (interface{}, error) {
		r, err := convert.ExecuteRequestConvert(&req)
		if err != nil {
			return nil, err
		}
		// the result is shared, so the first caller disconnecting must not cancel it
		return h.sandbox.Execute(context.WithoutCancel(ctx), r), nil
	})
	if err != nil {
		if errors.Is(err, vo.ErrUnsupportedLanguage) {
			h.Logger.WithContext(ctx).Warn("[ExecuteHandler.Execute]unsupported language", zap.String("language", req.Language))
			v1.HandlerError(c, consts.StatusBadRequest, v1.ErrUnsupportedLanguage)
			return
		}
		h.Logger.WithContext(ctx).Error("[ExecuteHandler.Execute]execute failed", zap.Error(err))
		v1.HandlerError(c, consts.StatusInternalServerError, v1.ErrInternalServerError)
		return
	}
	if shared {
		h.Logger.WithContext(ctx).Debug("[ExecuteHandler.Execute]result shared with a concurrent request")
	}

	v1.HandlerSuccess(c, convert.ExecuteResponseConvert(result.(*aggregate.ExecutionResponse)))
}
