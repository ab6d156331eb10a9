package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	v1 "github.com/Wenrh2004/judge-sandbox/api/v1"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
	"github.com/Wenrh2004/judge-sandbox/pkg/adapter"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

type fakeSandbox struct {
	calls  atomic.Int32
	delay  time.Duration
	last   atomic.Pointer[aggregate.ExecutionRequest]
	ctxErr atomic.Value
}

func (f *fakeSandbox) Execute(ctx context.Context, req *aggregate.ExecutionRequest) *aggregate.ExecutionResponse {
	f.calls.Add(1)
	f.last.Store(req)
	f.ctxErr.Store(fmt.Sprint(ctx.Err()))
	time.Sleep(f.delay)
	msgs := make([]*aggregate.ExecutionMessage, 0, len(req.Inputs))
	for _, in := range req.Inputs {
		msgs = append(msgs, &aggregate.ExecutionMessage{Stdout: in, Time: 5})
	}
	return aggregate.NewCollectedResponse(len(req.Inputs), msgs)
}

type responseEnvelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    v1.ExecuteResponseBody `json:"data"`
}

func newTestEngine(t *testing.T, sandbox *fakeSandbox) *server.Hertz {
	t.Helper()
	conf := viper.New()
	conf.Set("app.auth.header", "auth")
	conf.Set("app.auth.secret", "secretKey")
	srv := adapter.NewService(log.New(zaptest.NewLogger(t)))

	h := server.New()
	exec := &ExecuteHandler{Service: srv, sandbox: sandbox}
	h.POST("/v1/execute", NewAuthHandler(conf, srv).Authenticate, exec.Execute)
	return h
}

func post(h *server.Hertz, body string, headers ...ut.Header) (int, responseEnvelope) {
	headers = append(headers, ut.Header{Key: "Content-Type", Value: "application/json"})
	w := ut.PerformRequest(h.Engine, consts.MethodPost, "/v1/execute",
		&ut.Body{Body: bytes.NewBufferString(body), Len: len(body)}, headers...)
	resp := w.Result()
	var env responseEnvelope
	_ = json.Unmarshal(resp.Body(), &env)
	return resp.StatusCode(), env
}

var authed = ut.Header{Key: "auth", Value: "secretKey"}

func TestExecute(t *testing.T) {
	sandbox := &fakeSandbox{}
	h := newTestEngine(t, sandbox)

	status, env := post(h, `{"code":"print(input())","language":"python","inputs":["1 2","3 4"]}`, authed)

	require.Equal(t, consts.StatusOK, status)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, []string{"1 2", "3 4"}, env.Data.Outputs)
	assert.Equal(t, 2, env.Data.Status)
	assert.Equal(t, int64(5), env.Data.JudgeInfo.Time)
	assert.Same(t, vo.PYTHON, sandbox.last.Load().Language)
}

func TestExecuteRejectsMissingSecret(t *testing.T) {
	sandbox := &fakeSandbox{}
	h := newTestEngine(t, sandbox)
	body := `{"code":"print(1)","language":"python"}`

	status, env := post(h, body)
	assert.Equal(t, consts.StatusForbidden, status)
	assert.Equal(t, "Forbidden", env.Message)

	status, _ = post(h, body, ut.Header{Key: "auth", Value: "wrong"})
	assert.Equal(t, consts.StatusForbidden, status)
	assert.Zero(t, sandbox.calls.Load())
}

func TestExecuteBadRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"malformed", `{"code":`, "InvalidParam"},
		{"missing code", `{"language":"python"}`, "InvalidParam"},
		{"empty language", `{"code":"x","language":""}`, "InvalidParam"},
		{"unknown language", `{"code":"x","language":"cobol"}`, "UnsupportedLanguage"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sandbox := &fakeSandbox{}
			status, env := post(newTestEngine(t, sandbox), tt.body, authed)
			assert.Equal(t, consts.StatusBadRequest, status)
			assert.Equal(t, tt.message, env.Message)
			assert.Zero(t, sandbox.calls.Load())
		})
	}
}

func TestExecuteCollapsesIdenticalConcurrentRequests(t *testing.T) {
	sandbox := &fakeSandbox{delay: 200 * time.Millisecond}
	h := newTestEngine(t, sandbox)
	body := `{"code":"print(input())","language":"python","inputs":["1"]}`

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, env := post(h, body, authed)
			assert.Equal(t, consts.StatusOK, status)
			assert.Equal(t, []string{"1"}, env.Data.Outputs)
		}()
	}
	wg.Wait()
	assert.Less(t, sandbox.calls.Load(), int32(4))
}

func TestExecuteSurvivesCallerCancellation(t *testing.T) {
	sandbox := &fakeSandbox{}
	exec := &ExecuteHandler{Service: adapter.NewService(log.New(zaptest.NewLogger(t))), sandbox: sandbox}

	c := app.NewContext(0)
	c.Request.SetMethod(consts.MethodPost)
	c.Request.Header.SetContentTypeBytes([]byte("application/json"))
	c.Request.SetBody([]byte(`{"code":"print(input())","language":"python","inputs":["1"]}`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec.Execute(ctx, c)

	require.Equal(t, int32(1), sandbox.calls.Load())
	assert.Equal(t, "<nil>", sandbox.ctxErr.Load(), "a shared run must not inherit the caller's cancellation")
	assert.Equal(t, consts.StatusOK, c.Response.StatusCode())
}
