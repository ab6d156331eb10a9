package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

type fakeServer struct {
	startErr error
	started  atomic.Bool
	stopped  atomic.Bool
}

func (f *fakeServer) Start(ctx context.Context) error {
	f.started.Store(true)
	if f.startErr != nil {
		return f.startErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeServer) Stop(context.Context) error {
	f.stopped.Store(true)
	return nil
}

func TestRunStopsOnContextCancel(t *testing.T) {
	srv := &fakeServer{}
	a := NewApp(WithName("test"), WithServer(srv), WithLogger(log.New(zaptest.NewLogger(t))))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.NoError(t, a.Run(ctx))
	assert.True(t, srv.started.Load())
	assert.True(t, srv.stopped.Load())
}

func TestRunReturnsServerError(t *testing.T) {
	boom := errors.New("listen failed")
	bad := &fakeServer{startErr: boom}
	good := &fakeServer{}
	a := NewApp(WithServer(bad, good), WithStopTimeout(time.Second))

	err := a.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, good.stopped.Load())
}
