package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

// statsSample holds the fields of a docker stats frame the monitor reads.
type statsSample struct {
	Read        time.Time `json:"read"`
	MemoryStats struct {
		Usage uint64 `json:"usage"`
	} `json:"memory_stats"`
}

// Monitor samples container memory from the docker stats stream.
//
// The reported figure is max-min usage over the sampling window. Containers are reused across
// cases and never reset, so this is an estimate of the case's incremental footprint against a
// noisy baseline, not an exact per-process peak.
type Monitor struct {
	cli    DockerClient
	logger *log.Logger
}

// NewMonitor samples memory through cli's stats stream.
func NewMonitor(cli DockerClient, logger *log.Logger) *Monitor {
	return &Monitor{cli: cli, logger: logger}
}

// Sampling is one open stats subscription. Stop must be called exactly when the case ends.
type Sampling struct {
	cancel context.CancelFunc
	body   io.Closer
	result chan int64
	once   sync.Once
	peak   int64
}

// Start subscribes to the container's stats stream; samples are consumed on a goroutine
// until Stop, end of stream, or the container leaving the running state.
func (m *Monitor) Start(ctx context.Context, containerID string) (*Sampling, error) {
	ctx, cancel := context.WithCancel(ctx)
	stats, err := m.cli.ContainerStats(ctx, containerID, true)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("[Monitor.Start]open stats stream: %w", err)
	}
	s := &Sampling{
		cancel: cancel,
		body:   stats.Body,
		result: make(chan int64, 1),
	}
	go m.consume(ctx, containerID, stats.Body, s.result)
	return s, nil
}

func (m *Monitor) consume(ctx context.Context, containerID string, body io.Reader, result chan<- int64) {
	var minUsage, maxUsage uint64
	seen := false
	dec := sonic.ConfigDefault.NewDecoder(body)
	for {
		var sample statsSample
		if err := dec.Decode(&sample); err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				m.logger.Debug("[Monitor.consume]stats stream ended", zap.String("containerId", containerID), zap.Error(err))
			}
			break
		}
		// A zero read time is what the daemon sends once the container is not running.
		if sample.Read.IsZero() {
			break
		}
		usage := sample.MemoryStats.Usage
		if !seen {
			minUsage, maxUsage, seen = usage, usage, true
			continue
		}
		minUsage = min(minUsage, usage)
		maxUsage = max(maxUsage, usage)
	}
	result <- int64((maxUsage - minUsage) / 1024)
}

// Stop closes the stream and returns the peak delta in KB. Later calls return the same value.
func (s *Sampling) Stop() int64 {
	s.once.Do(func() {
		s.cancel()
		_ = s.body.Close()
		s.peak = <-s.result
	})
	return s.peak
}
