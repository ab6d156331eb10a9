package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_executions_total",
			Help: "Finished submissions by language and verdict.",
		},
		[]string{"language", "verdict"},
	)

	ExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sandbox_execution_duration_seconds",
			Help:    "Wall time of a whole submission pipeline.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"language"},
	)

	TestCasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandbox_test_cases_total",
		Help: "Test cases executed.",
	})

	CallerRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sandbox_caller_runs_total",
		Help: "Submissions run on the caller goroutine because the queue was full.",
	})

	ContainerRestartsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandbox_container_restarts_total",
			Help: "Pool container (re)starts by reason.",
		},
		[]string{"reason"},
	)

	ContainersReady = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sandbox_containers_ready",
		Help: "Pool containers currently provisioned.",
	})
)

// RegisterWorkerGauges exposes pool occupancy through callbacks; repeated calls are ignored.
func RegisterWorkerGauges(running, waiting func() int) {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sandbox_workers_running",
			Help: "Workers currently executing a submission.",
		}, func() float64 { return float64(running()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sandbox_workers_waiting",
			Help: "Submissions blocked waiting for a worker.",
		}, func() float64 { return float64(waiting()) }),
	}
	for _, c := range collectors {
		_ = prometheus.Register(c)
	}
}
