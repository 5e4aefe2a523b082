package lanes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for lane executors. Per-lane series carry the
// "executor" and "lane" labels; executor-wide series only "executor".

var (
	lanesAlive = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "lanes_alive",
		Help: "The number of lane goroutines currently running",
	}, []string{"executor"})

	tasksSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "lanes_tasks_submitted_total",
		Help: "The total number of tasks accepted onto a lane",
	}, []string{"executor", "lane"})

	tasksRejected = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "lanes_tasks_rejected_total",
		Help: "The total number of tasks rejected because the executor was shut down",
	}, []string{"executor"})

	tasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "lanes_tasks_completed_total",
		Help: "The total number of tasks that returned without error",
	}, []string{"executor", "lane"})

	tasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "lanes_tasks_failed_total",
		Help: "The total number of tasks that returned an error or panicked",
	}, []string{"executor", "lane"})

	tasksPanicked = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "lanes_tasks_panicked_total",
		Help: "The total number of tasks that panicked",
	}, []string{"executor", "lane"})

	tasksDrained = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "lanes_tasks_drained_total",
		Help: "The total number of queued tasks handed back by ShutdownNow",
	}, []string{"executor", "lane"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "lanes_queue_depth",
		Help: "The number of tasks waiting on a lane",
	}, []string{"executor", "lane"})

	taskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name: "lanes_task_duration_seconds",
		Help: "The time spent running a task on its lane",
		Buckets: []float64{
			0.0001, // 100µs
			0.001,  // 1ms
			0.01,   // 10ms
			0.1,    // 100ms
			1,      // 1s
			10,     // 10s
			60,     // 1m
		},
	}, []string{"executor", "lane"})
)
