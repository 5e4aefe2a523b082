package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Series are labelled by executor rather than by agent to keep cardinality
// bounded when agents are created per entity.
var (
	transitionsCommitted = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "agent_transitions_committed_total",
		Help: "The total number of transitions that published a new state",
	}, []string{"executor"})

	transitionsFailed = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "agent_transitions_failed_total",
		Help: "The total number of transitions that failed and left the state unchanged",
	}, []string{"executor"})

	transitionPanics = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "agent_transition_panics_total",
		Help: "The total number of transitions that panicked",
	})

	notifications = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "agent_notifications_total",
		Help: "The total number of watcher calls that returned normally",
	}, []string{"executor"})

	handlerPanics = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "agent_watcher_panics_total",
		Help: "The total number of watcher calls that panicked",
	}, []string{"executor"})

	subscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{ //nolint:gochecknoglobals
		Name: "agent_subscribers",
		Help: "The number of handlers watching an agent",
	}, []string{"executor"})
)
