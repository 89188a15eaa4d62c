// Package metrics exposes registry activity as Prometheus collectors.
//
// Metrics are optional: New(nil) returns a Metrics value whose methods do
// nothing, so callers never need nil checks.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "registrar"

// Task results.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics holds the collectors of one registry instance.
type Metrics struct {
	enabled bool

	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	queueDepth     prometheus.Gauge
	tasks          *prometheus.CounterVec
	pendingTasks   prometheus.Gauge
	dispatchSlow   prometheus.Counter
	weakReaped     prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg yields
// no-op metrics. Registering twice on the same registerer reuses the
// collectors already present.
func New(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return &Metrics{}, nil
	}

	m := &Metrics{
		enabled: true,
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "actions_total",
			Help:      "Total number of mutations applied by the serializer goroutine",
		}, []string{"action", "result"}),
		actionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "action_duration_seconds",
			Help:      "Time spent applying a mutation, including watcher dispatch",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"action"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "queue_depth",
			Help:      "Number of mutations waiting for the serializer goroutine",
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchers",
			Name:      "tasks_total",
			Help:      "Total number of watcher notification tasks by result",
		}, []string{"result"}),
		pendingTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watchers",
			Name:      "pending_tasks",
			Help:      "Number of watcher notification tasks in flight",
		}),
		dispatchSlow: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "watchers",
			Name:      "dispatch_timeouts_total",
			Help:      "Total number of notification batches still running when the dispatch timeout expired",
		}),
		weakReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "weak_reaped_total",
			Help:      "Total number of weak watcher registrations removed after their watcher was reclaimed",
		}),
	}

	var err error
	m.actions = register(reg, m.actions, &err)
	m.actionDuration = register(reg, m.actionDuration, &err)
	m.queueDepth = register(reg, m.queueDepth, &err)
	m.tasks = register(reg, m.tasks, &err)
	m.pendingTasks = register(reg, m.pendingTasks, &err)
	m.dispatchSlow = register(reg, m.dispatchSlow, &err)
	m.weakReaped = register(reg, m.weakReaped, &err)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c, or returns the collector already registered under
// the same descriptor.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, errp *error) C {
	if *errp != nil {
		return c
	}
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		*errp = err
	}
	return c
}

// ObserveAction records one applied mutation.
func (m *Metrics) ObserveAction(action string, ok bool, elapsed time.Duration) {
	if !m.enabled {
		return
	}
	result := ResultOK
	if !ok {
		result = ResultFailed
	}
	m.actions.WithLabelValues(action, result).Inc()
	m.actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// SetQueueDepth records the number of queued mutations.
func (m *Metrics) SetQueueDepth(n int) {
	if !m.enabled {
		return
	}
	m.queueDepth.Set(float64(n))
}

// TaskStarted records a watcher task entering the pending set.
func (m *Metrics) TaskStarted() {
	if !m.enabled {
		return
	}
	m.pendingTasks.Inc()
}

// TaskFinished records a watcher task leaving the pending set with result.
func (m *Metrics) TaskFinished(result string) {
	if !m.enabled {
		return
	}
	m.pendingTasks.Dec()
	m.tasks.WithLabelValues(result).Inc()
}

// DispatchTimedOut records a notification batch whose wait expired before
// all of its tasks finished. The tasks themselves are counted by
// TaskFinished once they complete.
func (m *Metrics) DispatchTimedOut() {
	if !m.enabled {
		return
	}
	m.dispatchSlow.Inc()
}

// WeakReaped records the removal of a reclaimed weak watcher.
func (m *Metrics) WeakReaped() {
	if !m.enabled {
		return
	}
	m.weakReaped.Inc()
}
