package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilRegistererIsNoop(t *testing.T) {
	m, err := New(nil)
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		m.ObserveAction("put", true, time.Millisecond)
		m.SetQueueDepth(3)
		m.TaskStarted()
		m.TaskFinished(ResultOK)
		m.DispatchTimedOut()
		m.WeakReaped()
	})
}

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveAction("put", true, time.Millisecond)
	m.ObserveAction("put", true, time.Millisecond)
	m.ObserveAction("remove", false, time.Millisecond)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.actions.WithLabelValues("put", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("remove", ResultFailed)))

	m.TaskStarted()
	m.TaskStarted()
	m.TaskFinished(ResultOK)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pendingTasks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues(ResultOK)))

	m.DispatchTimedOut()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dispatchSlow))

	m.SetQueueDepth(4)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.queueDepth))

	m.WeakReaped()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.weakReaped))
}

func TestNew_RegisterTwiceSharesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := New(reg)
	require.NoError(t, err)
	second, err := New(reg)
	require.NoError(t, err)

	first.WeakReaped()
	second.WeakReaped()
	assert.Equal(t, 2.0, testutil.ToFloat64(first.weakReaped))
}
