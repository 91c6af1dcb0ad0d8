package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/zerowaste/core/metrics"
	"github.com/kilianp07/zerowaste/core/model"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, s.RecordScore(coremetrics.ScoreEvent{ModelVersion: "v1", FoodType: "dairy"}))
	require.NoError(t, s.RecordScore(coremetrics.ScoreEvent{ModelVersion: "v1", FoodType: "dairy"}))
	require.NoError(t, s.RecordDecision(coremetrics.DecisionEvent{Decision: model.DecisionAccept, Outcome: "accepted", Cascaded: 2, Latency: 10 * time.Minute}))
	require.NoError(t, s.RecordCompletion(coremetrics.CompletionEvent{Quantity: 12.5}))
	require.NoError(t, s.RecordNotification(coremetrics.NotificationEvent{Delivered: false}))

	assert.Equal(t, 2.0, testutil.ToFloat64(s.scores.WithLabelValues("v1", "dairy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.decisions.WithLabelValues("accept", "accepted")))
	assert.Equal(t, 1, testutil.CollectAndCount(s.latency))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.completions))
	assert.Equal(t, 12.5, testutil.ToFloat64(s.collected.WithLabelValues("kg")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.notifications.WithLabelValues("false")))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	b, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, a.RecordCompletion(coremetrics.CompletionEvent{Quantity: 1}))
	require.NoError(t, b.RecordCompletion(coremetrics.CompletionEvent{Quantity: 1}))
	assert.Equal(t, 2.0, testutil.ToFloat64(a.completions))
}

func TestSinksRegistered(t *testing.T) {
	assert.Subset(t, coremetrics.SinkTypes(), []string{"nop", "prometheus", "influx"})
}
