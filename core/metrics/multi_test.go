package metrics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreOnly struct{ scores int }

func (s *scoreOnly) RecordScore(ScoreEvent) error { s.scores++; return nil }

type fullSink struct {
	scoreOnly
	decisions   int
	requests    int
	completions int
	notified    int
	err         error
}

func (f *fullSink) RecordRequest(RequestEvent) error       { f.requests++; return f.err }
func (f *fullSink) RecordDecision(DecisionEvent) error     { f.decisions++; return f.err }
func (f *fullSink) RecordCompletion(CompletionEvent) error { f.completions++; return nil }
func (f *fullSink) RecordNotification(NotificationEvent) error {
	f.notified++
	return nil
}

func TestMultiSinkFanOut(t *testing.T) {
	a := &scoreOnly{}
	b := &fullSink{}
	m := NewMultiSink(a, nil, b)
	require.Len(t, m.Sinks, 2)

	require.NoError(t, m.RecordScore(ScoreEvent{DonationID: "d1"}))
	require.NoError(t, m.RecordRequest(RequestEvent{}))
	require.NoError(t, m.RecordDecision(DecisionEvent{Outcome: "accepted"}))
	require.NoError(t, m.RecordCompletion(CompletionEvent{}))
	require.NoError(t, m.RecordNotification(NotificationEvent{}))

	assert.Equal(t, 1, a.scores)
	assert.Equal(t, 1, b.scores)
	assert.Equal(t, 1, b.requests)
	assert.Equal(t, 1, b.decisions)
	assert.Equal(t, 1, b.completions)
	assert.Equal(t, 1, b.notified)
}

func TestMultiSinkJoinsErrors(t *testing.T) {
	boom := errors.New("influx down")
	good := &fullSink{}
	bad := &fullSink{err: boom}
	m := NewMultiSink(bad, good)

	err := m.RecordDecision(DecisionEvent{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, good.decisions, "healthy sink must still be called")
}

func TestNewMetricsSinkDefaultsToNop(t *testing.T) {
	s, err := NewMetricsSink(nil)
	require.NoError(t, err)
	_, ok := s.(NopSink)
	assert.True(t, ok, "expected NopSink, got %T", s)
}
