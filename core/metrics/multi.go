package metrics

import "errors"

// MultiSink fans events out to several sinks. Optional recorders are only
// called on sinks that implement them. Errors are joined so one failing
// backend does not hide the others.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink returns a MultiSink, skipping nil entries.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	out := make([]MetricsSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &MultiSink{Sinks: out}
}

func (m *MultiSink) RecordScore(ev ScoreEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordScore(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordRequest(ev RequestEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(RequestRecorder); ok {
			errs = append(errs, r.RecordRequest(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordDecision(ev DecisionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(DecisionRecorder); ok {
			errs = append(errs, r.RecordDecision(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordCompletion(ev CompletionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(CompletionRecorder); ok {
			errs = append(errs, r.RecordCompletion(ev))
		}
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordNotification(ev NotificationEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if r, ok := s.(NotificationRecorder); ok {
			errs = append(errs, r.RecordNotification(ev))
		}
	}
	return errors.Join(errs...)
}
