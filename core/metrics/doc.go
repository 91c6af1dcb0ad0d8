// Package metrics defines the sinks that record allocation activity for
// observability. A sink must implement MetricsSink; the optional recorder
// interfaces are discovered with type assertions so that a backend only
// implements the events it can store. Several sinks are combined with
// NewMultiSink, and NewMetricsSink builds one from configuration using the
// factories registered by infra/metrics.
package metrics
