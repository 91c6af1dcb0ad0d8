package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/zerowaste/core/factory"
	coremetrics "github.com/kilianp07/zerowaste/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	// The /metrics listener is configured by metrics.prom_addr, not per sink.
	_ = coremetrics.RegisterMetricsSink("prometheus", func(map[string]any) (coremetrics.MetricsSink, error) {
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
			// SkipHealth keeps the sink even when the first health check fails.
			SkipHealth bool `json:"skip_health"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.SkipHealth {
			return NewInfluxSink(c.URL, c.Token, c.Org, c.Bucket), nil
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}
