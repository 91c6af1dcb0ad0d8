package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/zerowaste/core/metrics"
	"github.com/kilianp07/zerowaste/infra/logger"
)

// InfluxSink writes allocation events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordScore writes the score with the features that produced it.
func (s *InfluxSink) RecordScore(ev coremetrics.ScoreEvent) error {
	p := write.NewPointWithMeasurement("priority_score").
		AddTag("donation_id", ev.DonationID).
		AddTag("receiver_id", ev.ReceiverID).
		AddTag("food_type", ev.FoodType).
		AddTag("model_version", ev.ModelVersion).
		AddField("score", round3(ev.Score)).
		AddField("distance_km", round3(ev.Features.ReceiverDistanceKM)).
		AddField("capacity", round3(ev.Features.ReceiverCapacity)).
		AddField("quantity", round3(ev.Features.Quantity)).
		AddField("hours_to_expiry", round3(ev.Features.TimeToExpiryHours)).
		AddField("duration_ms", round3(float64(ev.Duration.Microseconds())/1000)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordRequest writes a stored pickup request.
func (s *InfluxSink) RecordRequest(ev coremetrics.RequestEvent) error {
	r := ev.Request
	p := write.NewPointWithMeasurement("pickup_request").
		AddTag("request_id", r.ID).
		AddTag("donation_id", r.DonationID).
		AddTag("receiver_id", r.ReceiverID).
		AddTag("donor_id", ev.DonorID).
		AddTag("model_version", r.ModelVersion).
		AddField("score", round3(r.PriorityScore)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordDecision writes a donor decision.
func (s *InfluxSink) RecordDecision(ev coremetrics.DecisionEvent) error {
	p := write.NewPointWithMeasurement("pickup_decision").
		AddTag("request_id", ev.RequestID).
		AddTag("donation_id", ev.DonationID).
		AddTag("receiver_id", ev.ReceiverID).
		AddTag("decision", string(ev.Decision)).
		AddTag("outcome", ev.Outcome).
		AddField("cascaded", ev.Cascaded).
		AddField("latency_s", round3(ev.Latency.Seconds())).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordCompletion writes a collected donation.
func (s *InfluxSink) RecordCompletion(ev coremetrics.CompletionEvent) error {
	p := write.NewPointWithMeasurement("pickup_completed").
		AddTag("donation_id", ev.DonationID).
		AddTag("receiver_id", ev.ReceiverID)
	if ev.Unit != "" {
		p = p.AddTag("unit", ev.Unit)
	}
	p = p.AddField("quantity", round3(ev.Quantity)).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordNotification writes a delivery attempt.
func (s *InfluxSink) RecordNotification(ev coremetrics.NotificationEvent) error {
	p := write.NewPointWithMeasurement("notification").
		AddTag("topic", ev.Topic).
		AddTag("recipient", ev.Recipient).
		AddField("delivered", ev.Delivered).
		SetTime(ev.Time)
	return s.write(p)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
