package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/zerowaste/core/metrics"
	"github.com/kilianp07/zerowaste/core/model"
)

type lineServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []string
}

func newLineServer(t *testing.T) *lineServer {
	t.Helper()
	ls := &lineServer{}
	ls.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		ls.mu.Lock()
		ls.bodies = append(ls.bodies, strings.TrimSpace(string(b)))
		ls.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(ls.Close)
	return ls
}

func (ls *lineServer) lines() []string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return append([]string(nil), ls.bodies...)
}

func line(p *write.Point) string {
	return strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
}

func TestInfluxSink_RecordScore(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.ScoreEvent{
		DonationID:   "d1",
		ReceiverID:   "r1",
		FoodType:     "vegetables",
		Score:        0.6912,
		ModelVersion: "v1",
		Features:     model.FeatureVector{ReceiverCapacity: 50, ReceiverDistanceKM: 2.0004, Quantity: 20, TimeToExpiryHours: 3},
		Duration:     1500 * time.Microsecond,
		Time:         now,
	}
	if err := sink.RecordScore(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("priority_score").
		AddTag("donation_id", "d1").
		AddTag("receiver_id", "r1").
		AddTag("food_type", "vegetables").
		AddTag("model_version", "v1").
		AddField("score", 0.691).
		AddField("distance_km", 2.0).
		AddField("capacity", 50.0).
		AddField("quantity", 20.0).
		AddField("hours_to_expiry", 3.0).
		AddField("duration_ms", 1.5).
		SetTime(now)
	got := srv.lines()
	if len(got) != 1 || got[0] != line(p) {
		t.Errorf("unexpected bodies: %#v", got)
	}
}

func TestInfluxSink_RecordDecision(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.DecisionEvent{
		RequestID:  "req1",
		DonationID: "d1",
		ReceiverID: "r1",
		Decision:   model.DecisionAccept,
		Outcome:    "accepted",
		Cascaded:   2,
		Latency:    90 * time.Second,
		Time:       now,
	}
	if err := sink.RecordDecision(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("pickup_decision").
		AddTag("request_id", "req1").
		AddTag("donation_id", "d1").
		AddTag("receiver_id", "r1").
		AddTag("decision", "accept").
		AddTag("outcome", "accepted").
		AddField("cascaded", 2).
		AddField("latency_s", 90.0).
		SetTime(now)
	got := srv.lines()
	if len(got) != 1 || got[0] != line(p) {
		t.Errorf("bodies: %#v", got)
	}
}

func TestInfluxSink_RecordRequestAndCompletion(t *testing.T) {
	srv := newLineServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	req := model.PickupRequest{ID: "req1", DonationID: "d1", ReceiverID: "r1", PriorityScore: 0.5, ModelVersion: "v1"}
	if err := sink.RecordRequest(coremetrics.RequestEvent{Request: req, DonorID: "donor1", Time: now}); err != nil {
		t.Fatalf("record request: %v", err)
	}
	if err := sink.RecordCompletion(coremetrics.CompletionEvent{DonationID: "d1", ReceiverID: "r1", Quantity: 20, Unit: "kg", Time: now}); err != nil {
		t.Fatalf("record completion: %v", err)
	}
	if err := sink.RecordNotification(coremetrics.NotificationEvent{Topic: "zw/receivers/r1/pickups", Recipient: "r1", Delivered: true, Time: now}); err != nil {
		t.Fatalf("record notification: %v", err)
	}
	p1 := write.NewPointWithMeasurement("pickup_request").
		AddTag("request_id", "req1").
		AddTag("donation_id", "d1").
		AddTag("receiver_id", "r1").
		AddTag("donor_id", "donor1").
		AddTag("model_version", "v1").
		AddField("score", 0.5).
		SetTime(now)
	p2 := write.NewPointWithMeasurement("pickup_completed").
		AddTag("donation_id", "d1").
		AddTag("receiver_id", "r1").
		AddTag("unit", "kg").
		AddField("quantity", 20.0).
		SetTime(now)
	p3 := write.NewPointWithMeasurement("notification").
		AddTag("topic", "zw/receivers/r1/pickups").
		AddTag("recipient", "r1").
		AddField("delivered", true).
		SetTime(now)
	got := srv.lines()
	want := []string{line(p1), line(p2), line(p3)}
	if len(got) != len(want) {
		t.Fatalf("bodies: %#v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("body %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
