package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	auditapi "github.com/kilianp07/zerowaste/api/audit"
	"github.com/kilianp07/zerowaste/api/pickups"
	"github.com/kilianp07/zerowaste/app/plugins"
	"github.com/kilianp07/zerowaste/config"
	"github.com/kilianp07/zerowaste/core/allocation"
	"github.com/kilianp07/zerowaste/core/allocation/audit"
	"github.com/kilianp07/zerowaste/core/events"
	coremetrics "github.com/kilianp07/zerowaste/core/metrics"
	coremon "github.com/kilianp07/zerowaste/core/monitoring"
	"github.com/kilianp07/zerowaste/core/notify"
	"github.com/kilianp07/zerowaste/core/scoring"
	"github.com/kilianp07/zerowaste/infra/artifacts"
	"github.com/kilianp07/zerowaste/infra/logger"
	"github.com/kilianp07/zerowaste/infra/metrics"
	"github.com/kilianp07/zerowaste/infra/monitoring"
	"github.com/kilianp07/zerowaste/infra/mqtt"
	"github.com/kilianp07/zerowaste/infra/store"
	"github.com/kilianp07/zerowaste/internal/eventbus"
)

const shutdownTimeout = 5 * time.Second

// Service wires the allocation engine to its store, audit log, metrics,
// notifications and HTTP API.
type Service struct {
	Engine *allocation.Engine
	Store  plugins.Backend
	Audit  audit.LogStore

	cfg    *config.Config
	bus    *eventbus.Bus[events.Event]
	sink   coremetrics.MetricsSink
	mqtt   *mqtt.PahoClient
	relay  *notify.Relay
	server *http.Server
	log    logger.Logger
}

// New creates a Service from the configuration. Scoring artifacts are
// required: without them every request would fail, so startup does instead.
func New(cfg *config.Config) (*Service, error) {
	logger.Configure(cfg.Logging)
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	scorer, err := LoadScorer(cfg.Model)
	if err != nil {
		return nil, err
	}

	st, err := OpenStore(context.Background(), cfg.Store)
	if err != nil {
		return nil, err
	}
	svc := &Service{Store: st, cfg: cfg, log: logg}

	if cfg.Audit.Backend == "sqlite" {
		if err := plugins.EnsureDir(cfg.Audit.Path); err != nil {
			return nil, svc.abort(fmt.Errorf("audit dir: %w", err))
		}
	}
	svc.Audit, err = audit.Open(cfg.Audit)
	if err != nil {
		return nil, svc.abort(fmt.Errorf("audit: %w", err))
	}

	svc.sink, err = coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, svc.abort(fmt.Errorf("metrics sink: %w", err))
	}

	svc.bus = eventbus.New[events.Event](eventbus.DefaultBuffer)
	svc.Engine, err = allocation.NewEngine(st, scorer,
		allocation.WithLogger(logger.New("allocation")),
		allocation.WithBus(svc.bus),
		allocation.WithSink(svc.sink),
		allocation.WithAudit(svc.Audit),
	)
	if err != nil {
		return nil, svc.abort(err)
	}

	if cfg.MQTT.Enabled() {
		svc.mqtt, err = mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return nil, svc.abort(fmt.Errorf("mqtt client: %w", err))
		}
		svc.relay = notify.NewRelay(svc.mqtt, notify.Topics{Prefix: cfg.MQTT.TopicPrefix}, logger.New("notify"), svc.sink)
	} else {
		logg.Infof("mqtt broker not configured, notifications are poll-only")
	}

	svc.server = &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	logg.Infof("engine ready: store=%s model=%s", cfg.Store.Backend, scorer.Version())
	return svc, nil
}

// LoadScorer reads the artifact file and builds the scorer.
func LoadScorer(cfg config.ModelConfig) (*scoring.Scorer, error) {
	bundle, err := artifacts.Load(cfg.ArtifactPath)
	if err != nil {
		return nil, err
	}
	return scoring.NewScorer(bundle)
}

// OpenStore opens the configured backend and seeds the fixture file, if any.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (plugins.Backend, error) {
	st, err := plugins.OpenStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if cfg.Fixtures == "" {
		return st, nil
	}
	fx, err := store.LoadFixtures(cfg.Fixtures)
	if err == nil {
		err = fx.Seed(ctx, st, time.Now())
	}
	if err != nil {
		if c, ok := st.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return st, nil
}

// Handler returns the full HTTP surface: the pickup API, the audit log,
// Prometheus metrics and a liveness probe.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/", pickups.NewHandler(s.Engine, logger.New("api")))
	mux.Handle("/api/audit", auditapi.NewLogHandler(s.Audit, s.cfg.HTTP.AuditToken))
	mux.Handle("/metrics", metrics.Handler(nil))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Run serves the API and forwards events until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.relay != nil {
		ch := s.bus.Subscribe()
		go func() {
			defer coremon.Recover()
			s.relay.Run(ctx, ch)
		}()
	}
	metrics.StartEventCollector(ctx, s.bus, s.sink)

	if addr := s.cfg.Metrics.PromAddr; addr != "" {
		go func() {
			defer coremon.Recover()
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("serving api on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			coremon.CaptureException(err, map[string]string{"module": "http"})
			return fmt.Errorf("http server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.bus != nil {
		s.bus.Close()
	}
	if s.mqtt != nil {
		s.mqtt.Disconnect()
	}
	var errs []error
	if s.Audit != nil {
		errs = append(errs, s.Audit.Close())
	}
	if c, ok := s.Store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	coremon.Flush(2 * time.Second)
	return errors.Join(errs...)
}

// abort closes whatever New opened before failing with err.
func (s *Service) abort(err error) error {
	if cerr := s.Close(); cerr != nil {
		s.log.Warnf("cleanup after failed start: %v", cerr)
	}
	return err
}
