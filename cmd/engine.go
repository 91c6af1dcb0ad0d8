package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kilianp07/zerowaste/app"
	"github.com/kilianp07/zerowaste/app/plugins"
	"github.com/kilianp07/zerowaste/config"
	"github.com/kilianp07/zerowaste/core/allocation"
	"github.com/kilianp07/zerowaste/core/allocation/audit"
	coremetrics "github.com/kilianp07/zerowaste/core/metrics"
	"github.com/kilianp07/zerowaste/infra/logger"
)

// oneShot is an engine for a single CLI command. It shares the store and
// audit log with a running server but publishes no notifications.
type oneShot struct {
	engine *allocation.Engine
	store  plugins.Backend
	audit  audit.LogStore
}

func openEngine(ctx context.Context) (*oneShot, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Configure(cfg.Logging)

	scorer, err := app.LoadScorer(cfg.Model)
	if err != nil {
		return nil, err
	}
	st, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	o := &oneShot{store: st}
	if cfg.Audit.Backend == "sqlite" {
		if err := plugins.EnsureDir(cfg.Audit.Path); err != nil {
			return nil, errors.Join(err, o.Close())
		}
	}
	if o.audit, err = audit.Open(cfg.Audit); err != nil {
		return nil, errors.Join(fmt.Errorf("audit: %w", err), o.Close())
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("metrics sink: %w", err), o.Close())
	}
	o.engine, err = allocation.NewEngine(st, scorer,
		allocation.WithLogger(logger.New("cli")),
		allocation.WithSink(sink),
		allocation.WithAudit(o.audit),
	)
	if err != nil {
		return nil, errors.Join(err, o.Close())
	}
	return o, nil
}

func (o *oneShot) Close() error {
	var errs []error
	if o.audit != nil {
		errs = append(errs, o.audit.Close())
	}
	if c, ok := o.store.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
