// Package app wires the configured stores, sinks and engines into a running
// service.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/wiltonn/productfolio-sub002/config"
	"github.com/wiltonn/productfolio-sub002/core/forecast"
	"github.com/wiltonn/productfolio-sub002/core/gap"
	"github.com/wiltonn/productfolio-sub002/infra/audit"
	"github.com/wiltonn/productfolio-sub002/infra/fixture"
	"github.com/wiltonn/productfolio-sub002/infra/logger"
	"github.com/wiltonn/productfolio-sub002/infra/metrics"
	"github.com/wiltonn/productfolio-sub002/internal/cache"
	"github.com/wiltonn/productfolio-sub002/internal/eventbus"
)

// Service holds the wired planning engines around a shared plan store.
type Service struct {
	Store      *fixture.Store
	Calculator *gap.Calculator
	Engine     *forecast.Engine
	Bus        *eventbus.Bus

	cfg    *config.Config
	log    logger.Logger
	closer func() error
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	store, err := fixture.Load(cfg.Plan.Path)
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}

	sink, err := metrics.BuildSinks(cfg.Metrics)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}

	var runs forecast.RunStore
	closer := func() error { return nil }
	switch cfg.Audit.Backend {
	case "sqlite":
		s, err := audit.NewSQLiteStore(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("audit store: %w", err)
		}
		runs = s
		closer = s.Close
	case "jsonl":
		s, err := audit.NewJSONLStore(cfg.Audit.Path)
		if err != nil {
			return nil, fmt.Errorf("audit store: %w", err)
		}
		runs = s
	}

	c := cache.NewMemory()
	ttl := time.Duration(cfg.Forecast.CacheTTLSeconds) * time.Second
	calc := gap.NewCalculator(store, c, logg, sink, ttl)
	engine := forecast.NewEngine(store, store, store, calc, runs, c, logg, sink)

	return &Service{
		Store:      store,
		Calculator: calc,
		Engine:     engine,
		Bus:        eventbus.New(),
		cfg:        cfg,
		log:        logg,
		closer:     closer,
	}, nil
}

// Run blocks until the context is cancelled, invalidating cached results
// whenever a scenario change is published on the bus.
func (s *Service) Run(ctx context.Context) error {
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	sub := s.Bus.Subscribe()
	defer s.Bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub:
			if !ok {
				return nil
			}
			s.log.Infof("scenario %s changed (%s); invalidating caches", ev.ScenarioID, ev.Change)
			s.Calculator.Invalidate(ev.ScenarioID)
			s.Engine.Invalidate(ev.ScenarioID)
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.Bus.Close()
	return s.closer()
}
