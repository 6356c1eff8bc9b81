// Package gap computes supply/demand gaps for a scenario across skills and
// periods: aggregated demand from prioritized initiative scope, effective
// capacity from employee allocations, and the derived shortages,
// overallocations and skill mismatches.
package gap

import (
	"context"
	"fmt"
	"time"

	"github.com/wiltonn/productfolio-sub002/core/logger"
	"github.com/wiltonn/productfolio-sub002/core/metrics"
	"github.com/wiltonn/productfolio-sub002/internal/cache"
)

// DefaultTTL bounds how long a computed result may be served from cache.
const DefaultTTL = 5 * time.Minute

// baseWeeksPerPeriod converts weekly hours to period hours when no capacity
// calendar entry exists for the employee and period.
const baseWeeksPerPeriod = 13

// Calculator derives gap analyses from a PlanStore, memoizing by scenario id.
type Calculator struct {
	store PlanStore
	cache cache.Cache
	log   logger.Logger
	sink  metrics.Sink
	ttl   time.Duration
}

// NewCalculator wires a calculator. Nil cache, logger or sink fall back to
// no-op implementations; a non-positive ttl uses DefaultTTL.
func NewCalculator(store PlanStore, c cache.Cache, log logger.Logger, sink metrics.Sink, ttl time.Duration) *Calculator {
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Calculator{store: store, cache: c, log: log, sink: sink, ttl: ttl}
}

func cacheKey(scenarioID string) string { return "gap:" + scenarioID }

// Calculate computes (or serves from cache) the gap analysis for a scenario.
func (c *Calculator) Calculate(ctx context.Context, scenarioID string, opts Options) (*Result, error) {
	start := time.Now()
	if !opts.SkipCache {
		if v, ok := c.cache.Get(cacheKey(scenarioID)); ok {
			if res, ok := v.(*Result); ok {
				c.record(res, true, start)
				return res, nil
			}
		}
	}

	sc, err := c.store.Scenario(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", scenarioID, err)
	}
	inits, err := c.store.Initiatives(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load initiatives for %s: %w", scenarioID, err)
	}
	emps, err := c.store.Employees(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load employees for %s: %w", scenarioID, err)
	}
	allocs, err := c.store.Allocations(ctx, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("load allocations for %s: %w", scenarioID, err)
	}

	res := compute(sc, inits, emps, allocs, opts)
	c.cache.Set(cacheKey(scenarioID), res, c.ttl)
	c.record(res, false, start)
	c.log.Debugw("gap analysis computed", map[string]any{
		"scenario":  scenarioID,
		"shortages": len(res.Shortages),
		"warnings":  len(res.Warnings),
	})
	return res, nil
}

// Invalidate drops the cached result for a scenario. Called on every write
// to the scenario's allocations, assumptions or priority ranking.
func (c *Calculator) Invalidate(scenarioID string) {
	c.cache.Delete(cacheKey(scenarioID))
}

func (c *Calculator) record(res *Result, cached bool, start time.Time) {
	ev := metrics.GapEvent{
		ScenarioID:    res.ScenarioID,
		Cached:        cached,
		ShortageCount: len(res.Shortages),
		Duration:      time.Since(start),
		Time:          time.Now(),
	}
	if err := c.sink.RecordGap(ev); err != nil {
		c.log.Warnf("gap metrics sink: %v", err)
	}
}
