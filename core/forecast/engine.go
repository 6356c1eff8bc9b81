// Package forecast produces probabilistic completion forecasts for
// initiatives: a scope-based Monte Carlo mode driven by (P50, P90) effort
// estimates against the gap calculator's capacity, and an empirical mode
// resampling historical cycle times. Both share the core/sim kernel.
package forecast

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/wiltonn/productfolio-sub002/core/gap"
	"github.com/wiltonn/productfolio-sub002/core/logger"
	"github.com/wiltonn/productfolio-sub002/core/metrics"
	"github.com/wiltonn/productfolio-sub002/core/model"
	"github.com/wiltonn/productfolio-sub002/internal/cache"
)

// ErrWorkflow reports an operation invoked in a planning mode the scenario
// does not support.
var ErrWorkflow = errors.New("operation not supported by scenario planning mode")

// ErrInitiativeNotFound reports an unknown initiative id. Scope forecasts
// degrade a missing initiative to a warning instead.
var ErrInitiativeNotFound = errors.New("initiative not found")

// DefaultConfidenceLevels are the percentile levels reported when a request
// does not name its own.
var DefaultConfidenceLevels = []float64{50, 75, 85, 95}

// historyThreshold is the number of RESOURCING -> COMPLETE samples below
// which empirical forecasts are flagged low confidence.
const historyThreshold = 10

// InitiativeStore resolves initiatives outside any scenario, for empirical
// forecasts and data-quality assessment by explicit id list.
type InitiativeStore interface {
	Initiative(ctx context.Context, id string) (*model.Initiative, error)
}

// StatusLog supplies the ordered status-transition records used to derive
// historical cycle times.
type StatusLog interface {
	Transitions(ctx context.Context) ([]model.StatusTransition, error)
	InitiativeTransitions(ctx context.Context, initiativeID string) ([]model.StatusTransition, error)
}

// Run is the audit record persisted after every forecast, best effort.
type Run struct {
	ID          string    `json:"id"`
	Mode        string    `json:"mode"` // "scope" or "empirical"
	ScenarioID  string    `json:"scenario_id,omitempty"`
	Simulations int       `json:"simulations"`
	Score       float64   `json:"quality_score"`
	Confidence  string    `json:"quality_confidence"`
	At          time.Time `json:"at"`
}

// RunStore is the audit sink. Failures are swallowed by the engine; the
// computed result is always returned to the caller.
type RunStore interface {
	Record(ctx context.Context, run Run) (string, error)
}

// NopRunStore discards audit records.
type NopRunStore struct{}

func (NopRunStore) Record(_ context.Context, run Run) (string, error) { return run.ID, nil }

// Engine runs forecasts over the plan store, status log and gap calculator.
type Engine struct {
	plans  gap.PlanStore
	inits  InitiativeStore
	status StatusLog
	calc   *gap.Calculator
	runs   RunStore
	cache  cache.Cache
	log    logger.Logger
	sink   metrics.Sink
	now    func() time.Time
}

// NewEngine wires a forecast engine. Nil runs, cache, logger or sink fall
// back to no-op implementations.
func NewEngine(plans gap.PlanStore, inits InitiativeStore, status StatusLog, calc *gap.Calculator, runs RunStore, c cache.Cache, log logger.Logger, sink metrics.Sink) *Engine {
	if runs == nil {
		runs = NopRunStore{}
	}
	if c == nil {
		c = cache.Nop{}
	}
	if log == nil {
		log = logger.Nop{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Engine{
		plans:  plans,
		inits:  inits,
		status: status,
		calc:   calc,
		runs:   runs,
		cache:  c,
		log:    log,
		sink:   sink,
		now:    time.Now,
	}
}

// Invalidate drops cached forecast results for a scenario.
func (e *Engine) Invalidate(scenarioID string) {
	e.cache.Delete(scopeCacheKey(scenarioID))
}

func scopeCacheKey(scenarioID string) string { return "forecast:scope:" + scenarioID }

// cachedScope pairs a result with the request that produced it so a cache
// hit is only served for an identical request.
type cachedScope struct {
	req ScopeRequest
	res *ScopeResult
}

func (e *Engine) cachedScopeResult(req ScopeRequest) (*ScopeResult, bool) {
	v, ok := e.cache.Get(scopeCacheKey(req.ScenarioID))
	if !ok {
		return nil, false
	}
	entry, ok := v.(cachedScope)
	if !ok || !reflect.DeepEqual(entry.req, req) {
		return nil, false
	}
	return entry.res, true
}

// audit persists the run record, returning its opaque id. Failures are
// logged and leave the id empty; the forecast result is unaffected.
func (e *Engine) audit(ctx context.Context, run Run) string {
	run.ID = uuid.NewString()
	run.At = e.now()
	id, err := e.runs.Record(ctx, run)
	if err != nil {
		e.log.Warnf("forecast audit sink: %v", err)
		return ""
	}
	return id
}

func (e *Engine) record(ev metrics.ForecastEvent) {
	ev.Time = e.now()
	if err := e.sink.RecordForecast(ev); err != nil {
		e.log.Warnf("forecast metrics sink: %v", err)
	}
}

func confidenceLevels(levels []float64) []float64 {
	if len(levels) == 0 {
		return DefaultConfidenceLevels
	}
	return levels
}
