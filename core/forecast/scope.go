package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/wiltonn/productfolio-sub002/core/gap"
	"github.com/wiltonn/productfolio-sub002/core/metrics"
	"github.com/wiltonn/productfolio-sub002/core/model"
	"github.com/wiltonn/productfolio-sub002/core/sim"
)

// ScopeRequest parameterises a scope-based Monte Carlo forecast.
type ScopeRequest struct {
	ScenarioID       string    `json:"scenario_id"`
	InitiativeIDs    []string  `json:"initiative_ids"`
	Simulations      int       `json:"simulations"`
	ConfidenceLevels []float64 `json:"confidence_levels,omitempty"`
}

// PeriodProbability is one point of the completion CDF: the fraction of
// iterations completed by-or-before the period.
type PeriodProbability struct {
	PeriodID          string  `json:"period_id"`
	Index             int     `json:"index"`
	CompletedFraction float64 `json:"completed_fraction"`
}

// InitiativeForecast is the per-initiative simulation outcome.
type InitiativeForecast struct {
	InitiativeID   string              `json:"initiative_id"`
	InitiativeName string              `json:"initiative_name"`
	HasEstimates   bool                `json:"has_estimates"`
	CompletionCDF  []PeriodProbability `json:"completion_cdf"`
	// Percentiles are over the completion period index; a value equal to
	// the period count means completion beyond the horizon.
	Percentiles         []sim.Percentile `json:"percentiles"`
	MeanCompletionIndex float64          `json:"mean_completion_index"`
}

// ScopeResult is the full scope-based forecast.
type ScopeResult struct {
	ScenarioID  string               `json:"scenario_id"`
	Simulations int                  `json:"simulations"`
	Initiatives []InitiativeForecast `json:"initiatives"`
	Warnings    []string             `json:"warnings,omitempty"`
	RunID       string               `json:"run_id,omitempty"`
	ComputedAt  time.Time            `json:"computed_at"`
}

// itemSampler draws one total-hours sample for a scope item and carries the
// per-skill split proportions.
type itemSampler struct {
	sample func() float64
	split  map[string]float64 // skill -> fraction of total
}

// RunScopeBased simulates completion of the requested initiatives against
// the scenario's capacity by skill and period.
func (e *Engine) RunScopeBased(ctx context.Context, req ScopeRequest) (*ScopeResult, error) {
	if req.Simulations < 1 {
		return nil, fmt.Errorf("%w: simulation count must be at least 1, got %d", sim.ErrInvalidParameter, req.Simulations)
	}
	req.ConfidenceLevels = confidenceLevels(req.ConfidenceLevels)
	if res, ok := e.cachedScopeResult(req); ok {
		return res, nil
	}
	start := e.now()

	sc, err := e.plans.Scenario(ctx, req.ScenarioID)
	if err != nil {
		return nil, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err)
	}
	if sc.PlanningMode != model.PlanningModeTokens {
		return nil, fmt.Errorf("%w: scenario %s plans in %q, scope-based forecasting needs token planning", ErrWorkflow, sc.ID, sc.PlanningMode)
	}

	gapRes, err := e.calc.Calculate(ctx, req.ScenarioID, gap.Options{})
	if err != nil {
		return nil, fmt.Errorf("capacity for %s: %w", req.ScenarioID, err)
	}
	capacityBy := gapRes.CapacityBySkillPeriod()

	inits, err := e.plans.Initiatives(ctx, req.ScenarioID)
	if err != nil {
		return nil, fmt.Errorf("load initiatives for %s: %w", req.ScenarioID, err)
	}
	byID := make(map[string]model.Initiative, len(inits))
	for _, in := range inits {
		byID[in.ID] = in
	}

	res := &ScopeResult{
		ScenarioID:  req.ScenarioID,
		Simulations: req.Simulations,
		ComputedAt:  e.now(),
	}
	for _, id := range req.InitiativeIDs {
		in, ok := byID[id]
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("initiative %s not found in scenario %s", id, req.ScenarioID))
			continue
		}
		if len(in.ScopeItems) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("initiative %s has no scope items", id))
			continue
		}
		samplers, estimated, warnings, err := buildSamplers(in)
		if err != nil {
			return nil, err
		}
		res.Warnings = append(res.Warnings, warnings...)
		fc := simulateInitiative(in, samplers, sc.Periods, capacityBy, req.Simulations, req.ConfidenceLevels)
		fc.HasEstimates = estimated
		res.Initiatives = append(res.Initiatives, fc)
	}

	run := Run{Mode: "scope", ScenarioID: req.ScenarioID, Simulations: req.Simulations}
	run.Score, run.Confidence = e.qualitySummary(ctx, requested(byID, req.InitiativeIDs))
	res.RunID = e.audit(ctx, run)

	e.cache.Set(scopeCacheKey(req.ScenarioID), cachedScope{req: req, res: res}, gap.DefaultTTL)
	e.record(metrics.ForecastEvent{
		Mode:        "scope",
		ScenarioID:  req.ScenarioID,
		Simulations: req.Simulations,
		Duration:    e.now().Sub(start),
	})
	return res, nil
}

func requested(byID map[string]model.Initiative, ids []string) []model.Initiative {
	out := make([]model.Initiative, 0, len(ids))
	for _, id := range ids {
		if in, ok := byID[id]; ok {
			out = append(out, in)
		}
	}
	return out
}

// buildSamplers prepares one total-hours sampler per usable scope item.
// Items with both estimates sample lognormally; a lone P50 collapses to a
// zero-variance point; items with neither are skipped with a warning.
func buildSamplers(in model.Initiative) ([]itemSampler, bool, []string, error) {
	var samplers []itemSampler
	var warnings []string
	estimated := true
	for _, item := range in.ScopeItems {
		baseline := 0.0
		for _, h := range item.SkillDemand {
			baseline += h
		}
		if baseline <= 0 {
			continue // nothing to bind against capacity
		}
		split := make(map[string]float64, len(item.SkillDemand))
		for skill, h := range item.SkillDemand {
			split[skill] = h / baseline
		}
		switch {
		case item.HasEstimates():
			sample, err := sim.NewSampler(*item.EstimateP50, *item.EstimateP90)
			if err != nil {
				return nil, false, nil, fmt.Errorf("scope item %s: %w", item.ID, err)
			}
			samplers = append(samplers, itemSampler{sample: sample, split: split})
		case item.EstimateP50 != nil:
			p50 := *item.EstimateP50
			samplers = append(samplers, itemSampler{sample: func() float64 { return p50 }, split: split})
			estimated = false
		default:
			warnings = append(warnings, fmt.Sprintf("scope item %s of initiative %s has no estimates; skipped", item.ID, in.ID))
			estimated = false
		}
	}
	return samplers, estimated, warnings, nil
}

// simulateInitiative runs the Monte Carlo loop: each iteration samples total
// hours per skill and walks the periods accumulating capacity until every
// demanded skill is covered.
func simulateInitiative(in model.Initiative, samplers []itemSampler, periods []model.Period, capacityBy map[string]map[string]float64, n int, levels []float64) InitiativeForecast {
	horizon := len(periods)
	completions := make([]float64, n)
	byPeriod := make([]int, horizon)

	for it := 0; it < n; it++ {
		demand := make(map[string]float64)
		for _, s := range samplers {
			total := s.sample()
			for skill, frac := range s.split {
				demand[skill] += total * frac
			}
		}
		completion := horizon // beyond-horizon sentinel
		if len(demand) == 0 {
			completion = 0 // no binding skill completes immediately
		} else {
			cum := make(map[string]float64, len(demand))
			for p := 0; p < horizon; p++ {
				row := capacityBy[periods[p].ID]
				satisfied := true
				for skill, needed := range demand {
					cum[skill] += row[skill]
					if cum[skill] < needed {
						satisfied = false
					}
				}
				if satisfied {
					completion = p
					break
				}
			}
		}
		completions[it] = float64(completion)
		if completion < horizon {
			byPeriod[completion]++
		}
	}

	fc := InitiativeForecast{
		InitiativeID:   in.ID,
		InitiativeName: in.Name,
		CompletionCDF:  make([]PeriodProbability, horizon),
	}
	done := 0
	for p := 0; p < horizon; p++ {
		done += byPeriod[p]
		fc.CompletionCDF[p] = PeriodProbability{
			PeriodID:          periods[p].ID,
			Index:             p,
			CompletedFraction: float64(done) / float64(n),
		}
	}
	sorted := make([]float64, n)
	copy(sorted, completions)
	sort.Float64s(sorted)
	fc.Percentiles = sim.Percentiles(sim.Result{Values: sorted, Count: n}, levels)
	fc.MeanCompletionIndex = stat.Mean(completions, nil)
	return fc
}
