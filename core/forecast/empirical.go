package forecast

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/wiltonn/productfolio-sub002/core/metrics"
	"github.com/wiltonn/productfolio-sub002/core/model"
	"github.com/wiltonn/productfolio-sub002/core/sim"
)

// EmpiricalRequest parameterises a history-based forecast for in-flight
// initiatives.
type EmpiricalRequest struct {
	ScenarioID       string    `json:"scenario_id"`
	InitiativeIDs    []string  `json:"initiative_ids"`
	Simulations      int       `json:"simulations"`
	ConfidenceLevels []float64 `json:"confidence_levels,omitempty"`
}

// RemainingForecast is the per-initiative empirical outcome: remaining
// calendar days at each requested confidence level.
type RemainingForecast struct {
	InitiativeID   string           `json:"initiative_id"`
	InitiativeName string           `json:"initiative_name"`
	ElapsedDays    float64          `json:"elapsed_days"`
	Percentiles    []sim.Percentile `json:"percentiles"`
	LowConfidence  bool             `json:"low_confidence"`
}

// EmpiricalResult is the full history-based forecast.
type EmpiricalResult struct {
	ScenarioID  string              `json:"scenario_id"`
	Simulations int                 `json:"simulations"`
	SampleSize  int                 `json:"sample_size"`
	Initiatives []RemainingForecast `json:"initiatives"`
	Warnings    []string            `json:"warnings,omitempty"`
	RunID       string              `json:"run_id,omitempty"`
	ComputedAt  time.Time           `json:"computed_at"`
}

// RunEmpirical forecasts remaining days for the requested initiatives by
// resampling historical RESOURCING to COMPLETE cycle times. Unlike scope
// forecasting it is available in any planning mode and is never cached.
func (e *Engine) RunEmpirical(ctx context.Context, req EmpiricalRequest) (*EmpiricalResult, error) {
	if req.Simulations < 1 {
		return nil, fmt.Errorf("%w: simulation count must be at least 1, got %d", sim.ErrInvalidParameter, req.Simulations)
	}
	levels := confidenceLevels(req.ConfidenceLevels)
	start := e.now()

	inits, err := e.plans.Initiatives(ctx, req.ScenarioID)
	if err != nil {
		return nil, fmt.Errorf("load initiatives for %s: %w", req.ScenarioID, err)
	}
	byID := make(map[string]model.Initiative, len(inits))
	for _, in := range inits {
		byID[in.ID] = in
	}

	cycles, warnings, err := e.cycleTimes(ctx)
	if err != nil {
		return nil, err
	}

	res := &EmpiricalResult{
		ScenarioID:  req.ScenarioID,
		Simulations: req.Simulations,
		SampleSize:  len(cycles),
		Warnings:    warnings,
		ComputedAt:  e.now(),
	}
	if len(cycles) == 0 {
		res.Warnings = append(res.Warnings, "no completed initiatives to sample cycle times from")
	} else if len(cycles) < historyThreshold {
		res.Warnings = append(res.Warnings, fmt.Sprintf("only %d completed initiatives; forecasts are low confidence", len(cycles)))
	}

	for _, id := range req.InitiativeIDs {
		in, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrInitiativeNotFound, id)
		}
		fc, warn, err := e.forecastRemaining(ctx, in, cycles, req.Simulations, levels)
		if err != nil {
			return nil, err
		}
		if warn != "" {
			res.Warnings = append(res.Warnings, warn)
		}
		res.Initiatives = append(res.Initiatives, fc)
	}

	run := Run{Mode: "empirical", ScenarioID: req.ScenarioID, Simulations: req.Simulations}
	run.Score, run.Confidence = e.qualitySummary(ctx, requested(byID, req.InitiativeIDs))
	res.RunID = e.audit(ctx, run)

	e.record(metrics.ForecastEvent{
		Mode:          "empirical",
		ScenarioID:    req.ScenarioID,
		Simulations:   req.Simulations,
		LowConfidence: len(cycles) < historyThreshold,
		Duration:      e.now().Sub(start),
	})
	return res, nil
}

// cycleTimes derives the empirical sample: days from entering RESOURCING to
// entering COMPLETE for every initiative that finished.
func (e *Engine) cycleTimes(ctx context.Context) ([]float64, []string, error) {
	transitions, err := e.status.Transitions(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load status history: %w", err)
	}
	resourced := make(map[string]time.Time)
	completed := make(map[string]time.Time)
	for _, tr := range transitions {
		switch tr.ToStatus {
		case model.StatusResourcing:
			if cur, ok := resourced[tr.InitiativeID]; !ok || tr.At.Before(cur) {
				resourced[tr.InitiativeID] = tr.At
			}
		case model.StatusComplete:
			if cur, ok := completed[tr.InitiativeID]; !ok || tr.At.Before(cur) {
				completed[tr.InitiativeID] = tr.At
			}
		}
	}
	var cycles []float64
	var warnings []string
	ids := make([]string, 0, len(completed))
	for id := range completed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		startAt, ok := resourced[id]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("initiative %s completed without a recorded resourcing transition; excluded from history", id))
			continue
		}
		days := completed[id].Sub(startAt).Hours() / 24
		if days < 0 {
			continue
		}
		cycles = append(cycles, days)
	}
	return cycles, warnings, nil
}

// forecastRemaining resamples total cycle times and subtracts the elapsed
// time since the initiative entered RESOURCING, flooring at zero.
func (e *Engine) forecastRemaining(ctx context.Context, in model.Initiative, cycles []float64, n int, levels []float64) (RemainingForecast, string, error) {
	fc := RemainingForecast{InitiativeID: in.ID, InitiativeName: in.Name}
	if len(cycles) == 0 {
		fc.LowConfidence = true
		fc.Percentiles = make([]sim.Percentile, len(levels))
		for i, lv := range levels {
			fc.Percentiles[i] = sim.Percentile{Level: lv}
		}
		return fc, "", nil
	}

	elapsed := 0.0
	startAt, err := e.resourcingStart(ctx, in.ID)
	if err != nil {
		return fc, "", err
	}
	var warn string
	if startAt.IsZero() {
		warn = fmt.Sprintf("initiative %s has no resourcing transition; forecasting full cycle time", in.ID)
	} else {
		elapsed = e.now().Sub(startAt).Hours() / 24
		if elapsed < 0 {
			elapsed = 0
		}
	}
	fc.ElapsedDays = elapsed
	fc.LowConfidence = len(cycles) < historyThreshold

	result, err := sim.Run(n, func() float64 {
		remaining := cycles[rand.Intn(len(cycles))] - elapsed
		if remaining < 0 {
			remaining = 0
		}
		return remaining
	})
	if err != nil {
		return fc, "", err
	}
	fc.Percentiles = sim.Percentiles(result, levels)
	return fc, warn, nil
}

func (e *Engine) resourcingStart(ctx context.Context, initiativeID string) (time.Time, error) {
	transitions, err := e.status.InitiativeTransitions(ctx, initiativeID)
	if err != nil {
		return time.Time{}, fmt.Errorf("load status history for %s: %w", initiativeID, err)
	}
	var at time.Time
	for _, tr := range transitions {
		if tr.ToStatus == model.StatusResourcing && (at.IsZero() || tr.At.Before(at)) {
			at = tr.At
		}
	}
	return at, nil
}
