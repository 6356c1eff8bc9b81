package forecast

import (
	"context"
	"fmt"

	"github.com/wiltonn/productfolio-sub002/core/model"
)

// Scoring weights. Estimate coverage dominates because scope forecasts are
// unusable without (P50, P90) pairs.
const (
	weightEstimates    = 40.0
	weightDistribution = 30.0
	weightHistory      = 30.0
)

// Confidence buckets over the 0-100 score.
const (
	ConfidenceGood     = "good"
	ConfidenceModerate = "moderate"
	ConfidenceLow      = "low"
)

// QualityRequest scopes a data-quality assessment: either a whole scenario
// or an explicit initiative list.
type QualityRequest struct {
	ScenarioID    string   `json:"scenario_id,omitempty"`
	InitiativeIDs []string `json:"initiative_ids,omitempty"`
}

// QualityResult scores how forecastable the selected initiatives are.
type QualityResult struct {
	Score                 float64  `json:"score"`
	Confidence            string   `json:"confidence"`
	ScopeItemCount        int      `json:"scope_item_count"`
	EstimatedCount        int      `json:"estimated_count"`
	DistributedCount      int      `json:"distributed_count"`
	HistoricalCompletions int      `json:"historical_completions"`
	ModeBViable           bool     `json:"mode_b_viable"`
	Warnings              []string `json:"warnings,omitempty"`
}

// AssessQuality scores estimate coverage, period-distribution coverage and
// historical-completion sufficiency for the selected initiatives.
func (e *Engine) AssessQuality(ctx context.Context, req QualityRequest) (*QualityResult, error) {
	var selected []model.Initiative
	switch {
	case req.ScenarioID != "":
		inits, err := e.plans.Initiatives(ctx, req.ScenarioID)
		if err != nil {
			return nil, fmt.Errorf("load initiatives for %s: %w", req.ScenarioID, err)
		}
		selected = inits
	case len(req.InitiativeIDs) > 0:
		for _, id := range req.InitiativeIDs {
			in, err := e.inits.Initiative(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("load initiative %s: %w", id, err)
			}
			selected = append(selected, *in)
		}
	default:
		return nil, fmt.Errorf("%w: quality assessment needs a scenario id or initiative ids", ErrWorkflow)
	}

	completions, err := e.historicalCompletions(ctx)
	if err != nil {
		return nil, err
	}
	res := scoreQuality(selected, completions)
	if res.ScopeItemCount == 0 {
		res.Warnings = append(res.Warnings, "no scope items in selection; score reflects history only")
	}
	return res, nil
}

// qualitySummary is the audit-record variant: errors degrade to a zero-history
// score so a forecast is never aborted by its own bookkeeping.
func (e *Engine) qualitySummary(ctx context.Context, selected []model.Initiative) (float64, string) {
	completions, err := e.historicalCompletions(ctx)
	if err != nil {
		e.log.Warnf("quality summary history: %v", err)
		completions = 0
	}
	res := scoreQuality(selected, completions)
	return res.Score, res.Confidence
}

// historicalCompletions counts initiatives with a recorded COMPLETE
// transition.
func (e *Engine) historicalCompletions(ctx context.Context) (int, error) {
	transitions, err := e.status.Transitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load status history: %w", err)
	}
	seen := make(map[string]struct{})
	for _, tr := range transitions {
		if tr.ToStatus == model.StatusComplete {
			seen[tr.InitiativeID] = struct{}{}
		}
	}
	return len(seen), nil
}

func scoreQuality(selected []model.Initiative, completions int) *QualityResult {
	res := &QualityResult{
		HistoricalCompletions: completions,
		ModeBViable:           completions >= historyThreshold,
	}
	for _, in := range selected {
		for _, item := range in.ScopeItems {
			res.ScopeItemCount++
			if item.HasEstimates() {
				res.EstimatedCount++
			}
			if item.HasDistribution() {
				res.DistributedCount++
			}
		}
	}
	estCov, distCov := 0.0, 0.0
	if res.ScopeItemCount > 0 {
		estCov = float64(res.EstimatedCount) / float64(res.ScopeItemCount)
		distCov = float64(res.DistributedCount) / float64(res.ScopeItemCount)
	}
	histRatio := float64(completions) / float64(historyThreshold)
	if histRatio > 1 {
		histRatio = 1
	}
	res.Score = weightEstimates*estCov + weightDistribution*distCov + weightHistory*histRatio
	switch {
	case res.Score >= 80:
		res.Confidence = ConfidenceGood
	case res.Score >= 30:
		res.Confidence = ConfidenceModerate
	default:
		res.Confidence = ConfidenceLow
	}
	return res
}
