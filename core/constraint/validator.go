// Package constraint evaluates scheduled scenarios against capacity,
// dependency-ordering and temporal-fit rules. Rules are pluggable: anything
// implementing Rule can be registered and participates exactly like the
// built-ins. The validator folds over every rule and never stops at the
// first failure.
package constraint

import (
	"encoding/json"
	"math"
)

// Team is a named capacity pool with one capacity value per period index.
type Team struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	CapacityByPeriod []float64 `json:"capacity_by_period"`
}

// CapacityAt returns the team capacity for a period, zero beyond the array.
func (t Team) CapacityAt(period int) float64 {
	if period < 0 || period >= len(t.CapacityByPeriod) {
		return 0
	}
	return t.CapacityByPeriod[period]
}

// TeamAllocation is an item's token draw against one team in one period.
type TeamAllocation struct {
	TeamID string  `json:"team_id"`
	Period int     `json:"period"`
	Tokens float64 `json:"tokens"`
}

// Item is a scheduled work item with its explicit allocation table.
type Item struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	StartPeriod  int              `json:"start_period"`
	Duration     int              `json:"duration"`
	Dependencies []string         `json:"dependencies,omitempty"`
	Allocations  []TeamAllocation `json:"allocations,omitempty"`
}

// Scenario is the validator input: a horizon, teams and scheduled items.
type Scenario struct {
	Horizon int    `json:"horizon"`
	Teams   []Team `json:"teams"`
	Items   []Item `json:"items"`
}

// Severity classifies a violation.
type Severity string

// SeverityError marks a hard constraint breach.
const SeverityError Severity = "error"

// Violation is a hard rule breach. Period is -1 when the violation is not
// scoped to a single period.
type Violation struct {
	ConstraintID string   `json:"constraint_id"`
	Severity     Severity `json:"severity"`
	Message      string   `json:"message"`
	ItemIDs      []string `json:"item_ids,omitempty"`
	TeamID       string   `json:"team_id,omitempty"`
	Period       int      `json:"period"`
}

// Warning flags a soft threshold crossing with the measured metric value.
type Warning struct {
	ConstraintID string  `json:"constraint_id"`
	Message      string  `json:"message"`
	TeamID       string  `json:"team_id,omitempty"`
	ItemID       string  `json:"item_id,omitempty"`
	Period       int     `json:"period"`
	Metric       string  `json:"metric,omitempty"`
	Actual       float64 `json:"actual,omitempty"`
	Threshold    float64 `json:"threshold,omitempty"`
}

// RuleResult is what a single rule reports for a scenario.
type RuleResult struct {
	Violations []Violation
	Warnings   []Warning
}

// Rule evaluates one constraint over a whole scenario.
type Rule interface {
	ID() string
	Name() string
	Evaluate(sc Scenario) RuleResult
}

// UtilizationCell is the aggregated load of one (team, period) slot.
// Utilization is +Inf when tokens are allocated against zero capacity.
type UtilizationCell struct {
	TeamID      string  `json:"team_id"`
	Period      int     `json:"period"`
	Allocated   float64 `json:"allocated"`
	Capacity    float64 `json:"capacity"`
	Utilization float64 `json:"utilization"`
}

// MarshalJSON renders a non-finite utilization as null; the Inf sentinel is
// not representable in JSON.
func (c UtilizationCell) MarshalJSON() ([]byte, error) {
	u := any(c.Utilization)
	if math.IsInf(c.Utilization, 0) {
		u = nil
	}
	return json.Marshal(struct {
		TeamID      string  `json:"team_id"`
		Period      int     `json:"period"`
		Allocated   float64 `json:"allocated"`
		Capacity    float64 `json:"capacity"`
		Utilization any     `json:"utilization"`
	}{c.TeamID, c.Period, c.Allocated, c.Capacity, u})
}

// Result aggregates the output of every registered rule.
type Result struct {
	Feasible    bool              `json:"feasible"`
	Violations  []Violation       `json:"violations"`
	Warnings    []Warning         `json:"warnings"`
	Utilization []UtilizationCell `json:"utilization"`
}

// Registry holds an ordered list of rules.
type Registry struct {
	rules []Rule
}

// NewRegistry returns a registry preloaded with the built-in capacity,
// dependency and temporal-fit rules.
func NewRegistry() *Registry {
	return &Registry{rules: []Rule{
		CapacityRule{},
		DependencyRule{},
		TemporalFitRule{},
	}}
}

// NewEmptyRegistry returns a registry with no rules.
func NewEmptyRegistry() *Registry { return &Registry{} }

// Register appends a custom rule. It participates exactly like the built-ins.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Rules returns the registered rules in evaluation order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Validate runs every rule over the scenario and accumulates all violations
// and warnings. Feasible is true only when no rule reported a violation.
func (r *Registry) Validate(sc Scenario) Result {
	res := Result{
		Violations:  []Violation{},
		Warnings:    []Warning{},
		Utilization: utilizationMap(sc),
	}
	for _, rule := range r.rules {
		rr := rule.Evaluate(sc)
		res.Violations = append(res.Violations, rr.Violations...)
		res.Warnings = append(res.Warnings, rr.Warnings...)
	}
	res.Feasible = len(res.Violations) == 0
	return res
}

// utilizationMap sums every item's tokens into (team, period) cells.
func utilizationMap(sc Scenario) []UtilizationCell {
	loads := allocatedTokens(sc)
	cells := make([]UtilizationCell, 0, len(sc.Teams)*sc.Horizon)
	for _, team := range sc.Teams {
		for p := 0; p < sc.Horizon; p++ {
			cell := UtilizationCell{
				TeamID:    team.ID,
				Period:    p,
				Allocated: loads[team.ID][p],
				Capacity:  team.CapacityAt(p),
			}
			cell.Utilization = utilization(cell.Allocated, cell.Capacity)
			cells = append(cells, cell)
		}
	}
	return cells
}

func utilization(allocated, capacity float64) float64 {
	if capacity == 0 {
		if allocated > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return allocated / capacity
}

// allocatedTokens aggregates tokens per team and period across all items.
func allocatedTokens(sc Scenario) map[string][]float64 {
	loads := make(map[string][]float64, len(sc.Teams))
	for _, t := range sc.Teams {
		loads[t.ID] = make([]float64, sc.Horizon)
	}
	for _, item := range sc.Items {
		for _, a := range item.Allocations {
			row, ok := loads[a.TeamID]
			if !ok || a.Period < 0 || a.Period >= sc.Horizon {
				continue
			}
			row[a.Period] += a.Tokens
		}
	}
	return loads
}
