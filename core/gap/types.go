package gap

import (
	"context"
	"errors"
	"time"

	"github.com/wiltonn/productfolio-sub002/core/model"
)

// ErrScenarioNotFound reports an unknown scenario id. It is surfaced
// directly to the caller, never retried.
var ErrScenarioNotFound = errors.New("scenario not found")

// PlanStore supplies the raw planning records the calculator aggregates.
// Implementations live outside the engine; the fixture loader in
// infra/fixture is one.
type PlanStore interface {
	Scenario(ctx context.Context, id string) (*model.Scenario, error)
	Initiatives(ctx context.Context, scenarioID string) ([]model.Initiative, error)
	Employees(ctx context.Context, scenarioID string) ([]model.Employee, error)
	Allocations(ctx context.Context, scenarioID string) ([]model.Allocation, error)
}

// Options tune a single Calculate call.
type Options struct {
	// SkipCache forces a fresh computation.
	SkipCache bool
	// IncludeBreakdown keeps the per-initiative demand contributions.
	IncludeBreakdown bool
}

// Contribution is one initiative's share of a demand cell, ordered by
// priority rank.
type Contribution struct {
	InitiativeID   string  `json:"initiative_id"`
	InitiativeName string  `json:"initiative_name"`
	Rank           int     `json:"rank"`
	Hours          float64 `json:"hours"`
}

// DemandCell aggregates required hours for one (period, skill).
type DemandCell struct {
	PeriodID      string         `json:"period_id"`
	Skill         string         `json:"skill"`
	TotalHours    float64        `json:"total_hours"`
	Contributions []Contribution `json:"contributions,omitempty"`
}

// CapacityCell aggregates effective supply hours for one (period, skill).
type CapacityCell struct {
	PeriodID       string  `json:"period_id"`
	Skill          string  `json:"skill"`
	EffectiveHours float64 `json:"effective_hours"`
	Headcount      int     `json:"headcount"`
}

// Cell is the derived gap for one (period, skill).
type Cell struct {
	PeriodID       string  `json:"period_id"`
	Skill          string  `json:"skill"`
	DemandHours    float64 `json:"demand_hours"`
	CapacityHours  float64 `json:"capacity_hours"`
	GapHours       float64 `json:"gap_hours"`
	UtilizationPct float64 `json:"utilization_pct"`
}

// Severity buckets a shortage by its share of demand.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Shortage flags a (period, skill) whose demand exceeds capacity.
type Shortage struct {
	PeriodID      string   `json:"period_id"`
	Skill         string   `json:"skill"`
	ShortageHours float64  `json:"shortage_hours"`
	ShortagePct   float64  `json:"shortage_pct"`
	Severity      Severity `json:"severity"`
}

// Overallocation flags an employee whose summed, overlap-weighted allocation
// percentage exceeds 100 in a period.
type Overallocation struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	PeriodID     string  `json:"period_id"`
	TotalPct     float64 `json:"total_pct"`
}

// SkillMismatch reports skills an initiative requires that the allocated
// employee lacks.
type SkillMismatch struct {
	AllocationID  string   `json:"allocation_id"`
	EmployeeID    string   `json:"employee_id"`
	InitiativeID  string   `json:"initiative_id"`
	MissingSkills []string `json:"missing_skills"`
}

// Summary totals the analysis. Purely derived from the other fields.
type Summary struct {
	TotalDemandHours    float64 `json:"total_demand_hours"`
	TotalCapacityHours  float64 `json:"total_capacity_hours"`
	TotalGapHours       float64 `json:"total_gap_hours"`
	UtilizationPct      float64 `json:"utilization_pct"`
	ShortageCount       int     `json:"shortage_count"`
	OverallocationCount int     `json:"overallocation_count"`
	MismatchCount       int     `json:"mismatch_count"`
	SkillCount          int     `json:"skill_count"`
	EmployeeCount       int     `json:"employee_count"`
	InitiativeCount     int     `json:"initiative_count"`
}

// Result is the full gap analysis for a scenario.
type Result struct {
	ScenarioID      string           `json:"scenario_id"`
	ComputedAt      time.Time        `json:"computed_at"`
	Demand          []DemandCell     `json:"demand"`
	Capacity        []CapacityCell   `json:"capacity"`
	Cells           []Cell           `json:"cells"`
	Shortages       []Shortage       `json:"shortages"`
	Overallocations []Overallocation `json:"overallocations"`
	SkillMismatches []SkillMismatch  `json:"skill_mismatches"`
	Summary         Summary          `json:"summary"`
	Warnings        []string         `json:"warnings,omitempty"`
}

// CapacityBySkillPeriod reshapes the capacity cells into
// periodID -> skill -> effective hours, the form the forecast engine walks.
func (r *Result) CapacityBySkillPeriod() map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, c := range r.Capacity {
		row := out[c.PeriodID]
		if row == nil {
			row = make(map[string]float64)
			out[c.PeriodID] = row
		}
		row[c.Skill] += c.EffectiveHours
	}
	return out
}
