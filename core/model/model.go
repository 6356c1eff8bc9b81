package model

import (
	"fmt"
	"time"
)

// PeriodType classifies the granularity of a planning period.
type PeriodType string

const (
	PeriodQuarter PeriodType = "quarter"
	PeriodMonth   PeriodType = "month"
	PeriodSprint  PeriodType = "sprint"
)

// Period is a discrete planning interval used as the time axis for capacity
// and demand. Periods are immutable once referenced by allocations.
type Period struct {
	ID    string
	Label string
	Start time.Time
	End   time.Time
	Type  PeriodType
}

// PlanningMode selects the estimation currency of a scenario.
type PlanningMode string

const (
	// PlanningModeHours plans in raw skill hours.
	PlanningModeHours PlanningMode = "hours"
	// PlanningModeTokens plans in normalized capacity tokens.
	PlanningModeTokens PlanningMode = "tokens"
)

// InitiativeStatus tracks an initiative through its delivery workflow.
type InitiativeStatus string

const (
	StatusDraft       InitiativeStatus = "DRAFT"
	StatusResourcing  InitiativeStatus = "RESOURCING"
	StatusInExecution InitiativeStatus = "IN_EXECUTION"
	StatusComplete    InitiativeStatus = "COMPLETE"
	StatusCancelled   InitiativeStatus = "CANCELLED"
)

// Active reports whether the status consumes planned capacity.
func (s InitiativeStatus) Active() bool {
	return s == StatusResourcing || s == StatusInExecution
}

// Assumptions holds the scenario-level knobs applied by the gap calculator.
type Assumptions struct {
	// AllocationCapPercentage caps the summed allocation percentage counted
	// per employee and period. Zero means uncapped.
	AllocationCapPercentage float64
	// BufferPercentage is subtracted from effective capacity, e.g. 20 keeps
	// 80% of nominal hours.
	BufferPercentage float64
	// ExcludeContractors removes contractor capacity from the supply side.
	ExcludeContractors bool
	// ProficiencyWeighting scales effective hours by proficiency/5.
	ProficiencyWeighting bool
	// TokenHoursRatio converts one capacity token into hours. Zero falls
	// back to a 1:1 conversion with a warning.
	TokenHoursRatio float64
}

// Scenario is a named planning draft over a period set, holding assumptions,
// a priority ranking and allocations.
type Scenario struct {
	ID           string
	Name         string
	PlanningMode PlanningMode
	Periods      []Period
	Assumptions  Assumptions
	// PriorityRanking orders initiative ids; initiatives absent from the
	// ranking contribute no demand.
	PriorityRanking []string
}

// Period returns the scenario period with the given id.
func (s *Scenario) Period(id string) (Period, bool) {
	for _, p := range s.Periods {
		if p.ID == id {
			return p, true
		}
	}
	return Period{}, false
}

// ScopeItem is a unit of work under an initiative carrying effort estimates
// and per-skill demand.
type ScopeItem struct {
	ID   string
	Name string
	// SkillDemand maps skill name to required effort in hours.
	SkillDemand map[string]float64
	// Distribution maps period id to the fraction of the item's effort
	// landing in that period. Fractions sum to at most 1.
	Distribution map[string]float64
	// EstimateP50 and EstimateP90 define the lognormal effort uncertainty.
	// Nil means not estimated.
	EstimateP50 *float64
	EstimateP90 *float64
}

// HasEstimates reports whether both P50 and P90 are present.
func (s ScopeItem) HasEstimates() bool {
	return s.EstimateP50 != nil && s.EstimateP90 != nil
}

// HasDistribution reports whether the item spreads effort over any period.
func (s ScopeItem) HasDistribution() bool {
	for _, w := range s.Distribution {
		if w > 0 {
			return true
		}
	}
	return false
}

// Initiative is a deliverable tracked through the planning workflow.
type Initiative struct {
	ID         string
	Name       string
	Status     InitiativeStatus
	ScopeItems []ScopeItem
}

// SkillLevel pairs a skill name with a 1..5 proficiency.
type SkillLevel struct {
	Name        string
	Proficiency int
}

// Employee supplies capacity through allocations.
type Employee struct {
	ID           string
	Name         string
	Contractor   bool
	HoursPerWeek float64
	Skills       []SkillLevel
	// CapacityCalendar overrides base hours per period id. Absent entries
	// fall back to HoursPerWeek * 13.
	CapacityCalendar map[string]float64
}

// HasSkill reports whether the employee holds the named skill.
func (e Employee) HasSkill(name string) bool {
	for _, s := range e.Skills {
		if s.Name == name {
			return true
		}
	}
	return false
}

// AllocationPeriod pro-rates an allocation into one period it intersects.
// OverlapRatio is always in [0,1].
type AllocationPeriod struct {
	PeriodID     string
	OverlapRatio float64
}

// Allocation assigns an employee to an initiative (or non-project work) at a
// percentage of time over a date range, decomposed into per-period overlaps.
type Allocation struct {
	ID           string
	EmployeeID   string
	InitiativeID string // empty for non-project work
	Percentage   float64
	Start        time.Time
	End          time.Time
	Periods      []AllocationPeriod
}

// Overlap returns the overlap ratio for the given period, zero if disjoint.
func (a Allocation) Overlap(periodID string) float64 {
	for _, p := range a.Periods {
		if p.PeriodID == periodID {
			return p.OverlapRatio
		}
	}
	return 0
}

// Validate checks the allocation decomposition is sound.
func (a Allocation) Validate() error {
	for _, p := range a.Periods {
		if p.OverlapRatio < 0 || p.OverlapRatio > 1 {
			return fmt.Errorf("allocation %s: overlap ratio %.3f for period %s out of [0,1]", a.ID, p.OverlapRatio, p.PeriodID)
		}
	}
	return nil
}

// StatusTransition is one entry of the status-transition log.
type StatusTransition struct {
	InitiativeID string
	ToStatus     InitiativeStatus
	At           time.Time
}
