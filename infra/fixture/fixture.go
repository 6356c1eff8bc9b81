// Package fixture loads a full planning dataset from a YAML or JSON file and
// serves it through the engine's store ports. It backs the CLI and tests;
// production deployments plug their own stores into the same interfaces.
package fixture

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wiltonn/productfolio-sub002/core/forecast"
	"github.com/wiltonn/productfolio-sub002/core/gap"
	"github.com/wiltonn/productfolio-sub002/core/model"
)

type PeriodDef struct {
	ID    string    `yaml:"id" json:"id"`
	Label string    `yaml:"label" json:"label"`
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
	Type  string    `yaml:"type" json:"type"`
}

func (p PeriodDef) ToModel() model.Period {
	return model.Period{
		ID:    p.ID,
		Label: p.Label,
		Start: p.Start,
		End:   p.End,
		Type:  model.PeriodType(p.Type),
	}
}

type AssumptionsDef struct {
	AllocationCapPercentage float64 `yaml:"allocation_cap_percentage" json:"allocation_cap_percentage"`
	BufferPercentage        float64 `yaml:"buffer_percentage" json:"buffer_percentage"`
	ExcludeContractors      bool    `yaml:"exclude_contractors" json:"exclude_contractors"`
	ProficiencyWeighting    bool    `yaml:"proficiency_weighting" json:"proficiency_weighting"`
	TokenHoursRatio         float64 `yaml:"token_hours_ratio" json:"token_hours_ratio"`
}

func (a AssumptionsDef) ToModel() model.Assumptions {
	return model.Assumptions{
		AllocationCapPercentage: a.AllocationCapPercentage,
		BufferPercentage:        a.BufferPercentage,
		ExcludeContractors:      a.ExcludeContractors,
		ProficiencyWeighting:    a.ProficiencyWeighting,
		TokenHoursRatio:         a.TokenHoursRatio,
	}
}

type ScenarioDef struct {
	ID              string         `yaml:"id" json:"id"`
	Name            string         `yaml:"name" json:"name"`
	PlanningMode    string         `yaml:"planning_mode" json:"planning_mode"`
	Periods         []PeriodDef    `yaml:"periods" json:"periods"`
	Assumptions     AssumptionsDef `yaml:"assumptions" json:"assumptions"`
	PriorityRanking []string       `yaml:"priority_ranking" json:"priority_ranking"`
}

func (s ScenarioDef) ToModel() model.Scenario {
	periods := make([]model.Period, len(s.Periods))
	for i, p := range s.Periods {
		periods[i] = p.ToModel()
	}
	return model.Scenario{
		ID:              s.ID,
		Name:            s.Name,
		PlanningMode:    model.PlanningMode(s.PlanningMode),
		Periods:         periods,
		Assumptions:     s.Assumptions.ToModel(),
		PriorityRanking: s.PriorityRanking,
	}
}

type ScopeItemDef struct {
	ID           string             `yaml:"id" json:"id"`
	Name         string             `yaml:"name" json:"name"`
	SkillDemand  map[string]float64 `yaml:"skill_demand" json:"skill_demand"`
	Distribution map[string]float64 `yaml:"distribution" json:"distribution"`
	EstimateP50  *float64           `yaml:"estimate_p50" json:"estimate_p50"`
	EstimateP90  *float64           `yaml:"estimate_p90" json:"estimate_p90"`
}

func (s ScopeItemDef) ToModel() model.ScopeItem {
	return model.ScopeItem{
		ID:           s.ID,
		Name:         s.Name,
		SkillDemand:  s.SkillDemand,
		Distribution: s.Distribution,
		EstimateP50:  s.EstimateP50,
		EstimateP90:  s.EstimateP90,
	}
}

type InitiativeDef struct {
	ID         string         `yaml:"id" json:"id"`
	Name       string         `yaml:"name" json:"name"`
	ScenarioID string         `yaml:"scenario_id" json:"scenario_id"`
	Status     string         `yaml:"status" json:"status"`
	ScopeItems []ScopeItemDef `yaml:"scope_items" json:"scope_items"`
}

func (i InitiativeDef) ToModel() model.Initiative {
	items := make([]model.ScopeItem, len(i.ScopeItems))
	for n, it := range i.ScopeItems {
		items[n] = it.ToModel()
	}
	return model.Initiative{
		ID:         i.ID,
		Name:       i.Name,
		Status:     model.InitiativeStatus(i.Status),
		ScopeItems: items,
	}
}

type SkillDef struct {
	Name        string `yaml:"name" json:"name"`
	Proficiency int    `yaml:"proficiency" json:"proficiency"`
}

type EmployeeDef struct {
	ID               string             `yaml:"id" json:"id"`
	Name             string             `yaml:"name" json:"name"`
	Contractor       bool               `yaml:"contractor" json:"contractor"`
	HoursPerWeek     float64            `yaml:"hours_per_week" json:"hours_per_week"`
	Skills           []SkillDef         `yaml:"skills" json:"skills"`
	CapacityCalendar map[string]float64 `yaml:"capacity_calendar" json:"capacity_calendar"`
}

func (e EmployeeDef) ToModel() model.Employee {
	skills := make([]model.SkillLevel, len(e.Skills))
	for i, s := range e.Skills {
		skills[i] = model.SkillLevel{Name: s.Name, Proficiency: s.Proficiency}
	}
	return model.Employee{
		ID:               e.ID,
		Name:             e.Name,
		Contractor:       e.Contractor,
		HoursPerWeek:     e.HoursPerWeek,
		Skills:           skills,
		CapacityCalendar: e.CapacityCalendar,
	}
}

type AllocationPeriodDef struct {
	PeriodID     string  `yaml:"period_id" json:"period_id"`
	OverlapRatio float64 `yaml:"overlap_ratio" json:"overlap_ratio"`
}

type AllocationDef struct {
	ID           string                `yaml:"id" json:"id"`
	ScenarioID   string                `yaml:"scenario_id" json:"scenario_id"`
	EmployeeID   string                `yaml:"employee_id" json:"employee_id"`
	InitiativeID string                `yaml:"initiative_id" json:"initiative_id"`
	Percentage   float64               `yaml:"percentage" json:"percentage"`
	Start        time.Time             `yaml:"start" json:"start"`
	End          time.Time             `yaml:"end" json:"end"`
	Periods      []AllocationPeriodDef `yaml:"periods" json:"periods"`
}

func (a AllocationDef) ToModel() model.Allocation {
	periods := make([]model.AllocationPeriod, len(a.Periods))
	for i, p := range a.Periods {
		periods[i] = model.AllocationPeriod{PeriodID: p.PeriodID, OverlapRatio: p.OverlapRatio}
	}
	return model.Allocation{
		ID:           a.ID,
		EmployeeID:   a.EmployeeID,
		InitiativeID: a.InitiativeID,
		Percentage:   a.Percentage,
		Start:        a.Start,
		End:          a.End,
		Periods:      periods,
	}
}

type TransitionDef struct {
	InitiativeID string    `yaml:"initiative_id" json:"initiative_id"`
	ToStatus     string    `yaml:"to_status" json:"to_status"`
	At           time.Time `yaml:"at" json:"at"`
}

func (t TransitionDef) ToModel() model.StatusTransition {
	return model.StatusTransition{
		InitiativeID: t.InitiativeID,
		ToStatus:     model.InitiativeStatus(t.ToStatus),
		At:           t.At,
	}
}

// Plan is the fixture file schema.
type Plan struct {
	Scenarios   []ScenarioDef   `yaml:"scenarios" json:"scenarios"`
	Initiatives []InitiativeDef `yaml:"initiatives" json:"initiatives"`
	Employees   []EmployeeDef   `yaml:"employees" json:"employees"`
	Allocations []AllocationDef `yaml:"allocations" json:"allocations"`
	Transitions []TransitionDef `yaml:"transitions" json:"transitions"`
}

// Store serves a loaded plan through the engine ports.
type Store struct {
	scenarios   map[string]model.Scenario
	initiatives map[string][]model.Initiative // by scenario id
	byID        map[string]model.Initiative
	employees   map[string][]model.Employee
	allocations map[string][]model.Allocation
	transitions []model.StatusTransition
}

// Load reads a plan fixture from a YAML or JSON file.
func Load(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var plan Plan
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &plan)
	case ".json":
		err = json.Unmarshal(b, &plan)
	default:
		return nil, fmt.Errorf("unsupported fixture format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewStore(plan)
}

// NewStore indexes the plan for lookup.
func NewStore(plan Plan) (*Store, error) {
	s := &Store{
		scenarios:   make(map[string]model.Scenario),
		initiatives: make(map[string][]model.Initiative),
		byID:        make(map[string]model.Initiative),
		employees:   make(map[string][]model.Employee),
		allocations: make(map[string][]model.Allocation),
	}
	for _, def := range plan.Scenarios {
		s.scenarios[def.ID] = def.ToModel()
	}
	for _, def := range plan.Initiatives {
		in := def.ToModel()
		s.initiatives[def.ScenarioID] = append(s.initiatives[def.ScenarioID], in)
		s.byID[in.ID] = in
	}
	for _, def := range plan.Employees {
		emp := def.ToModel()
		// Employees are shared across scenarios.
		for id := range s.scenarios {
			s.employees[id] = append(s.employees[id], emp)
		}
	}
	for _, def := range plan.Allocations {
		a := def.ToModel()
		if err := a.Validate(); err != nil {
			return nil, err
		}
		s.allocations[def.ScenarioID] = append(s.allocations[def.ScenarioID], a)
	}
	for _, def := range plan.Transitions {
		s.transitions = append(s.transitions, def.ToModel())
	}
	sort.Slice(s.transitions, func(i, j int) bool {
		return s.transitions[i].At.Before(s.transitions[j].At)
	})
	return s, nil
}

func (s *Store) Scenario(_ context.Context, id string) (*model.Scenario, error) {
	sc, ok := s.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", gap.ErrScenarioNotFound, id)
	}
	return &sc, nil
}

func (s *Store) Initiatives(_ context.Context, scenarioID string) ([]model.Initiative, error) {
	return s.initiatives[scenarioID], nil
}

func (s *Store) Employees(_ context.Context, scenarioID string) ([]model.Employee, error) {
	return s.employees[scenarioID], nil
}

func (s *Store) Allocations(_ context.Context, scenarioID string) ([]model.Allocation, error) {
	return s.allocations[scenarioID], nil
}

func (s *Store) Initiative(_ context.Context, id string) (*model.Initiative, error) {
	in, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", forecast.ErrInitiativeNotFound, id)
	}
	return &in, nil
}

func (s *Store) Transitions(context.Context) ([]model.StatusTransition, error) {
	return s.transitions, nil
}

func (s *Store) InitiativeTransitions(_ context.Context, initiativeID string) ([]model.StatusTransition, error) {
	var out []model.StatusTransition
	for _, tr := range s.transitions {
		if tr.InitiativeID == initiativeID {
			out = append(out, tr)
		}
	}
	return out, nil
}
