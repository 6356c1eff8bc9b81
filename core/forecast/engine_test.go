package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/wiltonn/productfolio-sub002/core/gap"
	"github.com/wiltonn/productfolio-sub002/core/model"
	"github.com/wiltonn/productfolio-sub002/internal/cache"
)

type planStore struct {
	scenario    *model.Scenario
	initiatives []model.Initiative
	employees   []model.Employee
	allocations []model.Allocation
	loads       int
}

func (s *planStore) Scenario(_ context.Context, id string) (*model.Scenario, error) {
	s.loads++
	if s.scenario == nil || s.scenario.ID != id {
		return nil, fmt.Errorf("%w: %s", gap.ErrScenarioNotFound, id)
	}
	return s.scenario, nil
}

func (s *planStore) Initiatives(context.Context, string) ([]model.Initiative, error) {
	return s.initiatives, nil
}

func (s *planStore) Employees(context.Context, string) ([]model.Employee, error) {
	return s.employees, nil
}

func (s *planStore) Allocations(context.Context, string) ([]model.Allocation, error) {
	return s.allocations, nil
}

// Initiative implements InitiativeStore over the same backing slice.
func (s *planStore) Initiative(_ context.Context, id string) (*model.Initiative, error) {
	for i := range s.initiatives {
		if s.initiatives[i].ID == id {
			return &s.initiatives[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInitiativeNotFound, id)
}

type statusLog struct {
	transitions []model.StatusTransition
}

func (l *statusLog) Transitions(context.Context) ([]model.StatusTransition, error) {
	return l.transitions, nil
}

func (l *statusLog) InitiativeTransitions(_ context.Context, id string) ([]model.StatusTransition, error) {
	var out []model.StatusTransition
	for _, tr := range l.transitions {
		if tr.InitiativeID == id {
			out = append(out, tr)
		}
	}
	return out, nil
}

type runLog struct {
	runs []Run
}

func (l *runLog) Record(_ context.Context, run Run) (string, error) {
	l.runs = append(l.runs, run)
	return run.ID, nil
}

func f(v float64) *float64 { return &v }

// tokenScenario plans two quarters in token mode with frontend capacity of
// 200 then 400 hours.
func tokenScenario() *model.Scenario {
	return &model.Scenario{
		ID:           "sc-1",
		Name:         "FY26 draft",
		PlanningMode: model.PlanningModeTokens,
		Periods: []model.Period{
			{ID: "q1", Label: "Q1", Type: model.PeriodQuarter},
			{ID: "q2", Label: "Q2", Type: model.PeriodQuarter},
		},
		PriorityRanking: []string{"portal"},
	}
}

func tokenStore() *planStore {
	return &planStore{
		scenario: tokenScenario(),
		initiatives: []model.Initiative{{
			ID: "portal", Name: "Customer portal", Status: model.StatusResourcing,
			ScopeItems: []model.ScopeItem{{
				ID:           "portal-ui",
				SkillDemand:  map[string]float64{"frontend": 500},
				Distribution: map[string]float64{"q1": 1},
				EstimateP50:  f(500), EstimateP90: f(500),
			}},
		}},
		employees: []model.Employee{{
			ID: "bea", Name: "Bea", HoursPerWeek: 40,
			Skills:           []model.SkillLevel{{Name: "frontend", Proficiency: 3}},
			CapacityCalendar: map[string]float64{"q1": 200, "q2": 400},
		}},
		allocations: []model.Allocation{{
			ID: "a1", EmployeeID: "bea", InitiativeID: "portal", Percentage: 100,
			Periods: []model.AllocationPeriod{
				{PeriodID: "q1", OverlapRatio: 1},
				{PeriodID: "q2", OverlapRatio: 1},
			},
		}},
	}
}

func newTestEngine(store *planStore, log *statusLog, runs *runLog) *Engine {
	calc := gap.NewCalculator(store, cache.NewMemory(), nil, nil, 0)
	e := NewEngine(store, store, log, calc, runs, cache.NewMemory(), nil, nil)
	e.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	return e
}
