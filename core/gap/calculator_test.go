package gap

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wiltonn/productfolio-sub002/core/model"
	"github.com/wiltonn/productfolio-sub002/internal/cache"
)

type memStore struct {
	scenario    *model.Scenario
	initiatives []model.Initiative
	employees   []model.Employee
	allocations []model.Allocation
	loads       int
}

func (m *memStore) Scenario(_ context.Context, id string) (*model.Scenario, error) {
	m.loads++
	if m.scenario == nil || m.scenario.ID != id {
		return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, id)
	}
	return m.scenario, nil
}

func (m *memStore) Initiatives(context.Context, string) ([]model.Initiative, error) {
	return m.initiatives, nil
}

func (m *memStore) Employees(context.Context, string) ([]model.Employee, error) {
	return m.employees, nil
}

func (m *memStore) Allocations(context.Context, string) ([]model.Allocation, error) {
	return m.allocations, nil
}

func f(v float64) *float64 { return &v }

func baseScenario() *model.Scenario {
	return &model.Scenario{
		ID:           "sc-1",
		Name:         "FY26 draft",
		PlanningMode: model.PlanningModeHours,
		Periods: []model.Period{
			{ID: "q1", Label: "Q1", Type: model.PeriodQuarter},
			{ID: "q2", Label: "Q2", Type: model.PeriodQuarter},
		},
		Assumptions:     model.Assumptions{AllocationCapPercentage: 100},
		PriorityRanking: []string{"checkout"},
	}
}

func baseStore() *memStore {
	return &memStore{
		scenario: baseScenario(),
		initiatives: []model.Initiative{{
			ID: "checkout", Name: "Checkout revamp", Status: model.StatusResourcing,
			ScopeItems: []model.ScopeItem{{
				ID:           "checkout-api",
				SkillDemand:  map[string]float64{"backend": 500},
				Distribution: map[string]float64{"q1": 1},
				EstimateP50:  f(500), EstimateP90: f(700),
			}},
		}},
		employees: []model.Employee{{
			ID: "alice", Name: "Alice", HoursPerWeek: 40,
			Skills: []model.SkillLevel{{Name: "backend", Proficiency: 4}},
		}},
		allocations: []model.Allocation{{
			ID: "a1", EmployeeID: "alice", InitiativeID: "checkout", Percentage: 100,
			Periods: []model.AllocationPeriod{{PeriodID: "q1", OverlapRatio: 1}},
		}},
	}
}

func calculate(t *testing.T, store *memStore, opts Options) *Result {
	t.Helper()
	calc := NewCalculator(store, nil, nil, nil, 0)
	res, err := calc.Calculate(context.Background(), "sc-1", opts)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	return res
}

func TestDemandAndCapacityAggregation(t *testing.T) {
	res := calculate(t, baseStore(), Options{IncludeBreakdown: true})
	if len(res.Demand) != 1 {
		t.Fatalf("expected 1 demand cell, got %+v", res.Demand)
	}
	d := res.Demand[0]
	if d.PeriodID != "q1" || d.Skill != "backend" || d.TotalHours != 500 {
		t.Fatalf("bad demand cell %+v", d)
	}
	if len(d.Contributions) != 1 || d.Contributions[0].InitiativeID != "checkout" || d.Contributions[0].Rank != 0 {
		t.Fatalf("bad contributions %+v", d.Contributions)
	}
	if len(res.Capacity) != 1 {
		t.Fatalf("expected 1 capacity cell, got %+v", res.Capacity)
	}
	// 40 h/week * 13 weeks * 100% allocation, no weighting, no buffer.
	if res.Capacity[0].EffectiveHours != 520 {
		t.Fatalf("expected 520 effective hours, got %v", res.Capacity[0].EffectiveHours)
	}
	if len(res.Cells) != 1 || res.Cells[0].GapHours != 20 {
		t.Fatalf("expected gap of 20 hours, got %+v", res.Cells)
	}
}

func TestBreakdownOmittedByDefault(t *testing.T) {
	res := calculate(t, baseStore(), Options{})
	if len(res.Demand[0].Contributions) != 0 {
		t.Fatalf("contributions should be omitted: %+v", res.Demand[0].Contributions)
	}
}

func TestInactiveAndUnrankedInitiativesIgnored(t *testing.T) {
	store := baseStore()
	store.initiatives = append(store.initiatives,
		model.Initiative{ID: "icebox", Status: model.StatusDraft, ScopeItems: store.initiatives[0].ScopeItems},
		model.Initiative{ID: "shadow", Status: model.StatusResourcing, ScopeItems: store.initiatives[0].ScopeItems},
	)
	store.scenario.PriorityRanking = []string{"checkout", "icebox"} // shadow unranked
	res := calculate(t, store, Options{})
	if res.Demand[0].TotalHours != 500 {
		t.Fatalf("inactive/unranked initiatives leaked into demand: %v", res.Demand[0].TotalHours)
	}
	if res.Summary.InitiativeCount != 1 {
		t.Fatalf("expected 1 contributing initiative, got %d", res.Summary.InitiativeCount)
	}
}

func TestRankingReferenceWarning(t *testing.T) {
	store := baseStore()
	store.scenario.PriorityRanking = []string{"checkout", "ghost"}
	res := calculate(t, store, Options{})
	if len(res.Warnings) == 0 {
		t.Fatal("expected warning for unknown ranked initiative")
	}
}

func TestProficiencyAndBuffer(t *testing.T) {
	store := baseStore()
	store.scenario.Assumptions.ProficiencyWeighting = true
	store.scenario.Assumptions.BufferPercentage = 20
	res := calculate(t, store, Options{})
	// 520 * (4/5) * 0.8 = 332.8
	got := res.Capacity[0].EffectiveHours
	if diff := got - 332.8; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected 332.8 effective hours, got %v", got)
	}
}

func TestAllocationCapApplies(t *testing.T) {
	store := baseStore()
	store.allocations = append(store.allocations, model.Allocation{
		ID: "a2", EmployeeID: "alice", Percentage: 50,
		Periods: []model.AllocationPeriod{{PeriodID: "q1", OverlapRatio: 1}},
	})
	res := calculate(t, store, Options{})
	// Raw 150% capped at 100%.
	if res.Capacity[0].EffectiveHours != 520 {
		t.Fatalf("cap not applied: %v", res.Capacity[0].EffectiveHours)
	}
	// The raw signal still drives overallocation detection.
	if len(res.Overallocations) != 1 || res.Overallocations[0].TotalPct != 150 {
		t.Fatalf("expected raw 150%% overallocation, got %+v", res.Overallocations)
	}
}

func TestCapacityCalendarOverride(t *testing.T) {
	store := baseStore()
	store.employees[0].CapacityCalendar = map[string]float64{"q1": 400}
	res := calculate(t, store, Options{})
	if res.Capacity[0].EffectiveHours != 400 {
		t.Fatalf("calendar override ignored: %v", res.Capacity[0].EffectiveHours)
	}
}

func TestContractorExclusion(t *testing.T) {
	store := baseStore()
	store.employees[0].Contractor = true
	store.scenario.Assumptions.ExcludeContractors = true
	res := calculate(t, store, Options{})
	if len(res.Capacity) != 0 {
		t.Fatalf("contractor capacity not excluded: %+v", res.Capacity)
	}
	if res.Cells[0].UtilizationPct != 100 {
		t.Fatalf("zero-capacity utilization should clamp to 100, got %v", res.Cells[0].UtilizationPct)
	}
}

func TestShortageSeverityBuckets(t *testing.T) {
	for _, tc := range []struct {
		demand   float64
		capacity float64
		want     Severity
	}{
		{1000, 400, SeverityCritical}, // 60% short
		{1000, 650, SeverityHigh},     // 35%
		{1000, 800, SeverityMedium},   // 20%
		{1000, 950, SeverityLow},      // 5%
	} {
		store := baseStore()
		store.initiatives[0].ScopeItems[0].SkillDemand["backend"] = tc.demand
		store.employees[0].CapacityCalendar = map[string]float64{"q1": tc.capacity}
		res := calculate(t, store, Options{})
		if len(res.Shortages) != 1 {
			t.Fatalf("expected one shortage for %+v, got %+v", tc, res.Shortages)
		}
		if res.Shortages[0].Severity != tc.want {
			t.Fatalf("demand %v capacity %v: expected %s got %s", tc.demand, tc.capacity, tc.want, res.Shortages[0].Severity)
		}
	}
}

func TestShortagesSortedCriticalFirst(t *testing.T) {
	store := baseStore()
	store.initiatives[0].ScopeItems[0].SkillDemand = map[string]float64{"backend": 1000, "frontend": 1000}
	store.initiatives[0].ScopeItems[0].Distribution = map[string]float64{"q1": 1}
	// Alice covers only backend at 800h (20% short, medium); frontend has no
	// capacity at all (100% short, critical).
	store.employees[0].CapacityCalendar = map[string]float64{"q1": 800}
	res := calculate(t, store, Options{})
	if len(res.Shortages) != 2 {
		t.Fatalf("expected two shortages, got %+v", res.Shortages)
	}
	if res.Shortages[0].Skill != "frontend" || res.Shortages[0].Severity != SeverityCritical {
		t.Fatalf("critical shortage should sort first: %+v", res.Shortages)
	}
}

func TestOverallocationStrictlyAbove100(t *testing.T) {
	store := baseStore()
	res := calculate(t, store, Options{})
	if len(res.Overallocations) != 0 {
		t.Fatalf("exactly 100%% must not flag: %+v", res.Overallocations)
	}
	store.allocations[0].Percentage = 100.5
	store.loads = 0
	res = calculate(t, store, Options{SkipCache: true})
	if len(res.Overallocations) != 1 {
		t.Fatalf("100.5%% must flag: %+v", res.Overallocations)
	}
}

func TestOverallocationUsesOverlapWeight(t *testing.T) {
	store := baseStore()
	// 200% nominal but only half the period overlaps: weighted 100, not over.
	store.allocations[0].Percentage = 200
	store.allocations[0].Periods[0].OverlapRatio = 0.5
	res := calculate(t, store, Options{})
	if len(res.Overallocations) != 0 {
		t.Fatalf("overlap weighting ignored: %+v", res.Overallocations)
	}
}

func TestSkillMismatchDetection(t *testing.T) {
	store := baseStore()
	store.initiatives[0].ScopeItems[0].SkillDemand["frontend"] = 100
	res := calculate(t, store, Options{})
	if len(res.SkillMismatches) != 1 {
		t.Fatalf("expected one mismatch, got %+v", res.SkillMismatches)
	}
	m := res.SkillMismatches[0]
	if m.EmployeeID != "alice" || len(m.MissingSkills) != 1 || m.MissingSkills[0] != "frontend" {
		t.Fatalf("bad mismatch %+v", m)
	}
}

func TestTokenConversionFallback(t *testing.T) {
	store := baseStore()
	store.scenario.PlanningMode = model.PlanningModeTokens
	res := calculate(t, store, Options{})
	found := false
	for _, w := range res.Warnings {
		if w == "no token calibration for scenario; using 1:1 token to hour conversion" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected token fallback warning, got %v", res.Warnings)
	}
	if res.Demand[0].TotalHours != 500 {
		t.Fatalf("1:1 fallback should keep 500 hours, got %v", res.Demand[0].TotalHours)
	}

	store.scenario.Assumptions.TokenHoursRatio = 2
	res = calculate(t, store, Options{SkipCache: true})
	if res.Demand[0].TotalHours != 1000 {
		t.Fatalf("calibrated conversion expected 1000 hours, got %v", res.Demand[0].TotalHours)
	}
}

func TestCachingAndInvalidation(t *testing.T) {
	store := baseStore()
	calc := NewCalculator(store, cache.NewMemory(), nil, nil, time.Minute)
	ctx := context.Background()

	if _, err := calc.Calculate(ctx, "sc-1", Options{}); err != nil {
		t.Fatalf("first calculate: %v", err)
	}
	if _, err := calc.Calculate(ctx, "sc-1", Options{}); err != nil {
		t.Fatalf("second calculate: %v", err)
	}
	if store.loads != 1 {
		t.Fatalf("expected cached second call, store loaded %d times", store.loads)
	}

	if _, err := calc.Calculate(ctx, "sc-1", Options{SkipCache: true}); err != nil {
		t.Fatalf("skip-cache calculate: %v", err)
	}
	if store.loads != 2 {
		t.Fatalf("SkipCache must bypass the cache, store loaded %d times", store.loads)
	}

	calc.Invalidate("sc-1")
	if _, err := calc.Calculate(ctx, "sc-1", Options{}); err != nil {
		t.Fatalf("post-invalidate calculate: %v", err)
	}
	if store.loads != 3 {
		t.Fatalf("invalidate must force recompute, store loaded %d times", store.loads)
	}
}

func TestUnknownScenario(t *testing.T) {
	calc := NewCalculator(&memStore{}, nil, nil, nil, 0)
	_, err := calc.Calculate(context.Background(), "sc-1", Options{})
	if !errors.Is(err, ErrScenarioNotFound) {
		t.Fatalf("expected ErrScenarioNotFound, got %v", err)
	}
}

func TestSummaryCounts(t *testing.T) {
	store := baseStore()
	res := calculate(t, store, Options{})
	s := res.Summary
	if s.TotalDemandHours != 500 || s.TotalCapacityHours != 520 || s.TotalGapHours != 20 {
		t.Fatalf("bad totals %+v", s)
	}
	if s.SkillCount != 1 || s.EmployeeCount != 1 || s.InitiativeCount != 1 {
		t.Fatalf("bad counts %+v", s)
	}
	want := 500.0 / 520 * 100
	if diff := s.UtilizationPct - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("expected utilization %.4f, got %v", want, s.UtilizationPct)
	}
}
