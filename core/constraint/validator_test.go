package constraint

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
)

func testScenario() Scenario {
	return Scenario{
		Horizon: 4,
		Teams: []Team{
			{ID: "backend", Name: "Backend", CapacityByPeriod: []float64{10, 10, 10, 10}},
			{ID: "frontend", Name: "Frontend", CapacityByPeriod: []float64{8, 8, 8, 8}},
		},
		Items: []Item{
			{
				ID: "auth", StartPeriod: 0, Duration: 2,
				Allocations: []TeamAllocation{
					{TeamID: "backend", Period: 0, Tokens: 4},
					{TeamID: "backend", Period: 1, Tokens: 4},
				},
			},
			{
				ID: "billing", StartPeriod: 2, Duration: 2, Dependencies: []string{"auth"},
				Allocations: []TeamAllocation{
					{TeamID: "backend", Period: 2, Tokens: 6},
					{TeamID: "frontend", Period: 3, Tokens: 3},
				},
			},
		},
	}
}

func TestValidateFeasibleScenario(t *testing.T) {
	res := NewRegistry().Validate(testScenario())
	if !res.Feasible {
		t.Fatalf("expected feasible, got violations %+v", res.Violations)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
	if len(res.Utilization) != 8 {
		t.Fatalf("expected 8 utilization cells, got %d", len(res.Utilization))
	}
}

func TestCapacityViolationAndWarning(t *testing.T) {
	sc := testScenario()
	// Push backend period 0 over capacity and frontend period 3 into the
	// warning band.
	sc.Items[0].Allocations[0].Tokens = 12
	sc.Items[1].Allocations[1].Tokens = 7 // 7/8 = 0.875

	res := NewRegistry().Validate(sc)
	if res.Feasible {
		t.Fatal("expected infeasible scenario")
	}
	var foundViolation bool
	for _, v := range res.Violations {
		if v.ConstraintID == "capacity" && v.TeamID == "backend" && v.Period == 0 {
			foundViolation = true
		}
	}
	if !foundViolation {
		t.Fatalf("missing backend capacity violation: %+v", res.Violations)
	}
	var foundWarning bool
	for _, w := range res.Warnings {
		if w.ConstraintID == "capacity" && w.TeamID == "frontend" && w.Period == 3 {
			foundWarning = true
			if w.Metric != "utilization" || w.Threshold != 0.85 {
				t.Fatalf("bad warning payload: %+v", w)
			}
			if math.Abs(w.Actual-0.875) > 1e-9 {
				t.Fatalf("expected actual 0.875, got %v", w.Actual)
			}
		}
	}
	if !foundWarning {
		t.Fatalf("missing utilization warning: %+v", res.Warnings)
	}
}

func TestCapacityWarningAtExactlyFull(t *testing.T) {
	sc := Scenario{
		Horizon: 1,
		Teams:   []Team{{ID: "backend", CapacityByPeriod: []float64{10}}},
		Items: []Item{{ID: "a", Duration: 1, Allocations: []TeamAllocation{
			{TeamID: "backend", Period: 0, Tokens: 10},
		}}},
	}
	res := NewRegistry().Validate(sc)
	if !res.Feasible {
		t.Fatalf("full slot is not a violation: %+v", res.Violations)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Actual != 1.0 {
		t.Fatalf("expected a single warning at utilization 1.0, got %+v", res.Warnings)
	}
}

func TestDependencyViolation(t *testing.T) {
	sc := testScenario()
	sc.Items[1].StartPeriod = 1 // auth completes at period 2

	res := NewRegistry().Validate(sc)
	var found bool
	for _, v := range res.Violations {
		if v.ConstraintID == "dependency" {
			found = true
			if len(v.ItemIDs) != 2 || v.ItemIDs[0] != "billing" || v.ItemIDs[1] != "auth" {
				t.Fatalf("violation should name both items: %+v", v)
			}
		}
	}
	if !found {
		t.Fatalf("missing dependency violation: %+v", res.Violations)
	}
}

func TestDependencyCompletionBoundary(t *testing.T) {
	// Completion period equal to the dependent's start is allowed.
	res := NewRegistry().Validate(testScenario())
	for _, v := range res.Violations {
		if v.ConstraintID == "dependency" {
			t.Fatalf("back-to-back dependency should pass: %+v", v)
		}
	}
}

func TestUnknownDependencyIsWarningOnly(t *testing.T) {
	sc := testScenario()
	sc.Items[1].Dependencies = []string{"ghost"}
	res := NewRegistry().Validate(sc)
	if !res.Feasible {
		t.Fatalf("unknown dependency must not make the scenario infeasible: %+v", res.Violations)
	}
	if len(res.Warnings) == 0 {
		t.Fatal("expected a warning for the unknown dependency")
	}
}

func TestTemporalFitViolation(t *testing.T) {
	sc := testScenario()
	sc.Items[1].Duration = 5
	res := NewRegistry().Validate(sc)
	var found bool
	for _, v := range res.Violations {
		if v.ConstraintID == "temporal-fit" && len(v.ItemIDs) == 1 && v.ItemIDs[0] == "billing" {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing temporal-fit violation: %+v", res.Violations)
	}
}

type blockAllRule struct{}

func (blockAllRule) ID() string   { return "block-all" }
func (blockAllRule) Name() string { return "Block everything" }
func (blockAllRule) Evaluate(sc Scenario) RuleResult {
	var res RuleResult
	for _, item := range sc.Items {
		res.Violations = append(res.Violations, Violation{
			ConstraintID: "block-all",
			Severity:     SeverityError,
			Message:      "blocked",
			ItemIDs:      []string{item.ID},
			Period:       -1,
		})
	}
	return res
}

func TestCustomRuleParticipates(t *testing.T) {
	reg := NewRegistry()
	reg.Register(blockAllRule{})
	res := reg.Validate(testScenario())
	if res.Feasible {
		t.Fatal("custom rule violations must make the scenario infeasible")
	}
	count := 0
	for _, v := range res.Violations {
		if v.ConstraintID == "block-all" {
			count++
		}
	}
	if count != 2 {
		t.Fatalf("expected 2 custom violations, got %d", count)
	}
}

func TestValidatorAccumulatesAcrossRules(t *testing.T) {
	sc := testScenario()
	sc.Items[0].Allocations[0].Tokens = 20 // capacity violation
	sc.Items[1].StartPeriod = 1            // dependency violation
	sc.Items[1].Duration = 9               // temporal violation
	res := NewRegistry().Validate(sc)
	seen := map[string]bool{}
	for _, v := range res.Violations {
		seen[v.ConstraintID] = true
	}
	for _, id := range []string{"capacity", "dependency", "temporal-fit"} {
		if !seen[id] {
			t.Fatalf("rule %s did not report despite other failures: %+v", id, res.Violations)
		}
	}
}

func TestResultMarshalsZeroCapacityUtilization(t *testing.T) {
	sc := Scenario{
		Horizon: 1,
		Teams:   []Team{{ID: "ops", Name: "Ops", CapacityByPeriod: []float64{0}}},
		Items: []Item{{
			ID: "migration", StartPeriod: 0, Duration: 1,
			Allocations: []TeamAllocation{{TeamID: "ops", Period: 0, Tokens: 3}},
		}},
	}
	res := NewRegistry().Validate(sc)
	if res.Feasible {
		t.Fatal("expected capacity violation against a zero-capacity team")
	}
	if !math.IsInf(res.Utilization[0].Utilization, 1) {
		t.Fatalf("expected +Inf utilization, got %v", res.Utilization[0].Utilization)
	}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	if !strings.Contains(string(b), `"utilization":null`) {
		t.Fatalf("expected null utilization in %s", b)
	}
}
