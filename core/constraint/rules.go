package constraint

import "fmt"

// utilizationWarnThreshold is the soft ceiling above which a capacity
// warning is emitted even though the slot still fits.
const utilizationWarnThreshold = 0.85

// CapacityRule flags (team, period) slots whose summed token load exceeds
// the team capacity, and warns when utilization crosses the soft threshold
// without exceeding capacity.
type CapacityRule struct{}

func (CapacityRule) ID() string   { return "capacity" }
func (CapacityRule) Name() string { return "Team capacity" }

func (CapacityRule) Evaluate(sc Scenario) RuleResult {
	var res RuleResult
	loads := allocatedTokens(sc)
	for _, team := range sc.Teams {
		for p := 0; p < sc.Horizon; p++ {
			allocated := loads[team.ID][p]
			capAt := team.CapacityAt(p)
			if allocated > capAt {
				res.Violations = append(res.Violations, Violation{
					ConstraintID: "capacity",
					Severity:     SeverityError,
					Message:      fmt.Sprintf("team %s over capacity in period %d: %.1f tokens allocated, %.1f available", team.ID, p, allocated, capAt),
					TeamID:       team.ID,
					Period:       p,
				})
				continue
			}
			if u := utilization(allocated, capAt); u >= utilizationWarnThreshold {
				res.Warnings = append(res.Warnings, Warning{
					ConstraintID: "capacity",
					Message:      fmt.Sprintf("team %s at %.0f%% utilization in period %d", team.ID, u*100, p),
					TeamID:       team.ID,
					Period:       p,
					Metric:       "utilization",
					Actual:       u,
					Threshold:    utilizationWarnThreshold,
				})
			}
		}
	}
	return res
}

// DependencyRule requires every dependency to complete no later than the
// dependent item starts.
type DependencyRule struct{}

func (DependencyRule) ID() string   { return "dependency" }
func (DependencyRule) Name() string { return "Dependency ordering" }

func (DependencyRule) Evaluate(sc Scenario) RuleResult {
	var res RuleResult
	byID := make(map[string]Item, len(sc.Items))
	for _, item := range sc.Items {
		byID[item.ID] = item
	}
	for _, item := range sc.Items {
		for _, depID := range item.Dependencies {
			dep, ok := byID[depID]
			if !ok {
				res.Warnings = append(res.Warnings, Warning{
					ConstraintID: "dependency",
					Message:      fmt.Sprintf("item %s depends on unknown item %s", item.ID, depID),
					ItemID:       item.ID,
					Period:       -1,
				})
				continue
			}
			if dep.StartPeriod+dep.Duration > item.StartPeriod {
				res.Violations = append(res.Violations, Violation{
					ConstraintID: "dependency",
					Severity:     SeverityError,
					Message:      fmt.Sprintf("item %s starts in period %d before dependency %s completes in period %d", item.ID, item.StartPeriod, dep.ID, dep.StartPeriod+dep.Duration),
					ItemIDs:      []string{item.ID, dep.ID},
					Period:       -1,
				})
			}
		}
	}
	return res
}

// TemporalFitRule requires every item to finish within the horizon.
type TemporalFitRule struct{}

func (TemporalFitRule) ID() string   { return "temporal-fit" }
func (TemporalFitRule) Name() string { return "Temporal fit" }

func (TemporalFitRule) Evaluate(sc Scenario) RuleResult {
	var res RuleResult
	for _, item := range sc.Items {
		if item.StartPeriod+item.Duration > sc.Horizon {
			res.Violations = append(res.Violations, Violation{
				ConstraintID: "temporal-fit",
				Severity:     SeverityError,
				Message:      fmt.Sprintf("item %s runs to period %d, past horizon %d", item.ID, item.StartPeriod+item.Duration, sc.Horizon),
				ItemIDs:      []string{item.ID},
				Period:       -1,
			})
		}
	}
	return res
}
