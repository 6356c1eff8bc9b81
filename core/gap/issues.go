package gap

import (
	"sort"
	"time"

	"github.com/wiltonn/productfolio-sub002/core/model"
)

// compute runs the full analysis over already-loaded records.
func compute(sc *model.Scenario, inits []model.Initiative, emps []model.Employee, allocs []model.Allocation, opts Options) *Result {
	demand, demandWarnings, initiativeCount := computeDemand(sc, inits, opts.IncludeBreakdown)
	capacity, loads, capWarnings := computeCapacity(sc, emps, allocs)

	res := &Result{
		ScenarioID: sc.ID,
		ComputedAt: time.Now(),
		Demand:     demand,
		Capacity:   capacity,
	}
	res.Warnings = append(res.Warnings, demandWarnings...)
	res.Warnings = append(res.Warnings, capWarnings...)

	res.Cells = deriveCells(sc, demand, capacity)
	res.Shortages = detectShortages(res.Cells)
	res.Overallocations = detectOverallocations(sc, emps, loads)
	res.SkillMismatches = detectSkillMismatches(inits, emps, allocs)
	res.Summary = summarize(res, loads, initiativeCount)
	return res
}

// deriveCells joins demand and capacity over the union of (period, skill).
func deriveCells(sc *model.Scenario, demand []DemandCell, capacity []CapacityCell) []Cell {
	cells := make(map[cellKey]*Cell)
	get := func(period, skill string) *Cell {
		key := cellKey{period: period, skill: skill}
		c := cells[key]
		if c == nil {
			c = &Cell{PeriodID: period, Skill: skill}
			cells[key] = c
		}
		return c
	}
	for _, d := range demand {
		get(d.PeriodID, d.Skill).DemandHours = d.TotalHours
	}
	for _, c := range capacity {
		get(c.PeriodID, c.Skill).CapacityHours = c.EffectiveHours
	}

	order := periodOrder(sc)
	out := make([]Cell, 0, len(cells))
	for _, c := range cells {
		c.GapHours = c.CapacityHours - c.DemandHours
		c.UtilizationPct = utilizationPct(c.DemandHours, c.CapacityHours)
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if order[out[i].PeriodID] != order[out[j].PeriodID] {
			return order[out[i].PeriodID] < order[out[j].PeriodID]
		}
		return out[i].Skill < out[j].Skill
	})
	return out
}

// utilizationPct clamps the zero-capacity case to exactly 100 instead of
// surfacing an infinity; the raw grid API keeps its Inf sentinel, this
// report does not.
func utilizationPct(demand, capacity float64) float64 {
	if capacity == 0 {
		if demand > 0 {
			return 100
		}
		return 0
	}
	return demand / capacity * 100
}

func detectShortages(cells []Cell) []Shortage {
	var out []Shortage
	for _, c := range cells {
		if c.GapHours >= 0 {
			continue
		}
		short := -c.GapHours
		pct := 0.0
		if c.DemandHours > 0 {
			pct = short / c.DemandHours * 100
		}
		out = append(out, Shortage{
			PeriodID:      c.PeriodID,
			Skill:         c.Skill,
			ShortageHours: short,
			ShortagePct:   pct,
			Severity:      shortageSeverity(pct),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if severityRank[out[i].Severity] != severityRank[out[j].Severity] {
			return severityRank[out[i].Severity] < severityRank[out[j].Severity]
		}
		return out[i].ShortagePct > out[j].ShortagePct
	})
	return out
}

func shortageSeverity(pct float64) Severity {
	switch {
	case pct >= 50:
		return SeverityCritical
	case pct >= 30:
		return SeverityHigh
	case pct >= 15:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// detectOverallocations flags employees whose summed, overlap-weighted
// allocation percentage strictly exceeds 100 in a period. The allocation cap
// assumption does not apply here: the point is to surface the raw signal.
func detectOverallocations(sc *model.Scenario, emps []model.Employee, loads employeeLoad) []Overallocation {
	names := make(map[string]string, len(emps))
	for _, e := range emps {
		names[e.ID] = e.Name
	}
	var out []Overallocation
	for _, empID := range sortedKeys(loads) {
		for _, period := range sc.Periods {
			total := loads[empID][period.ID]
			if total > 100 {
				out = append(out, Overallocation{
					EmployeeID:   empID,
					EmployeeName: names[empID],
					PeriodID:     period.ID,
					TotalPct:     total,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalPct > out[j].TotalPct })
	return out
}

// detectSkillMismatches compares each initiative allocation's required skill
// union against the employee's skill set.
func detectSkillMismatches(inits []model.Initiative, emps []model.Employee, allocs []model.Allocation) []SkillMismatch {
	byInit := make(map[string]model.Initiative, len(inits))
	for _, in := range inits {
		byInit[in.ID] = in
	}
	byEmp := make(map[string]model.Employee, len(emps))
	for _, e := range emps {
		byEmp[e.ID] = e
	}

	var out []SkillMismatch
	for _, a := range allocs {
		if a.InitiativeID == "" {
			continue // non-project work has no skill requirements
		}
		in, ok := byInit[a.InitiativeID]
		if !ok {
			continue
		}
		emp, ok := byEmp[a.EmployeeID]
		if !ok {
			continue
		}
		required := make(map[string]struct{})
		for _, item := range in.ScopeItems {
			for skill := range item.SkillDemand {
				required[skill] = struct{}{}
			}
		}
		var missing []string
		for skill := range required {
			if !emp.HasSkill(skill) {
				missing = append(missing, skill)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			out = append(out, SkillMismatch{
				AllocationID:  a.ID,
				EmployeeID:    a.EmployeeID,
				InitiativeID:  a.InitiativeID,
				MissingSkills: missing,
			})
		}
	}
	return out
}

func summarize(res *Result, loads employeeLoad, initiativeCount int) Summary {
	var s Summary
	skills := make(map[string]struct{})
	for _, c := range res.Cells {
		s.TotalDemandHours += c.DemandHours
		s.TotalCapacityHours += c.CapacityHours
		skills[c.Skill] = struct{}{}
	}
	s.TotalGapHours = s.TotalCapacityHours - s.TotalDemandHours
	s.UtilizationPct = utilizationPct(s.TotalDemandHours, s.TotalCapacityHours)
	s.ShortageCount = len(res.Shortages)
	s.OverallocationCount = len(res.Overallocations)
	s.MismatchCount = len(res.SkillMismatches)
	s.SkillCount = len(skills)
	s.EmployeeCount = len(loads)
	s.InitiativeCount = initiativeCount
	return s
}
