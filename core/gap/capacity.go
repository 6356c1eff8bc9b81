package gap

import (
	"fmt"
	"sort"

	"github.com/wiltonn/productfolio-sub002/core/model"
)

// employeeLoad is the raw overlap-weighted allocation percentage per
// (employee, period), before any cap. It feeds both capacity and
// overallocation detection.
type employeeLoad map[string]map[string]float64

// computeCapacity aggregates effective supply hours per (period, skill).
func computeCapacity(sc *model.Scenario, emps []model.Employee, allocs []model.Allocation) ([]CapacityCell, employeeLoad, []string) {
	byEmp := make(map[string]model.Employee, len(emps))
	for _, e := range emps {
		byEmp[e.ID] = e
	}

	var warnings []string
	loads := make(employeeLoad)
	for _, a := range allocs {
		if _, ok := byEmp[a.EmployeeID]; !ok {
			warnings = append(warnings, fmt.Sprintf("allocation %s references unknown employee %s", a.ID, a.EmployeeID))
			continue
		}
		row := loads[a.EmployeeID]
		if row == nil {
			row = make(map[string]float64)
			loads[a.EmployeeID] = row
		}
		for _, ap := range a.Periods {
			row[ap.PeriodID] += a.Percentage * ap.OverlapRatio
		}
	}

	buffer := 1 - sc.Assumptions.BufferPercentage/100
	if buffer < 0 {
		buffer = 0
	}

	cells := make(map[cellKey]*CapacityCell)
	for _, period := range sc.Periods {
		for _, empID := range sortedKeys(loads) {
			emp := byEmp[empID]
			if emp.Contractor && sc.Assumptions.ExcludeContractors {
				continue
			}
			totalPct := loads[empID][period.ID]
			if totalPct <= 0 {
				continue
			}
			if capPct := sc.Assumptions.AllocationCapPercentage; capPct > 0 && totalPct > capPct {
				totalPct = capPct
			}
			base := emp.HoursPerWeek * baseWeeksPerPeriod
			if cal, ok := emp.CapacityCalendar[period.ID]; ok {
				base = cal
			}
			if len(emp.Skills) == 0 {
				warnings = append(warnings, fmt.Sprintf("employee %s has allocations but no skills on record", empID))
				continue
			}
			for _, skill := range emp.Skills {
				prof := 1.0
				if sc.Assumptions.ProficiencyWeighting {
					prof = float64(skill.Proficiency) / 5
				}
				hours := base * (totalPct / 100) * prof * buffer
				if hours <= 0 {
					continue
				}
				key := cellKey{period: period.ID, skill: skill.Name}
				cell := cells[key]
				if cell == nil {
					cell = &CapacityCell{PeriodID: period.ID, Skill: skill.Name}
					cells[key] = cell
				}
				cell.EffectiveHours += hours
				cell.Headcount++
			}
		}
	}
	return sortCapacityCells(sc, cells), loads, warnings
}

func sortedKeys(loads employeeLoad) []string {
	keys := make([]string, 0, len(loads))
	for k := range loads {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortCapacityCells(sc *model.Scenario, cells map[cellKey]*CapacityCell) []CapacityCell {
	order := periodOrder(sc)
	out := make([]CapacityCell, 0, len(cells))
	for _, c := range cells {
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
