package gap

import (
	"fmt"
	"sort"

	"github.com/wiltonn/productfolio-sub002/core/model"
)

type cellKey struct {
	period string
	skill  string
}

// computeDemand aggregates required hours per (period, skill) over the
// scenario's priority ranking. Only active initiatives present in the
// ranking contribute; contributions stay ordered by rank.
func computeDemand(sc *model.Scenario, inits []model.Initiative, includeBreakdown bool) ([]DemandCell, []string, int) {
	byID := make(map[string]model.Initiative, len(inits))
	for _, in := range inits {
		byID[in.ID] = in
	}

	ratio := 1.0
	var warnings []string
	if sc.PlanningMode == model.PlanningModeTokens {
		if sc.Assumptions.TokenHoursRatio > 0 {
			ratio = sc.Assumptions.TokenHoursRatio
		} else {
			warnings = append(warnings, "no token calibration for scenario; using 1:1 token to hour conversion")
		}
	}

	cells := make(map[cellKey]*DemandCell)
	contributing := 0
	for rank, id := range sc.PriorityRanking {
		in, ok := byID[id]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("initiative %s in priority ranking not found", id))
			continue
		}
		if !in.Status.Active() {
			continue
		}
		contributed := false
		for _, item := range in.ScopeItems {
			if sum := distributionSum(item); sum > 1+1e-9 {
				warnings = append(warnings, fmt.Sprintf("scope item %s distribution sums to %.2f", item.ID, sum))
			}
			for _, period := range sc.Periods {
				weight := item.Distribution[period.ID]
				if weight <= 0 {
					continue
				}
				for _, skill := range sortedSkills(item.SkillDemand) {
					hours := item.SkillDemand[skill] * weight * ratio
					if hours == 0 {
						continue
					}
					contributed = true
					key := cellKey{period: period.ID, skill: skill}
					cell := cells[key]
					if cell == nil {
						cell = &DemandCell{PeriodID: period.ID, Skill: skill}
						cells[key] = cell
					}
					cell.TotalHours += hours
					if includeBreakdown {
						cell.Contributions = appendContribution(cell.Contributions, Contribution{
							InitiativeID:   in.ID,
							InitiativeName: in.Name,
							Rank:           rank,
							Hours:          hours,
						})
					}
				}
			}
		}
		if contributed {
			contributing++
		}
	}
	return sortDemandCells(sc, cells), warnings, contributing
}

// appendContribution merges hours into an existing entry for the initiative
// or appends a new one. Rank order is preserved because initiatives are
// visited in ranking order.
func appendContribution(list []Contribution, c Contribution) []Contribution {
	for i := range list {
		if list[i].InitiativeID == c.InitiativeID {
			list[i].Hours += c.Hours
			return list
		}
	}
	return append(list, c)
}

func distributionSum(item model.ScopeItem) float64 {
	var sum float64
	for _, w := range item.Distribution {
		sum += w
	}
	return sum
}

func sortedSkills(demand map[string]float64) []string {
	skills := make([]string, 0, len(demand))
	for s := range demand {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills
}

// sortDemandCells orders cells by scenario period order, then skill.
func sortDemandCells(sc *model.Scenario, cells map[cellKey]*DemandCell) []DemandCell {
	order := periodOrder(sc)
	out := make([]DemandCell, 0, len(cells))
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

func periodOrder(sc *model.Scenario) map[string]int {
	order := make(map[string]int, len(sc.Periods))
	for i, p := range sc.Periods {
		order[p.ID] = i
	}
	return order
}
