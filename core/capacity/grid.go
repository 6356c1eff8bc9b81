// Package capacity provides an immutable per-team, per-period capacity
// ledger for token-based what-if scheduling. Every mutation returns a new
// grid, so exploratory schedules can be attempted and discarded without
// touching shared state.
package capacity

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknownTeam reports an allocation against a team the grid does not hold.
var ErrUnknownTeam = errors.New("unknown team")

// ErrPeriodOutOfRange reports a period index outside [0, horizon).
var ErrPeriodOutOfRange = errors.New("period out of range")

// Slot is the state of one (team, period) cell.
type Slot struct {
	Total     float64 `json:"total"`
	Allocated float64 `json:"allocated"`
}

// Remaining returns the unallocated capacity, which may be negative when the
// slot is over-allocated.
func (s Slot) Remaining() float64 { return s.Total - s.Allocated }

// Utilization returns allocated/total. A slot with zero total and positive
// allocation yields +Inf; callers treat that as a sentinel, not an error.
func (s Slot) Utilization() float64 {
	if s.Total == 0 {
		if s.Allocated > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return s.Allocated / s.Total
}

// TeamDemand is an item's per-period token draw on one team.
type TeamDemand struct {
	TeamID          string  `json:"team_id"`
	TokensPerPeriod float64 `json:"tokens_per_period"`
}

// WorkItem is a schedulable unit of work in the token planning domain.
type WorkItem struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	StartPeriod  int          `json:"start_period"`
	Duration     int          `json:"duration"`
	Dependencies []string     `json:"dependencies,omitempty"`
	Demands      []TeamDemand `json:"demands"`
}

// Grid is an immutable capacity ledger over teams x periods.
type Grid struct {
	horizon int
	teams   []string
	index   map[string]int
	slots   []Slot // team-major, len == len(teams)*horizon
}

// NewGrid builds a grid from per-team capacity-by-period arrays. Arrays
// shorter than the horizon are padded with zero capacity; longer arrays are
// truncated. Team order is fixed by sorted team id.
func NewGrid(capacityByTeam map[string][]float64, horizon int) *Grid {
	if horizon < 0 {
		horizon = 0
	}
	teams := make([]string, 0, len(capacityByTeam))
	for id := range capacityByTeam {
		teams = append(teams, id)
	}
	sort.Strings(teams)
	index := make(map[string]int, len(teams))
	slots := make([]Slot, len(teams)*horizon)
	for i, id := range teams {
		index[id] = i
		caps := capacityByTeam[id]
		for p := 0; p < horizon; p++ {
			if p < len(caps) {
				slots[i*horizon+p].Total = caps[p]
			}
		}
	}
	return &Grid{horizon: horizon, teams: teams, index: index, slots: slots}
}

// Horizon returns the number of planning periods.
func (g *Grid) Horizon() int { return g.horizon }

// Teams returns the team ids in grid order.
func (g *Grid) Teams() []string {
	out := make([]string, len(g.teams))
	copy(out, g.teams)
	return out
}

// Slot returns the cell state for a team and period.
func (g *Grid) Slot(team string, period int) (Slot, error) {
	i, err := g.cell(team, period)
	if err != nil {
		return Slot{}, err
	}
	return g.slots[i], nil
}

func (g *Grid) cell(team string, period int) (int, error) {
	ti, ok := g.index[team]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTeam, team)
	}
	if period < 0 || period >= g.horizon {
		return 0, fmt.Errorf("%w: %d not in [0,%d)", ErrPeriodOutOfRange, period, g.horizon)
	}
	return ti*g.horizon + period, nil
}

// clone copies the slot array; team metadata is immutable and shared.
func (g *Grid) clone() *Grid {
	slots := make([]Slot, len(g.slots))
	copy(slots, g.slots)
	return &Grid{horizon: g.horizon, teams: g.teams, index: g.index, slots: slots}
}

// Allocate returns a new grid with amount tokens added to the slot.
// Over-allocation is representable: utilization above 1 is not rejected.
func (g *Grid) Allocate(team string, period int, amount float64) (*Grid, error) {
	i, err := g.cell(team, period)
	if err != nil {
		return nil, err
	}
	next := g.clone()
	next.slots[i].Allocated += amount
	return next, nil
}

// Deallocate returns a new grid with amount tokens removed from the slot,
// flooring at zero.
func (g *Grid) Deallocate(team string, period int, amount float64) (*Grid, error) {
	i, err := g.cell(team, period)
	if err != nil {
		return nil, err
	}
	next := g.clone()
	next.slots[i].Allocated -= amount
	if next.slots[i].Allocated < 0 {
		next.slots[i].Allocated = 0
	}
	return next, nil
}

// ScheduleItem returns a new grid with the item's demands allocated into
// every period of [start, start+duration). Periods at or beyond the horizon
// are clipped silently.
func (g *Grid) ScheduleItem(item WorkItem, start int) (*Grid, error) {
	for _, d := range item.Demands {
		if _, ok := g.index[d.TeamID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTeam, d.TeamID)
		}
	}
	next := g.clone()
	for _, d := range item.Demands {
		ti := next.index[d.TeamID]
		for p := start; p < start+item.Duration; p++ {
			if p < 0 || p >= next.horizon {
				continue
			}
			next.slots[ti*next.horizon+p].Allocated += d.TokensPerPeriod
		}
	}
	return next, nil
}

// FindFeasibleWindow scans candidate start periods from earliestStart upward
// and returns the first start where every team demand fits in the remaining
// capacity of every period of the item's duration. The second return value
// is false when no window fits before the horizon. A demand against a team
// the grid does not know can never fit and reports not found, unlike
// ScheduleItem which treats it as a misuse and returns ErrUnknownTeam.
func (g *Grid) FindFeasibleWindow(item WorkItem, earliestStart int) (int, bool) {
	for _, d := range item.Demands {
		if _, ok := g.index[d.TeamID]; !ok {
			return 0, false
		}
	}
	if earliestStart < 0 {
		earliestStart = 0
	}
	for start := earliestStart; start+item.Duration <= g.horizon; start++ {
		if g.fits(item, start) {
			return start, true
		}
	}
	return 0, false
}

func (g *Grid) fits(item WorkItem, start int) bool {
	for _, d := range item.Demands {
		ti := g.index[d.TeamID]
		for p := start; p < start+item.Duration; p++ {
			if g.slots[ti*g.horizon+p].Remaining() < d.TokensPerPeriod {
				return false
			}
		}
	}
	return true
}

// Utilization returns allocated/total for the slot, +Inf when total is zero
// and tokens are allocated.
func (g *Grid) Utilization(team string, period int) (float64, error) {
	s, err := g.Slot(team, period)
	if err != nil {
		return 0, err
	}
	return s.Utilization(), nil
}

// TeamUtilization pairs a team with its utilization at one period.
type TeamUtilization struct {
	TeamID      string  `json:"team_id"`
	Utilization float64 `json:"utilization"`
}

// Contention returns every team's utilization at the period sorted
// descending; the head of the list is the bottleneck team.
func (g *Grid) Contention(period int) ([]TeamUtilization, error) {
	if period < 0 || period >= g.horizon {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrPeriodOutOfRange, period, g.horizon)
	}
	out := make([]TeamUtilization, len(g.teams))
	for i, id := range g.teams {
		out[i] = TeamUtilization{TeamID: id, Utilization: g.slots[i*g.horizon+period].Utilization()}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Utilization > out[j].Utilization })
	return out, nil
}
