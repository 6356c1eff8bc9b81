package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wiltonn/productfolio-sub002/core/capacity"
	"github.com/wiltonn/productfolio-sub002/core/constraint"
)

var schedulePath string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Validate a token-planned schedule and find feasible windows",
	RunE:  runSchedule,
}

func init() {
	scheduleCmd.Flags().StringVarP(&schedulePath, "file", "f", "", "schedule file (yaml)")
	_ = scheduleCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(scheduleCmd)
}

// scheduleFile is the what-if schedule input format.
type scheduleFile struct {
	Horizon int `yaml:"horizon"`
	Teams   []struct {
		ID         string    `yaml:"id"`
		Name       string    `yaml:"name"`
		Capacities []float64 `yaml:"capacities"`
	} `yaml:"teams"`
	Items []struct {
		ID           string             `yaml:"id"`
		Name         string             `yaml:"name"`
		StartPeriod  int                `yaml:"start_period"`
		Duration     int                `yaml:"duration"`
		Dependencies []string           `yaml:"dependencies"`
		Demands      map[string]float64 `yaml:"demands"` // team id -> tokens/period
	} `yaml:"items"`
}

// scheduleReport is the command output.
type scheduleReport struct {
	Validation constraint.Result `json:"validation"`
	Windows    []itemWindow      `json:"windows"`
}

type itemWindow struct {
	ItemID   string `json:"item_id"`
	Start    int    `json:"start"`
	Feasible bool   `json:"feasible"`
}

func runSchedule(cmd *cobra.Command, args []string) error {
	b, err := os.ReadFile(schedulePath)
	if err != nil {
		return err
	}
	var sf scheduleFile
	if err := yaml.Unmarshal(b, &sf); err != nil {
		return fmt.Errorf("parse schedule: %w", err)
	}

	byTeam := make(map[string][]float64, len(sf.Teams))
	teams := make([]constraint.Team, 0, len(sf.Teams))
	for _, t := range sf.Teams {
		byTeam[t.ID] = t.Capacities
		teams = append(teams, constraint.Team{ID: t.ID, Name: t.Name, CapacityByPeriod: t.Capacities})
	}
	grid := capacity.NewGrid(byTeam, sf.Horizon)

	items := make([]constraint.Item, 0, len(sf.Items))
	report := scheduleReport{}
	for _, it := range sf.Items {
		work := capacity.WorkItem{
			ID:           it.ID,
			Name:         it.Name,
			StartPeriod:  it.StartPeriod,
			Duration:     it.Duration,
			Dependencies: it.Dependencies,
		}
		item := constraint.Item{
			ID:           it.ID,
			Name:         it.Name,
			StartPeriod:  it.StartPeriod,
			Duration:     it.Duration,
			Dependencies: it.Dependencies,
		}
		for team, tokens := range it.Demands {
			work.Demands = append(work.Demands, capacity.TeamDemand{TeamID: team, TokensPerPeriod: tokens})
			for p := it.StartPeriod; p < it.StartPeriod+it.Duration && p < sf.Horizon; p++ {
				item.Allocations = append(item.Allocations, constraint.TeamAllocation{TeamID: team, Period: p, Tokens: tokens})
			}
		}
		items = append(items, item)

		start, ok := grid.FindFeasibleWindow(work, 0)
		w := itemWindow{ItemID: it.ID, Feasible: ok}
		if ok {
			w.Start = start
			if grid, err = grid.ScheduleItem(work, start); err != nil {
				return fmt.Errorf("schedule %s: %w", it.ID, err)
			}
		}
		report.Windows = append(report.Windows, w)
	}

	report.Validation = constraint.NewRegistry().Validate(constraint.Scenario{
		Horizon: sf.Horizon,
		Teams:   teams,
		Items:   items,
	})
	return printJSON(cmd, report)
}
