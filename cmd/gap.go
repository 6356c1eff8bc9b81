package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wiltonn/productfolio-sub002/core/gap"
)

var (
	gapScenario  string
	gapBreakdown bool
	gapSkipCache bool
)

var gapCmd = &cobra.Command{
	Use:   "gap",
	Short: "Run a gap analysis for a scenario",
	RunE:  runGap,
}

func init() {
	gapCmd.Flags().StringVarP(&gapScenario, "scenario", "s", "", "scenario id")
	gapCmd.Flags().BoolVar(&gapBreakdown, "breakdown", false, "include per-initiative demand contributions")
	gapCmd.Flags().BoolVar(&gapSkipCache, "skip-cache", false, "bypass the result cache")
	_ = gapCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(gapCmd)
}

func runGap(cmd *cobra.Command, args []string) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Calculator.Calculate(context.Background(), gapScenario, gap.Options{
		SkipCache:        gapSkipCache,
		IncludeBreakdown: gapBreakdown,
	})
	if err != nil {
		return fmt.Errorf("gap analysis: %w", err)
	}
	return printJSON(cmd, res)
}
