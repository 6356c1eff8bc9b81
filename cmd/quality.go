package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wiltonn/productfolio-sub002/core/forecast"
)

var (
	qScenario    string
	qInitiatives []string
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Score how forecastable the selected initiatives are",
	RunE:  runQuality,
}

func init() {
	qualityCmd.Flags().StringVarP(&qScenario, "scenario", "s", "", "scenario id")
	qualityCmd.Flags().StringSliceVarP(&qInitiatives, "initiatives", "i", nil, "initiative ids")
	rootCmd.AddCommand(qualityCmd)
}

func runQuality(cmd *cobra.Command, args []string) error {
	svc, _, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Engine.AssessQuality(context.Background(), forecast.QualityRequest{
		ScenarioID:    qScenario,
		InitiativeIDs: qInitiatives,
	})
	if err != nil {
		return fmt.Errorf("quality assessment: %w", err)
	}
	return printJSON(cmd, res)
}
