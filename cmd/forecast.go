package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wiltonn/productfolio-sub002/config"
	"github.com/wiltonn/productfolio-sub002/core/forecast"
)

var (
	fcScenario    string
	fcInitiatives []string
	fcSimulations int
	fcLevels      []float64
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Probabilistic completion forecasts",
}

var forecastScopeCmd = &cobra.Command{
	Use:   "scope",
	Short: "Monte Carlo completion forecast from scope estimates",
	RunE:  runForecastScope,
}

var forecastEmpiricalCmd = &cobra.Command{
	Use:   "empirical",
	Short: "Remaining-days forecast from historical cycle times",
	RunE:  runForecastEmpirical,
}

func init() {
	forecastCmd.PersistentFlags().StringVarP(&fcScenario, "scenario", "s", "", "scenario id")
	forecastCmd.PersistentFlags().StringSliceVarP(&fcInitiatives, "initiatives", "i", nil, "initiative ids")
	forecastCmd.PersistentFlags().IntVarP(&fcSimulations, "simulations", "n", 0, "simulation count (default from config)")
	forecastCmd.PersistentFlags().Float64SliceVar(&fcLevels, "levels", nil, "confidence levels (default from config)")
	_ = forecastCmd.MarkPersistentFlagRequired("scenario")
	_ = forecastCmd.MarkPersistentFlagRequired("initiatives")
	forecastCmd.AddCommand(forecastScopeCmd)
	forecastCmd.AddCommand(forecastEmpiricalCmd)
	rootCmd.AddCommand(forecastCmd)
}

func runForecastScope(cmd *cobra.Command, args []string) error {
	svc, cfg, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Engine.RunScopeBased(context.Background(), forecast.ScopeRequest{
		ScenarioID:       fcScenario,
		InitiativeIDs:    fcInitiatives,
		Simulations:      simulations(cfg),
		ConfidenceLevels: levels(cfg),
	})
	if err != nil {
		return fmt.Errorf("scope forecast: %w", err)
	}
	return printJSON(cmd, res)
}

func runForecastEmpirical(cmd *cobra.Command, args []string) error {
	svc, cfg, err := newService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Engine.RunEmpirical(context.Background(), forecast.EmpiricalRequest{
		ScenarioID:       fcScenario,
		InitiativeIDs:    fcInitiatives,
		Simulations:      simulations(cfg),
		ConfidenceLevels: levels(cfg),
	})
	if err != nil {
		return fmt.Errorf("empirical forecast: %w", err)
	}
	return printJSON(cmd, res)
}

// simulations resolves the iteration count: flag first, then config default.
func simulations(cfg *config.Config) int {
	if fcSimulations > 0 {
		return fcSimulations
	}
	return cfg.Forecast.Simulations
}

func levels(cfg *config.Config) []float64 {
	if len(fcLevels) > 0 {
		return fcLevels
	}
	return cfg.Forecast.ConfidenceLevels
}
