package fixture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiltonn/productfolio-sub002/core/forecast"
	"github.com/wiltonn/productfolio-sub002/core/gap"
	"github.com/wiltonn/productfolio-sub002/core/model"
)

const planYAML = `
scenarios:
  - id: sc-1
    name: FY26 draft
    planning_mode: tokens
    periods:
      - id: q1
        label: Q1
        type: quarter
      - id: q2
        label: Q2
        type: quarter
    assumptions:
      allocation_cap_percentage: 100
      token_hours_ratio: 2
    priority_ranking: [checkout]
initiatives:
  - id: checkout
    name: Checkout revamp
    scenario_id: sc-1
    status: RESOURCING
    scope_items:
      - id: checkout-api
        skill_demand:
          backend: 250
        distribution:
          q1: 1
        estimate_p50: 250
        estimate_p90: 400
employees:
  - id: alice
    name: Alice
    hours_per_week: 40
    skills:
      - name: backend
        proficiency: 4
allocations:
  - id: a1
    scenario_id: sc-1
    employee_id: alice
    initiative_id: checkout
    percentage: 100
    periods:
      - period_id: q1
        overlap_ratio: 1
transitions:
  - initiative_id: checkout
    to_status: RESOURCING
    at: 2026-01-05T00:00:00Z
`

func writePlan(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	store, err := Load(writePlan(t, "plan.yaml", planYAML))
	require.NoError(t, err)

	ctx := context.Background()
	sc, err := store.Scenario(ctx, "sc-1")
	require.NoError(t, err)
	assert.Equal(t, model.PlanningModeTokens, sc.PlanningMode)
	assert.Equal(t, 2.0, sc.Assumptions.TokenHoursRatio)
	assert.Len(t, sc.Periods, 2)

	inits, err := store.Initiatives(ctx, "sc-1")
	require.NoError(t, err)
	require.Len(t, inits, 1)
	item := inits[0].ScopeItems[0]
	assert.True(t, item.HasEstimates())
	assert.Equal(t, 250.0, item.SkillDemand["backend"])

	emps, err := store.Employees(ctx, "sc-1")
	require.NoError(t, err)
	require.Len(t, emps, 1)
	assert.True(t, emps[0].HasSkill("backend"))

	allocs, err := store.Allocations(ctx, "sc-1")
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, 1.0, allocs[0].Overlap("q1"))

	trs, err := store.InitiativeTransitions(ctx, "checkout")
	require.NoError(t, err)
	require.Len(t, trs, 1)
	assert.Equal(t, model.StatusResourcing, trs[0].ToStatus)
}

func TestLoadUnknownScenario(t *testing.T) {
	store, err := Load(writePlan(t, "plan.yaml", planYAML))
	require.NoError(t, err)
	_, err = store.Scenario(context.Background(), "ghost")
	assert.True(t, errors.Is(err, gap.ErrScenarioNotFound))
	_, err = store.Initiative(context.Background(), "ghost")
	assert.True(t, errors.Is(err, forecast.ErrInitiativeNotFound))
}

func TestLoadJSON(t *testing.T) {
	const planJSON = `{
  "scenarios": [{"id": "sc-2", "name": "json plan", "planning_mode": "hours",
    "periods": [{"id": "q1", "label": "Q1", "type": "quarter"}]}]
}`
	store, err := Load(writePlan(t, "plan.json", planJSON))
	require.NoError(t, err)
	sc, err := store.Scenario(context.Background(), "sc-2")
	require.NoError(t, err)
	assert.Equal(t, model.PlanningModeHours, sc.PlanningMode)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load(writePlan(t, "plan.toml", "x = 1"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidOverlap(t *testing.T) {
	const bad = `
scenarios:
  - id: sc-1
    name: bad
    planning_mode: hours
    periods: [{id: q1, label: Q1, type: quarter}]
allocations:
  - id: a1
    scenario_id: sc-1
    employee_id: alice
    percentage: 100
    periods: [{period_id: q1, overlap_ratio: 1.5}]
`
	_, err := Load(writePlan(t, "plan.yaml", bad))
	assert.Error(t, err)
}
