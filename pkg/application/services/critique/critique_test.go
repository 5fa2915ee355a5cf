package critique

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/application/services/planner"
	testhelpers "github.com/vsinha/prepcommittee/pkg/application/services/testing"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
	"github.com/vsinha/prepcommittee/pkg/util"
)

func propose(t *testing.T, inputs *dto.CommitteeInputs, cctx entities.CommitteeContext) *entities.CommitteeProposal {
	t.Helper()
	proposal, err := planner.New(util.NewIDGenerator(), logging.Nop()).Propose(context.Background(), inputs, cctx)
	require.NoError(t, err)
	return proposal
}

func issuesWithCode(c *entities.CommitteeCritique, code entities.IssueCode) []entities.CommitteeIssue {
	var out []entities.CommitteeIssue
	for _, issue := range c.Issues {
		if issue.Code == code {
			out = append(out, issue)
		}
	}
	return out
}

func patchesFor(c *entities.CommitteeCritique, issueID string) []entities.CommitteePatch {
	var out []entities.CommitteePatch
	for _, patch := range c.Patches {
		if patch.IssueID == issueID {
			out = append(out, patch)
		}
	}
	return out
}

func TestRiskAgent_BanquetApproves(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	inputs := testhelpers.BuildBanquetScenario()
	proposal := propose(t, inputs, cctx)

	critique, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, cctx, inputs)
	require.NoError(t, err)

	assert.True(t, critique.Approve)
	assert.False(t, critique.HasBlocking())
	assert.Equal(t, entities.AgentRisk, critique.Agent)
	assert.Equal(t, proposal.ID, critique.ProposalID)
	// 85.50 waste against 878.00 spend is above the 5% target
	waste := issuesWithCode(critique, entities.IssueExcessWaste)
	require.Len(t, waste, 1)
	assert.Equal(t, entities.SeverityInfo, waste[0].Severity)
}

func TestRiskAgent_UnsourcedItemBlocks(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	inputs := testhelpers.BuildCarrotScenario()
	inputs.Catalog = nil
	proposal := propose(t, inputs, cctx)

	critique, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, cctx, inputs)
	require.NoError(t, err)

	assert.False(t, critique.Approve)
	risk := issuesWithCode(critique, entities.IssueUnderOrderRisk)
	require.Len(t, risk, 1)
	assert.True(t, risk[0].Blocking)
	assert.Equal(t, entities.SeverityCritical, risk[0].Severity)
	assert.Empty(t, patchesFor(critique, risk[0].ID), "nothing to buy from")

	unsourced := issuesWithCode(critique, entities.IssueNoSupplier)
	require.Len(t, unsourced, 1)
	assert.False(t, unsourced[0].Blocking)
	require.Len(t, patchesFor(critique, unsourced[0].ID), 1)
}

func TestRiskAgent_ElevatedRiskProposesBump(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	proposal := propose(t, testhelpers.BuildCarrotScenario(), cctx)
	item := proposal.Items[0]
	item.PlannedPurchaseQty = testhelpers.Qty("40")
	proposal.Items[0] = services.RecomputePlanItem(item)
	// residual 2.5 lifts risk to 0.08 + 2.5/51
	require.InDelta(t, 0.129, proposal.Items[0].AdjustedRisk, 1e-3)

	critique, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, cctx, nil)
	require.NoError(t, err)

	elevated := issuesWithCode(critique, entities.IssueElevatedRisk)
	require.Len(t, elevated, 1)
	assert.False(t, elevated[0].Blocking)
	patches := patchesFor(critique, elevated[0].ID)
	require.Len(t, patches, 1)
	op, ok := patches[0].Op.(entities.AdjustDemandRecommendation)
	require.True(t, ok)
	assert.Equal(t, "45", op.PlannedPurchaseQty.String())
	assert.True(t, critique.Approve)
	assert.Equal(t, "90", critique.Metrics.TotalSpend.String(), "metrics reflect the agent's own patches")
}

func TestRiskAgent_ShelfLifeFloor(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	inputs := testhelpers.BuildBanquetScenario()
	inputs.Demand[0].ShelfLifeHours = testhelpers.Float(12)
	proposal := propose(t, inputs, cctx)

	critique, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, cctx, inputs)
	require.NoError(t, err)

	shelf := issuesWithCode(critique, entities.IssueShelfLife)
	require.Len(t, shelf, 1)
	assert.True(t, shelf[0].Blocking)
	assert.Equal(t, []string{"salmon"}, shelf[0].AffectedIDs)
	assert.False(t, critique.Approve)

	// Arrives a day before service with 12h of life left
	assert.Len(t, issuesWithCode(critique, entities.IssueSpoilsBeforeNeed), 1)

	t.Run("floor not enforced", func(t *testing.T) {
		relaxed := cctx
		relaxed.Policy.Constraints.EnforceShelfLife = false
		critique, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, relaxed, inputs)
		require.NoError(t, err)
		assert.Empty(t, issuesWithCode(critique, entities.IssueShelfLife))
	})
}

func TestRiskAgent_T24Lock(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	inputs := testhelpers.BuildBanquetScenario()
	proposal := propose(t, inputs, cctx)
	salmonTask := proposal.PrepTasks[0]
	require.Equal(t, "salmon", salmonTask.DemandItemID)

	t.Run("unchanged locked task passes", func(t *testing.T) {
		inputs.LockedPrepTasks = []entities.PrepTask{salmonTask}
		critique, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, cctx, inputs)
		require.NoError(t, err)
		assert.Empty(t, issuesWithCode(critique, entities.IssueT24Lock))
	})

	t.Run("changed locked task blocks", func(t *testing.T) {
		locked := salmonTask
		locked.Start = salmonTask.Start.Add(-2 * time.Hour)
		inputs.LockedPrepTasks = []entities.PrepTask{locked}

		critique, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, cctx, inputs)
		require.NoError(t, err)

		lock := issuesWithCode(critique, entities.IssueT24Lock)
		require.Len(t, lock, 1)
		assert.True(t, lock[0].Blocking)
		patches := patchesFor(critique, lock[0].ID)
		require.Len(t, patches, 1)
		op, ok := patches[0].Op.(entities.ReschedulePrepTask)
		require.True(t, ok)
		assert.Equal(t, locked.Start, op.Start)
		assert.False(t, critique.Approve)
	})
}

func TestRiskAgent_OvertimeSuggestsEarlierStart(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	inputs := testhelpers.BuildCarrotScenario()
	inputs.Demand[0].PrepMinutesPerUnit = 9 // 7.5h of labour
	proposal := propose(t, inputs, cctx)

	critique, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, cctx, inputs)
	require.NoError(t, err)

	overtime := issuesWithCode(critique, entities.IssueOvertime)
	require.Len(t, overtime, 1)
	assert.False(t, overtime[0].Blocking)
	patches := patchesFor(critique, overtime[0].ID)
	require.Len(t, patches, 1)
	op := patches[0].Op.(entities.ReschedulePrepTask)
	task := proposal.PrepTasks[0]
	assert.Equal(t, task.Start.Add(-4*time.Hour), op.Start)
	assert.Equal(t, task.End, op.End)
	assert.Greater(t, critique.Metrics.OvertimeHours, 0.0)
}

func TestRiskAgent_CartCapacityAndGateRisk(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	inputs := testhelpers.BuildBanquetScenario()
	inputs.CartTemplates[0].Capacity = 1
	risky := 0.15
	inputs.Demand[2].UnderOrderRisk = &risky
	proposal := propose(t, inputs, cctx)

	critique, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, cctx, inputs)
	require.NoError(t, err)

	assert.Len(t, issuesWithCode(critique, entities.IssueCartCapacity), 1)
	gates := issuesWithCode(critique, entities.IssueQualityRisk)
	require.Len(t, gates, 1, "one issue per cart, at its worst gate")
	assert.Contains(t, gates[0].Message, string(entities.StageDispatch))
	assert.True(t, critique.Approve)
}

func TestRiskAgent_DoesNotMutateProposal(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	inputs := testhelpers.BuildCarrotScenario()
	inputs.Catalog[0].PackSize = testhelpers.Qty("50")
	inputs.Demand[0].PrepMinutesPerUnit = 9
	proposal := propose(t, inputs, cctx)
	before := proposal.Clone()

	_, err := NewRiskAgent(nil, logging.Nop()).Critique(context.Background(), proposal, cctx, inputs)
	require.NoError(t, err)

	assert.Equal(t, before, proposal)
}

func TestHistorianAgent(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeTriple)
	agent := NewHistorianAgent(nil, logging.Nop())

	t.Run("abstains without history", func(t *testing.T) {
		inputs := testhelpers.BuildCarrotScenario()
		proposal := propose(t, inputs, cctx)
		critique, err := agent.Critique(context.Background(), proposal, cctx, inputs)
		require.NoError(t, err)
		assert.Nil(t, critique)
	})

	t.Run("abstains when no demanded item has history", func(t *testing.T) {
		inputs := testhelpers.BuildCarrotScenario()
		inputs.History = []entities.HistoricalDemandSample{
			{ItemID: "leeks", ServiceDate: testhelpers.ServiceDate.AddDate(0, 0, -7), FulfilledQty: testhelpers.Qty("12")},
		}
		proposal := propose(t, inputs, cctx)
		critique, err := agent.Critique(context.Background(), proposal, cctx, inputs)
		require.NoError(t, err)
		assert.Nil(t, critique)
	})

	t.Run("banquet within norm", func(t *testing.T) {
		inputs := testhelpers.BuildBanquetScenario()
		proposal := propose(t, inputs, cctx)
		critique, err := agent.Critique(context.Background(), proposal, cctx, inputs)
		require.NoError(t, err)
		require.NotNil(t, critique)
		assert.Empty(t, critique.Issues)
		assert.True(t, critique.Approve)
	})

	t.Run("under-ordering proposes reconciliation", func(t *testing.T) {
		inputs := testhelpers.BuildCarrotScenario()
		inputs.History = []entities.HistoricalDemandSample{
			{ItemID: "carrots", FulfilledQty: testhelpers.Qty("75")},
			{ItemID: "carrots", FulfilledQty: testhelpers.Qty("85")},
		}
		proposal := propose(t, inputs, cctx)

		critique, err := agent.Critique(context.Background(), proposal, cctx, inputs)
		require.NoError(t, err)
		require.Len(t, critique.Issues, 1)
		issue := critique.Issues[0]
		assert.Equal(t, entities.IssueHistoryDeviation, issue.Code)
		assert.Equal(t, entities.SeverityWarning, issue.Severity)
		assert.False(t, issue.Blocking)

		require.Len(t, critique.Patches, 1)
		op, ok := critique.Patches[0].Op.(entities.AdjustDemandRecommendation)
		require.True(t, ok)
		assert.Equal(t, "70", op.PlannedPurchaseQty.String())
		assert.True(t, critique.Approve)
	})

	t.Run("far over history is critical", func(t *testing.T) {
		inputs := testhelpers.BuildCarrotScenario()
		inputs.History = []entities.HistoricalDemandSample{
			{ItemID: "carrots", FulfilledQty: testhelpers.Qty("30"), WasteQty: testhelpers.Qty("4")},
		}
		proposal := propose(t, inputs, cctx)

		critique, err := agent.Critique(context.Background(), proposal, cctx, inputs)
		require.NoError(t, err)
		require.Len(t, critique.Issues, 1)
		assert.Equal(t, entities.SeverityCritical, critique.Issues[0].Severity)
		assert.False(t, critique.Issues[0].Blocking)
		assert.Equal(t, entities.PatchAddNote, critique.Patches[0].Kind)
		assert.False(t, critique.Approve)
	})
}

func TestNorm(t *testing.T) {
	_, ok := Norm(nil)
	assert.False(t, ok)

	norm, ok := Norm([]entities.HistoricalDemandSample{
		{FulfilledQty: testhelpers.Qty("10"), WasteQty: testhelpers.Qty("1")},
		{FulfilledQty: testhelpers.Qty("20"), WasteQty: testhelpers.Qty("3")},
	})
	require.True(t, ok)
	assert.Equal(t, 2, norm.Samples)
	assert.Equal(t, "15", norm.MeanFulfilled.String())
	assert.Equal(t, "2", norm.MeanWaste.String())
}
