package decision

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/application/services/metrics"
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

// vote builds an issue-free critique scored on proposal; rejecting votes carry
// a critical, non-blocking issue.
func vote(agent entities.AgentName, approve bool, proposal *entities.CommitteeProposal, cctx entities.CommitteeContext) entities.CommitteeCritique {
	c := entities.CommitteeCritique{
		Agent:      agent,
		ProposalID: proposal.ID,
		Metrics:    metrics.Evaluate(proposal, cctx.Policy),
		Approve:    approve,
	}
	if !approve {
		c.Issues = []entities.CommitteeIssue{{
			ID: string(agent) + "-issue-1", Agent: agent, Code: entities.IssueHistoryDeviation,
			Severity: entities.SeverityCritical,
		}}
	}
	return c
}

func newEngine() *Engine {
	return NewEngine(util.NewIDGenerator(), nil, logging.Nop())
}

func TestDecide_HardConstraintSupremacy(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeTriple)
	inputs := testhelpers.BuildBanquetScenario()
	inputs.Demand[0].ShelfLifeHours = testhelpers.Float(12)
	proposal := propose(t, inputs, cctx)

	out, err := newEngine().Decide(Input{
		Proposal: proposal,
		Critiques: []entities.CommitteeCritique{
			vote(entities.AgentPlanner, true, proposal, cctx),
			vote(entities.AgentRisk, true, proposal, cctx),
			vote(entities.AgentHistorian, true, proposal, cctx),
		},
		Context: cctx,
	})
	require.NoError(t, err)

	assert.True(t, out.Decision.Tally.Met, "unanimous approval")
	assert.Equal(t, entities.DecisionBlocked, out.Decision.Status)
	assert.False(t, out.Decision.HardConstraints.Passed)
	require.Len(t, out.Decision.HardConstraints.Violations, 1)
	assert.Equal(t, entities.RuleShelfLife, out.Decision.HardConstraints.Violations[0].Rule)
	assert.Equal(t, "salmon", out.Decision.HardConstraints.Violations[0].TargetID)
}

func TestDecide_QuorumMath(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeTriple)
	proposal := propose(t, testhelpers.BuildBanquetScenario(), cctx)

	tests := []struct {
		name  string
		votes [3]bool
		want  entities.DecisionStatus
	}{
		{"three of three", [3]bool{true, true, true}, entities.DecisionApproved},
		{"two of three", [3]bool{true, true, false}, entities.DecisionApproved},
		{"one of three", [3]bool{true, false, false}, entities.DecisionNeedsHumanReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newEngine().Decide(Input{
				Proposal: proposal,
				Critiques: []entities.CommitteeCritique{
					vote(entities.AgentPlanner, tt.votes[0], proposal, cctx),
					vote(entities.AgentRisk, tt.votes[1], proposal, cctx),
					vote(entities.AgentHistorian, tt.votes[2], proposal, cctx),
				},
				Context: cctx,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.Decision.Status, out.Decision.Reasons)
			assert.True(t, out.Decision.HardConstraints.Passed)
		})
	}
}

func TestTally(t *testing.T) {
	proposal := &entities.CommitteeProposal{ID: "p"}
	cctx := testhelpers.Context(entities.ModeDual)
	plannerVote := vote(entities.AgentPlanner, true, proposal, cctx)
	risk := vote(entities.AgentRisk, false, proposal, cctx)
	historian := vote(entities.AgentHistorian, true, proposal, cctx)

	t.Run("dual ignores historian", func(t *testing.T) {
		tally := Tally(entities.ModeDual, []entities.CommitteeCritique{plannerVote, risk, historian}, 0.67)
		assert.Equal(t, []entities.AgentName{entities.AgentPlanner, entities.AgentRisk}, tally.Voters)
		assert.Equal(t, 0.5, tally.Ratio)
		assert.False(t, tally.Met)
	})

	t.Run("single counts the planner only", func(t *testing.T) {
		tally := Tally(entities.ModeSingle, []entities.CommitteeCritique{plannerVote, risk}, 0.67)
		assert.Equal(t, 1.0, tally.Ratio)
		assert.True(t, tally.Met)
	})

	t.Run("abstaining historian is not a voter", func(t *testing.T) {
		tally := Tally(entities.ModeTriple, []entities.CommitteeCritique{plannerVote, historian}, 0.67)
		assert.Len(t, tally.Voters, 2)
		assert.True(t, tally.Met)
	})

	t.Run("no voters never meets quorum", func(t *testing.T) {
		tally := Tally(entities.ModeTriple, nil, 0.67)
		assert.False(t, tally.Met)
	})
}

// underOrdered is the carrot plan cut back to 40 kg, leaving 2.5 kg uncovered.
func underOrdered(t *testing.T, cctx entities.CommitteeContext) *entities.CommitteeProposal {
	t.Helper()
	full := propose(t, testhelpers.BuildCarrotScenario(), cctx)
	patch := entities.NewPatch("cut", entities.CommitteeIssue{ID: "cut"}, "cut back",
		entities.AdjustDemandRecommendation{ItemID: "carrots", PlannedPurchaseQty: testhelpers.Qty("40")})
	cut, outcomes := services.NewPatchApplier(util.NewIDGenerator()).Apply(full, []entities.CommitteePatch{patch}, cctx.GeneratedAt)
	require.True(t, outcomes[0].Applied)
	return cut
}

func bumpCritique(proposal *entities.CommitteeProposal, cctx entities.CommitteeContext) entities.CommitteeCritique {
	issue := entities.CommitteeIssue{
		ID: "risk-issue-1", Agent: entities.AgentRisk, Code: entities.IssueElevatedRisk,
		Severity: entities.SeverityWarning, AffectedIDs: []string{"carrots"},
	}
	c := vote(entities.AgentRisk, true, proposal, cctx)
	c.Issues = []entities.CommitteeIssue{issue}
	c.Patches = []entities.CommitteePatch{entities.NewPatch("risk-patch-1", issue, "over-order",
		entities.AdjustDemandRecommendation{ItemID: "carrots", PlannedPurchaseQty: testhelpers.Qty("45")})}
	return c
}

func TestDecide_AutoRemediation(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	cctx.Policy.Escalation.SpendDeltaPct = 0.2
	proposal := underOrdered(t, cctx)

	out, err := newEngine().Decide(Input{
		Proposal: proposal,
		Critiques: []entities.CommitteeCritique{
			vote(entities.AgentPlanner, true, proposal, cctx),
			bumpCritique(proposal, cctx),
		},
		Context: cctx,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.DecisionApproved, out.Decision.Status, out.Decision.Reasons)
	assert.Equal(t, []string{"risk-patch-1"}, out.Decision.AppliedPatches)
	final := out.Decision.FinalProposal
	assert.NotSame(t, proposal, final)
	assert.Equal(t, proposal.ID, final.ParentID)
	assert.Equal(t, "45", final.Items[0].PlannedPurchaseQty.String())
	assert.Equal(t, "40", proposal.Items[0].PlannedPurchaseQty.String(), "reviewed proposal untouched")
	assert.Empty(t, services.PurchaseSufficiency(final))
	assert.InDelta(t, 0.125, out.Decision.SpendDeltaPct, 1e-9)
}

func TestDecide_SpendEscalation(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	proposal := underOrdered(t, cctx)

	out, err := newEngine().Decide(Input{
		Proposal: proposal,
		Critiques: []entities.CommitteeCritique{
			vote(entities.AgentPlanner, true, proposal, cctx),
			bumpCritique(proposal, cctx),
		},
		Context: cctx,
	})
	require.NoError(t, err)

	// 80.00 grows to 90.00, above the default 10% limit
	assert.Equal(t, entities.DecisionNeedsHumanReview, out.Decision.Status)
	assert.True(t, out.Decision.Tally.Met)
	assert.InDelta(t, 0.125, out.Decision.SpendDeltaPct, 1e-9)
}

func TestDecide_NoAutoRemediationInSingleMode(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeSingle)
	proposal := underOrdered(t, cctx)

	out, err := newEngine().Decide(Input{
		Proposal:  proposal,
		Critiques: []entities.CommitteeCritique{vote(entities.AgentPlanner, true, proposal, cctx), bumpCritique(proposal, cctx)},
		Context:   cctx,
	})
	require.NoError(t, err)

	assert.Same(t, proposal, out.Decision.FinalProposal)
	assert.Empty(t, out.Decision.AppliedPatches)
	assert.Equal(t, entities.DecisionApproved, out.Decision.Status)
}

func TestDecide_BlockingIssueEscalates(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	proposal := propose(t, testhelpers.BuildCarrotScenario(), cctx)
	risk := vote(entities.AgentRisk, false, proposal, cctx)
	risk.Issues = []entities.CommitteeIssue{{
		ID: "risk-issue-1", Agent: entities.AgentRisk, Code: entities.IssuePurchaseMismatch,
		Severity: entities.SeverityCritical, Blocking: true,
	}}
	risk.Patches = []entities.CommitteePatch{entities.NewPatch("risk-patch-1", risk.Issues[0], "never applied",
		entities.AdjustDemandRecommendation{ItemID: "carrots", PlannedPurchaseQty: testhelpers.Qty("100")})}

	out, err := newEngine().Decide(Input{
		Proposal:  proposal,
		Critiques: []entities.CommitteeCritique{vote(entities.AgentPlanner, true, proposal, cctx), risk},
		Context:   cctx,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.DecisionNeedsHumanReview, out.Decision.Status)
	assert.True(t, out.Decision.HardConstraints.Passed)
	assert.Empty(t, out.Decision.AppliedPatches, "blocking patches are never auto-applied")
}

func TestDecide_Disagreement(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	proposal := propose(t, testhelpers.BuildCarrotScenario(), cctx)
	plannerVote := vote(entities.AgentPlanner, true, proposal, cctx)
	risk := vote(entities.AgentRisk, true, proposal, cctx)
	risk.Metrics.Score = plannerVote.Metrics.Score + 0.3

	out, err := newEngine().Decide(Input{
		Proposal:  proposal,
		Critiques: []entities.CommitteeCritique{plannerVote, risk},
		Context:   cctx,
	})
	require.NoError(t, err)

	assert.Equal(t, entities.DecisionNeedsHumanReview, out.Decision.Status)
	assert.InDelta(t, 0.3, out.Decision.Disagreement, 1e-9)
}

func TestDecide_NilProposal(t *testing.T) {
	_, err := newEngine().Decide(Input{Context: testhelpers.Context(entities.ModeSingle)})
	require.Error(t, err)
}

func TestRemediationPatches_LargestPurchaseWins(t *testing.T) {
	issue := func(id string, blocking bool) entities.CommitteeIssue {
		return entities.CommitteeIssue{ID: id, Blocking: blocking}
	}
	bump := func(qty string) entities.AdjustDemandRecommendation {
		return entities.AdjustDemandRecommendation{ItemID: "carrots", PlannedPurchaseQty: testhelpers.Qty(qty)}
	}
	risk := entities.CommitteeCritique{
		Agent:  entities.AgentRisk,
		Issues: []entities.CommitteeIssue{issue("r1", false), issue("r2", true)},
		Patches: []entities.CommitteePatch{
			entities.NewPatch("p1", issue("r1", false), "", bump("45")),
			entities.NewPatch("p2", issue("r2", true), "", bump("90")),
		},
	}
	historian := entities.CommitteeCritique{
		Agent:  entities.AgentHistorian,
		Issues: []entities.CommitteeIssue{issue("h1", false)},
		Patches: []entities.CommitteePatch{
			entities.NewPatch("p3", issue("h1", false), "", bump("70")),
			entities.NewPatch("p4", issue("h1", false), "", entities.AddNote{Message: "check history"}),
		},
	}

	patches := RemediationPatches([]entities.CommitteeCritique{risk, historian})

	require.Len(t, patches, 2)
	assert.Equal(t, "p3", patches[0].ID)
	assert.Equal(t, "p4", patches[1].ID)
}

func TestSpendDelta(t *testing.T) {
	assert.InDelta(t, 0.125, SpendDelta(testhelpers.Qty("80"), testhelpers.Qty("90")), 1e-9)
	assert.Equal(t, 0.0, SpendDelta(testhelpers.Qty("0"), testhelpers.Qty("0")))
	assert.Equal(t, 1.0, SpendDelta(testhelpers.Qty("0"), testhelpers.Qty("5")))
}

func TestDecide_T24LockBlocks(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeTriple)
	proposal := propose(t, testhelpers.BuildBanquetScenario(), cctx)
	require.NotEmpty(t, proposal.PrepTasks)
	task := proposal.PrepTasks[0]

	// The locked version started an hour later than the planner now wants.
	locked := task
	locked.Start = task.Start.Add(time.Hour)
	locked.End = task.End.Add(time.Hour)

	out, err := newEngine().Decide(Input{
		Proposal: proposal,
		Critiques: []entities.CommitteeCritique{
			vote(entities.AgentPlanner, true, proposal, cctx),
			vote(entities.AgentRisk, true, proposal, cctx),
			vote(entities.AgentHistorian, true, proposal, cctx),
		},
		Context:         cctx,
		LockedPrepTasks: []entities.PrepTask{locked},
	})
	require.NoError(t, err)

	assert.True(t, out.Decision.Tally.Met, "unanimous approval")
	assert.Equal(t, entities.DecisionBlocked, out.Decision.Status)
	require.Len(t, out.Decision.HardConstraints.Violations, 1)
	assert.Equal(t, entities.RuleT24Lock, out.Decision.HardConstraints.Violations[0].Rule)
	assert.Equal(t, task.ID, out.Decision.HardConstraints.Violations[0].TargetID)
}

func TestValidateHardConstraints_T24Lock(t *testing.T) {
	cctx := testhelpers.Context(entities.ModeDual)
	proposal := propose(t, testhelpers.BuildBanquetScenario(), cctx)
	require.NotEmpty(t, proposal.PrepTasks)
	task := proposal.PrepTasks[0]

	moved := task
	moved.Start = task.Start.Add(-2 * time.Hour)
	moved.End = task.End.Add(-2 * time.Hour)

	t.Run("matching locked version passes", func(t *testing.T) {
		result := ValidateHardConstraints(proposal, cctx, []entities.PrepTask{task})
		assert.True(t, result.Passed)
	})

	t.Run("changed task inside the lock window fails", func(t *testing.T) {
		result := ValidateHardConstraints(proposal, cctx, []entities.PrepTask{moved})
		assert.False(t, result.Passed)
		require.Len(t, result.Violations, 1)
		assert.Equal(t, entities.RuleT24Lock, result.Violations[0].Rule)
	})

	t.Run("lock not enforced", func(t *testing.T) {
		relaxed := cctx
		relaxed.Policy.Constraints.EnforceT24Lock = false
		result := ValidateHardConstraints(proposal, relaxed, []entities.PrepTask{moved})
		assert.True(t, result.Passed)
	})

	t.Run("task outside the lock window", func(t *testing.T) {
		early := cctx
		early.Policy.Constraints.T24LockHours = 1
		result := ValidateHardConstraints(proposal, early, []entities.PrepTask{moved})
		assert.True(t, result.Passed, "prep starts 6h before service, before a 1h lock")
	})
}
