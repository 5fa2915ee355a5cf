// Package critique holds the committee's reviewing agents. Agents read a
// proposal and report issues, proposed patches, and a vote; they never
// modify the proposal they review.
package critique

import (
	"context"
	"fmt"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/application/services/metrics"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// Agent reviews a proposal. A nil critique with a nil error means the agent
// had nothing to review and abstains.
type Agent interface {
	Name() entities.AgentName
	Critique(
		ctx context.Context,
		proposal *entities.CommitteeProposal,
		cctx entities.CommitteeContext,
		inputs *dto.CommitteeInputs,
	) (*entities.CommitteeCritique, error)
}

// builder accumulates one agent's findings for one proposal
type builder struct {
	agent    entities.AgentName
	ids      services.IDSource
	critique entities.CommitteeCritique
}

func newBuilder(agent entities.AgentName, ids services.IDSource, proposalID string) *builder {
	return &builder{
		agent: agent,
		ids:   ids,
		critique: entities.CommitteeCritique{
			Agent:      agent,
			ProposalID: proposalID,
			Issues:     []entities.CommitteeIssue{},
			Patches:    []entities.CommitteePatch{},
		},
	}
}

func (b *builder) issue(
	code entities.IssueCode,
	severity entities.Severity,
	blocking bool,
	msg string,
	affected ...string,
) entities.CommitteeIssue {
	issue := entities.CommitteeIssue{
		ID:          b.ids.UniqueID(string(b.agent) + "-issue"),
		Agent:       b.agent,
		Code:        code,
		Severity:    severity,
		Message:     msg,
		AffectedIDs: affected,
		Blocking:    blocking,
	}
	b.critique.Issues = append(b.critique.Issues, issue)
	return issue
}

func (b *builder) patch(issue entities.CommitteeIssue, description string, op entities.PatchOp) {
	b.critique.Patches = append(b.critique.Patches,
		entities.NewPatch(b.ids.UniqueID(string(b.agent)+"-patch"), issue, description, op))
}

// finish scores the proposal as it would look with this agent's own patches
// applied and casts the vote.
func (b *builder) finish(proposal *entities.CommitteeProposal, cctx entities.CommitteeContext) *entities.CommitteeCritique {
	patched, _ := services.NewPatchApplier(b.ids).Apply(proposal, b.critique.Patches, cctx.GeneratedAt)
	b.critique.Metrics = metrics.Evaluate(patched, cctx.Policy)
	b.critique.Approve = entities.Vote(b.critique.Issues)
	return &b.critique
}

// coverTarget is the lot-sized purchase that lifts item to its target. It
// reports false when the item cannot buy more than it already plans to.
func coverTarget(item entities.DemandPlanItem) (entities.AdjustDemandRecommendation, bool) {
	if !item.HasSupplier() {
		return entities.AdjustDemandRecommendation{}, false
	}
	needed := util.DecimalMax(item.TargetQty.Sub(item.EffectiveOnHand), item.PlannedPurchaseQty)
	sized := services.ApplyLotSizing(needed, item.PackSize, item.MinimumOrderQty)
	if !sized.GreaterThan(item.PlannedPurchaseQty) {
		return entities.AdjustDemandRecommendation{}, false
	}
	return entities.AdjustDemandRecommendation{ItemID: item.ID, PlannedPurchaseQty: sized}, true
}

func shortfallMessage(item entities.DemandPlanItem) string {
	return fmt.Sprintf("%s stockout risk %.2f with %s %s uncovered", item.ID, item.AdjustedRisk, item.ResidualShortfall, item.Unit)
}
