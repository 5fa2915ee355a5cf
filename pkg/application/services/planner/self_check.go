package planner

import (
	"fmt"

	"github.com/vsinha/prepcommittee/pkg/application/services/metrics"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
)

// SelfCheck is the planner's own critique of a proposal and carries the
// planner's vote. It flags broken purchase coverage as blocking and
// unresolved shortfall as a warning.
func (p *Planner) SelfCheck(proposal *entities.CommitteeProposal, cctx entities.CommitteeContext) entities.CommitteeCritique {
	critique := entities.CommitteeCritique{
		Agent:      entities.AgentPlanner,
		ProposalID: proposal.ID,
		Issues:     []entities.CommitteeIssue{},
		Patches:    []entities.CommitteePatch{},
	}

	for _, problem := range services.PurchaseSufficiency(proposal) {
		critique.Issues = append(critique.Issues, entities.CommitteeIssue{
			ID:       p.ids.UniqueID("issue"),
			Agent:    entities.AgentPlanner,
			Code:     entities.IssuePurchaseMismatch,
			Severity: entities.SeverityCritical,
			Message:  problem,
			Blocking: true,
		})
	}

	for _, item := range proposal.Items {
		if !item.ResidualShortfall.IsPositive() {
			continue
		}
		reason := "rounded purchase does not reach target"
		if !item.HasSupplier() {
			reason = "no eligible supplier"
		}
		critique.Issues = append(critique.Issues, entities.CommitteeIssue{
			ID:          p.ids.UniqueID("issue"),
			Agent:       entities.AgentPlanner,
			Code:        entities.IssueResidualShortfall,
			Severity:    entities.SeverityWarning,
			Message:     fmt.Sprintf("%s short by %s %s: %s", item.ID, item.ResidualShortfall, item.Unit, reason),
			AffectedIDs: []string{item.ID},
		})
	}

	critique.Metrics = metrics.Evaluate(proposal, cctx.Policy)
	critique.Approve = entities.Vote(critique.Issues)

	p.logger.Debug("self-check complete",
		"proposal", proposal.ID,
		"issues", len(critique.Issues),
		"approve", critique.Approve)
	return critique
}
