package critique

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/application/services/metrics"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// RiskAgent checks a proposal against the policy's safety constraints:
// stockout risk, shelf life, the T-24 lock, overtime, waste, cart capacity
// and quality-gate risk.
type RiskAgent struct {
	ids    services.IDSource
	logger logging.Logger
}

// NewRiskAgent creates a risk agent. A nil ids draws from a private generator.
func NewRiskAgent(ids services.IDSource, logger logging.Logger) *RiskAgent {
	if ids == nil {
		ids = util.NewIDGenerator()
	}
	return &RiskAgent{ids: ids, logger: logging.With(logger, "agent", string(entities.AgentRisk))}
}

// Name implements Agent.
func (a *RiskAgent) Name() entities.AgentName { return entities.AgentRisk }

// Critique implements Agent.
func (a *RiskAgent) Critique(
	ctx context.Context,
	proposal *entities.CommitteeProposal,
	cctx entities.CommitteeContext,
	inputs *dto.CommitteeInputs,
) (*entities.CommitteeCritique, error) {
	if proposal == nil {
		return nil, fmt.Errorf("risk agent: proposal cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("risk agent: %w", err)
	}

	b := newBuilder(entities.AgentRisk, a.ids, proposal.ID)
	policy := cctx.Policy

	for _, item := range proposal.Items {
		a.checkStockout(b, item, policy)
		a.checkShelfLife(b, item, policy)
	}

	var locked []entities.PrepTask
	if inputs != nil {
		locked = inputs.LockedPrepTasks
	}
	for _, task := range proposal.PrepTasks {
		lockedTask, inLock := a.checkT24Lock(b, task, locked, cctx)
		a.checkOvertime(b, task, policy, inLock, lockedTask)
	}

	a.checkWaste(b, proposal, policy)
	a.checkCarts(b, proposal, policy)

	critique := b.finish(proposal, cctx)
	a.logger.Info("critique complete",
		"proposal", proposal.ID,
		"issues", len(critique.Issues),
		"patches", len(critique.Patches),
		"approve", critique.Approve)
	return critique, nil
}

func (a *RiskAgent) checkStockout(b *builder, item entities.DemandPlanItem, policy entities.CommitteePolicy) {
	maxRisk := policy.Constraints.MaxUnderOrderRisk

	if !item.HasSupplier() && item.ResidualShortfall.IsPositive() {
		issue := b.issue(entities.IssueNoSupplier, entities.SeverityWarning, false,
			fmt.Sprintf("%s has no eligible supplier; %s %s cannot be purchased", item.ID, item.ResidualShortfall, item.Unit),
			item.ID)
		b.patch(issue, "flag for manual sourcing", entities.AddNote{
			Severity: entities.SeverityWarning,
			Message:  fmt.Sprintf("source %s %s of %s manually", item.ResidualShortfall, item.Unit, item.ID),
		})
	}

	switch {
	case item.AdjustedRisk > maxRisk:
		issue := b.issue(entities.IssueUnderOrderRisk, entities.SeverityCritical, true,
			fmt.Sprintf("%s exceeds max under-order risk %.2f", shortfallMessage(item), maxRisk),
			item.ID)
		if op, ok := coverTarget(item); ok {
			b.patch(issue, fmt.Sprintf("raise %s purchase to %s %s", item.ID, op.PlannedPurchaseQty, item.Unit), op)
		}
	case item.AdjustedRisk >= maxRisk/2 && item.ResidualShortfall.IsPositive():
		if op, ok := coverTarget(item); ok {
			issue := b.issue(entities.IssueElevatedRisk, entities.SeverityWarning, false,
				shortfallMessage(item), item.ID)
			b.patch(issue, fmt.Sprintf("over-order %s to %s %s", item.ID, op.PlannedPurchaseQty, item.Unit), op)
		}
	}
}

func (a *RiskAgent) checkShelfLife(b *builder, item entities.DemandPlanItem, policy entities.CommitteePolicy) {
	hours, ok := item.ShelfLife()
	if !ok {
		return
	}

	if policy.Constraints.EnforceShelfLife && hours < policy.Constraints.MinShelfLifeHours {
		issue := b.issue(entities.IssueShelfLife, entities.SeverityCritical, true,
			fmt.Sprintf("%s shelf life %.0fh is below the %.0fh floor", item.ID, hours, policy.Constraints.MinShelfLifeHours),
			item.ID)
		b.patch(issue, "request fresher supply", entities.AddNote{
			Severity: entities.SeverityCritical,
			Message:  fmt.Sprintf("find a supplier for %s with at least %.0fh shelf life", item.ID, policy.Constraints.MinShelfLifeHours),
		})
	}

	if item.PlannedPurchaseQty.IsPositive() && !item.ExpectedArrival.IsZero() && !item.NeededBy.IsZero() {
		spoilsAt := item.ExpectedArrival.Add(util.Hours(hours))
		if spoilsAt.Before(item.NeededBy) {
			b.issue(entities.IssueSpoilsBeforeNeed, entities.SeverityWarning, false,
				fmt.Sprintf("%s arrives %s and spoils %s, before it is needed at %s",
					item.ID, util.ISO(item.ExpectedArrival), util.ISO(spoilsAt), util.ISO(item.NeededBy)),
				item.ID)
		}
	}
}

// checkT24Lock reports whether task starts inside the lock window and, if a
// locked version of it exists, returns that version.
func (a *RiskAgent) checkT24Lock(
	b *builder,
	task entities.PrepTask,
	locked []entities.PrepTask,
	cctx entities.CommitteeContext,
) (*entities.PrepTask, bool) {
	if cctx.ServiceDate.IsZero() {
		return nil, false
	}
	lockStart := cctx.ServiceDate.Add(-util.Hours(cctx.Policy.Constraints.T24LockHours))
	if task.Start.Before(lockStart) || task.Start.After(cctx.ServiceDate) {
		return nil, false
	}

	prior := findLocked(locked, task.DemandItemID)
	if prior == nil {
		return nil, true
	}
	if cctx.Policy.Constraints.EnforceT24Lock && !task.SameSchedule(*prior) {
		issue := b.issue(entities.IssueT24Lock, entities.SeverityCritical, true,
			fmt.Sprintf("prep for %s changed inside the %.0fh lock before service", task.DemandItemID, cctx.Policy.Constraints.T24LockHours),
			task.ID, task.DemandItemID)
		b.patch(issue, "restore the locked prep window", entities.ReschedulePrepTask{
			TaskID: task.ID,
			Start:  prior.Start,
			End:    prior.End,
		})
	}
	return prior, true
}

func findLocked(locked []entities.PrepTask, demandItemID string) *entities.PrepTask {
	for i := range locked {
		if locked[i].DemandItemID == demandItemID {
			return &locked[i]
		}
	}
	return nil
}

func (a *RiskAgent) checkOvertime(
	b *builder,
	task entities.PrepTask,
	policy entities.CommitteePolicy,
	inLock bool,
	locked *entities.PrepTask,
) {
	limit := policy.Constraints.MaxOvertimeHours
	if task.LaborHours <= limit {
		return
	}

	excess := task.LaborHours - limit
	issue := b.issue(entities.IssueOvertime, entities.SeverityWarning, false,
		fmt.Sprintf("prep for %s needs %.1fh of labour, %.1fh over the %.1fh shift limit", task.DemandItemID, task.LaborHours, excess, limit),
		task.ID, task.DemandItemID)

	// A locked task's window cannot move.
	if inLock && locked != nil {
		return
	}
	shift := time.Duration(math.Ceil(excess)) * time.Hour
	b.patch(issue, fmt.Sprintf("start %s prep %s earlier", task.DemandItemID, shift), entities.ReschedulePrepTask{
		TaskID: task.ID,
		Start:  task.Start.Add(-shift),
		End:    task.End,
	})
}

func (a *RiskAgent) checkWaste(b *builder, proposal *entities.CommitteeProposal, policy entities.CommitteePolicy) {
	m := metrics.Evaluate(proposal, policy)
	pct := metrics.WastePct(m)
	if pct <= policy.TargetWastePct {
		return
	}

	var affected []string
	for _, item := range proposal.Items {
		if item.ProjectedWasteCost.IsPositive() {
			affected = append(affected, item.ID)
		}
	}
	b.issue(entities.IssueExcessWaste, entities.SeverityInfo, false,
		fmt.Sprintf("projected waste %s is %.1f%% of spend, target %.1f%%",
			m.ProjectedWasteCost.StringFixed(2), pct*100, policy.TargetWastePct*100),
		affected...)
}

func (a *RiskAgent) checkCarts(b *builder, proposal *entities.CommitteeProposal, policy entities.CommitteePolicy) {
	for _, cart := range proposal.Carts {
		if cart.Capacity > 0 && len(cart.DemandItemIDs) > cart.Capacity {
			b.issue(entities.IssueCartCapacity, entities.SeverityWarning, false,
				fmt.Sprintf("cart %s holds %d items, capacity %d", cart.Name, len(cart.DemandItemIDs), cart.Capacity),
				cart.ID)
		}
	}

	worst := make(map[string]entities.QualityGate)
	var order []string
	for _, gate := range proposal.QualityGates {
		if gate.RiskScore <= policy.Constraints.MaxUnderOrderRisk {
			continue
		}
		current, seen := worst[gate.CartPlanID]
		if !seen {
			order = append(order, gate.CartPlanID)
		}
		if !seen || gate.RiskScore > current.RiskScore {
			worst[gate.CartPlanID] = gate
		}
	}
	for _, cartID := range order {
		gate := worst[cartID]
		b.issue(entities.IssueQualityRisk, entities.SeverityWarning, false,
			fmt.Sprintf("cart %s %s gate risk %.2f exceeds %.2f", cartID, gate.Stage, gate.RiskScore, policy.Constraints.MaxUnderOrderRisk),
			cartID, gate.ID)
	}
}
