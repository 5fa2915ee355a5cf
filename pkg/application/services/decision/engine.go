// Package decision reduces the committee's critiques to a terminal decision.
package decision

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/application/services/metrics"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// Input is everything one decision is made from
type Input struct {
	// Proposal is the proposal the critiques reviewed.
	Proposal *entities.CommitteeProposal
	// Baseline is the planner's proposal that spend escalation compares against.
	Baseline  *entities.CommitteeProposal
	Critiques []entities.CommitteeCritique
	Context   entities.CommitteeContext
	// LockedPrepTasks are the prior locked versions for the T-24 lock.
	LockedPrepTasks []entities.PrepTask
}

// Outcome is a decision plus how each auto-applied patch fared
type Outcome struct {
	Decision entities.CommitteeDecision
	Patches  []services.PatchOutcome
}

// Engine is the committee's single-threaded reducer
type Engine struct {
	applier   *services.PatchApplier
	evaluator metrics.Evaluator
	logger    logging.Logger
}

// NewEngine creates a decision engine. A nil evaluator evaluates directly.
func NewEngine(ids services.IDSource, evaluator metrics.Evaluator, logger logging.Logger) *Engine {
	if ids == nil {
		ids = util.NewIDGenerator()
	}
	if evaluator == nil {
		evaluator = metrics.Direct
	}
	return &Engine{
		applier:   services.NewPatchApplier(ids),
		evaluator: evaluator,
		logger:    logging.With(logger, "agent", string(entities.AgentDecision)),
	}
}

// Decide applies auto-remediation, then evaluates, in order: hard
// constraints, blocking issues, quorum, disagreement and spend escalation.
func (e *Engine) Decide(in Input) (Outcome, error) {
	if in.Proposal == nil {
		return Outcome{}, fmt.Errorf("decision requires a proposal")
	}
	baseline := in.Baseline
	if baseline == nil {
		baseline = in.Proposal
	}
	policy := in.Context.Policy

	decision := entities.CommitteeDecision{
		FinalProposal: in.Proposal,
		Critiques:     in.Critiques,
		Reasons:       []string{},
	}

	// Step 0: auto-remediation with non-blocking patches only
	var outcomes []services.PatchOutcome
	if in.Context.AutoRemediationEnabled() {
		patches := RemediationPatches(in.Critiques)
		if len(patches) > 0 {
			decision.FinalProposal, outcomes = e.applier.Apply(in.Proposal, patches, in.Context.GeneratedAt)
			for _, o := range outcomes {
				if o.Applied {
					decision.AppliedPatches = append(decision.AppliedPatches, o.PatchID)
				} else {
					e.logger.Warn("patch not applied", "patch", o.PatchID, "reason", o.Reason)
				}
			}
		}
	}
	decision.Metrics = e.evaluator.Evaluate(decision.FinalProposal, policy)

	// Step 1: hard constraints
	decision.HardConstraints = ValidateHardConstraints(decision.FinalProposal, in.Context, in.LockedPrepTasks)
	for _, v := range decision.HardConstraints.Violations {
		decision.Reasons = append(decision.Reasons, fmt.Sprintf("hard constraint %s violated by %s: %s", v.Rule, v.TargetID, v.Message))
	}

	// Step 2: blocking issues are never auto-resolved
	blockingRaised := false
	for _, c := range in.Critiques {
		for _, issue := range c.Issues {
			if issue.Blocking {
				blockingRaised = true
				decision.Reasons = append(decision.Reasons, fmt.Sprintf("%s raised blocking %s: %s", c.Agent, issue.Code, issue.Message))
			}
		}
	}

	// Step 3: quorum
	decision.Tally = Tally(in.Context.Mode, in.Critiques, policy.Quorum)
	if !decision.Tally.Met {
		decision.Reasons = append(decision.Reasons, fmt.Sprintf("quorum not met: %d of %d approved (%.2f < %.2f)",
			len(decision.Tally.Approvals), len(decision.Tally.Voters), decision.Tally.Ratio, decision.Tally.Quorum))
	}

	// Step 4: disagreement between agents' scores
	decision.Disagreement = Disagreement(in.Critiques)
	disagree := decision.Disagreement > policy.Escalation.DisagreementScore
	if disagree {
		decision.Reasons = append(decision.Reasons, fmt.Sprintf("agent scores disagree by %.3f (limit %.3f)",
			decision.Disagreement, policy.Escalation.DisagreementScore))
	}

	// Step 5: spend growth against the planner's baseline
	baselineSpend := e.evaluator.Evaluate(baseline, policy).TotalSpend
	decision.SpendDeltaPct = SpendDelta(baselineSpend, decision.Metrics.TotalSpend)
	overspend := decision.SpendDeltaPct > policy.Escalation.SpendDeltaPct
	if overspend {
		decision.Reasons = append(decision.Reasons, fmt.Sprintf("spend %s is %.1f%% above the planner's %s (limit %.1f%%)",
			decision.Metrics.TotalSpend.StringFixed(2), decision.SpendDeltaPct*100, baselineSpend.StringFixed(2),
			policy.Escalation.SpendDeltaPct*100))
	}

	switch {
	case !decision.HardConstraints.Passed:
		decision.Status = entities.DecisionBlocked
	case blockingRaised || !decision.Tally.Met || disagree || overspend:
		decision.Status = entities.DecisionNeedsHumanReview
	default:
		decision.Status = entities.DecisionApproved
	}

	e.logger.Info("decision reached",
		"proposal", decision.FinalProposal.ID,
		"status", string(decision.Status),
		"applied_patches", len(decision.AppliedPatches),
		"score", decision.Metrics.Score)

	return Outcome{Decision: decision, Patches: outcomes}, nil
}

// RemediationPatches selects the patches eligible for auto-application:
// those whose issue does not block. When several patches set the same
// item's purchase, only the largest survives.
func RemediationPatches(critiques []entities.CommitteeCritique) []entities.CommitteePatch {
	var out []entities.CommitteePatch
	demandIdx := make(map[string]int)

	for _, c := range critiques {
		for _, patch := range c.Patches {
			issue, ok := c.Issue(patch.IssueID)
			if !ok || issue.Blocking {
				continue
			}
			op, isDemand := patch.Op.(entities.AdjustDemandRecommendation)
			if !isDemand {
				out = append(out, patch)
				continue
			}
			if i, seen := demandIdx[op.ItemID]; seen {
				prev := out[i].Op.(entities.AdjustDemandRecommendation)
				if op.PlannedPurchaseQty.GreaterThan(prev.PlannedPurchaseQty) {
					out[i] = patch
				}
				continue
			}
			demandIdx[op.ItemID] = len(out)
			out = append(out, patch)
		}
	}
	return out
}

// Tally counts the votes of the mode's voting agents that produced a
// critique. The ratio is rounded to two places before comparison, so a
// 0.67 quorum is met by two of three.
func Tally(mode entities.CommitteeMode, critiques []entities.CommitteeCritique, quorum float64) entities.VoteTally {
	tally := entities.VoteTally{
		Voters:    []entities.AgentName{},
		Approvals: []entities.AgentName{},
		Quorum:    quorum,
	}
	byAgent := make(map[entities.AgentName]entities.CommitteeCritique, len(critiques))
	for _, c := range critiques {
		byAgent[c.Agent] = c
	}
	for _, agent := range mode.Voters() {
		c, ok := byAgent[agent]
		if !ok {
			continue
		}
		tally.Voters = append(tally.Voters, agent)
		if c.Approve {
			tally.Approvals = append(tally.Approvals, agent)
		}
	}
	if len(tally.Voters) == 0 {
		return tally
	}
	tally.Ratio = decimal.NewFromInt(int64(len(tally.Approvals))).
		Div(decimal.NewFromInt(int64(len(tally.Voters)))).
		Round(2).
		InexactFloat64()
	tally.Met = tally.Ratio >= quorum
	return tally
}

// Disagreement is the largest pairwise score gap between critiques that
// produced metrics.
func Disagreement(critiques []entities.CommitteeCritique) float64 {
	var scores []float64
	for _, c := range critiques {
		if !c.Failed {
			scores = append(scores, c.Metrics.Score)
		}
	}
	worst := 0.0
	for i := range scores {
		for j := i + 1; j < len(scores); j++ {
			worst = math.Max(worst, math.Abs(scores[i]-scores[j]))
		}
	}
	return worst
}

// SpendDelta is the fractional spend growth from baseline to final. Growth
// from a zero baseline counts as 100%.
func SpendDelta(baseline, final decimal.Decimal) float64 {
	if !baseline.IsPositive() {
		if final.IsPositive() {
			return 1
		}
		return 0
	}
	return final.Sub(baseline).Div(baseline).InexactFloat64()
}
