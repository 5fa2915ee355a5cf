package critique

import (
	"context"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// HistorianAgent compares recommended quantities with what past services
// actually used. It abstains when there is no history.
type HistorianAgent struct {
	ids    services.IDSource
	logger logging.Logger
}

// NewHistorianAgent creates a historian agent. A nil ids draws from a private generator.
func NewHistorianAgent(ids services.IDSource, logger logging.Logger) *HistorianAgent {
	if ids == nil {
		ids = util.NewIDGenerator()
	}
	return &HistorianAgent{ids: ids, logger: logging.With(logger, "agent", string(entities.AgentHistorian))}
}

// Name implements Agent.
func (a *HistorianAgent) Name() entities.AgentName { return entities.AgentHistorian }

// HistoryNorm summarises past services for one item.
type HistoryNorm struct {
	Samples       int
	MeanFulfilled decimal.Decimal
	MeanWaste     decimal.Decimal
}

// Norm averages samples. It reports false for an empty history.
func Norm(samples []entities.HistoricalDemandSample) (HistoryNorm, bool) {
	if len(samples) == 0 {
		return HistoryNorm{}, false
	}
	n := decimal.NewFromInt(int64(len(samples)))
	fulfilled := util.SumDecimalBy(samples, func(s entities.HistoricalDemandSample) decimal.Decimal { return s.FulfilledQty })
	waste := util.SumDecimalBy(samples, func(s entities.HistoricalDemandSample) decimal.Decimal { return s.WasteQty })
	return HistoryNorm{
		Samples:       len(samples),
		MeanFulfilled: fulfilled.Div(n),
		MeanWaste:     waste.Div(n),
	}, true
}

// Critique implements Agent.
func (a *HistorianAgent) Critique(
	ctx context.Context,
	proposal *entities.CommitteeProposal,
	cctx entities.CommitteeContext,
	inputs *dto.CommitteeInputs,
) (*entities.CommitteeCritique, error) {
	if proposal == nil {
		return nil, fmt.Errorf("historian agent: proposal cannot be nil")
	}
	if inputs == nil || len(inputs.History) == 0 {
		a.logger.Debug("no history, abstaining", "proposal", proposal.ID)
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("historian agent: %w", err)
	}

	history := memory.NewHistoryRepository()
	if err := history.LoadSamples(inputs.History); err != nil {
		return nil, fmt.Errorf("historian agent: failed to index history: %w", err)
	}

	if !coversAny(history, proposal.Items) {
		a.logger.Debug("no history for demanded items, abstaining", "proposal", proposal.ID)
		return nil, nil
	}

	b := newBuilder(entities.AgentHistorian, a.ids, proposal.ID)
	threshold := cctx.Policy.Escalation.HistoryDeviationPct

	for _, item := range proposal.Items {
		samples, err := history.GetSamples(item.ID)
		if err != nil {
			return nil, fmt.Errorf("historian agent: failed to read history for %s: %w", item.ID, err)
		}
		norm, ok := Norm(samples)
		if !ok || !norm.MeanFulfilled.IsPositive() {
			continue
		}

		deviation := item.RecommendedQty.Sub(norm.MeanFulfilled).Div(norm.MeanFulfilled).InexactFloat64()
		if math.Abs(deviation) <= threshold {
			continue
		}

		severity := entities.SeverityWarning
		if math.Abs(deviation) > 2*threshold {
			severity = entities.SeverityCritical
		}
		msg := fmt.Sprintf("%s recommends %s %s, %+.0f%% against a %d-service mean of %s fulfilled and %s wasted",
			item.ID, item.RecommendedQty, item.Unit, deviation*100, norm.Samples,
			norm.MeanFulfilled.StringFixed(1), norm.MeanWaste.StringFixed(1))
		issue := b.issue(entities.IssueHistoryDeviation, severity, false, msg, item.ID)

		if deviation < 0 {
			if op, ok := reconcileUp(item, norm); ok {
				b.patch(issue, fmt.Sprintf("raise %s purchase to %s %s to match history", item.ID, op.PlannedPurchaseQty, item.Unit), op)
				continue
			}
		}
		b.patch(issue, "record history reconciliation", entities.AddNote{
			Severity: severity,
			Message:  fmt.Sprintf("reconcile %s quantity with history: %s", item.ID, msg),
		})
	}

	critique := b.finish(proposal, cctx)
	a.logger.Info("critique complete",
		"proposal", proposal.ID,
		"issues", len(critique.Issues),
		"approve", critique.Approve)
	return critique, nil
}

// coversAny reports whether at least one plan item has past samples.
func coversAny(history *memory.HistoryRepository, items []entities.DemandPlanItem) bool {
	for _, item := range items {
		if samples, err := history.GetSamples(item.ID); err == nil && len(samples) > 0 {
			return true
		}
	}
	return false
}

// reconcileUp raises the purchase so the recommendation meets the historical mean.
func reconcileUp(item entities.DemandPlanItem, norm HistoryNorm) (entities.AdjustDemandRecommendation, bool) {
	if !item.HasSupplier() {
		return entities.AdjustDemandRecommendation{}, false
	}
	needed := norm.MeanFulfilled.Sub(item.EffectiveOnHand)
	sized := services.ApplyLotSizing(needed, item.PackSize, item.MinimumOrderQty)
	if !sized.GreaterThan(item.PlannedPurchaseQty) {
		return entities.AdjustDemandRecommendation{}, false
	}
	return entities.AdjustDemandRecommendation{ItemID: item.ID, PlannedPurchaseQty: sized}, true
}
