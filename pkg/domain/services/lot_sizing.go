package services

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// ApplyLotSizing turns a shortfall into an order quantity: round up to whole
// packs (a pack is never smaller than 1), then raise to the minimum order.
func ApplyLotSizing(shortfall, packSize, minimumOrderQty decimal.Decimal) decimal.Decimal {
	if !shortfall.IsPositive() {
		return decimal.Zero
	}

	pack := packSize
	if pack.LessThan(decimal.NewFromInt(1)) {
		pack = decimal.NewFromInt(1)
	}

	packs := shortfall.Div(pack).Ceil()
	qty := packs.Mul(pack)

	if minimumOrderQty.GreaterThan(qty) {
		return minimumOrderQty
	}
	return qty
}

// TargetQty buffers the required quantity; the buffer never reduces it.
func TargetQty(required decimal.Decimal, overOrderBuffer float64) decimal.Decimal {
	buffered := required.Mul(decimal.NewFromFloat(1 + overOrderBuffer))
	return util.DecimalMax(buffered, required)
}

// RecomputePlanItem refreshes every derived field of item from its on-hand,
// planned purchase, target and supplier terms.
//
// Risk keeps the baseline when the target is covered; any residual shortfall
// adds residual/(required+1).
func RecomputePlanItem(item entities.DemandPlanItem) entities.DemandPlanItem {
	item.RecommendedQty = item.EffectiveOnHand.Add(item.PlannedPurchaseQty)
	item.OverageQty = util.DecimalMax(item.RecommendedQty.Sub(item.RequiredQty), decimal.Zero)
	item.ProjectedWasteQty = item.OverageQty

	wasteUnitCost := item.UnitCost
	if item.WasteCostPerUnit.Valid {
		wasteUnitCost = item.WasteCostPerUnit.Decimal
	}
	item.ProjectedWasteCost = item.OverageQty.Mul(wasteUnitCost)

	item.ResidualShortfall = util.DecimalMax(item.TargetQty.Sub(item.RecommendedQty), decimal.Zero)
	if item.ResidualShortfall.IsPositive() {
		boost := item.ResidualShortfall.Div(item.RequiredQty.Add(decimal.NewFromInt(1))).InexactFloat64()
		item.AdjustedRisk = util.Clamp01(item.BaselineRisk + boost)
	} else {
		item.AdjustedRisk = item.BaselineRisk
	}
	return item
}

// CartWorstRisk is the highest adjusted risk among the cart's members.
func CartWorstRisk(cart entities.CartPlan, items []entities.DemandPlanItem) float64 {
	members := make(map[string]bool, len(cart.DemandItemIDs))
	for _, id := range cart.DemandItemIDs {
		members[id] = true
	}
	worst := 0.0
	for _, item := range items {
		if members[item.ID] && item.AdjustedRisk > worst {
			worst = item.AdjustedRisk
		}
	}
	return worst
}

// DispatchRiskPremium is added at the dispatch gate for the hand-off.
const DispatchRiskPremium = 0.1

// GateRisk is a gate's risk score given its cart's worst member risk.
func GateRisk(stage entities.QualityStage, worst float64) float64 {
	if stage == entities.StageDispatch {
		return util.Clamp01(worst + DispatchRiskPremium)
	}
	return util.Clamp01(worst)
}

// RefreshGateRisks recomputes every quality gate's risk from the proposal's items.
func RefreshGateRisks(p *entities.CommitteeProposal) {
	worst := make(map[string]float64, len(p.Carts))
	for _, cart := range p.Carts {
		worst[cart.ID] = CartWorstRisk(cart, p.Items)
	}
	for i := range p.QualityGates {
		gate := &p.QualityGates[i]
		gate.RiskScore = GateRisk(gate.Stage, worst[gate.CartPlanID])
	}
}
