// Package metrics scores committee proposals against a weighted policy.
package metrics

import (
	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// Evaluator scores proposals. Evaluate and *CachedEvaluator both satisfy it.
type Evaluator interface {
	Evaluate(p *entities.CommitteeProposal, policy entities.CommitteePolicy) entities.CommitteeMetrics
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(p *entities.CommitteeProposal, policy entities.CommitteePolicy) entities.CommitteeMetrics

// Evaluate implements Evaluator.
func (f EvaluatorFunc) Evaluate(p *entities.CommitteeProposal, policy entities.CommitteePolicy) entities.CommitteeMetrics {
	return f(p, policy)
}

// Direct evaluates without caching.
var Direct Evaluator = EvaluatorFunc(Evaluate)

var _ Evaluator = (*CachedEvaluator)(nil)

// Evaluate computes the raw metrics of p and their weighted composite score.
// It reads nothing but its arguments, so equal inputs give identical output.
func Evaluate(p *entities.CommitteeProposal, policy entities.CommitteePolicy) entities.CommitteeMetrics {
	if p == nil {
		return entities.CommitteeMetrics{TotalSpend: decimal.Zero, ProjectedWasteCost: decimal.Zero, ProjectedWasteQty: decimal.Zero}
	}

	m := entities.CommitteeMetrics{
		TotalSpend: util.SumDecimalBy(p.PurchaseOrders, func(po entities.CommitteePurchaseOrder) decimal.Decimal {
			return util.SumDecimalBy(po.Lines, func(l entities.PurchaseOrderLine) decimal.Decimal {
				return l.Qty.Mul(l.UnitCost)
			})
		}),
		// Worst item, not the average: one high-risk item must not be diluted.
		StockoutProbability: util.MaxBy(p.Items, func(i entities.DemandPlanItem) float64 { return i.AdjustedRisk }),
		ProjectedWasteCost: util.SumDecimalBy(p.Items, func(i entities.DemandPlanItem) decimal.Decimal {
			return i.ProjectedWasteCost
		}),
		ProjectedWasteQty: util.SumDecimalBy(p.Items, func(i entities.DemandPlanItem) decimal.Decimal {
			return i.ProjectedWasteQty
		}),
		QualityRisk: util.MaxBy(p.QualityGates, func(g entities.QualityGate) float64 { return g.RiskScore }),
		OvertimeHours: util.SumBy(p.PrepTasks, func(t entities.PrepTask) float64 {
			if t.OvertimeRisk > 0 {
				return t.LaborHours
			}
			return 0
		}),
	}

	for _, item := range p.Items {
		if hours, ok := item.ShelfLife(); ok && hours < policy.Constraints.MinShelfLifeHours {
			m.ShelfLifeViolations++
		}
	}

	m.Score = Score(m, len(p.Items), policy)
	return m
}

// Components are the normalised [0, 1] inputs to the composite score.
type Components struct {
	Cost     float64
	Stockout float64
	Waste    float64
	Shelf    float64
	QC       float64
	Labor    float64
}

// Normalize scales raw metrics into [0, 1] using the policy's ceilings.
// Waste is measured as a share of spend; shelf life as the share of items in violation.
func Normalize(m entities.CommitteeMetrics, itemCount int, policy entities.CommitteePolicy) Components {
	spend := m.TotalSpend.InexactFloat64()
	waste := m.ProjectedWasteCost.InexactFloat64()

	c := Components{
		Cost:     util.Clamp01(spend / policy.Normalization.SpendCeiling),
		Stockout: util.Clamp01(m.StockoutProbability),
		QC:       util.Clamp01(m.QualityRisk),
		Labor:    util.Clamp01(m.OvertimeHours / policy.Normalization.OvertimeCeilingHours),
	}
	switch {
	case spend > 0:
		c.Waste = util.Clamp01(waste / spend)
	case waste > 0:
		c.Waste = 1
	}
	if itemCount > 0 {
		c.Shelf = util.Clamp01(float64(m.ShelfLifeViolations) / float64(itemCount))
	}
	return c
}

// Score is the weighted sum of normalised components. Lower is better.
func Score(m entities.CommitteeMetrics, itemCount int, policy entities.CommitteePolicy) float64 {
	c := Normalize(m, itemCount, policy)
	w := policy.Weights
	return w.Cost*c.Cost +
		w.Stockout*c.Stockout +
		w.Waste*c.Waste +
		w.Shelf*c.Shelf +
		w.QC*c.QC +
		w.Labor*c.Labor
}

// WastePct is projected waste cost as a share of spend.
func WastePct(m entities.CommitteeMetrics) float64 {
	if !m.TotalSpend.IsPositive() {
		return 0
	}
	return m.ProjectedWasteCost.Div(m.TotalSpend).InexactFloat64()
}
