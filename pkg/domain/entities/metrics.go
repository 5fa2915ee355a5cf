package entities

import "github.com/shopspring/decimal"

// CommitteeMetrics scores a proposal. Lower Score is better.
type CommitteeMetrics struct {
	TotalSpend          decimal.Decimal `json:"total_spend" yaml:"total_spend"`
	StockoutProbability float64         `json:"stockout_probability" yaml:"stockout_probability"`
	ProjectedWasteCost  decimal.Decimal `json:"projected_waste_cost" yaml:"projected_waste_cost"`
	ProjectedWasteQty   decimal.Decimal `json:"projected_waste_qty" yaml:"projected_waste_qty"`
	ShelfLifeViolations int             `json:"shelf_life_violations" yaml:"shelf_life_violations"`
	QualityRisk         float64         `json:"quality_risk" yaml:"quality_risk"`
	OvertimeHours       float64         `json:"overtime_hours" yaml:"overtime_hours"`
	Score               float64         `json:"score" yaml:"score"`
}
