package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultUnderOrderRisk is the baseline stockout probability used when a
// demand item does not carry its own.
const DefaultUnderOrderRisk = 0.08

// DemandItem is an outlet's or event's need for one item, as forecast by the caller.
type DemandItem struct {
	ID                 string              `json:"id" yaml:"id"`
	Name               string              `json:"name" yaml:"name"`
	RequiredQty        decimal.Decimal     `json:"required_qty" yaml:"required_qty"`
	Unit               string              `json:"unit" yaml:"unit"`
	NeededBy           time.Time           `json:"needed_by" yaml:"needed_by"`
	OnHandQty          decimal.NullDecimal `json:"on_hand_qty" yaml:"on_hand_qty"`
	ParLevel           decimal.NullDecimal `json:"par_level" yaml:"par_level"`
	ShelfLifeHours     *float64            `json:"shelf_life_hours,omitempty" yaml:"shelf_life_hours,omitempty"`
	PrepMinutesPerUnit float64             `json:"prep_minutes_per_unit" yaml:"prep_minutes_per_unit"`
	Allergens          []string            `json:"allergens,omitempty" yaml:"allergens,omitempty"`
	UnderOrderRisk     *float64            `json:"under_order_risk,omitempty" yaml:"under_order_risk,omitempty"`
	WasteCostPerUnit   decimal.NullDecimal `json:"waste_cost_per_unit" yaml:"waste_cost_per_unit"`
	Category           string              `json:"category" yaml:"category"`
	Outlet             string              `json:"outlet" yaml:"outlet"`
}

// DemandPlanItem is a DemandItem plus everything the planner derived for it.
//
// RecommendedQty == EffectiveOnHand + PlannedPurchaseQty and
// OverageQty == max(RecommendedQty - RequiredQty, 0) hold for every plan item
// the engine produces.
type DemandPlanItem struct {
	DemandItem `yaml:",inline"`

	TargetQty          decimal.Decimal `json:"target_qty" yaml:"target_qty"`
	EffectiveOnHand    decimal.Decimal `json:"effective_on_hand" yaml:"effective_on_hand"`
	RecommendedQty     decimal.Decimal `json:"recommended_qty" yaml:"recommended_qty"`
	PlannedPurchaseQty decimal.Decimal `json:"planned_purchase_qty" yaml:"planned_purchase_qty"`
	OverageQty         decimal.Decimal `json:"overage_qty" yaml:"overage_qty"`
	ResidualShortfall  decimal.Decimal `json:"residual_shortfall" yaml:"residual_shortfall"`
	ProjectedWasteQty  decimal.Decimal `json:"projected_waste_qty" yaml:"projected_waste_qty"`
	ProjectedWasteCost decimal.Decimal `json:"projected_waste_cost" yaml:"projected_waste_cost"`
	BaselineRisk       float64         `json:"baseline_risk" yaml:"baseline_risk"`
	AdjustedRisk       float64         `json:"adjusted_risk" yaml:"adjusted_risk"`

	// Chosen supplier terms. VendorID is empty when nothing could be sourced.
	VendorID        string          `json:"vendor_id,omitempty" yaml:"vendor_id,omitempty"`
	VendorName      string          `json:"vendor_name,omitempty" yaml:"vendor_name,omitempty"`
	Currency        string          `json:"currency,omitempty" yaml:"currency,omitempty"`
	SupplierOption  string          `json:"supplier_option_id,omitempty" yaml:"supplier_option_id,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost" yaml:"unit_cost"`
	PackSize        decimal.Decimal `json:"pack_size" yaml:"pack_size"`
	MinimumOrderQty decimal.Decimal `json:"minimum_order_qty" yaml:"minimum_order_qty"`
	LeadTimeDays    int             `json:"lead_time_days" yaml:"lead_time_days"`
	ExpectedArrival time.Time       `json:"expected_arrival,omitempty" yaml:"expected_arrival,omitempty"`
}

// HasSupplier reports whether a supplier option was chosen for the item.
func (d DemandPlanItem) HasSupplier() bool {
	return d.VendorID != ""
}

// ShelfLife returns the item's shelf life in hours and whether it is known.
func (d DemandPlanItem) ShelfLife() (float64, bool) {
	if d.ShelfLifeHours == nil {
		return 0, false
	}
	return *d.ShelfLifeHours, true
}

// HistoricalDemandSample is one past service's outcome for an item.
type HistoricalDemandSample struct {
	ItemID       string          `json:"item_id" yaml:"item_id"`
	ServiceDate  time.Time       `json:"service_date" yaml:"service_date"`
	FulfilledQty decimal.Decimal `json:"fulfilled_qty" yaml:"fulfilled_qty"`
	WasteQty     decimal.Decimal `json:"waste_qty" yaml:"waste_qty"`
}
