package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventorySnapshotItem is a point-in-time count for one item. The engine never mutates it.
type InventorySnapshotItem struct {
	ItemID         string          `json:"item_id" yaml:"item_id"`
	Name           string          `json:"name" yaml:"name"`
	OnHandQty      decimal.Decimal `json:"on_hand_qty" yaml:"on_hand_qty"`
	Unit           string          `json:"unit" yaml:"unit"`
	UnitCost       decimal.Decimal `json:"unit_cost" yaml:"unit_cost"`
	ShelfLifeHours *float64        `json:"shelf_life_hours,omitempty" yaml:"shelf_life_hours,omitempty"`
	LastCountedAt  time.Time       `json:"last_counted_at" yaml:"last_counted_at"`
	Location       string          `json:"location" yaml:"location"`
}

// SupplierOption is one supplier's offer for one item.
type SupplierOption struct {
	ID              string          `json:"id" yaml:"id"`
	VendorID        string          `json:"vendor_id" yaml:"vendor_id"`
	VendorName      string          `json:"vendor_name" yaml:"vendor_name"`
	ItemID          string          `json:"item_id" yaml:"item_id"`
	OrderUnit       string          `json:"order_unit" yaml:"order_unit"`
	PackSize        decimal.Decimal `json:"pack_size" yaml:"pack_size"`
	UnitCost        decimal.Decimal `json:"unit_cost" yaml:"unit_cost"`
	LeadTimeDays    int             `json:"lead_time_days" yaml:"lead_time_days"`
	ShelfLifeHours  *float64        `json:"shelf_life_hours,omitempty" yaml:"shelf_life_hours,omitempty"`
	Allergens       []string        `json:"allergens,omitempty" yaml:"allergens,omitempty"`
	MinimumOrderQty decimal.Decimal `json:"minimum_order_qty" yaml:"minimum_order_qty"`
	Currency        string          `json:"currency" yaml:"currency"`
}

// Eligible reports whether the option can be ordered at all.
func (o SupplierOption) Eligible() bool {
	return o.ItemID != "" && o.VendorID != "" && o.UnitCost.IsPositive() && o.LeadTimeDays >= 0
}
