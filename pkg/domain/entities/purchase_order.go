package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus is the append-only order lifecycle.
type PurchaseOrderStatus string

const (
	PODraft     PurchaseOrderStatus = "draft"
	POSubmitted PurchaseOrderStatus = "submitted"
	POConfirmed PurchaseOrderStatus = "confirmed"
	POInTransit PurchaseOrderStatus = "in_transit"
	POReceived  PurchaseOrderStatus = "received"
)

var poLifecycle = []PurchaseOrderStatus{PODraft, POSubmitted, POConfirmed, POInTransit, POReceived}

func (s PurchaseOrderStatus) rank() int {
	for i, st := range poLifecycle {
		if st == s {
			return i
		}
	}
	return -1
}

// Next returns the status that follows s, or an error at the end of the lifecycle.
func (s PurchaseOrderStatus) Next() (PurchaseOrderStatus, error) {
	r := s.rank()
	if r < 0 {
		return s, fmt.Errorf("unknown purchase order status: %s", s)
	}
	if r == len(poLifecycle)-1 {
		return s, fmt.Errorf("purchase order already %s", s)
	}
	return poLifecycle[r+1], nil
}

// CanTransition reports whether moving from s to next follows the lifecycle.
func (s PurchaseOrderStatus) CanTransition(next PurchaseOrderStatus) bool {
	return s.rank() >= 0 && next.rank() == s.rank()+1
}

// PurchaseOrderLine is one item on a draft order.
type PurchaseOrderLine struct {
	ID           string          `json:"id" yaml:"id"`
	ItemID       string          `json:"item_id" yaml:"item_id"`
	ItemName     string          `json:"item_name" yaml:"item_name"`
	Qty          decimal.Decimal `json:"qty" yaml:"qty"`
	Unit         string          `json:"unit" yaml:"unit"`
	UnitCost     decimal.Decimal `json:"unit_cost" yaml:"unit_cost"`
	LineCost     decimal.Decimal `json:"line_cost" yaml:"line_cost"`
	LeadTimeDays int             `json:"lead_time_days" yaml:"lead_time_days"`
	ExpectedDate time.Time       `json:"expected_date" yaml:"expected_date"`
}

// CommitteePurchaseOrder is a draft order addressed to one supplier.
type CommitteePurchaseOrder struct {
	ID           string              `json:"id" yaml:"id"`
	VendorID     string              `json:"vendor_id" yaml:"vendor_id"`
	VendorName   string              `json:"vendor_name" yaml:"vendor_name"`
	Status       PurchaseOrderStatus `json:"status" yaml:"status"`
	Currency     string              `json:"currency" yaml:"currency"`
	CreatedAt    time.Time           `json:"created_at" yaml:"created_at"`
	ExpectedDate time.Time           `json:"expected_date" yaml:"expected_date"`
	Lines        []PurchaseOrderLine `json:"lines" yaml:"lines"`
	Total        decimal.Decimal     `json:"total" yaml:"total"`
}

// Recalculate refreshes line costs, the order total and the expected date.
// The order is expected no earlier than its slowest line.
func (o *CommitteePurchaseOrder) Recalculate() {
	total := decimal.Zero
	var expected time.Time
	for i := range o.Lines {
		line := &o.Lines[i]
		line.LineCost = line.Qty.Mul(line.UnitCost)
		line.ExpectedDate = o.CreatedAt.Add(time.Duration(line.LeadTimeDays) * 24 * time.Hour)
		total = total.Add(line.LineCost)
		if line.ExpectedDate.After(expected) {
			expected = line.ExpectedDate
		}
	}
	o.Total = total
	o.ExpectedDate = expected
}

// LineForItem returns the index of the line carrying itemID, or -1.
func (o *CommitteePurchaseOrder) LineForItem(itemID string) int {
	for i, line := range o.Lines {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}
