package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
)

// IDSource hands out unique ids for records created while patching.
type IDSource interface {
	UniqueID(prefix string) string
}

// PatchOutcome records what happened to one patch.
type PatchOutcome struct {
	PatchID string             `json:"patch_id" yaml:"patch_id"`
	Kind    entities.PatchKind `json:"kind" yaml:"kind"`
	Applied bool               `json:"applied" yaml:"applied"`
	Reason  string             `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// PatchApplier produces revised proposals from committee patches. It never
// touches the proposal it is given.
type PatchApplier struct {
	ids IDSource
}

// NewPatchApplier creates a patch applier drawing new record ids from ids.
func NewPatchApplier(ids IDSource) *PatchApplier {
	return &PatchApplier{ids: ids}
}

// Apply returns a new revision of p with patches applied in order. Patches
// that cannot be applied are reported and skipped. With no applicable patch
// the original proposal is returned unchanged.
func (a *PatchApplier) Apply(
	p *entities.CommitteeProposal,
	patches []entities.CommitteePatch,
	at time.Time,
) (*entities.CommitteeProposal, []PatchOutcome) {
	if len(patches) == 0 {
		return p, nil
	}

	next := p.Clone()
	outcomes := make([]PatchOutcome, 0, len(patches))
	applied := 0

	for _, patch := range patches {
		err := a.applyOne(next, patch, at)
		outcome := PatchOutcome{PatchID: patch.ID, Kind: patch.Kind, Applied: err == nil}
		if err != nil {
			outcome.Reason = err.Error()
		} else {
			applied++
		}
		outcomes = append(outcomes, outcome)
	}

	if applied == 0 {
		return p, outcomes
	}

	for i := range next.PurchaseOrders {
		next.PurchaseOrders[i].Recalculate()
	}
	RefreshGateRisks(next)

	next.ParentID = p.ID
	next.Revision = p.Revision + 1
	next.ID = a.ids.UniqueID("proposal")
	next.GeneratedAt = at
	next.GeneratedBy = entities.AgentDecision
	return next, outcomes
}

func (a *PatchApplier) applyOne(p *entities.CommitteeProposal, patch entities.CommitteePatch, at time.Time) error {
	switch op := patch.Op.(type) {
	case entities.AdjustPOLineQty:
		return a.adjustLine(p, op)
	case entities.AdjustDemandRecommendation:
		return a.adjustDemand(p, op)
	case entities.AddNote:
		p.Notes = append(p.Notes, entities.CommitteeNote{
			ID:       a.ids.UniqueID("note"),
			Agent:    patch.Agent,
			Severity: op.Severity,
			Message:  op.Message,
			At:       at,
		})
		return nil
	case entities.ReschedulePrepTask:
		return rescheduleTask(p, op)
	case nil:
		return fmt.Errorf("patch %s carries no operation", patch.ID)
	default:
		return fmt.Errorf("unsupported patch operation %T", op)
	}
}

func (a *PatchApplier) adjustDemand(p *entities.CommitteeProposal, op entities.AdjustDemandRecommendation) error {
	idx := p.ItemIndex(op.ItemID)
	if idx < 0 {
		return fmt.Errorf("demand item not found: %s", op.ItemID)
	}
	if op.PlannedPurchaseQty.IsNegative() {
		return fmt.Errorf("planned purchase cannot be negative, got %s", op.PlannedPurchaseQty)
	}
	item := p.Items[idx]
	if op.PlannedPurchaseQty.IsPositive() && !item.HasSupplier() {
		return fmt.Errorf("demand item %s has no supplier to purchase from", item.ID)
	}

	item.PlannedPurchaseQty = op.PlannedPurchaseQty
	p.Items[idx] = RecomputePlanItem(item)
	a.syncLine(p, p.Items[idx])
	return nil
}

func (a *PatchApplier) adjustLine(p *entities.CommitteeProposal, op entities.AdjustPOLineQty) error {
	if op.Qty.IsNegative() {
		return fmt.Errorf("line quantity cannot be negative, got %s", op.Qty)
	}
	for oi := range p.PurchaseOrders {
		po := &p.PurchaseOrders[oi]
		if po.ID != op.OrderID {
			continue
		}
		for li := range po.Lines {
			if po.Lines[li].ID != op.LineID {
				continue
			}
			itemID := po.Lines[li].ItemID
			idx := p.ItemIndex(itemID)
			if idx < 0 {
				return fmt.Errorf("line %s refers to unknown demand item %s", op.LineID, itemID)
			}
			item := p.Items[idx]
			item.PlannedPurchaseQty = op.Qty
			p.Items[idx] = RecomputePlanItem(item)
			a.syncLine(p, p.Items[idx])
			return nil
		}
		return fmt.Errorf("line not found: %s on order %s", op.LineID, op.OrderID)
	}
	return fmt.Errorf("purchase order not found: %s", op.OrderID)
}

// syncLine makes the item's vendor order carry exactly one line of
// PlannedPurchaseQty for the item, or none when nothing is purchased.
func (a *PatchApplier) syncLine(p *entities.CommitteeProposal, item entities.DemandPlanItem) {
	if !item.HasSupplier() {
		return
	}
	oi := p.OrderForVendor(item.VendorID)

	if !item.PlannedPurchaseQty.IsPositive() {
		if oi < 0 {
			return
		}
		po := &p.PurchaseOrders[oi]
		if li := po.LineForItem(item.ID); li >= 0 {
			po.Lines = append(po.Lines[:li], po.Lines[li+1:]...)
		}
		if len(po.Lines) == 0 {
			p.PurchaseOrders = append(p.PurchaseOrders[:oi], p.PurchaseOrders[oi+1:]...)
		}
		return
	}

	if oi < 0 {
		p.PurchaseOrders = append(p.PurchaseOrders, entities.CommitteePurchaseOrder{
			ID:         a.ids.UniqueID("po"),
			VendorID:   item.VendorID,
			VendorName: item.VendorName,
			Status:     entities.PODraft,
			Currency:   item.Currency,
			CreatedAt:  p.GeneratedAt,
		})
		oi = len(p.PurchaseOrders) - 1
	}
	po := &p.PurchaseOrders[oi]
	if li := po.LineForItem(item.ID); li >= 0 {
		po.Lines[li].Qty = item.PlannedPurchaseQty
		return
	}
	po.Lines = append(po.Lines, NewPurchaseOrderLine(a.ids.UniqueID("line"), item))
}

// NewPurchaseOrderLine builds the order line that purchases item's planned quantity.
func NewPurchaseOrderLine(id string, item entities.DemandPlanItem) entities.PurchaseOrderLine {
	return entities.PurchaseOrderLine{
		ID:           id,
		ItemID:       item.ID,
		ItemName:     item.Name,
		Qty:          item.PlannedPurchaseQty,
		Unit:         item.Unit,
		UnitCost:     item.UnitCost,
		LineCost:     item.PlannedPurchaseQty.Mul(item.UnitCost),
		LeadTimeDays: item.LeadTimeDays,
	}
}

func rescheduleTask(p *entities.CommitteeProposal, op entities.ReschedulePrepTask) error {
	idx := p.TaskIndex(op.TaskID)
	if idx < 0 {
		return fmt.Errorf("prep task not found: %s", op.TaskID)
	}
	if !op.End.After(op.Start) {
		return fmt.Errorf("prep task %s window must end after it starts", op.TaskID)
	}
	p.PrepTasks[idx].Start = op.Start
	p.PrepTasks[idx].End = op.End
	return nil
}

// PurchaseSufficiency checks that every purchased item has exactly one line of
// the planned quantity on its vendor's order, returning one message per breach.
func PurchaseSufficiency(p *entities.CommitteeProposal) []string {
	var problems []string
	for _, item := range p.Items {
		count := 0
		var qty decimal.Decimal
		for _, po := range p.PurchaseOrders {
			for _, line := range po.Lines {
				if line.ItemID != item.ID {
					continue
				}
				if po.VendorID != item.VendorID {
					problems = append(problems, fmt.Sprintf("item %s ordered from %s instead of %s", item.ID, po.VendorID, item.VendorID))
					continue
				}
				count++
				qty = line.Qty
			}
		}
		switch {
		case item.PlannedPurchaseQty.IsPositive() && count != 1:
			problems = append(problems, fmt.Sprintf("item %s has %d order lines, expected 1", item.ID, count))
		case item.PlannedPurchaseQty.IsPositive() && !qty.Equal(item.PlannedPurchaseQty):
			problems = append(problems, fmt.Sprintf("item %s line qty %s does not match planned %s", item.ID, qty, item.PlannedPurchaseQty))
		case !item.PlannedPurchaseQty.IsPositive() && count > 0:
			problems = append(problems, fmt.Sprintf("item %s is ordered but nothing is planned", item.ID))
		}
	}
	return problems
}
