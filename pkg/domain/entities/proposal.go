package entities

import (
	"slices"
	"time"
)

// CommitteeProposal is the unit agents critique and the decision engine revises.
// Every revision is a distinct value; use Clone before changing anything.
type CommitteeProposal struct {
	ID             string                   `json:"id" yaml:"id"`
	Revision       int                      `json:"revision" yaml:"revision"`
	ParentID       string                   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	GeneratedAt    time.Time                `json:"generated_at" yaml:"generated_at"`
	GeneratedBy    AgentName                `json:"generated_by" yaml:"generated_by"`
	Items          []DemandPlanItem         `json:"items" yaml:"items"`
	PurchaseOrders []CommitteePurchaseOrder `json:"purchase_orders" yaml:"purchase_orders"`
	PrepTasks      []PrepTask               `json:"prep_tasks" yaml:"prep_tasks"`
	Carts          []CartPlan               `json:"carts" yaml:"carts"`
	QualityGates   []QualityGate            `json:"quality_gates" yaml:"quality_gates"`
	Notes          []CommitteeNote          `json:"notes" yaml:"notes"`
}

// Clone returns a deep copy that shares no slices with p.
func (p *CommitteeProposal) Clone() *CommitteeProposal {
	if p == nil {
		return nil
	}
	out := *p
	out.Items = slices.Clone(p.Items)
	for i := range out.Items {
		out.Items[i].Allergens = slices.Clone(out.Items[i].Allergens)
	}
	out.PurchaseOrders = slices.Clone(p.PurchaseOrders)
	for i := range out.PurchaseOrders {
		out.PurchaseOrders[i].Lines = slices.Clone(out.PurchaseOrders[i].Lines)
	}
	out.PrepTasks = slices.Clone(p.PrepTasks)
	out.Carts = slices.Clone(p.Carts)
	for i := range out.Carts {
		out.Carts[i].DemandItemIDs = slices.Clone(out.Carts[i].DemandItemIDs)
	}
	out.QualityGates = slices.Clone(p.QualityGates)
	for i := range out.QualityGates {
		if passed := out.QualityGates[i].Passed; passed != nil {
			v := *passed
			out.QualityGates[i].Passed = &v
		}
	}
	out.Notes = slices.Clone(p.Notes)
	return &out
}

// Item returns the plan item with id.
func (p *CommitteeProposal) Item(id string) (DemandPlanItem, bool) {
	for _, item := range p.Items {
		if item.ID == id {
			return item, true
		}
	}
	return DemandPlanItem{}, false
}

// ItemIndex returns the position of the plan item with id, or -1.
func (p *CommitteeProposal) ItemIndex(id string) int {
	for i, item := range p.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// OrderForVendor returns the position of the order addressed to vendorID, or -1.
func (p *CommitteeProposal) OrderForVendor(vendorID string) int {
	for i, po := range p.PurchaseOrders {
		if po.VendorID == vendorID {
			return i
		}
	}
	return -1
}

// TaskIndex returns the position of the prep task with id, or -1.
func (p *CommitteeProposal) TaskIndex(id string) int {
	for i, task := range p.PrepTasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}
