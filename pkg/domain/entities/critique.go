package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// IssueCode classifies what a critique agent found.
type IssueCode string

const (
	IssueUnderOrderRisk    IssueCode = "under_order_risk"
	IssueElevatedRisk      IssueCode = "elevated_risk"
	IssueShelfLife         IssueCode = "shelf_life"
	IssueSpoilsBeforeNeed  IssueCode = "spoils_before_need"
	IssueT24Lock           IssueCode = "t24_lock"
	IssueOvertime          IssueCode = "overtime"
	IssueNoSupplier        IssueCode = "no_supplier"
	IssueExcessWaste       IssueCode = "excess_waste"
	IssueCartCapacity      IssueCode = "cart_capacity"
	IssueQualityRisk       IssueCode = "quality_risk"
	IssueHistoryDeviation  IssueCode = "history_deviation"
	IssueResidualShortfall IssueCode = "residual_shortfall"
	IssuePurchaseMismatch  IssueCode = "purchase_mismatch"
	IssueAgentFailed       IssueCode = "agent_failed"
)

// CommitteeIssue is one finding of a critique agent.
type CommitteeIssue struct {
	ID          string    `json:"id" yaml:"id"`
	Agent       AgentName `json:"agent" yaml:"agent"`
	Code        IssueCode `json:"code" yaml:"code"`
	Severity    Severity  `json:"severity" yaml:"severity"`
	Message     string    `json:"message" yaml:"message"`
	AffectedIDs []string  `json:"affected_ids,omitempty" yaml:"affected_ids,omitempty"`
	Blocking    bool      `json:"blocking" yaml:"blocking"`
}

// PatchKind names the closed set of remediations.
type PatchKind string

const (
	PatchAdjustPOLineQty            PatchKind = "adjust_po_line_qty"
	PatchAdjustDemandRecommendation PatchKind = "adjust_demand_recommendation"
	PatchAddNote                    PatchKind = "add_note"
	PatchReschedulePrepTask         PatchKind = "reschedule_prep_task"
)

// PatchOp is implemented only by the four operations in this file.
type PatchOp interface {
	Kind() PatchKind
	patchOp()
}

// AdjustPOLineQty sets the quantity of one purchase order line.
type AdjustPOLineQty struct {
	OrderID string          `json:"order_id" yaml:"order_id"`
	LineID  string          `json:"line_id" yaml:"line_id"`
	Qty     decimal.Decimal `json:"qty" yaml:"qty"`
}

// AdjustDemandRecommendation sets the planned purchase for one demand item.
type AdjustDemandRecommendation struct {
	ItemID             string          `json:"item_id" yaml:"item_id"`
	PlannedPurchaseQty decimal.Decimal `json:"planned_purchase_qty" yaml:"planned_purchase_qty"`
}

// AddNote appends a note to the proposal.
type AddNote struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// ReschedulePrepTask moves a prep task window.
type ReschedulePrepTask struct {
	TaskID string    `json:"task_id" yaml:"task_id"`
	Start  time.Time `json:"start" yaml:"start"`
	End    time.Time `json:"end" yaml:"end"`
}

func (AdjustPOLineQty) Kind() PatchKind            { return PatchAdjustPOLineQty }
func (AdjustDemandRecommendation) Kind() PatchKind { return PatchAdjustDemandRecommendation }
func (AddNote) Kind() PatchKind                    { return PatchAddNote }
func (ReschedulePrepTask) Kind() PatchKind         { return PatchReschedulePrepTask }

func (AdjustPOLineQty) patchOp()            {}
func (AdjustDemandRecommendation) patchOp() {}
func (AddNote) patchOp()                    {}
func (ReschedulePrepTask) patchOp()         {}

// CommitteePatch is a proposed remediation tied to the issue that motivated it.
type CommitteePatch struct {
	ID          string    `json:"id" yaml:"id"`
	IssueID     string    `json:"issue_id" yaml:"issue_id"`
	Agent       AgentName `json:"agent" yaml:"agent"`
	Kind        PatchKind `json:"kind" yaml:"kind"`
	Description string    `json:"description" yaml:"description"`
	Op          PatchOp   `json:"op" yaml:"op"`
}

// NewPatch builds a patch whose Kind matches op.
func NewPatch(id string, issue CommitteeIssue, description string, op PatchOp) CommitteePatch {
	return CommitteePatch{
		ID:          id,
		IssueID:     issue.ID,
		Agent:       issue.Agent,
		Kind:        op.Kind(),
		Description: description,
		Op:          op,
	}
}

// CommitteeCritique is one agent's verdict on a proposal.
type CommitteeCritique struct {
	Agent      AgentName        `json:"agent" yaml:"agent"`
	ProposalID string           `json:"proposal_id" yaml:"proposal_id"`
	Issues     []CommitteeIssue `json:"issues" yaml:"issues"`
	Patches    []CommitteePatch `json:"patches" yaml:"patches"`
	Metrics    CommitteeMetrics `json:"metrics" yaml:"metrics"`
	Approve    bool             `json:"approve" yaml:"approve"`
	Failed     bool             `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// HasBlocking reports whether any issue blocks approval.
func (c CommitteeCritique) HasBlocking() bool {
	for _, issue := range c.Issues {
		if issue.Blocking {
			return true
		}
	}
	return false
}

// Issue returns the issue with id.
func (c CommitteeCritique) Issue(id string) (CommitteeIssue, bool) {
	for _, issue := range c.Issues {
		if issue.ID == id {
			return issue, true
		}
	}
	return CommitteeIssue{}, false
}

// Vote derives an agent's approval: no blocking issue and nothing critical.
func Vote(issues []CommitteeIssue) bool {
	for _, issue := range issues {
		if issue.Blocking || issue.Severity == SeverityCritical {
			return false
		}
	}
	return true
}
