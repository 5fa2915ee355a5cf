package entities

import "time"

// CartStatus is the kitting lifecycle of a cart.
type CartStatus string

const (
	CartDraft    CartStatus = "draft"
	CartKitting  CartStatus = "kitting"
	CartHolding  CartStatus = "holding"
	CartStaged   CartStatus = "staged"
	CartService  CartStatus = "service"
	CartComplete CartStatus = "complete"
)

// CartTemplate is a named capacity bucket for one outlet.
type CartTemplate struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Outlet   string `json:"outlet" yaml:"outlet"`
	Capacity int    `json:"capacity" yaml:"capacity"` // max demand items, 0 = unbounded
}

// CartPlan assigns demand items to a template.
type CartPlan struct {
	ID            string     `json:"id" yaml:"id"`
	TemplateID    string     `json:"template_id" yaml:"template_id"`
	Name          string     `json:"name" yaml:"name"`
	Outlet        string     `json:"outlet" yaml:"outlet"`
	DemandItemIDs []string   `json:"demand_item_ids" yaml:"demand_item_ids"`
	Capacity      int        `json:"capacity" yaml:"capacity"`
	Status        CartStatus `json:"status" yaml:"status"`
}

// QualityStage is the checkpoint a gate guards.
type QualityStage string

const (
	StagePrep     QualityStage = "prep"
	StageHolding  QualityStage = "holding"
	StageDispatch QualityStage = "dispatch"
	StageService  QualityStage = "service"
)

// QualityStages lists gate stages in service order.
var QualityStages = []QualityStage{StagePrep, StageHolding, StageDispatch, StageService}

// QualityGate is a scheduled checkpoint for one cart.
type QualityGate struct {
	ID         string       `json:"id" yaml:"id"`
	CartPlanID string       `json:"cart_plan_id" yaml:"cart_plan_id"`
	Stage      QualityStage `json:"stage" yaml:"stage"`
	DueAt      time.Time    `json:"due_at" yaml:"due_at"`
	RiskScore  float64      `json:"risk_score" yaml:"risk_score"`
	Completed  bool         `json:"completed" yaml:"completed"`
	Passed     *bool        `json:"passed,omitempty" yaml:"passed,omitempty"`
}
