package entities

// DecisionStatus is the terminal state of one committee run.
type DecisionStatus string

const (
	DecisionApproved         DecisionStatus = "approved"
	DecisionNeedsHumanReview DecisionStatus = "needs_human_review"
	DecisionBlocked          DecisionStatus = "blocked"
)

// ConstraintRule names a hard constraint.
type ConstraintRule string

const (
	RuleShelfLife      ConstraintRule = "shelf_life_floor"
	RuleUnderOrderRisk ConstraintRule = "max_under_order_risk"
	RuleT24Lock        ConstraintRule = "t24_lock"
)

// ConstraintViolation is one failed hard constraint.
type ConstraintViolation struct {
	Rule     ConstraintRule `json:"rule" yaml:"rule"`
	TargetID string         `json:"target_id" yaml:"target_id"`
	Message  string         `json:"message" yaml:"message"`
}

// HardConstraintResult is the outcome of validating a proposal against policy alone.
type HardConstraintResult struct {
	Passed     bool                  `json:"passed" yaml:"passed"`
	Violations []ConstraintViolation `json:"violations" yaml:"violations"`
}

// VoteTally records how the voting agents decided.
type VoteTally struct {
	Voters    []AgentName `json:"voters" yaml:"voters"`
	Approvals []AgentName `json:"approvals" yaml:"approvals"`
	Ratio     float64     `json:"ratio" yaml:"ratio"`
	Quorum    float64     `json:"quorum" yaml:"quorum"`
	Met       bool        `json:"met" yaml:"met"`
}

// CommitteeDecision is the terminal output of the decision engine.
type CommitteeDecision struct {
	Status          DecisionStatus       `json:"status" yaml:"status"`
	FinalProposal   *CommitteeProposal   `json:"final_proposal" yaml:"final_proposal"`
	Metrics         CommitteeMetrics     `json:"metrics" yaml:"metrics"`
	Critiques       []CommitteeCritique  `json:"critiques" yaml:"critiques"`
	HardConstraints HardConstraintResult `json:"hard_constraints" yaml:"hard_constraints"`
	Tally           VoteTally            `json:"tally" yaml:"tally"`
	AppliedPatches  []string             `json:"applied_patches,omitempty" yaml:"applied_patches,omitempty"`
	Disagreement    float64              `json:"disagreement" yaml:"disagreement"`
	SpendDeltaPct   float64              `json:"spend_delta_pct" yaml:"spend_delta_pct"`
	Reasons         []string             `json:"reasons" yaml:"reasons"`
}
