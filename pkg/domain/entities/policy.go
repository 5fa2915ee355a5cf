package entities

import (
	"fmt"
	"strings"
	"time"
)

// CommitteeMode selects how many agents vote.
type CommitteeMode string

const (
	ModeSingle CommitteeMode = "single"
	ModeDual   CommitteeMode = "dual"
	ModeTriple CommitteeMode = "triple"
)

// ParseMode accepts a mode name in any case.
func ParseMode(s string) (CommitteeMode, error) {
	switch CommitteeMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSingle:
		return ModeSingle, nil
	case ModeDual:
		return ModeDual, nil
	case ModeTriple:
		return ModeTriple, nil
	default:
		return ModeDual, fmt.Errorf("invalid committee mode: %s (expected: single, dual, or triple)", s)
	}
}

// Voters lists the agents whose votes count in mode.
func (m CommitteeMode) Voters() []AgentName {
	switch m {
	case ModeSingle:
		return []AgentName{AgentPlanner}
	case ModeTriple:
		return []AgentName{AgentPlanner, AgentRisk, AgentHistorian}
	default:
		return []AgentName{AgentPlanner, AgentRisk}
	}
}

// AllowsAutoRemediation reports whether non-blocking patches may be applied
// without a human. Single mode has no critic to propose them.
func (m CommitteeMode) AllowsAutoRemediation() bool {
	return m == ModeDual || m == ModeTriple
}

// PolicyWeights weight the normalised metric components. They sum to 1.
type PolicyWeights struct {
	Cost     float64 `json:"cost" yaml:"cost"`
	Stockout float64 `json:"stockout" yaml:"stockout"`
	Waste    float64 `json:"waste" yaml:"waste"`
	Shelf    float64 `json:"shelf" yaml:"shelf"`
	QC       float64 `json:"qc" yaml:"qc"`
	Labor    float64 `json:"labor" yaml:"labor"`
}

// Sum adds all weights.
func (w PolicyWeights) Sum() float64 {
	return w.Cost + w.Stockout + w.Waste + w.Shelf + w.QC + w.Labor
}

// PolicyConstraints are the hard and soft planning limits.
type PolicyConstraints struct {
	MaxUnderOrderRisk float64 `json:"max_under_order_risk" yaml:"max_under_order_risk"`
	EnforceShelfLife  bool    `json:"enforce_shelf_life" yaml:"enforce_shelf_life"`
	MinShelfLifeHours float64 `json:"min_shelf_life_hours" yaml:"min_shelf_life_hours"`
	EnforceT24Lock    bool    `json:"enforce_t24_lock" yaml:"enforce_t24_lock"`
	T24LockHours      float64 `json:"t24_lock_hours" yaml:"t24_lock_hours"`
	OverOrderBuffer   float64 `json:"over_order_buffer" yaml:"over_order_buffer"`
	MaxOvertimeHours  float64 `json:"max_overtime_hours" yaml:"max_overtime_hours"`
}

// PolicyEscalation holds the thresholds that send a plan to a human.
type PolicyEscalation struct {
	SpendDeltaPct       float64 `json:"spend_delta_pct" yaml:"spend_delta_pct"`
	DisagreementScore   float64 `json:"disagreement_score" yaml:"disagreement_score"`
	HistoryDeviationPct float64 `json:"history_deviation_pct" yaml:"history_deviation_pct"`
}

// PolicyNormalization scales unbounded metrics into [0, 1].
type PolicyNormalization struct {
	SpendCeiling         float64 `json:"spend_ceiling" yaml:"spend_ceiling"`
	OvertimeCeilingHours float64 `json:"overtime_ceiling_hours" yaml:"overtime_ceiling_hours"`
}

// CommitteePolicy is always fully populated; build it with services.BuildPolicy.
type CommitteePolicy struct {
	Weights         PolicyWeights       `json:"weights" yaml:"weights"`
	Constraints     PolicyConstraints   `json:"constraints" yaml:"constraints"`
	Escalation      PolicyEscalation    `json:"escalation" yaml:"escalation"`
	Normalization   PolicyNormalization `json:"normalization" yaml:"normalization"`
	Quorum          float64             `json:"quorum" yaml:"quorum"`
	TargetWastePct  float64             `json:"target_waste_pct" yaml:"target_waste_pct"`
	UseHistoryAgent bool                `json:"use_history_agent" yaml:"use_history_agent"`
}

// Fingerprint is a stable textual form used as a cache key.
func (p CommitteePolicy) Fingerprint() string {
	return fmt.Sprintf("%+v", p)
}

// CommitteeContext is the run configuration.
type CommitteeContext struct {
	Mode          CommitteeMode   `json:"mode" yaml:"mode"`
	HorizonDays   int             `json:"horizon_days" yaml:"horizon_days"`
	ServiceDate   time.Time       `json:"service_date" yaml:"service_date"`
	GeneratedAt   time.Time       `json:"generated_at" yaml:"generated_at"`
	AutoRemediate bool            `json:"auto_remediate" yaml:"auto_remediate"`
	Policy        CommitteePolicy `json:"policy" yaml:"policy"`
}

// AutoRemediationEnabled combines the mode's capability with the caller's switch.
func (c CommitteeContext) AutoRemediationEnabled() bool {
	return c.AutoRemediate && c.Mode.AllowsAutoRemediation()
}
