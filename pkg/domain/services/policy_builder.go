package services

import (
	"fmt"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// DefaultPolicy is the policy every override is merged onto.
func DefaultPolicy() entities.CommitteePolicy {
	return entities.CommitteePolicy{
		Weights: entities.PolicyWeights{
			Cost:     0.25,
			Stockout: 0.25,
			Waste:    0.15,
			Shelf:    0.15,
			QC:       0.10,
			Labor:    0.10,
		},
		Constraints: entities.PolicyConstraints{
			MaxUnderOrderRisk: 0.2,
			EnforceShelfLife:  true,
			MinShelfLifeHours: 24,
			EnforceT24Lock:    true,
			T24LockHours:      24,
			OverOrderBuffer:   0.05,
			MaxOvertimeHours:  4,
		},
		Escalation: entities.PolicyEscalation{
			SpendDeltaPct:       0.10,
			DisagreementScore:   0.15,
			HistoryDeviationPct: 0.25,
		},
		Normalization: entities.PolicyNormalization{
			SpendCeiling:         10000,
			OvertimeCeilingHours: 8,
		},
		Quorum:          0.67,
		TargetWastePct:  0.05,
		UseHistoryAgent: true,
	}
}

// WeightOverrides are optional weight values.
type WeightOverrides struct {
	Cost     *float64 `json:"cost,omitempty" yaml:"cost,omitempty"`
	Stockout *float64 `json:"stockout,omitempty" yaml:"stockout,omitempty"`
	Waste    *float64 `json:"waste,omitempty" yaml:"waste,omitempty"`
	Shelf    *float64 `json:"shelf,omitempty" yaml:"shelf,omitempty"`
	QC       *float64 `json:"qc,omitempty" yaml:"qc,omitempty"`
	Labor    *float64 `json:"labor,omitempty" yaml:"labor,omitempty"`
}

// ConstraintOverrides are optional constraint values.
type ConstraintOverrides struct {
	MaxUnderOrderRisk *float64 `json:"max_under_order_risk,omitempty" yaml:"max_under_order_risk,omitempty"`
	EnforceShelfLife  *bool    `json:"enforce_shelf_life,omitempty" yaml:"enforce_shelf_life,omitempty"`
	MinShelfLifeHours *float64 `json:"min_shelf_life_hours,omitempty" yaml:"min_shelf_life_hours,omitempty"`
	EnforceT24Lock    *bool    `json:"enforce_t24_lock,omitempty" yaml:"enforce_t24_lock,omitempty"`
	T24LockHours      *float64 `json:"t24_lock_hours,omitempty" yaml:"t24_lock_hours,omitempty"`
	OverOrderBuffer   *float64 `json:"over_order_buffer,omitempty" yaml:"over_order_buffer,omitempty"`
	MaxOvertimeHours  *float64 `json:"max_overtime_hours,omitempty" yaml:"max_overtime_hours,omitempty"`
}

// EscalationOverrides are optional escalation thresholds.
type EscalationOverrides struct {
	SpendDeltaPct       *float64 `json:"spend_delta_pct,omitempty" yaml:"spend_delta_pct,omitempty"`
	DisagreementScore   *float64 `json:"disagreement_score,omitempty" yaml:"disagreement_score,omitempty"`
	HistoryDeviationPct *float64 `json:"history_deviation_pct,omitempty" yaml:"history_deviation_pct,omitempty"`
}

// NormalizationOverrides are optional metric scales.
type NormalizationOverrides struct {
	SpendCeiling         *float64 `json:"spend_ceiling,omitempty" yaml:"spend_ceiling,omitempty"`
	OvertimeCeilingHours *float64 `json:"overtime_ceiling_hours,omitempty" yaml:"overtime_ceiling_hours,omitempty"`
}

// PolicyOverrides is a partial policy as read from a file or built by a caller.
type PolicyOverrides struct {
	Weights         WeightOverrides        `json:"weights" yaml:"weights"`
	Constraints     ConstraintOverrides    `json:"constraints" yaml:"constraints"`
	Escalation      EscalationOverrides    `json:"escalation" yaml:"escalation"`
	Normalization   NormalizationOverrides `json:"normalization" yaml:"normalization"`
	Quorum          *float64               `json:"quorum,omitempty" yaml:"quorum,omitempty"`
	TargetWastePct  *float64               `json:"target_waste_pct,omitempty" yaml:"target_waste_pct,omitempty"`
	UseHistoryAgent *bool                  `json:"use_history_agent,omitempty" yaml:"use_history_agent,omitempty"`
}

// BuildPolicy merges overrides onto DefaultPolicy.
func BuildPolicy(overrides *PolicyOverrides, logger logging.Logger) entities.CommitteePolicy {
	return MergePolicy(DefaultPolicy(), overrides, logger)
}

// MergePolicy applies overrides to base and returns a validated policy:
// every probability is clamped to [0, 1], every threshold is non-negative,
// and the weights are rescaled to sum to 1.
func MergePolicy(base entities.CommitteePolicy, overrides *PolicyOverrides, logger logging.Logger) entities.CommitteePolicy {
	logger = logging.OrNop(logger)
	p := base
	if overrides != nil {
		setFloat(&p.Weights.Cost, overrides.Weights.Cost)
		setFloat(&p.Weights.Stockout, overrides.Weights.Stockout)
		setFloat(&p.Weights.Waste, overrides.Weights.Waste)
		setFloat(&p.Weights.Shelf, overrides.Weights.Shelf)
		setFloat(&p.Weights.QC, overrides.Weights.QC)
		setFloat(&p.Weights.Labor, overrides.Weights.Labor)

		c := overrides.Constraints
		setFloat(&p.Constraints.MaxUnderOrderRisk, c.MaxUnderOrderRisk)
		setBool(&p.Constraints.EnforceShelfLife, c.EnforceShelfLife)
		setFloat(&p.Constraints.MinShelfLifeHours, c.MinShelfLifeHours)
		setBool(&p.Constraints.EnforceT24Lock, c.EnforceT24Lock)
		setFloat(&p.Constraints.T24LockHours, c.T24LockHours)
		setFloat(&p.Constraints.OverOrderBuffer, c.OverOrderBuffer)
		setFloat(&p.Constraints.MaxOvertimeHours, c.MaxOvertimeHours)

		e := overrides.Escalation
		setFloat(&p.Escalation.SpendDeltaPct, e.SpendDeltaPct)
		setFloat(&p.Escalation.DisagreementScore, e.DisagreementScore)
		setFloat(&p.Escalation.HistoryDeviationPct, e.HistoryDeviationPct)

		setFloat(&p.Normalization.SpendCeiling, overrides.Normalization.SpendCeiling)
		setFloat(&p.Normalization.OvertimeCeilingHours, overrides.Normalization.OvertimeCeilingHours)

		setFloat(&p.Quorum, overrides.Quorum)
		setFloat(&p.TargetWastePct, overrides.TargetWastePct)
		setBool(&p.UseHistoryAgent, overrides.UseHistoryAgent)
	}
	return validatePolicy(p, logger)
}

func validatePolicy(p entities.CommitteePolicy, logger logging.Logger) entities.CommitteePolicy {
	defaults := DefaultPolicy()
	unbounded := 1e12

	w := &p.Weights
	for name, v := range map[string]*float64{
		"weights.cost": &w.Cost, "weights.stockout": &w.Stockout, "weights.waste": &w.Waste,
		"weights.shelf": &w.Shelf, "weights.qc": &w.QC, "weights.labor": &w.Labor,
	} {
		*v = util.SanitizeFloat(logger, name, *v, 0, 0, unbounded)
	}
	if sum := w.Sum(); sum <= 0 {
		logger.Warn("policy weights sum to zero, using defaults")
		p.Weights = defaults.Weights
	} else if sum != 1 {
		w.Cost /= sum
		w.Stockout /= sum
		w.Waste /= sum
		w.Shelf /= sum
		w.QC /= sum
		w.Labor /= sum
	}

	c := &p.Constraints
	c.MaxUnderOrderRisk = util.SanitizeFloat(logger, "constraints.max_under_order_risk", c.MaxUnderOrderRisk, defaults.Constraints.MaxUnderOrderRisk, 0, 1)
	c.MinShelfLifeHours = util.SanitizeFloat(logger, "constraints.min_shelf_life_hours", c.MinShelfLifeHours, defaults.Constraints.MinShelfLifeHours, 0, unbounded)
	c.T24LockHours = util.SanitizeFloat(logger, "constraints.t24_lock_hours", c.T24LockHours, defaults.Constraints.T24LockHours, 0, unbounded)
	c.OverOrderBuffer = util.SanitizeFloat(logger, "constraints.over_order_buffer", c.OverOrderBuffer, defaults.Constraints.OverOrderBuffer, 0, 1)
	c.MaxOvertimeHours = util.SanitizeFloat(logger, "constraints.max_overtime_hours", c.MaxOvertimeHours, defaults.Constraints.MaxOvertimeHours, 0, unbounded)

	e := &p.Escalation
	e.SpendDeltaPct = util.SanitizeFloat(logger, "escalation.spend_delta_pct", e.SpendDeltaPct, defaults.Escalation.SpendDeltaPct, 0, unbounded)
	e.DisagreementScore = util.SanitizeFloat(logger, "escalation.disagreement_score", e.DisagreementScore, defaults.Escalation.DisagreementScore, 0, 1)
	e.HistoryDeviationPct = util.SanitizeFloat(logger, "escalation.history_deviation_pct", e.HistoryDeviationPct, defaults.Escalation.HistoryDeviationPct, 0, unbounded)

	n := &p.Normalization
	if !(n.SpendCeiling > 0) {
		logger.Warn("spend ceiling must be positive, using default", "value", n.SpendCeiling)
		n.SpendCeiling = defaults.Normalization.SpendCeiling
	}
	n.SpendCeiling = util.SanitizeFloat(logger, "normalization.spend_ceiling", n.SpendCeiling, defaults.Normalization.SpendCeiling, 1e-9, unbounded)
	if !(n.OvertimeCeilingHours > 0) {
		logger.Warn("overtime ceiling must be positive, using default", "value", n.OvertimeCeilingHours)
		n.OvertimeCeilingHours = defaults.Normalization.OvertimeCeilingHours
	}
	n.OvertimeCeilingHours = util.SanitizeFloat(logger, "normalization.overtime_ceiling_hours", n.OvertimeCeilingHours, defaults.Normalization.OvertimeCeilingHours, 1e-9, unbounded)

	p.Quorum = util.SanitizeFloat(logger, "quorum", p.Quorum, defaults.Quorum, 0, 1)
	if p.Quorum == 0 {
		logger.Warn("quorum of zero would approve without votes, using default")
		p.Quorum = defaults.Quorum
	}
	p.TargetWastePct = util.SanitizeFloat(logger, "target_waste_pct", p.TargetWastePct, defaults.TargetWastePct, 0, 1)
	return p
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// DescribePolicy renders the policy on one line for logs.
func DescribePolicy(p entities.CommitteePolicy) string {
	return fmt.Sprintf("quorum=%.2f max_risk=%.2f buffer=%.2f shelf>=%.0fh lock=%.0fh history=%t",
		p.Quorum, p.Constraints.MaxUnderOrderRisk, p.Constraints.OverOrderBuffer,
		p.Constraints.MinShelfLifeHours, p.Constraints.T24LockHours, p.UseHistoryAgent)
}
