package entities

import "time"

// Severity grades notes and issues.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AgentName identifies a committee member.
type AgentName string

const (
	AgentPlanner   AgentName = "planner"
	AgentRisk      AgentName = "risk"
	AgentHistorian AgentName = "historian"
	AgentDecision  AgentName = "decision"
)

// CommitteeNote is a timestamped message kept for the human-readable audit trail.
type CommitteeNote struct {
	ID       string    `json:"id" yaml:"id"`
	Agent    AgentName `json:"agent" yaml:"agent"`
	Severity Severity  `json:"severity" yaml:"severity"`
	Message  string    `json:"message" yaml:"message"`
	At       time.Time `json:"at" yaml:"at"`
}
