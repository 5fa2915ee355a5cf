package events

import (
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
)

const (
	ProposalCreatedEvent  = "proposal.created"
	CritiqueRecordedEvent = "critique.recorded"
	PatchesAppliedEvent   = "patches.applied"
	DecisionReachedEvent  = "decision.reached"
)

// CommitteeEventTypes lists every event a committee run publishes.
var CommitteeEventTypes = []string{
	ProposalCreatedEvent,
	CritiqueRecordedEvent,
	PatchesAppliedEvent,
	DecisionReachedEvent,
}

type ProposalCreated struct {
	RunID     string `json:"run_id"`
	Iteration int    `json:"iteration"`
	// ProposalID is the proposal's id; the proposal itself lives in the audit trail.
	ProposalID string             `json:"proposal_id"`
	Revision   int                `json:"revision"`
	Agent      entities.AgentName `json:"agent"`
	Items      int                `json:"items"`
	Orders     int                `json:"orders"`
}

type CritiqueRecorded struct {
	RunID      string             `json:"run_id"`
	Iteration  int                `json:"iteration"`
	ProposalID string             `json:"proposal_id"`
	Agent      entities.AgentName `json:"agent"`
	Issues     int                `json:"issues"`
	Blocking   bool               `json:"blocking"`
	Approve    bool               `json:"approve"`
	Failed     bool               `json:"failed"`
}

type PatchesApplied struct {
	RunID      string   `json:"run_id"`
	Iteration  int      `json:"iteration"`
	FromID     string   `json:"from_id"`
	ProposalID string   `json:"proposal_id"`
	PatchIDs   []string `json:"patch_ids"`
}

type DecisionReached struct {
	RunID      string                  `json:"run_id"`
	Iteration  int                     `json:"iteration"`
	ProposalID string                  `json:"proposal_id"`
	Status     entities.DecisionStatus `json:"status"`
	Score      float64                 `json:"score"`
	Reasons    []string                `json:"reasons"`
}
