package dto

import (
	"time"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
)

// CommitteeInputs are the caller snapshots a committee run plans from.
type CommitteeInputs struct {
	Demand          []entities.DemandItem             `json:"demand" yaml:"demand"`
	Inventory       []entities.InventorySnapshotItem  `json:"inventory" yaml:"inventory"`
	Catalog         []entities.SupplierOption         `json:"catalog" yaml:"catalog"`
	History         []entities.HistoricalDemandSample `json:"history,omitempty" yaml:"history,omitempty"`
	CartTemplates   []entities.CartTemplate           `json:"cart_templates,omitempty" yaml:"cart_templates,omitempty"`
	PrepStations    []entities.PrepStation            `json:"prep_stations,omitempty" yaml:"prep_stations,omitempty"`
	LockedPrepTasks []entities.PrepTask               `json:"locked_prep_tasks,omitempty" yaml:"locked_prep_tasks,omitempty"`
}

// Snapshot views the inputs as a domain input snapshot.
func (in *CommitteeInputs) Snapshot() services.InputSnapshot {
	return services.InputSnapshot{
		Demand:          in.Demand,
		Inventory:       in.Inventory,
		Catalog:         in.Catalog,
		History:         in.History,
		CartTemplates:   in.CartTemplates,
		PrepStations:    in.PrepStations,
		LockedPrepTasks: in.LockedPrepTasks,
	}
}

// AuditStage names the step that produced an audit entry.
type AuditStage string

const (
	StageProposed  AuditStage = "proposed"
	StageCritiqued AuditStage = "critiqued"
	StagePatched   AuditStage = "patched"
	StageDecided   AuditStage = "decided"
)

// AuditEntry is a snapshot of one step of one iteration.
type AuditEntry struct {
	Iteration int                          `json:"iteration" yaml:"iteration"`
	Stage     AuditStage                   `json:"stage" yaml:"stage"`
	At        time.Time                    `json:"at" yaml:"at"`
	Proposal  *entities.CommitteeProposal  `json:"proposal" yaml:"proposal"`
	Critiques []entities.CommitteeCritique `json:"critiques,omitempty" yaml:"critiques,omitempty"`
	Metrics   entities.CommitteeMetrics    `json:"metrics" yaml:"metrics"`
	Status    entities.DecisionStatus      `json:"status,omitempty" yaml:"status,omitempty"`
	Patches   []services.PatchOutcome      `json:"patches,omitempty" yaml:"patches,omitempty"`
}

// CommitteeRunResult is everything one committee run produced.
type CommitteeRunResult struct {
	RunID           string                      `json:"run_id" yaml:"run_id"`
	Context         entities.CommitteeContext   `json:"context" yaml:"context"`
	InitialProposal *entities.CommitteeProposal `json:"initial_proposal" yaml:"initial_proposal"`
	Decision        entities.CommitteeDecision  `json:"decision" yaml:"decision"`
	Validation      *services.ValidationResult  `json:"validation,omitempty" yaml:"validation,omitempty"`
	// Inputs are the snapshots the run planned from; Iterate reviews later
	// revisions against the same locked tasks and history.
	Inputs *CommitteeInputs `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Audit  []AuditEntry     `json:"audit" yaml:"audit"`
}

// Iterations returns how many committee passes the audit trail records.
func (r *CommitteeRunResult) Iterations() int {
	last := 0
	for _, entry := range r.Audit {
		if entry.Iteration > last {
			last = entry.Iteration
		}
	}
	return last
}
