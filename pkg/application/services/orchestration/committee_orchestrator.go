// Package orchestration runs the committee: the planner proposes, the
// critique agents review concurrently, and the decision engine reduces their
// critiques to a terminal status with a full audit trail.
package orchestration

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/application/services/critique"
	"github.com/vsinha/prepcommittee/pkg/application/services/decision"
	"github.com/vsinha/prepcommittee/pkg/application/services/metrics"
	"github.com/vsinha/prepcommittee/pkg/application/services/planner"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/events"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// AgentFactory builds the critique agents for one iteration.
type AgentFactory func(cctx entities.CommitteeContext, logger logging.Logger) []critique.Agent

// DefaultAgents enables the risk agent in dual and triple mode and the
// historian in triple mode when the policy asks for it. Each agent numbers
// its own issues, so ids do not depend on goroutine scheduling.
func DefaultAgents(cctx entities.CommitteeContext, logger logging.Logger) []critique.Agent {
	var agents []critique.Agent
	if cctx.Mode == entities.ModeSingle {
		return agents
	}
	agents = append(agents, critique.NewRiskAgent(nil, logger))
	if cctx.Mode == entities.ModeTriple && cctx.Policy.UseHistoryAgent {
		agents = append(agents, critique.NewHistorianAgent(nil, logger))
	}
	return agents
}

// Orchestrator coordinates the planner, the critique agents and the decision engine
type Orchestrator struct {
	plannerConfig planner.Config
	agents        AgentFactory
	eventStore    events.EventStore
	clock         util.Clock
	newRunID      func() string
	cacheEntries  int
	logger        logging.Logger
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithEventStore publishes audit events to store.
func WithEventStore(store events.EventStore) Option {
	return func(o *Orchestrator) { o.eventStore = store }
}

// WithClock sets the clock used when a context carries no generation time.
func WithClock(clock util.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithRunIDs replaces the uuid run id source.
func WithRunIDs(next func() string) Option {
	return func(o *Orchestrator) { o.newRunID = next }
}

// WithAgents replaces the critique agent line-up.
func WithAgents(factory AgentFactory) Option {
	return func(o *Orchestrator) { o.agents = factory }
}

// WithPlannerConfig replaces the planner heuristics.
func WithPlannerConfig(config planner.Config) Option {
	return func(o *Orchestrator) { o.plannerConfig = config }
}

// WithMetricsCache sizes the per-run metrics cache.
func WithMetricsCache(entries int) Option {
	return func(o *Orchestrator) { o.cacheEntries = entries }
}

// NewOrchestrator creates a committee orchestrator
func NewOrchestrator(logger logging.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		plannerConfig: planner.DefaultConfig(),
		agents:        DefaultAgents,
		clock:         util.SystemClock,
		newRunID:      uuid.NewString,
		cacheEntries:  metrics.DefaultCacheEntries,
		logger:        logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run is the state of one committee iteration
type run struct {
	id        string
	iteration int
	cctx      entities.CommitteeContext
	inputs    *dto.CommitteeInputs
	ids       services.IDSource
	planner   *planner.Planner
	engine    *decision.Engine
	evaluator metrics.Evaluator
	logger    logging.Logger
}

func (o *Orchestrator) newRun(runID string, iteration int, cctx entities.CommitteeContext, inputs *dto.CommitteeInputs) (*run, error) {
	var ids services.IDSource = util.NewIDGenerator()
	if iteration > 1 {
		ids = util.ScopedIDs{Scope: fmt.Sprintf("it%d", iteration), Base: ids}
	}
	evaluator, err := metrics.NewCachedEvaluator(o.cacheEntries)
	if err != nil {
		return nil, err
	}
	logger := logging.With(o.logger, "run", runID, "iteration", iteration)
	return &run{
		id:        runID,
		iteration: iteration,
		cctx:      cctx,
		inputs:    inputs,
		ids:       ids,
		planner:   planner.NewWithConfig(o.plannerConfig, ids, logger),
		engine:    decision.NewEngine(ids, evaluator, logger),
		evaluator: evaluator,
		logger:    logger,
	}, nil
}

// RunCommittee plans, reviews and decides. Business problems surface in the
// decision; an error means the inputs could not be planned at all or ctx
// ended before the committee finished.
func (o *Orchestrator) RunCommittee(
	ctx context.Context,
	inputs *dto.CommitteeInputs,
	cctx entities.CommitteeContext,
) (*dto.CommitteeRunResult, error) {
	if inputs == nil {
		return nil, fmt.Errorf("committee inputs cannot be nil")
	}
	cctx = o.normalizeContext(cctx)

	r, err := o.newRun(o.newRunID(), 1, cctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to start committee run: %w", err)
	}

	validation := services.NewInputValidator().Validate(inputs.Snapshot())
	for _, w := range validation.Warnings {
		r.logger.Warn("input inconsistency", "detail", w)
	}

	// Step 1: Planner proposal
	proposal, err := r.planner.Propose(ctx, inputs, cctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate proposal: %w", err)
	}

	result := &dto.CommitteeRunResult{
		RunID:           r.id,
		Context:         cctx,
		InitialProposal: proposal,
		Validation:      validation,
		Inputs:          inputs,
		Audit:           []dto.AuditEntry{},
	}
	o.record(r, result, dto.AuditEntry{Stage: dto.StageProposed, Proposal: proposal, Metrics: r.evaluator.Evaluate(proposal, cctx.Policy)})
	o.publish(r, events.ProposalCreatedEvent, events.ProposalCreated{
		RunID: r.id, Iteration: r.iteration, ProposalID: proposal.ID, Revision: proposal.Revision,
		Agent: proposal.GeneratedBy, Items: len(proposal.Items), Orders: len(proposal.PurchaseOrders),
	})

	// Steps 2 and 3: review and decide
	if err := o.review(ctx, r, result, proposal, proposal); err != nil {
		return nil, err
	}
	return result, nil
}

// Iterate re-runs review and decision on an externally patched proposal.
// The proposal is recorded as a new revision of the previous final proposal,
// spend is still compared with the planner's original, and the returned
// result carries the previous audit trail followed by this iteration.
func (o *Orchestrator) Iterate(
	ctx context.Context,
	previous *dto.CommitteeRunResult,
	inputs *dto.CommitteeInputs,
	patched *entities.CommitteeProposal,
) (*dto.CommitteeRunResult, error) {
	if previous == nil || patched == nil {
		return nil, fmt.Errorf("iteration requires a previous result and a patched proposal")
	}
	if inputs == nil {
		inputs = previous.Inputs
	}
	if inputs == nil {
		return nil, fmt.Errorf("iteration requires the inputs of the previous run")
	}

	r, err := o.newRun(previous.RunID, previous.Iterations()+1, previous.Context, inputs)
	if err != nil {
		return nil, fmt.Errorf("failed to start committee iteration: %w", err)
	}

	proposal := patched.Clone()
	if parent := previous.Decision.FinalProposal; parent != nil {
		proposal.ParentID = parent.ID
		proposal.Revision = parent.Revision + 1
	}
	proposal.ID = r.ids.UniqueID("proposal")
	for i := range proposal.PurchaseOrders {
		proposal.PurchaseOrders[i].Recalculate()
	}
	services.RefreshGateRisks(proposal)

	result := &dto.CommitteeRunResult{
		RunID:           previous.RunID,
		Context:         previous.Context,
		InitialProposal: previous.InitialProposal,
		Validation:      previous.Validation,
		Inputs:          inputs,
		Audit:           append([]dto.AuditEntry(nil), previous.Audit...),
	}
	o.record(r, result, dto.AuditEntry{Stage: dto.StageProposed, Proposal: proposal, Metrics: r.evaluator.Evaluate(proposal, r.cctx.Policy)})
	o.publish(r, events.ProposalCreatedEvent, events.ProposalCreated{
		RunID: r.id, Iteration: r.iteration, ProposalID: proposal.ID, Revision: proposal.Revision,
		Agent: proposal.GeneratedBy, Items: len(proposal.Items), Orders: len(proposal.PurchaseOrders),
	})

	baseline := previous.InitialProposal
	if baseline == nil {
		baseline = proposal
	}
	if err := o.review(ctx, r, result, proposal, baseline); err != nil {
		return nil, err
	}
	return result, nil
}

func (o *Orchestrator) review(
	ctx context.Context,
	r *run,
	result *dto.CommitteeRunResult,
	proposal *entities.CommitteeProposal,
	baseline *entities.CommitteeProposal,
) error {
	critiques := []entities.CommitteeCritique{r.planner.SelfCheck(proposal, r.cctx)}
	reviewed, err := o.critique(ctx, r, proposal)
	if err != nil {
		return err
	}
	critiques = append(critiques, reviewed...)

	for _, c := range critiques {
		o.publish(r, events.CritiqueRecordedEvent, events.CritiqueRecorded{
			RunID: r.id, Iteration: r.iteration, ProposalID: proposal.ID, Agent: c.Agent,
			Issues: len(c.Issues), Blocking: c.HasBlocking(), Approve: c.Approve, Failed: c.Failed,
		})
	}
	o.record(r, result, dto.AuditEntry{
		Stage:     dto.StageCritiqued,
		Proposal:  proposal,
		Critiques: critiques,
		Metrics:   r.evaluator.Evaluate(proposal, r.cctx.Policy),
	})

	var locked []entities.PrepTask
	if r.inputs != nil {
		locked = r.inputs.LockedPrepTasks
	}
	outcome, err := r.engine.Decide(decision.Input{
		Proposal:        proposal,
		Baseline:        baseline,
		Critiques:       critiques,
		Context:         r.cctx,
		LockedPrepTasks: locked,
	})
	if err != nil {
		return fmt.Errorf("failed to reach decision: %w", err)
	}
	d := outcome.Decision

	if d.FinalProposal != proposal {
		o.record(r, result, dto.AuditEntry{
			Stage:    dto.StagePatched,
			Proposal: d.FinalProposal,
			Metrics:  d.Metrics,
			Patches:  outcome.Patches,
		})
		o.publish(r, events.PatchesAppliedEvent, events.PatchesApplied{
			RunID: r.id, Iteration: r.iteration, FromID: proposal.ID, ProposalID: d.FinalProposal.ID, PatchIDs: d.AppliedPatches,
		})
	}

	o.record(r, result, dto.AuditEntry{
		Stage:     dto.StageDecided,
		Proposal:  d.FinalProposal,
		Critiques: critiques,
		Metrics:   d.Metrics,
		Status:    d.Status,
	})
	o.publish(r, events.DecisionReachedEvent, events.DecisionReached{
		RunID: r.id, Iteration: r.iteration, ProposalID: d.FinalProposal.ID, Status: d.Status,
		Score: d.Metrics.Score, Reasons: d.Reasons,
	})

	result.Decision = d
	r.logger.Info("committee decided",
		"status", string(d.Status),
		"proposal", d.FinalProposal.ID,
		"approvals", len(d.Tally.Approvals),
		"voters", len(d.Tally.Voters))
	return nil
}

// critique fans the proposal out to every agent and waits for all of them.
// An agent that fails or panics is recorded as a failed, rejecting critique.
func (o *Orchestrator) critique(ctx context.Context, r *run, proposal *entities.CommitteeProposal) ([]entities.CommitteeCritique, error) {
	agents := o.agents(r.cctx, r.logger)
	results := make([]*entities.CommitteeCritique, len(agents))

	var g errgroup.Group
	for i, agent := range agents {
		i, agent := i, agent
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("critique agent panicked", "agent", string(agent.Name()), "panic", rec, "stack", string(debug.Stack()))
					results[i] = failedCritique(r, agent.Name(), proposal, fmt.Errorf("agent panicked: %v", rec))
				}
			}()
			c, err := agent.Critique(ctx, proposal, r.cctx, r.inputs)
			if err != nil {
				r.logger.Error("critique agent failed", "agent", string(agent.Name()), "error", err)
				results[i] = failedCritique(r, agent.Name(), proposal, err)
				return nil
			}
			results[i] = c
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("committee review interrupted: %w", err)
	}

	critiques := make([]entities.CommitteeCritique, 0, len(results))
	for i, c := range results {
		if c == nil {
			r.logger.Debug("agent abstained", "agent", string(agents[i].Name()))
			continue
		}
		critiques = append(critiques, *c)
	}
	return critiques, nil
}

func failedCritique(r *run, agent entities.AgentName, proposal *entities.CommitteeProposal, err error) *entities.CommitteeCritique {
	return &entities.CommitteeCritique{
		Agent:      agent,
		ProposalID: proposal.ID,
		Issues: []entities.CommitteeIssue{{
			ID:       r.ids.UniqueID(string(agent) + "-issue"),
			Agent:    agent,
			Code:     entities.IssueAgentFailed,
			Severity: entities.SeverityCritical,
			Message:  fmt.Sprintf("%s agent did not complete: %v", agent, err),
		}},
		Patches: []entities.CommitteePatch{},
		Metrics: r.evaluator.Evaluate(proposal, r.cctx.Policy),
		Failed:  true,
	}
}

func (o *Orchestrator) normalizeContext(cctx entities.CommitteeContext) entities.CommitteeContext {
	if cctx.Mode == "" {
		cctx.Mode = entities.ModeDual
	}
	if cctx.Policy == (entities.CommitteePolicy{}) {
		cctx.Policy = services.DefaultPolicy()
	} else {
		cctx.Policy = services.MergePolicy(cctx.Policy, nil, o.logger)
	}
	if cctx.GeneratedAt.IsZero() {
		cctx.GeneratedAt = o.clock()
	}
	return cctx
}

func (o *Orchestrator) record(r *run, result *dto.CommitteeRunResult, entry dto.AuditEntry) {
	entry.Iteration = r.iteration
	entry.At = r.cctx.GeneratedAt
	result.Audit = append(result.Audit, entry)
}

func (o *Orchestrator) publish(r *run, eventType string, data any) {
	if o.eventStore == nil {
		return
	}
	if err := o.eventStore.AppendEvent(r.id, events.NewEvent(eventType, r.id, data, r.cctx.GeneratedAt)); err != nil {
		r.logger.Warn("failed to publish committee event", "event", eventType, "error", err)
	}
}
