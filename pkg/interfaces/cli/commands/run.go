package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/prepcommittee/pkg/application/services/orchestration"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/events"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/prepcommittee/pkg/interfaces/cli/output"
)

type runOptions struct {
	scenario  string
	outputDir string
	audit     bool
	strict    bool
}

func newRunCommand(opts *Options) *cobra.Command {
	ro := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Plan a scenario and put it to the committee",
		Long: `Load a scenario directory, generate a proposal, collect critiques and
print the committee decision.

Examples:
  committee run --scenario ./scenarios/banquet
  committee run --scenario ./scenarios/banquet --mode triple -o json
  committee run --scenario ./scenarios/banquet -o csv --output-dir ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommittee(cmd, opts, ro)
		},
	}
	cmd.Flags().StringVarP(&ro.scenario, "scenario", "s", "", "Scenario directory containing CSV files")
	cmd.Flags().StringVar(&ro.outputDir, "output-dir", "", "Directory for csv output")
	cmd.Flags().BoolVar(&ro.audit, "audit", false, "Include the audit trail in text output")
	cmd.Flags().BoolVar(&ro.strict, "strict", false, "Exit non-zero unless the plan is approved")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}

func runCommittee(cmd *cobra.Command, opts *Options, ro *runOptions) error {
	logger := opts.logger(cmd.ErrOrStderr())

	cctx, err := opts.resolveContext(cmd, logger)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	inputs, err := csv.NewLoader(logger).LoadScenario(ro.scenario)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}

	store := events.NewInMemoryEventStore(logger)
	orchestrator := orchestration.NewOrchestrator(logger, orchestration.WithEventStore(store))

	start := time.Now()
	result, err := orchestrator.RunCommittee(cmd.Context(), inputs, cctx)
	if err != nil {
		return fmt.Errorf("committee run failed: %w", err)
	}
	logger.Info("committee finished",
		"run_id", result.RunID,
		"status", result.Decision.Status,
		"events", store.Position(),
		"elapsed", time.Since(start))

	err = output.Generate(cmd.OutOrStdout(), result, output.Config{
		Format:    opts.Output,
		OutputDir: ro.outputDir,
		Audit:     ro.audit,
	})
	if err != nil {
		return err
	}
	if ro.strict && result.Decision.Status != entities.DecisionApproved {
		return fmt.Errorf("committee decision: %s", result.Decision.Status)
	}
	return nil
}
