package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/prepcommittee/pkg/interfaces/cli/output"
)

func newValidateCommand(opts *Options) *cobra.Command {
	var scenario string
	var strict bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Report input inconsistencies in a scenario",
		Long: `Check a scenario directory for duplicate demand ids, items nobody sells,
catalog and inventory rows for unknown items and ineligible supplier options.
Findings are warnings; the committee still runs on such inputs.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger(cmd.ErrOrStderr())
			inputs, err := csv.NewLoader(logger).LoadScenario(scenario)
			if err != nil {
				return fmt.Errorf("error loading scenario: %w", err)
			}
			result := services.NewInputValidator().Validate(inputs.Snapshot())
			if err := output.Value(cmd.OutOrStdout(), result, opts.Output); err != nil {
				return err
			}
			if strict && result.HasWarnings() {
				return fmt.Errorf("%d input warnings", len(result.Warnings))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&scenario, "scenario", "s", "", "Scenario directory containing CSV files")
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when anything is reported")
	_ = cmd.MarkFlagRequired("scenario")
	return cmd
}
