package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/prepcommittee/pkg/interfaces/cli/output"
)

func newPolicyCommand(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the effective run context and policy",
		Long: `Resolve defaults, the policy file, COMMITTEE_* environment variables and
flags, and print the result.

Examples:
  committee policy --config policy.yaml
  COMMITTEE_MODE=triple committee policy -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cctx, err := opts.resolveContext(cmd, opts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return output.Value(cmd.OutOrStdout(), cctx, opts.Output)
		},
	}
}
