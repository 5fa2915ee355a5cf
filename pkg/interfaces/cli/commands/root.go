// Package commands wires the committee CLI.
package commands

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/config"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// Options are the flags shared by every subcommand.
type Options struct {
	Verbose    bool
	Output     string
	PolicyFile string
	EnvFile    string

	// Overrides; applied only when the flag was set.
	Mode            string
	ServiceDate     string
	Quorum          float64
	NoAutoRemediate bool
	NoHistoryAgent  bool

	// Getenv and Clock are replaced in tests.
	Getenv func(string) string
	Clock  util.Clock
}

// NewRootCommand builds the committee command tree.
func NewRootCommand() *cobra.Command {
	opts := &Options{Getenv: os.Getenv, Clock: util.SystemClock}

	root := &cobra.Command{
		Use:   "committee",
		Short: "Prep committee planning engine",
		Long: `committee plans purchasing and kitchen prep for a service and has it
reviewed by a committee of agents before anything is ordered.

Core Commands:
  run       Plan a scenario directory and decide
  validate  Report input inconsistencies
  policy    Print the effective policy`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.EnvFile != "" {
				config.LoadDotEnv(opts.EnvFile)
			} else {
				config.LoadDotEnv()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Enable debug logging on stderr")
	flags.StringVarP(&opts.Output, "output", "o", "text", "Output format (text, json, yaml, csv)")
	flags.StringVar(&opts.PolicyFile, "config", "", "Policy file (YAML)")
	flags.StringVar(&opts.EnvFile, "env-file", "", "Environment file (default: .env)")
	flags.StringVar(&opts.Mode, "mode", "", "Committee mode (single, dual, triple)")
	flags.StringVar(&opts.ServiceDate, "service-date", "", "Service date (RFC 3339 or YYYY-MM-DD)")
	flags.Float64Var(&opts.Quorum, "quorum", 0, "Approval quorum in [0, 1]")
	flags.BoolVar(&opts.NoAutoRemediate, "no-auto-remediate", false, "Do not apply non-blocking patches")
	flags.BoolVar(&opts.NoHistoryAgent, "no-history-agent", false, "Leave the historian out of triple mode")

	root.AddCommand(newRunCommand(opts), newValidateCommand(opts), newPolicyCommand(opts))
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}

func (o *Options) logger(w io.Writer) logging.Logger {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// resolveContext layers defaults, the policy file, the environment and the
// command line flags, in increasing precedence.
func (o *Options) resolveContext(cmd *cobra.Command, logger logging.Logger) (entities.CommitteeContext, error) {
	file, err := config.LoadPolicyFile(o.PolicyFile)
	if err != nil {
		return entities.CommitteeContext{}, err
	}
	if err := config.ApplyEnv(file, o.Getenv); err != nil {
		return entities.CommitteeContext{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		file.Context.Mode = o.Mode
	}
	if flags.Changed("service-date") {
		file.Context.ServiceDate = o.ServiceDate
	}
	if flags.Changed("quorum") {
		q := o.Quorum
		file.Policy.Quorum = &q
	}
	if flags.Changed("no-auto-remediate") {
		auto := !o.NoAutoRemediate
		file.Context.AutoRemediate = &auto
	}
	if flags.Changed("no-history-agent") {
		use := !o.NoHistoryAgent
		file.Policy.UseHistoryAgent = &use
	}

	now := time.Now
	if o.Clock != nil {
		now = o.Clock
	}
	return config.Resolve(file, now(), logger)
}
