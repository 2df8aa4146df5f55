package timescaledb

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

// NewCommand builds the check_timescaledb command tree.
func NewCommand() *cobra.Command {
	flags := &nagios.ConnectionFlags{}
	opts := &Options{}

	root := &cobra.Command{
		Use:   "check_timescaledb [global flags] <check>",
		Short: "Nagios plugin probing a PostgreSQL/TimescaleDB instance.",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stderr, "check_timescaledb called without a check, see --help for usage.")
			os.Exit(nagios.StateUnknown.ExitCode())
		},
	}
	flags.AddFlags(root, 5432)
	root.PersistentFlags().StringVarP(&opts.DBName, "dbname", "d", "postgres", "database to connect to")
	root.PersistentFlags().StringVar(&opts.SSLMode, "sslmode", "", "libpq sslmode, e.g. disable, require, verify-full")
	root.DisableAutoGenTag = true
	root.DisableSuggestions = true

	root.AddCommand(
		extensionCommand(flags, opts),
		recoveryCommand(flags, opts),
		uptimeCommand(flags, opts),
		connectionsCommand(flags, opts),
		hypertablesCommand(flags, opts),
	)

	return root
}

func extensionCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "extension",
		Short: "Verify the timescaledb extension is installed.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "extension", func() ([]nagios.Context, error) {
				return []nagios.Context{
					nagios.NewBoolContext("extension", true, nagios.StateCritical),
				}, nil
			})
		},
	}
}

func recoveryCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	var recoveryWarning bool
	cmd := &cobra.Command{
		Use:   "recovery",
		Short: "Alert when the instance is a recovering standby.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "recovery", func() ([]nagios.Context, error) {
				state := nagios.StateCritical
				if recoveryWarning {
					state = nagios.StateWarning
				}

				return []nagios.Context{
					nagios.NewBoolContext("recovery", false, state),
				}, nil
			})
		},
	}
	cmd.Flags().BoolVar(&recoveryWarning, "recovery-warning", false, "report recovery mode as WARNING instead of CRITICAL")

	return cmd
}

func uptimeCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	var warning, critical string
	cmd := &cobra.Command{
		Use:   "uptime",
		Short: "Alert when the postmaster restarted recently.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "uptime", func() ([]nagios.Context, error) {
				ctx, err := nagios.NewInvertedScalarContext("uptime", warning, critical)
				if err != nil {
					return nil, err
				}

				return []nagios.Context{ctx}, nil
			})
		},
	}
	cmd.Flags().StringVarP(&warning, "warning", "w", "300", "warn when uptime drops below this many seconds")
	cmd.Flags().StringVarP(&critical, "critical", "c", "60", "critical when uptime drops below this many seconds")

	return cmd
}

func connectionsCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	var warning, critical string
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Check the number of active backends.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "connections", func() ([]nagios.Context, error) {
				ctx, err := nagios.NewScalarContext("connections", warning, critical)
				if err != nil {
					return nil, err
				}

				return []nagios.Context{ctx}, nil
			})
		},
	}
	cmd.Flags().StringVarP(&warning, "warning", "w", "80", "warning range for active backends")
	cmd.Flags().StringVarP(&critical, "critical", "c", "100", "critical range for active backends")

	return cmd
}

func hypertablesCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	var warning, critical string
	cmd := &cobra.Command{
		Use:   "hypertables",
		Short: "Count hypertables in every connectable database.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "hypertables", func() ([]nagios.Context, error) {
				count, err := nagios.NewScalarContext("hypertables", warning, critical)
				if err != nil {
					return nil, err
				}

				return []nagios.Context{
					count,
					nagios.NewBoolContext("db_reachable", true, nagios.StateCritical),
				}, nil
			})
		},
	}
	cmd.Flags().StringVarP(&warning, "warning", "w", "0", "warning range for hypertables per database")
	cmd.Flags().StringVarP(&critical, "critical", "c", "0", "critical range for hypertables per database")

	return cmd
}

func runCheck(flags *nagios.ConnectionFlags, opts *Options, command string, buildContexts func() ([]nagios.Context, error)) {
	flags.SetupLogging()
	log := nagios.Logger()

	contexts, err := buildContexts()
	if err != nil {
		nagios.ExitUnknown(err)
	}

	opts.Host = flags.Host
	opts.Port = flags.Port
	opts.Timeout = flags.Timeout
	opts.User, opts.Password = flags.ResolveCredentials()

	ctx, cancel := context.WithTimeout(context.Background(), flags.Timeout)
	res, err := NewResource(ctx, command, opts, log)
	if err != nil {
		cancel()
		nagios.ExitUnknown(err)
	}

	result := nagios.NewCheck(res, log, contexts...).Run(ctx)
	res.Close(ctx)
	cancel()
	nagios.Exit(result)
}
