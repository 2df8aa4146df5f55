package clickhouse

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

// NewCommand builds the check_clickhouse command tree: shared connection
// flags on the root, one subcommand per check.
func NewCommand() *cobra.Command {
	flags := &nagios.ConnectionFlags{}
	opts := &Options{}

	root := &cobra.Command{
		Use:   "check_clickhouse [global flags] <check>",
		Short: "Nagios plugin probing a ClickHouse instance.",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stderr, "check_clickhouse called without a check, see --help for usage.")
			os.Exit(nagios.StateUnknown.ExitCode())
		},
	}
	flags.AddFlags(root, 9000)
	root.PersistentFlags().StringVarP(&opts.Database, "database", "d", "default", "database to connect to")
	root.PersistentFlags().BoolVar(&opts.TLS, "tls", false, "connect using TLS")
	root.PersistentFlags().BoolVar(&opts.TLSSkipVerify, "tls-skip-verify", false, "skip TLS certificate verification")
	root.DisableAutoGenTag = true
	root.DisableSuggestions = true

	root.AddCommand(
		pingCommand(flags, opts),
		uptimeCommand(flags, opts),
		connectionsCommand(flags, opts),
		queryRateCommand(flags, opts),
		replicationCommand(flags, opts),
	)

	return root
}

func pingCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Verify the instance answers queries.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "ping", func() ([]nagios.Context, error) {
				return []nagios.Context{
					nagios.NewBoolContext("ping", true, nagios.StateCritical),
				}, nil
			})
		},
	}
}

func uptimeCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	var warning, critical string
	cmd := &cobra.Command{
		Use:   "uptime",
		Short: "Alert when the server restarted recently.",
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
		Short: "Check the number of open client connections.",
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
	cmd.Flags().StringVarP(&warning, "warning", "w", "800", "warning range for open connections")
	cmd.Flags().StringVarP(&critical, "critical", "c", "1000", "critical range for open connections")

	return cmd
}

func queryRateCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	var warning, critical string
	cmd := &cobra.Command{
		Use:   "query_rate",
		Short: "Check queries per second, sampled over one second.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "query_rate", func() ([]nagios.Context, error) {
				ctx, err := nagios.NewScalarContext("query_rate", warning, critical)
				if err != nil {
					return nil, err
				}

				return []nagios.Context{ctx}, nil
			})
		},
	}
	cmd.Flags().StringVarP(&warning, "warning", "w", "0", "warning range for queries per second")
	cmd.Flags().StringVarP(&critical, "critical", "c", "0", "critical range for queries per second")

	return cmd
}

func replicationCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	var warning, critical string
	var readonlyWarning bool
	cmd := &cobra.Command{
		Use:   "replication",
		Short: "Check replica delay and read-only state of replicated tables.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "replication", func() ([]nagios.Context, error) {
				delay, err := nagios.NewScalarContext("replica_delay", warning, critical)
				if err != nil {
					return nil, err
				}

				readonlyState := nagios.StateCritical
				if readonlyWarning {
					readonlyState = nagios.StateWarning
				}

				return []nagios.Context{
					delay,
					nagios.NewBoolContext("read_only", false, readonlyState),
					nagios.NewBoolContext("replication_configured", false, nagios.StateOK),
				}, nil
			})
		},
	}
	cmd.Flags().StringVarP(&warning, "warning", "w", "300", "warning range for replica delay in seconds")
	cmd.Flags().StringVarP(&critical, "critical", "c", "600", "critical range for replica delay in seconds")
	cmd.Flags().BoolVar(&readonlyWarning, "readonly-warning", false, "report read-only replicas as WARNING instead of CRITICAL")

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
	res.Close()
	cancel()
	nagios.Exit(result)
}
