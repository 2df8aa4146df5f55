package mongodb

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

// NewCommand builds the check_mongodb command tree.
func NewCommand() *cobra.Command {
	flags := &nagios.ConnectionFlags{}
	opts := &Options{}

	root := &cobra.Command{
		Use:   "check_mongodb [global flags] <check>",
		Short: "Nagios plugin probing a MongoDB instance or replica set.",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(os.Stderr, "check_mongodb called without a check, see --help for usage.")
			os.Exit(nagios.StateUnknown.ExitCode())
		},
	}
	flags.AddFlags(root, 27017)
	root.PersistentFlags().StringVar(&opts.AuthDB, "auth-db", "admin", "database used for authentication")
	root.PersistentFlags().BoolVar(&opts.TLS, "tls", false, "connect using TLS")
	root.PersistentFlags().BoolVar(&opts.TLSSkipVerify, "tls-skip-verify", false, "skip TLS certificate verification")
	root.DisableAutoGenTag = true
	root.DisableSuggestions = true

	root.AddCommand(
		connectCommand(flags, opts),
		uptimeCommand(flags, opts),
		connectionsCommand(flags, opts),
		clusterCommand(flags, opts),
		writeCanaryCommand(flags, opts),
	)

	return root
}

func connectCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Verify the instance answers a ping.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "connect", func() ([]nagios.Context, error) {
				return []nagios.Context{
					nagios.NewBoolContext("connect", true, nagios.StateCritical),
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

func clusterCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	var unreachableWarning bool
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Check reachability of every replica set member.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "cluster", func() ([]nagios.Context, error) {
				state := nagios.StateCritical
				if unreachableWarning {
					state = nagios.StateWarning
				}

				return []nagios.Context{
					nagios.NewBoolContext("members", true, state),
				}, nil
			})
		},
	}
	cmd.Flags().BoolVar(&unreachableWarning, "unreachable-warning", false, "report unreachable members as WARNING instead of CRITICAL")

	return cmd
}

func writeCanaryCommand(flags *nagios.ConnectionFlags, opts *Options) *cobra.Command {
	var warning, critical string
	cmd := &cobra.Command{
		Use:   "write_canary",
		Short: "Rewrite the sentinel document and measure the write round-trip.",
		Run: func(_ *cobra.Command, _ []string) {
			runCheck(flags, opts, "write_canary", func() ([]nagios.Context, error) {
				latency, err := nagios.NewScalarContext("canary_write_time", warning, critical)
				if err != nil {
					return nil, err
				}

				return []nagios.Context{
					latency,
					nagios.NewBoolContext("canary_written", true, nagios.StateCritical),
				}, nil
			})
		},
	}
	cmd.Flags().StringVarP(&warning, "warning", "w", "1", "warning range for the write round-trip in seconds")
	cmd.Flags().StringVarP(&critical, "critical", "c", "5", "critical range for the write round-trip in seconds")
	cmd.Flags().StringVar(&opts.CanaryDatabase, "canary-database", "nagios", "database holding the sentinel document")
	cmd.Flags().StringVar(&opts.CanaryCollection, "canary-collection", "canary", "collection holding the sentinel document")
	cmd.Flags().BoolVar(&opts.CreateCanary, "create", false, "create the sentinel document when it does not exist")

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
