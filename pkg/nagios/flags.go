package nagios

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// ConnectionFlags is the flag set shared by all plugins: where to connect and
// how loud to be. Database specific options live with the plugin commands.
type ConnectionFlags struct {
	Host            string
	Port            int
	User            string
	Password        string
	CredentialsFile string
	Timeout         time.Duration
	Quiet           bool
	Verbose         int
}

// AddFlags registers the shared flags as persistent flags on the plugin's
// root command.
func (f *ConnectionFlags) AddFlags(cmd *cobra.Command, defaultPort int) {
	cmd.PersistentFlags().StringVarP(&f.Host, "host", "H", "localhost", "hostname or address of the monitored instance")
	cmd.PersistentFlags().IntVarP(&f.Port, "port", "p", defaultPort, "port of the monitored instance")
	cmd.PersistentFlags().StringVarP(&f.User, "user", "u", "", "user name, overrides the credentials file")
	cmd.PersistentFlags().StringVarP(&f.Password, "password", "P", "", "password, overrides the credentials file")
	cmd.PersistentFlags().StringVar(&f.CredentialsFile, "credentials-file", "", "INI file with a [client] section holding user/pass")
	cmd.PersistentFlags().DurationVarP(&f.Timeout, "timeout", "t", 10*time.Second, "overall connect and query timeout")
	cmd.PersistentFlags().BoolVarP(&f.Quiet, "quiet", "q", false, "set loglevel to error")
	cmd.PersistentFlags().CountVarP(&f.Verbose, "verbose", "v", "increase loglevel, -v means debug, -vv means trace")

	cmd.PersistentFlags().SortFlags = false
	cmd.Flags().SortFlags = false
}

// SetupLogging applies the verbosity flags to the process logger.
func (f *ConnectionFlags) SetupLogging() {
	SetLogLevel(LogLevelFromFlags(f.Quiet, f.Verbose))
}

// ResolveCredentials merges explicit flags with the credentials file,
// explicit flags win.
func (f *ConnectionFlags) ResolveCredentials() (user, password string) {
	user = f.User
	password = f.Password
	if user != "" || f.CredentialsFile == "" {
		return user, password
	}

	stored := LoadCredentialsFile(f.CredentialsFile, Logger())
	if user == "" {
		user = stored.User
	}
	if password == "" {
		password = stored.Password
	}

	return user, password
}

// Exit prints the plugin output line and terminates the process with the
// matching exit code.
func Exit(result *CheckResult) {
	fmt.Fprintln(os.Stdout, result.BuildPluginOutput())
	os.Exit(result.State.ExitCode())
}

// ExitUnknown terminates the process with an UNKNOWN result, used for setup
// failures before a check could run.
func ExitUnknown(err error) {
	Exit(&CheckResult{
		State:  StateUnknown,
		Output: fmt.Sprintf("%s - %s", StateUnknown.String(), err.Error()),
	})
}
