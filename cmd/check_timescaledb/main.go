package main

import (
	"os"

	"github.com/ovh/ovh-nagios-plugins/pkg/checks/timescaledb"
	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

func main() {
	if err := timescaledb.NewCommand().Execute(); err != nil {
		os.Exit(nagios.StateUnknown.ExitCode())
	}
}
