package main

import (
	"os"

	"github.com/ovh/ovh-nagios-plugins/pkg/checks/clickhouse"
	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

func main() {
	if err := clickhouse.NewCommand().Execute(); err != nil {
		os.Exit(nagios.StateUnknown.ExitCode())
	}
}
