package main

import (
	"os"

	"github.com/ovh/ovh-nagios-plugins/pkg/checks/mongodb"
	"github.com/ovh/ovh-nagios-plugins/pkg/nagios"
)

func main() {
	if err := mongodb.NewCommand().Execute(); err != nil {
		os.Exit(nagios.StateUnknown.ExitCode())
	}
}
