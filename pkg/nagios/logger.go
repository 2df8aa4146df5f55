package nagios

import (
	"os"
	"strings"

	"github.com/kdar/factorlog"
)

// stdout is reserved for the single plugin output line, all logging goes to
// stderr.
var (
	logFormat = `[%{Date} %{Time "15:04:05.000"}][%{Severity}][%{ShortFile}:%{Line}] %{Message}`
	log       = factorlog.New(os.Stderr, factorlog.NewStdFormatter(logFormat))
)

// Logger returns the process-wide logger, handed explicitly to resources and
// checks instead of being imported everywhere.
func Logger() *factorlog.FactorLog {
	return log
}

// SetLogLevel configures the logger, one of: off, error, info, debug, trace.
func SetLogLevel(level string) {
	switch strings.ToLower(level) {
	case "off":
		log.SetMinMaxSeverity(factorlog.StringToSeverity("PANIC"), factorlog.StringToSeverity("PANIC"))
	case "error", "info", "debug", "trace":
		log.SetMinMaxSeverity(factorlog.StringToSeverity(strings.ToUpper(level)), factorlog.StringToSeverity("PANIC"))
	case "":
	default:
		log.Errorf("unknown log level: %s", level)
	}
}

// LogLevelFromFlags maps the usual -q/-v/-vv plugin flags to a log level.
func LogLevelFromFlags(quiet bool, verbose int) string {
	switch {
	case quiet:
		return "error"
	case verbose >= 2:
		return "trace"
	case verbose == 1:
		return "debug"
	}

	return "info"
}
