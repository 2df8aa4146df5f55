package nagios

// State is a Nagios plugin state. States are ordered by severity, the
// numeric value doubles as the process exit code.
type State int64

const (
	// StateOK is used for normal exits.
	StateOK State = 0

	// StateWarning is used for warnings.
	StateWarning State = 1

	// StateCritical is used for critical errors.
	StateCritical State = 2

	// StateUnknown is used for when the check runs into a problem itself.
	StateUnknown State = 3
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "OK"
	case StateWarning:
		return "WARNING"
	case StateCritical:
		return "CRITICAL"
	}

	return "UNKNOWN"
}

// ExitCode returns the conventional plugin exit code for this state.
func (s State) ExitCode() int {
	if s < StateOK || s > StateUnknown {
		return int(StateUnknown)
	}

	return int(s)
}

// WorstState returns the more severe of two states.
func WorstState(a, b State) State {
	if b > a {
		return b
	}

	return a
}
