package nagios

import "fmt"

// CheckError is a plugin level failure: unknown command, missing required
// attribute, unparseable threshold. It is reported as UNKNOWN with the
// message, never retried.
type CheckError struct {
	Message string
}

func (e *CheckError) Error() string {
	return e.Message
}

// CheckErrorf builds a CheckError from a format string.
func CheckErrorf(format string, args ...interface{}) *CheckError {
	return &CheckError{Message: fmt.Sprintf(format, args...)}
}
