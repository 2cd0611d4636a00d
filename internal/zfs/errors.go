package zfs

import (
	"fmt"
	"strings"
)

// SubsystemError reports a failed zfs invocation. Failures are recorded
// per call and never retried within a run.
type SubsystemError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *SubsystemError) Error() string {
	msg := fmt.Sprintf("zfs %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *SubsystemError) Unwrap() error { return e.Err }

// SafetyError reports a destroy request that failed the snapshot-name
// guard. It means upstream classification or identifier handling is
// broken, so it is never suppressed and never retried.
type SafetyError struct {
	Name string
}

func (e *SafetyError) Error() string {
	return fmt.Sprintf("refusing to destroy %q: not a snapshot name", e.Name)
}
