package reconcile

import "fmt"

// RunError reports which phase of a reconciliation run failed.
type RunError struct {
	Phase  string // "resolve", "records", "mirror", "parties", "previous"
	Source string // "tick" or "mirror"
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s reconcile: %s: %v", e.Source, e.Phase, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}
