package diag

import "fmt"

// InvariantError signals a desync between the editor and the catalog (or a
// broken catalog template). It is fatal for the invocation and is never
// reported as a Diagnostic.
type InvariantError struct {
	InstanceID string
	Err        error
}

// Invariant wraps err as an InvariantError for the given instance.
func Invariant(instanceID string, err error) *InvariantError {
	return &InvariantError{InstanceID: instanceID, Err: err}
}

func (e *InvariantError) Error() string {
	if e.InstanceID == "" {
		return fmt.Sprintf("internal invariant violated: %v", e.Err)
	}
	return fmt.Sprintf("internal invariant violated at instance %q: %v", e.InstanceID, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}
