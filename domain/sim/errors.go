package sim

import "errors"

// Domain errors for the simulator. Both are programmer errors: they
// abort the caller instead of being absorbed into the reward signal.
var (
	// ErrInvalidMode indicates the simulator was constructed with an
	// unrecognized mode.
	ErrInvalidMode = errors.New("invalid simulator mode")

	// ErrInvalidAction indicates a step with an out-of-range action index.
	ErrInvalidAction = errors.New("action index out of range")

	// ErrClosed indicates an operation on a closed simulator.
	ErrClosed = errors.New("simulator closed")
)

// ActionFault describes a recoverable failure while executing an
// action's side effects. Faults never cross the simulator's public
// boundary: Step converts them into a fixed penalty reward plus an
// "error" info entry and the episode continues.
type ActionFault struct {
	// Op names the failed operation (e.g. "session_write").
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (f *ActionFault) Error() string {
	if f.Op == "" {
		return f.Err.Error()
	}
	return f.Op + ": " + f.Err.Error()
}

// Unwrap returns the underlying cause.
func (f *ActionFault) Unwrap() error {
	return f.Err
}
