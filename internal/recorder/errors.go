package recorder

import "fmt"

// StateError reports an operation issued outside its valid session state.
type StateError struct {
	Op    string
	State State
	// Pending is set when Finalize was called with an open step buffer.
	Pending bool
}

func (e *StateError) Error() string {
	if e.Pending {
		return fmt.Sprintf("recorder: %s called with a pending step; call EndStep first", e.Op)
	}
	return fmt.Sprintf("recorder: %s is not valid in state %s", e.Op, e.State)
}

// Is makes errors.Is match any StateError regardless of operation.
func (e *StateError) Is(target error) bool {
	_, ok := target.(*StateError)
	return ok
}
