package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition matches every contract violation reported by the controller.
	ErrPrecondition = errors.New("wizard precondition violated")
	// ErrOutOfRange matches jumps to a step that is negative or beyond the
	// furthest validated step, and GoBack at step 0.
	ErrOutOfRange = errors.New("step index out of range")
)

// PreconditionError reports an operation invoked outside its contract,
// e.g. Complete before the final step.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("wizard %s: %s", e.Op, e.Reason)
}

func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

// OutOfRangeError reports a GoToStep target outside [0, VisitedMax], or a
// GoBack from step 0 (Target -1).
type OutOfRangeError struct {
	Target     int
	VisitedMax int
	Steps      int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("step %d out of range: reachable steps are 0..%d of %d", e.Target, e.VisitedMax, e.Steps)
}

func (e *OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange || target == ErrPrecondition
}
