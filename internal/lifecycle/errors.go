package lifecycle

import (
	"errors"
	"fmt"

	"shopfloor-service/internal/modal"
)

var (
	// ErrInvalidTransition matches every rejected transition.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrIntegrity marks state that cannot be produced by legal transitions.
	ErrIntegrity = errors.New("data integrity violation")

	ErrNoOperator       = errors.New("task has no operator")
	ErrAlreadyStarted   = errors.New("task already started")
	ErrNotStarted       = errors.New("task not started")
	ErrAlreadyPaused    = errors.New("task already on hold")
	ErrNotPaused        = errors.New("task not on hold")
	ErrPaused           = errors.New("task is on hold")
	ErrAlreadyCompleted = errors.New("task already completed")
	ErrOutOfOrder       = errors.New("transition time precedes recorded history")

	ErrNoOpenHold        = fmt.Errorf("%w: no open hold interval", ErrIntegrity)
	ErrInconsistentState = fmt.Errorf("%w: state disagrees with history", ErrIntegrity)
)

// TransitionError is returned for every rejected transition. It matches
// ErrInvalidTransition and unwraps to the specific cause.
type TransitionError struct {
	Op      string
	Subject string
	State   string
	Err     error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Subject, e.State, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }

func (e *TransitionError) Is(target error) bool { return target == ErrInvalidTransition }

func reject(op string, t *modal.Task, err error) error {
	return &TransitionError{Op: op, Subject: "task " + t.ID, State: string(t.State), Err: err}
}
