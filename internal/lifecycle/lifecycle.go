// Package lifecycle moves a task through
//
//	Unassigned -> Assigned -> InProgress <-> OnHold -> Completed
//
// and keeps its hold history as an append-only, time-ordered log. Every
// transition validates the stored state against the recorded timestamps first
// and refuses to repair contradictions.
package lifecycle

import (
	"time"

	"shopfloor-service/internal/modal"
)

// Derive computes the state implied by a task's operator, timestamps and hold
// history.
func Derive(t *modal.Task) modal.TaskState {
	switch {
	case t.CompletedAt != nil:
		return modal.StateCompleted
	case len(t.HoldHistory) > 0 && t.HoldHistory[len(t.HoldHistory)-1].Open():
		return modal.StateOnHold
	case t.StartedAt != nil:
		return modal.StateInProgress
	case t.OperatorID != "":
		return modal.StateAssigned
	}
	return modal.StateUnassigned
}

// Normalize sets the state of a freshly built task that has none and then
// validates it.
func Normalize(t *modal.Task) error {
	if t.State == "" {
		t.State = Derive(t)
	}
	return Validate(t)
}

// Validate checks that the stored state agrees with the task's history.
func Validate(t *modal.Task) error {
	if t.State == modal.StateOnHold && !hasOpenHold(t.HoldHistory) {
		return ErrNoOpenHold
	}
	if t.State != Derive(t) {
		return ErrInconsistentState
	}
	if t.CompletedAt != nil && t.StartedAt == nil {
		return ErrInconsistentState
	}
	if len(t.HoldHistory) > 0 && t.StartedAt == nil {
		return ErrInconsistentState
	}
	if err := validateHolds(t.StartedAt, t.HoldHistory); err != nil {
		return err
	}
	if t.CompletedAt != nil && t.CompletedAt.Before(*t.StartedAt) {
		return ErrInconsistentState
	}
	return nil
}

// CanAssign reports why the task cannot be (re)assigned, or nil.
func CanAssign(t *modal.Task) error {
	if err := Validate(t); err != nil {
		return reject("assign", t, err)
	}
	if t.State.IsStarted() {
		return reject("assign", t, ErrAlreadyStarted)
	}
	return nil
}

// Assign binds the task to an operator. An empty operatorID unassigns and
// leaves every other field untouched.
func Assign(t *modal.Task, operatorID string, overtime bool) error {
	if err := CanAssign(t); err != nil {
		return err
	}
	if operatorID == "" {
		t.OperatorID = ""
		t.State = modal.StateUnassigned
		return nil
	}
	t.OperatorID = operatorID
	t.IsOvertime = overtime
	t.State = modal.StateAssigned
	return nil
}

// Start marks an assigned task as in progress.
func Start(t *modal.Task, now time.Time) error {
	if err := Validate(t); err != nil {
		return reject("start", t, err)
	}
	switch t.State {
	case modal.StateUnassigned:
		return reject("start", t, ErrNoOperator)
	case modal.StateAssigned:
	default:
		return reject("start", t, ErrAlreadyStarted)
	}
	started := now
	t.StartedAt = &started
	t.State = modal.StateInProgress
	return nil
}

// Hold pauses a running task and opens a new hold interval.
func Hold(t *modal.Task, reason string, now time.Time) error {
	if err := Validate(t); err != nil {
		return reject("hold", t, err)
	}
	switch t.State {
	case modal.StateInProgress:
	case modal.StateOnHold:
		return reject("hold", t, ErrAlreadyPaused)
	case modal.StateCompleted:
		return reject("hold", t, ErrAlreadyCompleted)
	default:
		return reject("hold", t, ErrNotStarted)
	}
	holds, err := openHold(t.StartedAt, t.HoldHistory, reason, now)
	if err != nil {
		return reject("hold", t, err)
	}
	t.HoldHistory = holds
	t.State = modal.StateOnHold
	return nil
}

// Resume closes the latest open hold interval.
func Resume(t *modal.Task, now time.Time) error {
	if err := Validate(t); err != nil {
		return reject("resume", t, err)
	}
	if t.State != modal.StateOnHold {
		return reject("resume", t, ErrNotPaused)
	}
	if err := closeLatest(t.HoldHistory, now); err != nil {
		return reject("resume", t, err)
	}
	t.State = modal.StateInProgress
	return nil
}

// Finish completes a running task. A second call is rejected and leaves
// CompletedAt as the first call set it.
func Finish(t *modal.Task, now time.Time) error {
	if err := Validate(t); err != nil {
		return reject("finish", t, err)
	}
	switch t.State {
	case modal.StateInProgress:
	case modal.StateCompleted:
		return reject("finish", t, ErrAlreadyCompleted)
	case modal.StateOnHold:
		return reject("finish", t, ErrPaused)
	default:
		return reject("finish", t, ErrNotStarted)
	}
	if err := notBefore(t.StartedAt, t.HoldHistory, now); err != nil {
		return reject("finish", t, err)
	}
	done := now
	t.CompletedAt = &done
	t.State = modal.StateCompleted
	return nil
}
