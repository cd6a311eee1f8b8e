package lifecycle

import (
	"time"

	"shopfloor-service/internal/modal"
)

// Phase states, reported in phase transition errors.
const (
	PhasePending  = "PENDING"
	PhaseActive   = "ACTIVE"
	PhaseOnHold   = "ON_HOLD"
	PhaseFinished = "FINISHED"
)

// PhaseState derives the state of a design or programming phase.
func PhaseState(p *modal.Phase) string {
	switch {
	case p.FinishedAt != nil:
		return PhaseFinished
	case p.Paused:
		return PhaseOnHold
	case p.StartedAt != nil:
		return PhaseActive
	}
	return PhasePending
}

func rejectPhase(op string, p *modal.Phase, err error) error {
	return &TransitionError{Op: op, Subject: string(p.Name) + " phase", State: PhaseState(p), Err: err}
}

// ValidatePhase checks that the phase fields and hold log could have been
// produced by legal transitions.
func ValidatePhase(p *modal.Phase) error {
	if p.Paused != hasOpenHold(p.Holds) {
		if p.Paused {
			return ErrNoOpenHold
		}
		return ErrInconsistentState
	}
	if p.StartedAt == nil && (p.FinishedAt != nil || len(p.Holds) > 0) {
		return ErrInconsistentState
	}
	if p.FinishedAt != nil && p.Paused {
		return ErrInconsistentState
	}
	if err := validateHolds(p.StartedAt, p.Holds); err != nil {
		return err
	}
	if p.FinishedAt != nil && p.FinishedAt.Before(lastMark(p.StartedAt, p.Holds)) {
		return ErrInconsistentState
	}
	return nil
}

// StartPhase opens a phase for the given staff member.
func StartPhase(p *modal.Phase, staffID string, now time.Time) error {
	if err := ValidatePhase(p); err != nil {
		return rejectPhase("start", p, err)
	}
	if p.StartedAt != nil {
		return rejectPhase("start", p, ErrAlreadyStarted)
	}
	started := now
	p.StartedAt = &started
	if staffID != "" {
		p.StaffID = staffID
	}
	return nil
}

func HoldPhase(p *modal.Phase, reason string, now time.Time) error {
	if err := ValidatePhase(p); err != nil {
		return rejectPhase("hold", p, err)
	}
	switch PhaseState(p) {
	case PhaseActive:
	case PhaseOnHold:
		return rejectPhase("hold", p, ErrAlreadyPaused)
	case PhaseFinished:
		return rejectPhase("hold", p, ErrAlreadyCompleted)
	default:
		return rejectPhase("hold", p, ErrNotStarted)
	}
	holds, err := openHold(p.StartedAt, p.Holds, reason, now)
	if err != nil {
		return rejectPhase("hold", p, err)
	}
	p.Holds = holds
	p.Paused = true
	return nil
}

func ResumePhase(p *modal.Phase, now time.Time) error {
	if !p.Paused {
		return rejectPhase("resume", p, ErrNotPaused)
	}
	if err := ValidatePhase(p); err != nil {
		return rejectPhase("resume", p, err)
	}
	if err := closeLatest(p.Holds, now); err != nil {
		return rejectPhase("resume", p, err)
	}
	p.Paused = false
	return nil
}

func FinishPhase(p *modal.Phase, now time.Time) error {
	if err := ValidatePhase(p); err != nil {
		return rejectPhase("finish", p, err)
	}
	switch PhaseState(p) {
	case PhaseActive:
	case PhaseFinished:
		return rejectPhase("finish", p, ErrAlreadyCompleted)
	case PhaseOnHold:
		return rejectPhase("finish", p, ErrPaused)
	default:
		return rejectPhase("finish", p, ErrNotStarted)
	}
	if err := notBefore(p.StartedAt, p.Holds, now); err != nil {
		return rejectPhase("finish", p, err)
	}
	done := now
	p.FinishedAt = &done
	return nil
}
