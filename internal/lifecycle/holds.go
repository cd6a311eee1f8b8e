package lifecycle

import (
	"time"

	"shopfloor-service/internal/modal"
)

func hasOpenHold(holds []modal.HoldInterval) bool {
	for _, h := range holds {
		if h.Open() {
			return true
		}
	}
	return false
}

// validateHolds checks that intervals are ordered, non-overlapping, start no
// earlier than start and that only the last one is open.
func validateHolds(start *time.Time, holds []modal.HoldInterval) error {
	prev := time.Time{}
	if start != nil {
		prev = *start
	}
	for i, h := range holds {
		if h.HoldAt.Before(prev) {
			return ErrInconsistentState
		}
		if h.ResumeAt == nil {
			if i != len(holds)-1 {
				return ErrInconsistentState
			}
			continue
		}
		if h.ResumeAt.Before(h.HoldAt) {
			return ErrInconsistentState
		}
		prev = *h.ResumeAt
	}
	return nil
}

// lastMark is the latest timestamp recorded by start and the hold log.
func lastMark(start *time.Time, holds []modal.HoldInterval) time.Time {
	var last time.Time
	if start != nil {
		last = *start
	}
	if n := len(holds); n > 0 {
		h := holds[n-1]
		last = h.HoldAt
		if h.ResumeAt != nil {
			last = *h.ResumeAt
		}
	}
	return last
}

func notBefore(start *time.Time, holds []modal.HoldInterval, now time.Time) error {
	if now.Before(lastMark(start, holds)) {
		return ErrOutOfOrder
	}
	return nil
}

func openHold(start *time.Time, holds []modal.HoldInterval, reason string, now time.Time) ([]modal.HoldInterval, error) {
	if err := notBefore(start, holds, now); err != nil {
		return holds, err
	}
	return append(holds, modal.HoldInterval{HoldAt: now, Reason: reason}), nil
}

// closeLatest sets ResumeAt on the most recent open interval.
func closeLatest(holds []modal.HoldInterval, now time.Time) error {
	for i := len(holds) - 1; i >= 0; i-- {
		if !holds[i].Open() {
			continue
		}
		if now.Before(holds[i].HoldAt) {
			return ErrOutOfOrder
		}
		resumed := now
		holds[i].ResumeAt = &resumed
		return nil
	}
	return ErrNoOpenHold
}
