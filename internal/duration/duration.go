// Package duration computes net elapsed time between two timestamps after
// removing closed hold intervals, and renders the result for task-level
// (hours and minutes) and phase/job-level (days and hours) display.
package duration

import (
	"fmt"
	"time"

	"shopfloor-service/internal/modal"
)

// NotAvailable is rendered when either end of a span is missing.
const NotAvailable = "N/A"

// Held sums the closed hold intervals. Open intervals contribute nothing.
func Held(holds []modal.HoldInterval) time.Duration {
	var held time.Duration
	for _, h := range holds {
		if h.ResumeAt == nil {
			continue
		}
		held += h.ResumeAt.Sub(h.HoldAt)
	}
	return held
}

// Net returns the span from start to end minus closed hold time, floored at
// zero. ok is false when start or end is missing.
func Net(start, end *time.Time, holds []modal.HoldInterval) (d time.Duration, ok bool) {
	if start == nil || end == nil {
		return 0, false
	}
	d = end.Sub(*start) - Held(holds)
	if d < 0 {
		d = 0
	}
	return d, true
}

// EstimateMinutes is the estimate in whole minutes. Negative components count
// as zero; minute overflow is kept.
func EstimateMinutes(e modal.Estimate) int {
	return max(e.Hours, 0)*60 + max(e.Minutes, 0)
}

// EstimatedHours converts an estimate to fractional hours.
func EstimatedHours(e modal.Estimate) float64 {
	return float64(EstimateMinutes(e)) / 60
}

// Estimated converts an estimate to a time.Duration.
func Estimated(e modal.Estimate) time.Duration {
	return time.Duration(EstimateMinutes(e)) * time.Minute
}

// HoursMinutes splits d into whole hours and remaining minutes.
func HoursMinutes(d time.Duration) (hours, minutes int) {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Minute)
	return total / 60, total % 60
}

// DaysHours splits d into whole days and remaining hours.
func DaysHours(d time.Duration) (days, hours int) {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Hour)
	return total / 24, total % 24
}

// FormatHM renders a task-level span, e.g. "3h 30m".
func FormatHM(d time.Duration, ok bool) string {
	if !ok {
		return NotAvailable
	}
	h, m := HoursMinutes(d)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}

// FormatDH renders a phase or job-level span, e.g. "2d 5h".
func FormatDH(d time.Duration, ok bool) string {
	if !ok {
		return NotAvailable
	}
	days, h := DaysHours(d)
	if days == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dd %dh", days, h)
}

// TaskNet is the net working time of a task from start to completion.
func TaskNet(t *modal.Task) (time.Duration, bool) {
	return Net(t.StartedAt, t.CompletedAt, t.HoldHistory)
}

// PhaseNet is the net time of a staff phase from start to finish.
func PhaseNet(p *modal.Phase) (time.Duration, bool) {
	return Net(p.StartedAt, p.FinishedAt, p.Holds)
}
