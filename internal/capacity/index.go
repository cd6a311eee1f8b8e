package capacity

import (
	"cmp"
	"slices"

	"shopfloor-service/internal/duration"
	"shopfloor-service/internal/modal"
)

type dayKey struct {
	operatorID string
	date       string
}

// Index maps (operator, planned date) to the tasks committed on that day so a
// day's load is read without scanning every task.
type Index struct {
	days map[dayKey]map[string]*modal.Task
}

func NewIndex() *Index {
	return &Index{days: make(map[dayKey]map[string]*modal.Task)}
}

func keyOf(t *modal.Task) (dayKey, bool) {
	if t.OperatorID == "" || t.PlannedDate == "" {
		return dayKey{}, false
	}
	return dayKey{t.OperatorID, t.PlannedDate}, true
}

// Add records t under its current operator and planned date, if both are set.
func (ix *Index) Add(t *modal.Task) {
	k, ok := keyOf(t)
	if !ok {
		return
	}
	day := ix.days[k]
	if day == nil {
		day = make(map[string]*modal.Task)
		ix.days[k] = day
	}
	day[t.ID] = t
}

// Remove drops t from the slot of its current operator and planned date.
func (ix *Index) Remove(t *modal.Task) {
	k, ok := keyOf(t)
	if !ok {
		return
	}
	if day := ix.days[k]; day != nil {
		delete(day, t.ID)
		if len(day) == 0 {
			delete(ix.days, k)
		}
	}
}

// TasksForOperatorOnDate returns the operator's tasks for date in display order.
func (ix *Index) TasksForOperatorOnDate(operatorID, date string) []*modal.Task {
	day := ix.days[dayKey{operatorID, date}]
	out := make([]*modal.Task, 0, len(day))
	for _, t := range day {
		out = append(out, t)
	}
	SortForDisplay(out)
	return out
}

// TasksOnDate returns every assigned task planned for date in display order.
func (ix *Index) TasksOnDate(date string) []*modal.Task {
	var out []*modal.Task
	for k, day := range ix.days {
		if k.date != date {
			continue
		}
		for _, t := range day {
			out = append(out, t)
		}
	}
	SortForDisplay(out)
	return out
}

// committedMinutes sums estimates on the operator's day, skipping excludeID.
func (ix *Index) committedMinutes(operatorID, date, excludeID string) int {
	total := 0
	for id, t := range ix.days[dayKey{operatorID, date}] {
		if id == excludeID {
			continue
		}
		total += estimateMinutes(t.Estimate)
	}
	return total
}

func estimateMinutes(e modal.Estimate) int {
	return duration.EstimateMinutes(e)
}

func minutesToHours(m int) float64 {
	return duration.EstimatedHours(modal.Estimate{Minutes: m})
}

// SortForDisplay orders tasks by sequence, then job number, then ID.
func SortForDisplay(tasks []*modal.Task) {
	slices.SortStableFunc(tasks, func(a, b *modal.Task) int {
		if c := cmp.Compare(a.Sequence, b.Sequence); c != 0 {
			return c
		}
		if c := cmp.Compare(a.JobNumber, b.JobNumber); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
