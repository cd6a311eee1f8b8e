// Package capacity decides whether a task can be assigned to an operator on a
// given day without exceeding the fixed daily threshold, and applies the
// assignment or describes the conflict for the caller to resolve.
package capacity

import (
	"errors"
	"fmt"
	"time"

	"shopfloor-service/internal/lifecycle"
	"shopfloor-service/internal/modal"
)

// DailyCapacityHours is the load an operator may carry per day without overtime.
const DailyCapacityHours = 8

const dailyCapacityMinutes = DailyCapacityHours * 60

// DateLayout is the calendar-day format of planned dates.
const DateLayout = "2006-01-02"

var (
	ErrMissingInput    = errors.New("missing required input")
	ErrUnknownOperator = fmt.Errorf("%w: operator not found", ErrMissingInput)
	ErrInvalidDate     = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrMissingInput)
	ErrNotAlternative  = errors.New("operator is not an offered alternative")
)

// DepartmentResolver maps a process name to the department that performs it.
type DepartmentResolver interface {
	Department(processName string) (string, bool)
}

// DepartmentFunc adapts a function to DepartmentResolver.
type DepartmentFunc func(processName string) (string, bool)

func (f DepartmentFunc) Department(processName string) (string, bool) { return f(processName) }

// Scheduler evaluates assignments against the operator roster and the index
// of committed tasks. It is not safe for concurrent use.
type Scheduler struct {
	index       *Index
	roster      []modal.Operator
	departments DepartmentResolver
}

func NewScheduler(roster []modal.Operator, departments DepartmentResolver) *Scheduler {
	if departments == nil {
		departments = DepartmentFunc(func(string) (string, bool) { return "", false })
	}
	return &Scheduler{
		index:       NewIndex(),
		roster:      roster,
		departments: departments,
	}
}

// Track adds an existing task to the day index.
func (s *Scheduler) Track(t *modal.Task) { s.index.Add(t) }

// Forget removes a task from the day index.
func (s *Scheduler) Forget(t *modal.Task) { s.index.Remove(t) }

func (s *Scheduler) Roster() []modal.Operator { return s.roster }

func (s *Scheduler) Operator(id string) (modal.Operator, bool) {
	for _, op := range s.roster {
		if op.ID == id {
			return op, true
		}
	}
	return modal.Operator{}, false
}

// TasksForOperatorOnDate returns the operator's committed tasks for date.
func (s *Scheduler) TasksForOperatorOnDate(operatorID, date string) []*modal.Task {
	return s.index.TasksForOperatorOnDate(operatorID, date)
}

// DaySchedule lists every assigned task planned for date in display order.
func (s *Scheduler) DaySchedule(date string) []*modal.Task {
	return s.index.TasksOnDate(date)
}

// CurrentHours is the operator's committed load for date, not counting excludeTaskID.
func (s *Scheduler) CurrentHours(operatorID, date, excludeTaskID string) float64 {
	return minutesToHours(s.index.committedMinutes(operatorID, date, excludeTaskID))
}

// Evaluate assigns t to the operator for date when the projected load stays
// within capacity, otherwise it returns a conflict and leaves t untouched. An
// empty operatorID unassigns and never conflicts.
func (s *Scheduler) Evaluate(t *modal.Task, operatorID, date string) (modal.AssignmentOutcome, error) {
	if operatorID == "" {
		if err := s.Unassign(t); err != nil {
			return modal.AssignmentOutcome{}, err
		}
		return modal.AssignmentOutcome{Accepted: true, Task: t}, nil
	}
	op, err := s.checkInput(t, operatorID, date)
	if err != nil {
		return modal.AssignmentOutcome{}, err
	}

	current := s.index.committedMinutes(op.ID, date, t.ID)
	if current+estimateMinutes(t.Estimate) <= dailyCapacityMinutes {
		if err := s.apply(t, op.ID, date, false); err != nil {
			return modal.AssignmentOutcome{}, err
		}
		return modal.AssignmentOutcome{Accepted: true, Task: t}, nil
	}

	conflict := s.describeConflict(t, op, date, current)
	return modal.AssignmentOutcome{Conflict: &conflict}, nil
}

// ConfirmOvertime assigns t past capacity and marks it as overtime. A task
// that fits within capacity is assigned without the overtime mark.
func (s *Scheduler) ConfirmOvertime(t *modal.Task, operatorID, date string) error {
	op, err := s.checkInput(t, operatorID, date)
	if err != nil {
		return err
	}
	current := s.index.committedMinutes(op.ID, date, t.ID)
	overtime := current+estimateMinutes(t.Estimate) > dailyCapacityMinutes
	return s.apply(t, op.ID, date, overtime)
}

// PickAlternative re-evaluates t for one of the conflict's alternatives. The
// result may itself be a new conflict.
func (s *Scheduler) PickAlternative(t *modal.Task, conflict modal.CapacityConflict, alternativeID string) (modal.AssignmentOutcome, error) {
	for _, alt := range conflict.Alternatives {
		if alt.Operator.ID == alternativeID {
			return s.Evaluate(t, alternativeID, conflict.Date)
		}
	}
	return modal.AssignmentOutcome{}, fmt.Errorf("%w: %s", ErrNotAlternative, alternativeID)
}

// Unassign clears the operator of t, bypassing capacity.
func (s *Scheduler) Unassign(t *modal.Task) error {
	if err := lifecycle.CanAssign(t); err != nil {
		return err
	}
	s.index.Remove(t)
	err := lifecycle.Assign(t, "", false)
	s.index.Add(t)
	return err
}

func (s *Scheduler) checkInput(t *modal.Task, operatorID, date string) (modal.Operator, error) {
	if err := lifecycle.CanAssign(t); err != nil {
		return modal.Operator{}, err
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return modal.Operator{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	op, ok := s.Operator(operatorID)
	if !ok {
		return modal.Operator{}, fmt.Errorf("%w: %s", ErrUnknownOperator, operatorID)
	}
	return op, nil
}

// apply writes an accepted assignment onto t and moves it in the index.
func (s *Scheduler) apply(t *modal.Task, operatorID, date string, overtime bool) error {
	s.index.Remove(t)
	defer s.index.Add(t)
	if err := lifecycle.Assign(t, operatorID, overtime); err != nil {
		return err
	}
	t.PlannedDate = date
	return nil
}

func (s *Scheduler) describeConflict(t *modal.Task, op modal.Operator, date string, current int) modal.CapacityConflict {
	est := estimateMinutes(t.Estimate)
	c := modal.CapacityConflict{
		TaskID:         t.ID,
		Date:           date,
		Operator:       op,
		CurrentHours:   minutesToHours(current),
		EstimatedHours: minutesToHours(est),
		Alternatives:   []modal.AlternativeOperator{},
	}
	dept, ok := s.departments.Department(t.ProcessName)
	if !ok {
		return c
	}
	c.Department = dept
	for _, alt := range s.roster {
		if alt.Department != dept || alt.ID == op.ID {
			continue
		}
		load := s.index.committedMinutes(alt.ID, date, t.ID)
		c.Alternatives = append(c.Alternatives, modal.AlternativeOperator{
			Operator:     alt,
			CurrentHours: minutesToHours(load),
			Fits:         load+est <= dailyCapacityMinutes,
		})
	}
	return c
}
