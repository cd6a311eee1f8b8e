// Package shop holds every job, drawing and task in memory and serializes all
// lifecycle and scheduling operations on them.
//
// The core engine assumes a single actor mutates a task at a time. The HTTP
// server and the Temporal worker call in concurrently, so the store takes one
// lock per operation and hands out copies; nothing outside the store ever
// holds a pointer to live state.
package shop

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"shopfloor-service/internal/capacity"
	"shopfloor-service/internal/lifecycle"
	"shopfloor-service/internal/modal"
	"shopfloor-service/internal/report"
	"shopfloor-service/internal/timeline"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Store is the in-memory shop state. Jobs are kept in a map for lookup and a
// slice for stable listing order.
type Store struct {
	mu    sync.Mutex
	jobs  map[string]*modal.Job
	order []string
	tasks map[string]*modal.Task
	sched *capacity.Scheduler
	now   func() time.Time
}

func NewStore(roster []modal.Operator, departments capacity.DepartmentResolver) *Store {
	return &Store{
		jobs:  make(map[string]*modal.Job),
		tasks: make(map[string]*modal.Task),
		sched: capacity.NewScheduler(slices.Clone(roster), departments),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source used for transitions.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Roster() []modal.Operator {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.sched.Roster())
}

// AddJob takes ownership of job. Missing drawing and task IDs are generated,
// task back-references are filled in and every task is validated.
func (s *Store) AddJob(job *modal.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.Number == "" {
		return fmt.Errorf("%w: job number", capacity.ErrMissingInput)
	}
	if _, ok := s.jobs[job.Number]; ok {
		return fmt.Errorf("job %s: %w", job.Number, ErrDuplicate)
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}
	job.Design.Name = modal.PhaseDesign
	job.Programming.Name = modal.PhaseProgramming
	for _, p := range []*modal.Phase{&job.Design, &job.Programming} {
		if err := lifecycle.ValidatePhase(p); err != nil {
			return fmt.Errorf("%s phase: %w", p.Name, err)
		}
	}

	seen := make(map[string]bool)
	for i, d := range job.Drawings {
		if d == nil {
			return fmt.Errorf("%w: drawing %d is empty", capacity.ErrMissingInput, i)
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		for k, t := range d.Tasks {
			if t == nil {
				return fmt.Errorf("%w: task %d of drawing %s is empty", capacity.ErrMissingInput, k, d.Number)
			}
			if t.ID != "" && seen[t.ID] {
				return fmt.Errorf("task %s: %w", t.ID, ErrDuplicate)
			}
			if err := s.adopt(job, d, t); err != nil {
				return err
			}
			seen[t.ID] = true
		}
	}
	for _, d := range job.Drawings {
		for _, t := range d.Tasks {
			s.tasks[t.ID] = t
			s.sched.Track(t)
		}
	}
	s.jobs[job.Number] = job
	s.order = append(s.order, job.Number)
	return nil
}

func (s *Store) adopt(job *modal.Job, d *modal.Drawing, t *modal.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, ok := s.tasks[t.ID]; ok {
		return fmt.Errorf("task %s: %w", t.ID, ErrDuplicate)
	}
	if t.Estimate.Hours < 0 || t.Estimate.Minutes < 0 {
		return fmt.Errorf("%w: task %s has a negative estimate", capacity.ErrMissingInput, t.ID)
	}
	t.DrawingID = d.ID
	t.JobNumber = job.Number
	if err := lifecycle.Normalize(t); err != nil {
		return fmt.Errorf("task %s: %w", t.ID, err)
	}
	return nil
}

// AddTask appends a new unassigned task to a drawing.
func (s *Store) AddTask(jobNumber, drawingID string, t modal.Task) (modal.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, d, err := s.drawing(jobNumber, drawingID)
	if err != nil {
		return modal.Task{}, err
	}
	task := &modal.Task{
		ID:          t.ID,
		ProcessName: t.ProcessName,
		Sequence:    t.Sequence,
		Estimate:    t.Estimate,
	}
	if err := s.adopt(job, d, task); err != nil {
		return modal.Task{}, err
	}
	d.Tasks = append(d.Tasks, task)
	s.tasks[task.ID] = task
	return cloneTask(task), nil
}

// RemoveTask deletes a task together with its hold history.
func (s *Store) RemoveTask(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.task(taskID)
	if err != nil {
		return err
	}
	s.sched.Forget(t)
	delete(s.tasks, taskID)
	if _, d, err := s.drawing(t.JobNumber, t.DrawingID); err == nil {
		d.Tasks = slices.DeleteFunc(d.Tasks, func(x *modal.Task) bool { return x.ID == taskID })
	}
	return nil
}

func (s *Store) Jobs() []modal.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]modal.Job, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, cloneJob(s.jobs[n]))
	}
	return out
}

func (s *Store) Job(number string) (modal.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.job(number)
	if err != nil {
		return modal.Job{}, err
	}
	return cloneJob(job), nil
}

func (s *Store) Task(id string) (modal.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.task(id)
	if err != nil {
		return modal.Task{}, err
	}
	return cloneTask(t), nil
}

func (s *Store) job(number string) (*modal.Job, error) {
	job, ok := s.jobs[number]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", number, ErrNotFound)
	}
	return job, nil
}

func (s *Store) task(id string) (*modal.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (s *Store) drawing(jobNumber, drawingID string) (*modal.Job, *modal.Drawing, error) {
	job, err := s.job(jobNumber)
	if err != nil {
		return nil, nil, err
	}
	for _, d := range job.Drawings {
		if d.ID == drawingID || d.Number == drawingID {
			return job, d, nil
		}
	}
	return nil, nil, fmt.Errorf("drawing %s: %w", drawingID, ErrNotFound)
}

// ---------------------------------------------------------------------------
// Scheduling
// ---------------------------------------------------------------------------

// Evaluate runs the capacity check and applies the assignment when it fits.
func (s *Store) Evaluate(taskID, operatorID, date string) (modal.AssignmentOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.task(taskID)
	if err != nil {
		return modal.AssignmentOutcome{}, err
	}
	out, err := s.sched.Evaluate(t, operatorID, date)
	return snapshotOutcome(out), err
}

func (s *Store) ConfirmOvertime(taskID, operatorID, date string) (modal.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.task(taskID)
	if err != nil {
		return modal.Task{}, err
	}
	if err := s.sched.ConfirmOvertime(t, operatorID, date); err != nil {
		return modal.Task{}, err
	}
	return cloneTask(t), nil
}

func (s *Store) PickAlternative(taskID string, conflict modal.CapacityConflict, alternativeID string) (modal.AssignmentOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.task(taskID)
	if err != nil {
		return modal.AssignmentOutcome{}, err
	}
	out, err := s.sched.PickAlternative(t, conflict, alternativeID)
	return snapshotOutcome(out), err
}

func (s *Store) Unassign(taskID string) (modal.Task, error) {
	return s.mutateTask(taskID, s.sched.Unassign)
}

func snapshotOutcome(out modal.AssignmentOutcome) modal.AssignmentOutcome {
	if out.Task != nil {
		t := cloneTask(out.Task)
		out.Task = &t
	}
	return out
}

// DaySchedule lists the tasks planned for date; an operatorID narrows it to
// one operator.
func (s *Store) DaySchedule(date, operatorID string) []modal.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var tasks []*modal.Task
	if operatorID != "" {
		tasks = s.sched.TasksForOperatorOnDate(operatorID, date)
	} else {
		tasks = s.sched.DaySchedule(date)
	}
	out := make([]modal.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, cloneTask(t))
	}
	return out
}

func (s *Store) CurrentHours(operatorID, date string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched.CurrentHours(operatorID, date, "")
}

// ---------------------------------------------------------------------------
// Task lifecycle
// ---------------------------------------------------------------------------

func (s *Store) mutateTask(taskID string, fn func(*modal.Task) error) (modal.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.task(taskID)
	if err != nil {
		return modal.Task{}, err
	}
	if err := fn(t); err != nil {
		return cloneTask(t), err
	}
	return cloneTask(t), nil
}

func (s *Store) Start(taskID string) (modal.Task, error) {
	return s.mutateTask(taskID, func(t *modal.Task) error { return lifecycle.Start(t, s.now()) })
}

func (s *Store) Hold(taskID, reason string) (modal.Task, error) {
	return s.mutateTask(taskID, func(t *modal.Task) error { return lifecycle.Hold(t, reason, s.now()) })
}

func (s *Store) Resume(taskID string) (modal.Task, error) {
	return s.mutateTask(taskID, func(t *modal.Task) error { return lifecycle.Resume(t, s.now()) })
}

func (s *Store) Finish(taskID string) (modal.Task, error) {
	return s.mutateTask(taskID, func(t *modal.Task) error { return lifecycle.Finish(t, s.now()) })
}

// ---------------------------------------------------------------------------
// Phases and job milestones
// ---------------------------------------------------------------------------

// PhaseAction names a phase transition.
type PhaseAction string

const (
	PhaseStart  PhaseAction = "start"
	PhaseHold   PhaseAction = "hold"
	PhaseResume PhaseAction = "resume"
	PhaseFinish PhaseAction = "finish"
)

// TransitionPhase applies action to the named phase of a job. arg is the
// staff ID for start and the reason for hold.
func (s *Store) TransitionPhase(jobNumber string, name modal.PhaseName, action PhaseAction, arg string) (modal.Phase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.job(jobNumber)
	if err != nil {
		return modal.Phase{}, err
	}
	p := job.Phase(name)
	if p == nil {
		return modal.Phase{}, fmt.Errorf("phase %s: %w", name, ErrNotFound)
	}
	now := s.now()
	switch action {
	case PhaseStart:
		err = lifecycle.StartPhase(p, arg, now)
	case PhaseHold:
		err = lifecycle.HoldPhase(p, arg, now)
	case PhaseResume:
		err = lifecycle.ResumePhase(p, now)
	case PhaseFinish:
		err = lifecycle.FinishPhase(p, now)
	default:
		err = fmt.Errorf("phase action %q: %w", action, ErrNotFound)
	}
	return clonePhase(*p), err
}

// RecordRework logs a rework on a drawing.
func (s *Store) RecordRework(jobNumber, drawingID, processName, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, d, err := s.drawing(jobNumber, drawingID)
	if err != nil {
		return err
	}
	d.Reworks = append(d.Reworks, modal.ReworkRecord{At: s.now(), ProcessName: processName, Reason: reason})
	return nil
}

// ApproveQC records final quality approval of a drawing, once.
func (s *Store) ApproveQC(jobNumber, drawingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, d, err := s.drawing(jobNumber, drawingID)
	if err != nil {
		return err
	}
	if d.QCApprovedAt != nil {
		return fmt.Errorf("drawing %s QC: %w", d.Number, lifecycle.ErrAlreadyCompleted)
	}
	now := s.now()
	d.QCApprovedAt = &now
	return nil
}

// CompleteJob stamps job completion; DeliverJob stamps delivery after it.
func (s *Store) CompleteJob(jobNumber string) error {
	return s.stampJob(jobNumber, func(j *modal.Job) **time.Time { return &j.CompletedAt }, nil)
}

func (s *Store) DeliverJob(jobNumber string) error {
	return s.stampJob(jobNumber, func(j *modal.Job) **time.Time { return &j.DeliveredAt }, func(j *modal.Job) error {
		if j.CompletedAt == nil {
			return fmt.Errorf("job %s delivery: %w", j.Number, lifecycle.ErrNotStarted)
		}
		return nil
	})
}

func (s *Store) stampJob(jobNumber string, field func(*modal.Job) **time.Time, guard func(*modal.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.job(jobNumber)
	if err != nil {
		return err
	}
	slot := field(job)
	if *slot != nil {
		return fmt.Errorf("job %s: %w", job.Number, lifecycle.ErrAlreadyCompleted)
	}
	if guard != nil {
		if err := guard(job); err != nil {
			return err
		}
	}
	now := s.now()
	*slot = &now
	return nil
}

// ---------------------------------------------------------------------------
// Read models
// ---------------------------------------------------------------------------

func (s *Store) Timeline(jobNumber string) (timeline.Timeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.job(jobNumber)
	if err != nil {
		return timeline.Timeline{}, err
	}
	return timeline.Build(job, s.sched.Roster()), nil
}

func (s *Store) JobSummary(jobNumber string) (report.JobSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.job(jobNumber)
	if err != nil {
		return report.JobSummary{}, err
	}
	return report.Job(job, timeline.Build(job, s.sched.Roster())), nil
}

func (s *Store) TaskSummary(taskID string) (report.TaskSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.task(taskID)
	if err != nil {
		return report.TaskSummary{}, err
	}
	return report.Task(t), nil
}

func (s *Store) OperatorSummary(operatorID string) (report.OperatorSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sched.Operator(operatorID); !ok {
		return report.OperatorSummary{}, fmt.Errorf("operator %s: %w", operatorID, ErrNotFound)
	}
	jobs := make([]*modal.Job, 0, len(s.order))
	for _, n := range s.order {
		jobs = append(jobs, s.jobs[n])
	}
	return report.Operator(operatorID, jobs), nil
}
