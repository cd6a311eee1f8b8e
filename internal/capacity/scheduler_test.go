package capacity

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"shopfloor-service/internal/lifecycle"
	"shopfloor-service/internal/modal"
)

const day = "2024-06-01"

var roster = []modal.Operator{
	{ID: "op-1", Name: "Ana", Department: "machining"},
	{ID: "op-2", Name: "Ben", Department: "machining"},
	{ID: "op-3", Name: "Cai", Department: "machining"},
	{ID: "op-4", Name: "Dee", Department: "welding"},
}

var departments = DepartmentFunc(func(process string) (string, bool) {
	switch process {
	case "milling", "turning":
		return "machining", true
	case "welding":
		return "welding", true
	}
	return "", false
})

func newTask(id string, hours, minutes int) *modal.Task {
	t := &modal.Task{
		ID:          id,
		JobNumber:   "J-100",
		ProcessName: "milling",
		Estimate:    modal.Estimate{Hours: hours, Minutes: minutes},
	}
	if err := lifecycle.Normalize(t); err != nil {
		panic(err)
	}
	return t
}

// commit assigns t directly, bypassing capacity, to build up a day's load.
func commit(t *testing.T, s *Scheduler, task *modal.Task, operatorID string) {
	t.Helper()
	if err := s.ConfirmOvertime(task, operatorID, day); err != nil {
		t.Fatalf("commit %s: %v", task.ID, err)
	}
	task.IsOvertime = false
}

func TestAcceptWithinCapacity(t *testing.T) {
	s := NewScheduler(roster, departments)
	commit(t, s, newTask("a", 4, 0), "op-1")

	task := newTask("b", 4, 0)
	out, err := s.Evaluate(task, "op-1", day)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Accepted || out.Conflict != nil {
		t.Fatalf("expected accept at exactly 8h, got %+v", out)
	}
	if task.OperatorID != "op-1" || task.PlannedDate != day || task.IsOvertime {
		t.Fatalf("assignment not written back: %+v", task)
	}
	if got := s.CurrentHours("op-1", day, ""); got != 8 {
		t.Fatalf("expected 8h committed, got %v", got)
	}
}

func TestConflictScenario(t *testing.T) {
	s := NewScheduler(roster, departments)
	commit(t, s, newTask("a", 4, 0), "op-1")
	commit(t, s, newTask("b", 2, 30), "op-1")
	commit(t, s, newTask("c", 7, 0), "op-2")

	task := newTask("d", 2, 0)
	out, err := s.Evaluate(task, "op-1", day)
	if err != nil {
		t.Fatal(err)
	}
	if out.Accepted || out.Conflict == nil {
		t.Fatalf("expected conflict, got %+v", out)
	}
	c := out.Conflict
	if c.CurrentHours != 6.5 || c.EstimatedHours != 2 || c.ProjectedHours() != 8.5 {
		t.Fatalf("unexpected conflict numbers: %+v", c)
	}
	if task.OperatorID != "" || task.State != modal.StateUnassigned {
		t.Fatal("conflict must not mutate the task")
	}

	if len(c.Alternatives) != 2 {
		t.Fatalf("expected 2 alternatives in machining, got %+v", c.Alternatives)
	}
	for _, alt := range c.Alternatives {
		if alt.Operator.ID == "op-1" || alt.Operator.Department != "machining" {
			t.Fatalf("unexpected alternative %+v", alt)
		}
	}
	if alt := c.Alternatives[0]; alt.Operator.ID != "op-2" || alt.CurrentHours != 7 || alt.Fits {
		t.Fatalf("unexpected op-2 annotation %+v", alt)
	}
	if alt := c.Alternatives[1]; alt.Operator.ID != "op-3" || alt.CurrentHours != 0 || !alt.Fits {
		t.Fatalf("unexpected op-3 annotation %+v", alt)
	}

	if err := s.ConfirmOvertime(task, "op-1", day); err != nil {
		t.Fatal(err)
	}
	if !task.IsOvertime || task.OperatorID != "op-1" {
		t.Fatalf("expected overtime assignment, got %+v", task)
	}
	if got := s.CurrentHours("op-1", day, ""); got != 8.5 {
		t.Fatalf("expected 8.5h, got %v", got)
	}
}

func TestPickAlternativeRecurses(t *testing.T) {
	s := NewScheduler(roster, departments)
	commit(t, s, newTask("a", 7, 0), "op-1")
	commit(t, s, newTask("b", 7, 0), "op-2")

	task := newTask("c", 2, 0)
	out, _ := s.Evaluate(task, "op-1", day)
	if out.Conflict == nil {
		t.Fatal("expected conflict")
	}

	// op-2 is also full: a new conflict, offering op-1 and op-3
	out2, err := s.PickAlternative(task, *out.Conflict, "op-2")
	if err != nil {
		t.Fatal(err)
	}
	if out2.Conflict == nil || out2.Conflict.Operator.ID != "op-2" {
		t.Fatalf("expected nested conflict for op-2, got %+v", out2)
	}

	out3, err := s.PickAlternative(task, *out2.Conflict, "op-3")
	if err != nil {
		t.Fatal(err)
	}
	if !out3.Accepted || task.OperatorID != "op-3" {
		t.Fatalf("expected accept on op-3, got %+v", out3)
	}

	if _, err := s.PickAlternative(task, *out.Conflict, "op-4"); !errors.Is(err, ErrNotAlternative) {
		t.Fatalf("expected ErrNotAlternative, got %v", err)
	}
}

func TestUnresolvedDepartmentHasNoAlternatives(t *testing.T) {
	s := NewScheduler(roster, departments)
	commit(t, s, newTask("a", 8, 0), "op-1")
	task := newTask("b", 1, 0)
	task.ProcessName = "painting"

	out, _ := s.Evaluate(task, "op-1", day)
	if out.Conflict == nil || len(out.Conflict.Alternatives) != 0 || out.Conflict.Department != "" {
		t.Fatalf("expected conflict without alternatives, got %+v", out.Conflict)
	}
}

func TestReassignExcludesSelf(t *testing.T) {
	s := NewScheduler(roster, departments)
	task := newTask("a", 6, 0)
	if out, _ := s.Evaluate(task, "op-1", day); !out.Accepted {
		t.Fatal("expected accept")
	}
	// re-evaluating the same task on the same day must not double count it
	out, err := s.Evaluate(task, "op-1", day)
	if err != nil || !out.Accepted {
		t.Fatalf("expected accept on reassign, got %+v %v", out, err)
	}
	if got := s.CurrentHours("op-1", day, ""); got != 6 {
		t.Fatalf("expected 6h, got %v", got)
	}
}

func TestAssignThenUnassignRestoresLoad(t *testing.T) {
	s := NewScheduler(roster, departments)
	commit(t, s, newTask("a", 3, 15), "op-1")
	before := totalHours(s, "machining")

	task := newTask("b", 1, 45)
	if out, _ := s.Evaluate(task, "op-2", day); !out.Accepted {
		t.Fatal("expected accept")
	}
	if got := totalHours(s, "machining"); got != before+1.75 {
		t.Fatalf("expected load to grow by 1.75h, got %v -> %v", before, got)
	}

	out, err := s.Evaluate(task, "", day)
	if err != nil || !out.Accepted {
		t.Fatalf("unassign must never conflict: %+v %v", out, err)
	}
	if got := totalHours(s, "machining"); got != before {
		t.Fatalf("expected %v after unassign, got %v", before, got)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	build := func() (*Scheduler, *modal.Task) {
		s := NewScheduler(roster, departments)
		for i := 0; i < 4; i++ {
			commit(t, s, newTask(fmt.Sprintf("x%d", i), 1, 50), "op-1")
		}
		return s, newTask("y", 1, 0)
	}
	s1, t1 := build()
	s2, t2 := build()
	o1, _ := s1.Evaluate(t1, "op-1", day)
	o2, _ := s2.Evaluate(t2, "op-1", day)
	if o1.Accepted != o2.Accepted || (o1.Conflict == nil) != (o2.Conflict == nil) {
		t.Fatalf("outcomes differ: %+v vs %+v", o1, o2)
	}
	if o1.Conflict.CurrentHours != o2.Conflict.CurrentHours {
		t.Fatal("conflict hours differ")
	}
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	s := NewScheduler(roster, departments)
	task := newTask("a", 1, 0)
	if _, err := s.Evaluate(task, "nobody", day); !errors.Is(err, ErrUnknownOperator) || !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrUnknownOperator, got %v", err)
	}
	if _, err := s.Evaluate(task, "op-1", "06/01/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if task.OperatorID != "" {
		t.Fatal("rejected input must not mutate the task")
	}
}

func TestEvaluateRejectsStartedTask(t *testing.T) {
	s := NewScheduler(roster, departments)
	task := newTask("a", 1, 0)
	if _, err := s.Evaluate(task, "op-1", day); err != nil {
		t.Fatal(err)
	}
	if err := lifecycle.Start(task, time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Evaluate(task, "op-2", day); !errors.Is(err, lifecycle.ErrAlreadyStarted) {
		t.Fatalf("expected ErrAlreadyStarted, got %v", err)
	}
}

func TestDayScheduleOrder(t *testing.T) {
	s := NewScheduler(roster, departments)
	mk := func(id, job string, seq int) *modal.Task {
		task := newTask(id, 1, 0)
		task.JobNumber, task.Sequence = job, seq
		return task
	}
	commit(t, s, mk("t1", "J-200", 2), "op-1")
	commit(t, s, mk("t2", "J-100", 2), "op-2")
	commit(t, s, mk("t3", "J-300", 1), "op-1")

	got := s.DaySchedule(day)
	want := []string{"t3", "t2", "t1"}
	if len(got) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	if n := len(s.TasksForOperatorOnDate("op-1", day)); n != 2 {
		t.Fatalf("expected 2 tasks for op-1, got %d", n)
	}
}

func totalHours(s *Scheduler, dept string) float64 {
	var sum float64
	for _, op := range s.Roster() {
		if op.Department == dept {
			sum += s.CurrentHours(op.ID, day, "")
		}
	}
	return sum
}

func TestConfirmOvertimeWithinCapacityIsNotOvertime(t *testing.T) {
	s := NewScheduler(roster, departments)
	task := newTask("a", 1, 0)
	if err := s.ConfirmOvertime(task, "op-1", day); err != nil {
		t.Fatal(err)
	}
	if task.IsOvertime || task.OperatorID != "op-1" {
		t.Fatalf("a task that fits must not be marked overtime: %+v", task)
	}
	if got := s.CurrentHours("op-1", day, ""); got != 1 {
		t.Fatalf("expected 1h, got %v", got)
	}
}
