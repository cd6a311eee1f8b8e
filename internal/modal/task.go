package modal

import "time"

// HoldInterval is one pause of a task or phase. A nil ResumeAt means the
// interval is still open.
type HoldInterval struct {
	HoldAt   time.Time  `json:"holdAt"`
	ResumeAt *time.Time `json:"resumeAt,omitempty"`
	Reason   string     `json:"reason"`
}

// Open reports whether the interval has not been resumed yet.
func (h HoldInterval) Open() bool { return h.ResumeAt == nil }

// Estimate is a planned task duration. Minutes may exceed 59.
type Estimate struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// Task is one process step on a drawing. Drawings hold tasks by pointer and
// every transition mutates the task in place.
type Task struct {
	ID          string    `json:"id"`
	DrawingID   string    `json:"drawingId"`
	JobNumber   string    `json:"jobNumber"`
	ProcessName string    `json:"processName"`
	Sequence    int       `json:"sequence"`
	Estimate    Estimate  `json:"estimate"`
	OperatorID  string    `json:"operatorId,omitempty"`
	PlannedDate string    `json:"plannedDate,omitempty"` // YYYY-MM-DD
	State       TaskState `json:"state"`

	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	HoldHistory []HoldInterval `json:"holdHistory,omitempty"`
	IsOvertime  bool           `json:"isOvertime"`
}

// IsPaused reports whether the task is currently on hold.
func (t *Task) IsPaused() bool { return t.State == StateOnHold }

// Completed reports whether the task has finished.
func (t *Task) Completed() bool { return t.State == StateCompleted }

// Operator is a shop-floor worker who can be offered tasks of their department.
type Operator struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

// ConflictTask is the human task raised when an assignment exceeds capacity.
type ConflictTask struct {
	ID        string           `json:"id"`
	TaskID    string           `json:"taskId"`
	Date      string           `json:"date"`
	Conflict  CapacityConflict `json:"conflict"`
	CreatedAt time.Time        `json:"createdAt"`
}

// ConflictDecision is the signal payload that settles a ConflictTask.
type ConflictDecision struct {
	ConflictID    string     `json:"conflictId"`
	Resolution    Resolution `json:"resolution"`
	AlternativeID string     `json:"alternativeId,omitempty"`
	Notes         string     `json:"notes"`
	DecidedAt     time.Time  `json:"decidedAt"`
	Decider       string     `json:"decider"`
}

type AuditEvent struct {
	At      time.Time      `json:"at"`
	Kind    string         `json:"kind"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}
