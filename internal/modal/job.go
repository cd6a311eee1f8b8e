package modal

import "time"

type Job struct {
	Number      string     `json:"number"`
	Title       string     `json:"title"`
	CreatedAt   time.Time  `json:"createdAt"`
	Design      Phase      `json:"design"`
	Programming Phase      `json:"programming"`
	Drawings    []*Drawing `json:"drawings"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
}

// Phase returns the named staff phase, or nil for an unknown name.
func (j *Job) Phase(name PhaseName) *Phase {
	switch name {
	case PhaseDesign:
		return &j.Design
	case PhaseProgramming:
		return &j.Programming
	}
	return nil
}

// Phase is a job-level staff stage with its own hold history.
type Phase struct {
	Name       PhaseName      `json:"name"`
	StaffID    string         `json:"staffId,omitempty"`
	StartedAt  *time.Time     `json:"startedAt,omitempty"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
	Paused     bool           `json:"paused"`
	Holds      []HoldInterval `json:"holds,omitempty"`
}

type Drawing struct {
	ID           string         `json:"id"`
	Number       string         `json:"number"`
	Tasks        []*Task        `json:"tasks"`
	Reworks      []ReworkRecord `json:"reworks,omitempty"`
	QCApprovedAt *time.Time     `json:"qcApprovedAt,omitempty"`
}

type ReworkRecord struct {
	At          time.Time `json:"at"`
	ProcessName string    `json:"processName"`
	Reason      string    `json:"reason"`
}

// TimelineEvent is a derived, read-only entry of a job timeline.
type TimelineEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Category  Category  `json:"category"`
	Title     string    `json:"title"`
	Details   string    `json:"details,omitempty"`
}
