// Package report rolls net durations up per task, phase, operator and job.
package report

import (
	"time"

	"shopfloor-service/internal/duration"
	"shopfloor-service/internal/modal"
	"shopfloor-service/internal/timeline"
)

// Span is a net duration with its display form.
type Span struct {
	Available bool          `json:"available"`
	Net       time.Duration `json:"net"`
	Display   string        `json:"display"`
}

func taskSpan(d time.Duration, ok bool) Span {
	return Span{Available: ok, Net: d, Display: duration.FormatHM(d, ok)}
}

func phaseSpan(d time.Duration, ok bool) Span {
	return Span{Available: ok, Net: d, Display: duration.FormatDH(d, ok)}
}

type TaskSummary struct {
	TaskID         string          `json:"taskId"`
	State          modal.TaskState `json:"state"`
	EstimatedHours float64         `json:"estimatedHours"`
	Held           time.Duration   `json:"held"`
	Net            Span            `json:"net"`
	// Variance is net minus estimate; only set for completed tasks.
	Variance *time.Duration `json:"variance,omitempty"`
}

func Task(t *modal.Task) TaskSummary {
	net, ok := duration.TaskNet(t)
	s := TaskSummary{
		TaskID:         t.ID,
		State:          t.State,
		EstimatedHours: duration.EstimatedHours(t.Estimate),
		Held:           duration.Held(t.HoldHistory),
		Net:            taskSpan(net, ok),
	}
	if ok {
		v := net - duration.Estimated(t.Estimate)
		s.Variance = &v
	}
	return s
}

type JobSummary struct {
	JobNumber   string `json:"jobNumber"`
	Design      Span   `json:"design"`
	Programming Span   `json:"programming"`
	Production  Span   `json:"production"`
	LeadTime    Span   `json:"leadTime"`
	Tasks       int    `json:"tasks"`
	Completed   int    `json:"completed"`
	Overtime    int    `json:"overtime"`
}

// Job summarizes phase, production and lead-time spans. Production is
// bounded by the first and last production milestones of the timeline.
func Job(job *modal.Job, tl timeline.Timeline) JobSummary {
	s := JobSummary{JobNumber: job.Number}
	s.Design = phaseSpan(duration.PhaseNet(&job.Design))
	s.Programming = phaseSpan(duration.PhaseNet(&job.Programming))

	start, end, _ := tl.ProductionSpan()
	s.Production = phaseSpan(duration.Net(start, end, nil))

	created := job.CreatedAt
	finish := job.DeliveredAt
	if finish == nil {
		finish = job.CompletedAt
	}
	s.LeadTime = phaseSpan(duration.Net(&created, finish, nil))

	for _, d := range job.Drawings {
		for _, t := range d.Tasks {
			s.Tasks++
			if t.Completed() {
				s.Completed++
			}
			if t.IsOvertime {
				s.Overtime++
			}
		}
	}
	return s
}

type OperatorSummary struct {
	OperatorID string  `json:"operatorId"`
	Assigned   int     `json:"assigned"`
	Completed  int     `json:"completed"`
	Overtime   int     `json:"overtime"`
	Estimated  float64 `json:"estimatedHours"`
	Worked     Span    `json:"worked"`
}

// Operator totals the net time an operator spent on completed tasks across jobs.
func Operator(operatorID string, jobs []*modal.Job) OperatorSummary {
	s := OperatorSummary{OperatorID: operatorID}
	var worked time.Duration
	for _, job := range jobs {
		for _, d := range job.Drawings {
			for _, t := range d.Tasks {
				if t.OperatorID != operatorID {
					continue
				}
				s.Assigned++
				s.Estimated += duration.EstimatedHours(t.Estimate)
				if t.IsOvertime {
					s.Overtime++
				}
				if net, ok := duration.TaskNet(t); ok {
					s.Completed++
					worked += net
				}
			}
		}
	}
	s.Worked = taskSpan(worked, true)
	return s
}
