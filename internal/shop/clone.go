package shop

import (
	"slices"
	"time"

	"shopfloor-service/internal/modal"
)

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneHolds(holds []modal.HoldInterval) []modal.HoldInterval {
	if holds == nil {
		return nil
	}
	out := make([]modal.HoldInterval, len(holds))
	for i, h := range holds {
		out[i] = modal.HoldInterval{HoldAt: h.HoldAt, ResumeAt: cloneTime(h.ResumeAt), Reason: h.Reason}
	}
	return out
}

func cloneTask(t *modal.Task) modal.Task {
	c := *t
	c.StartedAt = cloneTime(t.StartedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.HoldHistory = cloneHolds(t.HoldHistory)
	return c
}

func clonePhase(p modal.Phase) modal.Phase {
	p.StartedAt = cloneTime(p.StartedAt)
	p.FinishedAt = cloneTime(p.FinishedAt)
	p.Holds = cloneHolds(p.Holds)
	return p
}

func cloneJob(j *modal.Job) modal.Job {
	c := *j
	c.Design = clonePhase(j.Design)
	c.Programming = clonePhase(j.Programming)
	c.CompletedAt = cloneTime(j.CompletedAt)
	c.DeliveredAt = cloneTime(j.DeliveredAt)
	c.Drawings = make([]*modal.Drawing, len(j.Drawings))
	for i, d := range j.Drawings {
		dc := *d
		dc.QCApprovedAt = cloneTime(d.QCApprovedAt)
		dc.Reworks = slices.Clone(d.Reworks)
		dc.Tasks = make([]*modal.Task, len(d.Tasks))
		for k, t := range d.Tasks {
			tc := cloneTask(t)
			dc.Tasks[k] = &tc
		}
		c.Drawings[i] = &dc
	}
	return c
}
