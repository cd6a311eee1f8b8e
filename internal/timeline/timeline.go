// Package timeline merges the lifecycle events of a job, its staff phases and
// its shop-floor tasks into one chronological, categorized sequence.
package timeline

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"shopfloor-service/internal/duration"
	"shopfloor-service/internal/modal"
)

// Timeline is a job's merged event sequence plus one sub-sequence per category.
type Timeline struct {
	JobNumber  string                                   `json:"jobNumber"`
	Events     []modal.TimelineEvent                    `json:"events"`
	ByCategory map[modal.Category][]modal.TimelineEvent `json:"byCategory"`
}

type builder struct {
	events []modal.TimelineEvent
	names  map[string]string
}

func (b *builder) add(at time.Time, c modal.Category, title, details string) {
	b.events = append(b.events, modal.TimelineEvent{Timestamp: at, Category: c, Title: title, Details: details})
}

func (b *builder) operator(id string) string {
	if n, ok := b.names[id]; ok && n != "" {
		return n
	}
	return id
}

// Build collects every event of job. Events are sorted by timestamp; ties are
// broken by category priority and then by generation order.
func Build(job *modal.Job, roster []modal.Operator) Timeline {
	b := &builder{names: make(map[string]string, len(roster))}
	for _, op := range roster {
		b.names[op.ID] = op.Name
	}

	b.add(job.CreatedAt, modal.CategoryCreation, "Job created", job.Title)
	b.phase(&job.Design, modal.CategoryDesign, "Design")
	b.phase(&job.Programming, modal.CategoryProgramming, "Programming")

	for _, d := range job.Drawings {
		tasks := slices.Clone(d.Tasks)
		slices.SortStableFunc(tasks, func(x, y *modal.Task) int { return cmp.Compare(x.Sequence, y.Sequence) })
		for _, t := range tasks {
			b.task(d, t)
		}
		for _, r := range d.Reworks {
			b.add(r.At, modal.CategoryRework, fmt.Sprintf("Rework on %s", d.Number),
				fmt.Sprintf("%s: %s", r.ProcessName, r.Reason))
		}
		if d.QCApprovedAt != nil {
			b.add(*d.QCApprovedAt, modal.CategoryQualityCheck, fmt.Sprintf("Final QC approved for %s", d.Number), "")
		}
	}

	if job.CompletedAt != nil {
		b.add(*job.CompletedAt, modal.CategoryFinalization, "Job completed", "")
	}
	if job.DeliveredAt != nil {
		b.add(*job.DeliveredAt, modal.CategoryFinalization, "Job delivered", "")
	}

	slices.SortStableFunc(b.events, func(x, y modal.TimelineEvent) int {
		if c := x.Timestamp.Compare(y.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(x.Category.Priority(), y.Category.Priority())
	})

	tl := Timeline{
		JobNumber:  job.Number,
		Events:     b.events,
		ByCategory: make(map[modal.Category][]modal.TimelineEvent),
	}
	for _, ev := range b.events {
		tl.ByCategory[ev.Category] = append(tl.ByCategory[ev.Category], ev)
	}
	return tl
}

func (b *builder) phase(p *modal.Phase, c modal.Category, label string) {
	if p.StartedAt != nil {
		details := ""
		if p.StaffID != "" {
			details = "by " + b.operator(p.StaffID)
		}
		b.add(*p.StartedAt, c, label+" started", details)
	}
	b.holds(p.Holds, label)
	if p.FinishedAt != nil {
		net, ok := duration.PhaseNet(p)
		b.add(*p.FinishedAt, c, label+" finished", "net "+duration.FormatDH(net, ok))
	}
}

func (b *builder) holds(holds []modal.HoldInterval, label string) {
	for _, h := range holds {
		b.add(h.HoldAt, modal.CategoryHoldResume, label+" on hold", h.Reason)
		if h.ResumeAt != nil {
			b.add(*h.ResumeAt, modal.CategoryHoldResume, label+" resumed",
				"held "+duration.FormatHM(h.ResumeAt.Sub(h.HoldAt), true))
		}
	}
}

func (b *builder) task(d *modal.Drawing, t *modal.Task) {
	label := fmt.Sprintf("%s %s", d.Number, t.ProcessName)
	if t.OperatorID != "" && t.StartedAt != nil {
		who := b.operator(t.OperatorID)
		b.add(*t.StartedAt, modal.CategoryOperatorWorkflow, label+" started", "by "+who)
		b.holds(t.HoldHistory, label)
		if t.CompletedAt != nil {
			net, ok := duration.TaskNet(t)
			b.add(*t.CompletedAt, modal.CategoryOperatorWorkflow, label+" finished",
				fmt.Sprintf("by %s, net %s", who, duration.FormatHM(net, ok)))
		}
	}
	if t.CompletedAt != nil {
		b.add(*t.CompletedAt, modal.CategoryProductionProcess, label+" completed", "")
	}
}

// ProductionSpan returns the timestamps of the first and last process, rework
// or quality-check events. ok is false when there are none.
func (tl Timeline) ProductionSpan() (start, end *time.Time, ok bool) {
	for i := range tl.Events {
		ev := &tl.Events[i]
		switch ev.Category {
		case modal.CategoryProductionProcess, modal.CategoryRework, modal.CategoryQualityCheck:
		default:
			continue
		}
		if start == nil {
			start = &ev.Timestamp
		}
		end = &ev.Timestamp
	}
	return start, end, start != nil
}
