package shop

import (
	"time"

	"shopfloor-service/internal/modal"
)

// DemoOperators is the roster loaded with -seed.
func DemoOperators() []modal.Operator {
	return []modal.Operator{
		{ID: "E1", Name: "Incoherent Rambler", Department: "machining"},
		{ID: "E2", Name: "John & John", Department: "machining"},
		{ID: "E3", Name: "Rob", Department: "machining"},
		{ID: "E4", Name: "Dana", Department: "fabrication"},
		{ID: "E5", Name: "Kim", Department: "fabrication"},
		{ID: "E6", Name: "Lee", Department: "quality"},
	}
}

// DemoJobs returns a few jobs created relative to now.
func DemoJobs(now time.Time) []*modal.Job {
	day := now.Truncate(24 * time.Hour)
	created := day.Add(-72 * time.Hour)
	return []*modal.Job{
		{
			Number:    "J1001",
			Title:     "Rocket Bracket",
			CreatedAt: created,
			Drawings: []*modal.Drawing{{
				Number: "J1001-D1",
				Tasks: []*modal.Task{
					{ProcessName: "cutting", Sequence: 1, Estimate: modal.Estimate{Hours: 1, Minutes: 30}},
					{ProcessName: "milling", Sequence: 2, Estimate: modal.Estimate{Hours: 4}},
					{ProcessName: "inspection", Sequence: 3, Estimate: modal.Estimate{Minutes: 45}},
				},
			}},
		},
		{
			Number:    "J1002",
			Title:     "Valve Body",
			CreatedAt: created.Add(2 * time.Hour),
			Drawings: []*modal.Drawing{
				{
					Number: "J1002-D1",
					Tasks: []*modal.Task{
						{ProcessName: "turning", Sequence: 1, Estimate: modal.Estimate{Hours: 3}},
						{ProcessName: "milling", Sequence: 2, Estimate: modal.Estimate{Hours: 2, Minutes: 30}},
					},
				},
				{
					Number: "J1002-D2",
					Tasks: []*modal.Task{
						{ProcessName: "welding", Sequence: 1, Estimate: modal.Estimate{Hours: 5}},
					},
				},
			},
		},
		{
			Number:    "J1003",
			Title:     "Watch Crown",
			CreatedAt: created.Add(26 * time.Hour),
			Drawings: []*modal.Drawing{{
				Number: "J1003-D1",
				Tasks: []*modal.Task{
					{ProcessName: "turning", Sequence: 1, Estimate: modal.Estimate{Hours: 6}},
					{ProcessName: "grinding", Sequence: 2, Estimate: modal.Estimate{Hours: 1, Minutes: 15}},
				},
			}},
		},
	}
}

// Seed loads the demo jobs into s.
func Seed(s *Store, now time.Time) error {
	for _, job := range DemoJobs(now) {
		if err := s.AddJob(job); err != nil {
			return err
		}
	}
	return nil
}
