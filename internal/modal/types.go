package modal

// TaskState is the explicit lifecycle state of a shop-floor task.
type TaskState string

const (
	StateUnassigned TaskState = "UNASSIGNED"
	StateAssigned   TaskState = "ASSIGNED"
	StateInProgress TaskState = "IN_PROGRESS"
	StateOnHold     TaskState = "ON_HOLD"
	StateCompleted  TaskState = "COMPLETED"
)

// IsStarted reports whether the state is at or past InProgress.
func (s TaskState) IsStarted() bool {
	return s == StateInProgress || s == StateOnHold || s == StateCompleted
}

// Category groups timeline events for focused display.
type Category string

const (
	CategoryCreation          Category = "creation"
	CategoryDesign            Category = "design"
	CategoryProgramming       Category = "programming"
	CategoryProductionProcess Category = "production-process"
	CategoryRework            Category = "rework"
	CategoryQualityCheck      Category = "quality-check"
	CategoryFinalization      Category = "finalization"
	CategoryOperatorWorkflow  Category = "operator-workflow"
	CategoryHoldResume        Category = "hold-resume"
)

// Categories lists every category in display priority order. Events sharing a
// timestamp are ordered by their position in this list.
var Categories = []Category{
	CategoryCreation,
	CategoryDesign,
	CategoryProgramming,
	CategoryProductionProcess,
	CategoryRework,
	CategoryQualityCheck,
	CategoryFinalization,
	CategoryOperatorWorkflow,
	CategoryHoldResume,
}

// Priority returns the tie-break rank of c; unknown categories sort last.
func (c Category) Priority() int {
	for i, k := range Categories {
		if k == c {
			return i
		}
	}
	return len(Categories)
}

// PhaseName identifies one of the two staff phases of a job.
type PhaseName string

const (
	PhaseDesign      PhaseName = "design"
	PhaseProgramming PhaseName = "programming"
)

// Resolution is how a capacity conflict was settled.
type Resolution string

const (
	ResolveOvertime    Resolution = "OVERTIME"
	ResolveAlternative Resolution = "ALTERNATIVE"
	ResolveCancel      Resolution = "CANCEL"
)
