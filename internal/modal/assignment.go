package modal

// AlternativeOperator is an operator of the same department offered when the
// chosen operator is over capacity.
type AlternativeOperator struct {
	Operator     Operator `json:"operator"`
	CurrentHours float64  `json:"currentHours"`
	// Fits is true when the task would keep this operator within capacity.
	Fits bool `json:"fits"`
}

// CapacityConflict describes an assignment that would exceed the daily threshold.
type CapacityConflict struct {
	TaskID         string                `json:"taskId"`
	Date           string                `json:"date"`
	Operator       Operator              `json:"operator"`
	CurrentHours   float64               `json:"currentHours"`
	EstimatedHours float64               `json:"estimatedHours"`
	Department     string                `json:"department,omitempty"`
	Alternatives   []AlternativeOperator `json:"alternatives"`
}

// ProjectedHours is the operator's load if the task were accepted.
func (c CapacityConflict) ProjectedHours() float64 {
	return c.CurrentHours + c.EstimatedHours
}

// AssignmentOutcome is the result of evaluating an assignment. Exactly one of
// Accepted or Conflict is set.
type AssignmentOutcome struct {
	Accepted bool              `json:"accepted"`
	Task     *Task             `json:"task,omitempty"`
	Conflict *CapacityConflict `json:"conflict,omitempty"`
}

// AssignmentRequest is the input of the assignment workflow and its activities.
type AssignmentRequest struct {
	TaskID     string `json:"taskId"`
	OperatorID string `json:"operatorId"`
	Date       string `json:"date"`
}
