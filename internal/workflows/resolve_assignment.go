package workflows

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"shopfloor-service/internal/activities"
	"shopfloor-service/internal/modal"
)

const TaskQueue = "SHOP_ASSIGNMENT_TASK_QUEUE"
const ConflictDecisionSignal = "CONFLICT_DECISION_SIGNAL"

// DecisionTimeout cancels a conflict nobody decided on.
const DecisionTimeout = 24 * time.Hour

// AssignmentWorkflowID keeps one running assignment workflow per task.
func AssignmentWorkflowID(taskID string) string {
	return "assign-" + taskID
}

// Workflow results.
const (
	ResultAssigned         = "ASSIGNED"
	ResultAssignedOvertime = "ASSIGNED_OVERTIME"
	ResultCancelled        = "CANCELLED"
	ResultExpired          = "EXPIRED"
)

type workflowState struct {
	Request         modal.AssignmentRequest `json:"request"`
	PendingConflict *modal.ConflictTask     `json:"pendingConflict,omitempty"`
	Audit           []modal.AuditEvent      `json:"audit,omitempty"`
}

// ResolveAssignment evaluates an assignment and, when it exceeds capacity,
// waits for a human decision: confirm overtime, try an alternative operator
// (which may conflict again) or cancel.
func ResolveAssignment(ctx workflow.Context, req modal.AssignmentRequest) (string, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("workflow started", "taskID", req.TaskID, "operatorID", req.OperatorID, "date", req.Date)

	state := &workflowState{
		Request: req,
		Audit:   make([]modal.AuditEvent, 0),
	}

	appendAudit := func(kind, message string, data map[string]any) {
		state.Audit = append(state.Audit, modal.AuditEvent{
			At:      workflow.Now(ctx),
			Kind:    kind,
			Message: message,
			Data:    data,
		})
	}

	_ = workflow.SetQueryHandler(ctx, "pending_conflict", func() (modal.ConflictTask, error) {
		if state.PendingConflict == nil {
			return modal.ConflictTask{}, nil
		}
		return *state.PendingConflict, nil
	})

	_ = workflow.SetQueryHandler(ctx, "audit_log", func() ([]modal.AuditEvent, error) {
		return state.Audit, nil
	})

	// Rejections come back as non-retryable application errors; only
	// transport failures are retried.
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    1 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var outcome modal.AssignmentOutcome
	if err := workflow.ExecuteActivity(ctx, "EvaluateAssignment", req).Get(ctx, &outcome); err != nil {
		logger.Error("failed to evaluate assignment", "error", err)
		appendAudit("ERROR", "evaluation rejected", map[string]any{"error": err.Error()})
		return "", err
	}

	sigCh := workflow.GetSignalChannel(ctx, ConflictDecisionSignal)

	for round := 1; ; round++ {
		if outcome.Accepted {
			appendAudit("ASSIGNED", "assignment accepted within capacity", map[string]any{
				"operatorId": outcome.Task.OperatorID,
			})
			state.PendingConflict = nil
			return ResultAssigned, nil
		}

		conflict := *outcome.Conflict
		pending := &modal.ConflictTask{
			ID:        fmt.Sprintf("conflict-%s-%d", req.TaskID, round),
			TaskID:    req.TaskID,
			Date:      conflict.Date,
			Conflict:  conflict,
			CreatedAt: workflow.Now(ctx),
		}
		state.PendingConflict = pending
		appendAudit("CAPACITY_CONFLICT", "assignment exceeds daily capacity", map[string]any{
			"operatorId":     conflict.Operator.ID,
			"currentHours":   conflict.CurrentHours,
			"estimatedHours": conflict.EstimatedHours,
			"alternatives":   len(conflict.Alternatives),
		})
		logger.Info("conflict raised, waiting for decision", "conflictID", pending.ID)

		decision, ok := awaitDecision(ctx, sigCh, pending, appendAudit)
		state.PendingConflict = nil
		if !ok {
			appendAudit(ResultExpired, "no decision before timeout", nil)
			return ResultExpired, nil
		}

		switch decision.Resolution {
		case modal.ResolveCancel:
			appendAudit(ResultCancelled, "assignment cancelled", map[string]any{"decider": decision.Decider})
			return ResultCancelled, nil

		case modal.ResolveOvertime:
			overtimeReq := modal.AssignmentRequest{TaskID: req.TaskID, OperatorID: conflict.Operator.ID, Date: conflict.Date}
			var task modal.Task
			if err := workflow.ExecuteActivity(ctx, "ConfirmOvertime", overtimeReq).Get(ctx, &task); err != nil {
				appendAudit("ERROR", "overtime rejected", map[string]any{"error": err.Error()})
				return "", err
			}
			appendAudit(ResultAssignedOvertime, "overtime confirmed", map[string]any{
				"operatorId": task.OperatorID,
				"decider":    decision.Decider,
			})
			return ResultAssignedOvertime, nil

		case modal.ResolveAlternative:
			pick := activities.PickAlternativeRequest{
				TaskID:        req.TaskID,
				Conflict:      conflict,
				AlternativeID: decision.AlternativeID,
			}
			if err := workflow.ExecuteActivity(ctx, "PickAlternative", pick).Get(ctx, &outcome); err != nil {
				appendAudit("ERROR", "alternative rejected", map[string]any{"error": err.Error()})
				return "", err
			}
			appendAudit("ALTERNATIVE_PICKED", "re-evaluating for alternative operator", map[string]any{
				"operatorId": decision.AlternativeID,
				"decider":    decision.Decider,
			})
		}
	}
}

// awaitDecision blocks until a valid decision for the pending conflict arrives
// or the decision timeout fires. Decisions for other conflicts are dropped;
// malformed ones are audited and ignored.
func awaitDecision(ctx workflow.Context, sigCh workflow.ReceiveChannel, pending *modal.ConflictTask,
	appendAudit func(kind, message string, data map[string]any)) (modal.ConflictDecision, bool) {

	timerCtx, cancelTimer := workflow.WithCancel(ctx)
	defer cancelTimer()
	timer := workflow.NewTimer(timerCtx, DecisionTimeout)

	var decision modal.ConflictDecision
	expired := false
	selector := workflow.NewSelector(ctx)
	selector.AddReceive(sigCh, func(c workflow.ReceiveChannel, more bool) {
		c.Receive(ctx, &decision)
	})
	selector.AddFuture(timer, func(f workflow.Future) {
		expired = true
	})

	for {
		decision = modal.ConflictDecision{}
		selector.Select(ctx)
		if expired {
			return modal.ConflictDecision{}, false
		}
		if decision.ConflictID != pending.ID {
			continue
		}
		switch decision.Resolution {
		case modal.ResolveCancel, modal.ResolveOvertime:
			return decision, true
		case modal.ResolveAlternative:
			if offered(pending.Conflict, decision.AlternativeID) {
				return decision, true
			}
		}
		appendAudit("INVALID_DECISION", "decision ignored", map[string]any{
			"resolution":    decision.Resolution,
			"alternativeId": decision.AlternativeID,
		})
	}
}

func offered(c modal.CapacityConflict, operatorID string) bool {
	for _, alt := range c.Alternatives {
		if alt.Operator.ID == operatorID {
			return true
		}
	}
	return false
}
