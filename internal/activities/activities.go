package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"shopfloor-service/internal/capacity"
	"shopfloor-service/internal/lifecycle"
	"shopfloor-service/internal/modal"
	"shopfloor-service/internal/shop"
)

// RejectedErrorType marks application errors that must not be retried:
// retrying a rejected transition would only be rejected again.
const RejectedErrorType = "ASSIGNMENT_REJECTED"

type Activities struct {
	Shop *shop.Store
}

// PickAlternativeRequest re-evaluates a conflicted task for an offered alternative.
type PickAlternativeRequest struct {
	TaskID        string                 `json:"taskId"`
	Conflict      modal.CapacityConflict `json:"conflict"`
	AlternativeID string                 `json:"alternativeId"`
}

func (a *Activities) EvaluateAssignment(ctx context.Context, req modal.AssignmentRequest) (modal.AssignmentOutcome, error) {
	logger := activity.GetLogger(ctx)
	out, err := a.Shop.Evaluate(req.TaskID, req.OperatorID, req.Date)
	if err != nil {
		return modal.AssignmentOutcome{}, classify(err)
	}
	if out.Conflict != nil {
		logger.Info("capacity conflict", "taskID", req.TaskID, "operatorID", req.OperatorID,
			"currentHours", out.Conflict.CurrentHours, "estimatedHours", out.Conflict.EstimatedHours)
	}
	return out, nil
}

func (a *Activities) ConfirmOvertime(ctx context.Context, req modal.AssignmentRequest) (modal.Task, error) {
	t, err := a.Shop.ConfirmOvertime(req.TaskID, req.OperatorID, req.Date)
	if err != nil {
		return modal.Task{}, classify(err)
	}
	activity.GetLogger(ctx).Info("overtime confirmed", "taskID", req.TaskID, "operatorID", req.OperatorID)
	return t, nil
}

func (a *Activities) PickAlternative(ctx context.Context, req PickAlternativeRequest) (modal.AssignmentOutcome, error) {
	out, err := a.Shop.PickAlternative(req.TaskID, req.Conflict, req.AlternativeID)
	if err != nil {
		return modal.AssignmentOutcome{}, classify(err)
	}
	return out, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, lifecycle.ErrIntegrity):
		return temporal.NewNonRetryableApplicationError(err.Error(), "INTEGRITY_VIOLATION", err)
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, capacity.ErrMissingInput),
		errors.Is(err, capacity.ErrNotAlternative),
		errors.Is(err, shop.ErrNotFound):
		return temporal.NewNonRetryableApplicationError(err.Error(), RejectedErrorType, err)
	}
	return err
}
