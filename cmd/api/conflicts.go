package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"go.temporal.io/api/workflowservice/v1"

	"shopfloor-service/internal/capacity"
	"shopfloor-service/internal/modal"
	"shopfloor-service/internal/workflows"
)

// maxConflictRows caps how many running workflows are queried per listing.
const maxConflictRows = 100

type conflictRow struct {
	WorkflowID string             `json:"workflowId"`
	RunID      string             `json:"runId"`
	Conflict   modal.ConflictTask `json:"conflict"`
}

// handleConflicts lists running assignment workflows that are waiting on a
// planner decision. ?taskId= narrows the visibility query to one task.
func (s *apiServer) handleConflicts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	query, err := conflictsQuery(r.URL.Query().Get("taskId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := s.tc.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
		Query:    query,
		PageSize: 200,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rows := make([]conflictRow, 0)
	for _, ex := range resp.Executions {
		if ex.Execution == nil {
			continue
		}
		wid := ex.Execution.WorkflowId
		rid := ex.Execution.RunId

		if ctx.Err() != nil {
			break
		}
		ct, err := s.queryPendingConflict(ctx, wid, rid)
		if err != nil || ct.ID == "" {
			// evaluating, or finished between list and query
			continue
		}
		rows = append(rows, conflictRow{WorkflowID: wid, RunID: rid, Conflict: ct})
		if len(rows) >= maxConflictRows {
			break
		}
	}
	writeJSON(w, rows)
}

// conflictsQuery builds the visibility query. Task IDs are embedded in a
// quoted literal, so quotes, backslashes and control characters are refused.
func conflictsQuery(taskID string) (string, error) {
	query := `ExecutionStatus = "Running" AND WorkflowType = "ResolveAssignment"`
	if taskID == "" {
		return query, nil
	}
	if strings.ContainsFunc(taskID, func(r rune) bool {
		return r == '"' || r == '\'' || r == '\\' || unicode.IsControl(r)
	}) {
		return "", fmt.Errorf("%w: task id %q", capacity.ErrMissingInput, taskID)
	}
	return query + ` AND WorkflowId = "` + workflows.AssignmentWorkflowID(taskID) + `"`, nil
}
