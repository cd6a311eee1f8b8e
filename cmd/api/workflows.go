package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"shopfloor-service/internal/modal"
	"shopfloor-service/internal/workflows"
)

type startResp struct {
	WorkflowID string `json:"workflowId"`
	RunID      string `json:"runId"`
}

func (s *apiServer) workflowRoutes(r chi.Router) {
	r.Post("/workflows/assign", s.handleStartAssignment)
	r.Get("/workflows/{workflowId}/conflict", s.handlePendingConflict)
	r.Get("/workflows/{workflowId}/audit", s.handleAudit)
	r.Post("/workflows/{workflowId}/decision", s.handleDecision)
	r.Get("/conflicts", s.handleConflicts)
}

func assignmentStartOptions(taskID string) client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:                                       workflows.AssignmentWorkflowID(taskID),
		TaskQueue:                                workflows.TaskQueue,
		WorkflowExecutionTimeout:                 workflows.DecisionTimeout + time.Hour,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
	}
}

func (s *apiServer) handleStartAssignment(w http.ResponseWriter, r *http.Request) {
	var req modal.AssignmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TaskID == "" || req.OperatorID == "" || req.Date == "" {
		http.Error(w, "invalid body: {\"taskId\":\"...\",\"operatorId\":\"...\",\"date\":\"2006-01-02\"}", http.StatusBadRequest)
		return
	}
	if _, err := s.shop.Task(req.TaskID); err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	we, err := s.tc.ExecuteWorkflow(ctx, assignmentStartOptions(req.TaskID), workflows.ResolveAssignment, req)
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, startResp{WorkflowID: we.GetID(), RunID: we.GetRunID()})
}

func (s *apiServer) handlePendingConflict(w http.ResponseWriter, r *http.Request) {
	ct, err := s.queryPendingConflict(r.Context(), chi.URLParam(r, "workflowId"), r.URL.Query().Get("runId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ct.ID == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, ct)
}

func (s *apiServer) handleAudit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	qr, err := s.tc.QueryWorkflow(ctx, chi.URLParam(r, "workflowId"), r.URL.Query().Get("runId"), "audit_log")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	var events []modal.AuditEvent
	if err := qr.Get(&events); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, events)
}

func (s *apiServer) handleDecision(w http.ResponseWriter, r *http.Request) {
	var d modal.ConflictDecision
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil || d.ConflictID == "" || d.Resolution == "" {
		http.Error(w, "invalid body: {\"conflictId\":\"...\",\"resolution\":\"OVERTIME|ALTERNATIVE|CANCEL\",\"alternativeId\":\"...\"}", http.StatusBadRequest)
		return
	}
	if d.Decider == "" {
		d.Decider = "planner"
	}
	d.DecidedAt = time.Now().UTC()

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := s.tc.SignalWorkflow(ctx, chi.URLParam(r, "workflowId"), r.URL.Query().Get("runId"), workflows.ConflictDecisionSignal, d); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func (s *apiServer) queryPendingConflict(ctx context.Context, wid, rid string) (modal.ConflictTask, error) {
	cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	qr, err := s.tc.QueryWorkflow(cctx, wid, rid, "pending_conflict")
	if err != nil {
		return modal.ConflictTask{}, err
	}
	var ct modal.ConflictTask
	return ct, qr.Get(&ct)
}
