package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/sdk/client"

	"shopfloor-service/internal/capacity"
	"shopfloor-service/internal/lifecycle"
	"shopfloor-service/internal/modal"
	"shopfloor-service/internal/shop"
)

type apiServer struct {
	shop *shop.Store
	tc   client.Client
}

type assignReq struct {
	OperatorID string `json:"operatorId"`
	Date       string `json:"date"`
}

type holdReq struct {
	Reason string `json:"reason"`
}

type phaseReq struct {
	StaffID string `json:"staffId"`
	Reason  string `json:"reason"`
}

type reworkReq struct {
	ProcessName string `json:"processName"`
	Reason      string `json:"reason"`
}

func (s *apiServer) routes(r chi.Router) {
	r.Get("/jobs", s.handleJobs)
	r.Post("/jobs", s.handleAddJob)
	r.Get("/jobs/{number}", s.handleJob)
	r.Get("/jobs/{number}/timeline", s.handleTimeline)
	r.Get("/jobs/{number}/summary", s.handleJobSummary)
	r.Post("/jobs/{number}/phases/{phase}/{action}", s.handlePhase)
	r.Post("/jobs/{number}/complete", s.handleCompleteJob)
	r.Post("/jobs/{number}/deliver", s.handleDeliverJob)
	r.Post("/jobs/{number}/drawings/{drawing}/tasks", s.handleAddTask)
	r.Post("/jobs/{number}/drawings/{drawing}/rework", s.handleRework)
	r.Post("/jobs/{number}/drawings/{drawing}/qc", s.handleApproveQC)

	r.Get("/tasks/{taskId}", s.handleTask)
	r.Delete("/tasks/{taskId}", s.handleRemoveTask)
	r.Get("/tasks/{taskId}/duration", s.handleTaskDuration)
	r.Post("/tasks/{taskId}/assignment", s.handleAssign)
	r.Post("/tasks/{taskId}/assignment/overtime", s.handleOvertime)
	r.Delete("/tasks/{taskId}/assignment", s.handleUnassign)
	r.Post("/tasks/{taskId}/{action}", s.handleTaskAction)

	r.Get("/schedule", s.handleSchedule)
	r.Get("/operators", s.handleOperators)
	r.Get("/operators/{id}/summary", s.handleOperatorSummary)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.shop.Jobs())
}

func (s *apiServer) handleAddJob(w http.ResponseWriter, r *http.Request) {
	var job modal.Job
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil || job.Number == "" {
		http.Error(w, "invalid body: {\"number\":\"...\",\"drawings\":[...]}", http.StatusBadRequest)
		return
	}
	if err := s.shop.AddJob(&job); err != nil {
		if errors.Is(err, lifecycle.ErrIntegrity) {
			// imported history that legal transitions could not have produced
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeError(w, err)
		return
	}
	created, err := s.shop.Job(job.Number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.shop.Job(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, job)
}

func (s *apiServer) handleTimeline(w http.ResponseWriter, r *http.Request) {
	tl, err := s.shop.Timeline(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tl)
}

func (s *apiServer) handleJobSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.shop.JobSummary(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sum)
}

func (s *apiServer) handlePhase(w http.ResponseWriter, r *http.Request) {
	var req phaseReq
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body: {\"staffId\":\"...\",\"reason\":\"...\"}", http.StatusBadRequest)
			return
		}
	}
	action := shop.PhaseAction(chi.URLParam(r, "action"))
	arg := req.StaffID
	if action == shop.PhaseHold {
		arg = req.Reason
	}
	p, err := s.shop.TransitionPhase(chi.URLParam(r, "number"), modal.PhaseName(chi.URLParam(r, "phase")), action, arg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p)
}

func (s *apiServer) handleCompleteJob(w http.ResponseWriter, r *http.Request) {
	s.milestone(w, r, func(number string) error { return s.shop.CompleteJob(number) })
}

func (s *apiServer) handleDeliverJob(w http.ResponseWriter, r *http.Request) {
	s.milestone(w, r, func(number string) error { return s.shop.DeliverJob(number) })
}

func (s *apiServer) handleApproveQC(w http.ResponseWriter, r *http.Request) {
	drawing := chi.URLParam(r, "drawing")
	s.milestone(w, r, func(number string) error { return s.shop.ApproveQC(number, drawing) })
}

func (s *apiServer) handleRework(w http.ResponseWriter, r *http.Request) {
	var req reworkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProcessName == "" {
		http.Error(w, "invalid body: {\"processName\":\"...\",\"reason\":\"...\"}", http.StatusBadRequest)
		return
	}
	drawing := chi.URLParam(r, "drawing")
	s.milestone(w, r, func(number string) error {
		return s.shop.RecordRework(number, drawing, req.ProcessName, req.Reason)
	})
}

func (s *apiServer) milestone(w http.ResponseWriter, r *http.Request, fn func(number string) error) {
	number := chi.URLParam(r, "number")
	if err := fn(number); err != nil {
		writeError(w, err)
		return
	}
	job, err := s.shop.Job(number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, job)
}

func (s *apiServer) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var t modal.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil || t.ProcessName == "" {
		http.Error(w, "invalid body: {\"processName\":\"...\",\"sequence\":1,\"estimate\":{...}}", http.StatusBadRequest)
		return
	}
	task, err := s.shop.AddTask(chi.URLParam(r, "number"), chi.URLParam(r, "drawing"), t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, task)
}

func (s *apiServer) handleTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.shop.Task(chi.URLParam(r, "taskId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, task)
}

func (s *apiServer) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	if err := s.shop.RemoveTask(chi.URLParam(r, "taskId")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleTaskDuration(w http.ResponseWriter, r *http.Request) {
	sum, err := s.shop.TaskSummary(chi.URLParam(r, "taskId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sum)
}

// handleAssign evaluates an assignment synchronously. A conflict is returned
// with 409 and nothing is changed; resolving it goes through
// /tasks/{taskId}/assignment/overtime or the assignment workflow.
func (s *apiServer) handleAssign(w http.ResponseWriter, r *http.Request) {
	var req assignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: {\"operatorId\":\"...\",\"date\":\"2006-01-02\"}", http.StatusBadRequest)
		return
	}
	out, err := s.shop.Evaluate(chi.URLParam(r, "taskId"), req.OperatorID, req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	if !out.Accepted {
		writeJSONStatus(w, http.StatusConflict, out)
		return
	}
	writeJSON(w, out)
}

func (s *apiServer) handleOvertime(w http.ResponseWriter, r *http.Request) {
	var req assignReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body: {\"operatorId\":\"...\",\"date\":\"2006-01-02\"}", http.StatusBadRequest)
		return
	}
	task, err := s.shop.ConfirmOvertime(chi.URLParam(r, "taskId"), req.OperatorID, req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, task)
}

func (s *apiServer) handleUnassign(w http.ResponseWriter, r *http.Request) {
	task, err := s.shop.Unassign(chi.URLParam(r, "taskId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, task)
}

func (s *apiServer) handleTaskAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "taskId")
	var (
		task modal.Task
		err  error
	)
	switch chi.URLParam(r, "action") {
	case "start":
		task, err = s.shop.Start(id)
	case "hold":
		var req holdReq
		if r.ContentLength > 0 {
			if derr := json.NewDecoder(r.Body).Decode(&req); derr != nil {
				http.Error(w, "invalid body: {\"reason\":\"...\"}", http.StatusBadRequest)
				return
			}
		}
		task, err = s.shop.Hold(id, req.Reason)
	case "resume":
		task, err = s.shop.Resume(id)
	case "finish":
		task, err = s.shop.Finish(id)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, task)
}

func (s *apiServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		http.Error(w, "missing query parameter: date", http.StatusBadRequest)
		return
	}
	writeJSON(w, s.shop.DaySchedule(date, r.URL.Query().Get("operatorId")))
}

func (s *apiServer) handleOperators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.shop.Roster())
}

func (s *apiServer) handleOperatorSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.shop.OperatorSummary(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, sum)
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

// statusFor maps domain errors to HTTP status codes. Integrity is checked
// first: an integrity failure inside a transition is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, lifecycle.ErrIntegrity):
		return http.StatusInternalServerError
	case errors.Is(err, shop.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, capacity.ErrMissingInput), errors.Is(err, capacity.ErrNotAlternative):
		return http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrAlreadyCompleted),
		errors.Is(err, lifecycle.ErrNotStarted),
		errors.Is(err, shop.ErrDuplicate):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
