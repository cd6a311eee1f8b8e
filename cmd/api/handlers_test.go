package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"shopfloor-service/internal/capacity"
	"shopfloor-service/internal/config"
	"shopfloor-service/internal/lifecycle"
	"shopfloor-service/internal/modal"
	"shopfloor-service/internal/report"
	"shopfloor-service/internal/shop"
	"shopfloor-service/internal/workflows"
)

const day = "2024-06-01"

func newTestRouter(t *testing.T) (http.Handler, *shop.Store) {
	t.Helper()
	store := shop.NewStore(shop.DemoOperators(), config.DefaultDepartments)
	require.NoError(t, store.AddJob(&modal.Job{
		Number: "J-1",
		Drawings: []*modal.Drawing{{
			Number: "D1",
			Tasks: []*modal.Task{
				{ID: "a", ProcessName: "milling", Sequence: 1, Estimate: modal.Estimate{Hours: 6, Minutes: 30}},
				{ID: "b", ProcessName: "milling", Sequence: 2, Estimate: modal.Estimate{Hours: 2}},
			},
		}},
	}))
	api := &apiServer{shop: store}
	r := chi.NewRouter()
	api.routes(r)
	return r, store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func assignBody(op string) string {
	return fmt.Sprintf(`{"operatorId":%q,"date":%q}`, op, day)
}

func TestAssignmentConflictAndOvertime(t *testing.T) {
	h, store := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/tasks/a/assignment", assignBody("E1"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/tasks/b/assignment", assignBody("E1"))
	require.Equal(t, http.StatusConflict, rec.Code)
	var out modal.AssignmentOutcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.False(t, out.Accepted)
	require.NotNil(t, out.Conflict)
	require.Equal(t, 6.5, out.Conflict.CurrentHours)
	require.Equal(t, 8.5, out.Conflict.ProjectedHours())

	task, _ := store.Task("b")
	require.Equal(t, modal.StateUnassigned, task.State)

	rec = do(t, h, http.MethodPost, "/tasks/b/assignment/overtime", assignBody("E1"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	require.True(t, task.IsOvertime)

	rec = do(t, h, http.MethodGet, "/schedule?date="+day+"&operatorId=E1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []modal.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 2)
	require.Equal(t, "a", tasks[0].ID)
}

func TestTaskLifecycleEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/tasks/a/start", "")
	require.Equal(t, http.StatusConflict, rec.Code, "start without operator")

	do(t, h, http.MethodPost, "/tasks/a/assignment", assignBody("E2"))
	for _, step := range []struct{ path, body string }{
		{"/tasks/a/start", ""},
		{"/tasks/a/hold", `{"reason":"waiting on tooling"}`},
		{"/tasks/a/resume", ""},
		{"/tasks/a/finish", ""},
	} {
		rec := do(t, h, http.MethodPost, step.path, step.body)
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", step.path, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/tasks/a/resume", "")
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/tasks/a/duration", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum report.TaskSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.Equal(t, modal.StateCompleted, sum.State)
	require.True(t, sum.Net.Available)

	rec = do(t, h, http.MethodPost, "/tasks/a/explode", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFoundAndBadInput(t *testing.T) {
	h, _ := newTestRouter(t)

	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/tasks/zzz", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/jobs/J-404", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/operators/nobody/summary", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/tasks/a/assignment", `{"operatorId":"E99","date":"2024-06-01"}`).Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/tasks/a/assignment", `{"operatorId":"E1","date":"June 1"}`).Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/schedule", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/jobs", `{}`).Code)
}

func TestJobEndpoints(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/jobs/J-1/phases/design/start", `{"staffId":"E6"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, "/jobs/J-1/phases/design/hold", `{"reason":"customer review"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, "/jobs/J-1/phases/design/hold", `{"reason":"again"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	rec = do(t, h, http.MethodPost, "/jobs/J-1/phases/design/resume", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodPost, "/jobs/J-1/phases/design/finish", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/jobs/J-1/drawings/D1/tasks", `{"id":"c","processName":"welding","sequence":3,"estimate":{"hours":1}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/jobs/J-1/deliver", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/jobs/J-1/drawings/D1/qc", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/jobs/J-1/complete", "").Code)
	require.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/jobs/J-1/deliver", "").Code)

	rec = do(t, h, http.MethodGet, "/jobs/J-1/timeline", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tl struct {
		Events []modal.TimelineEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tl))
	require.NotEmpty(t, tl.Events)
	require.Equal(t, modal.CategoryCreation, tl.Events[0].Category)

	rec = do(t, h, http.MethodGet, "/jobs/J-1/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sum report.JobSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sum))
	require.Equal(t, 3, sum.Tasks)
	require.True(t, sum.Design.Available)

	require.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/tasks/c", "").Code)
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/tasks/c", "").Code)
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", shop.ErrNotFound), http.StatusNotFound},
		{capacity.ErrUnknownOperator, http.StatusBadRequest},
		{&lifecycle.TransitionError{Op: "start", Err: lifecycle.ErrNoOperator}, http.StatusConflict},
		{&lifecycle.TransitionError{Op: "resume", Err: lifecycle.ErrNoOpenHold}, http.StatusInternalServerError},
		{shop.ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		require.Equal(t, c.want, statusFor(c.err), c.err.Error())
	}
}

func TestAddJobRejectsNullEntries(t *testing.T) {
	h, _ := newTestRouter(t)

	for _, body := range []string{
		`{"number":"J10","drawings":[null]}`,
		`{"number":"J11","drawings":[{"number":"D1","tasks":[null]}]}`,
		`{"number":"J12","drawings":[{"number":"D1","tasks":[{"id":"n","processName":"milling","estimate":{"hours":-1}}]}]}`,
	} {
		rec := do(t, h, http.MethodPost, "/jobs", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	require.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/jobs/J10", "").Code)
}

func TestConflictsRejectsQuotedTaskID(t *testing.T) {
	api := &apiServer{}
	r := chi.NewRouter()
	api.workflowRoutes(r)

	for _, id := range []string{`a%22%20OR%20%221%22=%221`, `a%5C`, `a%27`, `a%0A`} {
		rec := do(t, r, http.MethodGet, "/conflicts?taskId="+id, "")
		require.Equal(t, http.StatusBadRequest, rec.Code, id)
	}
}

func TestConflictsQuery(t *testing.T) {
	q, err := conflictsQuery("")
	require.NoError(t, err)
	require.NotContains(t, q, "WorkflowId")

	q, err = conflictsQuery("T-7")
	require.NoError(t, err)
	require.Contains(t, q, `WorkflowId = "`+workflows.AssignmentWorkflowID("T-7")+`"`)

	_, err = conflictsQuery(`x" OR WorkflowType != "`)
	require.ErrorIs(t, err, capacity.ErrMissingInput)
}
