package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/example/task-tracker/modules/activity"
	"github.com/example/task-tracker/modules/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// servicePort implements task.TaskPort by calling the task service in-process.
type servicePort struct {
	svc *task.Service
}

func newServicePort() *servicePort {
	store, err := task.NewMemoryStore(domain.DemoTasks()...)
	if err != nil {
		panic(err)
	}
	return &servicePort{svc: task.NewService(store, task.NewValidator())}
}

func (p *servicePort) ListTasks(ctx context.Context) (*task.ListTasksResponse, error) {
	resp, err := p.svc.ListTasks(ctx)
	return &resp, err
}

func (p *servicePort) CreateTask(ctx context.Context, req *task.CreateTaskRequest) (*task.TaskResult, error) {
	res, err := p.svc.CreateTask(ctx, domain.Edit{Text: req.Text, Completed: req.Completed})
	return &res, err
}

func (p *servicePort) GetTask(ctx context.Context, taskID string) (*task.TaskResult, error) {
	res, err := p.svc.GetTask(ctx, taskID)
	return &res, err
}

func (p *servicePort) UpdateTask(ctx context.Context, req *task.UpdateTaskRequest) (*task.TaskResult, error) {
	res, err := p.svc.UpdateTask(ctx, req.TaskID, domain.Edit{Text: req.Text, Completed: req.Completed})
	return &res, err
}

func (p *servicePort) DeleteTask(ctx context.Context, taskID string) (*task.TaskResult, error) {
	res, err := p.svc.DeleteTask(ctx, taskID)
	return &res, err
}

// failingPort fails every call the way an unreachable store would.
type failingPort struct{}

var errUnavailable = errors.New("store unavailable")

func (failingPort) ListTasks(context.Context) (*task.ListTasksResponse, error) {
	return nil, errUnavailable
}
func (failingPort) CreateTask(context.Context, *task.CreateTaskRequest) (*task.TaskResult, error) {
	return nil, errUnavailable
}
func (failingPort) GetTask(context.Context, string) (*task.TaskResult, error) {
	return nil, errUnavailable
}
func (failingPort) UpdateTask(context.Context, *task.UpdateTaskRequest) (*task.TaskResult, error) {
	return nil, errUnavailable
}
func (failingPort) DeleteTask(context.Context, string) (*task.TaskResult, error) {
	return nil, errUnavailable
}

// stubActivityPort records the requested limit.
type stubActivityPort struct {
	lastLimit int
}

func (s *stubActivityPort) RecentActivity(_ context.Context, limit int) (*activity.RecentActivityResponse, error) {
	s.lastLimit = limit
	return &activity.RecentActivityResponse{Entries: []activity.Entry{}, Total: 0}, nil
}

func newTestApp(port task.TaskPort, act activity.ActivityPort) *fiber.App {
	m := NewModule(Config{}, &mockLogger{})
	m.taskPort = port
	m.activityPort = act
	return m.newApp()
}

func doRequest(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), "body: %s", data)
	return v
}

func TestRootRedirectsToTasks(t *testing.T) {
	app := newTestApp(newServicePort(), &stubActivityPort{})

	resp, _ := doRequest(t, app, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/tasks", resp.Header.Get("Location"))
}

func TestListTasks(t *testing.T) {
	app := newTestApp(newServicePort(), &stubActivityPort{})

	resp, body := doRequest(t, app, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[task.ListTasksResponse](t, body)
	assert.Equal(t, 3, list.Total)
	require.Len(t, list.Results, 3)
	assert.Equal(t, task.TaskResponse{ID: 1, Text: "pick up groceries", Link: "/tasks/1"}, list.Results[0])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestCreateThenGet(t *testing.T) {
	app := newTestApp(newServicePort(), &stubActivityPort{})

	resp, body := doRequest(t, app, http.MethodPost, "/tasks", `{"text":"buy milk"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/tasks/4", resp.Header.Get("Location"))

	created := decode[task.TaskResponse](t, body)
	assert.Equal(t, task.TaskResponse{ID: 4, Text: "buy milk", Completed: false, Link: "/tasks/4"}, created)

	resp, body = doRequest(t, app, http.MethodGet, "/tasks/4", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, created, decode[task.TaskResponse](t, body))
}

func TestCreateTask_Rejected(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{name: "invalid json", body: `{"text":`, wantError: "malformed_request"},
		{name: "empty body", body: "", wantError: "malformed_request"},
		{name: "text wrong type", body: `{"text":5}`, wantError: "malformed_request"},
		{name: "completed wrong type", body: `{"text":"a","completed":"yes"}`, wantError: "malformed_request"},
		{name: "array body", body: `[]`, wantError: "malformed_request"},
		{name: "missing text", body: `{}`, wantError: "validation_failed"},
		{name: "blank text", body: `{"text":"   "}`, wantError: "validation_failed"},
		{name: "null body", body: `null`, wantError: "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := newServicePort()
			app := newTestApp(port, &stubActivityPort{})

			resp, body := doRequest(t, app, http.MethodPost, "/tasks", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			errResp := decode[ValidationErrorResponse](t, body)
			assert.Equal(t, tt.wantError, errResp.Error)
			if tt.wantError == "validation_failed" {
				require.NotEmpty(t, errResp.Errors)
				assert.Equal(t, "text", errResp.Errors[0].Field)
			}

			list, err := port.ListTasks(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 3, list.Total)
		})
	}
}

func TestGetTask_Statuses(t *testing.T) {
	app := newTestApp(newServicePort(), &stubActivityPort{})

	tests := []struct {
		path       string
		wantStatus int
		wantError  string
	}{
		{path: "/tasks/2", wantStatus: http.StatusOK},
		{path: "/tasks/999", wantStatus: http.StatusNotFound, wantError: "not_found"},
		{path: "/tasks/abc", wantStatus: http.StatusBadRequest, wantError: "bad_request"},
		{path: "/tasks/-3", wantStatus: http.StatusBadRequest, wantError: "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := doRequest(t, app, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decode[ErrorResponse](t, body).Error)
			}
		})
	}
}

func TestUpdateTask(t *testing.T) {
	for _, method := range []string{http.MethodPut, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			app := newTestApp(newServicePort(), &stubActivityPort{})

			resp, body := doRequest(t, app, method, "/tasks/1", `{"text":"pick up groceries","completed":true}`)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			updated := decode[task.TaskResponse](t, body)
			assert.True(t, updated.Completed)
			assert.Equal(t, int64(1), updated.ID)

			resp, _ = doRequest(t, app, method, "/tasks/999", `{"text":"x"}`)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)

			resp, _ = doRequest(t, app, method, "/tasks/abc", `{"text":"x"}`)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			resp, _ = doRequest(t, app, method, "/tasks/1", `{"text":`)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestUpdateTask_EmptyTextLeavesTaskUnchanged(t *testing.T) {
	app := newTestApp(newServicePort(), &stubActivityPort{})

	resp, body := doRequest(t, app, http.MethodPut, "/tasks/1", `{"text":""}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	errResp := decode[ValidationErrorResponse](t, body)
	assert.Equal(t, "validation_failed", errResp.Error)
	require.Len(t, errResp.Errors, 1)
	assert.Equal(t, "text", errResp.Errors[0].Field)

	resp, body = doRequest(t, app, http.MethodGet, "/tasks/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pick up groceries", decode[task.TaskResponse](t, body).Text)
}

func TestDeleteTask(t *testing.T) {
	app := newTestApp(newServicePort(), &stubActivityPort{})

	resp, body := doRequest(t, app, http.MethodDelete, "/tasks/2", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Empty(t, body)

	resp, _ = doRequest(t, app, http.MethodGet, "/tasks/2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Idempotent.
	resp, _ = doRequest(t, app, http.MethodDelete, "/tasks/2", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doRequest(t, app, http.MethodDelete, "/tasks/abc", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = doRequest(t, app, http.MethodGet, "/tasks", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, decode[task.ListTasksResponse](t, body).Total)
}

func TestStoreFailureIsServerError(t *testing.T) {
	app := newTestApp(failingPort{}, &stubActivityPort{})

	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/tasks", ""},
		{http.MethodPost, "/tasks", `{"text":"x"}`},
		{http.MethodGet, "/tasks/1", ""},
		{http.MethodPut, "/tasks/1", `{"text":"x"}`},
		{http.MethodDelete, "/tasks/1", ""},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			resp, body := doRequest(t, app, r.method, r.path, r.body)
			require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
			errResp := decode[ErrorResponse](t, body)
			assert.Equal(t, "server_error", errResp.Error)
			assert.NotContains(t, errResp.Message, errUnavailable.Error())
		})
	}
}

func TestRecentActivity(t *testing.T) {
	act := &stubActivityPort{}
	app := newTestApp(newServicePort(), act)

	resp, _ := doRequest(t, app, http.MethodGet, "/activity?limit=5", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 5, act.lastLimit)

	resp, _ = doRequest(t, app, http.MethodGet, "/activity", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, act.lastLimit)

	for _, bad := range []string{"abc", "0", "-2"} {
		resp, _ = doRequest(t, app, http.MethodGet, "/activity?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "limit=%s", bad)
	}
}

func TestStreamRequiresUpgrade(t *testing.T) {
	app := newTestApp(newServicePort(), &stubActivityPort{})

	resp, body := doRequest(t, app, http.MethodGet, "/ws/tasks", "")
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	assert.Equal(t, "request_error", decode[ErrorResponse](t, body).Error)
}

func TestHealthAndUnknownRoute(t *testing.T) {
	app := newTestApp(newServicePort(), &stubActivityPort{})

	resp, body := doRequest(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", decode[HealthResponse](t, body).Status)

	resp, _ = doRequest(t, app, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestModule_StartRequiresDependencies(t *testing.T) {
	m := NewModule(Config{}, &mockLogger{})
	assert.Error(t, m.Start(context.Background()))

	m.taskPort = newServicePort()
	assert.Error(t, m.Start(context.Background()))

	assert.Equal(t, []string{"task", "activity"}, m.Dependencies())
	assert.False(t, m.Health(context.Background()).Healthy)
}
