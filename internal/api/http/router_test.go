package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/api/http/handlers"
	"github.com/spec-kit/cleaning-dispatch/internal/events"
	"github.com/spec-kit/cleaning-dispatch/internal/matching"
	"github.com/spec-kit/cleaning-dispatch/internal/observability"
	"github.com/spec-kit/cleaning-dispatch/internal/persistence"
	"github.com/spec-kit/cleaning-dispatch/internal/repository"
	"github.com/spec-kit/cleaning-dispatch/internal/service"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zap.NewNop()
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	repos := repository.NewMemoryRepositories()
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())

	staff := service.NewStaffService(repos.Staff, logger)
	assignments := service.NewAssignmentService(service.AssignmentDependencies{
		Requests:    repos.Requests,
		Staff:       repos.Staff,
		Assignments: repos.Assignments,
		History:     repos.History,
		Matcher:     matching.NewMatcher(repos.Staff, repos.Assignments, matching.MustStrategy(matching.StrategyRatingDistance), time.Second),
		Locker:      persistence.NewLocalLocker(),
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
	})
	requests := service.NewRequestService(service.RequestDependencies{
		Requests:    repos.Requests,
		History:     repos.History,
		Assignments: assignments,
		Staff:       staff,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:      handlers.NewHealthHandler("dispatch", "test", nil),
		Staff:       handlers.NewStaffHandler(staff),
		Requests:    handlers.NewRequestsHandler(requests),
		Assignments: handlers.NewAssignmentsHandler(assignments),
		Gatherer:    registry,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(handlers.OperatorHeader, "op-42")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &env))
	}
	return resp.StatusCode, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestAssignmentFlow(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, fiber.MethodPost, "/staff", map[string]any{
		"name": "Ana", "email": "ana@example.com", "specialties": []string{"Residencial"}, "rating": 4.7,
	})
	require.Equal(t, fiber.StatusCreated, status)
	ana := decode[map[string]any](t, env)

	status, _ = call(t, app, fiber.MethodPost, "/staff", map[string]any{
		"name": "Bruno", "email": "bruno@example.com", "specialties": []string{"Comercial"}, "rating": 4.9,
	})
	require.Equal(t, fiber.StatusCreated, status)

	status, env = call(t, app, fiber.MethodPost, "/requests", map[string]any{
		"service_type":   "Residencial",
		"address":        "Rua das Flores, 100",
		"scheduled_date": "2026-11-03",
		"scheduled_time": "09:30",
		"client":         map[string]any{"name": "Maria", "email": "maria@example.com"},
		"value_cents":    18000,
	})
	require.Equal(t, fiber.StatusCreated, status)
	reqID := decode[map[string]any](t, env)["id"].(string)

	status, env = call(t, app, fiber.MethodGet, "/requests/"+reqID+"/candidates", nil)
	require.Equal(t, fiber.StatusOK, status)
	candidates := decode[[]map[string]any](t, env)
	require.Len(t, candidates, 1)

	status, env = call(t, app, fiber.MethodPost, "/requests/"+reqID+"/assignment/auto", nil)
	require.Equal(t, fiber.StatusCreated, status)
	assignment := decode[map[string]any](t, env)
	assert.Equal(t, ana["id"], assignment["staff_id"])
	assert.Equal(t, "op-42", assignment["assigned_by"])

	status, env = call(t, app, fiber.MethodPost, "/requests/"+reqID+"/assignment/auto", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ALREADY_ASSIGNED", env.Error.Code)

	status, _ = call(t, app, fiber.MethodDelete, "/requests/"+reqID+"/assignment", map[string]any{"reason": "reschedule"})
	assert.Equal(t, fiber.StatusOK, status)

	status, env = call(t, app, fiber.MethodGet, "/requests/"+reqID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "pending", decode[map[string]any](t, env)["status"])

	status, env = call(t, app, fiber.MethodGet, "/requests/"+reqID+"/history", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, env), 4)
}

func TestAssignmentErrors(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, fiber.MethodPost, "/staff", map[string]any{
		"name": "Bruno", "email": "bruno@example.com", "specialties": []string{"Comercial"},
	})
	require.Equal(t, fiber.StatusCreated, status)
	bruno := decode[map[string]any](t, env)

	status, env = call(t, app, fiber.MethodPost, "/requests", map[string]any{
		"service_type":   "Residencial",
		"address":        "Rua A, 1",
		"scheduled_date": "2026-11-03",
		"scheduled_time": "14:00",
		"client":         map[string]any{"name": "Maria", "email": "maria@example.com"},
	})
	require.Equal(t, fiber.StatusCreated, status)
	reqID := decode[map[string]any](t, env)["id"].(string)

	status, env = call(t, app, fiber.MethodPost, "/requests/"+reqID+"/assignment/auto", nil)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "NO_AVAILABLE_STAFF", env.Error.Code)

	status, env = call(t, app, fiber.MethodPost, "/requests/"+reqID+"/assignment", map[string]any{"staff_id": bruno["id"]})
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "INELIGIBLE_STAFF", env.Error.Code)

	status, env = call(t, app, fiber.MethodPatch, "/requests/"+reqID+"/status", map[string]any{"status": "completed"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	status, env = call(t, app, fiber.MethodGet, "/requests/missing", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = call(t, app, fiber.MethodGet, "/nowhere", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = call(t, app, fiber.MethodPost, "/staff", map[string]any{"name": "", "email": "x"})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	status, _ := call(t, app, fiber.MethodGet, "/health/ready", nil)
	assert.Equal(t, fiber.StatusOK, status)

	_, _ = call(t, app, fiber.MethodGet, "/staff", nil)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "dispatch_http_requests_total")
}
