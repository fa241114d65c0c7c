package inventory

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"policy-agent/feature/target/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client, *Synchronizer) {
	app := fiber.New()
	client := new(mocks.Client)
	sync, _ := newTestSynchronizer(newFakeSource(), client)
	handler := NewHandler(sync, zap.NewNop())
	handler.RegisterRoutes(app)
	return app, client, sync
}

func TestHandleEvent(t *testing.T) {
	app, _, sync := setupTestApp(t)

	req := httptest.NewRequest("POST", "/v1/events",
		strings.NewReader(`{"kind":"security_group_rules","ids":["sg-1","sg-2"]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 2, sync.Status().Passive)
}

func TestHandleEvent_UnknownKind(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/v1/events",
		strings.NewReader(`{"kind":"subnet","ids":["net-1"]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleEvent_MissingIDs(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/v1/events",
		strings.NewReader(`{"kind":"port"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleEvent_MalformedBody(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest("POST", "/v1/events", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleSync(t *testing.T) {
	app, _, sync := setupTestApp(t)

	// A queued task makes the background pass bail out before it touches
	// the target store, keeping the test deterministic.
	require.NoError(t, sync.OnEvent(EventPort, []string{"port-1"}))

	req := httptest.NewRequest("POST", "/v1/sync", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
}

func TestHandleStatus(t *testing.T) {
	app, _, sync := setupTestApp(t)
	require.NoError(t, sync.OnEvent(EventPort, []string{"port-1"}))

	req := httptest.NewRequest("GET", "/v1/status", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(1), body["passive"])
	assert.Equal(t, float64(0), body["active"])
}
