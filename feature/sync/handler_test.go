package sync

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"atdw-sync/feature/catalog/attribute"
	"atdw-sync/feature/catalog/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestApp(t *testing.T, feed Feed) (*fiber.App, *Handler, *gorm.DB) {
	t.Helper()
	eng, db, _ := newTestEngine(t, attribute.ModeDiscover)
	runner := NewRunner(db, eng, feed, zap.NewNop(), Config{Source: "atdw", Workers: 2})
	handler := NewHandler(db, runner, eng.registry, zap.NewNop())
	app := fiber.New()
	handler.RegisterRoutes(app)
	return app, handler, db
}

// blockingFeed parks the first fetch until released, keeping a run in
// flight for as long as a test needs it.
type blockingFeed struct {
	release chan struct{}
}

func (f *blockingFeed) FetchPage(_ context.Context, _ string) (Page, error) {
	<-f.release
	return Page{}, nil
}

func TestHandleStatusBeforeAnyRun(t *testing.T) {
	app, _, _ := setupTestApp(t, newFakeFeed())

	req := httptest.NewRequest("GET", "/sync/status", nil)
	resp, err := app.Test(req)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body map[string]any
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, false, body["running"])
	assert.Nil(t, body["last_report"])
}

func TestHandleRunThenStatus(t *testing.T) {
	feed := newFakeFeed([]ProductRecord{simpleRecord("p1", "One")})
	app, handler, _ := setupTestApp(t, feed)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/run", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	assert.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return !handler.running && handler.last != nil
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = app.Test(httptest.NewRequest("GET", "/sync/status", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Running     bool                    `json:"running"`
		LastReport  *Report                 `json:"last_report"`
		Checkpoints []models.SyncCheckpoint `json:"checkpoints"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	assert.False(t, body.Running)
	if assert.NotNil(t, body.LastReport) {
		assert.Equal(t, 1, body.LastReport.New)
	}
	if assert.Len(t, body.Checkpoints, 1) {
		assert.Equal(t, "atdw", body.Checkpoints[0].Source)
		assert.Equal(t, ScopeFull, body.Checkpoints[0].Scope)
		assert.Zero(t, body.Checkpoints[0].LastPage)
	}
}

func TestHandleRunRejectsConcurrentRun(t *testing.T) {
	feed := &blockingFeed{release: make(chan struct{})}
	app, handler, _ := setupTestApp(t, feed)

	resp, err := app.Test(httptest.NewRequest("POST", "/sync/run", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("POST", "/sync/run", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	close(feed.release)
	assert.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return !handler.running
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHandleListAttributes(t *testing.T) {
	app, handler, _ := setupTestApp(t, newFakeFeed())

	_, err := handler.registry.Define("ENTITY_FAC__POOL", "Swimming pool", models.KindBool, true, "pool")
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest("GET", "/attributes", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Mode       string                       `json:"mode"`
		Attributes []models.AttributeDefinition `json:"attributes"`
	}
	json.NewDecoder(resp.Body).Decode(&body)
	assert.Equal(t, attribute.ModeDiscover, body.Mode)
	if assert.Len(t, body.Attributes, 1) {
		assert.Equal(t, "ENTITY_FAC__POOL", body.Attributes[0].Code)
	}
}
