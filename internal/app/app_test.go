package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/scavhunt/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:            "test",
		Port:           3005,
		SQLDriver:      "sqlite",
		SQLDSN:         ":memory:",
		CacheTTL:       time.Minute,
		KafkaGroup:     "scavhunt",
		OutboxInterval: 20 * time.Millisecond,
		OutboxBatch:    10,
		PageSize:       100,
		MaxPageSize:    1000,
	}
}

func setupApp(t *testing.T) *App {
	t.Helper()
	a, err := New(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	return a
}

func do(t *testing.T, a *App, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	reader := bytes.NewReader(nil)
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestApp_Routes(t *testing.T) {
	a := setupApp(t)

	w, _ := do(t, a, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := do(t, a, http.MethodGet, "/api/v1/nope?x=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Can't find /api/v1/nope?x=1 on this server!", body["message"])

	w, body = do(t, a, http.MethodGet, "/api/v1/scavhunt?page=2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "fail", body["status"])

	w, _ = do(t, a, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "scavhunt_queries_total")
}

func TestApp_HuntEventsReachUsers(t *testing.T) {
	a := setupApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a.Start(ctx)

	w, body := do(t, a, http.MethodPost, "/api/v1/users", map[string]string{
		"username": "ana", "email": "ana@example.com", "password": "s3cretpass",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	userID := uuid.MustParse(body["data"].(map[string]interface{})["user"].(map[string]interface{})["_id"].(string))

	start := time.Now().Add(time.Hour).UTC()
	w, body = do(t, a, http.MethodPost, "/api/v1/scavhunt", map[string]interface{}{
		"title":       "Retiro",
		"description": "Busca por el parque",
		"difficulty":  "easy",
		"items":       []map[string]string{{"name": "barca", "clue": "en el estanque"}},
		"startDate":   start,
		"endDate":     start.Add(2 * time.Hour),
		"createdBy":   userID.String(),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	huntID := body["data"].(map[string]interface{})["hunt"].(map[string]interface{})["_id"].(string)

	assert.Eventually(t, func() bool {
		u, err := a.Users.GetUser(ctx, userID)
		return err == nil && len(u.Hunts) == 1 && u.Hunts[0] == huntID
	}, 3*time.Second, 20*time.Millisecond)

	assert.Eventually(t, func() bool {
		stats, err := a.Hunts.DailyStats(ctx, start.Add(-48*time.Hour), time.Now().Add(time.Hour))
		return err == nil && len(stats) == 1 && stats[0].CreatedCount == 1
	}, 3*time.Second, 20*time.Millisecond)
}
