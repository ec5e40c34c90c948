package homeassistant

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesage/homesage/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(DefaultConfig(server.URL, "test-token"), testLogger())
}

func TestClient_States(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/states", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"entity_id": "light.living_room", "state": "on", "attributes": {"friendly_name": "Living Room"}},
			{"entity_id": "climate.bedroom", "state": "heat", "attributes": {}}
		]`))
	}))

	entities, err := client.States(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "light.living_room", entities[0].EntityID)
	assert.Equal(t, "Living Room", entities[0].FriendlyName())
}

func TestClient_CallService(t *testing.T) {
	var gotPath string

	var gotBody map[string]any

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))

	err := client.CallService(context.Background(), models.ServiceCall{
		Domain:  "light",
		Service: "turn_on",
		Data:    map[string]any{"entity_id": "light.living_room", "brightness_pct": float64(60)},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/services/light/turn_on", gotPath)
	assert.Equal(t, "light.living_room", gotBody["entity_id"])
	assert.Equal(t, float64(60), gotBody["brightness_pct"])
}

func TestClient_Unauthorized(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.States(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_State_NotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.State(context.Background(), "light.missing")
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestClient_RetriesOnServerError(t *testing.T) {
	attempts := 0

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts < 2 {
			w.WriteHeader(http.StatusInternalServerError)

			return
		}

		_, _ = w.Write([]byte(`[]`))
	}))

	entities, err := client.States(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entities)
	assert.Equal(t, 2, attempts)
}

func TestClient_ErrorLog(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/error_log", r.URL.Path)
		_, _ = w.Write([]byte("2026-08-23 ERROR something failed\n"))
	}))

	log, err := client.ErrorLog(context.Background())
	require.NoError(t, err)
	assert.Contains(t, log, "something failed")
}

func TestClient_Snapshot(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/states":
			_, _ = w.Write([]byte(`[{"entity_id": "switch.garage", "state": "off"}]`))
		case "/api/config":
			_, _ = w.Write([]byte(`{"version": "2026.8.1", "time_zone": "Europe/Copenhagen", "location_name": "Home"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	snapshot, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snapshot.Entities, 1)
	assert.Equal(t, "2026.8.1", snapshot.HAVersion)
	assert.Equal(t, "Europe/Copenhagen", snapshot.TimeZone)
	assert.WithinDuration(t, time.Now().UTC(), snapshot.TakenAt, time.Minute)
}
