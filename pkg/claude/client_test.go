package claude

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

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

	config := DefaultConfig("sk-ant-test")
	config.BaseURL = server.URL

	return NewClient(config, testLogger())
}

func TestClient_CreateMessage_Text(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, APIVersion, r.Header.Get("anthropic-version"))

		var request MessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, DefaultModel, request.Model)
		require.Len(t, request.Messages, 1)

		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"model": "claude-sonnet-4-20250514",
			"role": "assistant",
			"content": [{"type": "text", "text": "The living room light is on."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 120, "output_tokens": 9}
		}`))
	}))

	response, err := client.CreateMessage(context.Background(), MessageRequest{
		System:   "You are a home assistant.",
		Messages: []models.Message{models.UserMessage("is the light on?")},
	})
	require.NoError(t, err)

	assert.Equal(t, "The living room light is on.", response.Text())
	assert.Equal(t, StopReasonEndTurn, response.StopReason)
	assert.Empty(t, response.ToolCalls())
	assert.Equal(t, 120, response.Usage.InputTokens)
}

func TestClient_CreateMessage_ToolUse(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request MessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		require.Len(t, request.Tools, 1)
		assert.Equal(t, "turn_on_device", request.Tools[0].Name)

		_, _ = w.Write([]byte(`{
			"id": "msg_02",
			"role": "assistant",
			"content": [
				{"type": "text", "text": "Turning it on."},
				{"type": "tool_use", "id": "tu_01", "name": "turn_on_device", "input": {"entity_id": "light.living_room"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 200, "output_tokens": 30}
		}`))
	}))

	response, err := client.CreateMessage(context.Background(), MessageRequest{
		Messages: []models.Message{models.UserMessage("turn on the living room light")},
		Tools: []Tool{{
			Name:        "turn_on_device",
			Description: "Turn on a device, light, switch, or scene",
			InputSchema: map[string]any{"type": "object"},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, StopReasonToolUse, response.StopReason)

	calls := response.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "tu_01", calls[0].ID)
	assert.Equal(t, "light.living_room", calls[0].Input["entity_id"])
}

func TestClient_CreateMessage_RetriesOnRateLimit(t *testing.T) {
	attempts := 0

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)

			return
		}

		_, _ = w.Write([]byte(`{
			"id": "msg_03",
			"content": [{"type": "text", "text": "ok"}],
			"stop_reason": "end_turn"
		}`))
	}))

	response, err := client.CreateMessage(context.Background(), MessageRequest{
		Messages: []models.Message{models.UserMessage("hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Text())
	assert.Equal(t, 2, attempts)
}

func TestClient_CreateMessage_BadRequestFailsFast(t *testing.T) {
	attempts := 0

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error", "message": "max_tokens required"}}`))
	}))

	_, err := client.CreateMessage(context.Background(), MessageRequest{
		Messages: []models.Message{models.UserMessage("hello")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, 1, attempts)
}

func TestClient_CreateMessage_MissingAPIKey(t *testing.T) {
	config := DefaultConfig("")
	client := NewClient(config, testLogger())

	_, err := client.CreateMessage(context.Background(), MessageRequest{})
	assert.ErrorIs(t, err, ErrAPIKeyMissing)
}

func TestClient_Stream(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"event: content_block_delta\n" +
				`data: {"type": "content_block_delta", "delta": {"type": "text_delta", "text": "Hello"}}` + "\n\n" +
				"event: content_block_delta\n" +
				`data: {"type": "content_block_delta", "delta": {"type": "text_delta", "text": " world"}}` + "\n\n" +
				"event: message_stop\n" +
				`data: {"type": "message_stop"}` + "\n\n"))
	}))

	contentChan, errorChan := client.Stream(context.Background(), MessageRequest{
		Messages: []models.Message{models.UserMessage("hi")},
	})

	var got string
	for delta := range contentChan {
		got += delta
	}

	require.NoError(t, <-errorChan)
	assert.Equal(t, "Hello world", got)
}
