package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesage/homesage/pkg/models"
)

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(ChatCompletedEvent, "agent-1")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, ChatCompletedEvent, event.Type)
	assert.Equal(t, "agent-1", event.AgentID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestChatCompleted_GetType(t *testing.T) {
	assert.Equal(t, ChatCompletedEvent, ChatCompleted{}.GetType())
}

func TestChatCompleted_JSONSerialization(t *testing.T) {
	original := &ChatCompleted{
		BaseEvent:      NewBaseEvent(ChatCompletedEvent, "agent-1"),
		ConversationID: "conv-42",
		UserMessage:    "turn on the living room light",
		Reply:          "Done, the living room light is on.",
		Actions: []models.ActionResult{
			{Tool: "turn_on_device", Output: "Turned on light.living_room"},
		},
	}

	jsonData, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"type":"chat.completed"`)
	assert.Contains(t, string(jsonData), `"conversation_id":"conv-42"`)

	var deserialized ChatCompleted

	err = json.Unmarshal(jsonData, &deserialized)
	require.NoError(t, err)
	assert.Equal(t, original.ConversationID, deserialized.ConversationID)
	require.Len(t, deserialized.Actions, 1)
	assert.Equal(t, "turn_on_device", deserialized.Actions[0].Tool)
}

func TestActionEvents_GetType(t *testing.T) {
	assert.Equal(t, ActionRequestedEvent, ActionRequested{}.GetType())
	assert.Equal(t, ActionExecutedEvent, ActionExecuted{}.GetType())
	assert.Equal(t, ActionFailedEvent, ActionFailed{}.GetType())
}

func TestEntityStateChanged_JSONSerialization(t *testing.T) {
	original := &EntityStateChanged{
		BaseEvent: NewBaseEvent(EntityStateChangedEvent, "watcher-1"),
		EntityID:  "light.kitchen",
		OldState:  "off",
		NewState:  "on",
	}

	jsonData, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(jsonData), `"entity_id":"light.kitchen"`)

	var deserialized EntityStateChanged

	err = json.Unmarshal(jsonData, &deserialized)
	require.NoError(t, err)
	assert.Equal(t, "off", deserialized.OldState)
	assert.Equal(t, "on", deserialized.NewState)
}

func TestAnalysisCompleted_GetType(t *testing.T) {
	assert.Equal(t, AnalysisCompletedEvent, AnalysisCompleted{}.GetType())
}
