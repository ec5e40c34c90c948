// Package events defines event types and structures for bridge lifecycle notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/homesage/homesage/pkg/models"
)

type EventType string

// Kafka topic carrying all bridge events.
const Topic = "homesage.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Conversation lifecycle events.
	ChatCompletedEvent EventType = "chat.completed"
	ChatFailedEvent    EventType = "chat.failed"

	// Tool execution events.
	ActionRequestedEvent EventType = "action.requested"
	ActionExecutedEvent  EventType = "action.executed"
	ActionFailedEvent    EventType = "action.failed"

	// System analysis events.
	AnalysisCompletedEvent EventType = "analysis.completed"

	// Entity state events emitted by the watcher.
	EntityStateChangedEvent EventType = "entity.state_changed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	AgentID   string         `json:"agent_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// NewBaseEvent builds the common envelope for an event.
func NewBaseEvent(eventType EventType, agentID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		AgentID:   agentID,
	}
}

type ChatCompleted struct {
	BaseEvent

	ConversationID string                `json:"conversation_id"`
	UserMessage    string                `json:"user_message"`
	Reply          string                `json:"reply"`
	Actions        []models.ActionResult `json:"actions,omitempty"`
	Duration       time.Duration         `json:"duration"`
}

func (e ChatCompleted) GetType() EventType {
	return ChatCompletedEvent
}

type ChatFailed struct {
	BaseEvent

	ConversationID string        `json:"conversation_id"`
	UserMessage    string        `json:"user_message"`
	Error          string        `json:"error"`
	Duration       time.Duration `json:"duration"`
}

func (e ChatFailed) GetType() EventType {
	return ChatFailedEvent
}

// ActionRequested asks an agent worker to execute a natural-language action.
type ActionRequested struct {
	BaseEvent

	RequestID string `json:"request_id"`
	Action    string `json:"action"`
}

func (e ActionRequested) GetType() EventType {
	return ActionRequestedEvent
}

type ActionExecuted struct {
	BaseEvent

	ConversationID string         `json:"conversation_id,omitempty"`
	Tool           string         `json:"tool"`
	Input          map[string]any `json:"input,omitempty"`
	Output         string         `json:"output,omitempty"`
}

func (e ActionExecuted) GetType() EventType {
	return ActionExecutedEvent
}

type ActionFailed struct {
	BaseEvent

	ConversationID string         `json:"conversation_id,omitempty"`
	Tool           string         `json:"tool"`
	Input          map[string]any `json:"input,omitempty"`
	Error          string         `json:"error"`
}

func (e ActionFailed) GetType() EventType {
	return ActionFailedEvent
}

type AnalysisCompleted struct {
	BaseEvent

	AnalysisID       string                 `json:"analysis_id"`
	Trigger          models.AnalysisTrigger `json:"trigger"`
	Summary          string                 `json:"summary"`
	UnavailableCount int                    `json:"unavailable_count"`
}

func (e AnalysisCompleted) GetType() EventType {
	return AnalysisCompletedEvent
}

type EntityStateChanged struct {
	BaseEvent

	EntityID string `json:"entity_id"`
	OldState string `json:"old_state"`
	NewState string `json:"new_state"`
}

func (e EntityStateChanged) GetType() EventType {
	return EntityStateChangedEvent
}
