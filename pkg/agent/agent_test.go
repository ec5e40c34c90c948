package agent_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesage/homesage/pkg/agent"
	"github.com/homesage/homesage/pkg/claude"
	"github.com/homesage/homesage/pkg/eventbus"
	"github.com/homesage/homesage/pkg/events"
	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/registry"
	"github.com/homesage/homesage/pkg/tools/turnoff"
	"github.com/homesage/homesage/pkg/tools/turnon"
)

type fakeHA struct {
	snapshot models.Snapshot
	errorLog string
	calls    []models.ServiceCall
}

func (f *fakeHA) Snapshot(_ context.Context) (*models.Snapshot, error) {
	snapshot := f.snapshot

	return &snapshot, nil
}

func (f *fakeHA) ErrorLog(_ context.Context) (string, error) {
	return f.errorLog, nil
}

func (f *fakeHA) CallService(_ context.Context, call models.ServiceCall) error {
	f.calls = append(f.calls, call)

	return nil
}

type fakeModel struct {
	responses []*claude.MessageResponse
	requests  []claude.MessageRequest
}

func (f *fakeModel) CreateMessage(_ context.Context, request claude.MessageRequest) (*claude.MessageResponse, error) {
	f.requests = append(f.requests, request)

	if len(f.responses) == 0 {
		return &claude.MessageResponse{StopReason: claude.StopReasonEndTurn}, nil
	}

	response := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}

	return response, nil
}

type fakePublisher struct {
	published []eventbus.Event
}

func (f *fakePublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	f.published = append(f.published, event)

	return nil
}

func textResponse(text string) *claude.MessageResponse {
	return &claude.MessageResponse{
		StopReason: claude.StopReasonEndTurn,
		Content:    []models.ContentBlock{models.TextBlock(text)},
	}
}

func toolUseResponse(id, name string, input map[string]any) *claude.MessageResponse {
	return &claude.MessageResponse{
		StopReason: claude.StopReasonToolUse,
		Content: []models.ContentBlock{
			models.TextBlock("On it."),
			{Type: models.ContentTypeToolUse, ID: id, Name: name, Input: input},
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()

	reg := registry.NewRegistry(testLogger())
	reg.RegisterTool(turnon.NewToolFactory())
	reg.RegisterTool(turnoff.NewToolFactory())

	return reg
}

func newAgent(t *testing.T, ha *fakeHA, model *fakeModel, publisher *fakePublisher) *agent.Agent {
	t.Helper()

	return agent.NewAgent("agent-test", ha, model, testRegistry(t), publisher, nil, testLogger())
}

func newConversation() *models.Conversation {
	return &models.Conversation{ID: "conv-1", CreatedAt: time.Now().UTC()}
}

func TestAgent_Chat_TextOnly(t *testing.T) {
	ha := &fakeHA{snapshot: models.Snapshot{
		Entities: []models.Entity{{EntityID: "light.hall", State: "off"}},
	}}
	model := &fakeModel{responses: []*claude.MessageResponse{textResponse("The hall light is off.")}}
	publisher := &fakePublisher{}

	conversation := newConversation()

	result, err := newAgent(t, ha, model, publisher).Chat(context.Background(), conversation, "Is the hall light on?")
	require.NoError(t, err)

	assert.Equal(t, "The hall light is off.", result.Reply)
	assert.Empty(t, result.Actions)
	assert.Len(t, conversation.Messages, 2)

	// System prompt carries the entity snapshot and the tool definitions.
	require.Len(t, model.requests, 1)
	assert.Contains(t, model.requests[0].System, "light.hall")
	assert.Len(t, model.requests[0].Tools, 2)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.ChatCompletedEvent, publisher.published[0].GetType())
}

func TestAgent_Chat_ExecutesToolCalls(t *testing.T) {
	ha := &fakeHA{snapshot: models.Snapshot{
		Entities: []models.Entity{{EntityID: "light.living_room", State: "off"}},
	}}
	model := &fakeModel{responses: []*claude.MessageResponse{
		toolUseResponse("toolu_1", "turn_on_device", map[string]any{"entity_id": "light.living_room"}),
		textResponse("Done, the living room light is on."),
	}}
	publisher := &fakePublisher{}

	conversation := newConversation()

	result, err := newAgent(t, ha, model, publisher).Chat(context.Background(), conversation, "Turn on the living room light")
	require.NoError(t, err)

	require.Len(t, ha.calls, 1)
	assert.Equal(t, "light", ha.calls[0].Domain)
	assert.Equal(t, "turn_on", ha.calls[0].Service)

	require.Len(t, result.Actions, 1)
	assert.Equal(t, "turn_on_device", result.Actions[0].Tool)
	assert.True(t, result.Actions[0].Succeeded())

	assert.Contains(t, result.Reply, "✅ Actions executed:")
	assert.Contains(t, result.Reply, "Turned on light.living_room")

	// Second model call receives the tool result as a user turn.
	require.Len(t, model.requests, 2)
	lastMessage := model.requests[1].Messages[len(model.requests[1].Messages)-1]
	assert.Equal(t, models.RoleUser, lastMessage.Role)
	require.Len(t, lastMessage.Content, 1)
	assert.Equal(t, models.ContentTypeToolResult, lastMessage.Content[0].Type)
	assert.Equal(t, "toolu_1", lastMessage.Content[0].ToolUseID)

	eventTypes := make([]events.EventType, 0, len(publisher.published))
	for _, event := range publisher.published {
		eventTypes = append(eventTypes, event.GetType())
	}

	assert.Equal(t, []events.EventType{events.ActionExecutedEvent, events.ChatCompletedEvent}, eventTypes)
}

func TestAgent_Chat_InvalidToolInputReportedToModel(t *testing.T) {
	ha := &fakeHA{}
	model := &fakeModel{responses: []*claude.MessageResponse{
		toolUseResponse("toolu_1", "turn_on_device", map[string]any{}),
		textResponse("I could not find that device."),
	}}
	publisher := &fakePublisher{}

	result, err := newAgent(t, ha, model, publisher).Chat(context.Background(), newConversation(), "Turn it on")
	require.NoError(t, err)

	assert.Empty(t, ha.calls)

	require.Len(t, result.Actions, 1)
	assert.False(t, result.Actions[0].Succeeded())

	// The failed validation went back to the model as an error tool result.
	require.Len(t, model.requests, 2)
	lastMessage := model.requests[1].Messages[len(model.requests[1].Messages)-1]
	require.Len(t, lastMessage.Content, 1)
	assert.True(t, lastMessage.Content[0].IsError)

	assert.Equal(t, events.ActionFailedEvent, publisher.published[0].GetType())
}

func TestAgent_Chat_ToolRoundLimit(t *testing.T) {
	ha := &fakeHA{}
	model := &fakeModel{responses: []*claude.MessageResponse{
		toolUseResponse("toolu_1", "turn_on_device", map[string]any{"entity_id": "light.hall"}),
	}}

	_, err := newAgent(t, ha, model, &fakePublisher{}).Chat(context.Background(), newConversation(), "Flicker the light forever")
	assert.ErrorIs(t, err, agent.ErrToolRoundsExceeded)
}

func TestAgent_ExecuteAction(t *testing.T) {
	ha := &fakeHA{}
	model := &fakeModel{responses: []*claude.MessageResponse{
		toolUseResponse("toolu_1", "turn_off_device", map[string]any{"entity_id": "switch.heater"}),
		textResponse("Heater is off."),
	}}

	outcome, err := newAgent(t, ha, model, &fakePublisher{}).ExecuteAction(context.Background(), "Turn off the heater")
	require.NoError(t, err)

	assert.True(t, outcome.Success)
	assert.Contains(t, outcome.Message, "Turned off switch.heater")
	require.Len(t, ha.calls, 1)
	assert.Equal(t, "turn_off", ha.calls[0].Service)
}

func TestAgent_AnalyzeSystem(t *testing.T) {
	ha := &fakeHA{
		snapshot: models.Snapshot{
			Entities: []models.Entity{
				{EntityID: "light.hall", State: "on"},
				{EntityID: "sensor.garden", State: "unavailable"},
			},
			HAVersion: "2025.7.1",
		},
		errorLog: "ERROR setup failed\nWARNING slow update\n",
	}
	model := &fakeModel{responses: []*claude.MessageResponse{textResponse("One sensor is unavailable.")}}
	publisher := &fakePublisher{}

	analysis, err := newAgent(t, ha, model, publisher).AnalyzeSystem(context.Background(), models.AnalysisTriggerScheduled)
	require.NoError(t, err)

	assert.NotEmpty(t, analysis.ID)
	assert.Equal(t, models.AnalysisTriggerScheduled, analysis.Trigger)
	assert.Equal(t, "One sensor is unavailable.", analysis.Summary)
	assert.Equal(t, 2, analysis.EntityCount)
	assert.Equal(t, 1, analysis.UnavailableCount)
	assert.Equal(t, 2, analysis.ErrorLogLineCount)

	// Analysis is a pure completion, no tools offered.
	require.Len(t, model.requests, 1)
	assert.Empty(t, model.requests[0].Tools)
	assert.Contains(t, model.requests[0].System, "sensor.garden")

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.AnalysisCompletedEvent, publisher.published[0].GetType())
}
