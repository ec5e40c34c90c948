package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesage/homesage/pkg/agent"
	"github.com/homesage/homesage/pkg/channels/gochannel"
	"github.com/homesage/homesage/pkg/eventbus"
	"github.com/homesage/homesage/pkg/events"
	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence/file"
	"github.com/homesage/homesage/pkg/services"
)

type fakeActionAgent struct {
	executed chan string
	outcome  *agent.ActionOutcome
	err      error
}

func (f *fakeActionAgent) ExecuteAction(_ context.Context, action string) (*agent.ActionOutcome, error) {
	f.executed <- action

	if f.err != nil {
		return nil, f.err
	}

	return f.outcome, nil
}

func newTestWorker(t *testing.T, actionAgent *fakeActionAgent) (*Worker, eventbus.EventBus) {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	logger := slog.Default()
	actionService := services.NewAction(file.NewPersistence(t.TempDir()), actionAgent, logger)

	return NewWorker("agent-test", bus, actionService, logger), bus
}

func TestWorker_ExecutesRequestedAction(t *testing.T) {
	actionAgent := &fakeActionAgent{
		executed: make(chan string, 1),
		outcome: &agent.ActionOutcome{
			Success: true,
			Message: "Turned on light.living_room",
			Actions: []models.ActionResult{{Tool: "turn_on_device", Output: "Turned on light.living_room"}},
		},
	}

	worker, bus := newTestWorker(t, actionAgent)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	require.NoError(t, bus.Handle(events.ActionRequestedEvent, worker.handleActionRequested))
	require.NoError(t, bus.Subscribe(ctx))

	event := events.ActionRequested{
		BaseEvent: events.NewBaseEvent(events.ActionRequestedEvent, "api"),
		RequestID: "req-1",
		Action:    "turn on the living room light",
	}
	require.NoError(t, bus.Publish(ctx, event.RequestID, event))

	select {
	case action := <-actionAgent.executed:
		assert.Equal(t, "turn on the living room light", action)
	case <-time.After(5 * time.Second):
		t.Fatal("action was not executed")
	}
}

func TestWorker_HandleActionRequested_ValidationErrorDropped(t *testing.T) {
	actionAgent := &fakeActionAgent{executed: make(chan string, 1)}
	worker, _ := newTestWorker(t, actionAgent)

	event := &events.ActionRequested{
		BaseEvent: events.NewBaseEvent(events.ActionRequestedEvent, "api"),
		RequestID: "req-2",
		Action:    "   ",
	}

	// An empty action never reaches the agent and is not retried.
	err := worker.handleActionRequested(t.Context(), event)
	assert.NoError(t, err)
	assert.Empty(t, actionAgent.executed)
}

func TestWorker_HandleActionRequested_AgentErrorPropagates(t *testing.T) {
	actionAgent := &fakeActionAgent{
		executed: make(chan string, 1),
		err:      errors.New("model unavailable"),
	}
	worker, _ := newTestWorker(t, actionAgent)

	event := &events.ActionRequested{
		BaseEvent: events.NewBaseEvent(events.ActionRequestedEvent, "api"),
		RequestID: "req-3",
		Action:    "turn off everything",
	}

	err := worker.handleActionRequested(t.Context(), event)
	assert.Error(t, err)
}

func TestWorker_HandleActionRequested_WrongPayloadIgnored(t *testing.T) {
	actionAgent := &fakeActionAgent{executed: make(chan string, 1)}
	worker, _ := newTestWorker(t, actionAgent)

	err := worker.handleActionRequested(t.Context(), &events.ChatCompleted{})
	assert.NoError(t, err)
	assert.Empty(t, actionAgent.executed)
}
