package turnon

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesage/homesage/pkg/models"
)

type fakeHA struct {
	calls []models.ServiceCall
	err   error
}

func (f *fakeHA) CallService(_ context.Context, call models.ServiceCall) error {
	f.calls = append(f.calls, call)

	return f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestTool_Execute(t *testing.T) {
	ha := &fakeHA{}
	tool := NewTool(ha)

	result, err := tool.Execute(context.Background(), map[string]any{"entity_id": "light.living_room"}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "Turned on light.living_room", result)

	require.Len(t, ha.calls, 1)
	assert.Equal(t, "light", ha.calls[0].Domain)
	assert.Equal(t, "turn_on", ha.calls[0].Service)
	assert.Equal(t, "light.living_room", ha.calls[0].Data["entity_id"])
}

func TestTool_Execute_SceneUsesSceneDomain(t *testing.T) {
	ha := &fakeHA{}
	tool := NewTool(ha)

	_, err := tool.Execute(context.Background(), map[string]any{"entity_id": "scene.movie_night"}, testLogger())
	require.NoError(t, err)

	require.Len(t, ha.calls, 1)
	assert.Equal(t, "scene", ha.calls[0].Domain)
}

func TestTool_Execute_MissingEntityID(t *testing.T) {
	tool := NewTool(&fakeHA{})

	_, err := tool.Execute(context.Background(), map[string]any{}, testLogger())
	assert.ErrorIs(t, err, ErrEntityIDRequired)
}

func TestTool_Execute_ServiceCallFails(t *testing.T) {
	ha := &fakeHA{err: errors.New("connection refused")}
	tool := NewTool(ha)

	_, err := tool.Execute(context.Background(), map[string]any{"entity_id": "light.living_room"}, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to turn on light.living_room")
}

func TestToolFactory(t *testing.T) {
	factory := NewToolFactory()

	assert.Equal(t, "turn_on_device", factory.ID())
	assert.NotEmpty(t, factory.Description())

	schema := factory.Schema()
	assert.Equal(t, "object", schema["type"])

	tool, err := factory.Create(&fakeHA{})
	require.NoError(t, err)
	assert.NotNil(t, tool)
}
