package settemperature

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesage/homesage/pkg/models"
)

type fakeHA struct {
	calls []models.ServiceCall
}

func (f *fakeHA) CallService(_ context.Context, call models.ServiceCall) error {
	f.calls = append(f.calls, call)

	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestTool_Execute(t *testing.T) {
	ha := &fakeHA{}
	tool := NewTool(ha)

	result, err := tool.Execute(context.Background(), map[string]any{
		"entity_id":   "climate.living_room",
		"temperature": float64(21.5),
	}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "Set climate.living_room to 21.5°C", result)

	require.Len(t, ha.calls, 1)
	assert.Equal(t, "climate", ha.calls[0].Domain)
	assert.Equal(t, "set_temperature", ha.calls[0].Service)
	assert.Equal(t, float64(21.5), ha.calls[0].Data["temperature"])
}

func TestTool_Execute_Validation(t *testing.T) {
	tool := NewTool(&fakeHA{})

	_, err := tool.Execute(context.Background(), map[string]any{"temperature": float64(20)}, testLogger())
	assert.ErrorIs(t, err, ErrEntityIDRequired)

	_, err = tool.Execute(context.Background(), map[string]any{"entity_id": "climate.living_room"}, testLogger())
	assert.ErrorIs(t, err, ErrTemperatureRequired)
}
