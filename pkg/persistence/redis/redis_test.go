package redis_test

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence"
	redisstore "github.com/homesage/homesage/pkg/persistence/redis"
)

func setupRedis(t *testing.T) *redisstore.Persistence {
	t.Helper()

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set, skipping redis integration tests")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := redisstore.NewPersistence(t.Context(), logger, redisURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(t.Context()))
	})

	return p
}

func TestPersistence_ConversationLifecycle(t *testing.T) {
	p := setupRedis(t)

	conversation := &models.Conversation{ID: uuid.New().String()}
	conversation.Append(models.UserMessage("Set the thermostat to 21"))

	require.NoError(t, p.SaveConversation(t.Context(), conversation))

	loaded, err := p.ConversationByID(t.Context(), conversation.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "Set the thermostat to 21", loaded.Messages[0].Text())

	conversations, err := p.Conversations(t.Context())
	require.NoError(t, err)
	assert.NotEmpty(t, conversations)

	require.NoError(t, p.DeleteConversation(t.Context(), conversation.ID))

	_, err = p.ConversationByID(t.Context(), conversation.ID)
	assert.True(t, persistence.IsConversationNotFound(err))
}

func TestPersistence_ActionLogAndAnalyses(t *testing.T) {
	p := setupRedis(t)

	entry := &models.ActionLogEntry{
		ID: uuid.New().String(),
		ActionResult: models.ActionResult{
			Tool:       "trigger_automation",
			Output:     "Triggered automation.good_morning",
			ExecutedAt: time.Now().UTC(),
		},
	}
	require.NoError(t, p.AppendAction(t.Context(), entry))

	entries, err := p.Actions(t.Context(), 5)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, entry.ID, entries[0].ID)

	analysis := &models.Analysis{
		ID:        uuid.New().String(),
		Trigger:   models.AnalysisTriggerManual,
		Summary:   "healthy",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, p.SaveAnalysis(t.Context(), analysis))

	latest, err := p.LatestAnalysis(t.Context())
	require.NoError(t, err)
	assert.Equal(t, analysis.ID, latest.ID)
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := setupRedis(t)
	assert.NoError(t, p.HealthCheck(t.Context()))
}
