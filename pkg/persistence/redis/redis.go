// Package redis provides Redis-backed persistence for conversations, action logs, and analyses.
// Conversations are stored as JSON values with an optional TTL, the action log
// and analyses as capped lists.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence"
)

const (
	conversationKeyPrefix = "homesage:conversation:"
	conversationSetKey    = "homesage:conversations"
	actionLogKey          = "homesage:actions"
	analysesKey           = "homesage:analyses"

	// DefaultConversationTTL expires idle conversations after a day.
	DefaultConversationTTL = 24 * time.Hour

	maxActionLogEntries = 1000
	maxAnalysisEntries  = 100
)

// Persistence implements the persistence.Persistence interface on Redis.
type Persistence struct {
	client          *redis.Client
	logger          *slog.Logger
	conversationTTL time.Duration
}

// NewPersistence connects to Redis using a redis:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, redisURL string) (*Persistence, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{
		client:          client,
		logger:          logger,
		conversationTTL: DefaultConversationTTL,
	}, nil
}

// Close closes the Redis connection.
func (p *Persistence) Close(_ context.Context) error {
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}

	return nil
}

// HealthCheck verifies the Redis connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

// Conversations returns all live conversations, most recently updated first.
// Expired conversations are pruned from the index as they are encountered.
func (p *Persistence) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	ids, err := p.client.SMembers(ctx, conversationSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	conversations := make([]*models.Conversation, 0, len(ids))

	for _, id := range ids {
		conversation, err := p.ConversationByID(ctx, id)
		if persistence.IsConversationNotFound(err) {
			if err := p.client.SRem(ctx, conversationSetKey, id).Err(); err != nil {
				p.logger.WarnContext(ctx, "Failed to prune expired conversation", "conversation_id", id, "error", err)
			}

			continue
		}

		if err != nil {
			return nil, err
		}

		conversations = append(conversations, conversation)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})

	return conversations, nil
}

// ConversationByID retrieves a conversation by its ID.
func (p *Persistence) ConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	data, err := p.client.Get(ctx, conversationKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.NewConversationError("GetByID", id, persistence.ErrConversationNotFound)
	}

	if err != nil {
		return nil, persistence.NewConversationError("GetByID", id, err)
	}

	var conversation models.Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, persistence.NewConversationError("GetByID", id, err)
	}

	return &conversation, nil
}

// SaveConversation stores a conversation and refreshes its TTL.
func (p *Persistence) SaveConversation(ctx context.Context, conversation *models.Conversation) error {
	data, err := json.Marshal(conversation)
	if err != nil {
		return persistence.NewConversationError("Save", conversation.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.Set(ctx, conversationKeyPrefix+conversation.ID, data, p.conversationTTL)
	pipe.SAdd(ctx, conversationSetKey, conversation.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return persistence.NewConversationError("Save", conversation.ID, err)
	}

	return nil
}

// DeleteConversation removes a conversation.
func (p *Persistence) DeleteConversation(ctx context.Context, id string) error {
	removed, err := p.client.Del(ctx, conversationKeyPrefix+id).Result()
	if err != nil {
		return persistence.NewConversationError("Delete", id, err)
	}

	if err := p.client.SRem(ctx, conversationSetKey, id).Err(); err != nil {
		return persistence.NewConversationError("Delete", id, err)
	}

	if removed == 0 {
		return persistence.NewConversationError("Delete", id, persistence.ErrConversationNotFound)
	}

	return nil
}

// AppendAction pushes an entry onto the capped action log list.
func (p *Persistence) AppendAction(ctx context.Context, entry *models.ActionLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal action log entry: %w", err)
	}

	pipe := p.client.TxPipeline()
	pipe.LPush(ctx, actionLogKey, data)
	pipe.LTrim(ctx, actionLogKey, 0, maxActionLogEntries-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append action log entry: %w", err)
	}

	return nil
}

// Actions returns logged actions, newest first, capped at limit when positive.
func (p *Persistence) Actions(ctx context.Context, limit int) ([]*models.ActionLogEntry, error) {
	if limit <= 0 || limit > maxActionLogEntries {
		limit = maxActionLogEntries
	}

	values, err := p.client.LRange(ctx, actionLogKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read action log: %w", err)
	}

	entries := make([]*models.ActionLogEntry, 0, len(values))

	for _, value := range values {
		var entry models.ActionLogEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return nil, fmt.Errorf("failed to parse action log entry: %w", err)
		}

		entries = append(entries, &entry)
	}

	return entries, nil
}

// SaveAnalysis pushes an analysis onto the capped analyses list.
func (p *Persistence) SaveAnalysis(ctx context.Context, analysis *models.Analysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis %s: %w", analysis.ID, err)
	}

	pipe := p.client.TxPipeline()
	pipe.LPush(ctx, analysesKey, data)
	pipe.LTrim(ctx, analysesKey, 0, maxAnalysisEntries-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", analysis.ID, err)
	}

	return nil
}

// LatestAnalysis returns the most recent analysis.
func (p *Persistence) LatestAnalysis(ctx context.Context) (*models.Analysis, error) {
	data, err := p.client.LIndex(ctx, analysesKey, 0).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persistence.ErrAnalysisNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read latest analysis: %w", err)
	}

	var analysis models.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}

	return &analysis, nil
}

// Analyses returns stored analyses, newest first, capped at limit when positive.
func (p *Persistence) Analyses(ctx context.Context, limit int) ([]*models.Analysis, error) {
	if limit <= 0 || limit > maxAnalysisEntries {
		limit = maxAnalysisEntries
	}

	values, err := p.client.LRange(ctx, analysesKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read analyses: %w", err)
	}

	analyses := make([]*models.Analysis, 0, len(values))

	for _, value := range values {
		var analysis models.Analysis
		if err := json.Unmarshal([]byte(value), &analysis); err != nil {
			return nil, fmt.Errorf("failed to parse analysis: %w", err)
		}

		analyses = append(analyses, &analysis)
	}

	return analyses, nil
}
