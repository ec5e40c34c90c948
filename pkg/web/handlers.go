// Package web provides the HTTP handlers for the bridge REST API.
package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/homesage/homesage/pkg/eventbus"
	"github.com/homesage/homesage/pkg/events"
	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/services"
)

// EntityDirectory is the slice of the Home Assistant client the API needs.
type EntityDirectory interface {
	States(ctx context.Context) ([]models.Entity, error)
	State(ctx context.Context, entityID string) (models.Entity, error)
	HealthCheck(ctx context.Context) error
}

type APIHandlers struct {
	conversationService *services.Conversation
	actionService       *services.Action
	analysisService     *services.Analysis
	entities            EntityDirectory
	eventBus            eventbus.EventBus
	validator           *validator.Validate
}

func NewAPIHandlers(
	conversationService *services.Conversation,
	actionService *services.Action,
	analysisService *services.Analysis,
	entities EntityDirectory,
	eventBus eventbus.EventBus,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		conversationService: conversationService,
		actionService:       actionService,
		analysisService:     analysisService,
		entities:            entities,
		eventBus:            eventBus,
		validator:           validator,
	}
}

// Chat runs one conversation turn.
func (h *APIHandlers) Chat(c fiber.Ctx) error {
	var req ChatRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.conversationService.Chat(c.Context(), services.ChatRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

// ExecuteAction runs a one-shot natural language action.
func (h *APIHandlers) ExecuteAction(c fiber.Ctx) error {
	var req ExecuteActionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	outcome, err := h.actionService.Execute(c.Context(), req.Action)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(outcome)
}

// GetActions returns the executed-action log, newest first.
func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return badRequest(c, "Invalid limit parameter")
	}

	entries, err := h.actionService.Log(c.Context(), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"actions":     entries,
		"total_count": len(entries),
	})
}

// RunAnalysis starts a manual system analysis.
func (h *APIHandlers) RunAnalysis(c fiber.Ctx) error {
	analysis, err := h.analysisService.Run(c.Context(), models.AnalysisTriggerManual)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(analysis)
}

// GetLatestAnalysis returns the most recent analysis.
func (h *APIHandlers) GetLatestAnalysis(c fiber.Ctx) error {
	analysis, err := h.analysisService.Latest(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(analysis)
}

// GetAnalyses returns stored analyses, newest first.
func (h *APIHandlers) GetAnalyses(c fiber.Ctx) error {
	limit, err := parseLimit(c)
	if err != nil {
		return badRequest(c, "Invalid limit parameter")
	}

	analyses, err := h.analysisService.List(c.Context(), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"analyses":    analyses,
		"total_count": len(analyses),
	})
}

// GetConversations lists stored conversations.
func (h *APIHandlers) GetConversations(c fiber.Ctx) error {
	conversations, err := h.conversationService.Conversations(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conversation := range conversations {
		summaries = append(summaries, TransformConversationSummary(conversation))
	}

	return c.JSON(fiber.Map{
		"conversations": summaries,
		"total_count":   len(summaries),
	})
}

// GetConversation returns a conversation with its full message history.
func (h *APIHandlers) GetConversation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Conversation ID is required")
	}

	conversation, err := h.conversationService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(conversation)
}

// DeleteConversation removes a conversation.
func (h *APIHandlers) DeleteConversation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Conversation ID is required")
	}

	if err := h.conversationService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetEntities lists Home Assistant entities, optionally filtered by domain.
func (h *APIHandlers) GetEntities(c fiber.Ctx) error {
	entities, err := h.entities.States(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	if domain := c.Query("domain"); domain != "" {
		filtered := make([]models.Entity, 0, len(entities))

		for _, entity := range entities {
			if entity.Domain() == domain {
				filtered = append(filtered, entity)
			}
		}

		entities = filtered
	}

	return c.JSON(fiber.Map{
		"entities":    entities,
		"total_count": len(entities),
	})
}

// GetEntity returns a single entity by its ID.
func (h *APIHandlers) GetEntity(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" || !strings.Contains(id, ".") {
		return badRequest(c, "Entity ID must be of the form domain.object_id")
	}

	entity, err := h.entities.State(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(entity)
}

// StateChanged accepts an entity state change and publishes it on the event bus.
func (h *APIHandlers) StateChanged(c fiber.Ctx) error {
	var req StateChangedRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	event := events.EntityStateChanged{
		BaseEvent: events.NewBaseEvent(events.EntityStateChangedEvent, "api"),
		EntityID:  req.EntityID,
		OldState:  req.OldState,
		NewState:  req.NewState,
	}

	if err := h.eventBus.Publish(c.Context(), req.EntityID, event); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"event_id": event.ID})
}

// HealthCheck reports the health of the persistence layer and the Home Assistant connection.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.conversationService.HealthCheck(c.Context())

	haCheck := "Home Assistant is reachable"
	haOk := true

	if err := h.entities.HealthCheck(c.Context()); err != nil {
		haCheck = "Home Assistant is unreachable: " + err.Error()
		haOk = false
	}

	status := "unhealthy"
	message := "Homesage API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk && haOk {
		status = "healthy"
		message = "Homesage API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository":     repositoryCheck,
			"home_assistant": haCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func parseLimit(c fiber.Ctx) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return 0, nil
	}

	return strconv.Atoi(limitStr)
}
