// Package agent orchestrates conversations between the model and Home Assistant.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/homesage/homesage/pkg/claude"
	"github.com/homesage/homesage/pkg/eventbus"
	"github.com/homesage/homesage/pkg/events"
	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/otelhelper"
	"github.com/homesage/homesage/pkg/prompt"
	"github.com/homesage/homesage/pkg/protocol"
	"github.com/homesage/homesage/pkg/registry"
)

// maxToolRounds bounds how many tool-use round trips a single request may
// take before the loop is cut off.
const maxToolRounds = 5

var ErrToolRoundsExceeded = errors.New("tool round limit exceeded")

// HomeAssistant is the slice of the Home Assistant client the agent needs.
type HomeAssistant interface {
	Snapshot(ctx context.Context) (*models.Snapshot, error)
	ErrorLog(ctx context.Context) (string, error)
	CallService(ctx context.Context, call models.ServiceCall) error
}

// Model is the slice of the Anthropic client the agent needs.
type Model interface {
	CreateMessage(ctx context.Context, request claude.MessageRequest) (*claude.MessageResponse, error)
}

// ChatResult is the outcome of one conversation turn.
type ChatResult struct {
	ConversationID string                `json:"conversation_id"`
	Reply          string                `json:"reply"`
	Actions        []models.ActionResult `json:"actions,omitempty"`
}

// ActionOutcome is the outcome of a one-shot natural language action.
type ActionOutcome struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Actions []models.ActionResult `json:"actions,omitempty"`
}

// Agent runs the tool-use loop: it snapshots the installation, prompts the
// model, executes the tool calls the model requests, and reports the results
// back until the model produces a final reply.
type Agent struct {
	id        string
	ha        HomeAssistant
	model     Model
	registry  *registry.Registry
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
}

func NewAgent(
	id string,
	ha HomeAssistant,
	model Model,
	reg *registry.Registry,
	publisher eventbus.EventPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Agent {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("agent")
	}

	return &Agent{
		id:        id,
		ha:        ha,
		model:     model,
		registry:  reg,
		publisher: publisher,
		tracer:    tracer,
		logger:    logger.With("module", "agent", "agent_id", id),
	}
}

// Chat runs one turn of a conversation: the user message is appended to the
// history, the model is called with the current entity snapshot and the tool
// definitions, and any requested tools are executed before the final reply.
func (a *Agent) Chat(ctx context.Context, conversation *models.Conversation, userMessage string) (*ChatResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "agent.chat",
		attribute.String(otelhelper.ConversationIDKey, conversation.ID))
	defer span.End()

	startTime := time.Now()

	conversation.Append(models.UserMessage(userMessage))

	reply, actions, err := a.runToolLoop(ctx, conversation)
	if err != nil {
		otelhelper.SetError(span, err)
		a.publish(ctx, conversation.ID, events.ChatFailed{
			BaseEvent:      events.NewBaseEvent(events.ChatFailedEvent, a.id),
			ConversationID: conversation.ID,
			UserMessage:    userMessage,
			Error:          err.Error(),
			Duration:       time.Since(startTime),
		})

		return nil, err
	}

	a.publish(ctx, conversation.ID, events.ChatCompleted{
		BaseEvent:      events.NewBaseEvent(events.ChatCompletedEvent, a.id),
		ConversationID: conversation.ID,
		UserMessage:    userMessage,
		Reply:          reply,
		Actions:        actions,
		Duration:       time.Since(startTime),
	})

	return &ChatResult{
		ConversationID: conversation.ID,
		Reply:          reply,
		Actions:        actions,
	}, nil
}

// ExecuteAction runs a one-shot natural language command against a throwaway
// conversation. The returned outcome reports success only when every
// requested tool executed cleanly.
func (a *Agent) ExecuteAction(ctx context.Context, action string) (*ActionOutcome, error) {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "agent.execute_action")
	defer span.End()

	conversation := &models.Conversation{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
	}
	conversation.Append(models.UserMessage(action))

	reply, actions, err := a.runToolLoop(ctx, conversation)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	outcome := &ActionOutcome{
		Success: true,
		Message: reply,
		Actions: actions,
	}

	for _, result := range actions {
		if !result.Succeeded() {
			outcome.Success = false
		}
	}

	return outcome, nil
}

// AnalyzeSystem asks the model for a health report built from the entity
// availability census and the Home Assistant error log.
func (a *Agent) AnalyzeSystem(ctx context.Context, trigger models.AnalysisTrigger) (*models.Analysis, error) {
	analysisID := uuid.New().String()

	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "agent.analyze_system",
		attribute.String(otelhelper.AnalysisIDKey, analysisID))
	defer span.End()

	snapshot, err := a.ha.Snapshot(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to snapshot system: %w", err)
	}

	errorLog, err := a.ha.ErrorLog(ctx)
	if err != nil {
		// The availability census alone is still worth analyzing.
		a.logger.WarnContext(ctx, "Failed to fetch error log", "error", err)

		errorLog = ""
	}

	systemPrompt, err := prompt.Analysis(*snapshot, errorLog)
	if err != nil {
		return nil, err
	}

	response, err := a.model.CreateMessage(ctx, claude.MessageRequest{
		System:   systemPrompt,
		Messages: []models.Message{models.UserMessage("Analyze the current state of this Home Assistant system.")},
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to analyze system: %w", err)
	}

	unavailable := snapshot.UnavailableEntities()

	analysis := &models.Analysis{
		ID:                analysisID,
		Trigger:           trigger,
		Summary:           response.Text(),
		EntityCount:       len(snapshot.Entities),
		UnavailableCount:  len(unavailable),
		ErrorLogLineCount: countLines(errorLog),
		CreatedAt:         time.Now().UTC(),
	}

	a.publish(ctx, analysis.ID, events.AnalysisCompleted{
		BaseEvent:        events.NewBaseEvent(events.AnalysisCompletedEvent, a.id),
		AnalysisID:       analysis.ID,
		Trigger:          trigger,
		Summary:          analysis.Summary,
		UnavailableCount: analysis.UnavailableCount,
	})

	return analysis, nil
}

// runToolLoop drives the model until it stops requesting tools. Executed
// action confirmations are appended to the final reply.
func (a *Agent) runToolLoop(ctx context.Context, conversation *models.Conversation) (string, []models.ActionResult, error) {
	snapshot, err := a.ha.Snapshot(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to snapshot system: %w", err)
	}

	systemPrompt, err := prompt.System(*snapshot, a.registry.Definitions())
	if err != nil {
		return "", nil, err
	}

	tools := make([]claude.Tool, 0, len(a.registry.Definitions()))
	for _, definition := range a.registry.Definitions() {
		tools = append(tools, claude.Tool{
			Name:        definition.Name,
			Description: definition.Description,
			InputSchema: definition.InputSchema,
		})
	}

	var (
		reply   strings.Builder
		actions []models.ActionResult
	)

	for round := 0; ; round++ {
		if round >= maxToolRounds {
			return "", nil, ErrToolRoundsExceeded
		}

		response, err := a.model.CreateMessage(ctx, claude.MessageRequest{
			System:   systemPrompt,
			Messages: conversation.Messages,
			Tools:    tools,
		})
		if err != nil {
			return "", nil, err
		}

		conversation.Append(models.Message{Role: models.RoleAssistant, Content: response.Content})
		reply.WriteString(response.Text())

		toolCalls := response.ToolCalls()
		if response.StopReason != claude.StopReasonToolUse || len(toolCalls) == 0 {
			break
		}

		results := make([]models.ContentBlock, 0, len(toolCalls))

		for _, call := range toolCalls {
			result := a.executeTool(ctx, conversation.ID, call)
			actions = append(actions, result)

			output := result.Output
			if !result.Succeeded() {
				output = "Error: " + result.Error
			}

			results = append(results, models.ToolResultBlock(call.ID, output, !result.Succeeded()))
		}

		conversation.Append(models.Message{Role: models.RoleUser, Content: results})
	}

	return formatReply(reply.String(), actions), actions, nil
}

// executeTool validates and runs a single tool call. Failures are reported
// back to the model as tool results instead of aborting the turn.
func (a *Agent) executeTool(ctx context.Context, conversationID string, call models.ToolCall) models.ActionResult {
	ctx, span := otelhelper.StartSpan(ctx, a.tracer, "agent.execute_tool",
		attribute.String(otelhelper.ToolNameKey, call.Name))
	defer span.End()

	result := models.ActionResult{
		Tool:       call.Name,
		Input:      call.Input,
		ExecutedAt: time.Now().UTC(),
	}

	err := a.registry.ValidateInput(call.Name, call.Input)
	if err == nil {
		var tool protocol.Tool

		tool, err = a.registry.CreateTool(call.Name, a.ha)
		if err == nil {
			result.Output, err = tool.Execute(ctx, call.Input, a.logger)
		}
	}

	if err != nil {
		otelhelper.SetError(span, err)
		a.logger.ErrorContext(ctx, "Tool execution failed", "tool", call.Name, "error", err)

		result.Error = err.Error()

		a.publish(ctx, conversationID, events.ActionFailed{
			BaseEvent:      events.NewBaseEvent(events.ActionFailedEvent, a.id),
			ConversationID: conversationID,
			Tool:           call.Name,
			Input:          call.Input,
			Error:          err.Error(),
		})

		return result
	}

	a.logger.InfoContext(ctx, "Tool executed", "tool", call.Name, "output", result.Output)

	a.publish(ctx, conversationID, events.ActionExecuted{
		BaseEvent:      events.NewBaseEvent(events.ActionExecutedEvent, a.id),
		ConversationID: conversationID,
		Tool:           call.Name,
		Input:          call.Input,
		Output:         result.Output,
	})

	return result
}

// formatReply appends the executed action confirmations to the model's reply.
func formatReply(text string, actions []models.ActionResult) string {
	if len(actions) == 0 {
		return text
	}

	var out strings.Builder

	out.WriteString(text)
	out.WriteString("\n\n✅ Actions executed:\n")

	for _, action := range actions {
		line := action.Output
		if !action.Succeeded() {
			line = "Error: " + action.Error
		}

		out.WriteString("- " + line + "\n")
	}

	return out.String()
}

func (a *Agent) publish(ctx context.Context, key string, event eventbus.Event) {
	if a.publisher == nil {
		return
	}

	if err := a.publisher.Publish(ctx, key, event); err != nil {
		a.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}

func countLines(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	return len(strings.Split(text, "\n"))
}
