// Package registry provides registration and dispatch of the tools exposed to the model.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/protocol"
)

var (
	ErrToolNotRegistered = errors.New("tool not registered")
	ErrInvalidToolInput  = errors.New("invalid tool input")
)

type Registry struct {
	logger        *slog.Logger
	toolFactories map[string]protocol.ToolFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:        log,
		toolFactories: make(map[string]protocol.ToolFactory),
	}
}

func (r *Registry) RegisterTool(factory protocol.ToolFactory) {
	r.toolFactories[factory.ID()] = factory
}

// CreateTool instantiates a registered tool bound to the given Home Assistant client.
func (r *Registry) CreateTool(name string, ha protocol.HomeAssistant) (protocol.Tool, error) {
	factory, ok := r.toolFactories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotRegistered, name)
	}

	return factory.Create(ha)
}

// ValidateInput checks a tool invocation's input against the tool's JSON schema.
func (r *Registry) ValidateInput(name string, input map[string]any) error {
	factory, ok := r.toolFactories[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrToolNotRegistered, name)
	}

	schemaLoader := gojsonschema.NewGoLoader(factory.Schema())
	documentLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate tool input: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("%w for %s: %s", ErrInvalidToolInput, name, strings.Join(details, "; "))
	}

	return nil
}

// Definitions returns the registered tools in the shape sent to the model,
// sorted by name for a stable prompt.
func (r *Registry) Definitions() []models.RegisteredTool {
	definitions := make([]models.RegisteredTool, 0, len(r.toolFactories))

	for _, factory := range r.toolFactories {
		definitions = append(definitions, models.RegisteredTool{
			Name:        factory.ID(),
			Description: factory.Description(),
			InputSchema: factory.Schema(),
		})
	}

	sort.Slice(definitions, func(i, j int) bool {
		return definitions[i].Name < definitions[j].Name
	})

	return definitions
}

// ToolIDs returns the sorted IDs of all registered tools.
func (r *Registry) ToolIDs() []string {
	ids := make([]string, 0, len(r.toolFactories))
	for id := range r.toolFactories {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
