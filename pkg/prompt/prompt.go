// Package prompt renders the system prompts sent to the model.
package prompt

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/homesage/homesage/pkg/models"
)

// maxEntitiesPerDomain limits how many entities each domain contributes to
// the prompt; the remainder is collapsed into a count.
const maxEntitiesPerDomain = 5

var systemTemplate = template.Must(template.New("system").
	Funcs(template.FuncMap{"upper": strings.ToUpper}).
	Parse(`You are Claude, an AI assistant integrated into Home Assistant with FULL CONTROL capabilities.

# SYSTEM OVERVIEW
- Home Assistant {{.Version}}
- Timezone: {{.TimeZone}}
- Total entities: {{.EntityCount}}

# ENTITIES IN THIS SYSTEM
{{range .Domains}}
**{{upper .Name}}** ({{.Total}} entities)
{{- range .Entities}}
  - {{.FriendlyName}} ({{.EntityID}}): {{.State}}
{{- end}}
{{- if .Hidden}}
  ... and {{.Hidden}} more
{{- end}}
{{end}}
# YOUR CAPABILITIES
You can control devices using these tools:
{{- range .Tools}}
- {{.Name}}: {{.Description}}
{{- end}}

# IMPORTANT INSTRUCTIONS
- When users ask you to control devices, USE THE TOOLS immediately
- Always use exact entity_ids from the list above
- Confirm actions after executing them
- Be helpful and conversational
- If you're unsure about an entity name, search the list

The user trusts you to control their home. Be accurate and helpful!`))

var analysisTemplate = template.Must(template.New("analysis").
	Parse(`You are Claude, an AI assistant reviewing the health of a Home Assistant installation.

# SYSTEM OVERVIEW
- Home Assistant {{.Version}}
- Timezone: {{.TimeZone}}
- Total entities: {{.EntityCount}}
- Unavailable entities: {{.UnavailableCount}}
{{if .Unavailable}}
# UNAVAILABLE ENTITIES
{{- range .Unavailable}}
- {{.FriendlyName}} ({{.EntityID}}): {{.State}}
{{- end}}
{{end}}
{{- if .ErrorLog}}
# RECENT ERROR LOG
{{.ErrorLog}}
{{end}}
# TASK
Analyze this system for problems. Call out unavailable devices, recurring
errors, and misconfigurations, and suggest concrete fixes. Be concise and
ordered by severity. If everything looks healthy, say so.`))

type domainSection struct {
	Name     string
	Total    int
	Entities []models.Entity
	Hidden   int
}

type systemData struct {
	Version     string
	TimeZone    string
	EntityCount int
	Domains     []domainSection
	Tools       []models.RegisteredTool
}

// System renders the conversation system prompt from a snapshot of the
// Home Assistant state and the tools exposed to the model.
func System(snapshot models.Snapshot, tools []models.RegisteredTool) (string, error) {
	byDomain := snapshot.ByDomain()

	data := systemData{
		Version:     snapshot.HAVersion,
		TimeZone:    snapshot.TimeZone,
		EntityCount: len(snapshot.Entities),
		Tools:       tools,
	}

	for _, domain := range snapshot.Domains() {
		entities := byDomain[domain]

		section := domainSection{
			Name:     domain,
			Total:    len(entities),
			Entities: entities,
		}

		if len(entities) > maxEntitiesPerDomain {
			section.Entities = entities[:maxEntitiesPerDomain]
			section.Hidden = len(entities) - maxEntitiesPerDomain
		}

		data.Domains = append(data.Domains, section)
	}

	var buf strings.Builder
	if err := systemTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}

	return buf.String(), nil
}

type analysisData struct {
	Version          string
	TimeZone         string
	EntityCount      int
	UnavailableCount int
	Unavailable      []models.Entity
	ErrorLog         string
}

// Analysis renders the prompt used for system health analysis.
func Analysis(snapshot models.Snapshot, errorLog string) (string, error) {
	unavailable := snapshot.UnavailableEntities()

	data := analysisData{
		Version:          snapshot.HAVersion,
		TimeZone:         snapshot.TimeZone,
		EntityCount:      len(snapshot.Entities),
		UnavailableCount: len(unavailable),
		Unavailable:      unavailable,
		ErrorLog:         strings.TrimSpace(errorLog),
	}

	var buf strings.Builder
	if err := analysisTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render analysis prompt: %w", err)
	}

	return buf.String(), nil
}
