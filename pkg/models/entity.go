// Package models defines the core domain models for the Home Assistant bridge.
package models

import (
	"sort"
	"strings"
	"time"
)

// Entity is a Home Assistant entity state as returned by the states API.
type Entity struct {
	EntityID    string         `json:"entity_id"    validate:"required"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes,omitempty"`
	LastChanged time.Time      `json:"last_changed,omitzero"`
	LastUpdated time.Time      `json:"last_updated,omitzero"`
}

// Domain returns the entity domain, the part of the entity ID before the
// first dot ("light" for "light.living_room").
func (e Entity) Domain() string {
	domain, _, _ := strings.Cut(e.EntityID, ".")

	return domain
}

// FriendlyName returns the friendly_name attribute, falling back to the
// entity ID when the attribute is absent.
func (e Entity) FriendlyName() string {
	if name, ok := e.Attributes["friendly_name"].(string); ok && name != "" {
		return name
	}

	return e.EntityID
}

// Unavailable reports whether the entity is in an unavailable or unknown state.
func (e Entity) Unavailable() bool {
	return e.State == "unavailable" || e.State == "unknown"
}

// Snapshot is a point-in-time view of every entity in the installation,
// together with the system info shown to the model.
type Snapshot struct {
	Entities  []Entity  `json:"entities"`
	HAVersion string    `json:"ha_version,omitempty"`
	TimeZone  string    `json:"time_zone,omitempty"`
	TakenAt   time.Time `json:"taken_at"`
}

// ByDomain groups the snapshot's entities by domain. Domains are returned in
// a deterministic order via Domains.
func (s *Snapshot) ByDomain() map[string][]Entity {
	grouped := make(map[string][]Entity)
	for _, entity := range s.Entities {
		domain := entity.Domain()
		grouped[domain] = append(grouped[domain], entity)
	}

	return grouped
}

// Domains returns the sorted list of domains present in the snapshot.
func (s *Snapshot) Domains() []string {
	seen := make(map[string]struct{})

	for _, entity := range s.Entities {
		seen[entity.Domain()] = struct{}{}
	}

	domains := make([]string, 0, len(seen))
	for domain := range seen {
		domains = append(domains, domain)
	}

	sort.Strings(domains)

	return domains
}

// Find returns the entity with the given ID, if present.
func (s *Snapshot) Find(entityID string) (Entity, bool) {
	for _, entity := range s.Entities {
		if entity.EntityID == entityID {
			return entity, true
		}
	}

	return Entity{}, false
}

// UnavailableEntities returns the entities currently unavailable or unknown.
func (s *Snapshot) UnavailableEntities() []Entity {
	var out []Entity

	for _, entity := range s.Entities {
		if entity.Unavailable() {
			out = append(out, entity)
		}
	}

	return out
}
