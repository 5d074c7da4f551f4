// Package tracker maintains the persisted mapping from polymorphic type to
// the set of tables that type is allowed to point at.
package tracker

import "time"

// ConfigVersion is stamped into freshly created config documents.
const ConfigVersion = "1"

// TargetSource records how a target entry came to be tracked.
type TargetSource string

const (
	SourceGeneratedSchema TargetSource = "generated-schema"
	SourceManual          TargetSource = "manual"
	SourceRuntime         TargetSource = "runtime"
	SourceDiscovery       TargetSource = "discovery"
)

// TargetMetadata describes one (polymorphic type, target table) entry.
//
// ModelName and TableName may be written empty; Tracker.Validate flags such
// entries rather than rejecting them at write time.
type TargetMetadata struct {
	ModelName      string       `json:"model_name"`
	TableName      string       `json:"table_name"`
	DiscoveredAt   time.Time    `json:"discovered_at"`
	LastVerifiedAt time.Time    `json:"last_verified_at"`
	Active         bool         `json:"active"`
	Source         TargetSource `json:"source"`
}

// AssociationConfig describes one polymorphic type and its valid targets,
// keyed by table name. Re-adding an existing table name updates the entry
// in place.
type AssociationConfig struct {
	Type         string                     `json:"type"`
	Description  string                     `json:"description,omitempty"`
	ValidTargets map[string]*TargetMetadata `json:"valid_targets"`
	Metadata     map[string]string          `json:"metadata,omitempty"`
}

// ConfigMetadata carries document-level bookkeeping.
type ConfigMetadata struct {
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
	ConfigVersion     string    `json:"config_version"`
	TotalAssociations int       `json:"total_associations"`
	TotalTargets      int       `json:"total_targets"`
	GeneratedBy       string    `json:"generated_by"`
}

// PolymorphicConfig is the whole persisted document. It is mutated only
// through Tracker operations and persisted verbatim through a Store.
type PolymorphicConfig struct {
	Associations map[string]*AssociationConfig `json:"associations"`
	Metadata     ConfigMetadata                `json:"metadata"`
}

// Clone returns a deep copy of the config document.
func (c *PolymorphicConfig) Clone() *PolymorphicConfig {
	if c == nil {
		return nil
	}
	out := &PolymorphicConfig{
		Associations: make(map[string]*AssociationConfig, len(c.Associations)),
		Metadata:     c.Metadata,
	}
	for typ, assoc := range c.Associations {
		out.Associations[typ] = assoc.clone()
	}
	return out
}

func (a *AssociationConfig) clone() *AssociationConfig {
	if a == nil {
		return nil
	}
	out := &AssociationConfig{
		Type:         a.Type,
		Description:  a.Description,
		ValidTargets: make(map[string]*TargetMetadata, len(a.ValidTargets)),
	}
	if a.Metadata != nil {
		out.Metadata = make(map[string]string, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	for table, meta := range a.ValidTargets {
		copied := *meta
		out.ValidTargets[table] = &copied
	}
	return out
}

// recount refreshes the document-level counters.
func (c *PolymorphicConfig) recount() {
	c.Metadata.TotalAssociations = len(c.Associations)
	total := 0
	for _, assoc := range c.Associations {
		total += len(assoc.ValidTargets)
	}
	c.Metadata.TotalTargets = total
}
