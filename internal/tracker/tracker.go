package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dbsmedya/polytrack/internal/logger"
)

// ErrNotInitialized is returned by mutating operations before Initialize.
var ErrNotInitialized = errors.New("tracker must be initialized before use")

// Store persists config documents keyed by configID. Load returns (nil, nil)
// when no document exists for the key. Re-loading a key after a process
// restart must return the last saved document unchanged.
type Store interface {
	Load(ctx context.Context, configID string) (*PolymorphicConfig, error)
	Save(ctx context.Context, configID string, cfg *PolymorphicConfig) error
}

// Tracker is the single source of truth for valid polymorphic targets.
//
// All mutations run under an internal mutex; the persistence write happens
// inside the same critical section, so overlapping mutations cannot
// interleave their saves and corrupt the persisted document.
type Tracker struct {
	store       Store
	configID    string
	knownTypes  []string
	generatedBy string
	logger      *logger.Logger

	mu          sync.Mutex
	cfg         *PolymorphicConfig
	initialized bool
}

// Options configures Tracker construction.
type Options struct {
	// KnownTypes seeds a freshly created config document with empty
	// associations for each named type.
	KnownTypes []string
	// GeneratedBy is recorded in new config documents.
	GeneratedBy string
	Logger      *logger.Logger
}

// New creates a Tracker backed by the given store and config key.
// Call Initialize before any mutation.
func New(store Store, configID string, opts *Options) *Tracker {
	t := &Tracker{
		store:    store,
		configID: configID,
		logger:   logger.NewDefault(),
	}
	if opts != nil {
		t.knownTypes = append(t.knownTypes, opts.KnownTypes...)
		if opts.Logger != nil {
			t.logger = opts.Logger
		}
	}
	generatedBy := "polytrack"
	if opts != nil && opts.GeneratedBy != "" {
		generatedBy = opts.GeneratedBy
	}
	t.generatedBy = generatedBy
	return t
}

// Initialize loads the persisted config or creates a default document.
// It is idempotent; second and later calls are no-ops.
func (t *Tracker) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}

	cfg, err := t.store.Load(ctx, t.configID)
	if err != nil {
		return fmt.Errorf("failed to load polymorphic config %q: %w", t.configID, err)
	}

	if cfg == nil {
		cfg = t.newDefaultConfig()
		if err := t.store.Save(ctx, t.configID, cfg); err != nil {
			return fmt.Errorf("failed to save initial polymorphic config %q: %w", t.configID, err)
		}
		t.logger.Infof("Created polymorphic config %q with %d known types", t.configID, len(t.knownTypes))
	} else {
		t.logger.Debugf("Loaded polymorphic config %q: %d associations, %d targets",
			t.configID, cfg.Metadata.TotalAssociations, cfg.Metadata.TotalTargets)
	}

	t.cfg = cfg
	t.initialized = true
	return nil
}

func (t *Tracker) newDefaultConfig() *PolymorphicConfig {
	now := time.Now().UTC()
	cfg := &PolymorphicConfig{
		Associations: make(map[string]*AssociationConfig, len(t.knownTypes)),
		Metadata: ConfigMetadata{
			CreatedAt:     now,
			UpdatedAt:     now,
			ConfigVersion: ConfigVersion,
			GeneratedBy:   t.generatedBy,
		},
	}
	for _, typ := range t.knownTypes {
		cfg.Associations[typ] = &AssociationConfig{
			Type:         typ,
			ValidTargets: make(map[string]*TargetMetadata),
		}
	}
	cfg.recount()
	return cfg
}

// AddOptions carries optional AddTarget settings.
type AddOptions struct {
	Source      TargetSource
	Description string
}

// AddTarget upserts a target entry for the given type. On first insertion it
// sets DiscoveredAt; on every call it refreshes LastVerifiedAt and reactivates
// the entry. Unknown types get a new association created on the fly.
func (t *Tracker) AddTarget(ctx context.Context, typ, tableName, modelName string, opts *AddOptions) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return ErrNotInitialized
	}
	if typ == "" {
		return fmt.Errorf("polymorphic type name must not be empty")
	}

	source := SourceRuntime
	if opts != nil && opts.Source != "" {
		source = opts.Source
	}

	assoc, ok := t.cfg.Associations[typ]
	if !ok {
		assoc = &AssociationConfig{
			Type:         typ,
			ValidTargets: make(map[string]*TargetMetadata),
		}
		t.cfg.Associations[typ] = assoc
	}
	if opts != nil && opts.Description != "" {
		assoc.Description = opts.Description
	}

	now := time.Now().UTC()
	meta, exists := assoc.ValidTargets[tableName]
	if !exists {
		meta = &TargetMetadata{
			TableName:    tableName,
			DiscoveredAt: now,
		}
		assoc.ValidTargets[tableName] = meta
	}
	meta.ModelName = modelName
	meta.TableName = tableName
	meta.LastVerifiedAt = now
	meta.Active = true
	meta.Source = source

	return t.persistLocked(ctx)
}

// DeactivateTarget soft-disables a target: the entry is retained but excluded
// from the default valid-target listing. Unknown entries are a no-op.
func (t *Tracker) DeactivateTarget(ctx context.Context, typ, tableName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return ErrNotInitialized
	}

	assoc, ok := t.cfg.Associations[typ]
	if !ok {
		return nil
	}
	meta, ok := assoc.ValidTargets[tableName]
	if !ok {
		return nil
	}

	meta.Active = false
	meta.LastVerifiedAt = time.Now().UTC()

	return t.persistLocked(ctx)
}

// RemoveTarget hard-deletes a target entry. Removing a non-existent target is
// a no-op, not an error.
func (t *Tracker) RemoveTarget(ctx context.Context, typ, tableName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return ErrNotInitialized
	}

	assoc, ok := t.cfg.Associations[typ]
	if !ok {
		return nil
	}
	if _, ok := assoc.ValidTargets[tableName]; !ok {
		return nil
	}

	delete(assoc.ValidTargets, tableName)

	return t.persistLocked(ctx)
}

// persistLocked refreshes counters and writes the document through the store.
// Callers must hold t.mu, which serializes overlapping saves.
func (t *Tracker) persistLocked(ctx context.Context) error {
	t.cfg.Metadata.UpdatedAt = time.Now().UTC()
	t.cfg.recount()
	if err := t.store.Save(ctx, t.configID, t.cfg); err != nil {
		return fmt.Errorf("failed to persist polymorphic config %q: %w", t.configID, err)
	}
	return nil
}

// ValidTargets returns the table names tracked for the given type, sorted.
// By default only active entries are included. Unknown types return an empty
// slice, never an error.
func (t *Tracker) ValidTargets(typ string, includeInactive bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	targets := []string{}
	if !t.initialized {
		return targets
	}
	assoc, ok := t.cfg.Associations[typ]
	if !ok {
		return targets
	}
	for table, meta := range assoc.ValidTargets {
		if meta.Active || includeInactive {
			targets = append(targets, table)
		}
	}
	sort.Strings(targets)
	return targets
}

// ValidTargetModels returns the model names tracked for the given type,
// sorted. Only active entries are included unless includeInactive is set.
func (t *Tracker) ValidTargetModels(typ string, includeInactive bool) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	models := []string{}
	if !t.initialized {
		return models
	}
	assoc, ok := t.cfg.Associations[typ]
	if !ok {
		return models
	}
	for _, meta := range assoc.ValidTargets {
		if (meta.Active || includeInactive) && meta.ModelName != "" {
			models = append(models, meta.ModelName)
		}
	}
	sort.Strings(models)
	return models
}

// IsValidTarget reports whether tableName is a tracked target for typ.
func (t *Tracker) IsValidTarget(typ, tableName string, includeInactive bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return false
	}
	assoc, ok := t.cfg.Associations[typ]
	if !ok {
		return false
	}
	meta, ok := assoc.ValidTargets[tableName]
	if !ok {
		return false
	}
	return meta.Active || includeInactive
}

// TargetMetadata returns a copy of the metadata for (typ, tableName), or nil
// when absent.
func (t *Tracker) TargetMetadata(typ, tableName string) *TargetMetadata {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return nil
	}
	assoc, ok := t.cfg.Associations[typ]
	if !ok {
		return nil
	}
	meta, ok := assoc.ValidTargets[tableName]
	if !ok {
		return nil
	}
	copied := *meta
	return &copied
}

// AssociationConfig returns a deep copy of the association for typ, or nil
// when the type is not tracked.
func (t *Tracker) AssociationConfig(typ string) *AssociationConfig {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return nil
	}
	assoc, ok := t.cfg.Associations[typ]
	if !ok {
		return nil
	}
	return assoc.clone()
}

// PolymorphicTypes returns the sorted list of tracked type names.
func (t *Tracker) PolymorphicTypes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	typs := []string{}
	if !t.initialized {
		return typs
	}
	for typ := range t.cfg.Associations {
		typs = append(typs, typ)
	}
	sort.Strings(typs)
	return typs
}

// Config returns a deep copy of the whole config document, or nil before
// initialization. Mutating the copy has no effect on tracked state.
func (t *Tracker) Config() *PolymorphicConfig {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return nil
	}
	return t.cfg.Clone()
}
