package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dbsmedya/polytrack/internal/logger"
	"github.com/dbsmedya/polytrack/internal/tracker"
)

// ErrNotInitialized is returned by every operation attempted before
// Initialize. This is a deliberate hard boundary: a call racing ahead of
// initialization must fail rather than silently operate on an empty tracker.
var ErrNotInitialized = errors.New("registry must be initialized before use")

// Registry exposes tracker state through a generic Registrar, fanning one
// polymorphic type out into concrete per-target relationships.
type Registry struct {
	tracker   *tracker.Tracker
	registrar Registrar
	logger    *logger.Logger

	mu          sync.Mutex
	initialized bool
	umbrellas   map[string][]umbrella
	fanouts     map[string][]*fanout
}

// umbrella records one RegisterPolymorphicRelationship call so the entry can
// be refreshed when the target set changes.
type umbrella struct {
	sourceTable string
	name        string
	idField     string
	typeField   string
}

// fanout records one RegisterPolymorphicTargetRelationships call and the
// concrete names it currently has registered.
type fanout struct {
	sourceTable     string
	idField         string
	typeField       string
	includeInactive bool
	registered      map[string]bool
}

// New creates a Registry over the given tracker and registrar.
// Construction order is Tracker -> Registry; call Initialize before use.
func New(t *tracker.Tracker, r Registrar, log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Registry{
		tracker:   t,
		registrar: r,
		logger:    log,
		umbrellas: make(map[string][]umbrella),
		fanouts:   make(map[string][]*fanout),
	}
}

// Initialize delegates to the tracker and opens the registry for use.
// It is idempotent.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return nil
	}
	if err := r.tracker.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracker: %w", err)
	}
	r.initialized = true
	return nil
}

// RegisterPolymorphicRelationship registers one umbrella entry carrying the
// full valid-target list for typ, tagged KindPolymorphic so downstream
// consumers can special-case it.
func (r *Registry) RegisterPolymorphicRelationship(sourceTable, relationshipName, typ, idField, typeField string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}

	d := Descriptor{
		Kind:            KindPolymorphic,
		Name:            relationshipName,
		SourceTable:     sourceTable,
		IDField:         idField,
		TypeField:       typeField,
		PolymorphicType: typ,
		ValidTargets:    r.tracker.ValidTargets(typ, false),
	}
	if err := r.registrar.Register(d); err != nil {
		return fmt.Errorf("failed to register polymorphic relationship %q: %w", relationshipName, err)
	}

	r.umbrellas[typ] = append(r.umbrellas[typ], umbrella{
		sourceTable: sourceTable,
		name:        relationshipName,
		idField:     idField,
		typeField:   typeField,
	})
	return nil
}

// RegisterPolymorphicTargetRelationships registers one concrete relationship
// per valid target of typ (e.g. activity_logs.loggableJob,
// activity_logs.loggableTask) so generic eager loading can traverse each
// independently. Targets whose metadata lookup is absent are skipped.
func (r *Registry) RegisterPolymorphicTargetRelationships(sourceTable, typ, idField, typeField string, includeInactive bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}

	f := &fanout{
		sourceTable:     sourceTable,
		idField:         idField,
		typeField:       typeField,
		includeInactive: includeInactive,
		registered:      make(map[string]bool),
	}
	if err := r.applyFanout(typ, f); err != nil {
		return err
	}
	r.fanouts[typ] = append(r.fanouts[typ], f)
	return nil
}

// applyFanout registers the current target set for one fanout and removes
// entries that no longer correspond to a valid target. Callers hold r.mu.
func (r *Registry) applyFanout(typ string, f *fanout) error {
	desired := make(map[string]bool)

	for _, table := range r.tracker.ValidTargets(typ, f.includeInactive) {
		meta := r.tracker.TargetMetadata(typ, table)
		if meta == nil {
			// Target listed but metadata missing; skip rather than fail.
			r.logger.Warnf("Skipping target %q for type %q: metadata absent", table, typ)
			continue
		}

		name := fmt.Sprintf("%s.%s%s", f.sourceTable, toCamel(typ), meta.ModelName)
		d := Descriptor{
			Kind:            KindDirect,
			Name:            name,
			SourceTable:     f.sourceTable,
			IDField:         f.idField,
			TypeField:       f.typeField,
			TargetTable:     meta.TableName,
			TargetModel:     meta.ModelName,
			PolymorphicType: typ,
		}
		if err := r.registrar.Register(d); err != nil {
			return fmt.Errorf("failed to register target relationship %q: %w", name, err)
		}
		desired[name] = true
	}

	if unreg, ok := r.registrar.(Unregisterer); ok {
		for name := range f.registered {
			if !desired[name] {
				unreg.Unregister(name)
			}
		}
	}
	f.registered = desired
	return nil
}

// RegisterReversePolymorphicRelationships registers the inverse direction:
// the target model "has many" owner rows via the polymorphic column. The
// owner table name is converted to the camelCase convention the relationship
// layer expects.
func (r *Registry) RegisterReversePolymorphicRelationships(targetTable, typ, sourceTable, idField string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}

	name := fmt.Sprintf("%s.%s", targetTable, toCamel(sourceTable))
	d := Descriptor{
		Kind:            KindDirect,
		Name:            name,
		SourceTable:     targetTable,
		IDField:         idField,
		TargetTable:     sourceTable,
		PolymorphicType: typ,
		Reverse:         true,
	}
	if err := r.registrar.Register(d); err != nil {
		return fmt.Errorf("failed to register reverse relationship %q: %w", name, err)
	}
	return nil
}

// ValidTargets passes through to the tracker.
func (r *Registry) ValidTargets(typ string, includeInactive bool) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return nil, ErrNotInitialized
	}
	return r.tracker.ValidTargets(typ, includeInactive), nil
}

// IsValidTarget passes through to the tracker.
func (r *Registry) IsValidTarget(typ, tableName string, includeInactive bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return false, ErrNotInitialized
	}
	return r.tracker.IsValidTarget(typ, tableName, includeInactive), nil
}

// AddPolymorphicTarget adds a target through the tracker and re-synchronizes
// registered relationships for the type. Tracker failures propagate
// unchanged.
func (r *Registry) AddPolymorphicTarget(ctx context.Context, typ, tableName, modelName string, opts *tracker.AddOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	if err := r.tracker.AddTarget(ctx, typ, tableName, modelName, opts); err != nil {
		return err
	}
	return r.resync(typ)
}

// RemovePolymorphicTarget removes a target through the tracker and
// re-synchronizes registered relationships for the type.
func (r *Registry) RemovePolymorphicTarget(ctx context.Context, typ, tableName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	if err := r.tracker.RemoveTarget(ctx, typ, tableName); err != nil {
		return err
	}
	return r.resync(typ)
}

// DeactivatePolymorphicTarget soft-disables a target through the tracker and
// re-synchronizes registered relationships for the type.
func (r *Registry) DeactivatePolymorphicTarget(ctx context.Context, typ, tableName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.initialized {
		return ErrNotInitialized
	}
	if err := r.tracker.DeactivateTarget(ctx, typ, tableName); err != nil {
		return err
	}
	return r.resync(typ)
}

// resync refreshes every umbrella and fanout registered for typ against the
// tracker's current target set. Callers hold r.mu.
func (r *Registry) resync(typ string) error {
	for _, u := range r.umbrellas[typ] {
		d := Descriptor{
			Kind:            KindPolymorphic,
			Name:            u.name,
			SourceTable:     u.sourceTable,
			IDField:         u.idField,
			TypeField:       u.typeField,
			PolymorphicType: typ,
			ValidTargets:    r.tracker.ValidTargets(typ, false),
		}
		if err := r.registrar.Register(d); err != nil {
			return fmt.Errorf("failed to refresh polymorphic relationship %q: %w", u.name, err)
		}
	}
	for _, f := range r.fanouts[typ] {
		if err := r.applyFanout(typ, f); err != nil {
			return err
		}
	}
	return nil
}

// DiscoverPolymorphicRelationships reflects over already-registered
// relationships and returns the polymorphic umbrella entries. It always
// returns a slice, never an error; it exists for diagnostics.
func (r *Registry) DiscoverPolymorphicRelationships() []Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := []Descriptor{}
	if !r.initialized {
		return found
	}
	for _, name := range r.registrar.ValidRelationships() {
		d, ok := r.registrar.Metadata(name)
		if !ok {
			continue
		}
		if IsPolymorphic(d) {
			found = append(found, d)
		}
	}
	return found
}

// toCamel converts a snake_case name into camelCase.
func toCamel(name string) string {
	segments := strings.Split(name, "_")
	var b strings.Builder
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(seg)
			continue
		}
		b.WriteString(strings.ToUpper(seg[:1]))
		b.WriteString(seg[1:])
	}
	return b.String()
}
