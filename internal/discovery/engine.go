package discovery

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dbsmedya/polytrack/internal/logger"
	"github.com/dbsmedya/polytrack/internal/schema"
	"github.com/dbsmedya/polytrack/internal/tracker"
)

// Confidence expresses how certain the engine is that a detected column pair
// is a real polymorphic association rather than a naming coincidence.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// TargetCandidate is one proposed target for a discovered type.
type TargetCandidate struct {
	TableName        string
	ModelName        string
	Source           tracker.TargetSource
	RelationshipName string
}

// ResultMetadata carries bookkeeping about one discovery result.
type ResultMetadata struct {
	DiscoveredAt time.Time
	Source       string
	Confidence   Confidence
}

// Result is one discovered polymorphic type with its proposed targets.
// Results are ephemeral; a caller confirms targets back into the tracker.
type Result struct {
	Type     string
	Owners   []string // tables carrying the {type}_id/{type}_type pair
	Targets  []TargetCandidate
	Metadata ResultMetadata
}

// Engine discovers polymorphic column-pair conventions from a schema.
type Engine struct {
	intro   schema.Introspector
	tracker *tracker.Tracker // optional; nil disables tracked-type checks
	logger  *logger.Logger
	ttl     time.Duration

	mu     sync.Mutex
	snap   *snapshot
	snapAt time.Time
}

// Options configures Engine construction.
type Options struct {
	// Tracker, when set, lets detection accept stems that are already
	// tracked even when they collide with an ordinary table name.
	Tracker *tracker.Tracker
	// CacheTTL is how long a schema snapshot is reused. Zero disables
	// caching and every call re-introspects.
	CacheTTL time.Duration
	Logger   *logger.Logger
}

// NewEngine creates a discovery engine over the given introspector.
func NewEngine(intro schema.Introspector, opts *Options) *Engine {
	e := &Engine{
		intro:  intro,
		logger: logger.NewDefault(),
	}
	if opts != nil {
		e.tracker = opts.Tracker
		e.ttl = opts.CacheTTL
		if opts.Logger != nil {
			e.logger = opts.Logger
		}
	}
	return e
}

// snapshot is one full read of the schema, reused across calls within the
// cache TTL so repeated discovery over an unchanged schema stays cheap.
type snapshot struct {
	tables  []string
	columns map[string][]schema.Column
	fks     []schema.ForeignKey
}

func (s *snapshot) hasTable(name string) bool {
	for _, t := range s.tables {
		if t == name {
			return true
		}
	}
	return false
}

func (s *snapshot) column(table, name string) *schema.Column {
	for i := range s.columns[table] {
		if s.columns[table][i].Name == name {
			return &s.columns[table][i]
		}
	}
	return nil
}

// loadSnapshot returns the cached snapshot or re-introspects the schema.
func (e *Engine) loadSnapshot(ctx context.Context) (*snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.snap != nil && e.ttl > 0 && time.Since(e.snapAt) < e.ttl {
		return e.snap, nil
	}

	tables, err := e.intro.TableNames(ctx)
	if err != nil {
		return nil, err
	}

	snap := &snapshot{
		tables:  tables,
		columns: make(map[string][]schema.Column, len(tables)),
	}
	for _, table := range tables {
		cols, err := e.intro.TableColumns(ctx, table)
		if err != nil {
			return nil, err
		}
		snap.columns[table] = cols
	}

	fks, err := e.intro.ForeignKeys(ctx)
	if err != nil {
		return nil, err
	}
	snap.fks = fks

	e.snap = snap
	e.snapAt = time.Now()
	return snap, nil
}

// Invalidate drops the cached schema snapshot.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.snap = nil
}

// DiscoverPolymorphicTypes scans every table for {stem}_id/{stem}_type column
// pairs, groups matches by stem across the schema, and emits one result per
// stem with a confidence score. Introspection failure yields an empty slice,
// never an error: a broken schema probe must not crash the caller.
func (e *Engine) DiscoverPolymorphicTypes(ctx context.Context) []Result {
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		e.logger.Warnf("Schema introspection failed, skipping discovery: %v", err)
		return []Result{}
	}

	owners := e.collectOwners(snap)

	stems := make([]string, 0, len(owners))
	for stem := range owners {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	now := time.Now().UTC()
	results := make([]Result, 0, len(stems))
	for _, stem := range stems {
		ownerTables := owners[stem]

		targets := e.candidateTargets(snap, ownerTables)
		confidence := e.scoreConfidence(snap, stem, ownerTables, len(targets) > 0)

		candidates := make([]TargetCandidate, 0, len(targets))
		for _, table := range targets {
			candidates = append(candidates, TargetCandidate{
				TableName:        table,
				ModelName:        GenerateModelName(table),
				Source:           tracker.SourceDiscovery,
				RelationshipName: CamelCase(stem),
			})
		}

		results = append(results, Result{
			Type:    stem,
			Owners:  ownerTables,
			Targets: candidates,
			Metadata: ResultMetadata{
				DiscoveredAt: now,
				Source:       "schema-scan",
				Confidence:   confidence,
			},
		})
	}

	e.logger.Infof("Discovered %d polymorphic type candidates across %d tables",
		len(results), len(snap.tables))
	return results
}

// collectOwners maps each accepted stem to the sorted tables carrying its
// column pair.
func (e *Engine) collectOwners(snap *snapshot) map[string][]string {
	owners := make(map[string][]string)
	for _, table := range snap.tables {
		names := make(map[string]bool, len(snap.columns[table]))
		for _, col := range snap.columns[table] {
			names[col.Name] = true
		}
		for _, col := range snap.columns[table] {
			if !strings.HasSuffix(col.Name, idSuffix) {
				continue
			}
			stem := strings.TrimSuffix(col.Name, idSuffix)
			if stem == "" || !names[stem+typeSuffix] {
				continue
			}
			if !e.acceptStem(snap, stem) {
				continue
			}
			owners[stem] = append(owners[stem], table)
		}
	}
	for stem := range owners {
		sort.Strings(owners[stem])
	}
	return owners
}

// acceptStem rejects stems that look like ordinary foreign keys: a stem whose
// naive plural names an existing table (user_id/user_type next to a users
// table) is a typed reference, not a polymorphic association — unless the
// stem is already tracked.
func (e *Engine) acceptStem(snap *snapshot, stem string) bool {
	if e.tracker != nil {
		for _, typ := range e.tracker.PolymorphicTypes() {
			if typ == stem {
				return true
			}
		}
	}
	if snap != nil && snap.hasTable(naivePlural(stem)) {
		return false
	}
	return true
}

// DetectPolymorphicType strips the _id/_type suffixes from the column pair
// and returns the shared stem, applying the same ordinary-foreign-key
// rejection as discovery. It returns "" for malformed or empty input.
func (e *Engine) DetectPolymorphicType(ctx context.Context, idColumn, typeColumn string) string {
	stem := SplitColumnPair(idColumn, typeColumn)
	if stem == "" {
		return ""
	}
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		snap = nil
	}
	if !e.acceptStem(snap, stem) {
		return ""
	}
	return stem
}

// candidateTargets proposes targets for the stem's owner tables: any table
// connected to an owner by a foreign key in either direction.
func (e *Engine) candidateTargets(snap *snapshot, ownerTables []string) []string {
	ownerSet := make(map[string]bool, len(ownerTables))
	for _, t := range ownerTables {
		ownerSet[t] = true
	}

	seen := make(map[string]bool)
	var targets []string
	for _, fk := range snap.fks {
		var candidate string
		switch {
		case ownerSet[fk.ReferencedTable] && !ownerSet[fk.Table]:
			candidate = fk.Table
		case ownerSet[fk.Table] && !ownerSet[fk.ReferencedTable]:
			candidate = fk.ReferencedTable
		default:
			continue
		}
		if !seen[candidate] {
			seen[candidate] = true
			targets = append(targets, candidate)
		}
	}
	sort.Strings(targets)
	return targets
}

// scoreConfidence rates a stem: consistent column typing plus foreign-key
// evidence is high, consistent typing alone is medium, anything else low.
func (e *Engine) scoreConfidence(snap *snapshot, stem string, ownerTables []string, fkEvidence bool) Confidence {
	consistent := true
	for _, table := range ownerTables {
		idCol := snap.column(table, stem+idSuffix)
		typeCol := snap.column(table, stem+typeSuffix)
		if idCol == nil || typeCol == nil {
			consistent = false
			break
		}
		if !idCol.Nullable || !typeCol.Nullable {
			consistent = false
			break
		}
		if !isIDColumnType(idCol.Type) || !isTypeColumnType(typeCol.Type) {
			consistent = false
			break
		}
	}

	switch {
	case consistent && fkEvidence:
		return ConfidenceHigh
	case consistent:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// isIDColumnType accepts integer types and the fixed/variable character
// types UUIDs are stored in.
func isIDColumnType(dataType string) bool {
	switch dataType {
	case "bigint", "int", "integer", "mediumint", "smallint", "tinyint",
		"char", "varchar", "binary", "varbinary":
		return true
	}
	return false
}

// isTypeColumnType accepts string types able to hold a model name.
func isTypeColumnType(dataType string) bool {
	switch dataType {
	case "varchar", "char", "text", "tinytext", "enum":
		return true
	}
	return false
}

// FilterValidTargets narrows candidate tables to those with foreign-key
// evidence connecting them to a table that carries the type's column pair.
// Introspection failure yields an empty slice.
func (e *Engine) FilterValidTargets(ctx context.Context, typ string, candidates []string) []string {
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		e.logger.Warnf("Schema introspection failed, no targets validated: %v", err)
		return []string{}
	}

	var ownerTables []string
	for _, table := range snap.tables {
		if snap.column(table, typ+idSuffix) != nil && snap.column(table, typ+typeSuffix) != nil {
			ownerTables = append(ownerTables, table)
		}
	}
	if len(ownerTables) == 0 {
		return []string{}
	}

	evidence := make(map[string]bool)
	for _, t := range e.candidateTargets(snap, ownerTables) {
		evidence[t] = true
	}

	filtered := []string{}
	for _, candidate := range candidates {
		if evidence[candidate] {
			filtered = append(filtered, candidate)
		}
	}
	return filtered
}
