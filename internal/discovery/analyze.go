package discovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// SchemaAnalysis is a schema-wide summary built on the column-pattern scan.
type SchemaAnalysis struct {
	Tables           int
	Columns          int
	ForeignKeys      int
	PolymorphicPairs int      // distinct accepted stems
	OwnerTables      []string // tables carrying at least one accepted pair
	ColumnsPerTable  map[string]int
}

// AnalyzeSchema summarizes the schema as seen by the discovery scan.
func (e *Engine) AnalyzeSchema(ctx context.Context) (*SchemaAnalysis, error) {
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema introspection failed: %w", err)
	}

	analysis := &SchemaAnalysis{
		Tables:          len(snap.tables),
		ForeignKeys:     len(snap.fks),
		ColumnsPerTable: make(map[string]int, len(snap.tables)),
	}
	for _, table := range snap.tables {
		analysis.Columns += len(snap.columns[table])
		analysis.ColumnsPerTable[table] = len(snap.columns[table])
	}

	owners := e.collectOwners(snap)
	analysis.PolymorphicPairs = len(owners)

	ownerSet := make(map[string]bool)
	for _, tables := range owners {
		for _, t := range tables {
			ownerSet[t] = true
		}
	}
	for t := range ownerSet {
		analysis.OwnerTables = append(analysis.OwnerTables, t)
	}
	sort.Strings(analysis.OwnerTables)

	return analysis, nil
}

// ComplexityMetrics are derived ratios over a schema analysis.
type ComplexityMetrics struct {
	AvgColumnsPerTable float64
	ForeignKeyDensity  float64 // foreign keys per table
	PolymorphicRatio   float64 // owner tables / tables
}

// CalculateComplexityMetrics computes schema complexity ratios.
func (e *Engine) CalculateComplexityMetrics(ctx context.Context) (*ComplexityMetrics, error) {
	analysis, err := e.AnalyzeSchema(ctx)
	if err != nil {
		return nil, err
	}

	metrics := &ComplexityMetrics{}
	if analysis.Tables > 0 {
		metrics.AvgColumnsPerTable = float64(analysis.Columns) / float64(analysis.Tables)
		metrics.ForeignKeyDensity = float64(analysis.ForeignKeys) / float64(analysis.Tables)
		metrics.PolymorphicRatio = float64(len(analysis.OwnerTables)) / float64(analysis.Tables)
	}
	return metrics, nil
}

// Inconsistency is one suspicious column pattern found in the schema.
type Inconsistency struct {
	Table   string
	Column  string
	Message string
}

// DetectSchemaInconsistencies flags half-pairs: an {stem}_id column without a
// matching {stem}_type column (or the reverse) on a table, for stems that are
// polymorphic elsewhere — either tracked, or seen as a complete pair on some
// other table. Ordinary foreign keys are not flagged.
func (e *Engine) DetectSchemaInconsistencies(ctx context.Context) ([]Inconsistency, error) {
	snap, err := e.loadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema introspection failed: %w", err)
	}

	polyStems := make(map[string]bool)
	for stem := range e.collectOwners(snap) {
		polyStems[stem] = true
	}
	if e.tracker != nil {
		for _, typ := range e.tracker.PolymorphicTypes() {
			polyStems[typ] = true
		}
	}

	var found []Inconsistency
	for _, table := range snap.tables {
		names := make(map[string]bool, len(snap.columns[table]))
		for _, col := range snap.columns[table] {
			names[col.Name] = true
		}
		for _, col := range snap.columns[table] {
			switch {
			case strings.HasSuffix(col.Name, idSuffix):
				stem := strings.TrimSuffix(col.Name, idSuffix)
				if stem != "" && polyStems[stem] && !names[stem+typeSuffix] {
					found = append(found, Inconsistency{
						Table:  table,
						Column: col.Name,
						Message: fmt.Sprintf("polymorphic id column %q has no matching %q column",
							col.Name, stem+typeSuffix),
					})
				}
			case strings.HasSuffix(col.Name, typeSuffix):
				stem := strings.TrimSuffix(col.Name, typeSuffix)
				if stem != "" && polyStems[stem] && !names[stem+idSuffix] {
					found = append(found, Inconsistency{
						Table:  table,
						Column: col.Name,
						Message: fmt.Sprintf("polymorphic type column %q has no matching %q column",
							col.Name, stem+idSuffix),
					})
				}
			}
		}
	}
	return found, nil
}
