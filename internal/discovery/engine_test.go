package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/polytrack/internal/configstore"
	"github.com/dbsmedya/polytrack/internal/schema"
	"github.com/dbsmedya/polytrack/internal/tracker"
)

// fakeIntrospector serves a canned schema and counts introspection calls.
type fakeIntrospector struct {
	tables  []string
	columns map[string][]schema.Column
	fks     []schema.ForeignKey
	err     error

	tableCalls int
}

func (f *fakeIntrospector) TableNames(ctx context.Context) ([]string, error) {
	f.tableCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.tables, nil
}

func (f *fakeIntrospector) TableColumns(ctx context.Context, table string) ([]schema.Column, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.columns[table], nil
}

func (f *fakeIntrospector) ForeignKeys(ctx context.Context) ([]schema.ForeignKey, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.fks, nil
}

func col(name, dataType string, nullable bool) schema.Column {
	return schema.Column{Name: name, Type: dataType, Nullable: nullable}
}

// testSchema models a small schedule-keeping database: notes and
// activity_logs each carry a polymorphic pair, users is referenced by an
// ordinary typed user_id/user_type pair, and jobs has foreign-key evidence
// toward activity_logs.
func testSchema() *fakeIntrospector {
	return &fakeIntrospector{
		tables: []string{"activity_logs", "jobs", "notes", "tasks", "users"},
		columns: map[string][]schema.Column{
			"activity_logs": {
				col("id", "bigint", false),
				col("loggable_id", "bigint", true),
				col("loggable_type", "varchar", true),
			},
			"jobs": {
				col("id", "bigint", false),
				col("name", "varchar", false),
			},
			"notes": {
				col("id", "bigint", false),
				col("body", "text", true),
				col("notable_id", "bigint", true),
				col("notable_type", "varchar", true),
				col("user_id", "bigint", true),
				col("user_type", "varchar", true),
			},
			"tasks": {
				col("id", "bigint", false),
			},
			"users": {
				col("id", "bigint", false),
			},
		},
		fks: []schema.ForeignKey{
			{Table: "jobs", Column: "activity_log_id", ReferencedTable: "activity_logs", ReferencedColumn: "id"},
		},
	}
}

func newTestTracker(t *testing.T, types ...string) *tracker.Tracker {
	t.Helper()
	tr := tracker.New(configstore.NewMemory(), "default", &tracker.Options{
		KnownTypes: types,
	})
	require.NoError(t, tr.Initialize(context.Background()))
	return tr
}

func TestDiscoverPolymorphicTypes(t *testing.T) {
	engine := NewEngine(testSchema(), nil)
	results := engine.DiscoverPolymorphicTypes(context.Background())

	require.Len(t, results, 2)
	assert.Equal(t, "loggable", results[0].Type)
	assert.Equal(t, []string{"activity_logs"}, results[0].Owners)
	assert.Equal(t, "notable", results[1].Type)
	assert.Equal(t, []string{"notes"}, results[1].Owners)

	// jobs references activity_logs by foreign key, so it is proposed as a
	// loggable target with high confidence.
	require.Len(t, results[0].Targets, 1)
	assert.Equal(t, "jobs", results[0].Targets[0].TableName)
	assert.Equal(t, "Job", results[0].Targets[0].ModelName)
	assert.Equal(t, tracker.SourceDiscovery, results[0].Targets[0].Source)
	assert.Equal(t, "loggable", results[0].Targets[0].RelationshipName)
	assert.Equal(t, ConfidenceHigh, results[0].Metadata.Confidence)

	// notable has consistent typing but no foreign-key evidence.
	assert.Empty(t, results[1].Targets)
	assert.Equal(t, ConfidenceMedium, results[1].Metadata.Confidence)

	for _, r := range results {
		assert.Equal(t, "schema-scan", r.Metadata.Source)
		assert.False(t, r.Metadata.DiscoveredAt.IsZero())
	}
}

func TestDiscoverRejectsOrdinaryForeignKeyPairs(t *testing.T) {
	// user_id/user_type sits next to a users table, so the stem reads as a
	// typed reference and never as a polymorphic type.
	engine := NewEngine(testSchema(), nil)
	for _, r := range engine.DiscoverPolymorphicTypes(context.Background()) {
		assert.NotEqual(t, "user", r.Type)
	}

	assert.Equal(t, "", engine.DetectPolymorphicType(context.Background(), "user_id", "user_type"))
}

func TestDiscoverAcceptsTrackedStemDespiteTableCollision(t *testing.T) {
	tr := newTestTracker(t, "user")
	engine := NewEngine(testSchema(), &Options{Tracker: tr})

	assert.Equal(t, "user", engine.DetectPolymorphicType(context.Background(), "user_id", "user_type"))

	var stems []string
	for _, r := range engine.DiscoverPolymorphicTypes(context.Background()) {
		stems = append(stems, r.Type)
	}
	assert.Contains(t, stems, "user")
}

func TestDetectPolymorphicType(t *testing.T) {
	engine := NewEngine(testSchema(), nil)
	ctx := context.Background()

	assert.Equal(t, "notable", engine.DetectPolymorphicType(ctx, "notable_id", "notable_type"))
	assert.Equal(t, "", engine.DetectPolymorphicType(ctx, "notable_id", "loggable_type"))
	assert.Equal(t, "", engine.DetectPolymorphicType(ctx, "", ""))
	assert.Equal(t, "", engine.DetectPolymorphicType(ctx, "_id", "_type"))

	// a stem unknown to the schema is still accepted as long as it does not
	// collide with a table name
	assert.Equal(t, "schedulable", engine.DetectPolymorphicType(ctx, "schedulable_id", "schedulable_type"))
}

func TestDiscoverSurvivesIntrospectionFailure(t *testing.T) {
	engine := NewEngine(&fakeIntrospector{err: errors.New("connection refused")}, nil)

	results := engine.DiscoverPolymorphicTypes(context.Background())
	assert.NotNil(t, results)
	assert.Empty(t, results)

	assert.Empty(t, engine.FilterValidTargets(context.Background(), "loggable", []string{"jobs"}))

	_, err := engine.AnalyzeSchema(context.Background())
	assert.Error(t, err)
}

func TestSnapshotCaching(t *testing.T) {
	intro := testSchema()
	engine := NewEngine(intro, &Options{CacheTTL: time.Minute})
	ctx := context.Background()

	engine.DiscoverPolymorphicTypes(ctx)
	engine.DiscoverPolymorphicTypes(ctx)
	assert.Equal(t, 1, intro.tableCalls)

	engine.Invalidate()
	engine.DiscoverPolymorphicTypes(ctx)
	assert.Equal(t, 2, intro.tableCalls)
}

func TestSnapshotCachingDisabledByDefault(t *testing.T) {
	intro := testSchema()
	engine := NewEngine(intro, nil)
	ctx := context.Background()

	engine.DiscoverPolymorphicTypes(ctx)
	engine.DiscoverPolymorphicTypes(ctx)
	assert.Equal(t, 2, intro.tableCalls)
}

func TestConfidenceScoring(t *testing.T) {
	// non-nullable pair downgrades to low even with foreign-key evidence
	intro := testSchema()
	intro.columns["activity_logs"] = []schema.Column{
		col("id", "bigint", false),
		col("loggable_id", "bigint", false),
		col("loggable_type", "varchar", false),
	}

	engine := NewEngine(intro, nil)
	results := engine.DiscoverPolymorphicTypes(context.Background())
	require.Len(t, results, 2)
	assert.Equal(t, "loggable", results[0].Type)
	assert.Equal(t, ConfidenceLow, results[0].Metadata.Confidence)
}

func TestFilterValidTargets(t *testing.T) {
	engine := NewEngine(testSchema(), nil)
	ctx := context.Background()

	filtered := engine.FilterValidTargets(ctx, "loggable", []string{"jobs", "tasks", "users"})
	assert.Equal(t, []string{"jobs"}, filtered)

	// a type with no owner tables validates nothing
	assert.Empty(t, engine.FilterValidTargets(ctx, "billable", []string{"jobs"}))
}

func TestAnalyzeSchema(t *testing.T) {
	engine := NewEngine(testSchema(), nil)

	analysis, err := engine.AnalyzeSchema(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, analysis.Tables)
	assert.Equal(t, 13, analysis.Columns)
	assert.Equal(t, 1, analysis.ForeignKeys)
	assert.Equal(t, 2, analysis.PolymorphicPairs)
	assert.Equal(t, []string{"activity_logs", "notes"}, analysis.OwnerTables)
	assert.Equal(t, 6, analysis.ColumnsPerTable["notes"])
}

func TestCalculateComplexityMetrics(t *testing.T) {
	engine := NewEngine(testSchema(), nil)

	metrics, err := engine.CalculateComplexityMetrics(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 2.6, metrics.AvgColumnsPerTable, 0.001)
	assert.InDelta(t, 0.2, metrics.ForeignKeyDensity, 0.001)
	assert.InDelta(t, 0.4, metrics.PolymorphicRatio, 0.001)
}

func TestCalculateComplexityMetricsEmptySchema(t *testing.T) {
	engine := NewEngine(&fakeIntrospector{}, nil)

	metrics, err := engine.CalculateComplexityMetrics(context.Background())
	require.NoError(t, err)
	assert.Zero(t, metrics.AvgColumnsPerTable)
	assert.Zero(t, metrics.PolymorphicRatio)
}

func TestDetectSchemaInconsistencies(t *testing.T) {
	intro := testSchema()
	// tasks carries a loggable_id without loggable_type; loggable is
	// polymorphic elsewhere, so the half-pair is flagged.
	intro.columns["tasks"] = append(intro.columns["tasks"], col("loggable_id", "bigint", true))
	// an ordinary foreign key is not flagged
	intro.columns["tasks"] = append(intro.columns["tasks"], col("job_id", "bigint", true))

	engine := NewEngine(intro, nil)
	found, err := engine.DetectSchemaInconsistencies(context.Background())
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, "tasks", found[0].Table)
	assert.Equal(t, "loggable_id", found[0].Column)
	assert.Contains(t, found[0].Message, "loggable_type")
}

func TestDetectSchemaInconsistenciesTrackedStem(t *testing.T) {
	intro := testSchema()
	intro.columns["tasks"] = append(intro.columns["tasks"], col("schedulable_type", "varchar", true))

	// without tracking the stem is unknown and nothing is flagged
	engine := NewEngine(intro, nil)
	found, err := engine.DetectSchemaInconsistencies(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)

	tr := newTestTracker(t, "schedulable")
	engine = NewEngine(intro, &Options{Tracker: tr})
	found, err = engine.DetectSchemaInconsistencies(context.Background())
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "schedulable_type", found[0].Column)
}
