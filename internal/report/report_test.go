package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dbsmedya/polytrack/internal/discovery"
	"github.com/dbsmedya/polytrack/internal/tracker"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"TABLE", "MODEL"},
		[][]string{
			{"jobs", "Job"},
			{"scheduled_date_times", "ScheduledDateTime"},
		},
	)

	assert.Contains(t, out, "TABLE")
	assert.Contains(t, out, "--------------------") // separator sized to the widest cell
	assert.Contains(t, out, "scheduled_date_times  ScheduledDateTime")
}

func TestRenderDiscovery(t *testing.T) {
	results := []discovery.Result{
		{
			Type:   "loggable",
			Owners: []string{"activity_logs"},
			Targets: []discovery.TargetCandidate{
				{TableName: "jobs", ModelName: "Job", Source: tracker.SourceDiscovery},
			},
			Metadata: discovery.ResultMetadata{Confidence: discovery.ConfidenceHigh},
		},
		{
			Type:     "notable",
			Owners:   []string{"notes"},
			Metadata: discovery.ResultMetadata{Confidence: discovery.ConfidenceLow},
		},
	}

	out := RenderDiscovery(results)
	assert.Contains(t, out, "loggable")
	assert.Contains(t, out, "owner tables: activity_logs")
	assert.Contains(t, out, "jobs")
	assert.Contains(t, out, "Job")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "no target candidates")
}

func TestRenderDiscoveryEmpty(t *testing.T) {
	assert.Contains(t, RenderDiscovery(nil), "No polymorphic type candidates")
}

func TestRenderValidation(t *testing.T) {
	valid := &tracker.ValidationReport{Valid: true, TotalChecked: 3}
	assert.Contains(t, RenderValidation(valid), "configuration valid")

	invalid := &tracker.ValidationReport{
		Valid:        false,
		TotalChecked: 3,
		Errors: []tracker.ValidationIssue{
			{Type: "loggable", Table: "jobs", Message: "model name is empty"},
		},
	}
	out := RenderValidation(invalid)
	assert.Contains(t, out, "configuration invalid")
	assert.Contains(t, out, "[loggable/jobs]")
	assert.Contains(t, out, "model name is empty")
}

func TestRenderTargets(t *testing.T) {
	verified := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	assoc := &tracker.AssociationConfig{
		Type: "loggable",
		ValidTargets: map[string]*tracker.TargetMetadata{
			"jobs": {
				TableName:      "jobs",
				ModelName:      "Job",
				Active:         true,
				Source:         tracker.SourceManual,
				LastVerifiedAt: verified,
			},
			"tasks": {
				TableName: "tasks",
				ModelName: "Task",
				Active:    false,
				Source:    tracker.SourceDiscovery,
			},
		},
	}

	out := RenderTargets(assoc)
	assert.Contains(t, out, "jobs")
	assert.Contains(t, out, "Job")
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "inactive")
	assert.Contains(t, out, "2026-08-20 09:30:00")
}

func TestRenderTargetsEdgeCases(t *testing.T) {
	assert.Contains(t, RenderTargets(nil), "unknown polymorphic type")
	assert.Contains(t, RenderTargets(&tracker.AssociationConfig{Type: "billable"}), "no targets tracked")
}

func TestRenderAnalysis(t *testing.T) {
	analysis := &discovery.SchemaAnalysis{
		Tables:           5,
		Columns:          13,
		ForeignKeys:      1,
		PolymorphicPairs: 2,
		OwnerTables:      []string{"activity_logs", "notes"},
	}
	metrics := &discovery.ComplexityMetrics{
		AvgColumnsPerTable: 2.6,
		ForeignKeyDensity:  0.2,
		PolymorphicRatio:   0.4,
	}

	out := RenderAnalysis(analysis, metrics)
	assert.Contains(t, out, "Tables:             5")
	assert.Contains(t, out, "Polymorphic pairs:  2")
	assert.Contains(t, out, "activity_logs, notes")
	assert.Contains(t, out, "2.60")
	assert.Contains(t, out, "0.40")

	// metrics are optional
	out = RenderAnalysis(analysis, nil)
	assert.NotContains(t, out, "Avg columns/table")
}
