package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitColumnPair(t *testing.T) {
	tests := []struct {
		name       string
		idColumn   string
		typeColumn string
		expected   string
	}{
		{
			name:       "matching pair",
			idColumn:   "notable_id",
			typeColumn: "notable_type",
			expected:   "notable",
		},
		{
			name:       "multi segment stem",
			idColumn:   "scheduled_item_id",
			typeColumn: "scheduled_item_type",
			expected:   "scheduled_item",
		},
		{
			name:       "mismatched stems",
			idColumn:   "notable_id",
			typeColumn: "loggable_type",
			expected:   "",
		},
		{
			name:       "missing id suffix",
			idColumn:   "notable",
			typeColumn: "notable_type",
			expected:   "",
		},
		{
			name:       "missing type suffix",
			idColumn:   "notable_id",
			typeColumn: "notable",
			expected:   "",
		},
		{
			name:       "both empty",
			idColumn:   "",
			typeColumn: "",
			expected:   "",
		},
		{
			name:       "bare suffixes",
			idColumn:   "_id",
			typeColumn: "_type",
			expected:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitColumnPair(tt.idColumn, tt.typeColumn))
		})
	}
}

func TestGenerateModelName(t *testing.T) {
	tests := []struct {
		table    string
		expected string
	}{
		{"scheduled_date_times", "ScheduledDateTime"},
		{"people_groups", "PeopleGroup"},
		{"jobs", "Job"},
		{"tasks", "Task"},
		{"activity_logs", "ActivityLog"},
		{"status", "Statu"}, // naive single-s strip
		{"s", "S"},          // single-letter segment is kept
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			assert.Equal(t, tt.expected, GenerateModelName(tt.table))
		})
	}
}

func TestCamelCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"activity_logs", "activityLogs"},
		{"loggable", "loggable"},
		{"scheduled_date_times", "scheduledDateTimes"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CamelCase(tt.input))
		})
	}
}
