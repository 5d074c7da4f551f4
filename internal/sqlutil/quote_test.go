package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple table name",
			input:    "activity_logs",
			expected: "`activity_logs`",
		},
		{
			name:     "polymorphic column",
			input:    "loggable_type",
			expected: "`loggable_type`",
		},
		{
			name:     "mixed case",
			input:    "ActivityLog",
			expected: "`ActivityLog`",
		},
		{
			name:     "embedded backtick is doubled",
			input:    "my`table",
			expected: "`my``table`",
		},
		{
			name:     "backtick at end",
			input:    "table`",
			expected: "`table```",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "``",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, QuoteIdentifier(tt.input))
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"jobs", "activity_logs", "loggable_id", "Table123", "___", "CUSTOMERS"}
	for _, name := range valid {
		assert.True(t, IsValidIdentifier(name), name)
	}

	invalid := []string{
		"",
		"activity logs",
		"my-table",
		"db.table",
		"my`table",
		"jobs; DROP TABLE jobs--",
		"table$name",
		"id = 1 OR 1",
	}
	for _, name := range invalid {
		assert.False(t, IsValidIdentifier(name), name)
	}
}

func TestQuoteIdentifierSafe(t *testing.T) {
	quoted, err := QuoteIdentifierSafe("activity_logs")
	require.NoError(t, err)
	assert.Equal(t, "`activity_logs`", quoted)

	quoted, err = QuoteIdentifierSafe("jobs; DROP TABLE jobs--")
	require.Error(t, err)
	assert.Empty(t, quoted)

	var identErr *InvalidIdentifierError
	require.ErrorAs(t, err, &identErr)
	assert.Contains(t, err.Error(), "invalid identifier")
	assert.Contains(t, err.Error(), "DROP TABLE")
}
