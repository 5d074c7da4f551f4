package query

import "github.com/dbsmedya/polytrack/internal/tracker"

// NewNotableQuery creates a query over table pre-bound to the notable type.
func NewNotableQuery(t *tracker.Tracker, source RowSource, table string) *ChainableQuery {
	return New(t, source, table).ForPolymorphicType("notable")
}

// NewLoggableQuery creates a query over table pre-bound to the loggable type.
func NewLoggableQuery(t *tracker.Tracker, source RowSource, table string) *ChainableQuery {
	return New(t, source, table).ForPolymorphicType("loggable")
}

// NewSchedulableQuery creates a query over table pre-bound to the schedulable type.
func NewSchedulableQuery(t *tracker.Tracker, source RowSource, table string) *ChainableQuery {
	return New(t, source, table).ForPolymorphicType("schedulable")
}
