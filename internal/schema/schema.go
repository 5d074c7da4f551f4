// Package schema defines the schema-introspection contract used by discovery
// and provides a MySQL information_schema implementation.
package schema

import "context"

// Column describes one table column.
type Column struct {
	Name     string
	Type     string // column data type, lowercased (e.g. "varchar", "bigint", "char")
	Nullable bool
	Primary  bool
}

// ForeignKey describes one foreign key constraint column.
type ForeignKey struct {
	Table            string
	Column           string
	ReferencedTable  string
	ReferencedColumn string
}

// Introspector lists tables, columns and foreign keys of a live schema.
// Implementations may be backed by information_schema, fixtures, or mocks;
// consumers treat any returned error as "no information available".
type Introspector interface {
	TableNames(ctx context.Context) ([]string, error)
	TableColumns(ctx context.Context, table string) ([]Column, error)
	ForeignKeys(ctx context.Context) ([]ForeignKey, error)
}
