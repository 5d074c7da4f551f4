package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// MySQLIntrospector reads schema metadata from information_schema.
type MySQLIntrospector struct {
	db     *sql.DB
	dbName string
}

// NewMySQLIntrospector creates an introspector for the named schema.
func NewMySQLIntrospector(db *sql.DB, dbName string) (*MySQLIntrospector, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if dbName == "" {
		return nil, fmt.Errorf("database name is required")
	}
	return &MySQLIntrospector{db: db, dbName: dbName}, nil
}

// TableNames lists the base tables of the schema, sorted by name.
func (m *MySQLIntrospector) TableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`

	rows, err := m.db.QueryContext(ctx, query, m.dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// TableColumns lists the columns of one table in ordinal position order.
func (m *MySQLIntrospector) TableColumns(ctx context.Context, table string) ([]Column, error) {
	query := `
		SELECT column_name, data_type, is_nullable, column_key
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`

	rows, err := m.db.QueryContext(ctx, query, m.dbName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns for %q: %w", table, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var name, dataType, nullable, columnKey string
		if err := rows.Scan(&name, &dataType, &nullable, &columnKey); err != nil {
			return nil, fmt.Errorf("failed to scan column for %q: %w", table, err)
		}
		columns = append(columns, Column{
			Name:     name,
			Type:     strings.ToLower(dataType),
			Nullable: strings.EqualFold(nullable, "YES"),
			Primary:  strings.EqualFold(columnKey, "PRI"),
		})
	}
	return columns, rows.Err()
}

// ForeignKeys lists every foreign key constraint column in the schema.
func (m *MySQLIntrospector) ForeignKeys(ctx context.Context) ([]ForeignKey, error) {
	query := `
		SELECT table_name, column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND referenced_table_name IS NOT NULL
		ORDER BY table_name, column_name`

	rows, err := m.db.QueryContext(ctx, query, m.dbName)
	if err != nil {
		return nil, fmt.Errorf("failed to list foreign keys: %w", err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Table, &fk.Column, &fk.ReferencedTable, &fk.ReferencedColumn); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key: %w", err)
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}
