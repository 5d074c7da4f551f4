// Package query provides an immutable chainable query builder over rows that
// carry a polymorphic column pair, validated against tracker state and
// executed through a generic row-query collaborator.
package query

import (
	"context"

	"github.com/dbsmedya/polytrack/internal/types"
)

// RowQuery is the generic tabular query collaborator. Implementations build
// a query over one table; every chain call returns a derived query. The
// builder never accesses tracker state.
//
// Where accepts the operators =, !=, <, <=, >, >=, like, and in; the "in"
// operator takes a []interface{} value.
type RowQuery interface {
	Where(column, op string, value interface{}) RowQuery
	OrderBy(column, direction string) RowQuery
	Limit(n int) RowQuery
	Offset(n int) RowQuery
	Related(name string) RowQuery
	Run(ctx context.Context) ([]types.Row, error)
}

// RowSource creates row queries for named tables.
type RowSource interface {
	Query(table string) RowQuery
}
