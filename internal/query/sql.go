package query

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbsmedya/polytrack/internal/sqlutil"
	"github.com/dbsmedya/polytrack/internal/types"
)

// SQLSource is a RowSource backed by a database/sql connection.
type SQLSource struct {
	db *sql.DB
}

// NewSQLSource creates a source over the given connection.
func NewSQLSource(db *sql.DB) *SQLSource {
	return &SQLSource{db: db}
}

// Query starts a builder for the named table.
func (s *SQLSource) Query(table string) RowQuery {
	q := sqlQuery{db: s.db, table: table}
	if !sqlutil.IsValidIdentifier(table) {
		q.err = &sqlutil.InvalidIdentifierError{Name: table}
	}
	return q
}

type sqlWhere struct {
	column string
	op     string
	value  interface{}
}

type sqlOrder struct {
	column    string
	direction string
}

// sqlQuery builds one SELECT statement. It chains by value: every method
// returns a copy with deep-copied clause slices, so derived queries do not
// share state with their parent.
type sqlQuery struct {
	db     *sql.DB
	table  string
	wheres []sqlWhere
	orders []sqlOrder
	limit  *int
	offset *int
	err    error
}

func (q sqlQuery) clone() sqlQuery {
	out := q
	out.wheres = append([]sqlWhere(nil), q.wheres...)
	out.orders = append([]sqlOrder(nil), q.orders...)
	if q.limit != nil {
		n := *q.limit
		out.limit = &n
	}
	if q.offset != nil {
		n := *q.offset
		out.offset = &n
	}
	return out
}

// sqlOperators whitelists the comparison operators the builder accepts.
var sqlOperators = map[string]string{
	"=":    "=",
	"!=":   "!=",
	"<":    "<",
	"<=":   "<=",
	">":    ">",
	">=":   ">=",
	"like": "LIKE",
	"in":   "IN",
}

func (q sqlQuery) Where(column, op string, value interface{}) RowQuery {
	next := q.clone()
	if next.err != nil {
		return next
	}
	if !sqlutil.IsValidIdentifier(column) {
		next.err = &sqlutil.InvalidIdentifierError{Name: column}
		return next
	}
	if _, ok := sqlOperators[strings.ToLower(op)]; !ok {
		next.err = fmt.Errorf("unsupported operator %q", op)
		return next
	}
	next.wheres = append(next.wheres, sqlWhere{column: column, op: strings.ToLower(op), value: value})
	return next
}

func (q sqlQuery) OrderBy(column, direction string) RowQuery {
	next := q.clone()
	if next.err != nil {
		return next
	}
	if !sqlutil.IsValidIdentifier(column) {
		next.err = &sqlutil.InvalidIdentifierError{Name: column}
		return next
	}
	dir := strings.ToUpper(direction)
	if dir != "ASC" && dir != "DESC" {
		next.err = fmt.Errorf("order direction must be asc or desc, got %q", direction)
		return next
	}
	next.orders = append(next.orders, sqlOrder{column: column, direction: dir})
	return next
}

func (q sqlQuery) Limit(n int) RowQuery {
	next := q.clone()
	next.limit = &n
	return next
}

func (q sqlQuery) Offset(n int) RowQuery {
	next := q.clone()
	next.offset = &n
	return next
}

// Related is accepted for interface compatibility; the SQL source returns
// plain rows and leaves relationship traversal to its caller.
func (q sqlQuery) Related(name string) RowQuery {
	return q.clone()
}

// Run builds and executes the SELECT, returning normalized rows.
func (q sqlQuery) Run(ctx context.Context) ([]types.Row, error) {
	if q.err != nil {
		return nil, q.err
	}

	stmt, args, err := q.buildSelect()
	if err != nil {
		return nil, err
	}

	rows, err := q.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed for %s: %w", q.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for %s: %w", q.table, err)
	}

	var result []types.Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", q.table, err)
		}
		row := make(types.Row, len(columns))
		for i, col := range columns {
			row[col] = types.NormalizeValue(values[i])
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s results: %w", q.table, err)
	}
	return result, nil
}

func (q sqlQuery) buildSelect() (string, []interface{}, error) {
	var b strings.Builder
	var args []interface{}

	b.WriteString("SELECT * FROM ")
	b.WriteString(sqlutil.QuoteIdentifier(q.table))

	if len(q.wheres) > 0 {
		b.WriteString(" WHERE ")
		for i, w := range q.wheres {
			if i > 0 {
				b.WriteString(" AND ")
			}
			column := sqlutil.QuoteIdentifier(w.column)
			if w.op == "in" {
				values, ok := w.value.([]interface{})
				if !ok || len(values) == 0 {
					// IN over nothing matches nothing.
					b.WriteString("1=0")
					continue
				}
				placeholders := make([]string, len(values))
				for j := range placeholders {
					placeholders[j] = "?"
				}
				fmt.Fprintf(&b, "%s IN (%s)", column, strings.Join(placeholders, ", "))
				args = append(args, values...)
				continue
			}
			fmt.Fprintf(&b, "%s %s ?", column, sqlOperators[w.op])
			args = append(args, w.value)
		}
	}

	if len(q.orders) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.orders {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s %s", sqlutil.QuoteIdentifier(o.column), o.direction)
		}
	}

	if q.limit != nil {
		b.WriteString(" LIMIT ?")
		args = append(args, *q.limit)
	}
	if q.offset != nil {
		b.WriteString(" OFFSET ?")
		args = append(args, *q.offset)
	}

	return b.String(), args, nil
}
