package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbsmedya/polytrack/internal/tracker"
	"github.com/dbsmedya/polytrack/internal/types"
)

// ValidationError reports a target-type filter outside the tracker's current
// valid-target set. It is raised before any collaborator call is made.
type ValidationError struct {
	TargetType string
	Types      []string
	Valid      []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("target type %q is not a valid target for polymorphic type(s) %s (valid: %s)",
		e.TargetType,
		strings.Join(e.Types, ", "),
		strings.Join(e.Valid, ", "))
}

// EagerOptions narrows and refines polymorphic target loading.
type EagerOptions struct {
	// TargetTypes restricts loading to the named target models.
	TargetTypes []string
	// TargetCallback refines each follow-up target query before it runs.
	TargetCallback func(RowQuery) RowQuery
}

type whereCond struct {
	column string
	op     string
	value  interface{}
}

type orderCond struct {
	column    string
	direction string
}

type eagerSpec struct {
	targetTypes []string
	callback    func(RowQuery) RowQuery
}

// conditions is the immutable value object carried by each query instance.
type conditions struct {
	polymorphicTypes []string
	targetTypes      []string
	targetIDs        []interface{}
	wheres           []whereCond
	orders           []orderCond
	limit            *int
	offset           *int
	eager            *eagerSpec
}

// clone deep-copies the condition set so derived queries cannot leak filters
// into the receiver.
func (c conditions) clone() conditions {
	out := conditions{
		polymorphicTypes: append([]string(nil), c.polymorphicTypes...),
		targetTypes:      append([]string(nil), c.targetTypes...),
		targetIDs:        append([]interface{}(nil), c.targetIDs...),
		wheres:           append([]whereCond(nil), c.wheres...),
		orders:           append([]orderCond(nil), c.orders...),
	}
	if c.limit != nil {
		n := *c.limit
		out.limit = &n
	}
	if c.offset != nil {
		n := *c.offset
		out.offset = &n
	}
	if c.eager != nil {
		out.eager = &eagerSpec{
			targetTypes: append([]string(nil), c.eager.targetTypes...),
			callback:    c.eager.callback,
		}
	}
	return out
}

// ChainableQuery filters and eager-loads polymorphic rows. Every chain
// method returns a new instance with the merged condition set; the receiver
// is never modified, so branching a query cannot leak filters between
// branches.
type ChainableQuery struct {
	tracker *tracker.Tracker
	source  RowSource
	table   string
	cond    conditions
}

// New creates a query over the given owner table.
func New(t *tracker.Tracker, source RowSource, table string) *ChainableQuery {
	return &ChainableQuery{
		tracker: t,
		source:  source,
		table:   table,
	}
}

func (q *ChainableQuery) derive() *ChainableQuery {
	return &ChainableQuery{
		tracker: q.tracker,
		source:  q.source,
		table:   q.table,
		cond:    q.cond.clone(),
	}
}

// ForPolymorphicType binds one or more polymorphic types. The bound types
// determine which {type}_id/{type}_type column pairs the target filters
// apply to.
func (q *ChainableQuery) ForPolymorphicType(typs ...string) *ChainableQuery {
	next := q.derive()
	next.cond.polymorphicTypes = append(next.cond.polymorphicTypes, typs...)
	return next
}

// ForTargetType filters rows by target model name(s).
func (q *ChainableQuery) ForTargetType(names ...string) *ChainableQuery {
	next := q.derive()
	next.cond.targetTypes = append(next.cond.targetTypes, names...)
	return next
}

// ForTargetID filters rows by target id(s).
func (q *ChainableQuery) ForTargetID(ids ...interface{}) *ChainableQuery {
	next := q.derive()
	next.cond.targetIDs = append(next.cond.targetIDs, ids...)
	return next
}

// IncludePolymorphicTargets marks eager loading. At execution time one
// follow-up query is issued per distinct target type actually present in the
// result set, not per possible target.
func (q *ChainableQuery) IncludePolymorphicTargets(opts *EagerOptions) *ChainableQuery {
	next := q.derive()
	spec := &eagerSpec{}
	if opts != nil {
		spec.targetTypes = append(spec.targetTypes, opts.TargetTypes...)
		spec.callback = opts.TargetCallback
	}
	next.cond.eager = spec
	return next
}

// Where adds an ordinary column condition.
func (q *ChainableQuery) Where(column, op string, value interface{}) *ChainableQuery {
	next := q.derive()
	next.cond.wheres = append(next.cond.wheres, whereCond{column: column, op: op, value: value})
	return next
}

// OrderBy adds an ordering clause.
func (q *ChainableQuery) OrderBy(column, direction string) *ChainableQuery {
	next := q.derive()
	next.cond.orders = append(next.cond.orders, orderCond{column: column, direction: direction})
	return next
}

// Limit caps the number of returned rows.
func (q *ChainableQuery) Limit(n int) *ChainableQuery {
	next := q.derive()
	next.cond.limit = &n
	return next
}

// Offset skips the first n rows.
func (q *ChainableQuery) Offset(n int) *ChainableQuery {
	next := q.derive()
	next.cond.offset = &n
	return next
}

// validate gates query building on tracker state: every target-type filter
// must be a currently valid target (by model name, with table-name fallback)
// of at least one bound polymorphic type.
func (q *ChainableQuery) validate() error {
	if len(q.cond.targetTypes) == 0 {
		return nil
	}
	if len(q.cond.polymorphicTypes) == 0 {
		return fmt.Errorf("target type filter requires a bound polymorphic type")
	}

	valid := make(map[string]bool)
	var validList []string
	for _, typ := range q.cond.polymorphicTypes {
		for _, model := range q.tracker.ValidTargetModels(typ, false) {
			if !valid[model] {
				valid[model] = true
				validList = append(validList, model)
			}
		}
		for _, table := range q.tracker.ValidTargets(typ, false) {
			valid[table] = true
		}
	}

	for _, name := range q.cond.targetTypes {
		if !valid[name] {
			return &ValidationError{
				TargetType: name,
				Types:      append([]string(nil), q.cond.polymorphicTypes...),
				Valid:      validList,
			}
		}
	}
	return nil
}

// build translates the condition set into collaborator calls.
func (q *ChainableQuery) build(withPaging bool) RowQuery {
	rq := q.source.Query(q.table)

	for _, typ := range q.cond.polymorphicTypes {
		if len(q.cond.targetTypes) > 0 {
			rq = whereOneOrMany(rq, typ+"_type", stringsToValues(q.cond.targetTypes))
		}
		if len(q.cond.targetIDs) > 0 {
			rq = whereOneOrMany(rq, typ+"_id", q.cond.targetIDs)
		}
	}
	for _, w := range q.cond.wheres {
		rq = rq.Where(w.column, w.op, w.value)
	}
	for _, o := range q.cond.orders {
		rq = rq.OrderBy(o.column, o.direction)
	}
	if withPaging {
		if q.cond.limit != nil {
			rq = rq.Limit(*q.cond.limit)
		}
		if q.cond.offset != nil {
			rq = rq.Offset(*q.cond.offset)
		}
	}
	return rq
}

func whereOneOrMany(rq RowQuery, column string, values []interface{}) RowQuery {
	if len(values) == 1 {
		return rq.Where(column, "=", values[0])
	}
	return rq.Where(column, "in", values)
}

func stringsToValues(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// All executes the query and returns the matching rows, possibly empty.
// Execution failures propagate.
func (q *ChainableQuery) All(ctx context.Context) ([]types.Row, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	rows, err := q.build(true).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	for i := range rows {
		rows[i].Normalize()
	}

	if q.cond.eager != nil {
		if err := q.loadTargets(ctx, rows); err != nil {
			return nil, err
		}
	}
	return rows, nil
}

// First returns the first matching row, or nil when there is none.
func (q *ChainableQuery) First(ctx context.Context) (types.Row, error) {
	rows, err := q.Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// Count returns the number of matching rows, ignoring limit and offset.
func (q *ChainableQuery) Count(ctx context.Context) (int, error) {
	if err := q.validate(); err != nil {
		return 0, err
	}
	rows, err := q.build(false).Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("query execution failed: %w", err)
	}
	return len(rows), nil
}

// Exists reports whether any row matches. Execution failures are swallowed
// and reported as false; exists-checks are advisory.
func (q *ChainableQuery) Exists(ctx context.Context) bool {
	if err := q.validate(); err != nil {
		return false
	}
	rows, err := q.Limit(1).build(true).Run(ctx)
	if err != nil {
		return false
	}
	return len(rows) > 0
}

// Page is one page of results with pagination bookkeeping.
type Page struct {
	Data       []types.Row `json:"data"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	Total      int         `json:"total"`
	TotalPages int         `json:"total_pages"`
}

// Paginate returns the requested page (1-based) of results.
func (q *ChainableQuery) Paginate(ctx context.Context, page, perPage int) (*Page, error) {
	if page < 1 {
		return nil, fmt.Errorf("page must be >= 1, got %d", page)
	}
	if perPage < 1 {
		return nil, fmt.Errorf("perPage must be >= 1, got %d", perPage)
	}

	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}

	data, err := q.Limit(perPage).Offset((page - 1) * perPage).All(ctx)
	if err != nil {
		return nil, err
	}

	totalPages := (total + perPage - 1) / perPage
	return &Page{
		Data:       data,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// loadTargets issues one follow-up query per distinct target type present in
// rows, attaching each resolved target under the polymorphic type name key.
func (q *ChainableQuery) loadTargets(ctx context.Context, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}

	narrowed := make(map[string]bool)
	for _, name := range q.cond.eager.targetTypes {
		narrowed[name] = true
	}

	for _, typ := range q.cond.polymorphicTypes {
		typeField := typ + "_type"
		idField := typ + "_id"

		for _, model := range types.DistinctStrings(rows, typeField) {
			if len(narrowed) > 0 && !narrowed[model] {
				continue
			}

			tableName := q.targetTable(typ, model)
			if tableName == "" {
				return &ValidationError{
					TargetType: model,
					Types:      []string{typ},
					Valid:      q.tracker.ValidTargetModels(typ, false),
				}
			}

			var ids []interface{}
			for _, row := range rows {
				if types.ToString(row[typeField]) == model && row[idField] != nil {
					ids = append(ids, row[idField])
				}
			}
			if len(ids) == 0 {
				continue
			}

			tq := q.source.Query(tableName).Where("id", "in", ids)
			if q.cond.eager.callback != nil {
				tq = q.cond.eager.callback(tq)
			}
			targets, err := tq.Run(ctx)
			if err != nil {
				return fmt.Errorf("failed to load %s targets: %w", model, err)
			}

			byID := make(map[string]types.Row, len(targets))
			for _, target := range targets {
				target.Normalize()
				byID[types.ToString(target["id"])] = target
			}
			for _, row := range rows {
				if types.ToString(row[typeField]) != model {
					continue
				}
				if target, ok := byID[types.ToString(row[idField])]; ok {
					row[typ] = target
				}
			}
		}
	}
	return nil
}

// targetTable resolves a target model name to its table via tracker
// metadata. Targets are assumed to use an "id" primary key.
func (q *ChainableQuery) targetTable(typ, model string) string {
	assoc := q.tracker.AssociationConfig(typ)
	if assoc == nil {
		return ""
	}
	for _, meta := range assoc.ValidTargets {
		if meta.Active && meta.ModelName == model {
			return meta.TableName
		}
	}
	return ""
}
