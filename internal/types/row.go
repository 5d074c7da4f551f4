// Package types contains shared types used across multiple packages to avoid import cycles.
package types

// Row represents a single result row as a column name -> value map.
// Values are normalized driver values (see NormalizeValue).
type Row map[string]interface{}

// NormalizeValue converts raw driver values into a canonical form.
// The MySQL driver returns []byte for string columns; convert to string
// so callers can compare values without type assertions on byte slices.
func NormalizeValue(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// Normalize returns the row with all values passed through NormalizeValue.
// The receiver is modified in place and returned for convenience.
func (r Row) Normalize() Row {
	for k, v := range r {
		r[k] = NormalizeValue(v)
	}
	return r
}

// Pluck extracts the named column from each row, skipping rows where the
// column is absent or nil.
func Pluck(rows []Row, column string) []interface{} {
	values := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[column]; ok && v != nil {
			values = append(values, v)
		}
	}
	return values
}

// DistinctStrings returns the distinct non-empty string values of the named
// column, in first-seen order.
func DistinctStrings(rows []Row, column string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		s := ToString(row[column])
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
