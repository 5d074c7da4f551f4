// Package discovery proposes polymorphic types and targets from a live
// schema by scanning for the {stem}_id / {stem}_type column-pair convention.
package discovery

import "strings"

const (
	idSuffix   = "_id"
	typeSuffix = "_type"
)

// SplitColumnPair strips the _id/_type suffixes from a column pair and
// returns the shared stem. It returns "" when either name is empty, either
// suffix is missing, or the stems differ. It never panics on malformed input.
func SplitColumnPair(idColumn, typeColumn string) string {
	if idColumn == "" || typeColumn == "" {
		return ""
	}
	if !strings.HasSuffix(idColumn, idSuffix) || !strings.HasSuffix(typeColumn, typeSuffix) {
		return ""
	}
	idStem := strings.TrimSuffix(idColumn, idSuffix)
	typeStem := strings.TrimSuffix(typeColumn, typeSuffix)
	if idStem == "" || idStem != typeStem {
		return ""
	}
	return idStem
}

// GenerateModelName synthesizes a model name from a table name: underscore
// segments are PascalCased and a single trailing "s" is stripped from the
// final segment only.
//
//	scheduled_date_times -> ScheduledDateTime
//	people_groups        -> PeopleGroup
//
// Irregular plurals ("people" -> "Person") are not handled; callers confirm
// targets with an explicit model name when the heuristic falls short.
func GenerateModelName(tableName string) string {
	if tableName == "" {
		return ""
	}
	segments := strings.Split(tableName, "_")
	var b strings.Builder
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if i == len(segments)-1 && len(seg) > 1 && strings.HasSuffix(seg, "s") {
			seg = seg[:len(seg)-1]
		}
		b.WriteString(strings.ToUpper(seg[:1]))
		b.WriteString(seg[1:])
	}
	return b.String()
}

// CamelCase converts a snake_case name into camelCase, the naming convention
// the relationship layer expects.
//
//	activity_logs -> activityLogs
func CamelCase(name string) string {
	segments := strings.Split(name, "_")
	var b strings.Builder
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if b.Len() == 0 && i == 0 {
			b.WriteString(seg)
			continue
		}
		b.WriteString(strings.ToUpper(seg[:1]))
		b.WriteString(seg[1:])
	}
	return b.String()
}

// naivePlural appends an "s", mirroring the inverse of GenerateModelName's
// trailing-s strip.
func naivePlural(stem string) string {
	if stem == "" {
		return ""
	}
	return stem + "s"
}
