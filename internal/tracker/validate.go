package tracker

import (
	"context"
	"fmt"
)

// ValidationIssue describes one problem found in the config document.
type ValidationIssue struct {
	Type    string `json:"type"`
	Table   string `json:"table,omitempty"`
	Message string `json:"message"`
}

// ValidationReport is the result of a full config scan.
type ValidationReport struct {
	Valid        bool              `json:"valid"`
	Errors       []ValidationIssue `json:"errors"`
	TotalChecked int               `json:"total_checked"`
}

// Validate scans every association and target entry for incomplete metadata.
// Entries with an empty model or table name are tolerated at write time and
// reported here.
func (t *Tracker) Validate() *ValidationReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	report := &ValidationReport{
		Valid:  true,
		Errors: []ValidationIssue{},
	}
	if !t.initialized {
		report.Valid = false
		report.Errors = append(report.Errors, ValidationIssue{
			Message: ErrNotInitialized.Error(),
		})
		return report
	}

	for typ, assoc := range t.cfg.Associations {
		if assoc.Type != typ {
			report.Errors = append(report.Errors, ValidationIssue{
				Type:    typ,
				Message: fmt.Sprintf("association key %q does not match its type field %q", typ, assoc.Type),
			})
		}
		for table, meta := range assoc.ValidTargets {
			report.TotalChecked++
			if meta.ModelName == "" {
				report.Errors = append(report.Errors, ValidationIssue{
					Type:    typ,
					Table:   table,
					Message: fmt.Sprintf("target %q has an empty model name", table),
				})
			}
			if meta.TableName == "" {
				report.Errors = append(report.Errors, ValidationIssue{
					Type:    typ,
					Table:   table,
					Message: fmt.Sprintf("target %q has an empty table name", table),
				})
			} else if meta.TableName != table {
				report.Errors = append(report.Errors, ValidationIssue{
					Type:    typ,
					Table:   table,
					Message: fmt.Sprintf("target key %q does not match its table name %q", table, meta.TableName),
				})
			}
		}
	}

	report.Valid = len(report.Errors) == 0
	return report
}

// SetTargetMetadata overwrites a single target entry verbatim. It exists for
// callers that need to record incomplete entries (empty model names) which
// AddTarget would normalize; Validate flags such entries.
func (t *Tracker) SetTargetMetadata(ctx context.Context, typ, tableName string, meta TargetMetadata) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized {
		return ErrNotInitialized
	}

	assoc, ok := t.cfg.Associations[typ]
	if !ok {
		assoc = &AssociationConfig{
			Type:         typ,
			ValidTargets: make(map[string]*TargetMetadata),
		}
		t.cfg.Associations[typ] = assoc
	}
	copied := meta
	assoc.ValidTargets[tableName] = &copied
	return t.persistLocked(ctx)
}
