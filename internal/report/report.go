// Package report renders discovery, validation, and schema analysis results
// as aligned plain-text tables for the CLI.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/polytrack/internal/discovery"
	"github.com/dbsmedya/polytrack/internal/tracker"
)

// renderTable aligns rows under headers using display width, so wide runes
// in table or model names do not break the layout.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && runewidth.StringWidth(cell) > widths[i] {
				widths[i] = runewidth.StringWidth(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			b.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
		}
		b.WriteString("\n")
	}

	writeRow(headers)
	separators := make([]string, len(headers))
	for i := range headers {
		separators[i] = strings.Repeat("-", widths[i])
	}
	writeRow(separators)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

func confidenceLabel(c discovery.Confidence) string {
	switch c {
	case discovery.ConfidenceHigh:
		return color.Green.Sprint("high")
	case discovery.ConfidenceMedium:
		return color.Yellow.Sprint("medium")
	default:
		return color.Red.Sprint("low")
	}
}

// RenderDiscovery formats discovery results, one section per detected type.
func RenderDiscovery(results []discovery.Result) string {
	if len(results) == 0 {
		return "No polymorphic type candidates found.\n"
	}

	var b strings.Builder
	for _, result := range results {
		fmt.Fprintf(&b, "%s  (confidence: %s)\n",
			color.Bold.Sprint(result.Type), confidenceLabel(result.Metadata.Confidence))
		fmt.Fprintf(&b, "  owner tables: %s\n", strings.Join(result.Owners, ", "))

		if len(result.Targets) == 0 {
			b.WriteString("  no target candidates\n\n")
			continue
		}
		rows := make([][]string, 0, len(result.Targets))
		for _, target := range result.Targets {
			rows = append(rows, []string{target.TableName, target.ModelName, string(target.Source)})
		}
		for _, line := range strings.Split(strings.TrimRight(renderTable(
			[]string{"TABLE", "MODEL", "SOURCE"}, rows), "\n"), "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// RenderValidation formats a tracker validation report.
func RenderValidation(report *tracker.ValidationReport) string {
	var b strings.Builder
	if report.Valid {
		fmt.Fprintf(&b, "%s  (%d targets checked)\n",
			color.Green.Sprint("configuration valid"), report.TotalChecked)
		return b.String()
	}

	fmt.Fprintf(&b, "%s  (%d targets checked, %d errors)\n",
		color.Red.Sprint("configuration invalid"), report.TotalChecked, len(report.Errors))
	for _, issue := range report.Errors {
		location := issue.Type
		if issue.Table != "" {
			location = issue.Type + "/" + issue.Table
		}
		fmt.Fprintf(&b, "  - [%s] %s\n", location, issue.Message)
	}
	return b.String()
}

// RenderTargets formats the target table of one association.
func RenderTargets(assoc *tracker.AssociationConfig) string {
	if assoc == nil {
		return "unknown polymorphic type\n"
	}
	if len(assoc.ValidTargets) == 0 {
		return fmt.Sprintf("%s: no targets tracked\n", assoc.Type)
	}

	tables := make([]string, 0, len(assoc.ValidTargets))
	for table := range assoc.ValidTargets {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	rows := make([][]string, 0, len(tables))
	for _, table := range tables {
		meta := assoc.ValidTargets[table]
		state := color.Green.Sprint("active")
		if !meta.Active {
			state = color.Gray.Sprint("inactive")
		}
		rows = append(rows, []string{
			table,
			meta.ModelName,
			state,
			string(meta.Source),
			meta.LastVerifiedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return renderTable([]string{"TABLE", "MODEL", "STATE", "SOURCE", "LAST VERIFIED"}, rows)
}

// RenderAnalysis formats schema analysis and complexity metrics.
func RenderAnalysis(analysis *discovery.SchemaAnalysis, metrics *discovery.ComplexityMetrics) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tables:             %d\n", analysis.Tables)
	fmt.Fprintf(&b, "Columns:            %d\n", analysis.Columns)
	fmt.Fprintf(&b, "Foreign keys:       %d\n", analysis.ForeignKeys)
	fmt.Fprintf(&b, "Polymorphic pairs:  %d\n", analysis.PolymorphicPairs)
	if len(analysis.OwnerTables) > 0 {
		fmt.Fprintf(&b, "Owner tables:       %s\n", strings.Join(analysis.OwnerTables, ", "))
	}
	if metrics != nil {
		fmt.Fprintf(&b, "Avg columns/table:  %.2f\n", metrics.AvgColumnsPerTable)
		fmt.Fprintf(&b, "FK density:         %.2f\n", metrics.ForeignKeyDensity)
		fmt.Fprintf(&b, "Polymorphic ratio:  %.2f\n", metrics.PolymorphicRatio)
	}
	return b.String()
}
