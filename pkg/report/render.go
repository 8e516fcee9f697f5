// Package report renders analysis results for people (text) and tools
// (JSON, YAML), and previews the manifest edit the findings suggest.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/depscan/pkg/analysis"
	"github.com/Sumatoshi-tech/depscan/pkg/depmodel"
)

// Caveats printed after each section.
const (
	CaveatUnused = "Detection is heuristic: dependencies used only through reflection, " +
		"service loading or re-exporting facades can be reported as unused although " +
		"they are needed at runtime. Check before removing."
	CaveatMissing = "Relying on transitive dependencies makes the build fragile: an upgrade of " +
		"the dependency that pulls them in can drop them. Declaring every directly imported " +
		"dependency keeps the build stable. Versions shown are the resolved versions."
)

// Status messages for empty sections.
const (
	msgNoUnused  = "All declared dependencies appear to be used."
	msgNoMissing = "All directly imported dependencies are declared."
)

const reasonColumnWidth = 48

// Options controls text rendering.
type Options struct {
	Terminal Terminal
	// Summary is an optional line printed under the title, such as source stats.
	Summary string
}

// Render writes the text report for result to w.
func Render(w io.Writer, result *analysis.Result, opts Options) error {
	term := opts.Terminal
	if term.Width <= 0 {
		term.Width = DefaultWidth
	}

	var sb strings.Builder

	sb.WriteString(term.header("DEPENDENCY ANALYSIS",
		fmt.Sprintf("%d unused, %d missing", len(result.Unused), len(result.Missing))))
	sb.WriteString("\n")

	if opts.Summary != "" {
		sb.WriteString(term.dim(opts.Summary))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	renderUnused(&sb, term, result.Unused)
	sb.WriteString("\n")
	renderMissing(&sb, term, result.Missing)
	sb.WriteString(term.dim(term.separator()))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	return nil
}

func renderUnused(sb *strings.Builder, term Terminal, findings []analysis.UnusedFinding) {
	sb.WriteString(term.header("UNUSED DEPENDENCIES", countLabel(len(findings))))
	sb.WriteString("\n")

	if len(findings) == 0 {
		sb.WriteString(term.good(msgNoUnused))
		sb.WriteString("\n")

		return
	}

	tbl := newTable(3)
	tbl.AppendHeader(table.Row{"Dependency", "Declared at", "Reason"})

	for _, f := range findings {
		tbl.AppendRow(table.Row{term.warn(f.Dependency.Coordinates()), location(f.Dependency.Position), f.Reason})
	}

	sb.WriteString(tbl.Render())
	sb.WriteString("\n\nSuggested removals:\n")

	for _, f := range findings {
		fmt.Fprintf(sb, "  %s\n", RemovalDirective(f.Dependency))
	}

	sb.WriteString("\n")
	sb.WriteString(term.dim(CaveatUnused))
	sb.WriteString("\n")
}

func renderMissing(sb *strings.Builder, term Terminal, findings []analysis.MissingFinding) {
	sb.WriteString(term.header("MISSING EXPLICIT DEPENDENCIES", countLabel(len(findings))))
	sb.WriteString("\n")

	if len(findings) == 0 {
		sb.WriteString(term.good(msgNoMissing))
		sb.WriteString("\n")

		return
	}

	tbl := newTable(4)
	tbl.AppendHeader(table.Row{"Dependency", "Used in", "Pulled in by", "Reason"})

	for _, f := range findings {
		tbl.AppendRow(table.Row{term.bad(f.Coordinates()), cell(f.UsedInFiles), cell(f.Via), f.Reason})
	}

	sb.WriteString(tbl.Render())
	sb.WriteString("\n\nSuggested additions:\n")

	for _, f := range findings {
		fmt.Fprintf(sb, "  %s\n", AdditionDirective(f))
	}

	sb.WriteString("\n")
	sb.WriteString(term.dim(CaveatMissing))
	sb.WriteString("\n")
}

func newTable(reasonColumn int) table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: reasonColumn, WidthMax: reasonColumnWidth},
	})

	return tbl
}

// cell stacks values one per line, or shows "-" when there are none.
func cell(values []string) string {
	if len(values) == 0 {
		return "-"
	}

	return strings.Join(values, "\n")
}

func countLabel(n int) string {
	if n == 0 {
		return "none"
	}

	return fmt.Sprintf("%d found", n)
}

func location(p depmodel.Position) string {
	if p.IsZero() {
		return "-"
	}

	if p.File == "" {
		return fmt.Sprintf("line %d", p.Line)
	}

	if p.Line == 0 {
		return p.File
	}

	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// RemovalDirective is the manifest edit suggested for an unused dependency.
func RemovalDirective(d depmodel.Declared) string {
	return "remove: - " + d.Coordinates()
}

// AdditionDirective is the manifest edit suggested for a missing dependency.
func AdditionDirective(m analysis.MissingFinding) string {
	return "add:    - " + m.Coordinates()
}
