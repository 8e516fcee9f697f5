package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/depscan/pkg/analysis"
	"github.com/Sumatoshi-tech/depscan/pkg/depmodel"
)

const dependenciesHeader = "dependencies:"

// PatchedManifest applies the findings to the manifest text: entries of
// unused dependencies are removed and missing dependencies are appended
// after the last declared entry. Positions come from the declared list.
// The text is returned unchanged when a declared entry cannot be located as
// a block list item, as in flow-style lists.
func PatchedManifest(text string, declared []depmodel.Declared, result *analysis.Result) string {
	lines := splitLines(text)

	for _, d := range declared {
		if _, _, ok := entryRange(lines, d.Position); !ok {
			return text
		}
	}

	removed := make(map[int]bool)

	for _, f := range result.Unused {
		start, end, ok := entryRange(lines, f.Dependency.Position)
		if !ok {
			continue
		}

		for i := start; i <= end; i++ {
			removed[i] = true
		}
	}

	insertAfter, indent := insertionPoint(lines, declared)

	additions := make([]string, 0, len(result.Missing))
	for _, m := range result.Missing {
		additions = append(additions, indent+"- "+strconv.Quote(m.Coordinates()))
	}

	out := make([]string, 0, len(lines)+len(additions)+1)

	if insertAfter < 0 && len(additions) > 0 {
		header := findHeader(lines)
		if header < 0 {
			out = append(out, keep(lines, removed)...)
			out = append(out, dependenciesHeader)

			return joinLines(append(out, additions...))
		}

		// "dependencies:" with no usable entries; rewrite it as a block list.
		lines[header] = dependenciesHeader
		insertAfter = header
	}

	for i, line := range lines {
		if !removed[i] {
			out = append(out, line)
		}

		if i == insertAfter {
			out = append(out, additions...)
		}
	}

	return joinLines(out)
}

// SuggestPatch returns a unified-style line diff between the manifest and
// its patched form, or an empty string when the findings change nothing.
func SuggestPatch(name, text string, declared []depmodel.Declared, result *analysis.Result) string {
	patched := PatchedManifest(text, declared, result)
	if patched == text {
		return ""
	}

	dmp := diffmatchpatch.New()
	src, dst, lineArray := dmp.DiffLinesToRunes(text, patched)
	diffs := dmp.DiffCharsToLines(dmp.DiffMainRunes(src, dst, false), lineArray)

	var sb strings.Builder

	fmt.Fprintf(&sb, "--- %s\n+++ %s (suggested)\n", name, name)

	for _, d := range diffs {
		prefix := " "

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffEqual:
		}

		for line := range strings.Lines(d.Text) {
			sb.WriteString(prefix)
			sb.WriteString(strings.TrimSuffix(line, "\n"))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// entryRange returns the zero-based line range of the block sequence entry
// that starts at pos. The entry line must open with its list dash.
// Continuation lines are indented at least to the entry's content column.
func entryRange(lines []string, pos depmodel.Position) (start, end int, ok bool) {
	start = pos.Line - 1
	if start < 0 || start >= len(lines) || pos.Column < 1 {
		return 0, 0, false
	}

	if !strings.HasPrefix(strings.TrimLeft(lines[start], " \t"), "-") {
		return 0, 0, false
	}

	contentIndent := pos.Column - 1
	end = start

	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" || indentOf(lines[i]) < contentIndent {
			break
		}

		end = i
	}

	return start, end, true
}

// insertionPoint returns the last line of the last declared entry and the
// indentation of its list dash, or -1 when no entry has a position.
func insertionPoint(lines []string, declared []depmodel.Declared) (int, string) {
	after, indent := -1, "  "

	for _, d := range declared {
		start, end, ok := entryRange(lines, d.Position)
		if !ok || end <= after {
			continue
		}

		after = end

		dash := strings.Index(lines[start], "-")
		if dash >= 0 && strings.TrimSpace(lines[start][:dash]) == "" {
			indent = lines[start][:dash]
		}
	}

	return after, indent
}

func findHeader(lines []string) int {
	for i, line := range lines {
		if strings.HasPrefix(line, dependenciesHeader) {
			return i
		}
	}

	return -1
}

func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func keep(lines []string, removed map[int]bool) []string {
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		if !removed[i] {
			out = append(out, line)
		}
	}

	return out
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}

	return strings.Join(lines, "\n") + "\n"
}
