package report

import (
	"strings"

	"github.com/nao1215/vvreport/internal/model"
)

// MarkdownFormatter renders a report as plain text with Markdown headings
// and fixed-width tables:
//
//	# Nightly Check #
//
//	Info: run=42
//
//	## DB Consistency ##
//
//	Info: host=db1
//
//	### Orphans ###
//
//	Info:
//
//	Violations:
//
//	    id count
//	    1  5
//
// Each cell is left-aligned and padded to the column's tracked width plus
// one. Info lines use the collapsed header projection, so a repeated key
// shows only its last value.
type MarkdownFormatter struct {
	// indent prefixes every table line.
	indent string
}

// NewMarkdownFormatter creates a MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{indent: "    "}
}

// MediaType returns "text/plain".
func (f *MarkdownFormatter) MediaType() string {
	return "text/plain"
}

// Format renders the report. It never fails.
func (f *MarkdownFormatter) Format(rpt *model.Report) (string, error) {
	lines := []string{
		"# " + rpt.Header().Title + " #\n",
		infoLine(rpt.Header()),
	}

	for s := range rpt.Sections() {
		lines = f.appendSection(lines, s, 1)
	}

	return strings.Join(lines, "\n"), nil
}

func (f *MarkdownFormatter) appendSection(lines []string, s *model.Section, depth int) []string {
	marks := strings.Repeat("#", min(depth+1, 6))
	lines = append(lines,
		"\n"+marks+" "+s.Header().Title+" "+marks+"\n",
		infoLine(s.Header()),
	)

	switch s.Kind() {
	case model.KindLeaf:
		t := s.Body()
		widths := t.ColumnWidths()
		lines = append(lines, "\nViolations:\n", f.indent+fixedWidth(t.ColumnNames(), widths))
		for row := range t.Rows() {
			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = model.FormatValue(v)
			}
			lines = append(lines, f.indent+fixedWidth(cells, widths))
		}
	case model.KindContainer:
		for child := range s.Sections() {
			lines = f.appendSection(lines, child, depth+1)
		}
	}
	return lines
}

// infoLine renders "Info: k=v, k=v".
func infoLine(h *model.Header) string {
	pairs := h.Collapsed()
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.Key + "=" + model.FormatValue(p.Value)
	}
	return "Info: " + strings.Join(parts, ", ")
}

// fixedWidth pads each cell to widths[i]+1 runes and concatenates them.
// Cells longer than their width are kept whole.
func fixedWidth(cells []string, widths []int) string {
	var sb strings.Builder
	for i, c := range cells {
		sb.WriteString(c)
		if pad := widths[i] + 1 - model.DisplayWidth(c); pad > 0 {
			sb.WriteString(strings.Repeat(" ", pad))
		}
	}
	return sb.String()
}
