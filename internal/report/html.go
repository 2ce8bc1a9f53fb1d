package report

import (
	"fmt"
	"html"
	"strings"

	"github.com/nao1215/vvreport/internal/model"
)

// HTMLFormatter renders a report as a self-contained HTML document.
//
// Leaf tables are striped by runs of the id column: consecutive rows with an
// equal id value form one stripe, and the id is printed only on the first
// row of the run. Rows are expected to be grouped by the id column already
// (see model.Table.SortBy); repeats that are not adjacent start new stripes.
type HTMLFormatter struct {
	// sep joins the output lines.
	sep string

	// idColumn is the 0-based column used for striping. An index outside
	// the table disables run collapsing and stripes every row.
	idColumn int

	// css is embedded in a <style> element. Empty omits the element.
	css string

	// raw disables HTML escaping of titles, keys and values.
	raw bool
}

// HTMLOption configures an HTMLFormatter.
type HTMLOption func(*HTMLFormatter)

// WithLineSeparator sets the string placed between output lines.
func WithLineSeparator(sep string) HTMLOption {
	return func(f *HTMLFormatter) {
		f.sep = sep
	}
}

// WithIDColumn sets the column used for row striping.
func WithIDColumn(index int) HTMLOption {
	return func(f *HTMLFormatter) {
		f.idColumn = index
	}
}

// WithCSS replaces the embedded stylesheet. An empty string omits it.
func WithCSS(css string) HTMLOption {
	return func(f *HTMLFormatter) {
		f.css = css
	}
}

// WithRawValues inserts titles, keys and values into the markup without
// escaping them. Only use this for trusted report contents.
func WithRawValues() HTMLOption {
	return func(f *HTMLFormatter) {
		f.raw = true
	}
}

// NewHTMLFormatter creates an HTMLFormatter with DefaultCSS, newline
// separated lines and the first column as id column.
func NewHTMLFormatter(opts ...HTMLOption) *HTMLFormatter {
	f := &HTMLFormatter{
		sep:      "\n",
		idColumn: 0,
		css:      DefaultCSS,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// MediaType returns "text/html".
func (f *HTMLFormatter) MediaType() string {
	return "text/html"
}

// Format renders the report. It never fails.
func (f *HTMLFormatter) Format(rpt *model.Report) (string, error) {
	title := f.text(rpt.Header().Title)

	lines := []string{
		"<!DOCTYPE html>",
		"<html>",
		"<head>",
		"<title>" + title + "</title>",
	}
	if f.css != "" {
		lines = append(lines, "<style>", f.css, "</style>")
	}
	lines = append(lines, "</head>", "<body>", "<h1>"+title+"</h1>")
	lines = f.appendHeader(lines, "rptmeta", rpt.Header())

	for s := range rpt.Sections() {
		lines = f.appendSection(lines, s, 1)
	}

	lines = append(lines, "</body>", "</html>")
	return strings.Join(lines, f.sep), nil
}

func (f *HTMLFormatter) appendSection(lines []string, s *model.Section, depth int) []string {
	level := min(depth+1, 6)
	lines = append(lines, fmt.Sprintf("<h%d>%s</h%d>", level, f.text(s.Header().Title), level))

	class := "subsectmeta"
	if depth == 1 {
		class = "sectmeta"
	}
	lines = f.appendHeader(lines, class, s.Header())

	switch s.Kind() {
	case model.KindLeaf:
		lines = f.appendTable(lines, s.Body())
	case model.KindContainer:
		for child := range s.Sections() {
			lines = f.appendSection(lines, child, depth+1)
		}
	}
	return lines
}

func (f *HTMLFormatter) appendHeader(lines []string, class string, h *model.Header) []string {
	lines = append(lines, fmt.Sprintf(`<dl class="%s">`, class))
	for key, value := range h.All() {
		lines = append(lines, "<dt>"+f.text(key)+"</dt>", "<dd>"+f.value(value)+"</dd>")
	}
	return append(lines, "</dl>")
}

func (f *HTMLFormatter) appendTable(lines []string, t *model.Table) []string {
	lines = append(lines, "<table>", "<tr>")
	for _, name := range t.ColumnNames() {
		lines = append(lines, "<th>"+f.text(name)+"</th>")
	}
	lines = append(lines, "</tr>")

	collapse := f.idColumn >= 0 && f.idColumn < t.NCol()
	var prev any
	hasPrev := false
	stripe := 0

	for row := range t.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = f.value(v)
		}

		if collapse {
			key := row[f.idColumn]
			if hasPrev && model.Compare(key, prev) == 0 {
				cells[f.idColumn] = ""
			} else {
				prev, hasPrev = key, true
				stripe++
			}
		} else {
			stripe++
		}

		class := "odd"
		if stripe%2 == 0 {
			class = "even"
		}
		lines = append(lines, fmt.Sprintf(`<tr class="%s">`, class))
		for _, c := range cells {
			lines = append(lines, "<td>"+c+"</td>")
		}
		lines = append(lines, "</tr>")
	}

	return append(lines, "</table>")
}

func (f *HTMLFormatter) text(s string) string {
	if f.raw {
		return s
	}
	return html.EscapeString(s)
}

func (f *HTMLFormatter) value(v any) string {
	return f.text(model.FormatValue(v))
}
