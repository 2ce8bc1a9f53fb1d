package report

import (
	"io"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/vvreport/internal/model"
)

// GFMFormatter renders a report as GitHub Flavored Markdown.
//
// Unlike MarkdownFormatter it keeps every header pair, including repeated
// keys, by rendering headers as Key/Value tables, and renders leaf bodies as
// GFM tables instead of fixed-width text.
type GFMFormatter struct{}

// NewGFMFormatter creates a GFMFormatter.
func NewGFMFormatter() *GFMFormatter {
	return &GFMFormatter{}
}

// MediaType returns "text/markdown".
func (f *GFMFormatter) MediaType() string {
	return "text/markdown"
}

// Format renders the report. It never fails.
func (f *GFMFormatter) Format(rpt *model.Report) (string, error) {
	md := markdown.NewMarkdown(io.Discard)

	md.H1(rpt.Header().Title)
	md.PlainText("")
	f.writeHeader(md, rpt.Header())

	for s := range rpt.Sections() {
		f.writeSection(md, s, 2)
	}

	return md.String(), nil
}

func (f *GFMFormatter) writeSection(md *markdown.Markdown, s *model.Section, level int) {
	heading(md, level, s.Header().Title)
	md.PlainText("")
	f.writeHeader(md, s.Header())

	switch s.Kind() {
	case model.KindLeaf:
		f.writeTable(md, s.Body())
	case model.KindContainer:
		for child := range s.Sections() {
			f.writeSection(md, child, level+1)
		}
	}
}

// writeHeader writes the header pairs as a table; empty headers are skipped.
func (f *GFMFormatter) writeHeader(md *markdown.Markdown, h *model.Header) {
	if h.Len() == 0 {
		return
	}

	rows := make([][]string, 0, h.Len())
	for key, value := range h.All() {
		rows = append(rows, []string{cell(key), cell(model.FormatValue(value))})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Key", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (f *GFMFormatter) writeTable(md *markdown.Markdown, t *model.Table) {
	if t.NRow() == 0 {
		md.PlainText("No violations.")
		md.PlainText("")
		return
	}

	header := t.ColumnNames()
	for i, name := range header {
		header[i] = cell(name)
	}

	rows := make([][]string, 0, t.NRow())
	for row := range t.Rows() {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = cell(model.FormatValue(v))
		}
		rows = append(rows, cells)
	}

	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")
}

// heading writes a heading at the given level, capped at H6.
func heading(md *markdown.Markdown, level int, text string) {
	switch level {
	case 1:
		md.H1(text)
	case 2:
		md.H2(text)
	case 3:
		md.H3(text)
	case 4:
		md.H4(text)
	case 5:
		md.H5(text)
	default:
		md.H6(text)
	}
}

// cell keeps a value on one table row and out of the column syntax.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
