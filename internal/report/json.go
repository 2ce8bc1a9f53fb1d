package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nao1215/vvreport/internal/model"
)

// JSONFormatter renders a report as a JSON document:
//
//	{"title": ..., "info": {...}, "sections": [
//	    {"title": ..., "info": {...}, "conditions": [
//	        {"title": ..., "info": {...}, "violations": [{"col": value, ...}]}]}]}
//
// Children of the report are listed under "sections", children of any
// deeper container under "conditions", and a leaf's table rows under
// "violations". Header info uses the lossy Header.ToMap projection.
//
// Design decision: We use standard encoding/json like the rest of the
// project; the value converter hook covers domain types it cannot encode.
type JSONFormatter struct {
	// indent is the number of spaces per nesting level; 0 means compact.
	indent int

	// convert, when set, is applied to every header and cell value before
	// encoding.
	convert func(any) any
}

// JSONOption configures a JSONFormatter.
type JSONOption func(*JSONFormatter)

// WithJSONIndent sets the indentation width. Zero or negative produces
// compact output.
func WithJSONIndent(n int) JSONOption {
	return func(f *JSONFormatter) {
		f.indent = max(n, 0)
	}
}

// WithValueConverter registers a function that turns values encoding/json
// cannot handle (or should not see verbatim) into encodable ones.
func WithValueConverter(convert func(any) any) JSONOption {
	return func(f *JSONFormatter) {
		f.convert = convert
	}
}

// NewJSONFormatter creates a JSONFormatter indenting by two spaces.
func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{indent: 2}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// MediaType returns "application/json".
func (f *JSONFormatter) MediaType() string {
	return "application/json"
}

// jsonNode is one level of the document. Exactly one of the list fields is
// set, and a set list is always emitted, even when empty.
type jsonNode struct {
	Title      string            `json:"title"`
	Info       map[string]any    `json:"info"`
	Sections   *[]jsonNode       `json:"sections,omitempty"`
	Conditions *[]jsonNode       `json:"conditions,omitempty"`
	Violations *[]map[string]any `json:"violations,omitempty"`
}

// Format renders the report. It fails only when a value cannot be encoded.
func (f *JSONFormatter) Format(rpt *model.Report) (string, error) {
	sections := make([]jsonNode, 0, rpt.Len())
	for s := range rpt.Sections() {
		sections = append(sections, f.section(s))
	}

	root := jsonNode{
		Title:    rpt.Header().Title,
		Info:     f.info(rpt.Header()),
		Sections: &sections,
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if f.indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", f.indent))
	}
	if err := enc.Encode(root); err != nil {
		return "", fmt.Errorf("failed to encode report %q: %w", rpt.Header().Title, err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (f *JSONFormatter) section(s *model.Section) jsonNode {
	n := jsonNode{
		Title: s.Header().Title,
		Info:  f.info(s.Header()),
	}

	switch s.Kind() {
	case model.KindLeaf:
		rows := s.Body().Values()
		for _, row := range rows {
			for k, v := range row {
				row[k] = f.value(v)
			}
		}
		n.Violations = &rows
	case model.KindContainer:
		children := make([]jsonNode, 0, s.Len())
		for child := range s.Sections() {
			children = append(children, f.section(child))
		}
		n.Conditions = &children
	}
	return n
}

func (f *JSONFormatter) info(h *model.Header) map[string]any {
	m := h.ToMap()
	for k, v := range m {
		m[k] = f.value(v)
	}
	return m
}

func (f *JSONFormatter) value(v any) any {
	if f.convert == nil {
		return v
	}
	return f.convert(v)
}
