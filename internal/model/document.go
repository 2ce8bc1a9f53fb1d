package model

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the on-disk shape of a report. YAML is the native syntax;
// JSON documents decode too because JSON is valid YAML flow syntax.
type document struct {
	Title    string            `yaml:"title"`
	Info     infoList          `yaml:"info"`
	Sections []sectionDocument `yaml:"sections"`
}

type sectionDocument struct {
	Title    string            `yaml:"title"`
	Info     infoList          `yaml:"info"`
	Sections []sectionDocument `yaml:"sections"`
	Table    *tableDocument    `yaml:"table"`
}

type tableDocument struct {
	Columns []string `yaml:"columns"`
	Rows    [][]any  `yaml:"rows"`
	SortBy  any      `yaml:"sort_by"`
}

// infoList accepts either a mapping, whose key order is kept, or a list of
// {key, value} entries, which may repeat keys.
type infoList []Pair

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *infoList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(value.Content); i += 2 {
			var v any
			if err := value.Content[i+1].Decode(&v); err != nil {
				return err
			}
			*l = append(*l, Pair{Key: value.Content[i].Value, Value: normalizeValue(v)})
		}
		return nil
	case yaml.SequenceNode:
		var entries []struct {
			Key   string `yaml:"key"`
			Value any    `yaml:"value"`
		}
		if err := value.Decode(&entries); err != nil {
			return err
		}
		for _, e := range entries {
			*l = append(*l, Pair{Key: e.Key, Value: normalizeValue(e.Value)})
		}
		return nil
	default:
		return fmt.Errorf("line %d: info must be a mapping or a list of key/value entries", value.Line)
	}
}

func (l infoList) header(title string) *Header {
	h := NewHeader(title)
	for _, p := range l {
		h.Add(p.Key, p.Value)
	}
	return h
}

// LoadDocument reads and decodes the report document at path.
func LoadDocument(path string) (*Report, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return DecodeDocument(f)
}

// DecodeDocument decodes a YAML or JSON report document and builds the
// report tree through the regular construction API, so table and section
// validation errors are reported with the path of the offending section.
func DecodeDocument(r io.Reader) (*Report, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDocument)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	rpt := NewReport(doc.Info.header(doc.Title))
	for _, sd := range doc.Sections {
		s, err := sd.build([]string{sd.Title})
		if err != nil {
			return nil, err
		}
		rpt.AddSection(s)
	}
	return rpt, nil
}

func (sd sectionDocument) build(path []string) (*Section, error) {
	fail := func(err error) error {
		return fmt.Errorf("%w: section %q: %w", ErrInvalidDocument, strings.Join(path, " > "), err)
	}

	var body *Table
	if sd.Table != nil {
		t, err := sd.Table.build()
		if err != nil {
			return nil, fail(err)
		}
		body = t
	}

	s := NewSection(sd.Info.header(sd.Title), body)
	for _, child := range sd.Sections {
		cs, err := child.build(append(slices.Clip(path), child.Title))
		if err != nil {
			return nil, err
		}
		if err := s.AddSection(cs); err != nil {
			return nil, fail(err)
		}
	}
	return s, nil
}

func (td tableDocument) build() (*Table, error) {
	t := NewTable(td.Columns...)
	for i, row := range td.Rows {
		for j, v := range row {
			row[j] = normalizeValue(v)
		}
		if err := t.Add(row...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}

	switch key := td.SortBy.(type) {
	case nil:
	case string:
		if err := t.SortBy(key); err != nil {
			return nil, err
		}
	case int:
		if err := t.SortByIndex(key); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("sort_by must be a column name or index, got %v", key)
	}
	return t, nil
}

// normalizeValue rewrites YAML mappings with non-string keys, such as
// {1: a}, into map[string]any so every decoded value can be encoded as JSON.
func normalizeValue(v any) any {
	switch v := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[fmt.Sprint(k)] = normalizeValue(e)
		}
		return m
	case map[string]any:
		for k, e := range v {
			v[k] = normalizeValue(e)
		}
		return v
	case []any:
		for i, e := range v {
			v[i] = normalizeValue(e)
		}
		return v
	default:
		return v
	}
}
