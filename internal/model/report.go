package model

import (
	"fmt"
	"iter"
)

// Kind tells the formatters how to render a section.
type Kind int

const (
	// KindContainer is a section that groups child sections and has no body.
	KindContainer Kind = iota

	// KindLeaf is a section whose content is a body table.
	KindLeaf
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindContainer:
		return "container"
	case KindLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// node holds what reports and sections have in common.
type node struct {
	header   *Header
	sections []*Section
}

func newNode(header *Header) node {
	if header == nil {
		header = NewHeader("")
	}
	return node{header: header}
}

// Header returns the node's header.
func (n *node) Header() *Header {
	return n.header
}

// IsEmpty reports whether no sections have been added.
func (n *node) IsEmpty() bool {
	return len(n.sections) == 0
}

// Len returns the number of child sections.
func (n *node) Len() int {
	return len(n.sections)
}

// Sections yields the child sections in insertion order.
func (n *node) Sections() iter.Seq[*Section] {
	return func(yield func(*Section) bool) {
		for _, s := range n.sections {
			if !yield(s) {
				return
			}
		}
	}
}

// Report is the root of a report tree: a header and an ordered list of
// sections. Sections are never removed.
type Report struct {
	node
}

// NewReport creates an empty report. A nil header is replaced by an empty
// untitled one.
func NewReport(header *Header) *Report {
	return &Report{node: newNode(header)}
}

// AddSection appends a section. Insertion order is display order.
func (r *Report) AddSection(s *Section) {
	r.sections = append(r.sections, s)
}

// Section is a node below the report. It is either a container of child
// sections or a leaf carrying a body table, never both.
type Section struct {
	node
	body *Table
}

// NewSection creates a section. A non-nil body makes it a leaf.
func NewSection(header *Header, body *Table) *Section {
	return &Section{node: newNode(header), body: body}
}

// Body returns the section's table, or nil for a container.
func (s *Section) Body() *Table {
	return s.body
}

// Kind reports whether the section is a leaf or a container.
func (s *Section) Kind() Kind {
	if s.body != nil {
		return KindLeaf
	}
	return KindContainer
}

// AddSection appends a child section. Leaves cannot have children and
// return ErrMixedSection.
func (s *Section) AddSection(child *Section) error {
	if s.body != nil {
		return fmt.Errorf("%w: %q", ErrMixedSection, s.header.Title)
	}
	s.sections = append(s.sections, child)
	return nil
}
