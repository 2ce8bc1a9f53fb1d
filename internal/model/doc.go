// Package model defines the report tree rendered by vvreport.
//
// A Report is a Header plus an ordered list of Sections. A Section is either
// a container of further sections or a leaf with a body Table:
//
//	Report "Nightly Check"
//	└── Section "DB Consistency"          (container)
//	    └── Section "Orphans"             (leaf, Table id|count)
//
// The tree only grows: headers, sections and rows are appended and never
// removed. Validation happens during construction (row arity, sort column,
// mixed section shapes); formatters can therefore assume a well-formed tree.
//
// Report documents in YAML or JSON are decoded with DecodeDocument and
// LoadDocument.
package model
