package model

import "errors"

// Construction errors. They are returned at the point of misuse and are
// usually wrapped with the offending values, so compare with errors.Is.
var (
	// ErrRowLength is returned by Table.Add when the number of values does
	// not match the number of columns.
	ErrRowLength = errors.New("row length does not match column count")

	// ErrUnknownColumn is returned by Table.SortBy for a column name that
	// is not part of the table.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrColumnRange is returned by Table.SortByIndex for an index outside
	// the table's columns.
	ErrColumnRange = errors.New("column index out of range")

	// ErrMixedSection is returned when a section would hold both a body
	// table and child sections.
	ErrMixedSection = errors.New("section cannot have both a body and child sections")

	// ErrInvalidDocument is returned when a report document cannot be
	// turned into a report tree.
	ErrInvalidDocument = errors.New("invalid report document")
)
