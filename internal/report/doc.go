// Package report renders model.Report trees.
//
// Every output format implements Formatter:
//   - HTMLFormatter: self-contained HTML page with striped tables
//   - JSONFormatter: nested title/info/sections/conditions/violations document
//   - MarkdownFormatter: Markdown headings with fixed-width text tables
//   - GFMFormatter: GitHub Flavored Markdown tables
//
// New builds a formatter by name, RenderAll renders several formats at once,
// and Query filters a rendered JSON document with a jq expression.
//
// Formatters never modify the report and hold no per-call state, so one
// formatter value can be reused for any number of reports.
package report
