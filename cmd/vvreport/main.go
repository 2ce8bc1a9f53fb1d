// Package main provides the entry point for the vvreport CLI.
//
// vvreport renders validation report documents (YAML or JSON) as HTML,
// JSON, fixed-width text or GitHub-flavored Markdown, optionally mails the
// result and archives every rendering.
//
// Usage:
//
//	vvreport render report.yaml
//	vvreport render --format json --format markdown --output-dir out report.yaml
//	vvreport render --send --to ops@example.com report.yaml
//
// See --help for all available options.
package main

func main() {
	Execute()
}
