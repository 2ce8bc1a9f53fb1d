package report

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/nao1215/vvreport/internal/model"
)

// Formatter renders a complete report tree to a document string.
//
// Implementations only read the tree, visit it in a single pass and follow
// its actual nesting depth. Rendering the same unchanged report twice yields
// the same document.
type Formatter interface {
	// Format renders rpt. An error is only returned when a value cannot be
	// encoded in the target format; tree shape never causes one.
	Format(rpt *model.Report) (string, error)

	// MediaType is the "main/sub" type of the rendered document, suitable
	// for notify.Notifier.Send.
	MediaType() string
}

// Format names accepted by New.
const (
	FormatHTML     = "html"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "text"
	FormatGFM      = "gfm"
)

// ErrUnknownFormat is returned by New for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// Options holds the settings New passes on to the formatter it builds.
// Settings that do not apply to the chosen format are ignored.
type Options struct {
	// IDColumn is the HTML striping column.
	IDColumn int

	// CSS is the HTML stylesheet; empty omits it.
	CSS string

	// RawHTML disables HTML escaping.
	RawHTML bool

	// LineSeparator joins HTML lines.
	LineSeparator string

	// Indent is the JSON indentation width; 0 is compact.
	Indent int
}

// DefaultOptions returns the options each formatter uses by default.
func DefaultOptions() Options {
	return Options{
		IDColumn:      0,
		CSS:           DefaultCSS,
		LineSeparator: "\n",
		Indent:        2,
	}
}

// New returns the formatter registered under name (case-insensitive).
func New(name string, opts Options) (Formatter, error) {
	switch strings.ToLower(name) {
	case FormatHTML:
		htmlOpts := []HTMLOption{
			WithIDColumn(opts.IDColumn),
			WithCSS(opts.CSS),
			WithLineSeparator(opts.LineSeparator),
		}
		if opts.RawHTML {
			htmlOpts = append(htmlOpts, WithRawValues())
		}
		return NewHTMLFormatter(htmlOpts...), nil
	case FormatJSON:
		return NewJSONFormatter(WithJSONIndent(opts.Indent)), nil
	case FormatMarkdown, FormatText:
		return NewMarkdownFormatter(), nil
	case FormatGFM:
		return NewGFMFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, name, strings.Join(Names(), ", "))
	}
}

// Names returns the supported format names in sorted order.
func Names() []string {
	names := []string{FormatHTML, FormatJSON, FormatMarkdown, FormatText, FormatGFM}
	slices.Sort(names)
	return names
}

// Extension returns the file extension conventionally used for a format.
func Extension(name string) string {
	switch strings.ToLower(name) {
	case FormatHTML:
		return ".html"
	case FormatJSON:
		return ".json"
	case FormatMarkdown, FormatGFM:
		return ".md"
	default:
		return ".txt"
	}
}

// Write renders rpt with f and writes the document followed by a newline.
// It returns the number of bytes written.
func Write(w io.Writer, f Formatter, rpt *model.Report) (int, error) {
	doc, err := f.Format(rpt)
	if err != nil {
		return 0, err
	}
	if !strings.HasSuffix(doc, "\n") {
		doc += "\n"
	}
	return io.WriteString(w, doc)
}
