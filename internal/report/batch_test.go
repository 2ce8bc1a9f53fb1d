package report

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/vvreport/internal/model"
)

// failingFormatter always fails, for error propagation tests.
type failingFormatter struct{ err error }

func (f failingFormatter) Format(*model.Report) (string, error) { return "", f.err }
func (f failingFormatter) MediaType() string                    { return "text/plain" }

// TestRenderAll tests concurrent multi-format rendering.
func TestRenderAll(t *testing.T) {
	t.Parallel()

	t.Run("results follow formatter order", func(t *testing.T) {
		t.Parallel()

		rpt := createTestReport(t)
		formatters := []Formatter{
			NewHTMLFormatter(),
			NewJSONFormatter(),
			NewMarkdownFormatter(),
			NewGFMFormatter(),
		}

		docs, err := RenderAll(context.Background(), rpt, formatters, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, f := range formatters {
			want, _ := f.Format(rpt)
			if docs[i] != want {
				t.Errorf("formatter %d: output differs from a direct Format call", i)
			}
		}
	})

	t.Run("first error is returned", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		_, err := RenderAll(context.Background(), createTestReport(t),
			[]Formatter{NewJSONFormatter(), failingFormatter{err: boom}}, 0)
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := RenderAll(ctx, createTestReport(t), []Formatter{NewJSONFormatter()}, 1)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
