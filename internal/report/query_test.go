package report

import (
	"strings"
	"testing"
)

// TestQuery tests jq filtering of rendered JSON documents.
func TestQuery(t *testing.T) {
	t.Parallel()

	doc, err := NewJSONFormatter().Format(createTestReport(t))
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}

	tests := []struct {
		name string
		expr string
		want string
	}{
		{name: "scalar", expr: ".title", want: `"Nightly Check"`},
		{name: "stream", expr: ".sections[].conditions[].violations[].count", want: "5\n3\n1"},
		{name: "object", expr: ".sections[0].info", want: `{"host":"db1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Query(doc, tt.expr, 0)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("indented output", func(t *testing.T) {
		t.Parallel()
		got, err := Query(doc, ".sections[0].info", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "{\n  \"host\": \"db1\"\n}" {
			t.Errorf("unexpected output %q", got)
		}
	})

	t.Run("invalid expression", func(t *testing.T) {
		t.Parallel()
		if _, err := Query(doc, ".[", 0); err == nil || !strings.Contains(err.Error(), "invalid query") {
			t.Errorf("expected invalid query error, got %v", err)
		}
	})

	t.Run("runtime error", func(t *testing.T) {
		t.Parallel()
		if _, err := Query(doc, ".title | keys", 0); err == nil {
			t.Error("expected query error")
		}
	})

	t.Run("non JSON input", func(t *testing.T) {
		t.Parallel()
		if _, err := Query("# not json", ".", 0); err == nil {
			t.Error("expected error for non-JSON input")
		}
	})
}
