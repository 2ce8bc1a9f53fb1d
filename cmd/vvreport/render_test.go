package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/vvreport/internal/config"
	"github.com/nao1215/vvreport/internal/report"
)

const nightlyDocument = `title: Nightly Check
info:
  run: 42
sections:
  - title: DB Consistency
    info:
      host: db1
    sections:
      - title: Orphans
        table:
          columns: [id, count]
          rows:
            - [1, 5]
            - [2, 1]
            - [1, 3]
          sort_by: id
`

const nightlyMarkdown = `# Nightly Check #

Info: run=42

## DB Consistency ##

Info: host=db1

### Orphans ###

Info: 

Violations:

    id count 
    1  5     
    1  3     
    2  1     
`

// writeDocument writes the nightly report document into a temp dir.
func writeDocument(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nightly.yaml")
	if err := os.WriteFile(path, []byte(nightlyDocument), 0600); err != nil {
		t.Fatalf("failed to write document: %v", err)
	}
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// postmarkStub counts messages sent to a fake Postmark API.
type postmarkStub struct {
	mu        sync.Mutex
	errorCode int
	bodies    []map[string]any
}

func newPostmarkStub(t *testing.T, errorCode int) (*postmarkStub, *httptest.Server) {
	t.Helper()

	stub := &postmarkStub{errorCode: errorCode}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		stub.mu.Lock()
		stub.bodies = append(stub.bodies, body)
		stub.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"To":          body["To"],
			"SubmittedAt": "2024-05-01T12:00:00Z",
			"MessageID":   "0a129aee-e1cd-480d-b08d-4f48548ff48d",
			"ErrorCode":   stub.errorCode,
			"Message":     "OK",
		})
	}))
	t.Cleanup(srv.Close)
	return stub, srv
}

func (s *postmarkStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

// writePostmarkConfig writes a config file and a dotenv file that route
// delivery to the stub.
func writePostmarkConfig(t *testing.T, baseURL string) (configPath, envPath string) {
	t.Helper()

	dir := t.TempDir()
	configPath = filepath.Join(dir, config.DefaultConfigFile)
	content := `notify:
  sender: reports@example.com
  recipients: [ops@example.com]
  transport: postmark
  postmark:
    base_url: ` + baseURL + `
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	envPath = filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("VVREPORT_POSTMARK_SERVER_TOKEN=server-token\n"), 0600); err != nil {
		t.Fatal(err)
	}
	return configPath, envPath
}

func TestRenderCmd_Stdout(t *testing.T) {
	t.Parallel()

	doc := writeDocument(t)

	t.Run("markdown", func(t *testing.T) {
		t.Parallel()

		out, _, err := execute(t, "", "render", "-f", "markdown", doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != nightlyMarkdown {
			t.Errorf("unexpected output:\n%q\nwant:\n%q", out, nightlyMarkdown)
		}
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		out, _, err := execute(t, "", "render", "-f", "json", "--indent", "0", doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got map[string]any
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, out)
		}
		if got["title"] != "Nightly Check" {
			t.Errorf("unexpected title %v", got["title"])
		}
		if strings.Count(strings.TrimSpace(out), "\n") != 0 {
			t.Errorf("expected compact JSON, got %q", out)
		}
	})

	t.Run("html by default", func(t *testing.T) {
		t.Parallel()

		out, _, err := execute(t, "", "render", doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(out, "<!DOCTYPE html>") || !strings.Contains(out, "<title>Nightly Check</title>") {
			t.Errorf("unexpected HTML output:\n%s", out)
		}
	})

	t.Run("stdin", func(t *testing.T) {
		t.Parallel()

		out, _, err := execute(t, nightlyDocument, "render", "-f", "text", "-")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out != nightlyMarkdown {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("query", func(t *testing.T) {
		t.Parallel()

		out, _, err := execute(t, "", "render", "-f", "html", "--query", ".sections[0].conditions[0].violations[0]", doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(out, "<html>") {
			t.Error("renderings must not be printed when a query is given")
		}
		var row map[string]any
		if err := json.Unmarshal([]byte(out), &row); err != nil {
			t.Fatalf("query result is not JSON: %v\n%s", err, out)
		}
		if row["id"] != float64(1) || row["count"] != float64(5) {
			t.Errorf("unexpected first violation %v", row)
		}
	})
}

func TestRenderCmd_OutputDir(t *testing.T) {
	t.Parallel()

	doc := writeDocument(t)
	outDir := filepath.Join(t.TempDir(), "out")

	out, _, err := execute(t, "",
		"render", "-f", "html", "-f", "json", "-f", "markdown", "-f", "gfm", "-o", outDir, doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"nightly-check.html", "nightly-check.json", "nightly-check.md", "nightly-check-gfm.md"} {
		path := filepath.Join(outDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("expected %s: %v", name, err)
			continue
		}
		if len(content) == 0 {
			t.Errorf("%s is empty", name)
		}
		if !strings.Contains(out, path) {
			t.Errorf("expected %q to be reported in %q", path, out)
		}
	}

	md, err := os.ReadFile(filepath.Join(outDir, "nightly-check.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(md) != nightlyMarkdown {
		t.Errorf("unexpected markdown file:\n%s", md)
	}
}

func TestRenderCmd_Errors(t *testing.T) {
	t.Parallel()

	doc := writeDocument(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown format",
			args:    []string{"render", "-f", "pdf", doc},
			wantErr: report.ErrUnknownFormat,
		},
		{
			name:    "missing document",
			args:    []string{"render", filepath.Join(t.TempDir(), "missing.yaml")},
			wantMsg: "missing.yaml",
		},
		{
			name:    "skip unchanged without archive",
			args:    []string{"render", "--skip-unchanged", doc},
			wantErr: config.ErrSkipWithoutArchive,
		},
		{
			name:    "send without recipients",
			args:    []string{"render", "--send", "--from", "reports@example.com", doc},
			wantErr: config.ErrNoRecipients,
		},
		{
			name:    "explicit config file missing",
			args:    []string{"render", "-c", filepath.Join(t.TempDir(), "nope.yaml"), doc},
			wantMsg: "configuration file not found",
		},
		{
			name:    "missing css file",
			args:    []string{"render", "--css", filepath.Join(t.TempDir(), "nope.css"), doc},
			wantMsg: "stylesheet",
		},
		{
			name:    "invalid query",
			args:    []string{"render", "--query", ".[", doc},
			wantMsg: "invalid query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := execute(t, "", tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %v", tt.wantMsg, err)
			}
		})
	}
}

func TestRenderCmd_SendAndArchive(t *testing.T) {
	t.Parallel()

	stub, srv := newPostmarkStub(t, 0)
	configPath, envPath := writePostmarkConfig(t, srv.URL)
	doc := writeDocument(t)
	dbDir := t.TempDir()

	args := []string{
		"render", "-c", configPath, "--env-file", envPath,
		"-f", "html", "-f", "json",
		"--send", "--archive", "--skip-unchanged", "--db-dir", dbDir,
		doc,
	}

	out, _, err := execute(t, "", args...)
	if err != nil {
		t.Fatalf("first run: unexpected error: %v", err)
	}
	if stub.count() != 1 {
		t.Fatalf("expected 1 message, got %d", stub.count())
	}
	if !strings.Contains(out, "Sent html report to 1 recipient(s) via postmark") {
		t.Errorf("unexpected output: %q", out)
	}

	stub.mu.Lock()
	first := stub.bodies[0]
	stub.mu.Unlock()
	if first["Subject"] != "Nightly Check" {
		t.Errorf("expected the report title as subject, got %v", first["Subject"])
	}
	if html, _ := first["HtmlBody"].(string); !strings.Contains(html, "<title>Nightly Check</title>") {
		t.Errorf("expected the HTML rendering as HtmlBody, got %v", first["HtmlBody"])
	}

	out, _, err = execute(t, "", args...)
	if err != nil {
		t.Fatalf("second run: unexpected error: %v", err)
	}
	if stub.count() != 1 {
		t.Errorf("unchanged report was sent again (%d messages)", stub.count())
	}
	if !strings.Contains(out, "unchanged since last delivery") {
		t.Errorf("unexpected output: %q", out)
	}

	out, _, err = execute(t, "", "history", "--db-dir", dbDir, "--json", "Nightly Check")
	if err != nil {
		t.Fatalf("history: unexpected error: %v", err)
	}
	var entries []historyEntry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 archived renderings, got %d", len(entries))
	}
	delivered := 0
	for _, e := range entries {
		delivered += e.Delivered
	}
	if delivered != 1 {
		t.Errorf("expected exactly one delivered rendering, got %d", delivered)
	}
}

func TestRenderCmd_SendFailure(t *testing.T) {
	t.Parallel()

	stub, srv := newPostmarkStub(t, 300)
	configPath, envPath := writePostmarkConfig(t, srv.URL)
	doc := writeDocument(t)
	outDir := t.TempDir()

	_, stderr, err := execute(t, "",
		"render", "-c", configPath, "--env-file", envPath, "--send", "-f", "markdown", "-o", outDir, doc)
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if !strings.Contains(err.Error(), "failed to send report") {
		t.Errorf("unexpected error: %v", err)
	}
	if stub.count() != 1 {
		t.Errorf("expected one delivery attempt, got %d", stub.count())
	}
	if !strings.Contains(stderr, "report delivery failed") {
		t.Errorf("expected the failure to be logged, got %q", stderr)
	}
	if strings.Contains(stderr, "server-token") {
		t.Error("log output leaked the server token")
	}
	if _, err := os.Stat(filepath.Join(outDir, "nightly-check.md")); err != nil {
		t.Errorf("rendering should be written despite the delivery failure: %v", err)
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Nightly Check", "nightly-check"},
		{"  DB / Consistency!! ", "db-consistency"},
		{"Prüfung 2024", "prüfung-2024"},
		{"", "report"},
		{"***", "report"},
	}
	for _, tt := range tests {
		if got := slug(tt.in); got != tt.want {
			t.Errorf("slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputFileName(t *testing.T) {
	t.Parallel()

	used := map[string]bool{}
	got := []string{
		outputFileName("Nightly Check", "markdown", used),
		outputFileName("Nightly Check", "gfm", used),
		outputFileName("Nightly Check", "text", used),
		outputFileName("Nightly Check", "html", used),
	}
	want := []string{"nightly-check.md", "nightly-check-gfm.md", "nightly-check.txt", "nightly-check.html"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("outputFileName #%d = %q, want %q", i, got[i], want[i])
		}
	}
}
