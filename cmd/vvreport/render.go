package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"unicode"

	"github.com/nao1215/vvreport/internal/config"
	"github.com/nao1215/vvreport/internal/database"
	vlog "github.com/nao1215/vvreport/internal/log"
	"github.com/nao1215/vvreport/internal/model"
	"github.com/nao1215/vvreport/internal/notify"
	"github.com/nao1215/vvreport/internal/report"
	"github.com/spf13/cobra"
)

// NewRenderCmd creates the render command.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render a report document",
		Long: `Render reads a report document (YAML or JSON, "-" for stdin) and renders it
in one or more formats.

Formats: ` + strings.Join(report.Names(), ", ") + `

Without --output-dir every rendering is printed to stdout. With --send the
first format is mailed to the configured recipients; delivery failures are
logged and reported but the renderings are still written and archived.

Examples:
  # Render HTML to stdout
  vvreport render report.yaml

  # Write JSON and fixed-width text files
  vvreport render -f json -f markdown -o out report.yaml

  # Extract the first section title with jq
  vvreport render --query '.sections[0].title' report.yaml

  # Mail the HTML rendering and archive it
  vvreport render --send --to ops@example.com --archive report.yaml

Report document example:
  title: Nightly Check
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
              - [a, 3]
              - [b, 1]
            sort_by: id`,
		Args: cobra.ExactArgs(1),
		RunE: runRenderCmd,
	}

	cmd.Flags().StringSliceP("format", "f", []string{config.DefaultFormat},
		"Output format, repeatable ("+strings.Join(report.Names(), ", ")+")")
	cmd.Flags().StringP("output-dir", "o", "",
		"Write one file per format into this directory instead of stdout")
	cmd.Flags().StringP("query", "q", "",
		"jq expression applied to the JSON rendering; the result is printed")
	cmd.Flags().Int("id-column", 0,
		"HTML column whose repeated values are collapsed")
	cmd.Flags().String("css", "",
		"Stylesheet file replacing the built-in HTML stylesheet")
	cmd.Flags().Bool("raw-html", false,
		"Do not HTML-escape cell values")
	cmd.Flags().Int("indent", config.DefaultJSONIndent,
		"JSON indentation width (0 for compact output)")
	cmd.Flags().IntP("concurrency", "j", config.DefaultConcurrency,
		"Number of formats rendered in parallel")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .vvreport.yaml in current or home directory)")
	cmd.Flags().String("env-file", "",
		"Dotenv file with VVREPORT_* secrets")

	cmd.Flags().Bool("send", false,
		"Mail the first rendered format to the recipients")
	cmd.Flags().StringSlice("to", nil,
		"Recipient address, repeatable")
	cmd.Flags().String("from", "",
		"Sender address")
	cmd.Flags().String("subject", "",
		"Message subject (default: the report title)")
	cmd.Flags().String("transport", config.TransportSMTP,
		"Mail transport: smtp or postmark")
	cmd.Flags().String("smtp-host", "localhost",
		"SMTP relay host")
	cmd.Flags().Int("smtp-port", config.DefaultSMTPPort,
		"SMTP relay port")

	cmd.Flags().Bool("archive", false,
		"Store every rendering in the report archive")
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")
	cmd.Flags().Bool("skip-unchanged", false,
		"Do not send when the last delivered rendering is identical (requires --archive)")

	return cmd
}

// runRenderCmd executes the render command.
func runRenderCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := vlog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rpt, err := loadReport(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	return runRender(ctx, cmd.OutOrStdout(), cfg, rpt, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig merges defaults, the config file, the environment and the
// flags the user set, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named config file must exist; the default one is optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.EnvFile, err = flags.GetString("env-file")
	if err != nil {
		return nil, err
	}
	env, err := config.LoadEnv(cfg.EnvFile)
	if err != nil {
		return nil, err
	}
	env.Apply(cfg)

	stringFlags := map[string]*string{
		"output-dir": &cfg.OutputDir,
		"query":      &cfg.Query,
		"css":        &cfg.CSSFile,
		"from":       &cfg.Sender,
		"subject":    &cfg.Subject,
		"transport":  &cfg.Transport,
		"smtp-host":  &cfg.SMTP.Host,
		"db-dir":     &cfg.DBDir,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetString(name); err != nil {
			return nil, err
		}
	}

	intFlags := map[string]*int{
		"id-column":   &cfg.IDColumn,
		"indent":      &cfg.JSONIndent,
		"concurrency": &cfg.Concurrency,
		"smtp-port":   &cfg.SMTP.Port,
	}
	for name, dst := range intFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetInt(name); err != nil {
			return nil, err
		}
	}

	boolFlags := map[string]*bool{
		"raw-html":       &cfg.RawHTML,
		"send":           &cfg.Send,
		"archive":        &cfg.Archive,
		"skip-unchanged": &cfg.SkipUnchanged,
	}
	for name, dst := range boolFlags {
		if !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetBool(name); err != nil {
			return nil, err
		}
	}

	if flags.Changed("format") {
		if cfg.Formats, err = flags.GetStringSlice("format"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("to") {
		if cfg.Recipients, err = flags.GetStringSlice("to"); err != nil {
			return nil, err
		}
	}

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// loadReport reads the report document at path, or stdin for "-".
func loadReport(stdin io.Reader, path string) (*model.Report, error) {
	if path == "-" {
		rpt, err := model.DecodeDocument(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read report from stdin: %w", err)
		}
		return rpt, nil
	}
	return model.LoadDocument(path)
}

// rendering is one formatted document.
type rendering struct {
	format    string
	mediaType string
	content   string
	archiveID int64
}

// runRender renders rpt in every configured format, then writes, archives
// and sends the results.
func runRender(ctx context.Context, out io.Writer, cfg *config.Config, rpt *model.Report, logger *slog.Logger) error {
	formatters, err := buildFormatters(cfg)
	if err != nil {
		return err
	}

	title := rpt.Header().Title
	logger.Info("rendering report",
		"title", title,
		"formats", cfg.Formats,
		"sections", rpt.Len(),
	)

	docs, err := report.RenderAll(ctx, rpt, formatters, cfg.Concurrency)
	if err != nil {
		return fmt.Errorf("failed to render report %q: %w", title, err)
	}

	renderings := make([]*rendering, len(docs))
	for i, doc := range docs {
		renderings[i] = &rendering{
			format:    strings.ToLower(cfg.Formats[i]),
			mediaType: formatters[i].MediaType(),
			content:   doc,
		}
	}

	if cfg.Query != "" {
		if err := printQuery(out, cfg, rpt, renderings); err != nil {
			return err
		}
	}

	if err := writeRenderings(out, cfg, title, renderings); err != nil {
		return err
	}

	var db *database.ReportDB
	if cfg.Archive {
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())
	}

	// The unchanged check compares against earlier runs, so it must happen
	// before this run's renderings are archived.
	var unchanged bool
	if cfg.Send && cfg.SkipUnchanged {
		unchanged, err = isUnchanged(ctx, db, title, renderings[0])
		if err != nil {
			return err
		}
	}

	if db != nil {
		if err := archiveRenderings(ctx, db, title, renderings); err != nil {
			return err
		}
	}

	if !cfg.Send {
		return nil
	}
	if unchanged {
		logger.Info("report unchanged since last delivery, not sending", "title", title)
		fmt.Fprintf(out, "Report %q unchanged since last delivery, not sent.\n", title)
		return nil
	}

	return sendRendering(ctx, out, cfg, db, title, renderings[0], logger)
}

// buildFormatters creates one formatter per configured format.
func buildFormatters(cfg *config.Config) ([]report.Formatter, error) {
	opts := report.DefaultOptions()
	opts.IDColumn = cfg.IDColumn
	opts.RawHTML = cfg.RawHTML
	opts.Indent = cfg.JSONIndent

	if cfg.CSSFile != "" {
		css, err := os.ReadFile(cfg.CSSFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read stylesheet: %w", err)
		}
		opts.CSS = strings.Join(strings.Fields(string(css)), " ")
	}

	formatters := make([]report.Formatter, 0, len(cfg.Formats))
	for _, name := range cfg.Formats {
		f, err := report.New(name, opts)
		if err != nil {
			return nil, err
		}
		formatters = append(formatters, f)
	}
	return formatters, nil
}

// printQuery runs the jq query over the JSON rendering, rendering JSON
// first when it is not one of the requested formats.
func printQuery(out io.Writer, cfg *config.Config, rpt *model.Report, renderings []*rendering) error {
	var doc string
	for _, r := range renderings {
		if r.format == report.FormatJSON {
			doc = r.content
			break
		}
	}
	if doc == "" {
		var err error
		doc, err = report.NewJSONFormatter().Format(rpt)
		if err != nil {
			return err
		}
	}

	result, err := report.Query(doc, cfg.Query, cfg.JSONIndent)
	if err != nil {
		return err
	}
	if result != "" {
		fmt.Fprintln(out, result)
	}
	return nil
}

// writeRenderings writes each rendering to its own file under OutputDir,
// or to out when no directory is configured and no query was given.
func writeRenderings(out io.Writer, cfg *config.Config, title string, renderings []*rendering) error {
	if cfg.OutputDir == "" {
		if cfg.Query != "" {
			return nil
		}
		for i, r := range renderings {
			if i > 0 {
				fmt.Fprintln(out)
			}
			if _, err := io.WriteString(out, withNewline(r.content)); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(cfg.OutputDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	used := make(map[string]bool, len(renderings))
	for _, r := range renderings {
		name := outputFileName(title, r.format, used)
		path := filepath.Join(cfg.OutputDir, name)
		if err := os.WriteFile(path, []byte(withNewline(r.content)), 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Fprintf(out, "Wrote %s\n", path)
	}
	return nil
}

// outputFileName derives a file name from the report title and format.
// Formats sharing an extension get the format name appended.
func outputFileName(title, format string, used map[string]bool) string {
	base := slug(title)
	ext := report.Extension(format)

	name := base + ext
	if used[name] {
		name = base + "-" + format + ext
	}
	used[name] = true
	return name
}

// slug lower-cases title and replaces every run of other characters than
// letters and digits with a single dash.
func slug(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "report"
	}
	return s
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}

// archiveRenderings stores every rendering and records its archive ID.
func archiveRenderings(ctx context.Context, db *database.ReportDB, title string, renderings []*rendering) error {
	for _, r := range renderings {
		id, err := db.SaveReport(ctx, &database.ReportRecord{
			Title:     title,
			Format:    r.format,
			MediaType: r.mediaType,
			Content:   r.content,
		})
		if err != nil {
			return err
		}
		r.archiveID = id
	}
	return nil
}

// isUnchanged reports whether r matches the last delivered rendering.
func isUnchanged(ctx context.Context, db *database.ReportDB, title string, r *rendering) (bool, error) {
	if db == nil {
		return false, errors.New("--skip-unchanged requires the archive")
	}
	last, err := db.LatestDigest(ctx, title, r.format)
	if err != nil {
		return false, err
	}
	return last != "" && last == database.Digest(r.content), nil
}

// sendRendering mails r and records the outcome in the archive.
func sendRendering(ctx context.Context, out io.Writer, cfg *config.Config, db *database.ReportDB, title string, r *rendering, logger *slog.Logger) error {
	transport, err := newTransport(cfg)
	if err != nil {
		return err
	}

	subject := cfg.Subject
	if subject == "" {
		subject = title
	}

	notifier := notify.New(notify.Config{
		Sender:     cfg.Sender,
		Recipients: cfg.Recipients,
		Subject:    subject,
	}, transport, logger)

	result := notifier.Send(ctx, r.content, r.mediaType)

	if db != nil && r.archiveID != 0 {
		if err := db.SetDelivered(ctx, r.archiveID, cfg.Recipients, result.Count); err != nil {
			logger.Error("failed to record delivery", "id", r.archiveID, "error", err)
		}
	}

	if !result.OK() {
		return fmt.Errorf("failed to send report %q: %w", title, result.Err)
	}
	fmt.Fprintf(out, "Sent %s report to %d recipient(s) via %s\n", r.format, result.Count, transport.Name())
	return nil
}

// newTransport builds the configured mail transport.
func newTransport(cfg *config.Config) (notify.Transport, error) {
	switch cfg.Transport {
	case config.TransportPostmark:
		transport, err := notify.NewPostmarkTransport(
			cfg.Postmark.ServerToken,
			cfg.Postmark.AccountToken,
			notify.WithPostmarkBaseURL(cfg.Postmark.BaseURL),
			notify.WithPostmarkTag(cfg.Postmark.Tag),
			notify.WithPostmarkTimeout(cfg.Postmark.Timeout),
		)
		if err != nil {
			return nil, err
		}
		return transport, nil
	case config.TransportSMTP:
		opts := []notify.SMTPOption{notify.WithDialTimeout(cfg.SMTP.Timeout)}
		if cfg.SMTP.SOCKS5 != "" {
			opts = append(opts, notify.WithSOCKS5(cfg.SMTP.SOCKS5))
		}
		if cfg.SMTP.Username != "" {
			opts = append(opts, notify.WithAuth(cfg.SMTP.Username, cfg.SMTP.Password))
		}
		if cfg.SMTP.StartTLS {
			opts = append(opts, notify.WithStartTLS(nil))
		}
		return notify.NewSMTPTransport(cfg.SMTP.Host, cfg.SMTP.Port, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownTransport, cfg.Transport)
	}
}
