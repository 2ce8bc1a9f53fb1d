package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/vvreport/internal/config"
	"github.com/nao1215/vvreport/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
// It lists renderings stored in the report archive.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [title]",
		Short: "Show archived report renderings",
		Long: `History lists renderings stored by 'vvreport render --archive'.

Without arguments it lists the archived report titles. With a title it lists
every rendering of that report, newest first. --id prints one archived
rendering exactly as it was produced.

Examples:
  # List archived report titles
  vvreport history

  # List renderings of one report
  vvreport history "Nightly Check"

  # Renderings since a date, as JSON
  vvreport history --since 2025-01-01 --json "Nightly Check"

  # Print an archived rendering
  vvreport history --id 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("id", "i", 0,
		"Print the archived rendering with this ID")
	cmd.Flags().StringP("since", "s", "",
		"Only list renderings archived on or after this date (format: YYYY-MM-DD)")
	cmd.Flags().BoolP("json", "j", false,
		"Output the listing in JSON format")
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: archive.dir from the config file, else XDG data directory)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .vvreport.yaml in current or home directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	id, err := flags.GetInt64("id")
	if err != nil {
		return err
	}
	sinceDate, err := flags.GetString("since")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database.
	var since time.Time
	if sinceDate != "" {
		since, err = time.Parse(time.DateOnly, sinceDate)
		if err != nil {
			return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
	}

	dbDir, err := archiveDir(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	// Listing never creates the archive.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if errors.Is(err, database.ErrDatabaseNotFound) {
		return reportMissingArchive(out, id, len(args) > 0 && jsonOutput)
	}
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if id > 0 {
		return printArchivedReport(ctx, out, db, id)
	}
	if len(args) == 0 {
		return listTitles(ctx, out, db)
	}
	return listHistory(ctx, out, db, args[0], since, jsonOutput)
}

// archiveDir resolves the archive directory: flag, config file, XDG default.
func archiveDir(cmd *cobra.Command) (string, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return "", err
	}
	if dbDir != "" {
		return dbDir, nil
	}

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return "", err
	}

	cfg := config.NewConfig()
	if path := config.FindConfigFile(configPath); path != "" {
		cf, err := config.LoadConfigFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cf.Apply(cfg)
	} else if configPath != "" {
		return "", fmt.Errorf("configuration file not found: %s", configPath)
	}
	return cfg.DBDir, nil
}

// printArchivedReport writes one archived rendering to out.
func printArchivedReport(ctx context.Context, out io.Writer, db *database.ReportDB, id int64) error {
	record, err := db.GetReport(ctx, id)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, withNewline(record.Content))
	return err
}

// reportMissingArchive answers a history query when no archive file exists.
func reportMissingArchive(out io.Writer, id int64, jsonOutput bool) error {
	switch {
	case id > 0:
		return fmt.Errorf("%w: id %d", database.ErrReportNotFound, id)
	case jsonOutput:
		_, err := io.WriteString(out, "[]\n")
		return err
	default:
		fmt.Fprintln(out, "No archived reports found.")
		fmt.Fprintln(out, "\nUse 'vvreport render --archive <document>' to archive renderings.")
		return nil
	}
}

// listTitles lists every report title in the archive.
func listTitles(ctx context.Context, out io.Writer, db *database.ReportDB) error {
	titles, err := db.ListTitles(ctx)
	if err != nil {
		return err
	}

	if len(titles) == 0 {
		fmt.Fprintln(out, "No archived reports found.")
		fmt.Fprintln(out, "\nUse 'vvreport render --archive <document>' to archive renderings.")
		return nil
	}

	fmt.Fprintf(out, "Archived reports (%d):\n\n", len(titles))
	for _, title := range titles {
		fmt.Fprintf(out, "  • %s\n", title)
	}
	fmt.Fprintln(out, "\nUse 'vvreport history <title>' to see the renderings of a report.")

	return nil
}

// historyEntry is the JSON form of one archived rendering.
type historyEntry struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Format    string    `json:"format"`
	MediaType string    `json:"media_type"`
	Digest    string    `json:"digest"`
	Size      int       `json:"size"`
	Delivered int       `json:"delivered"`
	Timestamp time.Time `json:"timestamp"`
}

// listHistory lists the renderings of title archived on or after since.
func listHistory(ctx context.Context, out io.Writer, db *database.ReportDB, title string, since time.Time, jsonOutput bool) error {
	reports, err := db.ListReports(ctx, title)
	if err != nil {
		return err
	}

	entries := make([]historyEntry, 0, len(reports))
	for _, meta := range reports {
		if !since.IsZero() && meta.Timestamp.Before(since) {
			continue
		}
		entries = append(entries, historyEntry{
			ID:        meta.ID,
			Title:     meta.Title,
			Format:    meta.Format,
			MediaType: meta.MediaType,
			Digest:    meta.Digest,
			Size:      meta.Size,
			Delivered: meta.Delivered,
			Timestamp: meta.Timestamp,
		})
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No archived renderings found for %q\n", title)
		return nil
	}

	fmt.Fprintf(out, "Renderings of %q (%d):\n\n", title, len(entries))
	fmt.Fprintf(out, "  %-6s  %-19s  %-8s  %-9s  %s\n", "ID", "Date", "Format", "Delivered", "Digest")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))
	for _, e := range entries {
		fmt.Fprintf(out, "  %-6d  %-19s  %-8s  %-9d  %s\n",
			e.ID,
			e.Timestamp.Format(time.DateTime),
			e.Format,
			e.Delivered,
			shortDigest(e.Digest),
		)
	}
	fmt.Fprintln(out, "\nUse 'vvreport history --id <id>' to print a rendering.")

	return nil
}

// shortDigest abbreviates a hex digest for tables.
func shortDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}
