package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	_ "modernc.org/sqlite" // SQLite driver
)

// FileName is the archive file name inside the database directory.
const FileName = "vvreport.db"

var (
	// ErrReportNotFound is returned when no archived report has the given ID.
	ErrReportNotFound = errors.New("report not found")

	// ErrDatabaseNotFound is returned by Open when the archive file does not
	// exist and CreateIfNotExists is off.
	ErrDatabaseNotFound = errors.New("database not found")
)

// ReportDB provides SQLite-based storage for rendered reports.
type ReportDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures ReportDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a ReportDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*ReportDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &ReportDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *ReportDB) Close() error {
	return rdb.db.Close()
}

// Path returns the database file path.
func (rdb *ReportDB) Path() string {
	return rdb.dbPath
}

func (rdb *ReportDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		format TEXT NOT NULL,
		media_type TEXT NOT NULL,
		digest TEXT NOT NULL,
		content TEXT NOT NULL,
		recipients TEXT,
		delivered INTEGER DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_title ON reports(title);
	CREATE INDEX IF NOT EXISTS idx_reports_title_format ON reports(title, format);
	CREATE INDEX IF NOT EXISTS idx_reports_timestamp ON reports(timestamp);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// Digest returns the hex SHA3-256 digest of content.
func Digest(content string) string {
	sum := sha3.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ReportRecord is one archived rendering.
type ReportRecord struct {
	ID        int64
	Title     string
	Format    string
	MediaType string

	// Digest is filled from Content by SaveReport when empty.
	Digest  string
	Content string

	// Recipients the rendering was sent to, if any.
	Recipients []string

	// Delivered is the recipient count reported by the notifier.
	Delivered int

	// Timestamp defaults to the insert time.
	Timestamp time.Time
}

// ReportMetadata summarizes an archived rendering without its content.
type ReportMetadata struct {
	ID        int64
	Title     string
	Format    string
	MediaType string
	Digest    string
	Size      int
	Delivered int
	Timestamp time.Time
}

// SaveReport archives a rendering and returns its ID.
func (rdb *ReportDB) SaveReport(ctx context.Context, record *ReportRecord) (int64, error) {
	if record.Digest == "" {
		record.Digest = Digest(record.Content)
	}

	recipientsJSON, err := json.Marshal(record.Recipients)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize recipients: %w", err)
	}

	ts := record.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `
	INSERT INTO reports (title, format, media_type, digest, content, recipients, delivered, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := rdb.db.ExecContext(ctx, query,
		record.Title,
		record.Format,
		record.MediaType,
		record.Digest,
		record.Content,
		string(recipientsJSON),
		record.Delivered,
		ts.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get report id: %w", err)
	}
	record.ID = id
	return id, nil
}

// SetDelivered records the delivery outcome of an archived rendering.
func (rdb *ReportDB) SetDelivered(ctx context.Context, id int64, recipients []string, delivered int) error {
	recipientsJSON, err := json.Marshal(recipients)
	if err != nil {
		return fmt.Errorf("failed to serialize recipients: %w", err)
	}

	result, err := rdb.db.ExecContext(ctx,
		`UPDATE reports SET recipients = ?, delivered = ? WHERE id = ?`,
		string(recipientsJSON), delivered, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update report %d: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: id %d", ErrReportNotFound, id)
	}
	return nil
}

// GetReport retrieves an archived rendering by ID.
func (rdb *ReportDB) GetReport(ctx context.Context, id int64) (*ReportRecord, error) {
	query := `
	SELECT id, title, format, media_type, digest, content, recipients, delivered, timestamp
	FROM reports
	WHERE id = ?
	`

	var (
		record     ReportRecord
		recipients sql.NullString
		timestamp  string
	)
	err := rdb.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.Title,
		&record.Format,
		&record.MediaType,
		&record.Digest,
		&record.Content,
		&recipients,
		&record.Delivered,
		&timestamp,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrReportNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	record.Timestamp = parseTimestamp(timestamp)
	if recipients.Valid && recipients.String != "" {
		if err := json.Unmarshal([]byte(recipients.String), &record.Recipients); err != nil {
			return nil, fmt.Errorf("failed to parse recipients: %w", err)
		}
	}

	return &record, nil
}

// ListReports returns metadata of archived renderings, newest first.
// An empty title lists every report.
func (rdb *ReportDB) ListReports(ctx context.Context, title string) ([]ReportMetadata, error) {
	query := `
	SELECT id, title, format, media_type, digest, length(content), delivered, timestamp
	FROM reports
	WHERE ? = '' OR title = ?
	ORDER BY timestamp DESC, id DESC
	`

	rows, err := rdb.db.QueryContext(ctx, query, title, title)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var results []ReportMetadata
	for rows.Next() {
		var (
			meta      ReportMetadata
			timestamp string
		)
		if err := rows.Scan(
			&meta.ID,
			&meta.Title,
			&meta.Format,
			&meta.MediaType,
			&meta.Digest,
			&meta.Size,
			&meta.Delivered,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report metadata: %w", err)
		}
		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListTitles returns the distinct titles in the archive.
func (rdb *ReportDB) ListTitles(ctx context.Context) ([]string, error) {
	rows, err := rdb.db.QueryContext(ctx, `SELECT DISTINCT title FROM reports ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}

	return titles, rows.Err()
}

// LatestDigest returns the digest of the newest delivered rendering of
// title in format, or "" when there is none.
func (rdb *ReportDB) LatestDigest(ctx context.Context, title, format string) (string, error) {
	query := `
	SELECT digest FROM reports
	WHERE title = ? AND format = ? AND delivered > 0
	ORDER BY timestamp DESC, id DESC
	LIMIT 1
	`

	var digest string
	err := rdb.db.QueryRowContext(ctx, query, title, format).Scan(&digest)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get latest digest: %w", err)
	}
	return digest, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.DateTime,             // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp tries each of timestampFormats and returns the zero time
// when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
