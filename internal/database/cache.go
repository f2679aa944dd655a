package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/crawldash/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "crawldash.db"

// storedTimeFormat is fixed width so that stored timestamps sort as text.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Cache provides SQLite-based storage for page snapshots and crawl history.
type Cache struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures Cache behavior.
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

// Open opens or creates the cache in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*Cache, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	c := &Cache{db: db, dbPath: dbPath, now: time.Now}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := c.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return c, nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// Close closes the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (c *Cache) createTables() error {
	schema := `
	-- Last successful fetch of each page
	CREATE TABLE IF NOT EXISTS page_snapshots (
		api_url TEXT NOT NULL,
		page INTEGER NOT NULL,
		page_size INTEGER NOT NULL,
		total_count INTEGER NOT NULL,
		reports_json TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		PRIMARY KEY (api_url, page, page_size)
	);

	-- One row per crawl settlement
	CREATE TABLE IF NOT EXISTS crawl_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		api_url TEXT NOT NULL,
		report_id INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		status TEXT NOT NULL,
		broken_links INTEGER DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		duration_ms INTEGER DEFAULT 0,
		report_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_history_report ON crawl_history(api_url, report_id);
	CREATE INDEX IF NOT EXISTS idx_history_started ON crawl_history(started_at);
	`

	_, err := c.db.ExecContext(context.Background(), schema)
	return err
}

// PageSnapshot is a cached page fetch.
type PageSnapshot struct {
	Page    model.Page
	SavedAt time.Time
}

// SavePage stores page as the snapshot for its page index and size.
func (c *Cache) SavePage(ctx context.Context, apiURL string, page model.Page) error {
	reportsJSON, err := json.Marshal(page.Reports)
	if err != nil {
		return fmt.Errorf("failed to serialize reports: %w", err)
	}

	query := `
	INSERT INTO page_snapshots (api_url, page, page_size, total_count, reports_json, saved_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(api_url, page, page_size) DO UPDATE SET
		total_count = excluded.total_count,
		reports_json = excluded.reports_json,
		saved_at = excluded.saved_at
	`

	_, err = c.db.ExecContext(ctx, query,
		apiURL,
		page.Page,
		page.PageSize,
		page.TotalCount,
		string(reportsJSON),
		c.now().UTC().Format(storedTimeFormat),
	)
	if err != nil {
		return fmt.Errorf("failed to save page snapshot: %w", err)
	}
	return nil
}

// LoadPage returns the snapshot for the given page index and size, or nil if
// none was saved.
func (c *Cache) LoadPage(ctx context.Context, apiURL string, page, pageSize int) (*PageSnapshot, error) {
	query := `
	SELECT total_count, reports_json, saved_at
	FROM page_snapshots
	WHERE api_url = ? AND page = ? AND page_size = ?
	`

	var (
		total       int
		reportsJSON string
		savedAt     string
	)
	err := c.db.QueryRowContext(ctx, query, apiURL, page, pageSize).Scan(&total, &reportsJSON, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load page snapshot: %w", err)
	}

	snap := &PageSnapshot{
		Page: model.Page{
			Page:       page,
			PageSize:   pageSize,
			TotalCount: total,
		},
		SavedAt: parseTimestamp(savedAt),
	}
	if err := json.Unmarshal([]byte(reportsJSON), &snap.Page.Reports); err != nil {
		return nil, fmt.Errorf("failed to parse page snapshot: %w", err)
	}
	return snap, nil
}

// CrawlRecord is one row of crawl history.
type CrawlRecord struct {
	ID          int64
	APIURL      string
	ReportID    int64
	Outcome     string
	Status      model.Status
	BrokenLinks int
	Error       string
	StartedAt   time.Time
	Duration    time.Duration

	// Report is the report returned by a successful crawl.
	Report *model.Report
}

// RecordCrawl appends a crawl settlement to the history.
func (c *Cache) RecordCrawl(ctx context.Context, rec *CrawlRecord) (int64, error) {
	var reportJSON sql.NullString
	if rec.Report != nil {
		data, err := json.Marshal(rec.Report)
		if err != nil {
			return 0, fmt.Errorf("failed to serialize report: %w", err)
		}
		reportJSON = sql.NullString{String: string(data), Valid: true}
	}

	query := `
	INSERT INTO crawl_history (api_url, report_id, outcome, status, broken_links, error, started_at, duration_ms, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := c.db.ExecContext(ctx, query,
		rec.APIURL,
		rec.ReportID,
		rec.Outcome,
		string(rec.Status),
		rec.BrokenLinks,
		rec.Error,
		rec.StartedAt.UTC().Format(storedTimeFormat),
		rec.Duration.Milliseconds(),
		reportJSON,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to record crawl: %w", err)
	}
	return result.LastInsertId()
}

// CrawlHistory returns the crawl history of one report, newest first.
// A limit of zero or less returns every row.
func (c *Cache) CrawlHistory(ctx context.Context, apiURL string, reportID int64, limit int) ([]CrawlRecord, error) {
	query := `
	SELECT id, api_url, report_id, outcome, status, broken_links, error, started_at, duration_ms, report_json
	FROM crawl_history
	WHERE api_url = ? AND report_id = ?
	ORDER BY started_at DESC, id DESC
	`
	args := []any{apiURL, reportID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl history: %w", err)
	}
	defer rows.Close()

	var records []CrawlRecord
	for rows.Next() {
		var (
			rec        CrawlRecord
			status     string
			errText    sql.NullString
			startedAt  string
			durationMS int64
			reportJSON sql.NullString
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.APIURL,
			&rec.ReportID,
			&rec.Outcome,
			&status,
			&rec.BrokenLinks,
			&errText,
			&startedAt,
			&durationMS,
			&reportJSON,
		); err != nil {
			return nil, fmt.Errorf("failed to scan crawl history: %w", err)
		}

		rec.Status = model.Status(status)
		rec.Error = errText.String
		rec.StartedAt = parseTimestamp(startedAt)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		if reportJSON.Valid && reportJSON.String != "" {
			var r model.Report
			if err := json.Unmarshal([]byte(reportJSON.String), &r); err == nil {
				rec.Report = &r
			}
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// DeleteHistory removes the crawl history of one report and returns the
// number of removed rows.
func (c *Cache) DeleteHistory(ctx context.Context, apiURL string, reportID int64) (int64, error) {
	result, err := c.db.ExecContext(ctx,
		"DELETE FROM crawl_history WHERE api_url = ? AND report_id = ?",
		apiURL, reportID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete crawl history: %w", err)
	}
	return result.RowsAffected()
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
