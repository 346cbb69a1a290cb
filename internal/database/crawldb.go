package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/onionsearch/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "onionsearch.db"

// defaultMaxOpenConns bounds the pool; crawl sessions each hold one connection.
const defaultMaxOpenConns = 16

// timestampLayout is the fixed-width layout used for stored timestamps so
// that lexical order equals chronological order.
const timestampLayout = "2006-01-02 15:04:05.000000"

// ErrPageNotFound is returned when a page ID does not exist.
var ErrPageNotFound = errors.New("page not found")

// CrawlDB provides SQLite-based storage for pages, links and crawl runs.
type CrawlDB struct {
	// db is the underlying SQL connection pool.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	logger *slog.Logger
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers do not block writers.
	EnableWAL bool

	// MaxOpenConns bounds the connection pool. Zero uses the default.
	// Crawl concurrency above this value makes sessions wait for a connection.
	MaxOpenConns int

	// Logger receives duplicate-save notices. Nil uses slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
		MaxOpenConns:      defaultMaxOpenConns,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run the crawl command first)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file; busy_timeout is per
	// connection, so it goes in the DSN rather than a one-off PRAGMA.
	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	maxConns := opts.MaxOpenConns
	if maxConns <= 0 {
		maxConns = defaultMaxOpenConns
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(time.Hour)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
		logger: logger,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection pool.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the path of the database file.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- Pages are written once per unique URL and never updated
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL DEFAULT '',
		status_code INTEGER NOT NULL,
		visited_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_visited_at ON pages(visited_at);

	-- Links are directed edges between stored pages; duplicates are allowed
	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		from_page_id INTEGER NOT NULL REFERENCES pages(id),
		to_page_id INTEGER NOT NULL REFERENCES pages(id)
	);

	CREATE INDEX IF NOT EXISTS idx_links_from ON links(from_page_id);
	CREATE INDEX IF NOT EXISTS idx_links_to ON links(to_page_id);

	-- Crawl runs record each crawler invocation
	CREATE TABLE IF NOT EXISTS crawl_runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		seeds TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		concurrency INTEGER NOT NULL,
		pages_saved INTEGER NOT NULL DEFAULT 0
	);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// Session pins a dedicated connection for one unit of crawl work.
// The caller must Close the session.
func (cdb *CrawlDB) Session(ctx context.Context) (*Session, error) {
	conn, err := cdb.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	return &Session{conn: conn, logger: cdb.logger}, nil
}

// AllDocuments returns the corpus snapshot: every page as a Document whose
// text is title + " " + content, ordered by page ID.
func (cdb *CrawlDB) AllDocuments(ctx context.Context) ([]model.Document, error) {
	rows, err := cdb.db.QueryContext(ctx, `SELECT id, title, content FROM pages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]model.Document, 0)
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.ID, &p.Title, &p.Content); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, model.NewDocument(&p))
	}

	return docs, rows.Err()
}

// GetPage retrieves a page by ID. It returns ErrPageNotFound when the ID
// does not exist.
func (cdb *CrawlDB) GetPage(ctx context.Context, id int64) (*model.Page, error) {
	query := `
	SELECT id, url, title, content, status_code, visited_at
	FROM pages
	WHERE id = ?
	`

	p, err := scanPage(cdb.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return p, nil
}

// RecentPages returns up to limit pages, most recently visited first.
func (cdb *CrawlDB) RecentPages(ctx context.Context, limit int) ([]*model.Page, error) {
	query := `
	SELECT id, url, title, content, status_code, visited_at
	FROM pages
	ORDER BY visited_at DESC, id DESC
	LIMIT ?
	`

	rows, err := cdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent pages: %w", err)
	}
	defer rows.Close()

	pages := make([]*model.Page, 0)
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		pages = append(pages, p)
	}

	return pages, rows.Err()
}

// Counts holds table sizes.
type Counts struct {
	Pages int64
	Links int64
}

// Counts returns the number of stored pages and links.
func (cdb *CrawlDB) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	err := cdb.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM pages), (SELECT COUNT(*) FROM links)`,
	).Scan(&c.Pages, &c.Links)
	if err != nil {
		return Counts{}, fmt.Errorf("failed to count rows: %w", err)
	}
	return c, nil
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPage(row rowScanner) (*model.Page, error) {
	var (
		p         model.Page
		visitedAt string
	)
	if err := row.Scan(&p.ID, &p.URL, &p.Title, &p.Content, &p.StatusCode, &visitedAt); err != nil {
		return nil, err
	}
	p.VisitedAt = parseTimestamp(visitedAt)
	return &p, nil
}

// formatTimestamp renders t in the stored layout.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",  // stored layout; fractional seconds are accepted when parsing
	"2006-01-02T15:04:05Z", // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",  // ISO 8601 without timezone
	time.RFC3339,
	time.RFC3339Nano,
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
