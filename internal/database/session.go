package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Session is a store handle bound to one pooled connection.
// A Session is not safe for concurrent use; open one per task.
type Session struct {
	conn   *sql.Conn
	logger *slog.Logger
	now    func() time.Time
}

// PageExists reports whether a page with exactly this URL is stored.
func (s *Session) PageExists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM pages WHERE url = ?)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check page: %w", err)
	}
	return exists, nil
}

// SavePage stores a page. If the URL is already stored, nothing changes and
// nil is returned; two workers racing on the same URL both succeed.
func (s *Session) SavePage(ctx context.Context, url, title, content string, statusCode int) error {
	query := `
	INSERT INTO pages (url, title, content, status_code, visited_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(url) DO NOTHING
	`

	now := time.Now
	if s.now != nil {
		now = s.now
	}

	result, err := s.conn.ExecContext(ctx, query, url, title, content, statusCode, formatTimestamp(now()))
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		s.logger.Debug("page already exists", "url", url)
	}
	return nil
}

// SaveLink records an edge between two stored pages. When either URL is not
// stored, no row is written and nil is returned.
func (s *Session) SaveLink(ctx context.Context, fromURL, toURL string) error {
	query := `
	INSERT INTO links (from_page_id, to_page_id)
	SELECT f.id, t.id
	FROM pages f, pages t
	WHERE f.url = ? AND t.url = ?
	`

	if _, err := s.conn.ExecContext(ctx, query, fromURL, toURL); err != nil {
		return fmt.Errorf("failed to save link: %w", err)
	}
	return nil
}

// Close returns the connection to the pool.
func (s *Session) Close() error {
	return s.conn.Close()
}
