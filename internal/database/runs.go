package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a crawl run ID does not exist.
var ErrRunNotFound = errors.New("crawl run not found")

// CrawlRun is the history record of one crawler invocation.
type CrawlRun struct {
	ID          uuid.UUID
	StartedAt   time.Time
	FinishedAt  time.Time // zero while the run is in progress
	Seeds       []string
	MaxDepth    int
	Concurrency int
	PagesSaved  int
}

// StartRun records the beginning of a crawl and returns the new run.
func (cdb *CrawlDB) StartRun(ctx context.Context, seeds []string, maxDepth, concurrency int) (*CrawlRun, error) {
	seedsJSON, err := json.Marshal(seeds)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize seeds: %w", err)
	}

	run := &CrawlRun{
		ID:          uuid.New(),
		StartedAt:   time.Now().UTC(),
		Seeds:       seeds,
		MaxDepth:    maxDepth,
		Concurrency: concurrency,
	}

	query := `
	INSERT INTO crawl_runs (id, started_at, seeds, max_depth, concurrency)
	VALUES (?, ?, ?, ?, ?)
	`

	_, err = cdb.db.ExecContext(ctx, query,
		run.ID.String(),
		formatTimestamp(run.StartedAt),
		string(seedsJSON),
		maxDepth,
		concurrency,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start crawl run: %w", err)
	}

	return run, nil
}

// FinishRun marks a run as finished with the number of pages it saved.
func (cdb *CrawlDB) FinishRun(ctx context.Context, id uuid.UUID, pagesSaved int) error {
	result, err := cdb.db.ExecContext(ctx,
		`UPDATE crawl_runs SET finished_at = ?, pages_saved = ? WHERE id = ?`,
		formatTimestamp(time.Now()), pagesSaved, id.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to finish crawl run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// runColumns is the column list read by scanRun.
const runColumns = `id, started_at, finished_at, seeds, max_depth, concurrency, pages_saved`

// GetRun retrieves a crawl run by ID.
func (cdb *CrawlDB) GetRun(ctx context.Context, id uuid.UUID) (*CrawlRun, error) {
	row := cdb.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM crawl_runs WHERE id = ?`, id.String())

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit crawl runs, most recently started first.
func (cdb *CrawlDB) ListRuns(ctx context.Context, limit int) ([]*CrawlRun, error) {
	rows, err := cdb.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM crawl_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*CrawlRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// scanRun reads one crawl_runs row selected with runColumns.
func scanRun(row rowScanner) (*CrawlRun, error) {
	var (
		run        CrawlRun
		rawID      string
		startedAt  string
		finishedAt sql.NullString
		seedsJSON  string
	)
	err := row.Scan(
		&rawID,
		&startedAt,
		&finishedAt,
		&seedsJSON,
		&run.MaxDepth,
		&run.Concurrency,
		&run.PagesSaved,
	)
	if err != nil {
		return nil, err
	}

	run.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid crawl run id %q: %w", rawID, err)
	}
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	if err := json.Unmarshal([]byte(seedsJSON), &run.Seeds); err != nil {
		return nil, fmt.Errorf("failed to parse seeds: %w", err)
	}

	return &run, nil
}
