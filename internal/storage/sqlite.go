package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// SQLiteStorage implements Store using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		product TEXT,
		intent TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		result_count INTEGER NOT NULL DEFAULT 0,
		top_score REAL NOT NULL DEFAULT 0,
		report TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS results (
		run_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		normalized_url TEXT NOT NULL,
		final_score REAL NOT NULL,
		validated INTEGER NOT NULL,
		data TEXT NOT NULL,
		PRIMARY KEY (run_id, normalized_url),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_results_score ON results(final_score DESC);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun inserts or replaces a run and all of its results in one transaction.
func (s *SQLiteStorage) SaveRun(ctx context.Context, report *models.RunReport) error {
	if report.ID == "" {
		return fmt.Errorf("run has no id")
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE run_id = ?`, report.ID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, company, product, intent, started_at, finished_at, result_count, top_score, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID, report.Params.Company, report.Params.Product, string(report.Params.Intent),
		report.StartedAt, report.FinishedAt, len(report.Results), topScore(report.Results), string(reportJSON),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO results (run_id, rank, normalized_url, final_score, validated, data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, r := range report.Results {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal result %s: %w", r.NormalizedURL, err)
		}
		rank := r.Rank
		if rank == 0 {
			rank = i + 1
		}
		if _, err := stmt.ExecContext(ctx, report.ID, rank, r.NormalizedURL, r.FinalScore, r.Validated, string(data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func topScore(results []models.FinalResult) float64 {
	top := 0.0
	for _, r := range results {
		top = max(top, r.FinalScore)
	}
	return top
}

// GetRun returns a run by ID.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*models.RunReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report FROM runs WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var report models.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &report, nil
}

// ListRuns returns run summaries, newest first, with offset and limit.
func (s *SQLiteStorage) ListRuns(ctx context.Context, offset, limit int) ([]models.RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, company, product, intent, started_at, result_count, top_score
		 FROM runs ORDER BY started_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.RunSummary
	for rows.Next() {
		var r models.RunSummary
		var product sql.NullString
		var intent string
		var started time.Time
		if err := rows.Scan(&r.ID, &r.Company, &product, &intent, &started, &r.ResultCount, &r.TopScore); err != nil {
			return nil, err
		}
		r.Product = product.String
		r.Intent = models.Intent(intent)
		r.StartedAt = started
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its results.
func (s *SQLiteStorage) DeleteRun(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrRunNotFound, id)
	}
	return nil
}

// TopResults returns the best results across stored runs, highest final score first.
func (s *SQLiteStorage) TopResults(ctx context.Context, filter ResultFilter) ([]StoredResult, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	var (
		where []string
		args  []interface{}
	)
	if filter.Company != "" {
		where = append(where, "runs.company = ? COLLATE NOCASE")
		args = append(args, filter.Company)
	}
	if filter.MinScore > 0 {
		where = append(where, "results.final_score >= ?")
		args = append(args, filter.MinScore)
	}
	if filter.ConfirmedOnly {
		where = append(where, "results.validated = 1")
	}
	q := `SELECT results.run_id, results.data FROM results JOIN runs ON runs.id = results.run_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY results.final_score DESC, runs.started_at DESC, results.rank LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoredResult
	for rows.Next() {
		var sr StoredResult
		var data string
		if err := rows.Scan(&sr.RunID, &data); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(data), &sr.FinalResult); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		out = append(out, sr)
	}
	return out, rows.Err()
}

// CountRuns returns the total number of stored runs.
func (s *SQLiteStorage) CountRuns(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
