// Package db provides PostgreSQL storage for assistant runs and the
// artifacts each stage produces.
package db

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the run and artifact tables if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// CreateRun records a new run in the running state.
func (db *DB) CreateRun(ctx context.Context, runID uuid.UUID, userInput, jobDescription string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO assistant_runs (id, user_input, job_description, status)
		 VALUES ($1, $2, $3, $4)`,
		runID, userInput, jobDescription, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

// CompleteRun stores the final mode and status of a run. For a failed run
// output holds the error message.
func (db *DB) CompleteRun(ctx context.Context, runID uuid.UUID, mode, status, output string) error {
	var outputCol, errCol *string
	if status == RunStatusFailed {
		errCol = &output
	} else {
		outputCol = &output
	}

	_, err := db.pool.Exec(ctx,
		`UPDATE assistant_runs
		 SET mode = NULLIF($1, ''), status = $2, output = $3, error_message = $4, completed_at = NOW()
		 WHERE id = $5`,
		mode, status, outputCol, errCol, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// SaveTextArtifact stores a stage's text output. Text that is a JSON document
// is also kept in the JSON column so it can be queried.
func (db *DB) SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error {
	var content []byte
	if trimmed := strings.TrimSpace(text); strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		content = []byte(trimmed)
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO assistant_artifacts (run_id, step, category, content, text_content)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, step) DO UPDATE SET category = $3, content = $4, text_content = $5, created_at = NOW()`,
		runID, step, category, content, text,
	)
	if err != nil {
		return fmt.Errorf("failed to save text artifact %s: %w", step, err)
	}
	return nil
}

const runColumns = `id, COALESCE(mode, ''), status, user_input, job_description,
	COALESCE(output, ''), COALESCE(error_message, ''), created_at, completed_at`

func scanRun(row pgx.Row) (*Run, error) {
	var run Run
	err := row.Scan(&run.ID, &run.Mode, &run.Status, &run.UserInput, &run.JobDescription,
		&run.Output, &run.ErrorMessage, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// GetRun retrieves a run by ID, returning ErrNotFound when it does not exist.
func (db *DB) GetRun(ctx context.Context, runID uuid.UUID) (*Run, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM assistant_runs WHERE id = $1`, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent runs, newest first.
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]Run, error) {
	query, args := buildListRunsQuery(filters)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func buildListRunsQuery(filters RunFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = DefaultListLimit
	}

	query := `SELECT ` + runColumns + ` FROM assistant_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Mode != "" {
		query += fmt.Sprintf(" AND mode = $%d", argNum)
		args = append(args, filters.Mode)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	return query, args
}

// ListArtifacts retrieves the artifacts of a run in the order they were written.
func (db *DB) ListArtifacts(ctx context.Context, runID uuid.UUID) ([]Artifact, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, run_id, step, COALESCE(category, ''), content, COALESCE(text_content, ''), created_at
		 FROM assistant_artifacts WHERE run_id = $1 ORDER BY created_at ASC`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []Artifact{}
	for rows.Next() {
		var a Artifact
		var content []byte
		if err := rows.Scan(&a.ID, &a.RunID, &a.Step, &a.Category, &content, &a.TextContent, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}
		a.Content = decodeContent(content)
		artifacts = append(artifacts, a)
	}
	return artifacts, rows.Err()
}

// Summaries reduces artifacts to their listing view.
func Summaries(artifacts []Artifact) []ArtifactSummary {
	out := make([]ArtifactSummary, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, ArtifactSummary{
			ID:        a.ID,
			Step:      a.Step,
			Category:  a.Category,
			CreatedAt: a.CreatedAt,
			HasJSON:   a.Content != nil,
			HasText:   a.TextContent != "",
		})
	}
	return out
}

func decodeContent(content []byte) any {
	if len(content) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return nil
	}
	return v
}

// DeleteRun deletes a run and all its artifacts (via cascade)
func (db *DB) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM assistant_runs WHERE id = $1`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	return nil
}
