package results

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lexiread/lexiread/internal/fluency"
)

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

const ddlReadingResults = `
CREATE TABLE IF NOT EXISTS reading_results (
    id             TEXT PRIMARY KEY,
    session_id     TEXT NOT NULL,
    participant_id TEXT,
    passage_id     TEXT,
    wpm            DOUBLE PRECISION NOT NULL,
    wcpm           DOUBLE PRECISION,
    accuracy       DOUBLE PRECISION,
    errors         JSONB NOT NULL DEFAULT '[]'::jsonb,
    audio_url      TEXT,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reading_results_session_id
    ON reading_results (session_id);

CREATE INDEX IF NOT EXISTS idx_reading_results_participant_id
    ON reading_results (participant_id);
`

const ddlTranscripts = `
CREATE TABLE IF NOT EXISTS transcripts (
    session_id  TEXT NOT NULL,
    segment_id  INTEGER NOT NULL,
    text        TEXT NOT NULL,
    simplified  TEXT,
    start_sec   DOUBLE PRECISION NOT NULL,
    end_sec     DOUBLE PRECISION NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (session_id, segment_id)
);
`

// PostgresStore is a [Store] backed by a PostgreSQL connection pool.
//
// All methods are safe for concurrent use.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the PostgreSQL database at dsn and runs
// [MigratePostgres] to ensure the required tables exist.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("results store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("results store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("results store: ping: %w", err)
	}

	if err := MigratePostgres(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("results store: migrate: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Ping verifies database connectivity. Used by the readiness probe.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("results store: ping: %w", err)
	}
	return nil
}

// MigratePostgres creates or ensures the reading_results and transcripts
// tables exist. It is idempotent (CREATE TABLE IF NOT EXISTS / CREATE INDEX
// IF NOT EXISTS) and safe to call on every application start.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		ddlReadingResults,
		ddlTranscripts,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("results migrate: %w", err)
		}
	}
	return nil
}

// SaveResult implements [Store].
func (s *PostgresStore) SaveResult(ctx context.Context, r ReadingResult) (ReadingResult, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	errsJSON, err := json.Marshal(readingErrors(r.Errors))
	if err != nil {
		return ReadingResult{}, fmt.Errorf("results store: encode errors: %w", err)
	}

	const q = `
		INSERT INTO reading_results
		    (id, session_id, participant_id, passage_id, wpm, wcpm, accuracy, errors, audio_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.pool.Exec(ctx, q,
		r.ID,
		r.SessionID,
		r.ParticipantID,
		r.PassageID,
		r.WPM,
		r.WCPM,
		r.Accuracy,
		errsJSON,
		r.AudioURL,
		r.CreatedAt,
	)
	if err != nil {
		return ReadingResult{}, fmt.Errorf("results store: save result: %w", err)
	}
	return r, nil
}

// SaveTranscript implements [Store].
func (s *PostgresStore) SaveTranscript(ctx context.Context, t Transcript) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	const q = `
		INSERT INTO transcripts
		    (session_id, segment_id, text, simplified, start_sec, end_sec, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (session_id, segment_id) DO UPDATE
		SET text = EXCLUDED.text, simplified = EXCLUDED.simplified`

	_, err := s.pool.Exec(ctx, q,
		t.SessionID,
		t.SegmentID,
		t.Text,
		t.Simplified,
		t.Start,
		t.End,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("results store: save transcript: %w", err)
	}
	return nil
}

// Result implements [Store].
func (s *PostgresStore) Result(ctx context.Context, id string) (ReadingResult, error) {
	const q = `
		SELECT id, session_id, participant_id, passage_id, wpm, wcpm, accuracy, errors, audio_url, created_at
		FROM   reading_results
		WHERE  id = $1`

	rows, err := s.pool.Query(ctx, q, id)
	if err != nil {
		return ReadingResult{}, fmt.Errorf("results store: get result: %w", err)
	}
	results, err := collectResults(rows)
	if err != nil {
		return ReadingResult{}, err
	}
	if len(results) == 0 {
		return ReadingResult{}, ErrNotFound
	}
	return results[0], nil
}

// SessionResults implements [Store].
func (s *PostgresStore) SessionResults(ctx context.Context, sessionID string) ([]ReadingResult, error) {
	const q = `
		SELECT id, session_id, participant_id, passage_id, wpm, wcpm, accuracy, errors, audio_url, created_at
		FROM   reading_results
		WHERE  session_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("results store: session results: %w", err)
	}
	return collectResults(rows)
}

// ParticipantResults implements [Store].
func (s *PostgresStore) ParticipantResults(ctx context.Context, participantID string) ([]ReadingResult, error) {
	const q = `
		SELECT id, session_id, participant_id, passage_id, wpm, wcpm, accuracy, errors, audio_url, created_at
		FROM   reading_results
		WHERE  participant_id = $1
		ORDER  BY created_at`

	rows, err := s.pool.Query(ctx, q, participantID)
	if err != nil {
		return nil, fmt.Errorf("results store: participant results: %w", err)
	}
	return collectResults(rows)
}

// Close implements [Store]. It releases all connections held by the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// collectResults scans pgx rows into a slice of ReadingResult values.
func collectResults(rows pgx.Rows) ([]ReadingResult, error) {
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ReadingResult, error) {
		var (
			r        ReadingResult
			errsJSON []byte
		)
		if err := row.Scan(
			&r.ID,
			&r.SessionID,
			&r.ParticipantID,
			&r.PassageID,
			&r.WPM,
			&r.WCPM,
			&r.Accuracy,
			&errsJSON,
			&r.AudioURL,
			&r.CreatedAt,
		); err != nil {
			return ReadingResult{}, err
		}
		if err := json.Unmarshal(errsJSON, &r.Errors); err != nil {
			return ReadingResult{}, err
		}
		if len(r.Errors) == 0 {
			r.Errors = nil
		}
		return r, nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("results store: scan results: %w", err)
	}
	return results, nil
}

// readingErrors normalizes a nil slice to an empty one so the JSONB column
// always holds an array.
func readingErrors(errs []fluency.ReadingError) []fluency.ReadingError {
	if errs == nil {
		return []fluency.ReadingError{}
	}
	return errs
}
