// Package results persists reading assessment outcomes and session
// transcripts. Two implementations of [Store] are provided: an in-memory
// store for tests and single-process deployments without a database, and a
// PostgreSQL-backed store in [NewPostgres].
package results

import (
	"context"
	"errors"
	"time"

	"github.com/lexiread/lexiread/internal/fluency"
)

// ErrNotFound is returned by lookup methods when no record matches.
var ErrNotFound = errors.New("results: not found")

// ReadingResult is one scored reading attempt. WCPM and Accuracy are nil when
// the attempt was scored without a reference text.
type ReadingResult struct {
	ID            string                 `json:"id"`
	SessionID     string                 `json:"session_id"`
	ParticipantID *string                `json:"participant_id,omitempty"`
	PassageID     *string                `json:"passage_id,omitempty"`
	WPM           float64                `json:"wpm"`
	WCPM          *float64               `json:"wcpm,omitempty"`
	Accuracy      *float64               `json:"accuracy,omitempty"`
	Errors        []fluency.ReadingError `json:"errors,omitempty"`
	AudioURL      *string                `json:"audio_url,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Transcript is one finalized caption segment saved from a live session.
type Transcript struct {
	SessionID  string    `json:"session_id"`
	SegmentID  int       `json:"segment_id"`
	Text       string    `json:"text"`
	Simplified *string   `json:"simplified,omitempty"`
	Start      float64   `json:"start"`
	End        float64   `json:"end"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists reading results and transcripts.
//
// All methods are safe for concurrent use. Implementations fill in
// [ReadingResult.ID] and [ReadingResult.CreatedAt] on save when unset.
type Store interface {
	// SaveResult stores one reading result and returns it with its assigned
	// ID and creation timestamp.
	SaveResult(ctx context.Context, r ReadingResult) (ReadingResult, error)

	// SaveTranscript stores one finalized caption segment.
	SaveTranscript(ctx context.Context, t Transcript) error

	// Result returns the single result with the given ID.
	Result(ctx context.Context, id string) (ReadingResult, error)

	// SessionResults returns all results recorded under sessionID, oldest first.
	SessionResults(ctx context.Context, sessionID string) ([]ReadingResult, error)

	// ParticipantResults returns all results recorded for participantID,
	// oldest first.
	ParticipantResults(ctx context.Context, participantID string) ([]ReadingResult, error)

	// Close releases any resources held by the store.
	Close() error
}
