package results

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory [Store]. It is the default when no database DSN
// is configured; all data is lost on process exit.
type MemoryStore struct {
	mu          sync.RWMutex
	results     []ReadingResult
	transcripts []Transcript
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

// SaveResult implements [Store].
func (s *MemoryStore) SaveResult(_ context.Context, r ReadingResult) (ReadingResult, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.results = append(s.results, r)
	s.mu.Unlock()
	return r, nil
}

// SaveTranscript implements [Store].
func (s *MemoryStore) SaveTranscript(_ context.Context, t Transcript) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.transcripts = append(s.transcripts, t)
	s.mu.Unlock()
	return nil
}

// Result implements [Store].
func (s *MemoryStore) Result(_ context.Context, id string) (ReadingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.results {
		if r.ID == id {
			return r, nil
		}
	}
	return ReadingResult{}, ErrNotFound
}

// SessionResults implements [Store].
func (s *MemoryStore) SessionResults(_ context.Context, sessionID string) ([]ReadingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ReadingResult
	for _, r := range s.results {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ParticipantResults implements [Store].
func (s *MemoryStore) ParticipantResults(_ context.Context, participantID string) ([]ReadingResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ReadingResult
	for _, r := range s.results {
		if r.ParticipantID != nil && *r.ParticipantID == participantID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Transcripts returns all transcripts recorded under sessionID, oldest first.
func (s *MemoryStore) Transcripts(sessionID string) []Transcript {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Transcript
	for _, t := range s.transcripts {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out
}

// Close implements [Store]. It is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
