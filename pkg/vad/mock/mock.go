// Package mock provides test doubles for the vad package interfaces.
package mock

import (
	"sync"

	"github.com/lexiread/lexiread/pkg/vad"
)

// Engine is a mock implementation of vad.Engine.
type Engine struct {
	mu sync.Mutex

	// Session is the SessionHandle returned by NewSession. If nil, NewSession
	// returns a new default Session.
	Session vad.SessionHandle

	// NewSessionErr, if non-nil, is returned as the error from NewSession.
	NewSessionErr error

	// Configs records the Config passed to every NewSession call.
	Configs []vad.Config
}

var _ vad.Engine = (*Engine)(nil)

// NewSession records the call and returns Session, NewSessionErr.
func (e *Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Configs = append(e.Configs, cfg)
	if e.NewSessionErr != nil {
		return nil, e.NewSessionErr
	}
	if e.Session != nil {
		return e.Session, nil
	}
	return &Session{}, nil
}

// Session is a mock implementation of vad.SessionHandle. Events are returned
// in order, one per ProcessFrame call; after the slice is exhausted the last
// element is returned again. An empty Events slice yields Silence events.
type Session struct {
	Events []vad.Event
	Err    error

	// Frames records every frame passed to ProcessFrame.
	Frames [][]byte

	// ResetCount counts Reset calls.
	ResetCount int

	next   int
	closed bool
}

var _ vad.SessionHandle = (*Session)(nil)

// ProcessFrame implements vad.SessionHandle.
func (s *Session) ProcessFrame(frame []byte) (vad.Event, error) {
	s.Frames = append(s.Frames, append([]byte(nil), frame...))
	if s.Err != nil {
		return vad.Event{}, s.Err
	}
	if len(s.Events) == 0 {
		return vad.Event{Type: vad.Silence}, nil
	}
	ev := s.Events[s.next]
	if s.next < len(s.Events)-1 {
		s.next++
	}
	return ev, nil
}

// Reset implements vad.SessionHandle.
func (s *Session) Reset() {
	s.ResetCount++
	s.next = 0
}

// Close implements vad.SessionHandle.
func (s *Session) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	return s.closed
}
