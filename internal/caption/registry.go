package caption

import "sync"

// SessionInfo is a point-in-time view of one connected session.
type SessionInfo struct {
	ID       string  `json:"id"`
	Duration float64 `json:"duration"`
}

// Registry tracks currently connected sessions for introspection endpoints.
// The zero value is ready to use. All methods are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// Add registers a session until [Registry.Remove] is called with its ID.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	if r.sessions == nil {
		r.sessions = make(map[string]*Session)
	}
	r.sessions[s.ID()] = s
	r.mu.Unlock()
}

// Remove drops the session with the given ID, if present.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Count returns the number of connected sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Snapshot returns the connected sessions with their ages in seconds.
func (r *Registry) Snapshot() []SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		infos = append(infos, SessionInfo{ID: s.ID(), Duration: s.Age().Seconds()})
	}
	return infos
}
