// Package server exposes the lexiread HTTP surface: the live caption
// WebSocket, text simplification and glossing endpoints, reading passages,
// fluency scoring, persisted results, and operational endpoints (health,
// readiness, Prometheus metrics).
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lexiread/lexiread/internal/caption"
	"github.com/lexiread/lexiread/internal/gloss"
	"github.com/lexiread/lexiread/internal/health"
	"github.com/lexiread/lexiread/internal/observe"
	"github.com/lexiread/lexiread/internal/passage"
	"github.com/lexiread/lexiread/internal/results"
	"github.com/lexiread/lexiread/internal/simplify"
	"github.com/lexiread/lexiread/pkg/asr"
	"github.com/lexiread/lexiread/pkg/vad"
)

// Deps holds one value per subsystem the server draws on. Nil fields fall
// back to sensible defaults in [New]; a nil Transcriber runs caption sessions
// in text-only mode.
type Deps struct {
	Transcriber asr.Transcriber
	VAD         vad.Engine
	Simplifier  *simplify.Simplifier
	Glossary    *gloss.Glossary
	Passages    *passage.Library
	Store       results.Store
	Metrics     *observe.Metrics
	Health      *health.Handler
	Logger      *slog.Logger

	// Buffer tunes caption segmentation for all sessions.
	Buffer caption.BufferConfig
}

// Server routes HTTP and WebSocket traffic to the lexiread subsystems.
type Server struct {
	log        *slog.Logger
	metrics    *observe.Metrics
	transcrib  asr.Transcriber
	vadEngine  vad.Engine
	simplifier *simplify.Simplifier
	store      results.Store

	// mu guards the hot-reloadable pieces below. Live caption sessions keep
	// the values they started with.
	mu       sync.RWMutex
	glossary *gloss.Glossary
	passages *passage.Library
	buffer   caption.BufferConfig

	sessions caption.Registry
	mux      *http.ServeMux
}

// New creates a Server and registers all routes.
func New(deps Deps) *Server {
	s := &Server{
		log:        deps.Logger,
		metrics:    deps.Metrics,
		transcrib:  deps.Transcriber,
		vadEngine:  deps.VAD,
		simplifier: deps.Simplifier,
		glossary:   deps.Glossary,
		passages:   deps.Passages,
		store:      deps.Store,
		buffer:     deps.Buffer,
		mux:        http.NewServeMux(),
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.simplifier == nil {
		s.simplifier = simplify.New()
	}
	if s.glossary == nil {
		s.glossary = gloss.New()
	}
	if s.passages == nil {
		s.passages = passage.Defaults()
	}
	if s.store == nil {
		s.store = results.NewMemory()
	}

	s.routes(deps.Health)
	return s
}

func (s *Server) routes(h *health.Handler) {
	// Captions.
	s.mux.HandleFunc("GET /v1/captions/stream", s.handleCaptionStream)
	s.mux.HandleFunc("GET /v1/captions/active-sessions", s.handleActiveSessions)
	s.mux.HandleFunc("POST /v1/captions/simplify", s.handleSimplify)
	s.mux.HandleFunc("POST /v1/captions/gloss", s.handleGloss)
	s.mux.HandleFunc("GET /v1/captions/languages", s.handleLanguages)

	// Reading assessment.
	s.mux.HandleFunc("GET /v1/reading/passages", s.handlePassages)
	s.mux.HandleFunc("POST /v1/reading/score", s.handleScore)
	s.mux.HandleFunc("POST /v1/reading/score_audio", s.handleScoreAudio)
	s.mux.HandleFunc("POST /v1/reading/results", s.handleSaveResult)
	s.mux.HandleFunc("GET /v1/reading/results/{session_id}", s.handleSessionResults)
	s.mux.HandleFunc("GET /v1/reading/results/{session_id}/export", s.handleExportResults)
	s.mux.HandleFunc("GET /v1/reading/participants/{participant_id}/results", s.handleParticipantResults)

	// Operational.
	if h != nil {
		h.Register(s.mux)
	}
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the complete HTTP handler with observability middleware.
func (s *Server) Handler() http.Handler {
	return observe.Middleware(s.metrics)(s.mux)
}

// SetPassages replaces the passage library. Used by config hot reload.
func (s *Server) SetPassages(lib *passage.Library) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passages = lib
}

// SetGlossary replaces the glossary. Used by config hot reload.
func (s *Server) SetGlossary(g *gloss.Glossary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.glossary = g
}

// SetCaptionBuffer replaces the caption segmentation settings for sessions
// started after the call.
func (s *Server) SetCaptionBuffer(cfg caption.BufferConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffer = cfg
}

func (s *Server) passageLib() *passage.Library {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.passages
}

func (s *Server) glossLib() *gloss.Glossary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.glossary
}

func (s *Server) bufferCfg() caption.BufferConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.buffer
}

// writeJSON encodes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

// writeError sends a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
