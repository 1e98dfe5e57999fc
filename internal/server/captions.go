package server

import (
	"net/http"

	"github.com/lexiread/lexiread/internal/caption"
	"github.com/lexiread/lexiread/internal/gloss"
)

type simplifyRequest struct {
	Text         string `json:"text"`
	Strength     int    `json:"strength"`
	ExtractFocus bool   `json:"extract_focus"`
}

func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	var req simplifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	writeJSON(w, http.StatusOK, s.simplifier.Simplify(req.Text, req.Strength, req.ExtractFocus))
}

type glossRequest struct {
	Text string `json:"text"`
	L1   string `json:"l1"`
	TopK int    `json:"top_k"`
}

func (s *Server) handleGloss(w http.ResponseWriter, r *http.Request) {
	var req glossRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" || req.L1 == "" {
		writeError(w, http.StatusBadRequest, "text and l1 are required")
		return
	}
	if req.TopK <= 0 {
		req.TopK = gloss.DefaultTopK
	}

	writeJSON(w, http.StatusOK, s.glossLib().Gloss(req.Text, req.L1, req.TopK))
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"languages": s.glossLib().Languages(),
	})
}

func (s *Server) handleActiveSessions(w http.ResponseWriter, _ *http.Request) {
	infos := s.sessions.Snapshot()
	if infos == nil {
		infos = []caption.SessionInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    s.sessions.Count(),
		"sessions": infos,
	})
}
