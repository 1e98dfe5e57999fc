package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lexiread/lexiread/internal/fluency"
	"github.com/lexiread/lexiread/internal/results"
	"github.com/lexiread/lexiread/pkg/asr"
	"github.com/lexiread/lexiread/pkg/audio"
)

// maxAudioUpload caps score_audio uploads at 32 MiB.
const maxAudioUpload = 32 << 20

func (s *Server) handlePassages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	passages := s.passageLib().Filter(q.Get("grade"), q.Get("cefr"))

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(passages),
		"passages": passages,
	})
}

type scoreRequest struct {
	WordsRead int `json:"words_read"`
	Seconds   int `json:"seconds"`
	Errors    int `json:"errors"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.WordsRead < 0 || req.Seconds < 0 || req.Errors < 0 {
		writeError(w, http.StatusBadRequest, "words_read, seconds, and errors must not be negative")
		return
	}

	s.metrics.RecordScoreRequest(r.Context(), "counts")
	writeJSON(w, http.StatusOK, fluency.ScoreCounts(req.WordsRead, req.Seconds, req.Errors))
}

func (s *Server) handleScoreAudio(w http.ResponseWriter, r *http.Request) {
	if s.transcrib == nil {
		writeError(w, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("audio_file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio_file")
		return
	}

	pcm, sampleRate, channels, err := audio.DecodeWAV(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio_file must be 16-bit PCM WAV")
		return
	}
	if channels == 2 {
		pcm = audio.StereoToMono(pcm)
	}

	reference := r.FormValue("reference_text")
	if reference == "" {
		if id := r.FormValue("passage_id"); id != "" {
			p, ok := s.passageLib().ByID(id)
			if !ok {
				writeError(w, http.StatusNotFound, fmt.Sprintf("passage %q not found", id))
				return
			}
			reference = p.Text
		}
	}

	ctx := r.Context()
	s.metrics.RecordScoreRequest(ctx, "audio")

	start := time.Now()
	seg, err := s.transcrib.Transcribe(ctx, pcm, asr.Options{
		SampleRate:     sampleRate,
		WordTimestamps: true,
	})
	if err != nil {
		s.log.Error("scoring transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}

	result := fluency.Score(seg, reference)
	s.metrics.ScoreDuration.Record(ctx, time.Since(start).Seconds())

	if r.FormValue("save") == "true" {
		if sessionID := r.FormValue("session_id"); sessionID != "" {
			saved := results.ReadingResult{
				SessionID: sessionID,
				WPM:       result.WPM,
				WCPM:      result.WCPM,
				Accuracy:  result.Accuracy,
				Errors:    result.Errors,
			}
			if pid := r.FormValue("participant_id"); pid != "" {
				saved.ParticipantID = &pid
			}
			if id := r.FormValue("passage_id"); id != "" {
				saved.PassageID = &id
			}
			if _, err := s.store.SaveResult(ctx, saved); err != nil {
				s.log.Error("result persist failed", "session_id", sessionID, "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSaveResult(w http.ResponseWriter, r *http.Request) {
	var req results.ReadingResult
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	saved, err := s.store.SaveResult(r.Context(), req)
	if err != nil {
		s.log.Error("result persist failed", "session_id", req.SessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save result")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleSessionResults(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	rs, err := s.store.SessionResults(r.Context(), sessionID)
	if err != nil {
		s.log.Error("result lookup failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load results")
		return
	}
	if rs == nil {
		rs = []results.ReadingResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"count":      len(rs),
		"results":    rs,
	})
}

func (s *Server) handleParticipantResults(w http.ResponseWriter, r *http.Request) {
	participantID := r.PathValue("participant_id")

	rs, err := s.store.ParticipantResults(r.Context(), participantID)
	if err != nil {
		s.log.Error("result lookup failed", "participant_id", participantID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load results")
		return
	}
	if rs == nil {
		rs = []results.ReadingResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"participant_id": participantID,
		"count":          len(rs),
		"results":        rs,
	})
}

func (s *Server) handleExportResults(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	rs, err := s.store.SessionResults(r.Context(), sessionID)
	if err != nil {
		s.log.Error("result export failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load results")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=reading-results-%s.csv", sessionID))
	if err := results.WriteCSV(w, rs); err != nil {
		s.log.Error("csv write failed", "session_id", sessionID, "error", err)
	}
}
