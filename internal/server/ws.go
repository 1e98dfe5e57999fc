package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/lexiread/lexiread/internal/caption"
)

// pingInterval is how often an idle caption socket is probed. Clients answer
// with a pong text message.
const pingInterval = 60 * time.Second

// handleCaptionStream upgrades the request to a WebSocket and runs one
// caption session until the client stops it or disconnects. JSON text
// messages carry control traffic; binary messages carry 16-bit mono PCM.
func (s *Server) handleCaptionStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected shutdown")

	ctx := r.Context()

	// The session and the keepalive ticker both write; serialize them.
	var writeMu sync.Mutex
	send := func(ctx context.Context, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("server: marshal message: %w", err)
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.Write(ctx, websocket.MessageText, data)
	}

	sess := caption.NewSession(caption.SessionConfig{
		Transcriber: s.transcrib,
		VAD:         s.vadEngine,
		Simplifier:  s.simplifier,
		Glossary:    s.glossLib(),
		Store:       s.store,
		Buffer:      s.bufferCfg(),
		Metrics:     s.metrics,
		Logger:      s.log,
	}, send)

	s.sessions.Add(sess)
	s.metrics.ActiveSessions.Add(ctx, 1)
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		s.sessions.Remove(sess.ID())
		s.metrics.ActiveSessions.Add(cleanupCtx, -1)
		if err := sess.Close(cleanupCtx); err != nil {
			s.log.Warn("session close failed", "session_id", sess.ID(), "error", err)
		}
	}()

	if err := sess.Ready(ctx); err != nil {
		return
	}
	s.log.Info("caption session connected", "session_id", sess.ID())

	// Keepalive probes for idle connections.
	pingCtx, stopPings := context.WithCancel(ctx)
	defer stopPings()
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				if err := sess.Ping(pingCtx); err != nil {
					return
				}
			}
		}
	}()

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				s.log.Info("caption session closed by client", "session_id", sess.ID())
			} else if ctx.Err() == nil {
				s.log.Warn("caption socket read failed", "session_id", sess.ID(), "error", err)
			}
			return
		}

		switch typ {
		case websocket.MessageText:
			stop, err := sess.HandleText(ctx, data)
			if err != nil {
				s.log.Warn("control message failed", "session_id", sess.ID(), "error", err)
				continue
			}
			if stop {
				conn.Close(websocket.StatusNormalClosure, "session stopped")
				return
			}
		case websocket.MessageBinary:
			s.metrics.AudioBytes.Add(ctx, int64(len(data)))
			if err := sess.HandleBinary(ctx, data); err != nil {
				s.log.Warn("audio chunk failed", "session_id", sess.ID(), "error", err)
			}
		}
	}
}
