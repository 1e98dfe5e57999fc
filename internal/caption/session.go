package caption

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexiread/lexiread/internal/gloss"
	"github.com/lexiread/lexiread/internal/observe"
	"github.com/lexiread/lexiread/internal/results"
	"github.com/lexiread/lexiread/internal/simplify"
	"github.com/lexiread/lexiread/pkg/asr"
	"github.com/lexiread/lexiread/pkg/vad"
)

// defaultSampleRate is assumed when a start message omits sample_rate.
const defaultSampleRate = 16000

// SendFunc delivers one outbound protocol message to the client. The session
// serializes calls; implementations need not add their own locking.
type SendFunc func(ctx context.Context, v any) error

// SessionConfig carries the shared dependencies a [Session] draws on.
type SessionConfig struct {
	// Transcriber produces transcriptions. Nil runs the session in text-only
	// mode: audio is accepted but ignored.
	Transcriber asr.Transcriber

	// VAD supplies voice activity detection sessions. Nil, or a failing
	// NewSession, degrades to duration-based utterance boundaries.
	VAD vad.Engine

	// Simplifier rewrites finalized captions when the client asks for it.
	Simplifier *simplify.Simplifier

	// Glossary translates key vocabulary when the client names an L1.
	Glossary *gloss.Glossary

	// Store persists transcripts when the client opts in. May be nil.
	Store results.Store

	// Buffer overrides segment buffer tuning. SampleRate and Language are
	// taken from the start message and ignored here.
	Buffer BufferConfig

	// Metrics receives caption counters and transcription latencies. May be nil.
	Metrics *observe.Metrics

	Logger *slog.Logger
}

// Session is one live captioning connection. It owns a [SegmentBuffer] once
// started and translates buffer events into protocol messages.
//
// All methods must be called from the connection's read loop goroutine.
type Session struct {
	id   string
	cfg  SessionConfig
	send SendFunc
	log  *slog.Logger

	startedAt time.Time
	buffer    *SegmentBuffer
	started   bool
	segmentID int

	save             bool
	simplifyStrength int
	l1               string
}

// NewSession creates a session writing outbound messages through send.
func NewSession(cfg SessionConfig, send SendFunc) *Session {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		id:        id,
		cfg:       cfg,
		send:      send,
		log:       log.With("session_id", id),
		startedAt: time.Now(),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Age returns how long the session has been connected.
func (s *Session) Age() time.Duration { return time.Since(s.startedAt) }

// Ready sends the initial handshake message after the socket is accepted.
func (s *Session) Ready(ctx context.Context) error {
	return s.send(ctx, readyMessage{Type: "ready"})
}

// Ping sends a keepalive probe. Clients answer with a pong text message.
func (s *Session) Ping(ctx context.Context) error {
	return s.send(ctx, pingMessage{Type: "ping"})
}

// HandleText processes one JSON control message. It returns stop=true when
// the client asked to end the session.
func (s *Session) HandleText(ctx context.Context, raw []byte) (stop bool, err error) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return false, s.send(ctx, errorMessage{Type: "error", Message: "Invalid JSON"})
	}

	switch msg.Type {
	case msgStart:
		return false, s.handleStart(ctx, msg)
	case msgStop:
		s.finalizePending(ctx)
		return true, nil
	case msgPong:
		return false, nil
	default:
		return false, s.send(ctx, errorMessage{
			Type:    "error",
			Message: fmt.Sprintf("Unknown message type: %s", msg.Type),
		})
	}
}

func (s *Session) handleStart(ctx context.Context, msg clientMessage) error {
	s.save = msg.Save
	s.simplifyStrength = msg.Simplify
	s.l1 = msg.L1
	s.started = true

	if s.cfg.Transcriber == nil {
		s.log.Info("session started without transcription")
		return s.send(ctx, startedMessage{
			Type:       "started",
			ASREnabled: false,
			Message:    "ASR disabled, text-only mode",
		})
	}

	sampleRate := msg.SampleRate
	if sampleRate <= 0 {
		sampleRate = s.cfg.Buffer.SampleRate
	}
	if sampleRate <= 0 {
		sampleRate = defaultSampleRate
	}

	bufCfg := s.cfg.Buffer
	bufCfg.SampleRate = sampleRate
	if msg.Lang != "" {
		bufCfg.Language = msg.Lang
	}
	bufCfg.applyDefaults()

	var vadSess vad.SessionHandle
	if s.cfg.VAD != nil {
		var err error
		vadSess, err = s.cfg.VAD.NewSession(vad.Config{
			SampleRate:      sampleRate,
			FrameSizeMs:     bufCfg.FrameSizeMs,
			EnergyThreshold: bufCfg.EnergyThreshold,
		})
		if err != nil {
			s.log.Warn("vad unavailable, using duration-based segmentation", "error", err)
			vadSess = nil
		}
	}

	buffer, err := NewSegmentBuffer(bufCfg, s.cfg.Transcriber, vadSess)
	if err != nil {
		return fmt.Errorf("caption: start session: %w", err)
	}
	s.buffer = buffer

	s.log.Info("session started",
		"sample_rate", sampleRate,
		"lang", msg.Lang,
		"save", msg.Save,
		"simplify", msg.Simplify,
		"l1", msg.L1,
	)
	return s.send(ctx, startedMessage{Type: "started", ASREnabled: true})
}

// HandleBinary processes one chunk of PCM audio: it feeds the buffer, emits a
// partial caption when enough new speech has accumulated, and finalizes the
// segment when the speaker pauses. Audio received before start, or in
// text-only mode, is discarded.
func (s *Session) HandleBinary(ctx context.Context, chunk []byte) error {
	if !s.started || s.buffer == nil {
		return nil
	}

	if err := s.buffer.Feed(chunk); err != nil {
		return err
	}

	if s.buffer.PartialReady() {
		start := time.Now()
		text, err := s.buffer.Partial(ctx)
		if m := s.cfg.Metrics; m != nil {
			m.RecordASR(ctx, "partial", time.Since(start).Seconds(), err)
		}
		if err != nil {
			s.log.Debug("partial transcription failed", "error", err)
		} else if text != "" {
			if m := s.cfg.Metrics; m != nil {
				m.PartialCaptions.Add(ctx, 1)
			}
			err := s.send(ctx, partialMessage{
				Type: "partial",
				Text: text,
				TS:   [2]float64{0, s.buffer.Duration().Seconds()},
			})
			if err != nil {
				return err
			}
		}
	}

	if s.buffer.ShouldFlush() {
		return s.finalize(ctx)
	}
	return nil
}

// finalize flushes the buffer and sends a final caption for the utterance.
// Transcription failures are logged and the session continues.
func (s *Session) finalize(ctx context.Context) error {
	start := time.Now()
	seg, err := s.buffer.Flush(ctx)
	if m := s.cfg.Metrics; m != nil {
		m.RecordASR(ctx, "final", time.Since(start).Seconds(), err)
	}
	if err != nil {
		s.log.Error("segment transcription failed", "error", err)
		return nil
	}
	if seg == nil {
		return nil
	}

	msg := finalMessage{
		Type:      "final",
		Text:      seg.Text,
		Words:     wireWords(seg.Words),
		SegmentID: s.segmentID,
	}
	s.segmentID++

	if s.simplifyStrength > 0 && s.cfg.Simplifier != nil {
		res := s.cfg.Simplifier.Simplify(seg.Text, s.simplifyStrength, true)
		msg.Simplified = res.Simplified
		msg.Focus = res.Focus
	}
	if s.l1 != "" && s.cfg.Glossary != nil {
		msg.Gloss = s.cfg.Glossary.Gloss(seg.Text, s.l1, gloss.DefaultTopK).Gloss
	}

	if s.save && s.cfg.Store != nil {
		t := results.Transcript{
			SessionID: s.id,
			SegmentID: msg.SegmentID,
			Text:      seg.Text,
			Start:     seg.Start.Seconds(),
			End:       seg.End.Seconds(),
		}
		if msg.Simplified != "" {
			simplified := msg.Simplified
			t.Simplified = &simplified
		}
		if err := s.cfg.Store.SaveTranscript(ctx, t); err != nil {
			s.log.Error("transcript persist failed", "error", err)
		}
	}

	if m := s.cfg.Metrics; m != nil {
		m.SegmentsFinalized.Add(ctx, 1)
	}
	s.log.Debug("segment finalized", "segment_id", msg.SegmentID, "words", len(msg.Words))
	return s.send(ctx, msg)
}

// finalizePending flushes whatever speech is still buffered, ignoring the
// usual silence gate, so a stop message does not drop the last utterance.
func (s *Session) finalizePending(ctx context.Context) {
	if s.buffer == nil || s.buffer.Len() == 0 {
		return
	}
	s.buffer.speaking = false
	if err := s.finalize(ctx); err != nil {
		s.log.Warn("final segment send failed", "error", err)
	}
}

// Close finalizes any buffered speech and releases the buffer's resources.
func (s *Session) Close(ctx context.Context) error {
	s.finalizePending(ctx)
	if s.buffer == nil {
		return nil
	}
	return s.buffer.Close()
}

func wireWords(words []asr.TimedWord) []wireWord {
	out := make([]wireWord, len(words))
	for i, w := range words {
		out[i] = wireWord{W: w.Word, S: w.Start.Seconds(), E: w.End.Seconds()}
	}
	return out
}
