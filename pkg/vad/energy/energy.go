// Package energy provides an RMS-amplitude VAD engine.
//
// It classifies a frame as speech when its root-mean-square amplitude
// exceeds a fixed threshold. This is deliberately simple: no model download,
// no CGO, deterministic behaviour in tests. It works well for close-mic
// classroom recordings; noisy environments may need a higher threshold or a
// model-based engine.
package energy

import (
	"fmt"

	"github.com/lexiread/lexiread/pkg/audio"
	"github.com/lexiread/lexiread/pkg/vad"
)

// DefaultThreshold is the RMS amplitude (raw int16 units) above which a
// frame counts as speech. Tuned against 16 kHz close-mic speech.
const DefaultThreshold = 300.0

// Compile-time assertion that Engine implements vad.Engine.
var _ vad.Engine = (*Engine)(nil)

// Engine implements vad.Engine using frame RMS energy.
type Engine struct{}

// New creates an energy VAD engine.
func New() *Engine {
	return &Engine{}
}

// NewSession implements vad.Engine.
func (e *Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("energy: sample rate must be positive, got %d", cfg.SampleRate)
	}
	if cfg.FrameSizeMs <= 0 {
		return nil, fmt.Errorf("energy: frame size must be positive, got %d ms", cfg.FrameSizeMs)
	}
	threshold := cfg.EnergyThreshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &session{
		frameBytes: cfg.SampleRate * cfg.FrameSizeMs / 1000 * 2,
		threshold:  threshold,
	}, nil
}

// session holds per-stream detection state. Not safe for concurrent use.
type session struct {
	frameBytes int
	threshold  float64
	inSpeech   bool
	closed     bool
}

var _ vad.SessionHandle = (*session)(nil)

// ProcessFrame implements vad.SessionHandle.
func (s *session) ProcessFrame(frame []byte) (vad.Event, error) {
	if s.closed {
		return vad.Event{}, fmt.Errorf("energy: session is closed")
	}
	if len(frame) != s.frameBytes {
		return vad.Event{}, fmt.Errorf("energy: frame size %d bytes, want %d", len(frame), s.frameBytes)
	}

	rms := audio.RMS(frame)
	voiced := rms >= s.threshold

	var typ vad.EventType
	switch {
	case voiced && !s.inSpeech:
		typ = vad.SpeechStart
	case voiced && s.inSpeech:
		typ = vad.SpeechContinue
	case !voiced && s.inSpeech:
		typ = vad.SpeechEnd
	default:
		typ = vad.Silence
	}
	s.inSpeech = voiced

	return vad.Event{Type: typ, Energy: rms}, nil
}

// Reset implements vad.SessionHandle.
func (s *session) Reset() {
	s.inSpeech = false
}

// Close implements vad.SessionHandle.
func (s *session) Close() error {
	s.closed = true
	return nil
}
