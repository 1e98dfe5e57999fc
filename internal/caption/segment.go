// Package caption drives live captioning sessions: it buffers incoming PCM
// audio, runs voice activity detection to find utterance boundaries, produces
// partial and final transcriptions through an [asr.Transcriber], and layers
// on text simplification and L1 glossing for finalized segments.
package caption

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lexiread/lexiread/pkg/asr"
	"github.com/lexiread/lexiread/pkg/vad"
)

// Defaults for [BufferConfig].
const (
	DefaultFrameSizeMs      = 20
	DefaultSilenceFrames    = 15
	DefaultMinSegment       = 500 * time.Millisecond
	DefaultMinPartial       = 500 * time.Millisecond
	DefaultMinPartialVoiced = 5
)

// BufferConfig configures a [SegmentBuffer]. Zero fields other than
// SampleRate fall back to the package defaults.
type BufferConfig struct {
	// SampleRate of the incoming 16-bit mono PCM stream in Hz. Required.
	SampleRate int

	// Language hint forwarded to the transcriber.
	Language string

	// FrameSizeMs is the VAD analysis frame length in milliseconds.
	FrameSizeMs int

	// SilenceFrames is how many consecutive silent frames end an utterance.
	SilenceFrames int

	// MinSegment is the shortest buffered audio worth finalizing. Flushes
	// below it discard nothing and transcribe nothing.
	MinSegment time.Duration

	// MinPartial is the shortest buffered audio worth a partial transcription.
	MinPartial time.Duration

	// MinPartialVoiced is the minimum count of voiced frames seen since the
	// last flush before partials are produced.
	MinPartialVoiced int

	// EnergyThreshold is forwarded to the VAD engine when a session is
	// opened. Zero selects the engine default.
	EnergyThreshold float64
}

func (c *BufferConfig) applyDefaults() {
	if c.FrameSizeMs <= 0 {
		c.FrameSizeMs = DefaultFrameSizeMs
	}
	if c.SilenceFrames <= 0 {
		c.SilenceFrames = DefaultSilenceFrames
	}
	if c.MinSegment <= 0 {
		c.MinSegment = DefaultMinSegment
	}
	if c.MinPartial <= 0 {
		c.MinPartial = DefaultMinPartial
	}
	if c.MinPartialVoiced <= 0 {
		c.MinPartialVoiced = DefaultMinPartialVoiced
	}
}

// SegmentBuffer accumulates PCM audio for one captioning session and decides
// when to produce partial and final transcriptions.
//
// It is not safe for concurrent use; a session feeds and flushes it from a
// single goroutine.
type SegmentBuffer struct {
	cfg         BufferConfig
	transcriber asr.Transcriber
	vadSess     vad.SessionHandle // nil disables VAD; flushing is then time-based

	buf         []byte
	frameBytes  int
	voiced      int
	silent      int
	speaking    bool
	lastPartial string
}

// NewSegmentBuffer creates a buffer transcribing through t. vadSess may be
// nil, in which case utterance boundaries are purely duration-based.
func NewSegmentBuffer(cfg BufferConfig, t asr.Transcriber, vadSess vad.SessionHandle) (*SegmentBuffer, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("caption: sample rate must be positive, got %d", cfg.SampleRate)
	}
	cfg.applyDefaults()

	return &SegmentBuffer{
		cfg:         cfg,
		transcriber: t,
		vadSess:     vadSess,
		frameBytes:  cfg.SampleRate * cfg.FrameSizeMs / 1000 * 2,
	}, nil
}

// Feed appends a chunk of 16-bit mono PCM and updates the speech state from
// the trailing analysis frame.
func (b *SegmentBuffer) Feed(chunk []byte) error {
	b.buf = append(b.buf, chunk...)

	if b.vadSess == nil || len(b.buf) < b.frameBytes {
		return nil
	}

	frame := b.buf[len(b.buf)-b.frameBytes:]
	ev, err := b.vadSess.ProcessFrame(frame)
	if err != nil {
		return fmt.Errorf("caption: vad frame: %w", err)
	}

	if ev.Voiced() {
		b.voiced++
		b.silent = 0
		b.speaking = true
	} else {
		b.silent++
		if b.silent > b.cfg.SilenceFrames {
			b.speaking = false
		}
	}
	return nil
}

// Duration returns how much audio is currently buffered.
func (b *SegmentBuffer) Duration() time.Duration {
	bytesPerSecond := b.cfg.SampleRate * 2
	return time.Duration(len(b.buf)) * time.Second / time.Duration(bytesPerSecond)
}

// Len returns the buffered byte count.
func (b *SegmentBuffer) Len() int { return len(b.buf) }

// Speaking reports whether the speaker is currently mid-utterance.
func (b *SegmentBuffer) Speaking() bool { return b.speaking }

// VoicedFrames returns the count of voiced frames since the last reset.
func (b *SegmentBuffer) VoicedFrames() int { return b.voiced }

// LastPartial returns the most recent partial transcription text.
func (b *SegmentBuffer) LastPartial() string { return b.lastPartial }

// ShouldFlush reports whether the buffered audio forms a finished utterance:
// the speaker has gone quiet and enough audio has accumulated.
func (b *SegmentBuffer) ShouldFlush() bool {
	return !b.speaking && b.Duration() > b.cfg.MinSegment
}

// PartialReady reports whether enough voiced audio has accumulated for an
// interim transcription.
func (b *SegmentBuffer) PartialReady() bool {
	return b.Duration() > b.cfg.MinPartial && b.voiced > b.cfg.MinPartialVoiced
}

// Partial transcribes the current buffer without word timestamps and returns
// the text. It returns "" when the text is empty or identical to the previous
// partial, so callers only forward changed captions.
func (b *SegmentBuffer) Partial(ctx context.Context) (string, error) {
	seg, err := b.transcriber.Transcribe(ctx, b.buf, asr.Options{
		Language:   b.cfg.Language,
		SampleRate: b.cfg.SampleRate,
	})
	if err != nil {
		return "", fmt.Errorf("caption: partial transcription: %w", err)
	}

	text := strings.TrimSpace(seg.Text)
	if text == "" || text == b.lastPartial {
		return "", nil
	}
	b.lastPartial = text
	return text, nil
}

// Flush transcribes the buffered utterance with word timestamps and resets
// the buffer. It returns (nil, nil) when the buffer is too short to bother or
// the transcription comes back empty. On transcription error the buffer is
// left intact so the session can retry on the next boundary.
func (b *SegmentBuffer) Flush(ctx context.Context) (*asr.Segment, error) {
	if b.Duration() < b.cfg.MinSegment {
		return nil, nil
	}

	duration := b.Duration()
	seg, err := b.transcriber.Transcribe(ctx, b.buf, asr.Options{
		Language:       b.cfg.Language,
		SampleRate:     b.cfg.SampleRate,
		WordTimestamps: true,
	})
	if err != nil {
		return nil, fmt.Errorf("caption: final transcription: %w", err)
	}

	if strings.TrimSpace(seg.Text) == "" {
		b.Reset()
		return nil, nil
	}

	seg.Start = 0
	seg.End = duration
	b.Reset()
	return seg, nil
}

// Reset discards buffered audio and clears all per-utterance state.
func (b *SegmentBuffer) Reset() {
	b.buf = b.buf[:0]
	b.voiced = 0
	b.silent = 0
	b.speaking = false
	b.lastPartial = ""
	if b.vadSess != nil {
		b.vadSess.Reset()
	}
}

// Close releases the underlying VAD session, if any.
func (b *SegmentBuffer) Close() error {
	if b.vadSess == nil {
		return nil
	}
	return b.vadSess.Close()
}
