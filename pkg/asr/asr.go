// Package asr defines the Transcriber interface for speech-to-text engines.
//
// A Transcriber wraps a batch speech recognition engine (e.g., whisper.cpp,
// a remote whisper-server, or a hosted transcription API) behind a uniform
// contract: given PCM16 audio (or a file path) and a language hint, it returns
// the recognized text together with word-level start/end timestamps.
//
// Two modes are distinguished by [Options.WordTimestamps]:
//
//   - partial mode (WordTimestamps false): lower latency, word timings may be
//     omitted. Used for best-effort interim captions.
//   - final mode (WordTimestamps true): authoritative result with per-word
//     timings, suitable for fluency scoring and persistence.
//
// Implementations must be safe for concurrent use: multiple streaming sessions
// share one Transcriber and may call Transcribe simultaneously. An engine
// whose runtime is not safe for concurrent inference must serialize calls
// internally.
package asr

import (
	"context"
	"time"
)

// Options carries the audio format and recognition hints for a single
// transcription call.
type Options struct {
	// Language is the language code for recognition (e.g., "en", "es").
	// An empty string uses the engine default.
	Language string

	// SampleRate is the PCM sample rate in Hz. Required for byte input;
	// ignored for file input where the container declares the rate.
	SampleRate int

	// WordTimestamps requests per-word start/end timings. Engines that cannot
	// produce them in partial mode may return a Segment with an empty Words
	// slice; in final mode they should populate Words whenever possible.
	WordTimestamps bool
}

// TimedWord is one recognized word with timings relative to segment start.
// Immutable once produced.
type TimedWord struct {
	Word  string
	Start time.Duration
	End   time.Duration
}

// Segment is the output of transcribing one contiguous span of audio.
// Read-only after creation.
type Segment struct {
	// Text is the full recognized text of the segment.
	Text string

	// Words holds per-word detail when the engine supports it. May be empty
	// in partial mode.
	Words []TimedWord

	// Start and End bound the segment relative to the start of the supplied
	// audio. End doubles as the audio duration for byte input.
	Start time.Duration
	End   time.Duration
}

// Transcriber is the abstraction over any speech-to-text engine.
//
// Both methods block until the engine returns; callers that need best-effort
// behaviour (partial captions) should bound the call with a context deadline
// and treat errors as skippable.
type Transcriber interface {
	// Transcribe recognizes raw 16-bit signed little-endian mono PCM audio.
	// Returns an error if the engine fails; an empty-text Segment is a valid
	// result (silence or unintelligible audio), not an error.
	Transcribe(ctx context.Context, pcm []byte, opts Options) (*Segment, error)

	// TranscribeFile recognizes an audio file on disk (WAV expected by local
	// engines; hosted engines may accept additional containers).
	TranscribeFile(ctx context.Context, path string, opts Options) (*Segment, error)
}
