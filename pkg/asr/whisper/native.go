// This file contains the Native engine backed by the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/lexiread/lexiread/pkg/asr"
	"github.com/lexiread/lexiread/pkg/audio"
)

// Compile-time assertion that Native satisfies asr.Transcriber.
var _ asr.Transcriber = (*Native)(nil)

// Native implements asr.Transcriber using whisper.cpp Go bindings (CGO).
// The model is loaded once at startup and shared across all calls; each call
// creates its own whisper context, so concurrent transcription is safe.
type Native struct {
	model    whisperlib.Model
	language string
}

// NativeOption is a functional option for configuring a Native engine.
type NativeOption func(*Native)

// WithNativeLanguage sets the default language code for transcription
// (e.g., "en", "es", "uk"). Defaults to "en". A per-call Options.Language
// overrides this.
func WithNativeLanguage(lang string) NativeOption {
	return func(n *Native) { n.language = lang }
}

// NewNative creates a Native engine that loads the whisper.cpp model from the
// given file path. The caller must call Close when the engine is no longer
// needed.
func NewNative(modelPath string, opts ...NativeOption) (*Native, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	n := &Native{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(n)
	}
	return n, nil
}

// Close releases the whisper model.
func (n *Native) Close() error {
	if n.model != nil {
		return n.model.Close()
	}
	return nil
}

// Transcribe runs whisper.cpp inference on raw PCM16 mono audio.
func (n *Native) Transcribe(ctx context.Context, pcm []byte, opts asr.Options) (*asr.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	samples := audio.ToFloat32(pcm)
	seg, err := n.infer(samples, opts)
	if err != nil {
		return nil, err
	}
	sr := opts.SampleRate
	if sr <= 0 {
		sr = defaultSampleRate
	}
	// The byte length is authoritative for the segment duration; whisper pads
	// short inputs internally and would report the padded length.
	seg.End = time.Duration(len(samples)) * time.Second / time.Duration(sr)
	return seg, nil
}

// TranscribeFile runs whisper.cpp inference on a WAV file. Multi-channel
// input is down-mixed to mono before inference.
func (n *Native) TranscribeFile(ctx context.Context, path string, opts asr.Options) (*asr.Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	pcm, sampleRate, channels, err := audio.DecodeWAVFile(path)
	if err != nil {
		return nil, err
	}
	samples := audio.ToFloat32Mono(pcm, channels)
	seg, err := n.infer(samples, opts)
	if err != nil {
		return nil, err
	}
	seg.End = time.Duration(len(samples)) * time.Second / time.Duration(sampleRate)
	return seg, nil
}

// infer creates a fresh whisper context, runs inference, and collects the
// recognized segments. Contexts are NOT thread-safe, but the shared model is;
// a new context per call keeps concurrent calls independent.
func (n *Native) infer(samples []float32, opts asr.Options) (*asr.Segment, error) {
	wctx, err := n.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}

	lang := opts.Language
	if lang == "" {
		lang = n.language
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("whisper: set language %q: %w", lang, err)
	}
	wctx.SetTokenTimestamps(opts.WordTimestamps)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var (
		parts []string
		words []asr.TimedWord
	)
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		if opts.WordTimestamps {
			words = append(words, wordsFromTokens(segment.Tokens)...)
		}
	}

	return &asr.Segment{
		Text:  strings.Join(parts, " "),
		Words: words,
	}, nil
}

// wordsFromTokens assembles whisper sub-word tokens into whole words with
// timings. A token whose text begins with a space starts a new word; special
// tokens ("[_BEG_]" etc.) are skipped.
func wordsFromTokens(tokens []whisperlib.Token) []asr.TimedWord {
	var (
		words   []asr.TimedWord
		current strings.Builder
		start   time.Duration
		end     time.Duration
	)

	flush := func() {
		w := strings.TrimSpace(current.String())
		if w != "" {
			words = append(words, asr.TimedWord{Word: w, Start: start, End: end})
		}
		current.Reset()
	}

	for _, tok := range tokens {
		if strings.HasPrefix(tok.Text, "[_") {
			continue
		}
		if strings.HasPrefix(tok.Text, " ") && current.Len() > 0 {
			flush()
		}
		if current.Len() == 0 {
			start = tok.Start
		}
		current.WriteString(tok.Text)
		end = tok.End
	}
	flush()

	return words
}
