// Package openai provides a transcription engine backed by the OpenAI
// audio transcriptions API (or any compatible endpoint such as a
// speaches/faster-whisper server exposing /v1/audio/transcriptions).
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/lexiread/lexiread/pkg/asr"
	"github.com/lexiread/lexiread/pkg/audio"
)

const (
	defaultModel      = "whisper-1"
	defaultSampleRate = 16000
)

// Compile-time assertion that Engine implements asr.Transcriber.
var _ asr.Transcriber = (*Engine)(nil)

// Engine implements asr.Transcriber using the OpenAI API.
type Engine struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the engine.
type config struct {
	baseURL string
	model   string
	timeout time.Duration
}

// Option is a functional option for Engine.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Use this to point at
// an OpenAI-compatible transcription server.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithModel sets the transcription model. Defaults to "whisper-1".
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new OpenAI transcription Engine.
func New(apiKey string, opts ...Option) (*Engine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Engine{client: client, model: cfg.model}, nil
}

// Transcribe implements asr.Transcriber. The raw PCM is wrapped as WAV since
// the API requires a recognized container.
func (e *Engine) Transcribe(ctx context.Context, pcm []byte, opts asr.Options) (*asr.Segment, error) {
	sr := opts.SampleRate
	if sr <= 0 {
		sr = defaultSampleRate
	}
	wav := audio.EncodeWAV(pcm, sr, 1)
	seg, err := e.transcribe(ctx, bytes.NewReader(wav), "audio.wav", opts)
	if err != nil {
		return nil, err
	}
	if seg.End == 0 {
		seg.End = time.Duration(len(pcm)/2) * time.Second / time.Duration(sr)
	}
	return seg, nil
}

// TranscribeFile implements asr.Transcriber.
func (e *Engine) TranscribeFile(ctx context.Context, path string, opts asr.Options) (*asr.Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("openai: open audio file: %w", err)
	}
	defer f.Close()
	return e.transcribe(ctx, f, filepath.Base(path), opts)
}

// verboseTranscription is the verbose_json response shape. The SDK's typed
// response covers the plain json format only, so the body is decoded into
// this struct instead.
type verboseTranscription struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Words    []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

func (e *Engine) transcribe(ctx context.Context, r io.Reader, filename string, opts asr.Options) (*asr.Segment, error) {
	params := oai.AudioTranscriptionNewParams{
		File:           oai.File(r, filename, "audio/wav"),
		Model:          oai.AudioModel(e.model),
		ResponseFormat: oai.AudioResponseFormatVerboseJSON,
	}
	if opts.Language != "" {
		params.Language = param.NewOpt(opts.Language)
	}
	if opts.WordTimestamps {
		params.TimestampGranularities = []string{"word"}
	}

	var verbose verboseTranscription
	_, err := e.client.Audio.Transcriptions.New(ctx, params, option.WithResponseBodyInto(&verbose))
	if err != nil {
		return nil, fmt.Errorf("openai: transcription request: %w", err)
	}

	seg := &asr.Segment{
		Text: verbose.Text,
		End:  time.Duration(verbose.Duration * float64(time.Second)),
	}
	for _, w := range verbose.Words {
		seg.Words = append(seg.Words, asr.TimedWord{
			Word:  w.Word,
			Start: time.Duration(w.Start * float64(time.Second)),
			End:   time.Duration(w.End * float64(time.Second)),
		})
	}
	return seg, nil
}
