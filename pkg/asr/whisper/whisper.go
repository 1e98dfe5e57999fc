// Package whisper provides whisper.cpp-backed transcription engines.
//
// Two engines are available:
//
//   - [Server] connects to a running whisper-server binary over HTTP
//     (POST /inference) and uploads each audio span as a WAV multipart
//     request. No CGO required.
//   - [Native] uses the whisper.cpp CGO bindings directly, eliminating HTTP
//     overhead. The model is loaded once and shared across all calls.
//
// Both implement asr.Transcriber and are safe for concurrent use.
//
// Usage:
//
//	t, err := whisper.NewServer("http://localhost:8080",
//	    whisper.WithLanguage("en"),
//	)
//	seg, err := t.Transcribe(ctx, pcmChunk, asr.Options{SampleRate: 16000, WordTimestamps: true})
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lexiread/lexiread/pkg/asr"
	"github.com/lexiread/lexiread/pkg/audio"
)

const (
	defaultLanguage   = "en"
	defaultSampleRate = 16000
)

// Compile-time assertion that Server implements asr.Transcriber.
var _ asr.Transcriber = (*Server)(nil)

// Option is a functional option for configuring a Server engine.
type Option func(*Server)

// WithModel sets the model identifier forwarded to the whisper-server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(s *Server) { s.model = model }
}

// WithLanguage sets the default language code sent to the whisper-server
// (e.g., "en", "es"). Defaults to "en". A per-call Options.Language overrides
// this.
func WithLanguage(lang string) Option {
	return func(s *Server) { s.language = lang }
}

// WithHTTPClient replaces the HTTP client used for inference requests.
// The default client has a 30 s timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Server) { s.httpClient = c }
}

// Server implements asr.Transcriber backed by a whisper-server HTTP endpoint.
type Server struct {
	serverURL  string
	model      string
	language   string
	httpClient *http.Client
}

// NewServer creates a Server engine that connects to the whisper-server at
// serverURL (e.g., "http://localhost:8080"). serverURL must be non-empty.
func NewServer(serverURL string, opts ...Option) (*Server, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	s := &Server{
		serverURL:  serverURL,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Transcribe encodes pcm as WAV and submits it to the whisper-server.
func (s *Server) Transcribe(ctx context.Context, pcm []byte, opts asr.Options) (*asr.Segment, error) {
	sr := opts.SampleRate
	if sr <= 0 {
		sr = defaultSampleRate
	}
	wav := audio.EncodeWAV(pcm, sr, 1)
	seg, err := s.infer(ctx, wav, "audio.wav", opts)
	if err != nil {
		return nil, err
	}
	if seg.End == 0 {
		seg.End = time.Duration(len(pcm)/2) * time.Second / time.Duration(sr)
	}
	return seg, nil
}

// TranscribeFile uploads an audio file from disk to the whisper-server.
func (s *Server) TranscribeFile(ctx context.Context, path string, opts asr.Options) (*asr.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("whisper: read audio file: %w", err)
	}
	return s.infer(ctx, data, filepath.Base(path), opts)
}

// inferenceResponse is the verbose JSON structure returned by whisper-server.
type inferenceResponse struct {
	Text     string  `json:"text"`
	Duration float64 `json:"duration"`
	Words    []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"words"`
}

// infer POSTs the audio payload to the /inference endpoint as
// multipart/form-data and parses the verbose JSON response.
func (s *Server) infer(ctx context.Context, audio []byte, filename string, opts asr.Options) (*asr.Segment, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return nil, fmt.Errorf("whisper: write audio data: %w", err)
	}

	lang := opts.Language
	if lang == "" {
		lang = s.language
	}
	fields := map[string]string{
		"language":        lang,
		"response_format": "verbose_json",
	}
	if s.model != "" {
		fields["model"] = s.model
	}
	if opts.WordTimestamps {
		fields["word_timestamps"] = "true"
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("whisper: write field %q: %w", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := s.serverURL + "/inference"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper: read response body: %w", err)
	}

	var result inferenceResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	seg := &asr.Segment{
		Text: result.Text,
		End:  time.Duration(result.Duration * float64(time.Second)),
	}
	for _, w := range result.Words {
		seg.Words = append(seg.Words, asr.TimedWord{
			Word:  w.Word,
			Start: time.Duration(w.Start * float64(time.Second)),
			End:   time.Duration(w.End * float64(time.Second)),
		})
	}
	return seg, nil
}
