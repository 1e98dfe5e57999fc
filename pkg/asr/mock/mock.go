// Package mock provides a test double for the asr.Transcriber interface.
//
// Use Transcriber to feed controlled recognition results to code under test
// and to inspect which audio spans were submitted.
//
// Example:
//
//	m := &mock.Transcriber{
//	    Segments: []*asr.Segment{{Text: "the cat sat"}},
//	}
//	seg, _ := m.Transcribe(ctx, pcm, asr.Options{SampleRate: 16000})
package mock

import (
	"context"
	"sync"

	"github.com/lexiread/lexiread/pkg/asr"
)

// Compile-time assertion that Transcriber implements asr.Transcriber.
var _ asr.Transcriber = (*Transcriber)(nil)

// TranscribeCall records a single invocation of Transcriber.Transcribe or
// Transcriber.TranscribeFile.
type TranscribeCall struct {
	// PCM is the audio passed to Transcribe; nil for file calls.
	PCM []byte
	// Path is the file passed to TranscribeFile; empty for byte calls.
	Path string
	// Opts is the Options value passed to the call.
	Opts asr.Options
}

// Transcriber is a mock implementation of asr.Transcriber. Safe for
// concurrent use.
type Transcriber struct {
	mu sync.Mutex

	// Segments are returned in order, one per call. After the slice is
	// exhausted the last element is returned again. If empty, calls return
	// an empty Segment.
	Segments []*asr.Segment

	// Err, if non-nil, is returned as the error from every call.
	Err error

	// Calls records every invocation.
	Calls []TranscribeCall

	next int
}

// Transcribe records the call and returns the next canned Segment.
func (t *Transcriber) Transcribe(_ context.Context, pcm []byte, opts asr.Options) (*asr.Segment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, TranscribeCall{PCM: append([]byte(nil), pcm...), Opts: opts})
	return t.result()
}

// TranscribeFile records the call and returns the next canned Segment.
func (t *Transcriber) TranscribeFile(_ context.Context, path string, opts asr.Options) (*asr.Segment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, TranscribeCall{Path: path, Opts: opts})
	return t.result()
}

// CallCount returns how many calls have been recorded.
func (t *Transcriber) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.Calls)
}

func (t *Transcriber) result() (*asr.Segment, error) {
	if t.Err != nil {
		return nil, t.Err
	}
	if len(t.Segments) == 0 {
		return &asr.Segment{}, nil
	}
	seg := t.Segments[t.next]
	if t.next < len(t.Segments)-1 {
		t.next++
	}
	return seg, nil
}
