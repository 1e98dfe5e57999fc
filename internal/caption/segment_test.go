package caption

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lexiread/lexiread/pkg/asr"
	asrmock "github.com/lexiread/lexiread/pkg/asr/mock"
	"github.com/lexiread/lexiread/pkg/vad"
	vadmock "github.com/lexiread/lexiread/pkg/vad/mock"
)

const testSampleRate = 16000

// testFrameBytes is one 20ms frame of 16-bit mono PCM at 16 kHz.
const testFrameBytes = testSampleRate * 20 / 1000 * 2

// voicedEvents returns n voiced events followed by silence that repeats for
// every further frame.
func voicedEvents(n int) []vad.Event {
	events := make([]vad.Event, 0, n+1)
	for i := 0; i < n; i++ {
		typ := vad.SpeechContinue
		if i == 0 {
			typ = vad.SpeechStart
		}
		events = append(events, vad.Event{Type: typ})
	}
	return append(events, vad.Event{Type: vad.Silence})
}

func feedFrames(t *testing.T, b *SegmentBuffer, n int) {
	t.Helper()
	frame := make([]byte, testFrameBytes)
	for i := 0; i < n; i++ {
		if err := b.Feed(frame); err != nil {
			t.Fatalf("Feed: %v", err)
		}
	}
}

func TestSegmentBufferSpeechTracking(t *testing.T) {
	t.Parallel()

	vadSess := &vadmock.Session{Events: voicedEvents(20)}
	b, err := NewSegmentBuffer(BufferConfig{SampleRate: testSampleRate}, &asrmock.Transcriber{}, vadSess)
	if err != nil {
		t.Fatalf("NewSegmentBuffer: %v", err)
	}

	feedFrames(t, b, 20)
	if !b.Speaking() {
		t.Error("expected speaking after voiced frames")
	}
	if b.VoicedFrames() != 20 {
		t.Errorf("expected 20 voiced frames, got %d", b.VoicedFrames())
	}
	if b.ShouldFlush() {
		t.Error("should not flush mid-utterance")
	}

	// Silence must persist past the threshold before the utterance ends.
	feedFrames(t, b, DefaultSilenceFrames)
	if !b.Speaking() {
		t.Error("expected still speaking within the silence threshold")
	}
	feedFrames(t, b, 2)
	if b.Speaking() {
		t.Error("expected utterance end after sustained silence")
	}

	// 37 frames at 20ms is 740ms of audio, past the minimum segment length.
	if !b.ShouldFlush() {
		t.Error("expected flush after utterance end with enough audio")
	}
}

func TestSegmentBufferDuration(t *testing.T) {
	t.Parallel()

	b, err := NewSegmentBuffer(BufferConfig{SampleRate: testSampleRate}, &asrmock.Transcriber{}, nil)
	if err != nil {
		t.Fatalf("NewSegmentBuffer: %v", err)
	}

	b.Feed(make([]byte, testSampleRate)) // half a second of 16-bit mono
	if got := b.Duration(); got != 500*time.Millisecond {
		t.Errorf("expected 500ms, got %v", got)
	}
}

func TestSegmentBufferFlushTooShort(t *testing.T) {
	t.Parallel()

	tr := &asrmock.Transcriber{}
	b, err := NewSegmentBuffer(BufferConfig{SampleRate: testSampleRate}, tr, nil)
	if err != nil {
		t.Fatalf("NewSegmentBuffer: %v", err)
	}

	b.Feed(make([]byte, testFrameBytes))
	seg, err := b.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if seg != nil {
		t.Errorf("expected no segment for a short buffer, got %+v", seg)
	}
	if tr.CallCount() != 0 {
		t.Errorf("expected no transcription for a short buffer, got %d calls", tr.CallCount())
	}
	if b.Len() == 0 {
		t.Error("short flush must not discard buffered audio")
	}
}

func TestSegmentBufferFlush(t *testing.T) {
	t.Parallel()

	tr := &asrmock.Transcriber{
		Segments: []*asr.Segment{{
			Text:  "the cat sat",
			Words: []asr.TimedWord{{Word: "the"}, {Word: "cat"}, {Word: "sat"}},
		}},
	}
	vadSess := &vadmock.Session{Events: voicedEvents(10)}
	b, err := NewSegmentBuffer(BufferConfig{SampleRate: testSampleRate, Language: "en"}, tr, vadSess)
	if err != nil {
		t.Fatalf("NewSegmentBuffer: %v", err)
	}

	feedFrames(t, b, 40)
	seg, err := b.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if seg == nil {
		t.Fatal("expected a segment")
	}
	if seg.Text != "the cat sat" {
		t.Errorf("unexpected text %q", seg.Text)
	}
	if seg.End != 800*time.Millisecond {
		t.Errorf("expected segment end at buffered duration 800ms, got %v", seg.End)
	}

	call := tr.Calls[0]
	if !call.Opts.WordTimestamps {
		t.Error("final transcription must request word timestamps")
	}
	if call.Opts.Language != "en" || call.Opts.SampleRate != testSampleRate {
		t.Errorf("unexpected options: %+v", call.Opts)
	}

	// The flush resets all per-utterance state.
	if b.Len() != 0 || b.VoicedFrames() != 0 || b.Speaking() {
		t.Error("expected buffer reset after flush")
	}
	if vadSess.ResetCount != 1 {
		t.Errorf("expected VAD session reset, got %d resets", vadSess.ResetCount)
	}
}

func TestSegmentBufferFlushEmptyTextResets(t *testing.T) {
	t.Parallel()

	tr := &asrmock.Transcriber{Segments: []*asr.Segment{{Text: "  "}}}
	b, err := NewSegmentBuffer(BufferConfig{SampleRate: testSampleRate}, tr, nil)
	if err != nil {
		t.Fatalf("NewSegmentBuffer: %v", err)
	}

	b.Feed(make([]byte, 2*testSampleRate))
	seg, err := b.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if seg != nil {
		t.Errorf("expected no segment for empty transcription, got %+v", seg)
	}
	if b.Len() != 0 {
		t.Error("expected buffer reset after empty transcription")
	}
}

func TestSegmentBufferFlushErrorKeepsBuffer(t *testing.T) {
	t.Parallel()

	tr := &asrmock.Transcriber{Err: errors.New("engine down")}
	b, err := NewSegmentBuffer(BufferConfig{SampleRate: testSampleRate}, tr, nil)
	if err != nil {
		t.Fatalf("NewSegmentBuffer: %v", err)
	}

	b.Feed(make([]byte, 2*testSampleRate))
	if _, err := b.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
	if b.Len() == 0 {
		t.Error("failed flush must keep the buffer for retry")
	}
}

func TestSegmentBufferPartialDedup(t *testing.T) {
	t.Parallel()

	tr := &asrmock.Transcriber{Segments: []*asr.Segment{{Text: "hello there"}}}
	b, err := NewSegmentBuffer(BufferConfig{SampleRate: testSampleRate}, tr, nil)
	if err != nil {
		t.Fatalf("NewSegmentBuffer: %v", err)
	}
	b.Feed(make([]byte, 2*testSampleRate))

	text, err := b.Partial(context.Background())
	if err != nil {
		t.Fatalf("Partial: %v", err)
	}
	if text != "hello there" {
		t.Errorf("unexpected partial %q", text)
	}
	if tr.Calls[0].Opts.WordTimestamps {
		t.Error("partial transcription must not request word timestamps")
	}

	// Identical text again is suppressed.
	text, err = b.Partial(context.Background())
	if err != nil {
		t.Fatalf("Partial: %v", err)
	}
	if text != "" {
		t.Errorf("expected dedup of unchanged partial, got %q", text)
	}
}

func TestSegmentBufferResetClearsPartialState(t *testing.T) {
	t.Parallel()

	tr := &asrmock.Transcriber{Segments: []*asr.Segment{{Text: "hello"}}}
	b, err := NewSegmentBuffer(BufferConfig{SampleRate: testSampleRate}, tr, nil)
	if err != nil {
		t.Fatalf("NewSegmentBuffer: %v", err)
	}
	b.Feed(make([]byte, 2*testSampleRate))
	if _, err := b.Partial(context.Background()); err != nil {
		t.Fatalf("Partial: %v", err)
	}

	b.Reset()
	if b.LastPartial() != "" {
		t.Error("reset must clear the last partial")
	}

	// Reset is idempotent.
	b.Reset()
	if b.Len() != 0 || b.Speaking() || b.VoicedFrames() != 0 {
		t.Error("expected clean state after double reset")
	}

	// The same text is reported again after a reset.
	b.Feed(make([]byte, 2*testSampleRate))
	text, err := b.Partial(context.Background())
	if err != nil {
		t.Fatalf("Partial: %v", err)
	}
	if text != "hello" {
		t.Errorf("expected partial repeated after reset, got %q", text)
	}
}

func TestSegmentBufferWithoutVAD(t *testing.T) {
	t.Parallel()

	b, err := NewSegmentBuffer(BufferConfig{SampleRate: testSampleRate}, &asrmock.Transcriber{}, nil)
	if err != nil {
		t.Fatalf("NewSegmentBuffer: %v", err)
	}

	// Without VAD the speaker never counts as speaking, so flushing is
	// purely duration-based.
	feedFrames(t, b, 40)
	if b.Speaking() {
		t.Error("expected no speech state without VAD")
	}
	if !b.ShouldFlush() {
		t.Error("expected duration-based flush without VAD")
	}
}

func TestNewSegmentBufferInvalidSampleRate(t *testing.T) {
	t.Parallel()

	if _, err := NewSegmentBuffer(BufferConfig{}, &asrmock.Transcriber{}, nil); err == nil {
		t.Fatal("expected error for missing sample rate")
	}
}
