package energy

import (
	"encoding/binary"
	"testing"

	"github.com/lexiread/lexiread/pkg/vad"
)

// frame builds a 20 ms 16 kHz mono frame of constant amplitude.
func frame(amplitude int16) []byte {
	buf := make([]byte, 320*2)
	for i := 0; i < 320; i++ {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(amplitude))
	}
	return buf
}

func newSession(t *testing.T) vad.SessionHandle {
	t.Helper()
	sess, err := New().NewSession(vad.Config{SampleRate: 16000, FrameSizeMs: 20})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return sess
}

func TestSpeechTransitions(t *testing.T) {
	t.Parallel()
	sess := newSession(t)

	steps := []struct {
		amplitude int16
		want      vad.EventType
	}{
		{0, vad.Silence},
		{5000, vad.SpeechStart},
		{5000, vad.SpeechContinue},
		{0, vad.SpeechEnd},
		{0, vad.Silence},
		{5000, vad.SpeechStart},
	}
	for i, step := range steps {
		ev, err := sess.ProcessFrame(frame(step.amplitude))
		if err != nil {
			t.Fatalf("step %d: ProcessFrame: %v", i, err)
		}
		if ev.Type != step.want {
			t.Errorf("step %d: type = %v, want %v", i, ev.Type, step.want)
		}
	}
}

func TestVoiced(t *testing.T) {
	t.Parallel()
	sess := newSession(t)

	ev, err := sess.ProcessFrame(frame(5000))
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if !ev.Voiced() {
		t.Error("loud frame should be voiced")
	}
	if ev.Energy < DefaultThreshold {
		t.Errorf("energy = %f, want >= %f", ev.Energy, DefaultThreshold)
	}
}

func TestQuietFrameBelowThreshold(t *testing.T) {
	t.Parallel()
	sess := newSession(t)

	ev, err := sess.ProcessFrame(frame(50))
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if ev.Voiced() {
		t.Error("quiet frame should not be voiced")
	}
}

func TestFrameSizeValidation(t *testing.T) {
	t.Parallel()
	sess := newSession(t)

	if _, err := sess.ProcessFrame(make([]byte, 100)); err == nil {
		t.Error("expected error for wrong frame size")
	}
}

func TestResetClearsSpeechState(t *testing.T) {
	t.Parallel()
	sess := newSession(t)

	if _, err := sess.ProcessFrame(frame(5000)); err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	sess.Reset()

	ev, err := sess.ProcessFrame(frame(5000))
	if err != nil {
		t.Fatalf("ProcessFrame: %v", err)
	}
	if ev.Type != vad.SpeechStart {
		t.Errorf("type after reset = %v, want %v", ev.Type, vad.SpeechStart)
	}
}

func TestClosedSessionRejectsFrames(t *testing.T) {
	t.Parallel()
	sess := newSession(t)

	if err := sess.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := sess.ProcessFrame(frame(0)); err == nil {
		t.Error("expected error after Close")
	}
}

func TestInvalidConfig(t *testing.T) {
	t.Parallel()

	e := New()
	if _, err := e.NewSession(vad.Config{SampleRate: 0, FrameSizeMs: 20}); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := e.NewSession(vad.Config{SampleRate: 16000, FrameSizeMs: 0}); err == nil {
		t.Error("expected error for zero frame size")
	}
}
