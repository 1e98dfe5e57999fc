package server

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/lexiread/lexiread/pkg/asr"
	asrmock "github.com/lexiread/lexiread/pkg/asr/mock"
)

func dialCaptions(t *testing.T, deps Deps) *websocket.Conn {
	t.Helper()

	srv := newTestServer(t, deps)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/captions/stream"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("message type = %v, want text", typ)
	}

	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %q: %v", data, err)
	}
	return msg
}

func writeText(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.Write(ctx, websocket.MessageText, []byte(payload)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCaptionStream(t *testing.T) {
	t.Parallel()

	tr := &asrmock.Transcriber{
		Segments: []*asr.Segment{{Text: "hello class"}},
	}
	conn := dialCaptions(t, Deps{Transcriber: tr})

	if msg := readMessage(t, conn); msg["type"] != "ready" {
		t.Fatalf("first message = %v, want ready", msg)
	}

	writeText(t, conn, `{"type":"start","sample_rate":16000,"lang":"en"}`)
	started := readMessage(t, conn)
	if started["type"] != "started" || started["asr_enabled"] != true {
		t.Fatalf("unexpected started message %v", started)
	}

	// One second of audio exceeds the minimum utterance length, so without
	// voice activity the whole buffer is flushed as a final caption.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageBinary, make([]byte, 32000)); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	final := readMessage(t, conn)
	if final["type"] != "final" || final["text"] != "hello class" {
		t.Fatalf("unexpected final message %v", final)
	}
	if final["segment_id"] != float64(0) {
		t.Errorf("segment_id = %v, want 0", final["segment_id"])
	}

	writeText(t, conn, `{"type":"stop"}`)

	readCtx, readCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer readCancel()
	_, _, err := conn.Read(readCtx)
	if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
		t.Errorf("close status = %v, want normal closure", websocket.CloseStatus(err))
	}
}

func TestCaptionStreamTextOnly(t *testing.T) {
	t.Parallel()

	conn := dialCaptions(t, Deps{})

	if msg := readMessage(t, conn); msg["type"] != "ready" {
		t.Fatalf("first message = %v, want ready", msg)
	}

	writeText(t, conn, `{"type":"start","sample_rate":16000}`)
	started := readMessage(t, conn)
	if started["asr_enabled"] != false {
		t.Fatalf("expected text-only handshake, got %v", started)
	}
	if started["message"] != "ASR disabled, text-only mode" {
		t.Errorf("message = %v", started["message"])
	}
}

func TestCaptionStreamInvalidJSON(t *testing.T) {
	t.Parallel()

	conn := dialCaptions(t, Deps{})

	if msg := readMessage(t, conn); msg["type"] != "ready" {
		t.Fatalf("first message = %v, want ready", msg)
	}

	writeText(t, conn, `{not json`)
	msg := readMessage(t, conn)
	if msg["type"] != "error" || msg["message"] != "Invalid JSON" {
		t.Fatalf("unexpected error message %v", msg)
	}
}
