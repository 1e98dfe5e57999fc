package caption

import (
	"github.com/lexiread/lexiread/internal/gloss"
	"github.com/lexiread/lexiread/internal/simplify"
)

// Client-to-server message types.
const (
	msgStart = "start"
	msgStop  = "stop"
	msgPong  = "pong"
)

// clientMessage is a JSON control message received over the captions socket.
// Fields beyond Type are only meaningful on "start".
type clientMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Lang       string `json:"lang,omitempty"`
	Save       bool   `json:"save,omitempty"`
	Simplify   int    `json:"simplify,omitempty"`
	L1         string `json:"l1,omitempty"`
	Token      string `json:"token,omitempty"`
}

// wireWord is one timed word in a final caption, with short keys to keep
// frames small.
type wireWord struct {
	W string  `json:"w"`
	S float64 `json:"s"`
	E float64 `json:"e"`
}

type readyMessage struct {
	Type string `json:"type"`
}

type startedMessage struct {
	Type       string `json:"type"`
	ASREnabled bool   `json:"asr_enabled"`
	Message    string `json:"message,omitempty"`
}

type partialMessage struct {
	Type string     `json:"type"`
	Text string     `json:"text"`
	TS   [2]float64 `json:"ts"`
}

type finalMessage struct {
	Type       string           `json:"type"`
	Text       string           `json:"text"`
	Words      []wireWord       `json:"words"`
	SegmentID  int              `json:"segment_id"`
	Simplified string           `json:"simplified,omitempty"`
	Focus      []simplify.Focus `json:"focus,omitempty"`
	Gloss      []gloss.Entry    `json:"gloss,omitempty"`
}

type pingMessage struct {
	Type string `json:"type"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
