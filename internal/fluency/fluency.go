// Package fluency implements oral reading fluency scoring: reference
// alignment, error classification, and rate metrics (WPM, WCPM, accuracy).
//
// The aligner compares what a reader was expected to say (the reference
// passage) with what the recognizer heard (the hypothesis) using Levenshtein
// alignment over normalized words, and classifies each divergence as a
// substitution, deletion, or insertion. Substitutions are additionally
// annotated with string similarity and phonetic-match hints so downstream
// consumers can distinguish near-misses ("cat"/"cap") from unrelated words.
//
// All functions are pure and safe for concurrent use.
package fluency

import (
	"github.com/lexiread/lexiread/pkg/asr"
)

// Error kinds, matching the wire protocol values.
const (
	ErrSubstitution = "sub"
	ErrDeletion     = "del"
	ErrInsertion    = "ins"
)

// ReadingError is a single divergence between the reference passage and the
// recognized hypothesis.
type ReadingError struct {
	// Type is one of ErrSubstitution, ErrDeletion, ErrInsertion.
	Type string `json:"type"`

	// Ref is the expected reference word; nil for insertions.
	Ref *string `json:"ref"`

	// Hyp is the recognized word; nil for deletions.
	Hyp *string `json:"hyp"`

	// Time is the timestamp in seconds within the audio where the error
	// occurred; nil when no word timing is available (always nil for
	// deletions).
	Time *float64 `json:"time"`

	// Similarity is the Jaro-Winkler similarity between Ref and Hyp for
	// substitutions; zero otherwise.
	Similarity float64 `json:"similarity,omitempty"`

	// PhoneticMatch reports whether Ref and Hyp share a Double Metaphone
	// code, indicating a decoding attempt rather than a random word.
	PhoneticMatch bool `json:"phonetic_match,omitempty"`
}

// TimedWord is a recognized word with timing in seconds, as serialized in
// scoring results.
type TimedWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is the outcome of scoring a reading attempt against an optional
// reference passage.
type Result struct {
	// WPM is words per minute, counting every recognized word.
	WPM float64 `json:"wpm"`

	// WCPM is words correct per minute. Nil when no reference was supplied.
	WCPM *float64 `json:"wcpm"`

	// Accuracy is the fraction of reference words read correctly, in [0, 1].
	// Nil when no reference was supplied.
	Accuracy *float64 `json:"accuracy"`

	// Errors lists reading errors in reading order. Empty when no reference
	// was supplied.
	Errors []ReadingError `json:"errors"`

	// WordsTimed holds the recognized words with timings.
	WordsTimed []TimedWord `json:"words_timed"`

	// Duration is the scored audio duration in seconds.
	Duration float64 `json:"duration"`
}

// Summary holds the rate metrics computed from plain counts, without audio.
type Summary struct {
	WPM      float64 `json:"wpm"`
	WCPM     float64 `json:"wcpm"`
	Accuracy float64 `json:"accuracy"`
}

// timedWords converts recognizer word timings to the wire representation.
func timedWords(words []asr.TimedWord) []TimedWord {
	out := make([]TimedWord, len(words))
	for i, w := range words {
		out[i] = TimedWord{
			Word:  w.Word,
			Start: w.Start.Seconds(),
			End:   w.End.Seconds(),
		}
	}
	return out
}
