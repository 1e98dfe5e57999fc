// Package passage loads and serves leveled reading passages used as
// reference texts for fluency scoring.
//
// Passages come from a JSON file of the form {"passages": [...]}; when no
// file is configured or the file is missing, a small built-in set keeps the
// reading endpoints functional.
package passage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Passage is one leveled reading text.
type Passage struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Grade         string   `json:"grade"`
	CEFR          string   `json:"cefr"`
	Text          string   `json:"text"`
	WordCount     int      `json:"word_count"`
	KeyVocabulary []string `json:"key_vocabulary"`
}

// Library holds the loaded passages. Read-only after construction; safe for
// concurrent use.
type Library struct {
	passages []Passage
}

// Defaults returns a Library with the built-in sample passages.
func Defaults() *Library {
	return &Library{passages: defaultPassages()}
}

// Load reads passages from a JSON file. A missing file is not an error: the
// built-in defaults are returned instead, so a bare deployment still serves
// passages.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Defaults(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("passage: read %q: %w", path, err)
	}

	var doc struct {
		Passages []Passage `json:"passages"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("passage: parse %q: %w", path, err)
	}
	if len(doc.Passages) == 0 {
		return Defaults(), nil
	}

	for i := range doc.Passages {
		if doc.Passages[i].WordCount == 0 {
			doc.Passages[i].WordCount = len(strings.Fields(doc.Passages[i].Text))
		}
	}
	return &Library{passages: doc.Passages}, nil
}

// All returns every passage.
func (l *Library) All() []Passage {
	return l.passages
}

// Filter returns passages matching the given grade and CEFR level. Empty
// filter values match everything; comparisons are case-insensitive.
func (l *Library) Filter(grade, cefr string) []Passage {
	out := make([]Passage, 0, len(l.passages))
	for _, p := range l.passages {
		if grade != "" && !strings.EqualFold(p.Grade, grade) {
			continue
		}
		if cefr != "" && !strings.EqualFold(p.CEFR, cefr) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ByID returns the passage with the given id, or false when absent.
func (l *Library) ByID(id string) (Passage, bool) {
	for _, p := range l.passages {
		if p.ID == id {
			return p, true
		}
	}
	return Passage{}, false
}

func defaultPassages() []Passage {
	return []Passage{
		{
			ID:            "sample1",
			Title:         "The Cat",
			Grade:         "K-2",
			CEFR:          "A1",
			Text:          "The cat sat on the mat. The cat is fat. The cat can nap.",
			WordCount:     15,
			KeyVocabulary: []string{"cat", "sat", "mat", "fat", "nap"},
		},
		{
			ID:            "sample2",
			Title:         "The Dog",
			Grade:         "K-2",
			CEFR:          "A1",
			Text:          "A dog can run. The dog is fun. The dog can jump and play.",
			WordCount:     14,
			KeyVocabulary: []string{"dog", "run", "fun", "jump", "play"},
		},
	}
}
