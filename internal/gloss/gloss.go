// Package gloss provides bilingual vocabulary glossaries and dictionary
// translation for classroom captions.
//
// A small set of high-value classroom words ships built in for Arabic,
// Ukrainian, Spanish, Chinese, Tagalog, and Punjabi; larger dictionaries can
// be loaded from a directory of JSON files at startup. Translation is
// word-by-word dictionary substitution — adequate for vocabulary support,
// not a replacement for a translation model.
//
// The Glossary is read-only after construction and safe for concurrent use.
package gloss

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultTopK is the default maximum number of glossary entries per request.
const DefaultTopK = 8

// Entry is a single glossary item.
type Entry struct {
	En         string  `json:"en"`
	L1         string  `json:"l1"`
	Definition *string `json:"definition,omitempty"`
}

// Result is the outcome of a gloss request.
type Result struct {
	Translation string  `json:"translation"`
	Gloss       []Entry `json:"gloss"`
}

// Glossary holds per-language dictionaries keyed by language code then by
// lowercase English word.
type Glossary struct {
	dicts map[string]map[string]string
}

// New creates a Glossary with the built-in classroom dictionaries.
func New() *Glossary {
	dicts := make(map[string]map[string]string, len(builtinDictionaries))
	for lang, d := range builtinDictionaries {
		copied := make(map[string]string, len(d))
		for k, v := range d {
			copied[k] = v
		}
		dicts[lang] = copied
	}
	return &Glossary{dicts: dicts}
}

// LoadDir merges dictionaries from a directory of <lang>.json files into the
// glossary. Each file holds either a flat {"word": "translation"} object or
// {"entries": [{"en": ..., "<lang>": ...}]}. File entries override built-in
// ones for the same word.
func (g *Glossary) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("gloss: scan %q: %w", dir, err)
	}
	for _, f := range files {
		lang := strings.TrimSuffix(filepath.Base(f), ".json")
		loaded, err := loadDictionary(f, lang)
		if err != nil {
			return err
		}
		if g.dicts[lang] == nil {
			g.dicts[lang] = make(map[string]string, len(loaded))
		}
		for k, v := range loaded {
			g.dicts[lang][k] = v
		}
	}
	return nil
}

// Languages returns the language codes with a loaded dictionary.
func (g *Glossary) Languages() []string {
	out := make([]string, 0, len(g.dicts))
	for lang := range g.dicts {
		out = append(out, lang)
	}
	return out
}

// Gloss builds a vocabulary glossary and word-by-word translation of text
// for the given first-language code. topK caps glossary size; values of
// zero or less select DefaultTopK. An unknown language yields an empty
// glossary and a placeholder translation.
func (g *Glossary) Gloss(text, l1 string, topK int) Result {
	if topK <= 0 {
		topK = DefaultTopK
	}
	dict := g.dicts[l1]

	var entries []Entry
	seen := make(map[string]bool)
	for _, w := range strings.Fields(text) {
		word := normalizeWord(w)
		if word == "" || seen[word] {
			continue
		}
		if tr, ok := dict[word]; ok {
			entries = append(entries, Entry{En: word, L1: tr})
			seen[word] = true
			if len(entries) >= topK {
				break
			}
		}
	}
	if entries == nil {
		entries = []Entry{}
	}

	return Result{
		Translation: g.Translate(text, l1),
		Gloss:       entries,
	}
}

// Translate performs dictionary word-by-word translation, preserving
// trailing punctuation. Words without a dictionary entry pass through
// unchanged.
func (g *Glossary) Translate(text, l1 string) string {
	dict := g.dicts[l1]
	if len(dict) == 0 {
		return fmt.Sprintf("[Translation to %s not available]", l1)
	}

	words := strings.Fields(text)
	out := make([]string, 0, len(words))
	for _, word := range words {
		clean := normalizeWord(word)
		if tr, ok := dict[clean]; ok {
			punct := ""
			if n := len(word); n > 0 && strings.ContainsRune(".,!?", rune(word[n-1])) {
				punct = word[n-1:]
			}
			out = append(out, tr+punct)
		} else {
			out = append(out, word)
		}
	}
	return strings.Join(out, " ")
}

func normalizeWord(w string) string {
	return strings.Trim(strings.ToLower(w), ".,!?")
}

// loadDictionary parses one dictionary file in either supported format.
func loadDictionary(path, lang string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gloss: read %q: %w", path, err)
	}

	var wrapped struct {
		Entries []map[string]string `json:"entries"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Entries) > 0 {
		out := make(map[string]string, len(wrapped.Entries))
		for _, e := range wrapped.Entries {
			if en, ok := e["en"]; ok {
				if tr, ok := e[lang]; ok {
					out[strings.ToLower(en)] = tr
				}
			}
		}
		return out, nil
	}

	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("gloss: parse %q: %w", path, err)
	}
	return flat, nil
}
