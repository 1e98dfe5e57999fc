// Package simplify rewrites English text for language learners using a
// rule-based pipeline: high-frequency word substitution, heuristic
// passive-to-active conversion, and sentence shortening at conjunction
// boundaries. It also extracts imperative "focus commands" (classroom
// instructions like "open your books") for UI highlighting.
//
// Strength levels:
//
//	0 — no rewriting (focus extraction only)
//	1 — word substitutions, sentences capped at 25 words
//	2 — adds passive-voice conversion, cap 18 words
//	3 — maximum shortening, cap 12 words
//
// The Simplifier is read-only after construction and safe for concurrent
// use.
package simplify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// MaxStrength is the highest supported simplification level.
const MaxStrength = 3

// wordReplacements maps complex words and phrases to simpler alternatives.
// Multi-word phrases are applied before single words.
var wordReplacements = map[string]string{
	"utilize":                  "use",
	"demonstrate":              "show",
	"approximately":            "about",
	"sufficient":               "enough",
	"commence":                 "start",
	"terminate":                "end",
	"obtain":                   "get",
	"require":                  "need",
	"assistance":               "help",
	"additional":               "more",
	"numerous":                 "many",
	"substantial":              "large",
	"frequently":               "often",
	"subsequently":             "then",
	"however":                  "but",
	"therefore":                "so",
	"nevertheless":             "still",
	"furthermore":              "also",
	"consequently":             "so",
	"previously":               "before",
	"currently":                "now",
	"immediately":              "right away",
	"accomplish":               "do",
	"facilitate":               "help",
	"implement":                "do",
	"purchase":                 "buy",
	"inquire":                  "ask",
	"respond":                  "answer",
	"indicate":                 "show",
	"observe":                  "see",
	"attempt":                  "try",
	"proceed":                  "go",
	"ensure":                   "make sure",
	"regarding":                "about",
	"concerning":               "about",
	"prior to":                 "before",
	"in order to":              "to",
	"due to the fact that":     "because",
	"in the event that":        "if",
	"at this point in time":    "now",
	"in spite of":              "despite",
	"with regard to":           "about",
}

// maxSentenceLength caps sentence word counts per strength level.
var maxSentenceLength = map[int]int{
	0: 100,
	1: 25,
	2: 18,
	3: 12,
}

// commandVerbs are classroom instruction verbs recognized as imperatives.
var commandVerbs = map[string]bool{
	"open": true, "close": true, "read": true, "write": true, "listen": true,
	"look": true, "turn": true, "sit": true, "stand": true, "come": true,
	"go": true, "take": true, "put": true, "get": true, "give": true,
	"show": true, "tell": true, "answer": true, "ask": true, "find": true,
	"make": true, "draw": true, "circle": true, "underline": true,
	"highlight": true, "copy": true, "complete": true, "finish": true,
	"start": true, "begin": true, "stop": true, "continue": true,
	"repeat": true, "remember": true, "think": true, "try": true,
	"practice": true, "study": true, "review": true,
}

// subjectPronouns disqualify a sentence from being treated as imperative.
var subjectPronouns = map[string]bool{
	"i": true, "you": true, "he": true, "she": true,
	"it": true, "we": true, "they": true,
}

// splitConjunctions are the words long sentences are split at.
var splitConjunctions = map[string]bool{
	"and": true, "but": true, "or": true, "so": true,
	"because": true, "although": true, "however": true, "therefore": true,
}

var (
	sentenceRe = regexp.MustCompile(`[^.!?]+[.!?]*`)
	passiveRe  = regexp.MustCompile(`(?i)(\w+)\s+(was|were)\s+(\w+ed)\s+by\s+(\w+)`)
)

// Focus is an extracted imperative command.
type Focus struct {
	Verb   string  `json:"verb"`
	Object *string `json:"object"`
}

// Result is the outcome of simplifying a text.
type Result struct {
	Simplified   string   `json:"simplified"`
	Focus        []Focus  `json:"focus"`
	Explanations []string `json:"explanations"`
}

// Simplifier applies the rule-based simplification pipeline.
type Simplifier struct {
	// replacement phrases ordered longest first so "in order to" wins over
	// single-word rules embedded in it.
	phrases []string
}

// New creates a Simplifier.
func New() *Simplifier {
	phrases := make([]string, 0, len(wordReplacements))
	for p := range wordReplacements {
		phrases = append(phrases, p)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})
	return &Simplifier{phrases: phrases}
}

// Simplify rewrites text at the given strength and, when extractFocus is
// set, extracts imperative commands from the original text. Strength is
// clamped to [0, MaxStrength].
func (s *Simplifier) Simplify(text string, strength int, extractFocus bool) Result {
	if strength < 0 {
		strength = 0
	}
	if strength > MaxStrength {
		strength = MaxStrength
	}

	res := Result{Simplified: text, Explanations: []string{}}
	if extractFocus {
		res.Focus = ExtractFocus(text)
	}
	if res.Focus == nil {
		res.Focus = []Focus{}
	}
	if strength == 0 {
		return res
	}

	var out []string
	for _, sent := range splitSentences(text) {
		out = append(out, s.simplifySentence(sent, strength))
	}
	res.Simplified = strings.Join(out, " ")
	return res
}

// simplifySentence applies word substitution, passive conversion, and
// shortening to a single sentence.
func (s *Simplifier) simplifySentence(sentence string, strength int) string {
	result := sentence

	for _, phrase := range s.phrases {
		result = replaceInsensitive(result, phrase, wordReplacements[phrase])
	}

	if strength >= 2 {
		result = activateVoice(result)
	}

	maxLen, ok := maxSentenceLength[strength]
	if !ok {
		maxLen = 100
	}
	if len(strings.Fields(result)) > maxLen {
		result = shortenSentence(result, maxLen)
	}

	return strings.TrimSpace(result)
}

// activateVoice converts "X was VERBed by Y" into "Y VERBed X". The verb is
// left in its past form; a true inflection engine is out of proportion for
// caption-level rewriting.
func activateVoice(sentence string) string {
	m := passiveRe.FindStringSubmatch(sentence)
	if m == nil {
		return sentence
	}
	return passiveRe.ReplaceAllString(sentence, fmt.Sprintf("%s %s %s", m[4], m[3], m[1]))
}

// shortenSentence cuts a long sentence at the first conjunction past the
// halfway point, or truncates with an ellipsis when no split point exists.
func shortenSentence(sentence string, maxWords int) string {
	words := strings.Fields(sentence)
	if len(words) <= maxWords {
		return sentence
	}

	for i, word := range words {
		w := strings.ToLower(strings.TrimRight(word, ","))
		if splitConjunctions[w] && i >= maxWords/2 {
			first := strings.Join(words[:i], " ")
			if !strings.HasSuffix(first, ".") {
				first += "."
			}
			return first
		}
	}

	truncated := strings.Join(words[:maxWords], " ")
	if !strings.HasSuffix(truncated, ".") {
		truncated += "..."
	}
	return truncated
}

// ExtractFocus finds imperative classroom commands in text. A sentence is
// treated as a command when it starts with a known instruction verb (or
// "please" followed by one); the remainder of the clause becomes the
// object.
func ExtractFocus(text string) []Focus {
	var commands []Focus
	for _, sent := range splitSentences(text) {
		words := strings.Fields(sent)
		if len(words) == 0 {
			continue
		}

		first := cleanToken(words[0])
		if subjectPronouns[first] {
			continue
		}

		rest := words[1:]
		if first == "please" && len(words) > 1 {
			first = cleanToken(words[1])
			rest = words[2:]
		}
		if !commandVerbs[first] {
			continue
		}

		cmd := Focus{Verb: first}
		if obj := objectPhrase(rest); obj != "" {
			cmd.Object = &obj
		}
		commands = append(commands, cmd)
	}
	return commands
}

// objectPhrase approximates the direct object: the words following the verb
// up to the first conjunction, with a leading preposition dropped.
func objectPhrase(words []string) string {
	var out []string
	for i, w := range words {
		t := cleanToken(w)
		if t == "" {
			continue
		}
		if splitConjunctions[t] {
			break
		}
		if i == 0 && (t == "to" || t == "at" || t == "on" || t == "in") {
			continue
		}
		out = append(out, t)
	}
	return strings.Join(out, " ")
}

// splitSentences breaks text at sentence-final punctuation.
func splitSentences(text string) []string {
	var out []string
	for _, m := range sentenceRe.FindAllString(text, -1) {
		if s := strings.TrimSpace(m); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// cleanToken lowercases a word and strips surrounding punctuation.
func cleanToken(w string) string {
	return strings.Trim(strings.ToLower(w), `.,!?;:"'`)
}

// replaceInsensitive replaces every case-insensitive occurrence of old with
// repl. Matches are found on the lowercased string so the replacement keeps
// its own casing.
func replaceInsensitive(s, old, repl string) string {
	lower := strings.ToLower(s)
	oldLower := strings.ToLower(old)
	var b strings.Builder
	for {
		i := strings.Index(lower, oldLower)
		if i < 0 {
			b.WriteString(s)
			return b.String()
		}
		b.WriteString(s[:i])
		b.WriteString(repl)
		s = s[i+len(old):]
		lower = lower[i+len(oldLower):]
	}
}
