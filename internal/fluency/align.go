package fluency

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/lexiread/lexiread/pkg/asr"
)

var punctRe = regexp.MustCompile(`[.,!?;:"'()\[\]{}]`)

// Normalize lowercases text, removes punctuation, and collapses whitespace.
// Apply it to reference passages before splitting into words.
func Normalize(text string) string {
	text = strings.ToLower(text)
	text = punctRe.ReplaceAllString(text, "")
	return strings.Join(strings.Fields(text), " ")
}

// ReferenceWords normalizes a reference passage and splits it into words.
func ReferenceWords(text string) []string {
	return strings.Fields(Normalize(text))
}

// HypothesisWords normalizes recognized words for comparison: lowercase with
// leading and trailing punctuation trimmed. Word-internal characters
// (apostrophes in contractions, hyphens) are preserved, mirroring how
// recognizers emit them.
func HypothesisWords(words []asr.TimedWord) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = NormalizeWord(w.Word)
	}
	return out
}

// NormalizeWord lowercases a single recognized word and trims surrounding
// punctuation.
func NormalizeWord(w string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(w)), `.,!?"'`)
}

// Align compares normalized reference words against normalized hypothesis
// words using Levenshtein alignment and returns the reading errors in
// reading order together with the count of correctly read reference words.
//
// timed supplies word timings for the hypothesis; it may be shorter than hyp
// or nil, in which case affected errors carry no timestamp. For every
// alignment: correct + substitutions + deletions == len(ref).
func Align(ref, hyp []string, timed []asr.TimedWord) (errs []ReadingError, correct int) {
	m, n := len(ref), len(hyp)

	// DP table of edit distances.
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
		dp[i][0] = i
	}
	for j := 0; j <= n; j++ {
		dp[0][j] = j
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if ref[i-1] == hyp[j-1] {
				dp[i][j] = dp[i-1][j-1]
			} else {
				dp[i][j] = 1 + min(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])
			}
		}
	}

	// Backtrack. Matches take priority, then substitution, insertion,
	// deletion, which keeps error positions stable when costs tie.
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && ref[i-1] == hyp[j-1]:
			correct++
			i--
			j--
		case i > 0 && j > 0 && dp[i][j] == dp[i-1][j-1]+1:
			errs = append(errs, substitution(ref[i-1], hyp[j-1], wordTime(timed, j-1)))
			i--
			j--
		case j > 0 && dp[i][j] == dp[i][j-1]+1:
			h := hyp[j-1]
			errs = append(errs, ReadingError{Type: ErrInsertion, Hyp: &h, Time: wordTime(timed, j-1)})
			j--
		default:
			r := ref[i-1]
			errs = append(errs, ReadingError{Type: ErrDeletion, Ref: &r})
			i--
		}
	}

	// Backtracking walks end to start; restore reading order.
	for a, b := 0, len(errs)-1; a < b; a, b = a+1, b-1 {
		errs[a], errs[b] = errs[b], errs[a]
	}
	return errs, correct
}

// substitution builds a substitution error annotated with similarity and
// phonetic-match hints.
func substitution(ref, hyp string, t *float64) ReadingError {
	r, h := ref, hyp
	e := ReadingError{
		Type:       ErrSubstitution,
		Ref:        &r,
		Hyp:        &h,
		Time:       t,
		Similarity: matchr.JaroWinkler(ref, hyp, false),
	}
	e.PhoneticMatch = phoneticMatch(ref, hyp)
	return e
}

// phoneticMatch reports whether two words share any Double Metaphone code.
func phoneticMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	if ap == "" && as == "" {
		return false
	}
	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		if x == bp || (bs != "" && x == bs) {
			return true
		}
	}
	return false
}

// wordTime returns the start time in seconds of the idx-th timed word, or
// nil when timing is unavailable.
func wordTime(timed []asr.TimedWord, idx int) *float64 {
	if idx < 0 || idx >= len(timed) {
		return nil
	}
	t := timed[idx].Start.Seconds()
	return &t
}
