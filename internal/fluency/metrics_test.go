package fluency

import (
	"testing"
	"time"

	"github.com/lexiread/lexiread/pkg/asr"
)

func TestScoreCounts(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		words        int
		seconds      int
		errors       int
		wpm          float64
		wcpm         float64
		accuracy     float64
	}{
		{"typical", 100, 60, 5, 100, 95, 0.95},
		{"half minute", 50, 30, 0, 100, 100, 1},
		{"zero seconds floors to one", 10, 0, 0, 600, 600, 1},
		{"negative seconds floors to one", 10, -5, 0, 600, 600, 1},
		{"errors exceed words clamps accuracy", 5, 60, 10, 5, -5, 0},
		{"zero words", 0, 60, 0, 0, 0, 1},
		{"rounding", 47, 61, 3, 46.2, 43.3, 0.936},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ScoreCounts(tc.words, tc.seconds, tc.errors)
			if got.WPM != tc.wpm {
				t.Errorf("WPM = %v, want %v", got.WPM, tc.wpm)
			}
			if got.WCPM != tc.wcpm {
				t.Errorf("WCPM = %v, want %v", got.WCPM, tc.wcpm)
			}
			if got.Accuracy != tc.accuracy {
				t.Errorf("Accuracy = %v, want %v", got.Accuracy, tc.accuracy)
			}
		})
	}
}

func segmentWithWords(end time.Duration, words ...string) *asr.Segment {
	seg := &asr.Segment{End: end}
	step := end / time.Duration(len(words)+1)
	for i, w := range words {
		start := time.Duration(i) * step
		seg.Words = append(seg.Words, asr.TimedWord{Word: w, Start: start, End: start + step})
	}
	return seg
}

func TestScoreWithReference(t *testing.T) {
	t.Parallel()

	seg := segmentWithWords(2*time.Second, "The", "cat", "sat.")
	res := Score(seg, "The cat sat.")

	if res.WPM != 90 {
		t.Errorf("WPM = %v, want 90", res.WPM)
	}
	if res.WCPM == nil || *res.WCPM != 90 {
		t.Errorf("WCPM = %v, want 90", res.WCPM)
	}
	if res.Accuracy == nil || *res.Accuracy != 1 {
		t.Errorf("Accuracy = %v, want 1", res.Accuracy)
	}
	if len(res.Errors) != 0 {
		t.Errorf("expected no errors, got %v", res.Errors)
	}
	if len(res.WordsTimed) != 3 {
		t.Errorf("got %d timed words, want 3", len(res.WordsTimed))
	}
	if res.Duration != 2 {
		t.Errorf("duration = %v, want 2", res.Duration)
	}
}

func TestScoreWithoutReference(t *testing.T) {
	t.Parallel()

	seg := segmentWithWords(60*time.Second, "one", "two", "three", "four")
	res := Score(seg, "")

	if res.WPM != 4 {
		t.Errorf("WPM = %v, want 4", res.WPM)
	}
	if res.WCPM != nil {
		t.Errorf("WCPM = %v, want nil", res.WCPM)
	}
	if res.Accuracy != nil {
		t.Errorf("Accuracy = %v, want nil", res.Accuracy)
	}
	if len(res.Errors) != 0 {
		t.Errorf("expected no errors, got %v", res.Errors)
	}
}

func TestScorePunctuationOnlyReference(t *testing.T) {
	t.Parallel()

	seg := segmentWithWords(time.Second, "hello")
	res := Score(seg, "...")

	if res.WCPM != nil || res.Accuracy != nil {
		t.Errorf("WCPM = %v, Accuracy = %v, want nil for a wordless reference", res.WCPM, res.Accuracy)
	}
}

func TestScoreFlooredDuration(t *testing.T) {
	t.Parallel()

	// A 50 ms clip must be rated as if it were 100 ms, but the reported
	// duration stays truthful.
	seg := segmentWithWords(50*time.Millisecond, "hi")
	res := Score(seg, "")

	if res.WPM != 600 {
		t.Errorf("WPM = %v, want 600", res.WPM)
	}
	if res.Duration != 0.05 {
		t.Errorf("duration = %v, want 0.05", res.Duration)
	}
}

func TestScoreCountsReadingErrors(t *testing.T) {
	t.Parallel()

	seg := segmentWithWords(3*time.Second, "the", "dog", "sat")
	res := Score(seg, "the cat sat on")

	if res.WCPM == nil || *res.WCPM != 40 {
		t.Errorf("WCPM = %v, want 40", res.WCPM)
	}
	if res.Accuracy == nil || *res.Accuracy != 0.5 {
		t.Errorf("Accuracy = %v, want 0.5", res.Accuracy)
	}
	subs, dels := 0, 0
	for _, e := range res.Errors {
		switch e.Type {
		case ErrSubstitution:
			subs++
		case ErrDeletion:
			dels++
		}
	}
	if subs != 1 || dels != 1 {
		t.Errorf("errors = %v, want 1 sub and 1 del", res.Errors)
	}
}
