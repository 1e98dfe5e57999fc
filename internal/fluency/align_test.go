package fluency

import (
	"testing"
	"time"

	"github.com/lexiread/lexiread/pkg/asr"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"The cat sat.", "the cat sat"},
		{"Hello,   World!", "hello world"},
		{`"Quoted" (text) [here] {now}`, "quoted text here now"},
		{"don't stop", "dont stop"},
		{"  leading and trailing  ", "leading and trailing"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeWord(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{" Cat,", "cat"},
		{"sat.", "sat"},
		{`"hello"`, "hello"},
		{"don't", "don't"}, // interior apostrophe survives
		{"!?", ""},
	}
	for _, tc := range cases {
		if got := NormalizeWord(tc.in); got != tc.want {
			t.Errorf("NormalizeWord(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAlignPerfectRead(t *testing.T) {
	t.Parallel()

	ref := []string{"the", "cat", "sat"}
	errs, correct := Align(ref, []string{"the", "cat", "sat"}, nil)
	if len(errs) != 0 {
		t.Errorf("expected no errors, got %v", errs)
	}
	if correct != 3 {
		t.Errorf("correct = %d, want 3", correct)
	}
}

func TestAlignSubstitution(t *testing.T) {
	t.Parallel()

	timed := []asr.TimedWord{
		{Word: "the", Start: 0, End: 200 * time.Millisecond},
		{Word: "dog", Start: 300 * time.Millisecond, End: 500 * time.Millisecond},
		{Word: "sat", Start: 600 * time.Millisecond, End: 800 * time.Millisecond},
	}
	errs, correct := Align([]string{"the", "cat", "sat"}, []string{"the", "dog", "sat"}, timed)
	if correct != 2 {
		t.Errorf("correct = %d, want 2", correct)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	e := errs[0]
	if e.Type != ErrSubstitution {
		t.Errorf("type = %q, want %q", e.Type, ErrSubstitution)
	}
	if e.Ref == nil || *e.Ref != "cat" {
		t.Errorf("ref = %v, want cat", e.Ref)
	}
	if e.Hyp == nil || *e.Hyp != "dog" {
		t.Errorf("hyp = %v, want dog", e.Hyp)
	}
	if e.Time == nil || *e.Time != 0.3 {
		t.Errorf("time = %v, want 0.3", e.Time)
	}
}

func TestAlignDeletion(t *testing.T) {
	t.Parallel()

	errs, correct := Align([]string{"the", "cat", "sat"}, []string{"the", "sat"}, nil)
	if correct != 2 {
		t.Errorf("correct = %d, want 2", correct)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	e := errs[0]
	if e.Type != ErrDeletion {
		t.Errorf("type = %q, want %q", e.Type, ErrDeletion)
	}
	if e.Ref == nil || *e.Ref != "cat" {
		t.Errorf("ref = %v, want cat", e.Ref)
	}
	if e.Hyp != nil {
		t.Errorf("hyp = %v, want nil", e.Hyp)
	}
	if e.Time != nil {
		t.Errorf("time = %v, want nil", e.Time)
	}
}

func TestAlignInsertion(t *testing.T) {
	t.Parallel()

	errs, correct := Align([]string{"the", "sat"}, []string{"the", "cat", "sat"}, nil)
	if correct != 2 {
		t.Errorf("correct = %d, want 2", correct)
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	e := errs[0]
	if e.Type != ErrInsertion {
		t.Errorf("type = %q, want %q", e.Type, ErrInsertion)
	}
	if e.Hyp == nil || *e.Hyp != "cat" {
		t.Errorf("hyp = %v, want cat", e.Hyp)
	}
	if e.Ref != nil {
		t.Errorf("ref = %v, want nil", e.Ref)
	}
}

func TestAlignEmptyHypothesis(t *testing.T) {
	t.Parallel()

	errs, correct := Align([]string{"a", "b", "c"}, nil, nil)
	if correct != 0 {
		t.Errorf("correct = %d, want 0", correct)
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 deletions, got %v", errs)
	}
	for i, e := range errs {
		if e.Type != ErrDeletion {
			t.Errorf("error %d type = %q, want %q", i, e.Type, ErrDeletion)
		}
	}
}

func TestAlignEmptyReference(t *testing.T) {
	t.Parallel()

	errs, correct := Align(nil, []string{"a", "b"}, nil)
	if correct != 0 {
		t.Errorf("correct = %d, want 0", correct)
	}
	if len(errs) != 2 {
		t.Fatalf("expected 2 insertions, got %v", errs)
	}
	for i, e := range errs {
		if e.Type != ErrInsertion {
			t.Errorf("error %d type = %q, want %q", i, e.Type, ErrInsertion)
		}
	}
}

func TestAlignReadingOrder(t *testing.T) {
	t.Parallel()

	// Two errors: substitution early, deletion late. Errors must come out in
	// reading order, not backtrack order.
	errs, _ := Align(
		[]string{"one", "two", "three", "four"},
		[]string{"one", "ten", "three"},
		nil,
	)
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	if errs[0].Type != ErrSubstitution || errs[1].Type != ErrDeletion {
		t.Errorf("error order = [%s %s], want [sub del]", errs[0].Type, errs[1].Type)
	}
}

func TestAlignCountInvariant(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		ref  []string
		hyp  []string
	}{
		{"mixed", []string{"the", "quick", "brown", "fox", "jumps"}, []string{"the", "quack", "fox", "jumped", "over"}},
		{"all wrong", []string{"a", "b"}, []string{"x", "y", "z"}},
		{"repeats", []string{"no", "no", "no"}, []string{"no", "no"}},
		{"both empty", nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			errs, correct := Align(tc.ref, tc.hyp, nil)
			subs, dels := 0, 0
			for _, e := range errs {
				switch e.Type {
				case ErrSubstitution:
					subs++
				case ErrDeletion:
					dels++
				}
			}
			if got := correct + subs + dels; got != len(tc.ref) {
				t.Errorf("correct+subs+dels = %d, want %d (errors: %v)", got, len(tc.ref), errs)
			}
		})
	}
}

func TestSubstitutionAnnotations(t *testing.T) {
	t.Parallel()

	errs, _ := Align([]string{"their"}, []string{"there"}, nil)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	e := errs[0]
	if e.Similarity <= 0.8 {
		t.Errorf("similarity for their/there = %f, want > 0.8", e.Similarity)
	}
	if !e.PhoneticMatch {
		t.Error("their/there should be a phonetic match")
	}

	errs, _ = Align([]string{"cat"}, []string{"dog"}, nil)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if errs[0].PhoneticMatch {
		t.Error("cat/dog should not be a phonetic match")
	}
}
