package fluency

import (
	"math"

	"github.com/lexiread/lexiread/pkg/asr"
)

// minAudioSeconds is the floor applied to audio durations so that very short
// clips cannot blow up rate metrics.
const minAudioSeconds = 0.1

// ScoreCounts computes WPM, WCPM, and accuracy from plain counts, without
// audio. Durations of zero or less are treated as one second; error counts
// above the word count clamp accuracy at zero.
func ScoreCounts(wordsRead, seconds, errors int) Summary {
	sec := float64(max(seconds, 1))
	wpm := float64(wordsRead) / sec * 60.0
	wcpm := float64(wordsRead-errors) / sec * 60.0
	accuracy := math.Max(0, 1.0-float64(errors)/float64(max(wordsRead, 1)))

	return Summary{
		WPM:      round1(wpm),
		WCPM:     round1(wcpm),
		Accuracy: round3(accuracy),
	}
}

// Score computes fluency metrics for a transcribed reading attempt. When
// reference is empty, or normalizes to no words, only WPM, word timings, and
// duration are populated; WCPM and Accuracy stay nil and Errors stays empty.
//
// The segment's End bound is taken as the audio duration, floored at 0.1 s.
func Score(seg *asr.Segment, reference string) Result {
	duration := seg.End.Seconds()
	hyp := HypothesisWords(seg.Words)
	floored := math.Max(duration, minAudioSeconds)

	res := Result{
		WPM:        round1(float64(len(hyp)) / floored * 60.0),
		WordsTimed: timedWords(seg.Words),
		Duration:   duration,
	}

	// A reference that normalizes to zero words leaves accuracy undefined,
	// same as no reference at all.
	ref := ReferenceWords(reference)
	if len(ref) == 0 {
		return res
	}

	errs, correct := Align(ref, hyp, seg.Words)

	wcpm := round1(float64(correct) / floored * 60.0)
	accuracy := round3(float64(correct) / float64(len(ref)))

	res.WCPM = &wcpm
	res.Accuracy = &accuracy
	res.Errors = errs
	return res
}

// round1 rounds to one decimal place, matching the wire format for rate
// metrics.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round3 rounds to three decimal places, matching the wire format for
// accuracy.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
