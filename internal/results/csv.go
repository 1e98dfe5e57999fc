package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// csvHeader is the first row of every exported results file.
var csvHeader = []string{"ID", "Participant", "Passage", "WPM", "WCPM", "Accuracy", "Date"}

// WriteCSV writes results to w as CSV, one row per reading result, preceded
// by a header row. Nil WCPM and Accuracy values are written as empty cells.
func WriteCSV(w io.Writer, rs []ReadingResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("results: write csv header: %w", err)
	}

	for _, r := range rs {
		row := []string{
			r.ID,
			deref(r.ParticipantID),
			deref(r.PassageID),
			strconv.FormatFloat(r.WPM, 'f', -1, 64),
			formatOptional(r.WCPM),
			formatOptional(r.Accuracy),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("results: write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("results: flush csv: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatOptional(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
