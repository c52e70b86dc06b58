package stats

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/verte-zerg/bpmcheck/internal/model"
	"github.com/verte-zerg/bpmcheck/internal/tempo"
)

// RenderSummary prints the sessions recorded during this run.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded.")
		return err
	}
	var totalAvg float64
	var taps int
	best := sessions[0]
	for _, s := range sessions {
		totalAvg += s.AverageBPM
		taps += s.Events
		if s.PeakBPM > best.PeakBPM {
			best = s
		}
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions: %d\n", len(sessions)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Taps: %d\n", taps); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Best peak: %s BPM (mode %d)\n", tempo.Format(best.PeakBPM), best.Mode); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Mean average: %s BPM\n", tempo.Format(totalAvg/float64(len(sessions)))); err != nil {
		return err
	}
	if len(sessions) > 1 {
		peaks := make([]float64, len(sessions))
		for i, s := range sessions {
			peaks[i] = s.PeakBPM
		}
		if _, err := fmt.Fprintf(w, "Peaks: %s\n", Sparkline(peaks)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}

	headers := []string{"#", "Mode", "Taps", "Duration", "Average", "Peak", "Ended"}
	rows := make([][]string, 0, len(sessions))
	for i, s := range sessions {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(s.Mode),
			strconv.Itoa(s.Events),
			formatDuration(s.DurationMs),
			tempo.Format(s.AverageBPM),
			tempo.Format(s.PeakBPM),
			string(s.Reason),
		})
	}
	rightAlign := map[int]bool{0: true, 1: true, 2: true, 3: true, 4: true, 5: true}
	for _, line := range FormatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	return d.Round(100 * time.Millisecond).String()
}
