// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/strafe/internal/judge"
	"github.com/verte-zerg/strafe/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Tally counts verdicts. Total always equals Perfect+Good+Failed.
type Tally struct {
	Total   int
	Perfect int
	Good    int
	Failed  int
}

// Record adds one verdict.
func (t *Tally) Record(q model.Quality) {
	switch q {
	case model.Perfect:
		t.Perfect++
	case model.Good:
		t.Good++
	default:
		t.Failed++
	}
	t.Total++
}

// Count returns the number of verdicts with the given quality.
func (t Tally) Count(q model.Quality) int {
	switch q {
	case model.Perfect:
		return t.Perfect
	case model.Good:
		return t.Good
	default:
		return t.Failed
	}
}

// Percent returns the share of q in [0, 100]; 0 when nothing was recorded.
func (t Tally) Percent(q model.Quality) float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Count(q)) / float64(t.Total) * 100
}

// PerfectPercent returns the perfect share.
func (t Tally) PerfectPercent() float64 { return t.Percent(model.Perfect) }

// GoodPercent returns the good share.
func (t Tally) GoodPercent() float64 { return t.Percent(model.Good) }

// FailedPercent returns the failed share.
func (t Tally) FailedPercent() float64 { return t.Percent(model.Failed) }

// Reset zeroes every counter.
func (t *Tally) Reset() {
	*t = Tally{}
}

// Trend keeps the most recent measured hold times.
type Trend struct {
	holds []time.Duration
	size  int
}

// NewTrend returns a trend holding at most size values.
func NewTrend(size int) *Trend {
	if size <= 0 {
		size = 1
	}
	return &Trend{holds: make([]time.Duration, 0, size), size: size}
}

// Add appends a hold, dropping the oldest beyond capacity.
func (t *Trend) Add(hold time.Duration) {
	if len(t.holds) == t.size {
		copy(t.holds, t.holds[1:])
		t.holds = t.holds[:t.size-1]
	}
	t.holds = append(t.holds, hold)
}

// Millis returns the stored holds in milliseconds, oldest first.
func (t *Trend) Millis() []float64 {
	out := make([]float64, len(t.holds))
	for i, h := range t.holds {
		out[i] = float64(h) / float64(time.Millisecond)
	}
	return out
}

// Len returns the number of stored holds.
func (t *Trend) Len() int {
	return len(t.holds)
}

// Reset clears the trend.
func (t *Trend) Reset() {
	t.holds = t.holds[:0]
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the session tally.
func RenderSummary(w io.Writer, t Tally) error {
	if t.Total == 0 {
		_, err := fmt.Fprintln(w, "No attempts recorded.")
		return err
	}
	lines := []string{
		"Summary",
		fmt.Sprintf("Attempts: %d", t.Total),
		fmt.Sprintf("Perfect: %d (%.1f%%)", t.Perfect, t.PerfectPercent()),
		fmt.Sprintf("Good: %d (%.1f%%)", t.Good, t.GoodPercent()),
		fmt.Sprintf("Failed: %d (%.1f%%)", t.Failed, t.FailedPercent()),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderDirectionTable prints per-direction aggregates from the attempt journal.
func RenderDirectionTable(w io.Writer, aggs []model.DirectionAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No direction stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Direction"); err != nil {
		return err
	}
	headers := []string{"Dir", "Attempts", model.Perfect.Glyph(), model.Good.Glyph(), model.Failed.Glyph(), "Avg Hold", "Best Hold"}
	rows := make([][]string, 0, len(aggs))
	for _, agg := range aggs {
		best := "-"
		avg := "-"
		if agg.AvgHold > 0 {
			avg = judge.FormatMs(agg.AvgHold)
		}
		if agg.BestHold > 0 {
			best = judge.FormatMs(agg.BestHold)
		}
		rows = append(rows, []string{
			agg.Original.Glyph() + "→" + agg.Counter.Glyph(),
			fmt.Sprintf("%d", agg.Attempts),
			fmt.Sprintf("%d", agg.Perfect),
			fmt.Sprintf("%d", agg.Good),
			fmt.Sprintf("%d", agg.Failed),
			avg,
			best,
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTrend prints a sparkline of recent measured holds with their range.
func RenderTrend(w io.Writer, holds []time.Duration) error {
	if len(holds) < 2 {
		return nil
	}
	values := make([]float64, len(holds))
	lo, hi := holds[0], holds[0]
	for i, h := range holds {
		values[i] = float64(h) / float64(time.Millisecond)
		lo = min(lo, h)
		hi = max(hi, h)
	}
	_, err := fmt.Fprintf(w, "Trend (last %d): %s  %s..%s\n\n",
		len(holds), Sparkline(values), judge.FormatMs(lo), judge.FormatMs(hi))
	return err
}
