package stats

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/strafe/internal/model"
)

func TestTallyEmptyPercentagesAreZero(t *testing.T) {
	var tally Tally
	for _, q := range []model.Quality{model.Perfect, model.Good, model.Failed} {
		got := tally.Percent(q)
		if got != 0 || math.IsNaN(got) {
			t.Fatalf("Percent(%v) on empty tally = %v", q, got)
		}
	}
}

func TestTallyRecord(t *testing.T) {
	var tally Tally
	tally.Record(model.Perfect)
	tally.Record(model.Perfect)
	tally.Record(model.Good)
	tally.Record(model.Failed)

	if tally.Total != 4 || tally.Perfect != 2 || tally.Good != 1 || tally.Failed != 1 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
	if tally.PerfectPercent() != 50 {
		t.Fatalf("perfect percent = %v", tally.PerfectPercent())
	}
	if tally.GoodPercent() != 25 || tally.FailedPercent() != 25 {
		t.Fatalf("unexpected percents: %v %v", tally.GoodPercent(), tally.FailedPercent())
	}
}

func TestTallyInvariantHolds(t *testing.T) {
	var tally Tally
	seq := []model.Quality{model.Failed, model.Good, model.Perfect, model.Failed, model.Failed, model.Good, model.Perfect}
	for i := 0; i < 50; i++ {
		tally.Record(seq[i%len(seq)])
		if tally.Total != tally.Perfect+tally.Good+tally.Failed {
			t.Fatalf("invariant broken after %d records: %+v", i+1, tally)
		}
		sum := 0.0
		for _, q := range []model.Quality{model.Perfect, model.Good, model.Failed} {
			p := tally.Percent(q)
			if p < 0 || p > 100 {
				t.Fatalf("percent out of range: %v", p)
			}
			sum += p
		}
		if math.Abs(sum-100) > 1e-9 {
			t.Fatalf("percentages sum to %v", sum)
		}
	}
}

func TestTallyReset(t *testing.T) {
	var tally Tally
	tally.Record(model.Perfect)
	tally.Record(model.Good)
	tally.Reset()
	if tally != (Tally{}) {
		t.Fatalf("expected zero tally, got %+v", tally)
	}
}

func TestTrendKeepsNewest(t *testing.T) {
	trend := NewTrend(3)
	for _, ms := range []int{70, 80, 90, 100} {
		trend.Add(time.Duration(ms) * time.Millisecond)
	}
	got := trend.Millis()
	want := []float64{80, 90, 100}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d = %v, want %v", i, got[i], want[i])
		}
	}
	trend.Reset()
	if trend.Len() != 0 {
		t.Fatalf("expected empty trend")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]float64{5, 5, 5}); got != "+++" {
		t.Fatalf("flat sparkline = %q, want midpoint glyph", got)
	}
	got := Sparkline([]float64{0, 100})
	if got != " @" {
		t.Fatalf("range sparkline = %q", got)
	}
}

func TestRenderSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, Tally{}); err != nil {
		t.Fatalf("render empty: %v", err)
	}
	if !strings.Contains(buf.String(), "No attempts recorded.") {
		t.Fatalf("unexpected empty summary: %q", buf.String())
	}

	buf.Reset()
	tally := Tally{Total: 4, Perfect: 1, Good: 2, Failed: 1}
	if err := RenderSummary(&buf, tally); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Attempts: 4", "Perfect: 1 (25.0%)", "Good: 2 (50.0%)", "Failed: 1 (25.0%)"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("summary missing %q:\n%s", want, buf.String())
		}
	}
}

func TestRenderDirectionTable(t *testing.T) {
	var buf bytes.Buffer
	aggs := []model.DirectionAggregate{
		{Original: model.Left, Counter: model.Right, Attempts: 3, Perfect: 2, Failed: 1, AvgHold: 82 * time.Millisecond, BestHold: 80 * time.Millisecond},
		{Original: model.Right, Counter: model.Left, Attempts: 1, Failed: 1},
	}
	if err := RenderDirectionTable(&buf, aggs); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Per-Direction", "A→D", "D→A", "82ms", "80ms"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestRenderTrend(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTrend(&buf, []time.Duration{80 * time.Millisecond}); err != nil || buf.Len() != 0 {
		t.Fatalf("single hold should print nothing, got %q (%v)", buf.String(), err)
	}
	holds := []time.Duration{60 * time.Millisecond, 80 * time.Millisecond, 120 * time.Millisecond}
	if err := RenderTrend(&buf, holds); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "Trend (last 3): ") || !strings.Contains(buf.String(), "60ms..120ms") {
		t.Fatalf("unexpected trend: %q", buf.String())
	}
}
