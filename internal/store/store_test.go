package store

import (
	"context"
	"testing"
	"time"

	"github.com/verte-zerg/strafe/internal/machine"
	"github.com/verte-zerg/strafe/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return s
}

func attempt(original model.StrafeKey, holdMs int, q model.Quality, msg string) model.Attempt {
	return model.Attempt{
		RunID:    "run",
		At:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Original: original,
		Counter:  original.Opposite(),
		Hold:     time.Duration(holdMs) * time.Millisecond,
		Quality:  q,
		Message:  msg,
	}
}

func seed(t *testing.T, s *Store, attempts ...model.Attempt) {
	t.Helper()
	for _, a := range attempts {
		if err := s.InsertAttempt(context.Background(), a); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func TestDirectionBreakdown(t *testing.T) {
	s := openTestStore(t)
	seed(t, s,
		attempt(model.Left, 78, model.Perfect, ""),
		attempt(model.Left, 100, model.Good, ""),
		attempt(model.Left, 0, model.Failed, machine.MessageBothKeys),
		attempt(model.Right, 130, model.Failed, "Too slow 130ms"),
	)

	aggs, err := s.DirectionBreakdown(context.Background())
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 directions, got %d", len(aggs))
	}

	left := aggs[0]
	if left.Original != model.Left || left.Counter != model.Right {
		t.Fatalf("unexpected direction: %+v", left)
	}
	if left.Attempts != 3 || left.Perfect != 1 || left.Good != 1 || left.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", left)
	}
	if left.AvgHold != 89*time.Millisecond {
		t.Fatalf("avg hold = %v, want 89ms", left.AvgHold)
	}
	if left.BestHold != 78*time.Millisecond {
		t.Fatalf("best hold = %v, want 78ms", left.BestHold)
	}

	right := aggs[1]
	if right.Original != model.Right || right.Attempts != 1 || right.Failed != 1 {
		t.Fatalf("unexpected right aggregate: %+v", right)
	}
	if right.BestHold != 130*time.Millisecond {
		t.Fatalf("best hold = %v", right.BestHold)
	}
}

func TestDirectionBreakdownOnlyBothKeys(t *testing.T) {
	s := openTestStore(t)
	seed(t, s, attempt(model.Right, 0, model.Failed, machine.MessageBothKeys))
	aggs, err := s.DirectionBreakdown(context.Background())
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(aggs) != 1 || aggs[0].AvgHold != 0 || aggs[0].BestHold != 0 {
		t.Fatalf("unexpected aggregate: %+v", aggs)
	}
}

func TestRecentHoldsSkipsBothKeys(t *testing.T) {
	s := openTestStore(t)
	seed(t, s,
		attempt(model.Left, 70, model.Perfect, ""),
		attempt(model.Left, 0, model.Failed, machine.MessageBothKeys),
		attempt(model.Right, 90, model.Perfect, ""),
		attempt(model.Right, 40, model.Failed, "Too fast 40ms"),
	)
	holds, err := s.RecentHolds(context.Background(), 2)
	if err != nil {
		t.Fatalf("recent holds: %v", err)
	}
	want := []time.Duration{90 * time.Millisecond, 40 * time.Millisecond}
	if len(holds) != len(want) || holds[0] != want[0] || holds[1] != want[1] {
		t.Fatalf("holds = %v, want %v", holds, want)
	}
}

func TestRecentAttemptsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	in := attempt(model.Right, 0, model.Failed, machine.MessageBothKeys)
	seed(t, s, attempt(model.Left, 80, model.Perfect, ""), in)

	got, err := s.RecentAttempts(context.Background(), 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(got))
	}
	if got[0].Quality != model.Failed || got[0].Message != in.Message || got[0].Original != model.Right || !got[0].At.Equal(in.At) {
		t.Fatalf("unexpected attempt: %+v", got[0])
	}
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	seed(t, s, attempt(model.Left, 80, model.Perfect, ""), attempt(model.Right, 90, model.Perfect, ""))
	ctx := context.Background()
	if n, err := s.Count(ctx); err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, err := s.Count(ctx); err != nil || n != 0 {
		t.Fatalf("count after reset = %d, %v", n, err)
	}
}

func TestJournalsAreIndependent(t *testing.T) {
	a := openTestStore(t)
	b := openTestStore(t)
	seed(t, a, attempt(model.Left, 80, model.Perfect, ""))
	n, err := b.Count(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("second journal sees %d rows, %v", n, err)
	}
}
