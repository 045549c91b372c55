// Package trainer runs one tick of the counter-strafe loop: drained events in,
// read-only snapshot out.
package trainer

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/strafe/internal/feed"
	"github.com/verte-zerg/strafe/internal/machine"
	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/stats"
)

// DefaultTrendSize is the number of recent holds kept for the sparkline.
const DefaultTrendSize = 40

// Journal records completed attempts.
type Journal interface {
	InsertAttempt(ctx context.Context, attempt model.Attempt) error
	Reset(ctx context.Context) error
}

// Options configures a Trainer.
type Options struct {
	Clock     func() time.Time
	Journal   Journal
	Logger    *slog.Logger
	TrendSize int
	RunID     string
}

// Snapshot is the per-tick view handed to the renderer. It must be treated
// as read-only.
type Snapshot struct {
	Now         time.Time
	State       machine.State
	Display     machine.Display
	LiveHold    time.Duration
	HasLiveHold bool
	Feed        []feed.Visible
	Stats       stats.Tally
	Trend       []float64
	// Results holds the attempts completed during this tick.
	Results []model.CompletionResult
	Shots   int
	Quit    bool
}

// Trainer owns the machine, feed, tally and trend. It is not safe for
// concurrent use; only the render loop touches it.
type Trainer struct {
	clock   func() time.Time
	now     time.Time
	machine *machine.Machine
	feed    *feed.Log
	tally   stats.Tally
	trend   *stats.Trend
	shots   int
	journal Journal
	logger  *slog.Logger
	runID   string
}

// New returns a trainer in the Idle state.
func New(opts Options) *Trainer {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	size := opts.TrendSize
	if size <= 0 {
		size = DefaultTrendSize
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	t := &Trainer{
		clock:   clock,
		now:     clock(),
		machine: machine.New(),
		trend:   stats.NewTrend(size),
		journal: opts.Journal,
		logger:  logger.With("run", runID),
		runID:   runID,
	}
	// Feed entries are stamped with the tick time, not the wall clock.
	t.feed = feed.New(func() time.Time { return t.now })
	return t
}

// RunID identifies this session in logs and the journal.
func (t *Trainer) RunID() string {
	return t.runID
}

// Tick applies events in order, all stamped with one clock reading, then
// checks the counter timeout and expires feed entries.
func (t *Trainer) Tick(events []model.InputEvent) Snapshot {
	t.now = t.clock()
	var results []model.CompletionResult
	quit := false

	for _, ev := range events {
		switch ev {
		case model.Quit:
			quit = true
			continue
		case model.Fire:
			t.shots++
			continue
		}
		key, pressed, ok := ev.StrafeKey()
		if !ok {
			continue
		}
		var (
			result model.CompletionResult
			done   bool
		)
		if pressed {
			result, done = t.machine.Press(key, t.now)
		} else {
			result, done = t.machine.Release(key, t.now)
		}
		if done {
			t.complete(result)
			results = append(results, result)
		}
	}

	if t.machine.CheckTimeout(t.now) {
		t.logger.Debug("counter window expired")
	}
	t.feed.Cleanup(t.now)

	snap := t.snapshot()
	snap.Results = results
	snap.Quit = quit
	return snap
}

func (t *Trainer) complete(result model.CompletionResult) {
	t.tally.Record(result.Quality)
	t.feed.Record(result)
	if result.Message != machine.MessageBothKeys {
		t.trend.Add(result.Hold)
	}
	t.logger.Debug("attempt completed",
		"original", result.Original.Glyph(),
		"counter", result.Counter.Glyph(),
		"hold_ms", result.HoldMs(),
		"quality", result.Quality.String(),
	)
	if t.journal == nil {
		return
	}
	attempt := model.Attempt{
		RunID:    t.runID,
		At:       t.now,
		Original: result.Original,
		Counter:  result.Counter,
		Hold:     result.Hold,
		Quality:  result.Quality,
		Message:  result.Message,
	}
	if err := t.journal.InsertAttempt(context.Background(), attempt); err != nil {
		t.logger.Warn("failed to journal attempt", "error", err)
	}
}

func (t *Trainer) snapshot() Snapshot {
	live, ok := t.machine.LiveHold(t.now)
	return Snapshot{
		Now:         t.now,
		State:       t.machine.State(),
		Display:     t.machine.Display(),
		LiveHold:    live,
		HasLiveHold: ok,
		Feed:        t.feed.Visible(t.now),
		Stats:       t.tally,
		Trend:       t.trend.Millis(),
		Shots:       t.shots,
	}
}

// Snapshot returns the current view without advancing the clock.
func (t *Trainer) Snapshot() Snapshot {
	return t.snapshot()
}

// Stats returns the session tally.
func (t *Trainer) Stats() stats.Tally {
	return t.tally
}

// ResetStats clears the tally, trend, feed and journal and returns the
// machine to Idle.
func (t *Trainer) ResetStats() {
	t.tally.Reset()
	t.trend.Reset()
	t.feed.Clear()
	t.shots = 0
	t.machine.Reset()
	if t.journal != nil {
		if err := t.journal.Reset(context.Background()); err != nil {
			t.logger.Warn("failed to reset journal", "error", err)
		}
	}
	t.logger.Info("session stats reset")
}
