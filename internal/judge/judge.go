// Package judge grades counter-strafe hold times.
package judge

import (
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/strafe/internal/model"
)

// Timing windows. These are fixed; the trainer is calibrated against them.
const (
	MinHold     = 60 * time.Millisecond
	OptimalHold = 80 * time.Millisecond
	MaxHold     = 120 * time.Millisecond
	Tolerance   = 15 * time.Millisecond

	// CounterTimeout is how long a released strafe waits for the counter key.
	CounterTimeout = 180 * time.Millisecond
)

// Evaluate maps a hold time to a quality band. Both band edges are inclusive.
func Evaluate(hold time.Duration) model.Quality {
	if hold < MinHold || hold > MaxHold {
		return model.Failed
	}
	diff := hold - OptimalHold
	if diff < 0 {
		diff = -diff
	}
	if diff <= Tolerance {
		return model.Perfect
	}
	return model.Good
}

// EvaluateSeconds evaluates a hold time given in seconds.
func EvaluateSeconds(seconds float64) model.Quality {
	return Evaluate(FromSeconds(seconds))
}

// FromSeconds converts seconds to a Duration rounded to the nanosecond, so
// decimal literals such as 0.065 land exactly on the band edges.
func FromSeconds(seconds float64) time.Duration {
	if math.IsNaN(seconds) {
		return -1
	}
	ns := math.Round(seconds * float64(time.Second))
	if ns >= math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	if ns < math.MinInt64 {
		return time.Duration(math.MinInt64)
	}
	return time.Duration(ns)
}

// Verdict returns the quality for a release-side hold and the miss message
// for Failed holds. The message is empty exactly when the quality is not Failed.
func Verdict(hold time.Duration) (model.Quality, string) {
	quality := Evaluate(hold)
	switch {
	case hold < MinHold:
		return quality, fmt.Sprintf("Too fast %s", FormatMs(hold))
	case hold > MaxHold:
		return quality, fmt.Sprintf("Too slow %s", FormatMs(hold))
	default:
		return quality, ""
	}
}

// FormatMs renders a duration as whole milliseconds, e.g. "45ms".
func FormatMs(d time.Duration) string {
	return fmt.Sprintf("%dms", model.RoundMs(d))
}
