// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// InputEvent is a logical input produced by the listener.
type InputEvent int

// The full input vocabulary. Press and release events are already debounced.
const (
	LeftPress InputEvent = iota + 1
	LeftRelease
	RightPress
	RightRelease
	Fire
	Quit
)

// String returns a short label for logging.
func (e InputEvent) String() string {
	switch e {
	case LeftPress:
		return "left-press"
	case LeftRelease:
		return "left-release"
	case RightPress:
		return "right-press"
	case RightRelease:
		return "right-release"
	case Fire:
		return "fire"
	case Quit:
		return "quit"
	default:
		return fmt.Sprintf("input(%d)", int(e))
	}
}

// StrafeKey reports the strafe key an event refers to. ok is false for Fire and Quit.
func (e InputEvent) StrafeKey() (key StrafeKey, pressed bool, ok bool) {
	switch e {
	case LeftPress:
		return Left, true, true
	case LeftRelease:
		return Left, false, true
	case RightPress:
		return Right, true, true
	case RightRelease:
		return Right, false, true
	default:
		return 0, false, false
	}
}

// StrafeKey is one of the two movement keys.
type StrafeKey int

// Strafe keys.
const (
	Left StrafeKey = iota + 1
	Right
)

// Opposite returns the counter key.
func (k StrafeKey) Opposite() StrafeKey {
	if k == Left {
		return Right
	}
	return Left
}

// Glyph returns the key label shown to the player.
func (k StrafeKey) Glyph() string {
	switch k {
	case Left:
		return "A"
	case Right:
		return "D"
	default:
		return "?"
	}
}

// Quality grades a counter-strafe.
type Quality int

// Quality bands.
const (
	Perfect Quality = iota + 1
	Good
	Failed
)

// Glyph returns the display symbol for the quality.
func (q Quality) Glyph() string {
	switch q {
	case Perfect:
		return "★"
	case Good:
		return "●"
	default:
		return "✕"
	}
}

// String returns the lowercase quality name.
func (q Quality) String() string {
	switch q {
	case Perfect:
		return "perfect"
	case Good:
		return "good"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseQuality converts a stored quality name back to a Quality.
func ParseQuality(s string) (Quality, error) {
	switch s {
	case "perfect":
		return Perfect, nil
	case "good":
		return Good, nil
	case "failed":
		return Failed, nil
	default:
		return 0, fmt.Errorf("unknown quality %q", s)
	}
}

// CompletionResult is emitted once per finished attempt.
type CompletionResult struct {
	Hold     time.Duration
	Quality  Quality
	Message  string
	Original StrafeKey
	Counter  StrafeKey
}

// HoldMs returns the hold time in whole milliseconds, rounded like RoundMs.
func (r CompletionResult) HoldMs() int64 {
	return RoundMs(r.Hold)
}

// RoundMs rounds d to whole milliseconds, halves away from zero. Every
// displayed or logged hold goes through it so the two always agree.
func RoundMs(d time.Duration) int64 {
	return d.Round(time.Millisecond).Milliseconds()
}

// Attempt is a journaled completion.
type Attempt struct {
	RunID    string
	At       time.Time
	Original StrafeKey
	Counter  StrafeKey
	Hold     time.Duration
	Quality  Quality
	Message  string
}

// DirectionAggregate summarizes attempts for one original→counter direction.
type DirectionAggregate struct {
	Original StrafeKey
	Counter  StrafeKey
	Attempts int
	Perfect  int
	Good     int
	Failed   int
	AvgHold  time.Duration
	BestHold time.Duration
}

// Config defines trainer runtime settings.
type Config struct {
	Device    string
	TickRate  int
	LeftAlias bool
	QueueSize int
	Demo      bool
	Plain     bool
}
