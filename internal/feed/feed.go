// Package feed keeps the short-lived list of verdict messages.
package feed

import (
	"fmt"
	"time"

	"github.com/verte-zerg/strafe/internal/judge"
	"github.com/verte-zerg/strafe/internal/model"
)

const (
	// Capacity is the maximum number of entries kept.
	Capacity = 5
	// VisibleFor is how long an entry stays fully opaque.
	VisibleFor = 3 * time.Second
	// FadeFor is the linear fade-out after VisibleFor.
	FadeFor = 1 * time.Second
)

// Entry is one verdict line.
type Entry struct {
	Message   string
	Glyph     string
	Quality   model.Quality
	CreatedAt time.Time
}

// Opacity returns 1 while visible, fading linearly to 0 over FadeFor.
func (e Entry) Opacity(now time.Time) float64 {
	age := now.Sub(e.CreatedAt)
	switch {
	case age < VisibleFor:
		return 1
	case age < VisibleFor+FadeFor:
		return 1 - float64(age-VisibleFor)/float64(FadeFor)
	default:
		return 0
	}
}

// Expired reports whether the entry has fully faded.
func (e Entry) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= VisibleFor+FadeFor
}

// Visible pairs an entry with its opacity at render time.
type Visible struct {
	Entry
	Opacity float64
}

// Log is a bounded newest-first list of entries.
type Log struct {
	entries []Entry
	clock   func() time.Time
}

// New returns an empty log. A nil clock uses time.Now.
func New(clock func() time.Time) *Log {
	if clock == nil {
		clock = time.Now
	}
	return &Log{
		entries: make([]Entry, 0, Capacity+1),
		clock:   clock,
	}
}

// Add inserts an entry at the front, evicting the oldest beyond Capacity.
func (l *Log) Add(message string, quality model.Quality) {
	entry := Entry{
		Message:   message,
		Glyph:     quality.Glyph(),
		Quality:   quality,
		CreatedAt: l.clock(),
	}
	l.entries = append(l.entries, Entry{})
	copy(l.entries[1:], l.entries)
	l.entries[0] = entry
	if len(l.entries) > Capacity {
		l.entries = l.entries[:Capacity]
	}
}

// AddPerfect records a perfect hold.
func (l *Log) AddPerfect(hold time.Duration) {
	l.Add(fmt.Sprintf("PERFECT %s", judge.FormatMs(hold)), model.Perfect)
}

// AddGood records a good hold.
func (l *Log) AddGood(hold time.Duration) {
	l.Add(fmt.Sprintf("Good %s", judge.FormatMs(hold)), model.Good)
}

// AddFailed records a miss with its message verbatim.
func (l *Log) AddFailed(message string) {
	l.Add(message, model.Failed)
}

// Record adds the entry matching a completion result.
func (l *Log) Record(result model.CompletionResult) {
	switch {
	case result.Message != "":
		l.AddFailed(result.Message)
	case result.Quality == model.Perfect:
		l.AddPerfect(result.Hold)
	case result.Quality == model.Good:
		l.AddGood(result.Hold)
	default:
		l.AddFailed(fmt.Sprintf("Failed %s", judge.FormatMs(result.Hold)))
	}
}

// Cleanup drops expired entries. Call once per tick before reading.
func (l *Log) Cleanup(now time.Time) {
	kept := l.entries[:0]
	for _, e := range l.entries {
		if !e.Expired(now) {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

// Entries returns a copy of all entries, newest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Visible returns unexpired entries with their opacity, newest first.
func (l *Log) Visible(now time.Time) []Visible {
	out := make([]Visible, 0, len(l.entries))
	for _, e := range l.entries {
		if e.Expired(now) {
			continue
		}
		out = append(out, Visible{Entry: e, Opacity: e.Opacity(now)})
	}
	return out
}

// Len returns the number of stored entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Clear removes all entries.
func (l *Log) Clear() {
	l.entries = l.entries[:0]
}
