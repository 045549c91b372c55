package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/verte-zerg/strafe/internal/judge"
	"github.com/verte-zerg/strafe/internal/model"
	"github.com/verte-zerg/strafe/internal/trainer"
)

// plainInput is the part of the listener the line-mode loop needs.
type plainInput interface {
	DrainAll() []model.InputEvent
	Done() <-chan struct{}
}

// runPlain drives the trainer without a terminal UI and prints one line per
// completed attempt. It stops on Quit, when ctx ends, or when the input
// source finishes.
func runPlain(ctx context.Context, tr *trainer.Trainer, in plainInput, tickRate int, w io.Writer) error {
	if tickRate <= 0 {
		tickRate = defaultTickRate
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	sourceDone := in.Done()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sourceDone:
			// Flush whatever the source queued before it ended.
			return writeResults(w, tr.Tick(in.DrainAll()).Results)
		case <-ticker.C:
			snap := tr.Tick(in.DrainAll())
			if err := writeResults(w, snap.Results); err != nil {
				return err
			}
			if snap.Quit {
				return nil
			}
		}
	}
}

func writeResults(w io.Writer, results []model.CompletionResult) error {
	for _, r := range results {
		if _, err := fmt.Fprintln(w, formatResult(r)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

// formatResult renders a result as "<glyph> <verdict>  <from>→<to>".
func formatResult(r model.CompletionResult) string {
	verdict := r.Message
	if verdict == "" {
		label := "Good"
		if r.Quality == model.Perfect {
			label = "PERFECT"
		}
		verdict = fmt.Sprintf("%s %s", label, judge.FormatMs(r.Hold))
	}
	return fmt.Sprintf("%s %-16s %s→%s", r.Quality.Glyph(), verdict, r.Original.Glyph(), r.Counter.Glyph())
}
