package terminal

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

const spinnerInterval = 200 * time.Millisecond

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// animate redraws the spinner line until ctx is cancelled, then prints
// the final line. Outside a terminal it stays silent and just waits.
// The trailing spaces pad over leftovers from longer earlier frames.
func animate(ctx context.Context, isTTY bool, frame func(glyph string) string, final func() string) {
	if !isTTY {
		<-ctx.Done()
		return
	}

	idx := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(os.Stderr, "\r"+final()+"          \n")
			return

		case <-ticker.C:
			glyph := string(spinnerFrames[idx%len(spinnerFrames)])
			fmt.Fprint(os.Stderr, "\r"+frame(glyph)+"          ")
			idx++
		}
	}
}

// Spinner shows agent progress as a completed/total counter.
type Spinner struct {
	isTTY     bool
	completed *atomic.Int32
	total     int
}

// NewSpinner creates a spinner tracking total agents.
func NewSpinner(total int) *Spinner {
	return &Spinner{
		isTTY:     IsStderrTTY(),
		completed: &atomic.Int32{},
		total:     total,
	}
}

// Completed returns the counter incremented as agents finish.
func (s *Spinner) Completed() *atomic.Int32 {
	return s.completed
}

// Run animates the spinner until the context is cancelled.
func (s *Spinner) Run(ctx context.Context) {
	animate(ctx, s.isTTY,
		func(glyph string) string {
			return fmt.Sprintf("%s %s%s%s Running agents %s(%d/%d)%s",
				prefix(Cyan), Color(Cyan), glyph, Color(Reset),
				Color(Dim), s.completed.Load(), s.total, Color(Reset))
		},
		func() string {
			return fmt.Sprintf("%s %s✓%s Agents complete %s(%d/%d)%s",
				prefix(Green), Color(Green), Color(Reset),
				Color(Dim), s.completed.Load(), s.total, Color(Reset))
		})
}

// PhaseSpinner shows a single labeled phase, such as posting the review
// comment.
type PhaseSpinner struct {
	isTTY bool
	label string
}

// NewPhaseSpinner creates a spinner with a fixed label.
func NewPhaseSpinner(label string) *PhaseSpinner {
	return &PhaseSpinner{
		isTTY: IsStderrTTY(),
		label: label,
	}
}

// Run animates the spinner until the context is cancelled.
func (s *PhaseSpinner) Run(ctx context.Context) {
	animate(ctx, s.isTTY,
		func(glyph string) string {
			return fmt.Sprintf("%s %s%s%s %s", prefix(Cyan), Color(Cyan), glyph, Color(Reset), s.label)
		},
		func() string {
			return fmt.Sprintf("%s %s✓%s %s", prefix(Green), Color(Green), Color(Reset), s.label)
		})
}
