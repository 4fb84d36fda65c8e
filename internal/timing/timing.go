// Package timing records how long each step of a multi-step operation took.
package timing

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer tracks durations of named steps.
type Timer struct {
	now    func() time.Time
	start  time.Time
	last   time.Time
	phases []Phase
}

// Phase represents a timed step with name and duration.
type Phase struct {
	Name     string
	Duration time.Duration
}

// New creates a new Timer starting from now.
func New() *Timer {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Timer {
	start := now()
	return &Timer{now: now, start: start, last: start}
}

// Mark records a named step ending now.
// Duration is time since the previous mark (or since start if first mark).
func (t *Timer) Mark(name string) {
	now := t.now()
	t.phases = append(t.phases, Phase{Name: name, Duration: now.Sub(t.last)})
	t.last = now
}

// Total returns the total elapsed time since timer creation.
func (t *Timer) Total() time.Duration {
	return t.now().Sub(t.start)
}

// Phases returns all recorded steps.
func (t *Timer) Phases() []Phase {
	return t.phases
}

// LogValue renders the steps as a log group, e.g. timing.export=1.20s.
func (t *Timer) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(t.phases)+1)
	for _, p := range t.phases {
		attrs = append(attrs, slog.String(p.Name, formatDuration(p.Duration)))
	}
	attrs = append(attrs, slog.String("total", formatDuration(t.Total())))
	return slog.GroupValue(attrs...)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
