package timing

import (
	"time"

	"socrat/internal/models/domain"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

// Now carries a monotonic reading, so Sub between two calls ignores wall-clock jumps.
func (SystemClock) Now() time.Time { return time.Now() }

// Tracker attributes elapsed time to the question currently on screen.
// It is not safe for concurrent use; the owning engine serializes access.
type Tracker struct {
	current  int
	lastMark time.Time
	times    domain.TimeMap
}

func NewTracker() *Tracker {
	return &Tracker{times: domain.TimeMap{}}
}

// Start anchors the tracker on question 0 at now.
func (t *Tracker) Start(now time.Time) {
	t.current = 0
	t.lastMark = now
}

func (t *Tracker) Current() int { return t.current }

// Mark closes the current dwell segment at now and credits it to the current question.
func (t *Tracker) Mark(now time.Time) {
	t.times[t.current] += elapsedSeconds(t.lastMark, now)
	t.lastMark = now
}

// MoveTo marks, then makes index the question being viewed.
func (t *Tracker) MoveTo(index int, now time.Time) {
	t.Mark(now)
	t.current = index
}

// Snapshot returns what Mark(now) would produce without changing the tracker.
func (t *Tracker) Snapshot(now time.Time) domain.TimeMap {
	out := t.times.Clone()
	out[t.current] += elapsedSeconds(t.lastMark, now)
	return out
}

func elapsedSeconds(from, to time.Time) float64 {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return d.Seconds()
}
