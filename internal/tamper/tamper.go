// Package tamper detects wall-clock manipulation. The monotonic clock
// cannot be set by a user with clock-admin rights, so a wall-clock
// regression relative to monotonic progress is evidence the clock was
// moved back to defeat day-rollover or schedule checks.
package tamper

import (
	"fmt"
	"log/slog"
	"time"
)

const DefaultThreshold = 60 * time.Second

// Detector compares wall-clock progress against the monotonic clock
// between successive checks.
type Detector struct {
	threshold time.Duration

	wallNow func() time.Time
	monoNow func() time.Duration

	primed   bool
	lastWall time.Time
	lastMono time.Duration
}

func New(threshold time.Duration) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	start := time.Now()
	return &Detector{
		threshold: threshold,
		// Round(0) strips the monotonic reading; comparisons below must
		// see only the wall clock.
		wallNow: func() time.Time { return time.Now().Round(0) },
		monoNow: func() time.Duration { return time.Since(start) },
	}
}

// Check reports whether the wall clock moved backwards by more than the
// threshold since the previous check. The baseline always slides to the
// current readings, so one tamper event is reported once, not repeatedly.
func (d *Detector) Check() (bool, string) {
	wall := d.wallNow()
	mono := d.monoNow()

	if !d.primed {
		d.lastWall = wall
		d.lastMono = mono
		d.primed = true
		return false, "initial check"
	}

	expected := d.lastWall.Add(mono - d.lastMono)
	diff := wall.Sub(expected)

	d.lastWall = wall
	d.lastMono = mono

	if diff < -d.threshold {
		jump := int(-diff.Seconds())
		slog.Warn("clock tamper detected", "backwards_seconds", jump)
		return true, fmt.Sprintf("Clock jumped backwards by %d seconds", jump)
	}
	return false, "OK"
}

// Reset clears the baseline; the next Check primes it again.
func (d *Detector) Reset() {
	d.primed = false
}
