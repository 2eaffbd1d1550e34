// Package clock implements the monotonic, speed-scalable virtual clock that is the
// sole authority for the current media timeline position. It is read from the decode
// worker and written from the control goroutine concurrently, so every access goes
// through a single lock.
package clock

import (
	"fmt"
	"sync"
	"time"
)

// Speed multiplier bounds accepted by SetSpeed.
const (
	MinSpeed = 0.2
	MaxSpeed = 4.0
)

// Clock is a virtual media-timeline clock.
//
// Invariant: while running, Current() = base + elapsed_since_last_start * speed;
// while stopped or paused, Current() = base. Every mutator folds the current
// computed time into base before changing anything, so no discontinuity can be
// observed across Start/Pause/Seek/SetSpeed calls.
type Clock struct {
	mu        sync.Mutex
	base      float64
	speed     float64
	running   bool
	startedAt time.Time
}

// New returns a stopped clock at position 0 with speed 1.0.
func New() *Clock {
	return &Clock{speed: 1.0}
}

// current computes the clock value. Callers must hold c.mu.
func (c *Clock) current() float64 {
	if !c.running {
		return c.base
	}
	return c.base + time.Since(c.startedAt).Seconds()*c.speed
}

// rebase folds the current computed time into base. Callers must hold c.mu.
func (c *Clock) rebase() {
	c.base = c.current()
	c.startedAt = time.Now()
}

// Current returns the current timeline position in seconds.
func (c *Clock) Current() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current()
}

// Start resumes the clock from its current position.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.startedAt = time.Now()
	c.running = true
}

// Pause freezes the clock at its current position.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	c.rebase()
	c.running = false
}

// Stop freezes the clock and resets it to position 0.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = 0
	c.running = false
}

// Seek jumps to an absolute position, preserving the running/stopped status.
func (c *Clock) Seek(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = t
	c.startedAt = time.Now()
}

// SeekRelative jumps by a signed offset from the current position.
func (c *Clock) SeekRelative(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = c.current() + delta
	c.startedAt = time.Now()
}

// Speed returns the current speed multiplier.
func (c *Clock) Speed() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speed
}

// SetSpeed changes the speed multiplier. The current computed time becomes the
// new base before the rate changes, so no jump occurs at the moment of change.
func (c *Clock) SetSpeed(speed float64) error {
	if speed < MinSpeed || speed > MaxSpeed {
		return fmt.Errorf("speed %.2f out of range [%.1f, %.1f]", speed, MinSpeed, MaxSpeed)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rebase()
	c.speed = speed
	return nil
}

// Running reports whether the clock is advancing.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
