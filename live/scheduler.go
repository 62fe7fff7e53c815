// Package live applies token maps to a rendering surface and coalesces
// bursts of updates coming from continuous input widgets.
package live

import (
	"errors"
	"sync"
	"time"
)

// DefaultFrame is the duration of one animation frame at 60Hz.
const DefaultFrame = 16 * time.Millisecond

// ErrClosed is returned when scheduling on a closed scheduler.
var ErrClosed = errors.New("scheduler is closed")

// timer is the part of *time.Timer scheduler uses.
type timer interface {
	Stop() bool
}

// afterFunc arms a timer, replaced in tests.
type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// FrameScheduler runs at most one callback per frame. Scheduling while a
// callback is pending replaces it, callbacks are never queued.
type FrameScheduler struct {
	mu      sync.Mutex
	frame   time.Duration
	after   afterFunc
	timer   timer
	pending func()
	gen     uint64
	closed  bool
}

// NewFrameScheduler creates scheduler, non positive frame means DefaultFrame.
func NewFrameScheduler(frame time.Duration) *FrameScheduler {
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &FrameScheduler{frame: frame, after: realAfterFunc}
}

// Frame returns frame duration.
func (s *FrameScheduler) Frame() time.Duration {
	return s.frame
}

// Schedule makes fn the callback to run at the next frame, withdrawing any
// callback scheduled earlier. It reports whether a pending callback was
// replaced.
func (s *FrameScheduler) Schedule(fn func()) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}

	replaced := s.stopLocked()
	s.gen++
	s.pending = fn
	gen := s.gen
	s.timer = s.after(s.frame, func() { s.fire(gen) })
	return replaced, nil
}

func (s *FrameScheduler) fire(gen uint64) {
	s.mu.Lock()
	// timer which lost the race with Stop must not run replaced callback
	if gen != s.gen || s.pending == nil {
		s.mu.Unlock()
		return
	}
	fn := s.pending
	s.pending, s.timer = nil, nil
	s.mu.Unlock()

	fn()
}

// Cancel withdraws pending callback. It reports whether there was one.
func (s *FrameScheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

// Pending reports whether a callback waits for the next frame.
func (s *FrameScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Close cancels pending callback, further Schedule calls fail.
func (s *FrameScheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.closed = true
}

func (s *FrameScheduler) stopLocked() bool {
	had := s.pending != nil
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	s.pending, s.timer = nil, nil
	return had
}
