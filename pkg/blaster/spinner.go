// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package blaster

import "time"

const (
	// DefaultMaxLag is how far a Spinner may fall behind before it resyncs.
	// It is below half a 38 kHz carrier period, so a stall is never made up
	// by firing edges back to back.
	DefaultMaxLag = 10 * time.Microsecond

	// coarseMargin is left for busy-waiting after a scheduler sleep in Idle
	coarseMargin = 2 * time.Millisecond
)

// Spinner sleeps against an absolute deadline. Each Sleep extends the
// deadline of the previous one, so the time spent toggling pins between
// sleeps is absorbed. Sleep always busy-spins; only Idle hands the wait to
// the scheduler.
//
// When the caller falls more than MaxLag behind, the deadline restarts from
// the current time and the overrun is counted. The late edge is stretched
// instead of later edges being compressed.
//
// The zero value is ready to use. A Spinner is not safe for concurrent use.
type Spinner struct {
	MaxLag time.Duration

	next     time.Time
	overruns int
	now      func() time.Time
}

func (s *Spinner) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Spinner) Sleep(d time.Duration) {
	now := s.clock()
	maxLag := s.MaxLag
	if maxLag <= 0 {
		maxLag = DefaultMaxLag
	}
	switch {
	case s.next.IsZero():
		s.next = now
	case now.Sub(s.next) > maxLag:
		s.overruns++
		s.next = now
	}
	s.next = s.next.Add(d)

	for s.clock().Before(s.next) {
	}
}

// Idle waits about d, sleeping in the scheduler for most of it, and forgets
// the deadline. It is for the idle time between frames, never inside one.
func (s *Spinner) Idle(d time.Duration) {
	end := s.clock().Add(d)
	if d > 2*coarseMargin {
		time.Sleep(d - coarseMargin)
	}
	for s.clock().Before(end) {
	}
	s.next = time.Time{}
}

// Overruns is the number of times Sleep found itself more than MaxLag late
func (s *Spinner) Overruns() int {
	return s.overruns
}

// Reset forgets the deadline and the overrun count
func (s *Spinner) Reset() {
	s.next = time.Time{}
	s.overruns = 0
}
