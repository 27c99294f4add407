// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package blaster

import (
	"errors"
	"sync"
	"time"

	"github.com/Thermoquad/breeze/pkg/pulse"
)

// ErrInjectedFault is returned by a Recorder once FailAfter is reached
var ErrInjectedFault = errors.New("blaster: injected driver fault")

// Event is one recorded driver call. Sleep events have Level unset.
type Event struct {
	At    time.Duration // virtual time of the call
	Pin   int
	Sleep bool
	Level Level
	D     time.Duration
}

// Recorder is a Driver that records calls and advances a virtual clock
// instead of sleeping.
type Recorder struct {
	// FailAfter makes SetLevel fail after this many successful calls. Zero disables.
	FailAfter int

	mu     sync.Mutex
	events []Event
	now    time.Duration
	sets   int
}

func (r *Recorder) SetLevel(pin int, level Level) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAfter > 0 && r.sets >= r.FailAfter {
		return ErrInjectedFault
	}
	r.sets++
	r.events = append(r.events, Event{At: r.now, Pin: pin, Level: level})
	return nil
}

func (r *Recorder) Sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{At: r.now, Sleep: true, D: d})
	r.now += d
}

// Events returns a copy of the recorded calls
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Elapsed returns the virtual time slept
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now
}

// Edges counts SetLevel calls
func (r *Recorder) Edges() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sets
}

// Reset clears events and the clock
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.now = 0
	r.sets = 0
}

// Pairs rebuilds the mark/space envelope from the recording. Low periods up
// to threshold are carrier off-time and belong to the mark; longer ones start
// a space. The trailing space of the recording is included.
func (r *Recorder) Pairs(threshold time.Duration) []pulse.Pair {
	events := r.Events()

	var (
		pairs   []pulse.Pair
		level   = Low
		lowRun  time.Duration
		current pulse.Pair
		inMark  bool
		inSpace bool
	)
	flush := func() {
		if inMark || inSpace {
			pairs = append(pairs, current)
		}
		current = pulse.Pair{}
		inMark, inSpace = false, false
	}

	for _, e := range events {
		if !e.Sleep {
			if e.Level == High && level == Low {
				if inSpace {
					flush()
				}
				if inMark {
					current.Mark += lowRun
				}
				lowRun = 0
				inMark = true
			}
			level = e.Level
			continue
		}
		switch {
		case level == High:
			current.Mark += e.D
		case inSpace:
			current.Space += e.D
		case inMark:
			lowRun += e.D
			if lowRun > threshold {
				current.Space = lowRun
				lowRun = 0
				inMark, inSpace = false, true
			}
		}
	}
	if inMark {
		current.Space += lowRun
	}
	flush()
	return pairs
}
