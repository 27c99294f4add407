// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package blaster

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/breeze/pkg/pulse"
)

// MaxRepeat bounds the number of repeats of one plan
const MaxRepeat = 16

// Plan is a sequence scheduled for emission. A plan can be sent once.
type Plan struct {
	seq    pulse.Sequence
	repeat int
	gap    time.Duration
	used   atomic.Bool
}

// NewPlan schedules seq to be sent repeat times with gap of extra idle time
// between repeats. The gap is in addition to the last space of the sequence.
func NewPlan(seq pulse.Sequence, repeat int, gap time.Duration) (*Plan, error) {
	if seq.Len() == 0 {
		return nil, fmt.Errorf("%w: empty sequence", ErrInvalidPlan)
	}
	if repeat < 1 || repeat > MaxRepeat {
		return nil, fmt.Errorf("%w: repeat %d outside [1, %d]", ErrInvalidPlan, repeat, MaxRepeat)
	}
	if gap < 0 {
		return nil, fmt.Errorf("%w: negative gap %v", ErrInvalidPlan, gap)
	}
	for i := 0; i < seq.Len(); i++ {
		if p := seq.At(i); p.Mark <= 0 || p.Space < 0 {
			return nil, fmt.Errorf("%w: pair %d has mark %v space %v", ErrInvalidPlan, i, p.Mark, p.Space)
		}
	}
	return &Plan{seq: seq, repeat: repeat, gap: gap}, nil
}

func (p *Plan) Sequence() pulse.Sequence { return p.seq }
func (p *Plan) Repeat() int              { return p.repeat }
func (p *Plan) Gap() time.Duration       { return p.gap }

// Pairs is the number of pairs over all repeats
func (p *Plan) Pairs() int {
	return p.seq.Len() * p.repeat
}

// Duration is the nominal on-air time including gaps
func (p *Plan) Duration() time.Duration {
	return p.seq.Duration()*time.Duration(p.repeat) + p.gap*time.Duration(p.repeat-1)
}

// Consumed reports whether the plan has been handed to a sender
func (p *Plan) Consumed() bool {
	return p.used.Load()
}

// Consume marks the plan as sent. It fails with ErrPlanConsumed the second time.
func (p *Plan) Consume() error {
	if !p.used.CompareAndSwap(false, true) {
		return ErrPlanConsumed
	}
	return nil
}

// Report summarizes a completed transmission
type Report struct {
	Repeats int
	Pairs   int
	Elapsed time.Duration
}

func (r Report) String() string {
	return fmt.Sprintf("%d pairs in %d repeat(s), %v", r.Pairs, r.Repeats, r.Elapsed)
}
