// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pulse

import (
	"fmt"
	"strings"
	"time"
)

// Sequence is an ordered, read-only list of pairs
type Sequence struct {
	pairs []Pair
	unit  time.Duration
}

// FromPairs wraps externally supplied pairs. The slice is copied.
func FromPairs(unit time.Duration, pairs []Pair) Sequence {
	cp := make([]Pair, len(pairs))
	copy(cp, pairs)
	return Sequence{pairs: cp, unit: unit}
}

// Len returns the number of pairs
func (s Sequence) Len() int {
	return len(s.pairs)
}

// At returns pair i
func (s Sequence) At(i int) Pair {
	return s.pairs[i]
}

// Pairs returns a copy of all pairs
func (s Sequence) Pairs() []Pair {
	cp := make([]Pair, len(s.pairs))
	copy(cp, s.pairs)
	return cp
}

// Unit returns the unit time the sequence was scaled from
func (s Sequence) Unit() time.Duration {
	return s.unit
}

// Duration returns the total on-air time
func (s Sequence) Duration() time.Duration {
	var d time.Duration
	for _, p := range s.pairs {
		d += p.Mark + p.Space
	}
	return d
}

// Marks returns the distinct mark durations in first-seen order
func (s Sequence) Marks() []time.Duration {
	seen := make(map[time.Duration]bool)
	var out []time.Duration
	for _, p := range s.pairs {
		if !seen[p.Mark] {
			seen[p.Mark] = true
			out = append(out, p.Mark)
		}
	}
	return out
}

// Micros flattens the sequence into alternating mark, space durations in
// microseconds. This is the raw code format used by pigpio's irrp.py.
func (s Sequence) Micros() []int {
	out := make([]int, 0, 2*len(s.pairs))
	for _, p := range s.pairs {
		out = append(out, int(p.Mark/time.Microsecond), int(p.Space/time.Microsecond))
	}
	return out
}

// Units returns the sequence in multiples of the unit time, rounded
func (s Sequence) Units() []int {
	if s.unit <= 0 {
		return nil
	}
	out := make([]int, 0, 2*len(s.pairs))
	round := func(d time.Duration) int {
		return int((d + s.unit/2) / s.unit)
	}
	for _, p := range s.pairs {
		out = append(out, round(p.Mark), round(p.Space))
	}
	return out
}

// String formats the sequence as a compact unit listing
func (s Sequence) String() string {
	units := s.Units()
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d pairs, T=%v, %v:", len(s.pairs), s.unit, s.Duration())
	for i := 0; i+1 < len(units); i += 2 {
		fmt.Fprintf(&sb, " %d/%d", units[i], units[i+1])
	}
	return sb.String()
}
