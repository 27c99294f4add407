// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package pulse converts bytes into infrared mark/space timings using AEHA
// (Association for Electric Home Appliances) line coding.
//
// Every duration is a multiple of a unit time T. A block is a leader
// (8T mark, 4T space), one pair per data bit sent least significant bit first
// (T mark, then T space for 0 or 3T space for 1) and a trailer (T mark followed
// by a gap). Remotes tolerate a range of T, so T is always a parameter.
package pulse

import (
	"errors"
	"fmt"
	"time"
)

// DefaultUnit is the unit time of the reference remote
const DefaultUnit = 425 * time.Microsecond

// Timing in units of T
const (
	LeaderMark  = 8
	LeaderSpace = 4
	BitMark     = 1
	ZeroSpace   = 1
	OneSpace    = 3
	TrailerMark = 1
	AEHAGap     = 30
)

var (
	ErrInvalidUnit = errors.New("pulse: unit time must be positive")
	ErrEmptyBlock  = errors.New("pulse: block has no data")
	ErrInvalidGap  = errors.New("pulse: gap must be positive")
)

// Pair is one carrier burst (Mark) followed by silence (Space)
type Pair struct {
	Mark  time.Duration
	Space time.Duration
}

// Block is one leader-delimited run of bytes. Gap is the trailing space in units.
type Block struct {
	Data []byte
	Gap  int
}

// Count returns the number of pairs Encode produces for blocks
func Count(blocks ...Block) int {
	n := 0
	for _, b := range blocks {
		n += 1 + 8*len(b.Data) + 1
	}
	return n
}

// Bits expands data least significant bit first
func Bits(data []byte) []bool {
	out := make([]bool, 0, len(data)*8)
	for _, b := range data {
		for i := 0; i < 8; i++ {
			out = append(out, b&(1<<i) != 0)
		}
	}
	return out
}

// Encode builds the pulse sequence for blocks sent back to back
func Encode(unit time.Duration, blocks ...Block) (Sequence, error) {
	if unit <= 0 {
		return Sequence{}, fmt.Errorf("%w: %v", ErrInvalidUnit, unit)
	}
	if len(blocks) == 0 {
		return Sequence{}, ErrEmptyBlock
	}
	for i, b := range blocks {
		if len(b.Data) == 0 {
			return Sequence{}, fmt.Errorf("%w: block %d", ErrEmptyBlock, i)
		}
		if b.Gap <= 0 {
			return Sequence{}, fmt.Errorf("%w: block %d gap %d", ErrInvalidGap, i, b.Gap)
		}
	}

	var (
		leader = Pair{Mark: LeaderMark * unit, Space: LeaderSpace * unit}
		zero   = Pair{Mark: BitMark * unit, Space: ZeroSpace * unit}
		one    = Pair{Mark: BitMark * unit, Space: OneSpace * unit}
	)

	pairs := make([]Pair, 0, Count(blocks...))
	for _, b := range blocks {
		pairs = append(pairs, leader)
		for _, bit := range Bits(b.Data) {
			if bit {
				pairs = append(pairs, one)
			} else {
				pairs = append(pairs, zero)
			}
		}
		pairs = append(pairs, Pair{Mark: TrailerMark * unit, Space: time.Duration(b.Gap) * unit})
	}

	return Sequence{pairs: pairs, unit: unit}, nil
}

// EncodeAEHA encodes a single AEHA frame with the standard 30T trailer
func EncodeAEHA(data []byte, unit time.Duration) (Sequence, error) {
	return Encode(unit, Block{Data: data, Gap: AEHAGap})
}
