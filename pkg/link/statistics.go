// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// Statistics counts decoded packets and framing errors on a link
type Statistics struct {
	StartTime time.Time

	TotalFrames    uint64
	ValidPackets   uint64
	CRCErrors      uint64
	OversizeFrames uint64
	FramingErrors  uint64
	Unparsable     uint64

	ByType map[uint8]uint64
}

func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now(), ByType: make(map[uint8]uint64)}
}

// Update records the result of one Decoder.DecodeByte call that returned a
// packet or an error
func (s *Statistics) Update(p *Packet, decodeErr error) {
	if p == nil && decodeErr == nil {
		return
	}
	s.TotalFrames++

	switch {
	case errors.Is(decodeErr, ErrChecksum):
		s.CRCErrors++
	case errors.Is(decodeErr, ErrPayloadTooLarge):
		s.OversizeFrames++
	case decodeErr != nil:
		s.FramingErrors++
	case p.ParseError() != nil:
		s.Unparsable++
	default:
		s.ValidPackets++
		s.ByType[p.Type()]++
	}
}

// Errors is the number of frames that did not yield a usable packet
func (s *Statistics) Errors() uint64 {
	return s.CRCErrors + s.OversizeFrames + s.FramingErrors + s.Unparsable
}

// Rates returns frames/s and errors/s since StartTime
func (s *Statistics) Rates(now time.Time) (frames, errs float64) {
	elapsed := now.Sub(s.StartTime).Seconds()
	if elapsed <= 0 {
		return 0, 0
	}
	return float64(s.TotalFrames) / elapsed, float64(s.Errors()) / elapsed
}

func percent(n, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) * 100 / float64(total)
}

func (s *Statistics) String() string {
	now := time.Now()
	frameRate, errRate := s.Rates(now)

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Statistics (%.0f seconds) ===\n", now.Sub(s.StartTime).Seconds())
	fmt.Fprintf(&sb, "Total Frames:    %8d\n", s.TotalFrames)
	fmt.Fprintf(&sb, "Valid Packets:   %8d (%.1f%%)\n", s.ValidPackets, percent(s.ValidPackets, s.TotalFrames))
	if s.CRCErrors > 0 {
		fmt.Fprintf(&sb, "CRC Errors:      %8d (%.1f%%)\n", s.CRCErrors, percent(s.CRCErrors, s.TotalFrames))
	}
	if s.OversizeFrames > 0 {
		fmt.Fprintf(&sb, "Oversize:        %8d (%.1f%%)\n", s.OversizeFrames, percent(s.OversizeFrames, s.TotalFrames))
	}
	if s.FramingErrors > 0 {
		fmt.Fprintf(&sb, "Framing Errors:  %8d (%.1f%%)\n", s.FramingErrors, percent(s.FramingErrors, s.TotalFrames))
	}
	if s.Unparsable > 0 {
		fmt.Fprintf(&sb, "Unparsable:      %8d (%.1f%%)\n", s.Unparsable, percent(s.Unparsable, s.TotalFrames))
	}
	for _, t := range slices.Sorted(maps.Keys(s.ByType)) {
		fmt.Fprintf(&sb, "  %-16s %6d\n", FormatMessageType(t)+":", s.ByType[t])
	}
	fmt.Fprintf(&sb, "Frame Rate:      %8.1f frames/s\n", frameRate)
	fmt.Fprintf(&sb, "Error Rate:      %8.1f errors/s\n", errRate)
	return sb.String()
}
