// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panasonic

import (
	"fmt"
	"strings"
)

// FormatBytes formats data as space separated lowercase hex
func FormatBytes(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

// FormatFrame renders a frame with one line per field slot
func FormatFrame(f Frame) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Header: %s\n", FormatBytes(HeaderFrame[:]))
	fmt.Fprintf(&sb, "Frame:  %s\n", f.Spaced())

	s, err := f.Settings()
	if err != nil {
		fmt.Fprintf(&sb, "  (undecodable: %v)\n", err)
		return sb.String()
	}

	raw := [FrameSize]byte(f)
	for _, field := range []Field{FieldMode, FieldPower, FieldTemperature, FieldStrength, FieldDirection, FieldQuiet, FieldPowerful, FieldFanAuto} {
		b := bits(field, 0)
		fmt.Fprintf(&sb, "  byte %2d [%d+%d] %-11s = 0x%X%s\n",
			b.Offset, b.Shift, b.Width, field, b.extract(&raw), describeField(field, s))
	}
	fmt.Fprintf(&sb, "  byte %2d       checksum    = 0x%02X\n", checksumByte, f.Checksum())

	return sb.String()
}

func describeField(f Field, s Settings) string {
	switch f {
	case FieldMode:
		return " (" + s.Mode.String() + ")"
	case FieldPower:
		return " (" + s.Power.String() + ")"
	case FieldTemperature:
		return fmt.Sprintf(" (%d°C)", s.Temperature)
	case FieldStrength:
		return " (" + s.Strength.String() + ")"
	case FieldDirection:
		return " (" + s.Direction.String() + ")"
	case FieldPowerful:
		return " (" + s.Powerful.String() + ")"
	}
	return ""
}
