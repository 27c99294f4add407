// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package panasonic encodes Panasonic air conditioner remote control frames.
//
// A command is a fixed 19 byte frame: protocol constant bytes captured from the
// reference remote, a handful of field slots (mode, power, temperature, fan
// strength, fan direction, powerful and two auxiliary fan flags) and a trailing
// mod-256 checksum. Every command is preceded on the air by the constant
// HeaderFrame. Bytes are sent least significant bit first using AEHA line coding,
// see package pulse.
package panasonic

// Frame sizes
const (
	FrameSize    = 19
	HeaderSize   = 8
	checksumByte = FrameSize - 1
)

// Temperature limits (degrees Celsius)
const (
	MinTemperature     = 16
	MaxTemperature     = 30
	DefaultTemperature = 26
)

// Pulse framing in units of the unit time
const (
	HeaderGap = 8  // space after the header frame
	FrameGap  = 20 // space after the data frame
)

// HeaderFrame is emitted before every command frame. It never changes.
var HeaderFrame = [HeaderSize]byte{0x02, 0x20, 0xE0, 0x04, 0x00, 0x00, 0x00, 0x06}

// template holds the constant bytes of a command frame with every field slot
// zeroed. The checksum byte is filled in by Build.
var template = [FrameSize]byte{
	0x02, 0x20, 0xE0, 0x04, 0x00, // 0-4: fixed
	0x00,       // 5: mode | power
	0x00,       // 6: temperature
	0x80,       // 7: fixed
	0x00,       // 8: strength | direction
	0x00, 0x00, // 9-10: fixed
	0x06, 0x60, // 11-12: fixed
	0x00,             // 13: quiet | powerful
	0x00, 0x80, 0x00, // 14-16: fixed
	0x06, // 17: fan-auto | fixed
	0x00, // 18: checksum
}

// Fan strength nibbles
const (
	strengthNibble1     = 0x3
	strengthNibble2     = 0x4
	strengthNibble3     = 0x5
	strengthNibble4     = 0x7
	strengthNibbleAuto  = 0xA
	strengthNibbleQuiet = 0x3 // same as strength 1, told apart by the quiet flag
)

// Auxiliary flag values
const (
	quietFlagValue   = 0x2
	fanAutoFlagValue = 0x1
	directionAuto    = 0xF
)
