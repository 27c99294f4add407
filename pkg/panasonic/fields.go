// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panasonic

// Field names one slot of the command frame
type Field int

// Field slots
const (
	FieldMode Field = iota
	FieldPower
	FieldTemperature
	FieldStrength
	FieldDirection
	FieldPowerful
	FieldQuiet
	FieldFanAuto
)

var fieldNames = []string{"mode", "power", "temperature", "strength", "direction", "powerful", "quiet", "fan-auto"}

func (f Field) String() string {
	return enumName(fieldNames, int(f))
}

// Bits is one bit pattern destined for a fixed position of the frame
type Bits struct {
	Field  Field
	Offset int  // byte index within the frame
	Shift  uint // position of the least significant bit within the byte
	Width  uint // number of bits
	Value  uint8
}

// mask returns the in-byte mask of the slot
func (b Bits) mask() uint8 {
	return uint8((uint16(1)<<b.Width)-1) << b.Shift
}

// apply writes the pattern into frame, replacing whatever the slot held
func (b Bits) apply(frame *[FrameSize]byte) {
	frame[b.Offset] = frame[b.Offset]&^b.mask() | (b.Value<<b.Shift)&b.mask()
}

// extract reads the slot value back out of a frame
func (b Bits) extract(frame *[FrameSize]byte) uint8 {
	return (frame[b.Offset] & b.mask()) >> b.Shift
}

// slot is the fixed position of a field
type slot struct {
	offset int
	shift  uint
	width  uint
}

// slots is the frame layout. Positions are protocol constants.
var slots = [...]slot{
	FieldMode:        {offset: 5, shift: 4, width: 4},
	FieldPower:       {offset: 5, shift: 0, width: 4},
	FieldTemperature: {offset: 6, shift: 0, width: 8},
	FieldStrength:    {offset: 8, shift: 4, width: 4},
	FieldDirection:   {offset: 8, shift: 0, width: 4},
	FieldQuiet:       {offset: 13, shift: 4, width: 4},
	FieldPowerful:    {offset: 13, shift: 0, width: 4},
	FieldFanAuto:     {offset: 17, shift: 4, width: 4},
}

func bits(f Field, v uint8) Bits {
	s := slots[f]
	return Bits{Field: f, Offset: s.offset, Shift: s.shift, Width: s.width, Value: v}
}

// buildOrder lists the independent fields followed by the fan group.
var buildOrder = []Field{FieldMode, FieldPower, FieldTemperature, FieldDirection, FieldPowerful, FieldStrength}

// EncodeField returns the bit patterns for one field of s.
//
// Fan strength and its two auxiliary flags form one rule: asking for any of
// FieldStrength, FieldQuiet or FieldFanAuto yields all three patterns, so the
// frame can never hold a strength without its matching flags.
func EncodeField(f Field, s Settings) ([]Bits, error) {
	switch f {
	case FieldMode:
		if !s.Mode.valid() {
			return nil, invalid(FieldMode, s.Mode, "unknown mode")
		}
		return []Bits{bits(FieldMode, uint8(s.Mode))}, nil

	case FieldPower:
		if !s.Power.valid() {
			return nil, invalid(FieldPower, s.Power, "unknown power state")
		}
		return []Bits{bits(FieldPower, uint8(s.Power))}, nil

	case FieldTemperature:
		if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
			return nil, invalid(FieldTemperature, s.Temperature, "must be between 16 and 30")
		}
		return []Bits{bits(FieldTemperature, uint8(s.Temperature*2))}, nil

	case FieldDirection:
		if !s.Direction.valid() {
			return nil, invalid(FieldDirection, s.Direction, "unknown direction")
		}
		v := uint8(s.Direction)
		if s.Direction == DirectionAuto {
			v = directionAuto
		}
		return []Bits{bits(FieldDirection, v)}, nil

	case FieldPowerful:
		if !s.Powerful.valid() {
			return nil, invalid(FieldPowerful, s.Powerful, "unknown powerful state")
		}
		return []Bits{bits(FieldPowerful, uint8(s.Powerful))}, nil

	case FieldStrength, FieldQuiet, FieldFanAuto:
		return encodeFan(s)
	}
	return nil, invalid(f, int(f), "unknown field")
}

// encodeFan applies the fan strength rule:
//
//	1 -> 3, 2 -> 4, 3 -> 5, 4 -> 7, flags clear
//	auto  -> a, fan-auto flag 1 (not in heat mode)
//	quiet -> 3, quiet flag 2 (not while powerful is on)
func encodeFan(s Settings) ([]Bits, error) {
	var strength, quiet, fanAuto uint8

	switch s.Strength {
	case Fan1:
		strength = strengthNibble1
	case Fan2:
		strength = strengthNibble2
	case Fan3:
		strength = strengthNibble3
	case Fan4:
		strength = strengthNibble4
	case FanAuto:
		strength = strengthNibbleAuto
		if s.Mode != ModeHeat {
			fanAuto = fanAutoFlagValue
		}
	case FanQuiet:
		strength = strengthNibbleQuiet
		if s.Powerful != PowerfulOn {
			quiet = quietFlagValue
		}
	default:
		return nil, invalid(FieldStrength, s.Strength, "unknown fan strength")
	}

	return []Bits{
		bits(FieldStrength, strength),
		bits(FieldQuiet, quiet),
		bits(FieldFanAuto, fanAuto),
	}, nil
}

// decodeFields reads the field slots of a frame back into Settings
func decodeFields(frame *[FrameSize]byte) (Settings, error) {
	read := func(f Field) uint8 {
		return bits(f, 0).extract(frame)
	}

	var s Settings

	s.Mode = Mode(read(FieldMode))
	if !s.Mode.valid() {
		return Settings{}, invalid(FieldMode, read(FieldMode), "unknown mode nibble")
	}
	s.Power = Power(read(FieldPower))
	if !s.Power.valid() {
		return Settings{}, invalid(FieldPower, read(FieldPower), "unknown power nibble")
	}

	raw := read(FieldTemperature)
	s.Temperature = int(raw) / 2
	if raw%2 != 0 || s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		return Settings{}, invalid(FieldTemperature, raw, "temperature byte out of range")
	}

	switch d := read(FieldDirection); {
	case d == directionAuto:
		s.Direction = DirectionAuto
	case d >= 1 && d <= 5:
		s.Direction = FanDirection(d)
	default:
		return Settings{}, invalid(FieldDirection, d, "unknown direction nibble")
	}

	s.Powerful = Powerful(read(FieldPowerful))
	if !s.Powerful.valid() {
		return Settings{}, invalid(FieldPowerful, read(FieldPowerful), "unknown powerful nibble")
	}

	switch n := read(FieldStrength); n {
	case strengthNibble1:
		s.Strength = Fan1
		if read(FieldQuiet) == quietFlagValue {
			s.Strength = FanQuiet
		}
	case strengthNibble2:
		s.Strength = Fan2
	case strengthNibble3:
		s.Strength = Fan3
	case strengthNibble4:
		s.Strength = Fan4
	case strengthNibbleAuto:
		s.Strength = FanAuto
	default:
		return Settings{}, invalid(FieldStrength, n, "unknown strength nibble")
	}

	return s, nil
}
