// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panasonic

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/breeze/pkg/pulse"
)

// ============================================================
// Golden Frames
// ============================================================

// Frames captured from the reference encoder
func TestBuild_KnownFrames(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		expected string
	}{
		{
			name:     "cool 28 auto fan",
			settings: Settings{PowerOn, ModeCool, 28, FanAuto, DirectionAuto, PowerfulOff},
			expected: "02 20 e0 04 00 31 38 80 af 00 00 06 60 00 00 80 00 16 9a",
		},
		{
			name:     "off cool 28 quiet direction 1",
			settings: Settings{PowerOff, ModeCool, 28, FanQuiet, Direction1, PowerfulOff},
			expected: "02 20 e0 04 00 30 38 80 31 00 00 06 60 20 00 80 00 06 2b",
		},
		{
			name:     "heat suppresses fan-auto flag",
			settings: Settings{PowerOn, ModeHeat, 22, FanAuto, Direction3, PowerfulOff},
			expected: "02 20 e0 04 00 41 2c 80 a3 00 00 06 60 00 00 80 00 06 82",
		},
		{
			name:     "dry 16 max fan vertical powerful",
			settings: Settings{PowerOn, ModeDry, 16, Fan4, Direction5, PowerfulOn},
			expected: "02 20 e0 04 00 21 20 80 75 00 00 06 60 01 00 80 00 06 29",
		},
		{
			name:     "powerful overrides quiet flag",
			settings: Settings{PowerOn, ModeFan, 30, FanQuiet, DirectionAuto, PowerfulOn},
			expected: "02 20 e0 04 00 11 3c 80 3f 00 00 06 60 01 00 80 00 06 ff",
		},
		{
			name:     "auto 24 strength 2",
			settings: Settings{PowerOn, ModeAuto, 24, Fan2, Direction2, PowerfulOff},
			expected: "02 20 e0 04 00 01 30 80 42 00 00 06 60 00 00 80 00 06 e5",
		},
		{
			name:     "cool 25 strength 1",
			settings: Settings{PowerOn, ModeCool, 25, Fan1, Direction4, PowerfulOff},
			expected: "02 20 e0 04 00 31 32 80 34 00 00 06 60 00 00 80 00 06 09",
		},
		{
			name:     "cool 25 strength 3",
			settings: Settings{PowerOn, ModeCool, 25, Fan3, DirectionAuto, PowerfulOff},
			expected: "02 20 e0 04 00 31 32 80 5f 00 00 06 60 00 00 80 00 06 34",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Build(tt.settings)
			if err != nil {
				t.Fatalf("Build failed: %v", err)
			}
			if got := f.Spaced(); got != tt.expected {
				t.Errorf("frame mismatch:\n got  %s\n want %s", got, tt.expected)
			}
		})
	}
}

func TestBuild_EndToEndExample(t *testing.T) {
	f, err := Build(Settings{
		Power:       PowerOn,
		Mode:        ModeCool,
		Temperature: 28,
		Strength:    FanAuto,
		Direction:   DirectionAuto,
		Powerful:    PowerfulOff,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if f[6] != 0x38 {
		t.Errorf("temperature byte: got 0x%02X, want 0x38", f[6])
	}
	if f[5]>>4 != 0x3 {
		t.Errorf("mode nibble: got 0x%X, want 0x3", f[5]>>4)
	}
	if f[5]&0x0F != 0x1 {
		t.Errorf("power nibble: got 0x%X, want 0x1", f[5]&0x0F)
	}
	if f[8]&0x0F != 0xF {
		t.Errorf("direction nibble: got 0x%X, want 0xF", f[8]&0x0F)
	}
	if f[8]>>4 != 0xA {
		t.Errorf("strength nibble: got 0x%X, want 0xA", f[8]>>4)
	}
	if f[17]>>4 != 0x1 {
		t.Errorf("fan-auto flag: got 0x%X, want 0x1", f[17]>>4)
	}
	if f[13]&0x0F != 0x0 {
		t.Errorf("powerful nibble: got 0x%X, want 0x0", f[13]&0x0F)
	}
	if f.Checksum() != Checksum(f[:FrameSize-1]) {
		t.Errorf("checksum: got 0x%02X, want 0x%02X", f.Checksum(), Checksum(f[:FrameSize-1]))
	}

	unit := 425 * time.Microsecond
	seq, err := EncodePulses(f, unit)
	if err != nil {
		t.Fatalf("EncodePulses failed: %v", err)
	}
	tolerance := unit / 20
	data := append(append([]byte{}, HeaderFrame[:]...), f[:]...)
	bits := pulse.Bits(data)

	// Skip leaders, separators and trailers; check every data bit pair
	bitIndex := 0
	for i := 0; i < seq.Len(); i++ {
		p := seq.At(i)
		if p.Mark != unit {
			continue // leader
		}
		if i == 1+len(HeaderFrame)*8 || i == seq.Len()-1 {
			continue // trailers
		}
		want := unit
		if bits[bitIndex] {
			want = 3 * unit
		}
		if diff := p.Space - want; diff > tolerance || diff < -tolerance {
			t.Fatalf("pair %d (bit %d): space %v, want %v", i, bitIndex, p.Space, want)
		}
		bitIndex++
	}
	if bitIndex != len(bits) {
		t.Errorf("checked %d bits, want %d", bitIndex, len(bits))
	}
}

// ============================================================
// Invariants
// ============================================================

func TestBuild_Deterministic(t *testing.T) {
	s := Settings{PowerOn, ModeHeat, 21, Fan2, Direction3, PowerfulOff}
	f1, err := Build(s)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	f2, err := Build(s)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if f1 != f2 {
		t.Errorf("frames differ:\n %s\n %s", f1, f2)
	}
}

func TestBuild_ProtocolConstantsUntouched(t *testing.T) {
	fixed := []int{0, 1, 2, 3, 4, 7, 9, 10, 11, 12, 14, 15, 16}
	for _, s := range allSettings(t) {
		f := MustBuild(s)
		for _, i := range fixed {
			if f[i] != template[i] {
				t.Fatalf("%v: byte %d changed: got 0x%02X, want 0x%02X", s, i, f[i], template[i])
			}
		}
		if f[17]&0x0F != 0x6 {
			t.Fatalf("%v: low nibble of byte 17 changed: 0x%02X", s, f[17])
		}
	}
}

func TestTemperature_RoundTrip(t *testing.T) {
	for temp := MinTemperature; temp <= MaxTemperature; temp++ {
		s := DefaultSettings()
		s.Temperature = temp
		f, err := Build(s)
		if err != nil {
			t.Fatalf("temp %d: Build failed: %v", temp, err)
		}
		if int(f[6]) != temp*2 {
			t.Errorf("temp %d: byte 0x%02X, want 0x%02X", temp, f[6], temp*2)
		}
		if f.Temperature() != temp {
			t.Errorf("temp %d: decoded %d", temp, f.Temperature())
		}
	}
}

func TestFanStrength_FlagCoupling(t *testing.T) {
	tests := []struct {
		strength FanStrength
		nibble   byte
		fanAuto  byte
		quiet    byte
	}{
		{Fan1, 0x3, 0, 0},
		{Fan2, 0x4, 0, 0},
		{Fan3, 0x5, 0, 0},
		{Fan4, 0x7, 0, 0},
		{FanAuto, 0xA, 1, 0},
		{FanQuiet, 0x3, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.strength.String(), func(t *testing.T) {
			s := Settings{PowerOn, ModeCool, 24, tt.strength, DirectionAuto, PowerfulOff}
			f := MustBuild(s)
			if f[8]>>4 != tt.nibble {
				t.Errorf("strength nibble: got 0x%X, want 0x%X", f[8]>>4, tt.nibble)
			}
			if f[17]>>4 != tt.fanAuto {
				t.Errorf("fan-auto flag: got %d, want %d", f[17]>>4, tt.fanAuto)
			}
			if f[13]>>4 != tt.quiet {
				t.Errorf("quiet flag: got %d, want %d", f[13]>>4, tt.quiet)
			}
		})
	}
}

func TestEncodeField_FanGroupIsAtomic(t *testing.T) {
	s := Settings{PowerOn, ModeCool, 24, FanQuiet, DirectionAuto, PowerfulOff}
	for _, f := range []Field{FieldStrength, FieldQuiet, FieldFanAuto} {
		got, err := EncodeField(f, s)
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if len(got) != 3 {
			t.Fatalf("%s: got %d patterns, want 3", f, len(got))
		}
		if got[0].Field != FieldStrength || got[1].Field != FieldQuiet || got[2].Field != FieldFanAuto {
			t.Errorf("%s: unexpected fields %v %v %v", f, got[0].Field, got[1].Field, got[2].Field)
		}
		if got[0].Value != 0x3 || got[1].Value != 0x2 || got[2].Value != 0x0 {
			t.Errorf("%s: unexpected values %d %d %d", f, got[0].Value, got[1].Value, got[2].Value)
		}
	}
}

func TestEncodeField_Slots(t *testing.T) {
	s := Settings{PowerOn, ModeHeat, 20, Fan3, Direction2, PowerfulOn}
	tests := []struct {
		field  Field
		offset int
		shift  uint
		width  uint
		value  uint8
	}{
		{FieldMode, 5, 4, 4, 4},
		{FieldPower, 5, 0, 4, 1},
		{FieldTemperature, 6, 0, 8, 40},
		{FieldDirection, 8, 0, 4, 2},
		{FieldPowerful, 13, 0, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			got, err := EncodeField(tt.field, s)
			if err != nil {
				t.Fatalf("EncodeField failed: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("got %d patterns, want 1", len(got))
			}
			b := got[0]
			if b.Offset != tt.offset || b.Shift != tt.shift || b.Width != tt.width || b.Value != tt.value {
				t.Errorf("got %+v, want offset=%d shift=%d width=%d value=%d", b, tt.offset, tt.shift, tt.width, tt.value)
			}
		})
	}
}

// ============================================================
// Errors
// ============================================================

func TestBuild_InvalidParameter(t *testing.T) {
	tests := []struct {
		name     string
		settings Settings
		field    Field
	}{
		{"temperature 31", Settings{PowerOn, ModeCool, 31, FanAuto, DirectionAuto, PowerfulOff}, FieldTemperature},
		{"temperature 15", Settings{PowerOn, ModeCool, 15, FanAuto, DirectionAuto, PowerfulOff}, FieldTemperature},
		{"zero temperature", Settings{}, FieldTemperature},
		{"unknown mode", Settings{PowerOn, Mode(5), 24, FanAuto, DirectionAuto, PowerfulOff}, FieldMode},
		{"unknown power", Settings{Power(2), ModeCool, 24, FanAuto, DirectionAuto, PowerfulOff}, FieldPower},
		{"unknown strength", Settings{PowerOn, ModeCool, 24, FanStrength(-1), DirectionAuto, PowerfulOff}, FieldStrength},
		{"unknown direction", Settings{PowerOn, ModeCool, 24, FanAuto, FanDirection(6), PowerfulOff}, FieldDirection},
		{"unknown powerful", Settings{PowerOn, ModeCool, 24, FanAuto, DirectionAuto, Powerful(9)}, FieldPowerful},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Build(tt.settings)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("error should match ErrInvalidParameter: %v", err)
			}
			var pe *ParameterError
			if !errors.As(err, &pe) {
				t.Fatalf("error should be *ParameterError, got %T", err)
			}
			if pe.Field != tt.field {
				t.Errorf("field: got %s, want %s", pe.Field, tt.field)
			}
			if f != (Frame{}) {
				t.Errorf("expected zero frame on error, got %s", f)
			}
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	err := Validate(Settings{Power(3), Mode(9), 40, FanAuto, DirectionAuto, PowerfulOff})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, field := range []string{"power", "mode", "temperature"} {
		if !strings.Contains(msg, field) {
			t.Errorf("error should mention %s: %v", field, msg)
		}
	}
	if Validate(DefaultSettings()) != nil {
		t.Error("default settings should be valid")
	}
}

// ============================================================
// Decoding
// ============================================================

func TestFrame_SettingsRoundTrip(t *testing.T) {
	for _, s := range allSettings(t) {
		f := MustBuild(s)
		got, err := f.Settings()
		if err != nil {
			t.Fatalf("%v: decode failed: %v", s, err)
		}
		want := s
		// Quiet with powerful on carries no quiet flag on the wire.
		if s.Strength == FanQuiet && s.Powerful == PowerfulOn {
			want.Strength = Fan1
		}
		if got != want {
			t.Fatalf("round trip mismatch:\n got  %v\n want %v", got, want)
		}
	}
}

func TestParseFrame(t *testing.T) {
	f := MustBuild(DefaultSettings())

	for _, input := range []string{f.Hex(), f.Spaced(), "0x" + strings.ToUpper(f.Hex())} {
		got, err := ParseFrame(input)
		if err != nil {
			t.Fatalf("ParseFrame(%q) failed: %v", input, err)
		}
		if got != f {
			t.Errorf("ParseFrame(%q) = %s, want %s", input, got, f)
		}
	}

	if _, err := ParseFrame("02 20"); !errors.Is(err, ErrFrameLength) {
		t.Errorf("short frame: expected ErrFrameLength, got %v", err)
	}

	corrupt := f
	corrupt[6]++
	if _, err := ParseFrame(corrupt.Hex()); !errors.Is(err, ErrChecksum) {
		t.Errorf("corrupt frame: expected ErrChecksum, got %v", err)
	}

	if _, err := ParseFrame("zz"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestFrame_BytesIsCopy(t *testing.T) {
	f := MustBuild(DefaultSettings())
	b := f.Bytes()
	b[0] = 0xFF
	if f[0] != 0x02 {
		t.Error("Bytes must not alias the frame")
	}
	if !bytes.Equal(f.Bytes(), f[:]) {
		t.Error("Bytes should equal frame contents")
	}
}

func TestFormatFrame(t *testing.T) {
	out := FormatFrame(MustBuild(Settings{PowerOn, ModeCool, 28, FanAuto, DirectionAuto, PowerfulOff}))
	for _, want := range []string{"02 20 e0 04 00 00 00 06", "cool", "28°C", "fan-auto", "0x9A"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatFrame output missing %q:\n%s", want, out)
		}
	}
}

// ============================================================
// Pulses
// ============================================================

func TestEncodePulses_Layout(t *testing.T) {
	unit := 425 * time.Microsecond
	seq, err := EncodePulses(MustBuild(DefaultSettings()), unit)
	if err != nil {
		t.Fatalf("EncodePulses failed: %v", err)
	}
	if seq.Len() != PulseCount {
		t.Fatalf("pair count: got %d, want %d", seq.Len(), PulseCount)
	}
	if PulseCount != 220 {
		t.Errorf("PulseCount: got %d, want 220", PulseCount)
	}

	headerTrailer := seq.At(1 + HeaderSize*8)
	if headerTrailer.Mark != unit || headerTrailer.Space != HeaderGap*unit {
		t.Errorf("header trailer: got %+v", headerTrailer)
	}
	dataLeader := seq.At(2 + HeaderSize*8)
	if dataLeader.Mark != 8*unit || dataLeader.Space != 4*unit {
		t.Errorf("data leader: got %+v", dataLeader)
	}
	last := seq.At(seq.Len() - 1)
	if last.Mark != unit || last.Space != FrameGap*unit {
		t.Errorf("frame trailer: got %+v", last)
	}

	micros := seq.Micros()
	if len(micros) != 440 {
		t.Fatalf("micros length: got %d, want 440", len(micros))
	}
	if micros[0] != 3400 || micros[1] != 1700 || micros[len(micros)-1] != 8500 {
		t.Errorf("unexpected micros head/tail: %v ... %v", micros[:2], micros[len(micros)-1])
	}
}

func TestEncodePulses_CountIndependentOfFields(t *testing.T) {
	for _, unit := range []time.Duration{300 * time.Microsecond, 425 * time.Microsecond, 560 * time.Microsecond} {
		for _, s := range allSettings(t) {
			seq, err := EncodePulses(MustBuild(s), unit)
			if err != nil {
				t.Fatalf("EncodePulses failed: %v", err)
			}
			if seq.Len() != PulseCount {
				t.Fatalf("%v @ %v: %d pairs, want %d", s, unit, seq.Len(), PulseCount)
			}
		}
	}
}

// allSettings enumerates every enum combination at a few temperatures
func allSettings(t *testing.T) []Settings {
	t.Helper()
	var out []Settings
	for _, power := range []Power{PowerOff, PowerOn} {
		for mode := ModeAuto; mode <= ModeHeat; mode++ {
			for _, temp := range []int{MinTemperature, 23, MaxTemperature} {
				for strength := FanAuto; strength <= FanQuiet; strength++ {
					for dir := DirectionAuto; dir <= Direction5; dir++ {
						for _, powerful := range []Powerful{PowerfulOff, PowerfulOn} {
							out = append(out, Settings{power, mode, temp, strength, dir, powerful})
						}
					}
				}
			}
		}
	}
	return out
}
