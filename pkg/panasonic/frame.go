// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panasonic

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Frame is a complete command frame. It is a value type: copies are
// independent and a built Frame never changes.
type Frame [FrameSize]byte

// Checksum computes the mod-256 sum used as the last frame byte
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum
}

// Validate reports every invalid field of s, joined into one error.
// Each joined error is a *ParameterError.
func Validate(s Settings) error {
	var errs []error
	for _, f := range buildOrder {
		if _, err := EncodeField(f, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build encodes s into a command frame.
//
// All fields are encoded before the frame is touched, so an error never leaves
// a partially written frame behind: the zero Frame is returned instead.
func Build(s Settings) (Frame, error) {
	patterns := make([]Bits, 0, 8)
	for _, f := range buildOrder {
		b, err := EncodeField(f, s)
		if err != nil {
			return Frame{}, err
		}
		patterns = append(patterns, b...)
	}

	frame := template
	for _, b := range patterns {
		b.apply(&frame)
	}
	frame[checksumByte] = Checksum(frame[:checksumByte])

	return Frame(frame), nil
}

// MustBuild is Build for settings known to be valid. Panics on error.
func MustBuild(s Settings) Frame {
	f, err := Build(s)
	if err != nil {
		panic(fmt.Sprintf("panasonic: build error: %v", err))
	}
	return f
}

// Bytes returns a copy of the frame bytes
func (f Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	copy(b, f[:])
	return b
}

// Checksum returns the checksum byte carried by the frame
func (f Frame) Checksum() byte {
	return f[checksumByte]
}

// Verify checks the trailing checksum
func (f Frame) Verify() error {
	if want := Checksum(f[:checksumByte]); f[checksumByte] != want {
		return fmt.Errorf("%w: expected 0x%02X, got 0x%02X", ErrChecksum, want, f[checksumByte])
	}
	return nil
}

// Settings decodes the field slots back into Settings.
//
// Strength 1 and quiet share a nibble; a quiet frame sent with powerful on
// carries no quiet flag and decodes as strength 1.
func (f Frame) Settings() (Settings, error) {
	if err := f.Verify(); err != nil {
		return Settings{}, err
	}
	raw := [FrameSize]byte(f)
	return decodeFields(&raw)
}

// Temperature returns the temperature encoded in the frame
func (f Frame) Temperature() int {
	return int(bits(FieldTemperature, 0).extract((*[FrameSize]byte)(&f))) / 2
}

// Hex returns the frame as lowercase hex without separators
func (f Frame) Hex() string {
	return hex.EncodeToString(f[:])
}

// Spaced returns the frame as space separated hex bytes
func (f Frame) Spaced() string {
	return FormatBytes(f[:])
}

// String implements fmt.Stringer
func (f Frame) String() string {
	return f.Spaced()
}

// ParseFrame parses a frame from its hex form. Spaces, colons and a 0x prefix
// are ignored. The checksum must match.
func ParseFrame(s string) (Frame, error) {
	s = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(s)

	raw, err := hex.DecodeString(s)
	if err != nil {
		return Frame{}, fmt.Errorf("panasonic: invalid hex: %w", err)
	}
	if len(raw) != FrameSize {
		return Frame{}, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameLength, len(raw), FrameSize)
	}

	var f Frame
	copy(f[:], raw)
	if err := f.Verify(); err != nil {
		return Frame{}, err
	}
	return f, nil
}
