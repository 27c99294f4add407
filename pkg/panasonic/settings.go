// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panasonic

import (
	"fmt"
	"strconv"
	"strings"
)

// Power is the unit's power state
type Power int

// Power values
const (
	PowerOff Power = iota
	PowerOn
)

// Mode is the operating mode
type Mode int

// Mode values
const (
	ModeAuto Mode = iota
	ModeFan
	ModeDry
	ModeCool
	ModeHeat
)

// FanStrength is the fan speed setting. The zero value is FanAuto.
type FanStrength int

// Fan strength values
const (
	FanAuto FanStrength = iota
	Fan1
	Fan2
	Fan3
	Fan4
	FanQuiet
)

// FanDirection is the louvre position. The zero value is DirectionAuto.
// Direction1 is horizontal, Direction5 vertical.
type FanDirection int

// Fan direction values
const (
	DirectionAuto FanDirection = iota
	Direction1
	Direction2
	Direction3
	Direction4
	Direction5
)

// Powerful is the "powerful" boost toggle
type Powerful int

// Powerful values
const (
	PowerfulOff Powerful = iota
	PowerfulOn
)

// Settings is one complete remote control state. Every command frame carries
// all of it; the air conditioner keeps no partial state.
type Settings struct {
	Power       Power        `json:"power" yaml:"power"`
	Mode        Mode         `json:"mode" yaml:"mode"`
	Temperature int          `json:"temperature" yaml:"temperature"`
	Strength    FanStrength  `json:"strength" yaml:"strength"`
	Direction   FanDirection `json:"direction" yaml:"direction"`
	Powerful    Powerful     `json:"powerful" yaml:"powerful"`
}

// DefaultSettings returns the remote's defaults: on, auto mode, 26°C, automatic fan.
func DefaultSettings() Settings {
	return Settings{
		Power:       PowerOn,
		Mode:        ModeAuto,
		Temperature: DefaultTemperature,
		Strength:    FanAuto,
		Direction:   DirectionAuto,
		Powerful:    PowerfulOff,
	}
}

// String formats settings the way the CLI accepts them
func (s Settings) String() string {
	return fmt.Sprintf("power=%s mode=%s temp=%d strength=%s direction=%s powerful=%s",
		s.Power, s.Mode, s.Temperature, s.Strength, s.Direction, s.Powerful)
}

var (
	powerNames     = []string{"off", "on"}
	modeNames      = []string{"auto", "fan", "dry", "cool", "heat"}
	strengthNames  = []string{"auto", "1", "2", "3", "4", "quiet"}
	directionNames = []string{"auto", "1", "2", "3", "4", "5"}
)

func enumName(names []string, v int) string {
	if v < 0 || v >= len(names) {
		return "unknown(" + strconv.Itoa(v) + ")"
	}
	return names[v]
}

func enumIndex(names []string, s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if name == s {
			return i, true
		}
	}
	return 0, false
}

func (p Power) String() string        { return enumName(powerNames, int(p)) }
func (p Powerful) String() string     { return enumName(powerNames, int(p)) }
func (m Mode) String() string         { return enumName(modeNames, int(m)) }
func (f FanStrength) String() string  { return enumName(strengthNames, int(f)) }
func (d FanDirection) String() string { return enumName(directionNames, int(d)) }

func (p Power) valid() bool        { return p == PowerOff || p == PowerOn }
func (p Powerful) valid() bool     { return p == PowerfulOff || p == PowerfulOn }
func (m Mode) valid() bool         { return m >= ModeAuto && m <= ModeHeat }
func (f FanStrength) valid() bool  { return f >= FanAuto && f <= FanQuiet }
func (d FanDirection) valid() bool { return d >= DirectionAuto && d <= Direction5 }

// ParsePower parses "on" or "off"
func ParsePower(s string) (Power, error) {
	i, ok := enumIndex(powerNames, s)
	if !ok {
		return 0, invalid(FieldPower, s, "expected on/off")
	}
	return Power(i), nil
}

// ParsePowerful parses "on" or "off"
func ParsePowerful(s string) (Powerful, error) {
	i, ok := enumIndex(powerNames, s)
	if !ok {
		return 0, invalid(FieldPowerful, s, "expected on/off")
	}
	return Powerful(i), nil
}

// ParseMode parses auto/fan/dry/cool/heat
func ParseMode(s string) (Mode, error) {
	i, ok := enumIndex(modeNames, s)
	if !ok {
		return 0, invalid(FieldMode, s, "expected auto/fan/dry/cool/heat")
	}
	return Mode(i), nil
}

// ParseStrength parses 1/2/3/4/auto/quiet. "min" and "max" are accepted for 1 and 4.
func ParseStrength(s string) (FanStrength, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min":
		return Fan1, nil
	case "max":
		return Fan4, nil
	}
	i, ok := enumIndex(strengthNames, s)
	if !ok {
		return 0, invalid(FieldStrength, s, "expected 1/2/3/4/auto/quiet")
	}
	return FanStrength(i), nil
}

// ParseDirection parses 1..5/auto. "horizontal" and "vertical" are accepted for 1 and 5.
func ParseDirection(s string) (FanDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal":
		return Direction1, nil
	case "vertical":
		return Direction5, nil
	}
	i, ok := enumIndex(directionNames, s)
	if !ok {
		return 0, invalid(FieldDirection, s, "expected 1/2/3/4/5/auto")
	}
	return FanDirection(i), nil
}

// Text encoding keeps JSON and YAML documents symbolic ("cool", not 3).

func (p Power) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, invalid(FieldPower, int(p), "unknown value")
	}
	return []byte(p.String()), nil
}

func (p *Power) UnmarshalText(b []byte) error {
	v, err := ParsePower(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p Powerful) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, invalid(FieldPowerful, int(p), "unknown value")
	}
	return []byte(p.String()), nil
}

func (p *Powerful) UnmarshalText(b []byte) error {
	v, err := ParsePowerful(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (m Mode) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, invalid(FieldMode, int(m), "unknown value")
	}
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (f FanStrength) MarshalText() ([]byte, error) {
	if !f.valid() {
		return nil, invalid(FieldStrength, int(f), "unknown value")
	}
	return []byte(f.String()), nil
}

func (f *FanStrength) UnmarshalText(b []byte) error {
	v, err := ParseStrength(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (d FanDirection) MarshalText() ([]byte, error) {
	if !d.valid() {
		return nil, invalid(FieldDirection, int(d), "unknown value")
	}
	return []byte(d.String()), nil
}

func (d *FanDirection) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
