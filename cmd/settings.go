// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/Thermoquad/breeze/internal/config"
	"github.com/Thermoquad/breeze/pkg/blaster"
	"github.com/Thermoquad/breeze/pkg/panasonic"
	"github.com/Thermoquad/breeze/pkg/pulse"
)

// Frame formats accepted by --format
const (
	formatPanasonic = "panasonic"
	formatAEHA      = "aeha"
)

// settingsFlags holds the remote control flags shared by encode and send.
// Unset flags fall back to the config defaults.
type settingsFlags struct {
	power     string
	mode      string
	temp      int
	strength  string
	direction string
	powerful  string

	unitTimeUS int
	repeat     int
	gapMS      int
	format     string
	hex        string

	fs *pflag.FlagSet
}

func (f *settingsFlags) register(fs *pflag.FlagSet) {
	f.fs = fs
	fs.StringVar(&f.power, "power", "", "Power (on, off)")
	fs.StringVar(&f.mode, "mode", "", "Mode (auto, fan, dry, cool, heat)")
	fs.IntVar(&f.temp, "temp", 0, fmt.Sprintf("Temperature in °C (%d-%d)", panasonic.MinTemperature, panasonic.MaxTemperature))
	fs.StringVar(&f.strength, "strength", "", "Fan strength (1, 2, 3, 4, auto, quiet)")
	fs.StringVar(&f.direction, "direction", "", "Fan direction (1, 2, 3, 4, 5, auto)")
	fs.StringVar(&f.powerful, "powerful", "", "Powerful mode (on, off)")

	fs.IntVar(&f.unitTimeUS, "unit-time", 0, "Unit time T in microseconds (default from config)")
	fs.IntVar(&f.repeat, "repeat", 0, "Number of times to send the frame (default from config)")
	fs.IntVar(&f.gapMS, "gap", 0, "Extra idle time between repeats in ms (default from config)")
	fs.StringVar(&f.format, "format", formatPanasonic, "Frame format (panasonic, aeha)")
	fs.StringVar(&f.hex, "hex", "", "Raw frame bytes in hex instead of settings")
}

func (f *settingsFlags) changed(name string) bool {
	return f.fs != nil && f.fs.Changed(name)
}

// settings overlays the changed flags on base
func (f *settingsFlags) settings(base panasonic.Settings) (panasonic.Settings, error) {
	set := base
	var errs []error
	if f.changed("power") {
		v, err := panasonic.ParsePower(f.power)
		set.Power = v
		errs = append(errs, err)
	}
	if f.changed("mode") {
		v, err := panasonic.ParseMode(f.mode)
		set.Mode = v
		errs = append(errs, err)
	}
	if f.changed("temp") {
		set.Temperature = f.temp
	}
	if f.changed("strength") {
		v, err := panasonic.ParseStrength(f.strength)
		set.Strength = v
		errs = append(errs, err)
	}
	if f.changed("direction") {
		v, err := panasonic.ParseDirection(f.direction)
		set.Direction = v
		errs = append(errs, err)
	}
	if f.changed("powerful") {
		v, err := panasonic.ParsePowerful(f.powerful)
		set.Powerful = v
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return set, err
	}
	return set, panasonic.Validate(set)
}

func (f *settingsFlags) unitTime(c config.Config) time.Duration {
	if f.changed("unit-time") {
		return time.Duration(f.unitTimeUS) * time.Microsecond
	}
	return c.UnitTime()
}

// encoded is everything derived from one set of flags
type encoded struct {
	format   string
	settings *panasonic.Settings // nil for raw --hex input
	frame    *panasonic.Frame    // nil for aeha
	data     []byte
	seq      pulse.Sequence
}

func (e encoded) summary() string {
	if e.settings != nil {
		return e.settings.String()
	}
	return fmt.Sprintf("%s %s", e.format, panasonic.FormatBytes(e.data))
}

// encode turns the flags into a pulse sequence
func (f *settingsFlags) encode(c config.Config) (encoded, error) {
	unit := f.unitTime(c)
	out := encoded{format: strings.ToLower(f.format)}

	switch out.format {
	case formatPanasonic:
		var frame panasonic.Frame
		if f.hex != "" {
			var err error
			if frame, err = panasonic.ParseFrame(f.hex); err != nil {
				return out, fmt.Errorf("--hex: %w", err)
			}
		} else {
			set, err := f.settings(c.Defaults)
			if err != nil {
				return out, err
			}
			if frame, err = panasonic.Build(set); err != nil {
				return out, err
			}
			out.settings = &set
		}
		seq, err := panasonic.EncodePulses(frame, unit)
		if err != nil {
			return out, err
		}
		out.frame, out.data, out.seq = &frame, frame.Bytes(), seq

	case formatAEHA:
		if f.hex == "" {
			return out, errors.New("--format aeha needs --hex")
		}
		data, err := parseHexBytes(f.hex)
		if err != nil {
			return out, fmt.Errorf("--hex: %w", err)
		}
		seq, err := pulse.EncodeAEHA(data, unit)
		if err != nil {
			return out, err
		}
		out.data, out.seq = data, seq

	default:
		return out, fmt.Errorf("unknown --format %q (use panasonic or aeha)", f.format)
	}
	return out, nil
}

// plan wraps the sequence with the repeat settings
func (f *settingsFlags) plan(c config.Config, seq pulse.Sequence) (*blaster.Plan, error) {
	repeat, gap := c.Repeat, c.Gap()
	if f.changed("repeat") {
		repeat = f.repeat
	}
	if f.changed("gap") {
		gap = time.Duration(f.gapMS) * time.Millisecond
	}
	return blaster.NewPlan(seq, repeat, gap)
}

// parseHexBytes accepts the same spellings as panasonic.ParseFrame
func parseHexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(s)
	return hex.DecodeString(s)
}
