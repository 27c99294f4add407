// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package blaster drives an infrared LED from a pulse sequence.
//
// Marks are emitted as a square-wave carrier (38 kHz by default), spaces hold
// the pin low. Timing is done on the calling goroutine against a Driver, so
// hardware access can be replaced with a Recorder in tests or a dry run.
package blaster

import (
	"errors"
	"fmt"
	"time"
)

// Level is the output state of a pin
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Driver is the hardware access used by a Transmitter. Sleep must block for
// d measured from the end of the previous Sleep, not from the time of the
// call, so that back-to-back sleeps do not accumulate drift.
type Driver interface {
	SetLevel(pin int, level Level) error
	Sleep(d time.Duration)
}

// Idler is implemented by drivers that can wait between frames without
// busy-waiting. Idle also ends the current deadline chain.
type Idler interface {
	Idle(d time.Duration)
}

// Errors
var (
	ErrTransmissionFailed = errors.New("blaster: transmission failed")
	ErrBusy               = errors.New("blaster: transmitter busy")
	ErrCanceled           = errors.New("blaster: transmission canceled")
	ErrPlanConsumed       = errors.New("blaster: plan already sent")
	ErrInvalidPlan        = errors.New("blaster: invalid plan")
	ErrInvalidCarrier     = errors.New("blaster: invalid carrier")
	ErrInvalidPin         = errors.New("blaster: invalid pin")
)

// Carrier limits
const (
	DefaultFrequency = 38000
	DefaultDuty      = 50
	MinFrequency     = 20000
	MaxFrequency     = 100000
	MinDuty          = 1
	MaxDuty          = 90
)

// Carrier describes the square wave modulated onto marks
type Carrier struct {
	Frequency   int `yaml:"frequency" json:"frequency"`
	DutyPercent int `yaml:"duty_percent" json:"duty_percent"`
}

// DefaultCarrier returns 38 kHz at 50% duty
func DefaultCarrier() Carrier {
	return Carrier{Frequency: DefaultFrequency, DutyPercent: DefaultDuty}
}

// Validate checks frequency and duty cycle ranges
func (c Carrier) Validate() error {
	if c.Frequency < MinFrequency || c.Frequency > MaxFrequency {
		return fmt.Errorf("%w: frequency %d Hz outside [%d, %d]", ErrInvalidCarrier, c.Frequency, MinFrequency, MaxFrequency)
	}
	if c.DutyPercent < MinDuty || c.DutyPercent > MaxDuty {
		return fmt.Errorf("%w: duty %d%% outside [%d, %d]", ErrInvalidCarrier, c.DutyPercent, MinDuty, MaxDuty)
	}
	return nil
}

// Period returns the duration of one carrier cycle, truncated to nanoseconds
func (c Carrier) Period() time.Duration {
	return time.Duration(1e9 / float64(c.Frequency))
}

func (c Carrier) String() string {
	return fmt.Sprintf("%.1f kHz @ %d%%", float64(c.Frequency)/1000, c.DutyPercent)
}

// TransmissionError reports a driver fault part way through a plan
type TransmissionError struct {
	Repeat    int // zero based repeat that failed
	Pair      int // zero based pair within the repeat
	PairsSent int // pairs fully emitted across all repeats
	Err       error
}

func (e *TransmissionError) Error() string {
	return fmt.Sprintf("blaster: transmission failed at repeat %d pair %d (%d pairs sent): %v",
		e.Repeat, e.Pair, e.PairsSent, e.Err)
}

func (e *TransmissionError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransmissionFailed
func (e *TransmissionError) Is(target error) bool {
	return target == ErrTransmissionFailed
}
