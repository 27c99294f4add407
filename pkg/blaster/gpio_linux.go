// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build linux

package blaster

import (
	"fmt"

	"github.com/davecheney/gpio"
)

// OpenGPIO exports pin as an output and drives it low
func OpenGPIO(number int) (*GPIODriver, error) {
	if number < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPin, number)
	}
	pin, err := gpio.OpenPin(number, gpio.ModeOutput)
	if err != nil {
		return nil, fmt.Errorf("blaster: open gpio %d: %w", number, err)
	}
	pin.Clear()
	return &GPIODriver{number: number, pin: pin}, nil
}
