// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package blaster

import (
	"errors"
	"fmt"
	"sync"
)

// ErrGPIOUnsupported is returned by OpenGPIO on platforms without sysfs GPIO
var ErrGPIOUnsupported = errors.New("blaster: gpio not supported on this platform")

type outputPin interface {
	Set()
	Clear()
}

// GPIODriver drives one sysfs GPIO pin with Spinner timing
type GPIODriver struct {
	Spinner

	number int
	pin    outputPin
	once   sync.Once
}

// Number returns the BCM pin number
func (g *GPIODriver) Number() int {
	return g.number
}

func (g *GPIODriver) SetLevel(pin int, level Level) error {
	if pin != g.number {
		return fmt.Errorf("%w: driver owns pin %d, not %d", ErrInvalidPin, g.number, pin)
	}
	if level == High {
		g.pin.Set()
	} else {
		g.pin.Clear()
	}
	if e, ok := g.pin.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

// Close drives the pin low and releases it
func (g *GPIODriver) Close() error {
	var err error
	g.once.Do(func() {
		g.pin.Clear()
		switch c := g.pin.(type) {
		case interface{ Close() error }:
			err = c.Close()
		case interface{ Close() }:
			c.Close()
		}
	})
	return err
}
