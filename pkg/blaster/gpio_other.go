// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !linux

package blaster

// OpenGPIO is only available on Linux
func OpenGPIO(number int) (*GPIODriver, error) {
	return nil, ErrGPIOUnsupported
}
