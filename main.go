// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Breeze - Panasonic air conditioner infrared remote
//
// Encodes air conditioner settings into the Panasonic remote's infrared
// frame and transmits it from a GPIO pin or a remote emitter.

package main

import (
	"os"

	"github.com/Thermoquad/breeze/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
