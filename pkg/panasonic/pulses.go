// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panasonic

import (
	"time"

	"github.com/Thermoquad/breeze/pkg/pulse"
)

// PulseCount is the number of mark/space pairs of one transmission: header
// block, then data block, each with leader and trailer.
var PulseCount = pulse.Count(
	pulse.Block{Data: HeaderFrame[:], Gap: HeaderGap},
	pulse.Block{Data: make([]byte, FrameSize), Gap: FrameGap},
)

// EncodePulses converts a frame into the pulse sequence emitted by the remote:
// HeaderFrame with an 8T gap followed by the frame with a 20T gap.
func EncodePulses(f Frame, unit time.Duration) (pulse.Sequence, error) {
	return pulse.Encode(unit,
		pulse.Block{Data: HeaderFrame[:], Gap: HeaderGap},
		pulse.Block{Data: f[:], Gap: FrameGap},
	)
}
