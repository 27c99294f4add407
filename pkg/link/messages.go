// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/breeze/pkg/blaster"
	"github.com/Thermoquad/breeze/pkg/pulse"
)

// TransmitRequest is the body of MsgTransmit
type TransmitRequest struct {
	Carrier   blaster.Carrier
	Repeat    int
	Gap       time.Duration
	Durations []int // microseconds, alternating mark and space
}

// NewTransmitRequest describes plan for the emitter
func NewTransmitRequest(plan *blaster.Plan, carrier blaster.Carrier) TransmitRequest {
	return TransmitRequest{
		Carrier:   carrier,
		Repeat:    plan.Repeat(),
		Gap:       plan.Gap(),
		Durations: plan.Sequence().Micros(),
	}
}

// Packet encodes the request as MsgTransmit
func (r TransmitRequest) Packet() *Packet {
	durations := make([]uint64, len(r.Durations))
	for i, d := range r.Durations {
		durations[i] = uint64(d)
	}
	return NewPacketWithPayload(MsgTransmit, map[int]interface{}{
		KeyCarrierHz: uint64(r.Carrier.Frequency),
		KeyDuty:      uint64(r.Carrier.DutyPercent),
		KeyRepeat:    uint64(r.Repeat),
		KeyGapMicros: uint64(r.Gap / time.Microsecond),
		KeyDurations: durations,
	})
}

// Plan rebuilds a sendable plan from the request
func (r TransmitRequest) Plan() (*blaster.Plan, error) {
	if len(r.Durations) == 0 || len(r.Durations)%2 != 0 {
		return nil, fmt.Errorf("%w: %d durations", ErrBadMessage, len(r.Durations))
	}
	pairs := make([]pulse.Pair, len(r.Durations)/2)
	for i := range pairs {
		pairs[i] = pulse.Pair{
			Mark:  time.Duration(r.Durations[2*i]) * time.Microsecond,
			Space: time.Duration(r.Durations[2*i+1]) * time.Microsecond,
		}
	}
	return blaster.NewPlan(pulse.FromPairs(time.Microsecond, pairs), r.Repeat, r.Gap)
}

// ParseTransmit decodes a MsgTransmit packet
func ParseTransmit(p *Packet) (TransmitRequest, error) {
	if err := p.ParseError(); err != nil {
		return TransmitRequest{}, err
	}
	if p.Type() != MsgTransmit {
		return TransmitRequest{}, fmt.Errorf("%w: type 0x%02X is not TRANSMIT", ErrBadMessage, p.Type())
	}
	m := p.Payload()
	hz, ok1 := GetMapUint(m, KeyCarrierHz)
	duty, ok2 := GetMapUint(m, KeyDuty)
	repeat, ok3 := GetMapUint(m, KeyRepeat)
	gap, ok4 := GetMapUint(m, KeyGapMicros)
	durations, ok5 := GetMapUints(m, KeyDurations)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return TransmitRequest{}, fmt.Errorf("%w: TRANSMIT missing fields", ErrBadMessage)
	}

	r := TransmitRequest{
		Carrier:   blaster.Carrier{Frequency: int(hz), DutyPercent: int(duty)},
		Repeat:    int(repeat),
		Gap:       time.Duration(gap) * time.Microsecond,
		Durations: make([]int, len(durations)),
	}
	for i, d := range durations {
		r.Durations[i] = int(d)
	}
	return r, nil
}

// NewPingRequest creates a PING_REQUEST packet
func NewPingRequest() *Packet {
	return NewPacketWithPayload(MsgPingRequest, nil)
}

// NewPingResponse creates a PING_RESPONSE carrying uptime in milliseconds
func NewPingResponse(uptime time.Duration) *Packet {
	return NewPacketWithPayload(MsgPingResponse, map[int]interface{}{
		0: uint64(uptime / time.Millisecond),
	})
}

// NewTransmitDone reports a completed transmission
func NewTransmitDone(pairs int) *Packet {
	return NewPacketWithPayload(MsgTransmitDone, map[int]interface{}{
		0: uint64(pairs),
	})
}

// NewError reports a failed request
func NewError(code ErrorCode, pairs int) *Packet {
	return NewPacketWithPayload(MsgError, map[int]interface{}{
		0: uint64(code),
		1: uint64(pairs),
	})
}

// RemoteError is a MsgError received from the emitter
type RemoteError struct {
	Code      ErrorCode
	PairsSent int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("link: emitter reported %s after %d pairs", FormatErrorCode(e.Code), e.PairsSent)
}

// Unwrap maps emitter codes onto the local transmitter errors
func (e *RemoteError) Unwrap() error {
	switch e.Code {
	case ErrorBusy:
		return blaster.ErrBusy
	case ErrorCanceled:
		return blaster.ErrCanceled
	case ErrorInvalid:
		return blaster.ErrInvalidPlan
	}
	return nil
}

// errorCodeFor picks the MsgError code for a local send error
func errorCodeFor(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrorNone
	case errors.Is(err, blaster.ErrBusy):
		return ErrorBusy
	case errors.Is(err, blaster.ErrCanceled):
		return ErrorCanceled
	case errors.Is(err, blaster.ErrInvalidPlan), errors.Is(err, blaster.ErrInvalidCarrier), errors.Is(err, ErrBadMessage):
		return ErrorInvalid
	}
	return ErrorDriver
}
