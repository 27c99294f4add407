// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link carries pulse plans to a remote emitter over a byte stream.
//
// A remote emitter (typically a microcontroller bridge on USB serial or a
// WebSocket) does the carrier timing itself, so a host without a reliable
// clock can still drive an IR LED. Packets are framed, byte stuffed and CRC
// checked; the body is a CBOR array [msg_type, {int: value}].
package link

import "errors"

// Framing bytes
const (
	StartByte = 0x7E
	EndByte   = 0x7F
	EscByte   = 0x7D
	EscXor    = 0x20
)

// MaxPayloadSize bounds the CBOR body of one packet
const MaxPayloadSize = 2048

// CRC-16-CCITT configuration
const (
	crcPolynomial = 0x1021
	crcInitial    = 0xFFFF
)

// Message types - requests (host to emitter) 0x40-0x4F, 0x2F
const (
	MsgTransmit    = 0x40
	MsgPingRequest = 0x2F
)

// Message types - responses (emitter to host)
const (
	MsgTransmitDone = 0x41
	MsgPingResponse = 0x3F
	MsgError        = 0xE0
)

// Transmit payload keys
const (
	KeyCarrierHz = 0
	KeyDuty      = 1
	KeyRepeat    = 2
	KeyGapMicros = 3
	KeyDurations = 4
)

// ErrorCode is reported by the emitter in MsgError
type ErrorCode int

const (
	ErrorNone       ErrorCode = 0x00
	ErrorBusy       ErrorCode = 0x01
	ErrorInvalid    ErrorCode = 0x02
	ErrorDriver     ErrorCode = 0x03
	ErrorCanceled   ErrorCode = 0x04
	ErrorUnknownMsg ErrorCode = 0x05
)

// Errors
var (
	ErrChecksum        = errors.New("link: crc mismatch")
	ErrPayloadTooLarge = errors.New("link: payload too large")
	ErrTimeout         = errors.New("link: timed out waiting for response")
	ErrClosed          = errors.New("link: connection closed")
	ErrBadMessage      = errors.New("link: malformed message")
)

// Decoder states
const (
	stateIdle = iota
	stateLength1
	stateLength2
	statePayload
	stateCRC1
	stateCRC2
	stateComplete // waiting for END
)
