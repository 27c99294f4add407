// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"time"
)

// Decoder is the byte-at-a-time packet state machine. A START byte always
// resynchronizes, so garbage between packets is skipped.
type Decoder struct {
	state  int
	length int
	buffer []byte // length bytes and body, the CRC input
	crc    uint16
	escape bool
}

// NewDecoder creates a decoder waiting for START
func NewDecoder() *Decoder {
	return &Decoder{buffer: make([]byte, 0, 2+MaxPayloadSize)}
}

// Reset returns the decoder to idle
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.length = 0
	d.buffer = d.buffer[:0]
	d.crc = 0
	d.escape = false
}

// DecodeByte feeds one wire byte. It returns a packet when END completes a
// valid frame, nil while a frame is in progress and an error for a bad frame.
func (d *Decoder) DecodeByte(b byte) (*Packet, error) {
	switch {
	case b == StartByte:
		d.Reset()
		d.state = stateLength1
		return nil, nil
	case b == EndByte:
		return d.finish()
	case d.state == stateIdle:
		return nil, nil
	case b == EscByte && !d.escape:
		d.escape = true
		return nil, nil
	}

	if d.escape {
		b ^= EscXor
		d.escape = false
	}

	switch d.state {
	case stateLength1:
		d.buffer = append(d.buffer, b)
		d.length = int(b)
		d.state = stateLength2

	case stateLength2:
		d.buffer = append(d.buffer, b)
		d.length |= int(b) << 8
		if d.length > MaxPayloadSize {
			n := d.length
			d.Reset()
			return nil, fmt.Errorf("%w: declared %d bytes (max %d)", ErrPayloadTooLarge, n, MaxPayloadSize)
		}
		if d.length == 0 {
			d.state = stateCRC1
		} else {
			d.state = statePayload
		}

	case statePayload:
		d.buffer = append(d.buffer, b)
		if len(d.buffer)-2 >= d.length {
			d.state = stateCRC1
		}

	case stateCRC1:
		d.crc = uint16(b) << 8
		d.state = stateCRC2

	case stateCRC2:
		d.crc |= uint16(b)
		d.state = stateComplete

	default:
		d.Reset()
		return nil, fmt.Errorf("link: unexpected byte 0x%02X after CRC", b)
	}
	return nil, nil
}

func (d *Decoder) finish() (*Packet, error) {
	defer d.Reset()
	if d.state == stateIdle {
		return nil, nil
	}
	if d.state != stateComplete || d.escape {
		return nil, fmt.Errorf("link: unexpected END in state %d", d.state)
	}
	if want := CalculateCRC(d.buffer); want != d.crc {
		return nil, fmt.Errorf("%w: computed 0x%04X, received 0x%04X", ErrChecksum, want, d.crc)
	}

	body := make([]byte, d.length)
	copy(body, d.buffer[2:])
	p := NewPacket(body, d.crc)
	p.timestamp = time.Now()
	return p, nil
}
