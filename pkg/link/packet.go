// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import "time"

// Packet is one decoded link message
type Packet struct {
	length    uint16
	body      []byte // CBOR: [msg_type, payload_map]
	crc       uint16
	timestamp time.Time

	// lazily parsed from body
	msgType  uint8
	payload  map[int]interface{}
	parsed   bool
	parseErr error
}

// NewPacket wraps an already encoded CBOR body
func NewPacket(body []byte, crc uint16) *Packet {
	return &Packet{
		length:    uint16(len(body)),
		body:      body,
		crc:       crc,
		timestamp: time.Now(),
	}
}

// NewPacketWithPayload builds a packet from a message type and payload map.
// CBOR encoding and CRC happen in Encode.
func NewPacketWithPayload(msgType uint8, payload map[int]interface{}) *Packet {
	return &Packet{
		msgType:   msgType,
		payload:   payload,
		parsed:    true,
		timestamp: time.Now(),
	}
}

func (p *Packet) ensureParsed() {
	if p.parsed {
		return
	}
	p.parsed = true
	if len(p.body) == 0 {
		return
	}
	p.msgType, p.payload, p.parseErr = ParseCBORMessage(p.body)
}

// Length returns the CBOR body length
func (p *Packet) Length() uint16 { return p.length }

// Type returns the message type
func (p *Packet) Type() uint8 {
	p.ensureParsed()
	return p.msgType
}

// Body returns the raw CBOR bytes
func (p *Packet) Body() []byte { return p.body }

// Payload returns the decoded payload map, nil for empty payloads
func (p *Packet) Payload() map[int]interface{} {
	p.ensureParsed()
	return p.payload
}

// ParseError returns the error from decoding the CBOR body, if any
func (p *Packet) ParseError() error {
	p.ensureParsed()
	return p.parseErr
}

func (p *Packet) CRC() uint16          { return p.crc }
func (p *Packet) Timestamp() time.Time { return p.timestamp }
