// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Encode builds the wire form of a message:
// START | stuffed(len u16 LE | CBOR | CRC u16 BE) | END
func Encode(msgType uint8, payload map[int]interface{}) ([]byte, error) {
	body, err := encodeBody(msgType, payload)
	if err != nil {
		return nil, fmt.Errorf("link: encode CBOR: %w", err)
	}
	if len(body) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(body), MaxPayloadSize)
	}

	data := make([]byte, 2, 2+len(body)+2)
	binary.LittleEndian.PutUint16(data, uint16(len(body)))
	data = append(data, body...)
	data = binary.BigEndian.AppendUint16(data, CalculateCRC(data))

	stuffed := stuffBytes(data)
	wire := make([]byte, 0, len(stuffed)+2)
	wire = append(wire, StartByte)
	wire = append(wire, stuffed...)
	wire = append(wire, EndByte)
	return wire, nil
}

// EncodePacket encodes p to wire format
func EncodePacket(p *Packet) ([]byte, error) {
	return Encode(p.Type(), p.Payload())
}

// MustEncode is Encode that panics, for messages known to fit
func MustEncode(msgType uint8, payload map[int]interface{}) []byte {
	wire, err := Encode(msgType, payload)
	if err != nil {
		panic(fmt.Sprintf("link: encode error: %v", err))
	}
	return wire
}

func encodeBody(msgType uint8, payload map[int]interface{}) ([]byte, error) {
	var msg []interface{}
	if len(payload) == 0 {
		msg = []interface{}{uint64(msgType), nil}
	} else {
		msg = []interface{}{uint64(msgType), payload}
	}
	return cbor.Marshal(msg)
}

// stuffBytes escapes START, END and ESC as ESC, b^EscXor
func stuffBytes(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/8)
	for _, b := range data {
		if b == StartByte || b == EndByte || b == EscByte {
			out = append(out, EscByte, b^EscXor)
		} else {
			out = append(out, b)
		}
	}
	return out
}

// UnstuffBytes reverses stuffBytes
func UnstuffBytes(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data))
	escape := false
	for _, b := range data {
		switch {
		case escape:
			out = append(out, b^EscXor)
			escape = false
		case b == EscByte:
			escape = true
		default:
			out = append(out, b)
		}
	}
	if escape {
		return nil, fmt.Errorf("link: incomplete escape sequence at end of data")
	}
	return out, nil
}
