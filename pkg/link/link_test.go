// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ============================================================
// Helpers
// ============================================================

// decodeAll feeds wire bytes and returns every packet and error produced
func decodeAll(d *Decoder, wire []byte) ([]*Packet, []error) {
	var packets []*Packet
	var errs []error
	for _, b := range wire {
		p, err := d.DecodeByte(b)
		if err != nil {
			errs = append(errs, err)
		}
		if p != nil {
			packets = append(packets, p)
		}
	}
	return packets, errs
}

// ============================================================
// CRC Tests
// ============================================================

func TestCalculateCRC_KnownValues(t *testing.T) {
	if crc := CalculateCRC(nil); crc != crcInitial {
		t.Errorf("CRC of empty data should be initial value, got 0x%04X", crc)
	}
	if crc := CalculateCRC([]byte("123456789")); crc != 0x29B1 {
		t.Errorf("CRC-16-CCITT check value: got 0x%04X, want 0x29B1", crc)
	}
}

// ============================================================
// Stuffing Tests
// ============================================================

func TestStuffBytes(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"plain", []byte{0x01, 0x02}, []byte{0x01, 0x02}},
		{"start", []byte{StartByte}, []byte{EscByte, 0x5E}},
		{"end", []byte{EndByte}, []byte{EscByte, 0x5F}},
		{"escape", []byte{EscByte}, []byte{EscByte, 0x5D}},
		{"consecutive", []byte{0x7E, 0x7D, 0x7F}, []byte{0x7D, 0x5E, 0x7D, 0x5D, 0x7D, 0x5F}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stuffBytes(tt.in)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("stuffBytes(% X) = % X, want % X", tt.in, got, tt.want)
			}
			back, err := UnstuffBytes(got)
			if err != nil {
				t.Fatalf("UnstuffBytes failed: %v", err)
			}
			if !bytes.Equal(back, tt.in) {
				t.Errorf("round trip: got % X, want % X", back, tt.in)
			}
		})
	}

	if _, err := UnstuffBytes([]byte{0x01, EscByte}); err == nil {
		t.Error("expected error for trailing escape")
	}
}

// ============================================================
// Encoder / Decoder Tests
// ============================================================

func TestEncode_Layout(t *testing.T) {
	wire, err := Encode(MsgPingRequest, nil)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if wire[0] != StartByte || wire[len(wire)-1] != EndByte {
		t.Fatalf("missing framing: % X", wire)
	}

	inner, err := UnstuffBytes(wire[1 : len(wire)-1])
	if err != nil {
		t.Fatalf("UnstuffBytes failed: %v", err)
	}
	body, _ := cbor.Marshal([]interface{}{uint64(MsgPingRequest), nil})
	if int(inner[0])|int(inner[1])<<8 != len(body) {
		t.Errorf("length prefix % X, body %d bytes", inner[:2], len(body))
	}
	if !bytes.Equal(inner[2:2+len(body)], body) {
		t.Errorf("body: got % X, want % X", inner[2:2+len(body)], body)
	}
	crc := CalculateCRC(inner[:2+len(body)])
	if inner[len(inner)-2] != byte(crc>>8) || inner[len(inner)-1] != byte(crc) {
		t.Errorf("CRC must be big-endian 0x%04X, got % X", crc, inner[len(inner)-2:])
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		packet  *Packet
		msgType uint8
	}{
		{"ping request", NewPingRequest(), MsgPingRequest},
		{"ping response", NewPingResponse(90 * time.Second), MsgPingResponse},
		{"transmit done", NewTransmitDone(220), MsgTransmitDone},
		{"error", NewError(ErrorDriver, 17), MsgError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := EncodePacket(tt.packet)
			if err != nil {
				t.Fatalf("EncodePacket failed: %v", err)
			}
			packets, errs := decodeAll(NewDecoder(), wire)
			if len(errs) != 0 || len(packets) != 1 {
				t.Fatalf("got %d packets, errors %v", len(packets), errs)
			}
			p := packets[0]
			if p.Type() != tt.msgType {
				t.Errorf("type: got 0x%02X, want 0x%02X", p.Type(), tt.msgType)
			}
			if p.ParseError() != nil {
				t.Errorf("parse error: %v", p.ParseError())
			}
			for k, want := range tt.packet.Payload() {
				got, ok := GetMapUint(p.Payload(), k)
				if !ok || got != want.(uint64) {
					t.Errorf("key %d: got %v, want %v", k, got, want)
				}
			}
		})
	}
}

func TestDecoder_ResyncAfterGarbage(t *testing.T) {
	good := MustEncode(MsgTransmitDone, map[int]interface{}{0: uint64(1)})

	var wire []byte
	wire = append(wire, 0x00, 0xFF, EndByte, 0x12)
	wire = append(wire, good[:5]...) // truncated frame
	wire = append(wire, good...)

	packets, _ := decodeAll(NewDecoder(), wire)
	if len(packets) != 1 || packets[0].Type() != MsgTransmitDone {
		t.Fatalf("expected one TRANSMIT_DONE after resync, got %d", len(packets))
	}
}

func TestDecoder_CRCMismatch(t *testing.T) {
	wire := MustEncode(MsgPingRequest, nil)
	wire[len(wire)-2] ^= 0x01
	if wire[len(wire)-2] == StartByte || wire[len(wire)-2] == EndByte || wire[len(wire)-2] == EscByte {
		t.Skip("corruption produced a framing byte")
	}

	packets, errs := decodeAll(NewDecoder(), wire)
	if len(packets) != 0 {
		t.Fatal("corrupted packet must not decode")
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrChecksum) {
		t.Errorf("expected ErrChecksum, got %v", errs)
	}
}

func TestDecoder_DeclaredLengthTooLarge(t *testing.T) {
	wire := []byte{StartByte, 0x01, 0x10} // 4097 bytes
	_, errs := decodeAll(NewDecoder(), wire)
	if len(errs) != 1 || !errors.Is(errs[0], ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", errs)
	}
}

func TestEncode_PayloadTooLarge(t *testing.T) {
	durations := make([]uint64, MaxPayloadSize)
	for i := range durations {
		durations[i] = 0xFFFF
	}
	_, err := Encode(MsgTransmit, map[int]interface{}{KeyDurations: durations})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("expected ErrPayloadTooLarge, got %v", err)
	}
}

// ============================================================
// CBOR Tests
// ============================================================

func TestParseCBORMessage_Errors(t *testing.T) {
	notArray, _ := cbor.Marshal(map[int]int{1: 2})
	threeElems, _ := cbor.Marshal([]interface{}{uint64(1), nil, nil})
	badType, _ := cbor.Marshal([]interface{}{"ping", nil})
	badKey, _ := cbor.Marshal([]interface{}{uint64(1), map[string]int{"a": 1}})

	for name, data := range map[string][]byte{
		"empty":       nil,
		"not array":   notArray,
		"three elems": threeElems,
		"string type": badType,
		"string key":  badKey,
	} {
		if _, _, err := ParseCBORMessage(data); !errors.Is(err, ErrBadMessage) {
			t.Errorf("%s: expected ErrBadMessage, got %v", name, err)
		}
	}
}

func TestGetMapHelpers(t *testing.T) {
	m := map[int]interface{}{
		0: uint64(42),
		1: int64(-10),
		2: []interface{}{uint64(1), int64(2)},
		3: []interface{}{"x"},
	}
	if v, ok := GetMapUint(m, 0); !ok || v != 42 {
		t.Errorf("GetMapUint(0) = %d, %v", v, ok)
	}
	if _, ok := GetMapUint(m, 1); ok {
		t.Error("negative value must not read as uint")
	}
	if v, ok := GetMapInt(m, 1); !ok || v != -10 {
		t.Errorf("GetMapInt(1) = %d, %v", v, ok)
	}
	if v, ok := GetMapUints(m, 2); !ok || len(v) != 2 || v[1] != 2 {
		t.Errorf("GetMapUints(2) = %v, %v", v, ok)
	}
	if _, ok := GetMapUints(m, 3); ok {
		t.Error("string array must not read as uints")
	}
	if _, ok := GetMapUint(nil, 0); ok {
		t.Error("nil map must report missing")
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatPacket(t *testing.T) {
	tests := []struct {
		packet *Packet
		want   []string
	}{
		{NewPingRequest(), []string{"PING_REQUEST (0x2F)", "(no payload)"}},
		{NewPingResponse(1500 * time.Millisecond), []string{"PING_RESPONSE", "Uptime: 1.5s"}},
		{NewTransmitDone(220), []string{"TRANSMIT_DONE", "Pairs sent: 220"}},
		{NewError(ErrorBusy, 3), []string{"ERROR (0xE0)", "BUSY (1)", "Pairs sent: 3"}},
	}
	for _, tt := range tests {
		wire := MustEncode(tt.packet.Type(), tt.packet.Payload())
		packets, _ := decodeAll(NewDecoder(), wire)
		if len(packets) != 1 {
			t.Fatalf("decode failed for %s", FormatMessageType(tt.packet.Type()))
		}
		out := FormatPacket(packets[0])
		for _, w := range tt.want {
			if !strings.Contains(out, w) {
				t.Errorf("FormatPacket missing %q:\n%s", w, out)
			}
		}
	}

	if FormatMessageType(0x99) != "UNKNOWN" {
		t.Error("unknown type should format as UNKNOWN")
	}
	if FormatErrorCode(ErrorCode(77)) != "CODE_77" {
		t.Errorf("got %s", FormatErrorCode(ErrorCode(77)))
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()
	s.Update(nil, nil)
	s.Update(NewPingRequest(), nil)
	s.Update(NewPingRequest(), nil)
	s.Update(NewTransmitDone(220), nil)
	s.Update(NewPacket([]byte{0xff}, 0), nil)
	s.Update(nil, fmt.Errorf("%w: computed 0x0000, received 0x0001", ErrChecksum))
	s.Update(nil, fmt.Errorf("%w: declared 4000 bytes", ErrPayloadTooLarge))
	s.Update(nil, errors.New("link: unexpected END in state 3"))

	if s.TotalFrames != 7 {
		t.Errorf("TotalFrames = %d, want 7", s.TotalFrames)
	}
	if s.ValidPackets != 3 || s.Unparsable != 1 || s.CRCErrors != 1 || s.OversizeFrames != 1 || s.FramingErrors != 1 {
		t.Errorf("unexpected counters: %+v", s)
	}
	if s.Errors() != 4 {
		t.Errorf("Errors() = %d, want 4", s.Errors())
	}
	if s.ByType[MsgPingRequest] != 2 || s.ByType[MsgTransmitDone] != 1 {
		t.Errorf("ByType = %v", s.ByType)
	}

	frames, errs := s.Rates(s.StartTime.Add(2 * time.Second))
	if frames != 3.5 || errs != 2 {
		t.Errorf("Rates = %v, %v; want 3.5, 2", frames, errs)
	}
	if f, e := s.Rates(s.StartTime); f != 0 || e != 0 {
		t.Errorf("Rates at start = %v, %v; want 0, 0", f, e)
	}

	out := s.String()
	for _, want := range []string{"Total Frames:", "CRC Errors:", "PING_REQUEST:", "TRANSMIT_DONE:"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
}
