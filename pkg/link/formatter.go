// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

// FormatPacket renders a packet on one or two lines for logs
func FormatPacket(p *Packet) string {
	ts := p.Timestamp().Format("15:04:05.000")
	out := fmt.Sprintf("[%s] %s (0x%02X) len=%d crc=0x%04X\n", ts, FormatMessageType(p.Type()), p.Type(), p.Length(), p.CRC())
	if err := p.ParseError(); err != nil {
		return out + fmt.Sprintf("  (unparsable: %v)\n", err)
	}
	return out + FormatPayload(p.Type(), p.Payload())
}

// FormatMessageType returns the name of a message type
func FormatMessageType(msgType uint8) string {
	switch msgType {
	case MsgTransmit:
		return "TRANSMIT"
	case MsgTransmitDone:
		return "TRANSMIT_DONE"
	case MsgPingRequest:
		return "PING_REQUEST"
	case MsgPingResponse:
		return "PING_RESPONSE"
	case MsgError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// FormatErrorCode returns the name of an emitter error code
func FormatErrorCode(code ErrorCode) string {
	switch code {
	case ErrorNone:
		return "NONE"
	case ErrorBusy:
		return "BUSY"
	case ErrorInvalid:
		return "INVALID"
	case ErrorDriver:
		return "DRIVER_FAULT"
	case ErrorCanceled:
		return "CANCELED"
	case ErrorUnknownMsg:
		return "UNKNOWN_MESSAGE"
	}
	return fmt.Sprintf("CODE_%d", int(code))
}

// FormatPayload renders the payload of a known message type
func FormatPayload(msgType uint8, m map[int]interface{}) string {
	switch msgType {
	case MsgPingRequest:
		return "  (no payload)\n"

	case MsgPingResponse:
		ms, _ := GetMapUint(m, 0)
		return fmt.Sprintf("  Uptime: %v\n", time.Duration(ms)*time.Millisecond)

	case MsgTransmit:
		hz, _ := GetMapUint(m, KeyCarrierHz)
		duty, _ := GetMapUint(m, KeyDuty)
		repeat, _ := GetMapUint(m, KeyRepeat)
		gap, _ := GetMapUint(m, KeyGapMicros)
		durations, _ := GetMapUints(m, KeyDurations)
		var total uint64
		for _, d := range durations {
			total += d
		}
		return fmt.Sprintf("  Carrier: %d Hz @ %d%%, Repeat: %d, Gap: %d us, Pairs: %d, Length: %v\n",
			hz, duty, repeat, gap, len(durations)/2, time.Duration(total)*time.Microsecond)

	case MsgTransmitDone:
		pairs, _ := GetMapUint(m, 0)
		return fmt.Sprintf("  Pairs sent: %d\n", pairs)

	case MsgError:
		code, _ := GetMapUint(m, 0)
		pairs, _ := GetMapUint(m, 1)
		return fmt.Sprintf("  Code: %s (%d), Pairs sent: %d\n", FormatErrorCode(ErrorCode(code)), code, pairs)
	}

	if len(m) == 0 {
		return ""
	}
	parts := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		parts = append(parts, fmt.Sprintf("%d=%v", k, m[k]))
	}
	return "  " + strings.Join(parts, " ") + "\n"
}
