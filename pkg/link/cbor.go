// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ParseCBORMessage decodes [msg_type, payload_map]. The payload is nil when
// the message carries none.
func ParseCBORMessage(data []byte) (uint8, map[int]interface{}, error) {
	if len(data) == 0 {
		return 0, nil, fmt.Errorf("%w: empty body", ErrBadMessage)
	}

	var msg []interface{}
	if err := cbor.Unmarshal(data, &msg); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if len(msg) != 2 {
		return 0, nil, fmt.Errorf("%w: expected 2-element array, got %d", ErrBadMessage, len(msg))
	}

	t, ok := msg[0].(uint64)
	if !ok || t > 0xFF {
		return 0, nil, fmt.Errorf("%w: message type %v", ErrBadMessage, msg[0])
	}
	if msg[1] == nil {
		return uint8(t), nil, nil
	}

	raw, ok := msg[1].(map[interface{}]interface{})
	if !ok {
		return 0, nil, fmt.Errorf("%w: payload is %T", ErrBadMessage, msg[1])
	}
	payload := make(map[int]interface{}, len(raw))
	for key, val := range raw {
		switch k := key.(type) {
		case uint64:
			payload[int(k)] = val
		case int64:
			payload[int(k)] = val
		default:
			return 0, nil, fmt.Errorf("%w: map key %T", ErrBadMessage, key)
		}
	}
	return uint8(t), payload, nil
}

// GetMapUint extracts a non-negative integer
func GetMapUint(m map[int]interface{}, key int) (uint64, bool) {
	switch v := m[key].(type) {
	case uint64:
		return v, true
	case int64:
		if v >= 0 {
			return uint64(v), true
		}
	}
	return 0, false
}

// GetMapInt extracts a signed integer
func GetMapInt(m map[int]interface{}, key int) (int64, bool) {
	switch v := m[key].(type) {
	case int64:
		return v, true
	case uint64:
		if v <= 1<<63-1 {
			return int64(v), true
		}
	}
	return 0, false
}

// GetMapUints extracts an array of non-negative integers
func GetMapUints(m map[int]interface{}, key int) ([]uint64, bool) {
	arr, ok := m[key].([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]uint64, len(arr))
	for i, v := range arr {
		switch n := v.(type) {
		case uint64:
			out[i] = n
		case int64:
			if n < 0 {
				return nil, false
			}
			out[i] = uint64(n)
		default:
			return nil, false
		}
	}
	return out, true
}
