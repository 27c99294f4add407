// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panasonic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter is matched by every *ParameterError.
	ErrInvalidParameter = errors.New("panasonic: invalid parameter")
	ErrFrameLength      = errors.New("panasonic: invalid frame length")
	ErrChecksum         = errors.New("panasonic: checksum mismatch")
)

// ParameterError reports a control value that cannot be encoded.
type ParameterError struct {
	Field  Field
	Value  string
	Reason string
}

// Error implements the error interface
func (e *ParameterError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidParameter.
func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

func invalid(field Field, value interface{}, reason string) *ParameterError {
	return &ParameterError{Field: field, Value: fmt.Sprint(value), Reason: reason}
}
