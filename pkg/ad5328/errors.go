// Unified error handling for the AD5328 driver
//
// Copyright (C) 2026  ad5328-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package ad5328

import (
	"errors"
	"fmt"
)

// ErrorCode represents the category of error
type ErrorCode string

const (
	// ErrBus is a failure of the underlying SPI transport. The
	// transport's error value is wrapped verbatim.
	ErrBus ErrorCode = "BUS"

	// ErrPin is a failure of the chip-select control line. The pin
	// implementation's error value is wrapped verbatim.
	ErrPin ErrorCode = "PIN"

	// ErrConn is a connection error (device not found). Reserved for
	// higher-level connection validation.
	ErrConn ErrorCode = "CONN"

	// ErrAddress is an invalid or out of bounds address.
	ErrAddress ErrorCode = "ADDRESS"

	// ErrPort is an invalid or out of bounds port.
	ErrPort ErrorCode = "PORT"

	// ErrOutOfBounds is a channel value exceeding the 12-bit range.
	ErrOutOfBounds ErrorCode = "OUT_OF_BOUNDS"
)

// Error is the unified error type for the driver. It carries the
// error category and, for bus and pin failures, wraps the underlying
// implementation-defined error.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Err wraps the underlying error
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// IsCode reports whether err is a driver Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

// busError wraps a transport failure
func busError(err error) *Error {
	return &Error{Code: ErrBus, Message: "bus write failed", Err: err}
}

// pinError wraps a control line failure
func pinError(err error) *Error {
	return &Error{Code: ErrPin, Message: "chip select failed", Err: err}
}

// oobError reports a channel value above MaxValue
func oobError(value uint16) *Error {
	return &Error{
		Code:    ErrOutOfBounds,
		Message: fmt.Sprintf("channel value %d exceeds maximum %d", value, MaxValue),
	}
}
