package util

import (
	"fmt"
)

type ErrorCode int32

const (
	EC_BadRequest       ErrorCode = 100
	EC_Parse            ErrorCode = 102
	EC_Range            ErrorCode = 103
	EC_UnknownLocation  ErrorCode = 110
	EC_UnknownIndicator ErrorCode = 111
	EC_UnknownMarking   ErrorCode = 112
	EC_InvalidWireMap   ErrorCode = 113
	EC_Transport        ErrorCode = 120
	EC_Internal         ErrorCode = 200
)

// Error is the error type used at all component boundaries. Code determines
// how control surfaces report the error (HTTP status, log-and-drop, fatal).
type Error struct {
	Code    ErrorCode
	Message string
	Name    string
	Cause   error
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{code, message, "", nil}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

var _ error = &Error{}

// Code extracts the ErrorCode of an error, or EC_Internal if err is not
// an *Error.
func Code(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return EC_Internal
}

func NewUnknownLocationError(location string) error {
	return &Error{EC_UnknownLocation,
		fmt.Sprintf("unknown rack location: %s", location), location, nil}
}

func NewUnknownIndicatorError(name string) error {
	return &Error{EC_UnknownIndicator,
		fmt.Sprintf("unknown indicator: %s", name), name, nil}
}

func NewUnknownMarkingError(marking string) error {
	return &Error{EC_UnknownMarking,
		fmt.Sprintf("unknown board marking: %s", marking), marking, nil}
}

func NewParseError(parseType string, cause error) error {
	return &Error{EC_Parse,
		fmt.Sprintf("could not parse %s", parseType), parseType, cause}
}

func NewRangeError(name string, value float64) error {
	return &Error{EC_Range,
		fmt.Sprintf("%s out of range: %v not in [0, 1]", name, value), name, nil}
}

func NewTransportError(message string, cause error) error {
	return &Error{EC_Transport, message, "", cause}
}

// CheckUnitRange checks that value is a valid fraction in [0, 1] and
// produces an err with a Message if it is not. name should be the name of
// what value is.
func CheckUnitRange(value float64, name string) (err error) {
	if value < 0 || value > 1 {
		err = NewRangeError(name, value)
	}
	return
}
