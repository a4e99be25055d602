// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txstate

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the kind of validation error reported by a
// Transaction.
type ErrorCode int

// These constants are used to identify a specific TxError.
const (
	// ErrDoubleSpend indicates an input spending an outpoint that is
	// already spent by another input of the transaction.
	ErrDoubleSpend ErrorCode = iota

	// ErrInputNotFound indicates that no input spends the requested
	// outpoint.
	ErrInputNotFound

	// ErrChangeNotFound indicates that no change is registered for the
	// requested script.
	ErrChangeNotFound

	// ErrIndexOutOfRange indicates an output index past the end of the
	// outputs.
	ErrIndexOutOfRange

	// ErrFinalizedImmutable indicates a structural edit of a finalized
	// transaction.  Only signatures may be added once finalized.
	ErrFinalizedImmutable

	// ErrAlreadyFinalized indicates a second finalization.
	ErrAlreadyFinalized

	// ErrUnknownOperation indicates an operation type the state machine
	// does not know how to apply.
	ErrUnknownOperation
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrDoubleSpend:        "ErrDoubleSpend",
	ErrInputNotFound:      "ErrInputNotFound",
	ErrChangeNotFound:     "ErrChangeNotFound",
	ErrIndexOutOfRange:    "ErrIndexOutOfRange",
	ErrFinalizedImmutable: "ErrFinalizedImmutable",
	ErrAlreadyFinalized:   "ErrAlreadyFinalized",
	ErrUnknownOperation:   "ErrUnknownOperation",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// TxError describes why an operation cannot be applied to a Transaction.
type TxError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
}

// Error satisfies the error interface and prints human-readable errors.
func (e TxError) Error() string {
	return e.Description
}

func txError(c ErrorCode, desc string) TxError {
	return TxError{ErrorCode: c, Description: desc}
}

// IsError returns whether err is, or wraps, a TxError with the given code.
func IsError(err error, code ErrorCode) bool {
	var e TxError
	if !errors.As(err, &e) {
		return false
	}
	return e.ErrorCode == code
}

// Errors reported while decoding an operation record.  They are always
// wrapped in a ParseError.
var (
	// ErrUnknownTag is returned for a record whose discriminant does not
	// name any known operation.
	ErrUnknownTag = errors.New("unknown operation tag")

	// ErrTruncatedRecord is returned when the data ends before the
	// record does, such as a partially written trailing record.
	ErrTruncatedRecord = errors.New("truncated operation record")

	// ErrMalformedRecord is returned when a record is complete but its
	// payload cannot be decoded.
	ErrMalformedRecord = errors.New("malformed operation record")
)

// ParseError is returned when an operation record cannot be decoded.
type ParseError struct {
	Tag OpTag
	Err error
}

// Error satisfies the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("unable to parse operation record (tag %d): %v",
		uint8(e.Tag), e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseError(tag OpTag, kind error, err error) *ParseError {
	if err == nil {
		return &ParseError{Tag: tag, Err: kind}
	}
	return &ParseError{Tag: tag, Err: fmt.Errorf("%w: %v", kind, err)}
}
