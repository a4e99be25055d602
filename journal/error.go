// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package journal

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a kind of journal error.
type ErrorCode int

// These constants are used to identify a specific JournalError.
const (
	// ErrIO indicates a failure of the underlying storage.  When this
	// code is set, the Err field of the JournalError is set to the error
	// returned by the database.
	ErrIO ErrorCode = iota

	// ErrLocked indicates that the journal is held open by another
	// handle, in this or another process.
	ErrLocked

	// ErrNotFound indicates that the journal file does not exist.
	ErrNotFound

	// ErrExists indicates that a journal file is already present at the
	// path it was to be created at.
	ErrExists

	// ErrClosed indicates use of a journal after Close or Destroy.
	ErrClosed
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrIO:       "ErrIO",
	ErrLocked:   "ErrLocked",
	ErrNotFound: "ErrNotFound",
	ErrExists:   "ErrExists",
	ErrClosed:   "ErrClosed",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// JournalError provides a single type for errors that can happen during
// journal operation.
type JournalError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
	Err         error     // Underlying error
}

// Error satisfies the error interface and prints human-readable errors.
func (e JournalError) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

// Unwrap returns the underlying error, if any.
func (e JournalError) Unwrap() error {
	return e.Err
}

func journalError(c ErrorCode, desc string, err error) JournalError {
	return JournalError{ErrorCode: c, Description: desc, Err: err}
}

// IsError returns whether err is, or wraps, a JournalError with the given
// code.
func IsError(err error, code ErrorCode) bool {
	var e JournalError
	if !errors.As(err, &e) {
		return false
	}
	return e.ErrorCode == code
}
