// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package staging

import (
	"errors"
	"fmt"

	"github.com/btcsuite/txstaging/journal"
)

// ErrorCode identifies a kind of error.
type ErrorCode int

// These constants are used to identify a specific StagingError.
//
// ErrJournal, ErrLocked, ErrNotFound and ErrExists report an unavailable
// journal.  ErrInvalidTransaction reports an edit rejected by the
// transaction rules.  The remaining codes describe a journal that cannot be
// replayed and are only returned by Open.
const (
	// ErrJournal indicates a failure of the journal storage.  The Err
	// field is set to the underlying journal error.
	ErrJournal ErrorCode = iota

	// ErrLocked indicates that the staged transaction is already open.
	ErrLocked

	// ErrNotFound indicates that there is no journal for the requested
	// staging id.
	ErrNotFound

	// ErrExists indicates that a journal already exists for the staging
	// id of a new staged transaction.
	ErrExists

	// ErrClosed indicates use of a staged transaction after Close or
	// Destroy.
	ErrClosed

	// ErrInvalidTransaction indicates an edit which the current state of
	// the transaction does not allow.  The Err field is set to the
	// txstate.TxError describing the violation.
	ErrInvalidTransaction

	// ErrNoMagic indicates a journal without any record.
	ErrNoMagic

	// ErrInvalidMagic indicates a journal or export which does not start
	// with the expected magic.  The offending bytes are kept in the Magic
	// field.
	ErrInvalidMagic

	// ErrMissingProtocolMagic indicates a journal which ends right after
	// its magic.
	ErrMissingProtocolMagic

	// ErrMalformedProtocolMagic indicates a protocol magic record that is
	// not exactly four bytes long.
	ErrMalformedProtocolMagic

	// ErrOperation indicates a journal record which is not a valid
	// operation.  The Err field is set to the txstate.ParseError.
	ErrOperation

	// ErrReplay indicates a journaled operation which cannot be applied
	// to the state built by the preceding operations.
	ErrReplay

	// ErrInconsistent indicates that the in-memory state could not be
	// brought in line with the journal.  The staged transaction is closed
	// and has to be opened again.
	ErrInconsistent
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errorCodeStrings = map[ErrorCode]string{
	ErrJournal:                "ErrJournal",
	ErrLocked:                 "ErrLocked",
	ErrNotFound:               "ErrNotFound",
	ErrExists:                 "ErrExists",
	ErrClosed:                 "ErrClosed",
	ErrInvalidTransaction:     "ErrInvalidTransaction",
	ErrNoMagic:                "ErrNoMagic",
	ErrInvalidMagic:           "ErrInvalidMagic",
	ErrMissingProtocolMagic:   "ErrMissingProtocolMagic",
	ErrMalformedProtocolMagic: "ErrMalformedProtocolMagic",
	ErrOperation:              "ErrOperation",
	ErrReplay:                 "ErrReplay",
	ErrInconsistent:           "ErrInconsistent",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// StagingError provides a single type for errors that can happen while
// opening or editing a staged transaction.
type StagingError struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human readable description of the issue
	Magic       []byte    // Offending magic for ErrInvalidMagic
	Err         error     // Underlying error
}

// Error satisfies the error interface and prints human-readable errors.
func (e StagingError) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

// Unwrap returns the underlying error, if any.
func (e StagingError) Unwrap() error {
	return e.Err
}

func stagingError(c ErrorCode, desc string, err error) StagingError {
	return StagingError{ErrorCode: c, Description: desc, Err: err}
}

// IsError returns whether err is, or wraps, a StagingError with the given
// code.
func IsError(err error, code ErrorCode) bool {
	var e StagingError
	if !errors.As(err, &e) {
		return false
	}
	return e.ErrorCode == code
}

// convertJournalErr maps a journal error to the equivalent StagingError.
func convertJournalErr(desc string, err error) StagingError {
	var jErr journal.JournalError
	if !errors.As(err, &jErr) {
		return stagingError(ErrJournal, desc, err)
	}

	switch jErr.ErrorCode {
	case journal.ErrLocked:
		return stagingError(ErrLocked, desc, err)
	case journal.ErrNotFound:
		return stagingError(ErrNotFound, desc, err)
	case journal.ErrExists:
		return stagingError(ErrExists, desc, err)
	case journal.ErrClosed:
		return stagingError(ErrClosed, desc, err)
	}

	return stagingError(ErrJournal, desc, err)
}
