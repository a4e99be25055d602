// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package stagingid provides the identifier of a staged transaction.
//
// Every staged transaction is addressed by a random ID which also names its
// journal file below the staging root directory.
package stagingid

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FileExt is the extension used for staging journal files.
const FileExt = ".stx"

// ID uniquely identifies a staged transaction.  The zero value is not a
// valid identifier.
type ID struct {
	u uuid.UUID
}

// New generates a new random ID.
func New() (ID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return ID{}, fmt.Errorf("unable to generate staging id: %w", err)
	}
	return ID{u: u}, nil
}

// Parse decodes the string form of an ID as returned by String.
func Parse(s string) (ID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ID{}, fmt.Errorf("invalid staging id %q: %w", s, err)
	}
	if u == uuid.Nil {
		return ID{}, fmt.Errorf("invalid staging id %q: nil id", s)
	}
	return ID{u: u}, nil
}

// String returns the canonical lower-case hex form of the ID.
func (id ID) String() string {
	return id.u.String()
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id.u == uuid.Nil
}

// FileName returns the name of the journal file backing the ID.
func (id ID) FileName() string {
	return id.String() + FileExt
}

// IsJournalFile reports whether name is the file name of a staging
// journal and returns the ID it belongs to.  Only the canonical name
// returned by FileName is accepted, so the journal of the returned ID is
// name itself.
func IsJournalFile(name string) (ID, bool) {
	if !strings.HasSuffix(name, FileExt) {
		return ID{}, false
	}
	id, err := Parse(strings.TrimSuffix(name, FileExt))
	if err != nil || id.FileName() != name {
		return ID{}, false
	}
	return id, true
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
