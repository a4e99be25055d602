// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package staging

import (
	"path/filepath"
	"time"

	"github.com/btcsuite/txstaging/journal"
	"github.com/btcsuite/txstaging/stagingid"
)

// Config locates the journals of staged transactions.  It is passed to
// every function creating or opening a staged transaction; nothing depends
// on the working directory.
type Config struct {
	// RootDir is the directory holding one journal file per staged
	// transaction.  It is created on demand.
	RootDir string

	// LockTimeout bounds the wait for the lock of a journal that is
	// already open.  Zero selects journal.DefaultLockTimeout.
	LockTimeout time.Duration
}

// DefaultConfig returns a configuration storing journals in rootDir.
func DefaultConfig(rootDir string) *Config {
	return &Config{
		RootDir:     rootDir,
		LockTimeout: journal.DefaultLockTimeout,
	}
}

// JournalPath returns the path of the journal of the staged transaction
// id.
func (c *Config) JournalPath(id stagingid.ID) string {
	return filepath.Join(c.RootDir, id.FileName())
}
