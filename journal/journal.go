// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package journal implements an append-only store of byte records backed by
// a walletdb (bbolt) database file.
//
// A Journal holds an exclusive advisory lock on its file for as long as it
// is open.  Opening a journal which is already open, from this or another
// process, fails with ErrLocked once the lock timeout expires instead of
// blocking.  Every Append is a single fsynced database transaction, so a
// record is either fully stored or not stored at all.
package journal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcwallet/walletdb"
	_ "github.com/btcsuite/btcwallet/walletdb/bdb" // Register the bdb driver.
	"github.com/btcsuite/txstaging/internal/cfgutil"
	"go.etcd.io/bbolt"
)

const (
	// dbType is the walletdb driver storing journals.
	dbType = "bdb"

	// DefaultLockTimeout is the time Open and Create wait for the file
	// lock before giving up when no timeout is given.
	DefaultLockTimeout = 100 * time.Millisecond
)

// recordsBucket holds the records keyed by their big-endian sequence
// number, so that cursor order is append order.
var recordsBucket = []byte("records")

// Journal is an open, exclusively locked journal file.
type Journal struct {
	path  string
	db    walletdb.DB
	count int
}

// Create creates and opens a new journal at path.  Missing parent
// directories are created.  It fails with ErrExists if a file already
// exists at path.
func Create(path string, timeout time.Duration) (*Journal, error) {
	exists, err := cfgutil.FileExists(path)
	if err != nil {
		return nil, journalError(ErrIO, "unable to stat journal", err)
	}
	if exists {
		return nil, journalError(ErrExists, "journal "+path+
			" already exists", nil)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, journalError(ErrIO, "unable to create journal "+
			"directory", err)
	}

	db, err := walletdb.Create(
		dbType, path, true, lockTimeout(timeout), false,
	)
	if err != nil {
		return nil, convertOpenErr(path, err)
	}

	err = walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		_, err := tx.CreateTopLevelBucket(recordsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, journalError(ErrIO, "unable to initialize journal",
			err)
	}

	log.Debugf("Created journal %s", path)

	return &Journal{path: path, db: db}, nil
}

// Open opens the existing journal at path.  It fails with ErrNotFound if
// there is no such file and with ErrLocked if the journal is already open.
func Open(path string, timeout time.Duration) (*Journal, error) {
	db, err := walletdb.Open(
		dbType, path, true, lockTimeout(timeout), false,
	)
	if err != nil {
		return nil, convertOpenErr(path, err)
	}

	j := &Journal{path: path, db: db}
	err = j.ForEach(func([]byte) error {
		j.count++
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Debugf("Opened journal %s with %d records", path, j.count)

	return j, nil
}

func lockTimeout(timeout time.Duration) time.Duration {
	// A zero timeout makes bbolt wait for the lock forever.
	if timeout <= 0 {
		return DefaultLockTimeout
	}
	return timeout
}

func convertOpenErr(path string, err error) error {
	switch {
	case errors.Is(err, walletdb.ErrDbDoesNotExist):
		return journalError(ErrNotFound, "journal "+path+
			" does not exist", err)

	case errors.Is(err, walletdb.ErrDbExists):
		return journalError(ErrExists, "journal "+path+
			" already exists", err)

	case errors.Is(err, bbolt.ErrTimeout):
		return journalError(ErrLocked, "journal "+path+
			" is locked by another handle", err)
	}

	return journalError(ErrIO, "unable to open journal "+path, err)
}

// Path returns the path of the journal file.
func (j *Journal) Path() string {
	return j.path
}

// Len returns the number of records in the journal.
func (j *Journal) Len() int {
	return j.count
}

// Append durably appends record to the journal.  When an error is
// returned the record was not stored.
func (j *Journal) Append(record []byte) error {
	if j.db == nil {
		return journalError(ErrClosed, "journal is closed", nil)
	}

	err := walletdb.Update(j.db, func(tx walletdb.ReadWriteTx) error {
		bucket := tx.ReadWriteBucket(recordsBucket)
		if bucket == nil {
			var err error
			bucket, err = tx.CreateTopLevelBucket(recordsBucket)
			if err != nil {
				return err
			}
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return err
		}

		var key [8]byte
		binary.BigEndian.PutUint64(key[:], seq)
		return bucket.Put(key[:], record)
	})
	if err != nil {
		return journalError(ErrIO, "unable to append journal record",
			err)
	}

	j.count++
	log.Tracef("Appended record %d (%d bytes) to journal %s", j.count,
		len(record), j.path)

	return nil
}

// ForEach calls fn with every record in append order.  Iteration stops at
// the first error returned by fn, which is returned unchanged.  The record
// passed to fn may be retained.
func (j *Journal) ForEach(fn func(record []byte) error) error {
	if j.db == nil {
		return journalError(ErrClosed, "journal is closed", nil)
	}

	var fnErr error
	err := walletdb.View(j.db, func(tx walletdb.ReadTx) error {
		// A journal file left empty by an interrupted create has no
		// bucket and so no records.
		bucket := tx.ReadBucket(recordsBucket)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(_, v []byte) error {
			fnErr = fn(bytes.Clone(v))
			return fnErr
		})
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return journalError(ErrIO, "unable to read journal records",
			err)
	}
	return nil
}

// Close releases the journal and its file lock.  Closing a closed journal
// is a no-op.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}

	err := j.db.Close()
	j.db = nil
	if err != nil {
		return journalError(ErrIO, "unable to close journal", err)
	}

	log.Debugf("Closed journal %s", j.path)

	return nil
}

// Destroy closes the journal and removes its file.
func (j *Journal) Destroy() error {
	if j.db == nil {
		return journalError(ErrClosed, "journal is closed", nil)
	}
	if err := j.Close(); err != nil {
		return err
	}
	if err := os.Remove(j.path); err != nil {
		return journalError(ErrIO, "unable to remove journal", err)
	}

	log.Debugf("Removed journal %s", j.path)

	return nil
}
