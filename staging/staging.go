// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package staging builds transactions incrementally on top of a journal.
//
// A StagingTransaction records every accepted edit in a journal file before
// it is applied in memory, so an interrupted process can reopen the staged
// transaction and continue where it stopped.  The journal starts with the
// magic record TRANSACTION_V1 and a 4-byte big-endian protocol magic,
// followed by one record per operation in the order the operations were
// accepted.  Opening a staged transaction replays these records; a journal
// that cannot be replayed completely is rejected as a whole.
//
// The open journal holds an exclusive lock on its file, so a staged
// transaction can only be open once at a time.  A StagingTransaction is not
// safe for concurrent use.
package staging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/txstaging/journal"
	"github.com/btcsuite/txstaging/stagingid"
	"github.com/btcsuite/txstaging/txstate"
	"github.com/davecgh/go-spew/spew"
)

// MagicTransactionV1 is the first record of every journal.  A change to
// the set of operations or their encoding requires a new magic.
var MagicTransactionV1 = []byte("TRANSACTION_V1")

// recordJournal is the journal storage used by a StagingTransaction.  It is
// implemented by *journal.Journal.
type recordJournal interface {
	Path() string
	Len() int
	Append(record []byte) error
	ForEach(fn func(record []byte) error) error
	Close() error
	Destroy() error
}

// StagingTransaction is a transaction under construction together with the
// journal of the operations that built it.
type StagingTransaction struct {
	id            stagingid.ID
	protocolMagic wire.BitcoinNet
	operations    []txstate.Operation
	tx            *txstate.Transaction

	// journal is held for the lifetime of the staged transaction and is
	// nil once closed.
	journal recordJournal
}

// Create starts a new staged transaction for the network identified by
// protocolMagic, with a fresh staging id.
func Create(cfg *Config,
	protocolMagic wire.BitcoinNet) (*StagingTransaction, error) {

	id, err := stagingid.New()
	if err != nil {
		return nil, err
	}
	return create(cfg, protocolMagic, id)
}

// create initializes the journal of a new staged transaction id.  On
// failure no journal file is left behind.
func create(cfg *Config, protocolMagic wire.BitcoinNet,
	id stagingid.ID) (*StagingTransaction, error) {

	j, err := journal.Create(cfg.JournalPath(id), cfg.LockTimeout)
	if err != nil {
		return nil, convertJournalErr(fmt.Sprintf("unable to create "+
			"staged transaction %v", id), err)
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(protocolMagic))

	for _, record := range [][]byte{MagicTransactionV1, header[:]} {
		if err := j.Append(record); err != nil {
			if dErr := j.Destroy(); dErr != nil {
				log.Errorf("Unable to remove journal %s: %v",
					j.Path(), dErr)
			}
			return nil, convertJournalErr("unable to write "+
				"journal header", err)
		}
	}

	log.Infof("Created staged transaction %v (%v)", id, protocolMagic)

	return &StagingTransaction{
		id:            id,
		protocolMagic: protocolMagic,
		tx:            txstate.New(),
		journal:       j,
	}, nil
}

// Open locks the journal of the staged transaction id and replays it.  It
// fails if the staged transaction is already open or if any record of the
// journal cannot be replayed.
func Open(cfg *Config, id stagingid.ID) (*StagingTransaction, error) {
	j, err := journal.Open(cfg.JournalPath(id), cfg.LockTimeout)
	if err != nil {
		return nil, convertJournalErr(fmt.Sprintf("unable to open "+
			"staged transaction %v", id), err)
	}

	st, err := replay(id, j)
	if err != nil {
		if cErr := j.Close(); cErr != nil {
			log.Errorf("Unable to close journal %s: %v", j.Path(),
				cErr)
		}
		return nil, err
	}

	log.Infof("Opened staged transaction %v with %d %s", id,
		len(st.operations), pickNoun(len(st.operations), "operation",
			"operations"))

	return st, nil
}

// replay rebuilds a staged transaction from the records of j.
func replay(id stagingid.ID, j recordJournal) (*StagingTransaction, error) {
	st := &StagingTransaction{
		id:      id,
		tx:      txstate.New(),
		journal: j,
	}

	index := 0
	err := j.ForEach(func(record []byte) error {
		defer func() { index++ }()

		switch index {
		case 0:
			if !bytes.Equal(record, MagicTransactionV1) {
				return StagingError{
					ErrorCode:   ErrInvalidMagic,
					Description: "invalid journal magic",
					Magic:       record,
				}
			}
			return nil

		case 1:
			if len(record) != 4 {
				return stagingError(ErrMalformedProtocolMagic,
					fmt.Sprintf("protocol magic is %d "+
						"bytes long, expected 4",
						len(record)), nil)
			}
			st.protocolMagic = wire.BitcoinNet(
				binary.BigEndian.Uint32(record),
			)
			return nil
		}

		op, err := txstate.DecodeOperation(record)
		if err != nil {
			return stagingError(ErrOperation, fmt.Sprintf("unable "+
				"to decode journal record %d", index), err)
		}
		if err := st.tx.Apply(op); err != nil {
			return stagingError(ErrReplay, fmt.Sprintf("unable to "+
				"replay journal record %d (%v)", index, op), err)
		}
		st.operations = append(st.operations, op)

		log.Tracef("Replayed %v", op)

		return nil
	})

	var sErr StagingError
	switch {
	case errors.As(err, &sErr):
		return nil, sErr
	case err != nil:
		return nil, convertJournalErr("unable to read journal", err)
	case index == 0:
		return nil, stagingError(ErrNoMagic, "journal has no magic",
			nil)
	case index == 1:
		return nil, stagingError(ErrMissingProtocolMagic, "journal "+
			"has no protocol magic", nil)
	}

	return st, nil
}

// List returns the ids of the staged transactions that have a journal in
// the root directory of cfg, sorted by their string form.  A missing root
// directory holds no staged transactions.
func List(cfg *Config) ([]stagingid.ID, error) {
	entries, err := os.ReadDir(cfg.RootDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, stagingError(ErrJournal, "unable to list staged "+
			"transactions", err)
	}

	var ids []stagingid.ID
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if id, ok := stagingid.IsJournalFile(entry.Name()); ok {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	return ids, nil
}

// ID returns the staging id.
func (s *StagingTransaction) ID() stagingid.ID {
	return s.id
}

// ProtocolMagic returns the network the transaction is staged for.
func (s *StagingTransaction) ProtocolMagic() wire.BitcoinNet {
	return s.protocolMagic
}

// Path returns the path of the journal file.
func (s *StagingTransaction) Path() string {
	if s.journal == nil {
		return ""
	}
	return s.journal.Path()
}

// Operations returns the accepted operations in order.
func (s *StagingTransaction) Operations() []txstate.Operation {
	ops := make([]txstate.Operation, len(s.operations))
	copy(ops, s.operations)
	return ops
}

// Transaction returns a copy of the current state of the transaction.
func (s *StagingTransaction) Transaction() *txstate.Transaction {
	return s.tx.Clone()
}

// IsFinalized returns whether the transaction is finalized and only waits
// for signatures.
func (s *StagingTransaction) IsFinalized() bool {
	return s.tx.IsFinalized()
}

// edit journals op and applies it.  The operation is validated first and
// the state in memory is only changed once the journal has stored the
// record, so a failed edit leaves both unchanged and the staged
// transaction usable.
func (s *StagingTransaction) edit(op txstate.Operation) error {
	if s.journal == nil {
		return stagingError(ErrClosed, "staged transaction is closed",
			nil)
	}

	if err := s.tx.Validate(op); err != nil {
		return stagingError(ErrInvalidTransaction, fmt.Sprintf("cannot "+
			"apply %v", op.Tag()), err)
	}

	record, err := txstate.EncodeOperation(op)
	if err != nil {
		return stagingError(ErrOperation, fmt.Sprintf("unable to "+
			"encode %v", op.Tag()), err)
	}

	if err := s.journal.Append(record); err != nil {
		return convertJournalErr(fmt.Sprintf("unable to journal %v",
			op.Tag()), err)
	}

	if err := s.tx.Apply(op); err != nil {
		// The journal now holds an operation the state rejects.
		// Close the staged transaction so that it is only used
		// again after a replay settles what the journal holds.
		log.Criticalf("Journaled %v does not apply to staged "+
			"transaction %v: %v", op, s.id, err)
		if cErr := s.Close(); cErr != nil {
			log.Errorf("Unable to close staged transaction %v: %v",
				s.id, cErr)
		}
		return stagingError(ErrInconsistent, "journal and state "+
			"diverged", err)
	}
	s.operations = append(s.operations, op)

	log.Debugf("Staged transaction %v: %v", s.id, op)
	log.Tracef("Staged transaction %v state: %v", s.id,
		newLogClosure(func() string {
			return spew.Sdump(s.tx.Snapshot())
		}))

	return nil
}

// AddInput adds an input spending a previous output.  It fails with a
// txstate.ErrDoubleSpend error if the outpoint is already spent by the
// transaction.
func (s *StagingTransaction) AddInput(input txstate.Input) error {
	return s.edit(txstate.AddInput{Input: input})
}

// RemoveInput removes the input spending outPoint.  It fails with a
// txstate.ErrInputNotFound error if there is no such input.
func (s *StagingTransaction) RemoveInput(outPoint wire.OutPoint) error {
	return s.edit(txstate.RemoveInput{OutPoint: outPoint})
}

// AddOutput appends an output.  The same output may be added several
// times.
func (s *StagingTransaction) AddOutput(output txstate.Output) error {
	return s.edit(txstate.AddOutput{Output: output})
}

// RemoveOutput removes the output at index.  Following outputs move down
// by one.  It fails with a txstate.ErrIndexOutOfRange error if there is no
// output at index.
func (s *StagingTransaction) RemoveOutput(index uint32) error {
	return s.edit(txstate.RemoveOutput{Index: index})
}

// RemoveOutputsFor removes every output paying to pkScript, one
// RemoveOutput operation per output.
func (s *StagingTransaction) RemoveOutputsFor(pkScript []byte) error {
	for {
		// Indexes shift after every removal, so look the outputs up
		// again each time.
		indexes := s.tx.OutputsFor(pkScript)
		if len(indexes) == 0 {
			return nil
		}
		if err := s.RemoveOutput(uint32(indexes[0])); err != nil {
			return err
		}
	}
}

// AddChange registers a change output, replacing the change with the same
// script if there is one.
func (s *StagingTransaction) AddChange(change txstate.Change) error {
	return s.edit(txstate.AddChange{Change: change})
}

// RemoveChange removes the change paying to pkScript.  It fails with a
// txstate.ErrChangeNotFound error if there is no such change.
func (s *StagingTransaction) RemoveChange(pkScript []byte) error {
	return s.edit(txstate.RemoveChange{PkScript: pkScript})
}

// Finalize locks the inputs, outputs and change.  Only signatures can be
// added afterwards.
func (s *StagingTransaction) Finalize() error {
	return s.edit(txstate.Finalize{})
}

// AddSignature attaches a witness to the transaction.
func (s *StagingTransaction) AddSignature(witness wire.TxWitness) error {
	return s.edit(txstate.Signature{Witness: witness})
}

// Close releases the journal and its lock, keeping the journal file.  The
// staged transaction cannot be used afterwards.
func (s *StagingTransaction) Close() error {
	if s.journal == nil {
		return nil
	}

	j := s.journal
	s.journal = nil
	if err := j.Close(); err != nil {
		return convertJournalErr("unable to close staged transaction",
			err)
	}

	log.Debugf("Closed staged transaction %v", s.id)

	return nil
}

// Destroy releases the journal and removes the journal file.  This cannot
// be undone.
func (s *StagingTransaction) Destroy() error {
	if s.journal == nil {
		return stagingError(ErrClosed, "staged transaction is closed",
			nil)
	}

	j := s.journal
	s.journal = nil
	if err := j.Destroy(); err != nil {
		return convertJournalErr("unable to destroy staged "+
			"transaction", err)
	}

	log.Infof("Destroyed staged transaction %v", s.id)

	return nil
}
