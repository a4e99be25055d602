// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package staging

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/txstaging/stagingid"
	"github.com/btcsuite/txstaging/txstate"
)

// Export is a portable snapshot of a staged transaction.  It holds the
// resulting state, not the operations that produced it.
type Export struct {
	ID stagingid.ID

	// Magic is the hex encoding of the journal magic the snapshot was
	// taken from.
	Magic string

	ProtocolMagic wire.BitcoinNet
	Transaction   txstate.Snapshot
}

// Export returns a snapshot of the staged transaction.
func (s *StagingTransaction) Export() *Export {
	return &Export{
		ID:            s.id,
		Magic:         hex.EncodeToString(MagicTransactionV1),
		ProtocolMagic: s.protocolMagic,
		Transaction:   s.tx.Snapshot(),
	}
}

// Import creates a staged transaction with the id of e and rebuilds its
// state by issuing one AddInput per input, one AddOutput per output and a
// Finalize when the snapshot is finalized.  Every operation goes through
// the same checks as an interactive edit.
//
// Change and signatures of the snapshot are not imported.  On failure no
// journal is left behind.
func Import(cfg *Config, e *Export) (*StagingTransaction, error) {
	magic, err := hex.DecodeString(e.Magic)
	if err != nil || string(magic) != string(MagicTransactionV1) {
		if err != nil {
			magic = []byte(e.Magic)
		}
		return nil, StagingError{
			ErrorCode:   ErrInvalidMagic,
			Description: "invalid export magic",
			Magic:       magic,
			Err:         err,
		}
	}

	id := e.ID
	if id.IsZero() {
		id, err = stagingid.New()
		if err != nil {
			return nil, err
		}
	}

	log.Debugf("Importing staged transaction %v (%d inputs, %d outputs)",
		id, len(e.Transaction.Inputs), len(e.Transaction.Outputs))

	st, err := create(cfg, e.ProtocolMagic, id)
	if err != nil {
		return nil, err
	}

	if err := st.replaySnapshot(&e.Transaction); err != nil {
		if dErr := st.Destroy(); dErr != nil {
			log.Errorf("Unable to remove staged transaction %v: %v",
				id, dErr)
		}
		return nil, err
	}

	return st, nil
}

func (s *StagingTransaction) replaySnapshot(snap *txstate.Snapshot) error {
	for _, input := range snap.Inputs {
		if err := s.AddInput(input); err != nil {
			return err
		}
	}
	for _, output := range snap.Outputs {
		if err := s.AddOutput(output); err != nil {
			return err
		}
	}
	if snap.Finalized {
		return s.Finalize()
	}
	return nil
}

// jsonExport is the JSON rendering of an Export.
type jsonExport struct {
	ID            stagingid.ID    `json:"id"`
	Magic         string          `json:"magic"`
	ProtocolMagic uint32          `json:"protocol_magic"`
	Transaction   jsonTransaction `json:"transaction"`
}

type jsonTransaction struct {
	Inputs     []jsonInput  `json:"inputs"`
	Outputs    []jsonOutput `json:"outputs"`
	Change     []jsonChange `json:"change"`
	Finalized  bool         `json:"finalized"`
	Signatures [][]string   `json:"signatures"`
}

type jsonKeyPath struct {
	Account uint32 `json:"account"`
	Branch  uint32 `json:"branch"`
	Index   uint32 `json:"index"`
}

type jsonInput struct {
	OutPoint string      `json:"outpoint"`
	Value    int64       `json:"value"`
	PkScript string      `json:"pk_script"`
	KeyPath  jsonKeyPath `json:"key_path"`
}

type jsonOutput struct {
	PkScript string `json:"pk_script"`
	Value    int64  `json:"value"`
}

type jsonChange struct {
	PkScript string      `json:"pk_script"`
	KeyPath  jsonKeyPath `json:"key_path"`
}

// MarshalJSON renders the export with outpoints as hash:index and scripts
// and witness items as hex.
func (e *Export) MarshalJSON() ([]byte, error) {
	snap := &e.Transaction
	out := jsonExport{
		ID:            e.ID,
		Magic:         e.Magic,
		ProtocolMagic: uint32(e.ProtocolMagic),
		Transaction: jsonTransaction{
			Inputs:     make([]jsonInput, 0, len(snap.Inputs)),
			Outputs:    make([]jsonOutput, 0, len(snap.Outputs)),
			Change:     make([]jsonChange, 0, len(snap.Changes)),
			Finalized:  snap.Finalized,
			Signatures: make([][]string, 0, len(snap.Signatures)),
		},
	}

	for _, in := range snap.Inputs {
		out.Transaction.Inputs = append(out.Transaction.Inputs,
			jsonInput{
				OutPoint: in.OutPoint.String(),
				Value:    int64(in.Value),
				PkScript: hex.EncodeToString(in.PkScript),
				KeyPath:  jsonKeyPath(in.KeyPath),
			})
	}
	for _, o := range snap.Outputs {
		out.Transaction.Outputs = append(out.Transaction.Outputs,
			jsonOutput{
				PkScript: hex.EncodeToString(o.PkScript),
				Value:    int64(o.Value),
			})
	}
	for _, c := range snap.Changes {
		out.Transaction.Change = append(out.Transaction.Change,
			jsonChange{
				PkScript: hex.EncodeToString(c.PkScript),
				KeyPath:  jsonKeyPath(c.KeyPath),
			})
	}
	for _, w := range snap.Signatures {
		items := make([]string, 0, len(w))
		for _, item := range w {
			items = append(items, hex.EncodeToString(item))
		}
		out.Transaction.Signatures = append(
			out.Transaction.Signatures, items,
		)
	}

	return json.Marshal(&out)
}

// UnmarshalJSON parses the rendering produced by MarshalJSON.
func (e *Export) UnmarshalJSON(b []byte) error {
	var in jsonExport
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	snap := txstate.Snapshot{Finalized: in.Transaction.Finalized}
	for i, ji := range in.Transaction.Inputs {
		op, err := txstate.ParseOutPoint(ji.OutPoint)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		script, err := decodeScript(ji.PkScript)
		if err != nil {
			return fmt.Errorf("input %d: %w", i, err)
		}
		snap.Inputs = append(snap.Inputs, txstate.Input{
			OutPoint: op,
			Value:    btcutil.Amount(ji.Value),
			PkScript: script,
			KeyPath:  txstate.KeyPath(ji.KeyPath),
		})
	}
	for i, jo := range in.Transaction.Outputs {
		script, err := decodeScript(jo.PkScript)
		if err != nil {
			return fmt.Errorf("output %d: %w", i, err)
		}
		snap.Outputs = append(snap.Outputs, txstate.Output{
			PkScript: script,
			Value:    btcutil.Amount(jo.Value),
		})
	}
	for i, jc := range in.Transaction.Change {
		script, err := decodeScript(jc.PkScript)
		if err != nil {
			return fmt.Errorf("change %d: %w", i, err)
		}
		snap.Changes = append(snap.Changes, txstate.Change{
			PkScript: script,
			KeyPath:  txstate.KeyPath(jc.KeyPath),
		})
	}
	for i, items := range in.Transaction.Signatures {
		witness := make(wire.TxWitness, 0, len(items))
		for _, item := range items {
			b, err := hex.DecodeString(item)
			if err != nil {
				return fmt.Errorf("signature %d: %w", i, err)
			}
			witness = append(witness, b)
		}
		snap.Signatures = append(snap.Signatures, witness)
	}

	*e = Export{
		ID:            in.ID,
		Magic:         in.Magic,
		ProtocolMagic: wire.BitcoinNet(in.ProtocolMagic),
		Transaction:   snap,
	}

	return nil
}

func decodeScript(s string) ([]byte, error) {
	script, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(script) == 0 {
		return nil, nil
	}
	return script, nil
}
