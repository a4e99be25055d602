// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txstate

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Transaction is the state of a staged transaction derived from the
// operations applied to it.  It can only be modified through Apply, which
// enforces that:
//
//   - no two inputs spend the same outpoint,
//   - inputs, outputs and change are immutable once finalized,
//   - removals target an existing input, output or change,
//   - the transaction is finalized at most once.
//
// Signatures are not validated and may be added at any time.
type Transaction struct {
	inputs     []Input
	outputs    []Output
	changes    []Change
	finalized  bool
	signatures []wire.TxWitness
}

// New returns an empty transaction.
func New() *Transaction {
	return &Transaction{}
}

// Validate checks that op can be applied to the transaction without
// modifying it.  A nil error guarantees that a following Apply of the same
// operation succeeds.
func (t *Transaction) Validate(op Operation) error {
	switch op := op.(type) {
	case AddInput:
		if err := t.checkMutable(op); err != nil {
			return err
		}
		if t.inputIndex(op.Input.OutPoint) >= 0 {
			return txError(ErrDoubleSpend, fmt.Sprintf("outpoint %v "+
				"is already spent by the transaction",
				op.Input.OutPoint))
		}

	case RemoveInput:
		if err := t.checkMutable(op); err != nil {
			return err
		}
		if t.inputIndex(op.OutPoint) < 0 {
			return txError(ErrInputNotFound, fmt.Sprintf("no input "+
				"spends outpoint %v", op.OutPoint))
		}

	case AddOutput:
		return t.checkMutable(op)

	case RemoveOutput:
		if err := t.checkMutable(op); err != nil {
			return err
		}
		if int(op.Index) >= len(t.outputs) {
			return txError(ErrIndexOutOfRange, fmt.Sprintf("output "+
				"index %d out of range, transaction has %d "+
				"outputs", op.Index, len(t.outputs)))
		}

	case AddChange:
		return t.checkMutable(op)

	case RemoveChange:
		if err := t.checkMutable(op); err != nil {
			return err
		}
		if t.changeIndex(op.PkScript) < 0 {
			return txError(ErrChangeNotFound, fmt.Sprintf("no change "+
				"to script %x", op.PkScript))
		}

	case Finalize:
		if t.finalized {
			return txError(ErrAlreadyFinalized, "transaction is "+
				"already finalized")
		}

	case Signature:

	default:
		return txError(ErrUnknownOperation, fmt.Sprintf("unknown "+
			"operation %T", op))
	}

	return nil
}

// Apply validates op and applies it.  On error the transaction is left
// unchanged.
func (t *Transaction) Apply(op Operation) error {
	if err := t.Validate(op); err != nil {
		return err
	}

	switch op := op.(type) {
	case AddInput:
		t.inputs = append(t.inputs, op.Input.clone())

	case RemoveInput:
		i := t.inputIndex(op.OutPoint)
		t.inputs = slices.Delete(t.inputs, i, i+1)

	case AddOutput:
		t.outputs = append(t.outputs, op.Output.clone())

	case RemoveOutput:
		i := int(op.Index)
		t.outputs = slices.Delete(t.outputs, i, i+1)

	case AddChange:
		// Replacing keeps the position of the first insertion so
		// the order only depends on the sequence of operations.
		if i := t.changeIndex(op.Change.PkScript); i >= 0 {
			t.changes[i] = op.Change.clone()
		} else {
			t.changes = append(t.changes, op.Change.clone())
		}

	case RemoveChange:
		i := t.changeIndex(op.PkScript)
		t.changes = slices.Delete(t.changes, i, i+1)

	case Finalize:
		t.finalized = true

	case Signature:
		t.signatures = append(t.signatures, cloneWitness(op.Witness))
	}

	return nil
}

func (t *Transaction) checkMutable(op Operation) error {
	if t.finalized {
		return txError(ErrFinalizedImmutable, fmt.Sprintf("cannot "+
			"apply %v to a finalized transaction", op.Tag()))
	}
	return nil
}

func (t *Transaction) inputIndex(outPoint wire.OutPoint) int {
	return slices.IndexFunc(t.inputs, func(in Input) bool {
		return in.OutPoint == outPoint
	})
}

func (t *Transaction) changeIndex(pkScript []byte) int {
	return slices.IndexFunc(t.changes, func(c Change) bool {
		return bytes.Equal(c.PkScript, pkScript)
	})
}

// IsFinalized returns whether the transaction has been finalized.
func (t *Transaction) IsFinalized() bool {
	return t.finalized
}

// Inputs returns a copy of the inputs in insertion order.
func (t *Transaction) Inputs() []Input {
	inputs := make([]Input, len(t.inputs))
	for i, in := range t.inputs {
		inputs[i] = in.clone()
	}
	return inputs
}

// Outputs returns a copy of the outputs in order.
func (t *Transaction) Outputs() []Output {
	outputs := make([]Output, len(t.outputs))
	for i, out := range t.outputs {
		outputs[i] = out.clone()
	}
	return outputs
}

// Changes returns a copy of the change entries.
func (t *Transaction) Changes() []Change {
	changes := make([]Change, len(t.changes))
	for i, c := range t.changes {
		changes[i] = c.clone()
	}
	return changes
}

// Signatures returns a copy of the attached witnesses in order.
func (t *Transaction) Signatures() []wire.TxWitness {
	sigs := make([]wire.TxWitness, len(t.signatures))
	for i, w := range t.signatures {
		sigs[i] = cloneWitness(w)
	}
	return sigs
}

// Input returns the input spending outPoint, if any.
func (t *Transaction) Input(outPoint wire.OutPoint) fn.Option[Input] {
	i := t.inputIndex(outPoint)
	if i < 0 {
		return fn.None[Input]()
	}
	return fn.Some(t.inputs[i].clone())
}

// Change returns the change paying to pkScript, if any.
func (t *Transaction) Change(pkScript []byte) fn.Option[Change] {
	i := t.changeIndex(pkScript)
	if i < 0 {
		return fn.None[Change]()
	}
	return fn.Some(t.changes[i].clone())
}

// OutputsFor returns the indexes of the outputs paying to pkScript.
func (t *Transaction) OutputsFor(pkScript []byte) []int {
	var indexes []int
	for i, out := range t.outputs {
		if bytes.Equal(out.PkScript, pkScript) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// Clone returns a deep copy of the transaction.
func (t *Transaction) Clone() *Transaction {
	c := &Transaction{finalized: t.finalized}
	if t.inputs != nil {
		c.inputs = t.Inputs()
	}
	if t.outputs != nil {
		c.outputs = t.Outputs()
	}
	if t.changes != nil {
		c.changes = t.Changes()
	}
	if t.signatures != nil {
		c.signatures = t.Signatures()
	}
	return c
}

// TotalInput returns the sum of the values of the inputs.
func (t *Transaction) TotalInput() btcutil.Amount {
	var total btcutil.Amount
	for _, in := range t.inputs {
		total += in.Value
	}
	return total
}

// TotalOutput returns the sum of the values of the outputs.  Change is
// not included as its value is not known yet.
func (t *Transaction) TotalOutput() btcutil.Amount {
	var total btcutil.Amount
	for _, out := range t.outputs {
		total += out.Value
	}
	return total
}

// Fee returns the value left over by the outputs.  Until change is
// assigned, this is both the fee and the value available for change.  It
// is negative when the outputs spend more than the inputs provide.
func (t *Transaction) Fee() btcutil.Amount {
	return t.TotalInput() - t.TotalOutput()
}

// Snapshot is the materialized state of a Transaction, without the history
// of operations that produced it.
type Snapshot struct {
	Inputs     []Input
	Outputs    []Output
	Changes    []Change
	Finalized  bool
	Signatures []wire.TxWitness
}

// Snapshot returns a deep copy of the current state.
func (t *Transaction) Snapshot() Snapshot {
	return Snapshot{
		Inputs:     t.Inputs(),
		Outputs:    t.Outputs(),
		Changes:    t.Changes(),
		Finalized:  t.finalized,
		Signatures: t.Signatures(),
	}
}
