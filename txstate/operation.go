// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txstate

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// OpTag is the discriminant written in front of every operation record.
// Tags are part of the journal format: new operations must only be added
// together with a new journal magic.
type OpTag uint8

// Known operation tags.
const (
	TagAddInput     OpTag = 1
	TagRemoveInput  OpTag = 2
	TagAddOutput    OpTag = 3
	TagRemoveOutput OpTag = 4
	TagAddChange    OpTag = 5
	TagRemoveChange OpTag = 6
	TagFinalize     OpTag = 7
	TagSignature    OpTag = 8
)

var tagStrings = map[OpTag]string{
	TagAddInput:     "AddInput",
	TagRemoveInput:  "RemoveInput",
	TagAddOutput:    "AddOutput",
	TagRemoveOutput: "RemoveOutput",
	TagAddChange:    "AddChange",
	TagRemoveChange: "RemoveChange",
	TagFinalize:     "Finalize",
	TagSignature:    "Signature",
}

// String returns the name of the operation the tag identifies.
func (t OpTag) String() string {
	if s, ok := tagStrings[t]; ok {
		return s
	}
	return fmt.Sprintf("OpTag(%d)", uint8(t))
}

func (t OpTag) known() bool {
	_, ok := tagStrings[t]
	return ok
}

// Operation is a single edit of a staged transaction.  Operations are
// commands: they carry no ordering information, their order is the order
// in which they are applied.
//
// The set of operations is closed; the concrete types are AddInput,
// RemoveInput, AddOutput, RemoveOutput, AddChange, RemoveChange, Finalize
// and Signature.
type Operation interface {
	// Tag returns the record discriminant of the operation.
	Tag() OpTag

	fmt.Stringer

	isOperation()
}

// AddInput spends a previous output.
type AddInput struct {
	Input Input
}

// RemoveInput removes the input spending OutPoint.
type RemoveInput struct {
	OutPoint wire.OutPoint
}

// AddOutput appends a payment.
type AddOutput struct {
	Output Output
}

// RemoveOutput removes the output at Index.  Subsequent outputs shift down
// by one.
type RemoveOutput struct {
	Index uint32
}

// AddChange registers a change output, replacing any change with the same
// script.
type AddChange struct {
	Change Change
}

// RemoveChange removes the change paying to PkScript.
type RemoveChange struct {
	PkScript []byte
}

// Finalize locks the inputs, outputs and change of the transaction.
type Finalize struct{}

// Signature attaches a witness to the transaction.
type Signature struct {
	Witness wire.TxWitness
}

func (AddInput) Tag() OpTag     { return TagAddInput }
func (RemoveInput) Tag() OpTag  { return TagRemoveInput }
func (AddOutput) Tag() OpTag    { return TagAddOutput }
func (RemoveOutput) Tag() OpTag { return TagRemoveOutput }
func (AddChange) Tag() OpTag    { return TagAddChange }
func (RemoveChange) Tag() OpTag { return TagRemoveChange }
func (Finalize) Tag() OpTag     { return TagFinalize }
func (Signature) Tag() OpTag    { return TagSignature }

func (AddInput) isOperation()     {}
func (RemoveInput) isOperation()  {}
func (AddOutput) isOperation()    {}
func (RemoveOutput) isOperation() {}
func (AddChange) isOperation()    {}
func (RemoveChange) isOperation() {}
func (Finalize) isOperation()     {}
func (Signature) isOperation()    {}

func (op AddInput) String() string {
	return fmt.Sprintf("AddInput(%v, %v)", op.Input.OutPoint,
		op.Input.Value)
}

func (op RemoveInput) String() string {
	return fmt.Sprintf("RemoveInput(%v)", op.OutPoint)
}

func (op AddOutput) String() string {
	return fmt.Sprintf("AddOutput(%x, %v)", op.Output.PkScript,
		op.Output.Value)
}

func (op RemoveOutput) String() string {
	return fmt.Sprintf("RemoveOutput(%d)", op.Index)
}

func (op AddChange) String() string {
	return fmt.Sprintf("AddChange(%x, %v)", op.Change.PkScript,
		op.Change.KeyPath)
}

func (op RemoveChange) String() string {
	return fmt.Sprintf("RemoveChange(%x)", op.PkScript)
}

func (Finalize) String() string {
	return "Finalize"
}

func (op Signature) String() string {
	items := make([]string, len(op.Witness))
	for i, item := range op.Witness {
		items[i] = hex.EncodeToString(item)
	}
	return fmt.Sprintf("Signature(%v)", items)
}
