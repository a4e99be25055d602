// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txstate

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/stretchr/testify/require"
)

// applyAll applies ops in order and fails the test on the first error.
func applyAll(t *testing.T, tx *Transaction, ops ...Operation) {
	t.Helper()

	for _, op := range ops {
		require.NoError(t, tx.Apply(op), "apply %v", op)
	}
}

// TestApplyTransitions walks through the transition table, checking both
// the accepted and the rejected case of every operation.
func TestApplyTransitions(t *testing.T) {
	t.Parallel()

	in1 := testInput(t, 1, 100_000)
	in2 := testInput(t, 2, 50_000)
	out1 := testOutput(t, 3, 30_000)
	change := Change{PkScript: testScript(t, 4), KeyPath: KeyPath{1, 1, 0}}

	testCases := []struct {
		name    string
		setup   []Operation
		op      Operation
		wantErr ErrorCode
		ok      bool
	}{{
		name: "add input",
		op:   AddInput{Input: in1},
		ok:   true,
	}, {
		name:    "double spend",
		setup:   []Operation{AddInput{Input: in1}},
		op:      AddInput{Input: in1},
		wantErr: ErrDoubleSpend,
	}, {
		name:  "double spend with a different value",
		setup: []Operation{AddInput{Input: in1}},
		op: AddInput{Input: Input{
			OutPoint: in1.OutPoint,
			Value:    1,
		}},
		wantErr: ErrDoubleSpend,
	}, {
		name:  "remove input",
		setup: []Operation{AddInput{Input: in1}},
		op:    RemoveInput{OutPoint: in1.OutPoint},
		ok:    true,
	}, {
		name:    "remove missing input",
		setup:   []Operation{AddInput{Input: in1}},
		op:      RemoveInput{OutPoint: in2.OutPoint},
		wantErr: ErrInputNotFound,
	}, {
		name: "add output",
		op:   AddOutput{Output: out1},
		ok:   true,
	}, {
		name:  "remove output",
		setup: []Operation{AddOutput{Output: out1}},
		op:    RemoveOutput{Index: 0},
		ok:    true,
	}, {
		name:    "remove output out of range",
		setup:   []Operation{AddOutput{Output: out1}},
		op:      RemoveOutput{Index: 1},
		wantErr: ErrIndexOutOfRange,
	}, {
		name:    "remove output from empty outputs",
		op:      RemoveOutput{Index: 0},
		wantErr: ErrIndexOutOfRange,
	}, {
		name: "add change",
		op:   AddChange{Change: change},
		ok:   true,
	}, {
		name:  "remove change",
		setup: []Operation{AddChange{Change: change}},
		op:    RemoveChange{PkScript: change.PkScript},
		ok:    true,
	}, {
		name:    "remove missing change",
		op:      RemoveChange{PkScript: change.PkScript},
		wantErr: ErrChangeNotFound,
	}, {
		name: "finalize",
		op:   Finalize{},
		ok:   true,
	}, {
		name:    "finalize twice",
		setup:   []Operation{Finalize{}},
		op:      Finalize{},
		wantErr: ErrAlreadyFinalized,
	}, {
		name:  "signature after finalize",
		setup: []Operation{Finalize{}},
		op:    Signature{Witness: wire.TxWitness{{0x01}}},
		ok:    true,
	}, {
		name: "signature before finalize",
		op:   Signature{Witness: wire.TxWitness{{0x01}}},
		ok:   true,
	}, {
		name:    "add input after finalize",
		setup:   []Operation{Finalize{}},
		op:      AddInput{Input: in2},
		wantErr: ErrFinalizedImmutable,
	}, {
		name:    "remove input after finalize",
		setup:   []Operation{AddInput{Input: in1}, Finalize{}},
		op:      RemoveInput{OutPoint: in1.OutPoint},
		wantErr: ErrFinalizedImmutable,
	}, {
		name:    "add output after finalize",
		setup:   []Operation{Finalize{}},
		op:      AddOutput{Output: out1},
		wantErr: ErrFinalizedImmutable,
	}, {
		name:    "remove output after finalize",
		setup:   []Operation{AddOutput{Output: out1}, Finalize{}},
		op:      RemoveOutput{Index: 0},
		wantErr: ErrFinalizedImmutable,
	}, {
		name:    "add change after finalize",
		setup:   []Operation{Finalize{}},
		op:      AddChange{Change: change},
		wantErr: ErrFinalizedImmutable,
	}, {
		name:    "remove change after finalize",
		setup:   []Operation{AddChange{Change: change}, Finalize{}},
		op:      RemoveChange{PkScript: change.PkScript},
		wantErr: ErrFinalizedImmutable,
	}}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := New()
			applyAll(t, tx, tc.setup...)
			before := tx.Clone()

			err := tx.Apply(tc.op)
			if tc.ok {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			require.True(t, IsError(err, tc.wantErr),
				"want %v, got %v", tc.wantErr, err)

			// A rejected operation must not touch the state.
			require.Equal(t, before, tx)
		})
	}
}

// TestValidateDoesNotMutate checks that Validate never changes the state.
func TestValidateDoesNotMutate(t *testing.T) {
	t.Parallel()

	tx := New()
	before := tx.Clone()

	require.NoError(t, tx.Validate(AddInput{Input: testInput(t, 1, 10)}))
	require.NoError(t, tx.Validate(AddOutput{Output: testOutput(t, 2, 5)}))
	require.NoError(t, tx.Validate(Finalize{}))
	require.Equal(t, before, tx)
}

// TestRemoveOutputShifts checks that removing an output shifts the
// following outputs down by one.
func TestRemoveOutputShifts(t *testing.T) {
	t.Parallel()

	o1 := testOutput(t, 1, 1000)
	o2 := testOutput(t, 2, 2000)
	o3 := testOutput(t, 3, 3000)

	tx := New()
	applyAll(t, tx,
		AddOutput{Output: o1},
		AddOutput{Output: o2},
		AddOutput{Output: o3},
		RemoveOutput{Index: 1},
	)

	require.Equal(t, []Output{o1, o3}, tx.Outputs())

	applyAll(t, tx, RemoveOutput{Index: 1})
	require.Equal(t, []Output{o1}, tx.Outputs())
}

// TestDuplicateOutputs checks that the same output may be paid twice and
// that OutputsFor finds both.
func TestDuplicateOutputs(t *testing.T) {
	t.Parallel()

	o1 := testOutput(t, 1, 1000)
	o2 := testOutput(t, 2, 2000)

	tx := New()
	applyAll(t, tx,
		AddOutput{Output: o1},
		AddOutput{Output: o2},
		AddOutput{Output: o1},
	)

	require.Len(t, tx.Outputs(), 3)
	require.Equal(t, []int{0, 2}, tx.OutputsFor(o1.PkScript))
	require.Equal(t, []int{1}, tx.OutputsFor(o2.PkScript))
	require.Empty(t, tx.OutputsFor(testScript(t, 9)))
}

// TestAddChangeReplaces checks that change is keyed by script and that a
// replacement keeps its position.
func TestAddChangeReplaces(t *testing.T) {
	t.Parallel()

	c1 := Change{PkScript: testScript(t, 1), KeyPath: KeyPath{0, 1, 0}}
	c2 := Change{PkScript: testScript(t, 2), KeyPath: KeyPath{0, 1, 1}}
	c1b := Change{PkScript: c1.PkScript, KeyPath: KeyPath{0, 1, 7}}

	tx := New()
	applyAll(t, tx,
		AddChange{Change: c1},
		AddChange{Change: c2},
		AddChange{Change: c1b},
	)

	require.Equal(t, []Change{c1b, c2}, tx.Changes())

	got := tx.Change(c1.PkScript)
	require.True(t, got.IsSome())
	require.Equal(t, c1b, got.UnwrapOr(Change{}))
	require.True(t, tx.Change(testScript(t, 3)).IsNone())
}

// TestInputLookup checks the outpoint lookup of inputs.
func TestInputLookup(t *testing.T) {
	t.Parallel()

	in := testInput(t, 1, 1000)

	tx := New()
	applyAll(t, tx, AddInput{Input: in})

	require.Equal(t, in, tx.Input(in.OutPoint).UnwrapOr(Input{}))
	require.True(t, tx.Input(testOutPoint(2, 0)).IsNone())
}

// TestApplyDeterministic checks that two transactions fed the same
// operations end up equal.
func TestApplyDeterministic(t *testing.T) {
	t.Parallel()

	ops := []Operation{
		AddInput{Input: testInput(t, 1, 1000)},
		AddInput{Input: testInput(t, 2, 2000)},
		AddOutput{Output: testOutput(t, 3, 500)},
		AddChange{Change: Change{PkScript: testScript(t, 4)}},
		RemoveInput{OutPoint: testOutPoint(1, 1)},
		AddOutput{Output: testOutput(t, 5, 700)},
		RemoveOutput{Index: 0},
		RemoveChange{PkScript: testScript(t, 4)},
		Finalize{},
		Signature{Witness: wire.TxWitness{{0x01, 0x02}}},
	}

	a, b := New(), New()
	applyAll(t, a, ops...)
	applyAll(t, b, ops...)

	require.Equal(t, a, b)
	require.True(t, a.IsFinalized())
	require.Len(t, a.Inputs(), 1)
	require.Len(t, a.Outputs(), 1)
	require.Empty(t, a.Changes())
	require.Len(t, a.Signatures(), 1)
}

// TestAccessorsCopy makes sure callers cannot modify the state through the
// returned slices.
func TestAccessorsCopy(t *testing.T) {
	t.Parallel()

	in := testInput(t, 1, 1000)
	tx := New()
	applyAll(t, tx,
		AddInput{Input: in},
		Signature{Witness: wire.TxWitness{{0x01}}},
	)

	inputs := tx.Inputs()
	inputs[0].PkScript[0] ^= 0xff
	inputs[0].Value = 1

	sigs := tx.Signatures()
	sigs[0][0][0] = 0x02

	require.Equal(t, []Input{in}, tx.Inputs())
	require.Equal(t, []wire.TxWitness{{{0x01}}}, tx.Signatures())
}

// TestAccounting checks the totals, the unsigned transaction, the size
// estimate and the dust detection.
func TestAccounting(t *testing.T) {
	t.Parallel()

	tx := New()
	applyAll(t, tx,
		AddInput{Input: testInput(t, 1, 100_000)},
		AddInput{Input: testInput(t, 2, 50_000)},
		AddOutput{Output: testOutput(t, 3, 120_000)},
		AddOutput{Output: testOutput(t, 4, 1)},
	)

	require.Equal(t, btcutil.Amount(150_000), tx.TotalInput())
	require.Equal(t, btcutil.Amount(120_001), tx.TotalOutput())
	require.Equal(t, btcutil.Amount(29_999), tx.Fee())

	msgTx := tx.UnsignedTx()
	require.Len(t, msgTx.TxIn, 2)
	require.Len(t, msgTx.TxOut, 2)
	require.Equal(t, testOutPoint(1, 1), msgTx.TxIn[0].PreviousOutPoint)
	require.Equal(t, int64(120_000), msgTx.TxOut[0].Value)

	size := tx.EstimateVirtualSize()
	require.Greater(t, size, msgTx.SerializeSizeStripped())

	applyAll(t, tx, AddChange{Change: Change{PkScript: testScript(t, 5)}})
	require.Greater(t, tx.EstimateVirtualSize(), size)

	require.Equal(t, []int{1}, tx.DustOutputs(txrules.DefaultRelayFeePerKb))
}
