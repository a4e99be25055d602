// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txstate

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// testScript returns a P2WPKH script paying to a key hash derived from
// seed.
func testScript(t *testing.T, seed byte) []byte {
	t.Helper()

	var hash [20]byte
	for i := range hash {
		hash[i] = seed + byte(i)
	}
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		hash[:], &chaincfg.MainNetParams,
	)
	require.NoError(t, err)

	script, err := AddressScript(addr)
	require.NoError(t, err)

	return script
}

// testOutPoint returns a distinct outpoint for every seed.
func testOutPoint(seed byte, index uint32) wire.OutPoint {
	return wire.OutPoint{
		Hash:  chainhash.DoubleHashH([]byte{seed}),
		Index: index,
	}
}

func testInput(t *testing.T, seed byte, value btcutil.Amount) Input {
	t.Helper()

	return Input{
		OutPoint: testOutPoint(seed, uint32(seed)),
		Value:    value,
		PkScript: testScript(t, seed),
		KeyPath:  KeyPath{Account: 0, Branch: 0, Index: uint32(seed)},
	}
}

func testOutput(t *testing.T, seed byte, value btcutil.Amount) Output {
	t.Helper()

	return Output{PkScript: testScript(t, seed), Value: value}
}
