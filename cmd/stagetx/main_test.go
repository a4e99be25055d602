// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/txstaging/staging"
	"github.com/btcsuite/txstaging/txstate"
	"github.com/stretchr/testify/require"
)

func testStaged(t *testing.T, net wire.BitcoinNet) *staging.StagingTransaction {
	t.Helper()

	st, err := staging.Create(staging.DefaultConfig(t.TempDir()), net)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return st
}

func testAddress(t *testing.T) btcutil.Address {
	t.Helper()

	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		make([]byte, 20), &chaincfg.MainNetParams,
	)
	require.NoError(t, err)
	return addr
}

func TestDecodeAddress(t *testing.T) {
	t.Parallel()

	addr := testAddress(t)
	want, err := txstate.AddressScript(addr)
	require.NoError(t, err)

	mainnet := testStaged(t, wire.MainNet)
	script, err := decodeAddress(mainnet, addr.EncodeAddress())
	require.NoError(t, err)
	require.Equal(t, want, script)

	// An address of another network is not accepted.
	testnet := testStaged(t, wire.TestNet3)
	_, err = decodeAddress(testnet, addr.EncodeAddress())
	require.Error(t, err)

	// Unknown networks take scripts.
	other := testStaged(t, 764824073)
	script, err = decodeAddress(other, "0014"+
		"0000000000000000000000000000000000000000")
	require.NoError(t, err)
	require.Equal(t, want, script)

	_, err = decodeAddress(other, addr.EncodeAddress())
	require.Error(t, err)
}

func TestPrintStaged(t *testing.T) {
	t.Parallel()

	addr := testAddress(t)
	script, err := txstate.AddressScript(addr)
	require.NoError(t, err)

	st := testStaged(t, wire.MainNet)
	require.NoError(t, st.AddInput(txstate.Input{
		OutPoint: wire.OutPoint{Hash: chainhash.DoubleHashH(nil)},
		Value:    100_000,
		PkScript: script,
	}))
	require.NoError(t, st.AddOutput(txstate.Output{
		PkScript: script, Value: 90_000,
	}))
	require.NoError(t, st.AddOutput(txstate.Output{
		PkScript: script, Value: 1,
	}))

	var b bytes.Buffer
	require.NoError(t, printStaged(&b, st, 1000))

	out := b.String()
	require.Contains(t, out, st.ID().String())
	require.Contains(t, out, "mainnet")
	require.Contains(t, out, addr.EncodeAddress())
	require.Contains(t, out, "dust")
	require.Contains(t, out, "0.00009999 BTC")
}

func TestParseAndSetDebugLevels(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{level: "debug"},
		{level: "STGX=trace,STAG=warn"},
		{level: "loud", wantErr: true},
		{level: "NOPE=debug", wantErr: true},
		{level: "STAG=loud", wantErr: true},
		{level: "STAG", wantErr: true},
		{level: "STAG=debug,warn", wantErr: true},
	}

	for _, test := range tests {
		err := parseAndSetDebugLevels(test.level)
		if test.wantErr {
			require.Error(t, err, test.level)
			continue
		}
		require.NoError(t, err, test.level)
	}

	setLogLevels("off")
}
