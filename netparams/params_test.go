// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

// TestTestNet4Genesis checks the testnet4 genesis block against the hash
// of the live network.
func TestTestNet4Genesis(t *testing.T) {
	t.Parallel()

	require.Equal(t, *testNet4GenesisHash,
		testNet4GenesisBlock.BlockHash())
	require.Equal(t, *testNet4GenesisMerkleRoot,
		testNet4GenesisBlock.Transactions[0].TxHash())
}

func TestByNet(t *testing.T) {
	t.Parallel()

	for _, p := range knownNets {
		require.Equal(t, p, ByNet(p.Net).UnwrapOr(nil))
	}

	require.True(t, ByNet(764824073).IsNone())
}

func TestParseProtocolMagic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    wire.BitcoinNet
		wantErr bool
	}{
		{in: "mainnet", want: wire.MainNet},
		{in: "TestNet", want: wire.TestNet3},
		{in: "testnet4", want: TestNet4},
		{in: "regtest", want: wire.TestNet},
		{in: "764824073", want: 764824073},
		{in: "0xd9b4bef9", want: wire.MainNet},
		{in: "4294967296", wantErr: true},
		{in: "moonnet", wantErr: true},
	}

	for _, test := range tests {
		got, err := ParseProtocolMagic(test.in)
		if test.wantErr {
			require.Error(t, err, test.in)
			continue
		}
		require.NoError(t, err, test.in)
		require.Equal(t, test.want, got, test.in)
	}
}
