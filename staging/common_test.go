// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package staging

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/txstaging/stagingid"
	"github.com/btcsuite/txstaging/txstate"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// testProtocolMagic is a protocol magic that is not a bitcoin network.
const testProtocolMagic wire.BitcoinNet = 764824073

func testConfig(t *testing.T) *Config {
	t.Helper()

	return DefaultConfig(t.TempDir())
}

func testScript(t *testing.T, seed byte) []byte {
	t.Helper()

	var hash [20]byte
	for i := range hash {
		hash[i] = seed ^ byte(i)
	}
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		hash[:], &chaincfg.MainNetParams,
	)
	require.NoError(t, err)

	script, err := txstate.AddressScript(addr)
	require.NoError(t, err)

	return script
}

func testInput(t *testing.T, seed byte, value btcutil.Amount) txstate.Input {
	t.Helper()

	return txstate.Input{
		OutPoint: wire.OutPoint{
			Hash:  chainhash.DoubleHashH([]byte{seed}),
			Index: uint32(seed),
		},
		Value:    value,
		PkScript: testScript(t, seed),
		KeyPath:  txstate.KeyPath{Account: 1, Index: uint32(seed)},
	}
}

func testOutput(t *testing.T, seed byte,
	value btcutil.Amount) txstate.Output {

	t.Helper()

	return txstate.Output{PkScript: testScript(t, seed), Value: value}
}

// createTest creates a staged transaction that is closed when the test
// ends.
func createTest(t *testing.T, cfg *Config) *StagingTransaction {
	t.Helper()

	st, err := Create(cfg, testProtocolMagic)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// mockJournal is a recordJournal whose behaviour is set by each test.
type mockJournal struct {
	mock.Mock
}

func (m *mockJournal) Path() string {
	return m.Called().String(0)
}

func (m *mockJournal) Len() int {
	return m.Called().Int(0)
}

func (m *mockJournal) Append(record []byte) error {
	return m.Called(record).Error(0)
}

func (m *mockJournal) ForEach(fn func(record []byte) error) error {
	return m.Called(fn).Error(0)
}

func (m *mockJournal) Close() error {
	return m.Called().Error(0)
}

func (m *mockJournal) Destroy() error {
	return m.Called().Error(0)
}

// newMockStaged returns an empty staged transaction backed by j.
func newMockStaged(t *testing.T, j recordJournal) *StagingTransaction {
	t.Helper()

	id, err := stagingid.New()
	require.NoError(t, err)

	return &StagingTransaction{
		id:            id,
		protocolMagic: testProtocolMagic,
		tx:            txstate.New(),
		journal:       j,
	}
}
