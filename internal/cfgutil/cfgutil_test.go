// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cfgutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestFileExists checks existing, missing and nested paths.
func TestFileExists(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "journal.stx")
	require.NoError(t, os.WriteFile(file, nil, 0600))

	exists, err := FileExists(file)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = FileExists(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	require.False(t, exists)
}

// TestCleanAndExpandPath checks environment and home expansion.
func TestCleanAndExpandPath(t *testing.T) {
	t.Setenv("STAGETX_TEST_DIR", "/tmp/stagetx")

	require.Equal(t, "", CleanAndExpandPath(""))
	require.Equal(t, "/tmp/stagetx/staging",
		CleanAndExpandPath("$STAGETX_TEST_DIR/./staging/"))

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "staging"),
		CleanAndExpandPath("~/staging"))
}

// TestAmountFlag checks the accepted amount notations.
func TestAmountFlag(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		value string
		want  btcutil.Amount
		fail  bool
	}{
		{value: "0.0001", want: 10_000},
		{value: "1 BTC", want: btcutil.SatoshiPerBitcoin},
		{value: "1000sat", want: 1000},
		{value: "250 sat", want: 250},
		{value: "abc", fail: true},
		{value: "1.5sat", fail: true},
	}

	for _, tc := range testCases {
		flag := NewAmountFlag(0)
		err := flag.UnmarshalFlag(tc.value)
		if tc.fail {
			require.Error(t, err, tc.value)
			continue
		}
		require.NoError(t, err, tc.value)
		require.Equal(t, tc.want, flag.Amount, tc.value)
	}
}

// TestExplicitString checks that setting the default value still counts as
// explicit.
func TestExplicitString(t *testing.T) {
	t.Parallel()

	flag := NewExplicitString("logs")
	require.False(t, flag.ExplicitlySet())

	value, err := flag.MarshalFlag()
	require.NoError(t, err)
	require.Equal(t, "logs", value)

	require.NoError(t, flag.UnmarshalFlag("logs"))
	require.True(t, flag.ExplicitlySet())
	require.Equal(t, "logs", flag.Value)
}
