// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txstate

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// KeyPath is the wallet derivation path of the key controlling an input or
// a change output.
type KeyPath struct {
	Account uint32
	Branch  uint32
	Index   uint32
}

// String returns the path in account/branch/index form.
func (k KeyPath) String() string {
	return fmt.Sprintf("%d/%d/%d", k.Account, k.Branch, k.Index)
}

// Input is a previous output spent by the staged transaction.  Inputs are
// unique by OutPoint.
type Input struct {
	OutPoint wire.OutPoint
	Value    btcutil.Amount
	PkScript []byte
	KeyPath  KeyPath
}

// Output is a payment made by the staged transaction.  The same script may
// be paid more than once.
type Output struct {
	PkScript []byte
	Value    btcutil.Amount
}

// TxOut returns the wire form of the output.
func (o Output) TxOut() *wire.TxOut {
	return wire.NewTxOut(int64(o.Value), o.PkScript)
}

// Change is an output returning value to the spender.  Changes are unique
// by PkScript; the value is determined when the transaction is completed.
type Change struct {
	PkScript []byte
	KeyPath  KeyPath
}

// AddressScript returns the output script paying to addr.  Scripts are the
// address representation used by every operation of this package.
func AddressScript(addr btcutil.Address) ([]byte, error) {
	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("unable to create script for %v: %w",
			addr, err)
	}
	return script, nil
}

// ParseOutPoint parses the hash:index form produced by wire.OutPoint.String.
func ParseOutPoint(s string) (wire.OutPoint, error) {
	hashStr, indexStr, ok := strings.Cut(s, ":")
	if !ok {
		return wire.OutPoint{}, fmt.Errorf("outpoint %q is not in "+
			"hash:index form", s)
	}
	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return wire.OutPoint{}, fmt.Errorf("outpoint %q: %w", s, err)
	}
	index, err := strconv.ParseUint(indexStr, 10, 32)
	if err != nil {
		return wire.OutPoint{}, fmt.Errorf("outpoint %q: %w", s, err)
	}

	return wire.OutPoint{Hash: *hash, Index: uint32(index)}, nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return bytes.Clone(b)
}

func (i Input) clone() Input {
	i.PkScript = cloneBytes(i.PkScript)
	return i
}

func (o Output) clone() Output {
	o.PkScript = cloneBytes(o.PkScript)
	return o
}

func (c Change) clone() Change {
	c.PkScript = cloneBytes(c.PkScript)
	return c
}

func cloneWitness(w wire.TxWitness) wire.TxWitness {
	if w == nil {
		return nil
	}
	c := make(wire.TxWitness, len(w))
	for i, item := range w {
		c[i] = cloneBytes(item)
	}
	return c
}
