// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txstate

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/btcwallet/wallet/txsizes"
)

// UnsignedTx returns the wire transaction spending the inputs and paying
// the outputs, in order.  Change outputs are not included since their
// values are not known, and witnesses are left empty.
func (t *Transaction) UnsignedTx() *wire.MsgTx {
	tx := wire.NewMsgTx(wire.TxVersion)
	for _, in := range t.inputs {
		outPoint := in.OutPoint
		tx.AddTxIn(wire.NewTxIn(&outPoint, nil, nil))
	}
	for _, out := range t.outputs {
		tx.AddTxOut(out.clone().TxOut())
	}
	return tx
}

// EstimateVirtualSize returns a worst case estimate of the virtual size of
// the signed transaction, including one output per change entry.  The
// redeem size of every input is derived from the script it spends; unknown
// script types are counted as P2PKH.
func (t *Transaction) EstimateVirtualSize() int {
	var p2pkh, p2tr, p2wpkh, nested int
	for _, in := range t.inputs {
		switch {
		case txscript.IsPayToTaproot(in.PkScript):
			p2tr++
		case txscript.IsPayToWitnessPubKeyHash(in.PkScript):
			p2wpkh++
		case txscript.IsPayToScriptHash(in.PkScript):
			nested++
		default:
			p2pkh++
		}
	}

	txOuts := make([]*wire.TxOut, 0, len(t.outputs)+len(t.changes))
	for _, out := range t.outputs {
		txOuts = append(txOuts, out.TxOut())
	}
	for _, c := range t.changes {
		txOuts = append(txOuts, wire.NewTxOut(0, c.PkScript))
	}

	return txsizes.EstimateVirtualSize(
		p2pkh, p2tr, p2wpkh, nested, txOuts, 0,
	)
}

// DustOutputs returns the indexes of the outputs that the relay policy
// given by relayFeePerKb considers dust.
func (t *Transaction) DustOutputs(relayFeePerKb btcutil.Amount) []int {
	var dust []int
	for i, out := range t.outputs {
		if txrules.IsDustOutput(out.TxOut(), relayFeePerKb) {
			dust = append(dust, i)
		}
	}
	return dust
}
