// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/txstaging/netparams"
	"github.com/btcsuite/txstaging/staging"
)

// scriptRenderer renders output scripts as addresses of a network when
// its parameters are known and as hex otherwise.
type scriptRenderer struct {
	params *netparams.Params
}

func (r scriptRenderer) render(script []byte) string {
	if r.params != nil {
		_, addrs, _, err := txscript.ExtractPkScriptAddrs(
			script, r.params.Params,
		)
		if err == nil && len(addrs) == 1 {
			return addrs[0].EncodeAddress()
		}
	}
	return hex.EncodeToString(script)
}

func (r scriptRenderer) network(st *staging.StagingTransaction) string {
	if r.params == nil {
		return fmt.Sprintf("unknown (%d)", uint32(st.ProtocolMagic()))
	}
	return fmt.Sprintf("%s (%v)", r.params.Name, st.ProtocolMagic())
}

// printStaged writes a summary of st to w.
func printStaged(w io.Writer, st *staging.StagingTransaction,
	relayFee btcutil.Amount) error {

	r := scriptRenderer{
		params: netparams.ByNet(st.ProtocolMagic()).UnwrapOr(nil),
	}
	tx := st.Transaction()

	state := "open"
	if tx.IsFinalized() {
		state = "finalized"
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%v\n", st.ID())
	fmt.Fprintf(tw, "network:\t%s\n", r.network(st))
	fmt.Fprintf(tw, "state:\t%s\n", state)
	fmt.Fprintf(tw, "operations:\t%d\n", len(st.Operations()))

	fmt.Fprintln(tw, "\ninputs:")
	for i, in := range tx.Inputs() {
		fmt.Fprintf(tw, "  %d\t%v\t%v\t%s\t%v\n", i, in.OutPoint,
			in.Value, r.render(in.PkScript), in.KeyPath)
	}

	dust := tx.DustOutputs(relayFee)
	fmt.Fprintln(tw, "\noutputs:")
	for i, out := range tx.Outputs() {
		note := ""
		if slices.Contains(dust, i) {
			note = "dust"
		}
		fmt.Fprintf(tw, "  %d\t%s\t%v\t%s\n", i, r.render(out.PkScript),
			out.Value, note)
	}

	fmt.Fprintln(tw, "\nchange:")
	for _, c := range tx.Changes() {
		fmt.Fprintf(tw, "  %s\t%v\n", r.render(c.PkScript), c.KeyPath)
	}

	fmt.Fprintf(tw, "\nsignatures:\t%d\n", len(tx.Signatures()))

	vsize := tx.EstimateVirtualSize()
	fee := tx.Fee()
	fmt.Fprintf(tw, "total input:\t%v\n", tx.TotalInput())
	fmt.Fprintf(tw, "total output:\t%v\n", tx.TotalOutput())
	fmt.Fprintf(tw, "fee:\t%v\n", fee)
	fmt.Fprintf(tw, "estimated vsize:\t%d vbytes\n", vsize)
	if vsize > 0 {
		fmt.Fprintf(tw, "fee rate:\t%.2f sat/vbyte\n",
			float64(fee)/float64(vsize))
	}

	return tw.Flush()
}
