// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcwallet/wallet/txrules"
	"github.com/btcsuite/txstaging/internal/cfgutil"
	"github.com/btcsuite/txstaging/netparams"
	"github.com/btcsuite/txstaging/staging"
	"github.com/btcsuite/txstaging/txstate"
)

type command struct {
	name  string
	short string
	long  string
	data  interface{}
}

var commands = []command{{
	name:  "create",
	short: "Create a staged transaction",
	long: "Create an empty staged transaction for a network and print " +
		"its id.",
	data: &createCmd{Net: "mainnet"},
}, {
	name:  "list",
	short: "List staged transactions",
	data:  &listCmd{},
}, {
	name:  "show",
	short: "Show a staged transaction",
	long: "Print the inputs, outputs, change and signatures of a staged " +
		"transaction together with its fee and estimated size.",
	data: &showCmd{
		RelayFee: cfgutil.NewAmountFlag(txrules.DefaultRelayFeePerKb),
	},
}, {
	name:  "addinput",
	short: "Spend a previous output",
	data:  &addInputCmd{},
}, {
	name:  "addoutput",
	short: "Pay to an address",
	data:  &addOutputCmd{},
}, {
	name:  "removeoutputs",
	short: "Remove every output paying to an address",
	data:  &removeOutputsCmd{},
}, {
	name:  "finalize",
	short: "Finalize a staged transaction",
	long: "Finalize a staged transaction.  Afterwards only signatures " +
		"can be added.",
	data: &finalizeCmd{},
}, {
	name:  "export",
	short: "Export a staged transaction as JSON",
	data:  &exportCmd{},
}, {
	name:  "import",
	short: "Import a staged transaction from JSON",
	long: "Create a staged transaction from an export.  Change and " +
		"signatures of the export are not imported.",
	data: &importCmd{},
}, {
	name:  "destroy",
	short: "Remove a staged transaction",
	data:  &destroyCmd{},
}}

type idArg struct {
	ID string `positional-arg-name:"id" required:"yes"`
}

type createCmd struct {
	Net string `long:"net" description:"Network name {mainnet, testnet, testnet4, regtest, simnet, signet} or 32-bit protocol magic"`
}

func (c *createCmd) Execute([]string) error {
	magic, err := netparams.ParseProtocolMagic(c.Net)
	if err != nil {
		return err
	}

	st, err := staging.Create(stagingConfig(), magic)
	if err != nil {
		return err
	}
	fmt.Println(st.ID())

	return st.Close()
}

type listCmd struct{}

func (*listCmd) Execute([]string) error {
	ids, err := staging.List(stagingConfig())
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	return nil
}

type showCmd struct {
	RelayFee *cfgutil.AmountFlag `long:"relayfee" description:"Relay fee per kilobyte used to detect dust outputs"`
	Args     idArg               `positional-args:"yes"`
}

func (c *showCmd) Execute([]string) error {
	return withStaged(c.Args.ID, func(st *staging.StagingTransaction) error {
		return printStaged(os.Stdout, st, c.RelayFee.Amount)
	})
}

type addInputCmd struct {
	Account uint32 `long:"account" description:"Account of the key spending the output"`
	Branch  uint32 `long:"branch" description:"Branch of the key spending the output"`
	Index   uint32 `long:"index" description:"Index of the key spending the output"`
	Args    struct {
		ID       string             `positional-arg-name:"id" required:"yes"`
		OutPoint string             `positional-arg-name:"outpoint" required:"yes"`
		Amount   cfgutil.AmountFlag `positional-arg-name:"amount" required:"yes"`
		Address  string             `positional-arg-name:"address" required:"yes"`
	} `positional-args:"yes"`
}

func (c *addInputCmd) Execute([]string) error {
	outPoint, err := txstate.ParseOutPoint(c.Args.OutPoint)
	if err != nil {
		return err
	}

	return withStaged(c.Args.ID, func(st *staging.StagingTransaction) error {
		script, err := decodeAddress(st, c.Args.Address)
		if err != nil {
			return err
		}
		return st.AddInput(txstate.Input{
			OutPoint: outPoint,
			Value:    c.Args.Amount.Amount,
			PkScript: script,
			KeyPath: txstate.KeyPath{
				Account: c.Account,
				Branch:  c.Branch,
				Index:   c.Index,
			},
		})
	})
}

type addOutputCmd struct {
	Args struct {
		ID      string             `positional-arg-name:"id" required:"yes"`
		Address string             `positional-arg-name:"address" required:"yes"`
		Amount  cfgutil.AmountFlag `positional-arg-name:"amount" required:"yes"`
	} `positional-args:"yes"`
}

func (c *addOutputCmd) Execute([]string) error {
	return withStaged(c.Args.ID, func(st *staging.StagingTransaction) error {
		script, err := decodeAddress(st, c.Args.Address)
		if err != nil {
			return err
		}
		return st.AddOutput(txstate.Output{
			PkScript: script,
			Value:    c.Args.Amount.Amount,
		})
	})
}

type removeOutputsCmd struct {
	Args struct {
		ID      string `positional-arg-name:"id" required:"yes"`
		Address string `positional-arg-name:"address" required:"yes"`
	} `positional-args:"yes"`
}

func (c *removeOutputsCmd) Execute([]string) error {
	return withStaged(c.Args.ID, func(st *staging.StagingTransaction) error {
		script, err := decodeAddress(st, c.Args.Address)
		if err != nil {
			return err
		}
		return st.RemoveOutputsFor(script)
	})
}

type finalizeCmd struct {
	Args idArg `positional-args:"yes"`
}

func (c *finalizeCmd) Execute([]string) error {
	return withStaged(c.Args.ID, func(st *staging.StagingTransaction) error {
		return st.Finalize()
	})
}

type exportCmd struct {
	Output string `short:"o" long:"output" description:"Write the export to this file instead of stdout"`
	Args   idArg  `positional-args:"yes"`
}

func (c *exportCmd) Execute([]string) error {
	var export *staging.Export
	err := withStaged(c.Args.ID, func(st *staging.StagingTransaction) error {
		export = st.Export()
		return nil
	})
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	if c.Output == "" {
		_, err = os.Stdout.Write(b)
		return err
	}
	return os.WriteFile(cfgutil.CleanAndExpandPath(c.Output), b, 0600)
}

type importCmd struct {
	Args struct {
		File string `positional-arg-name:"file" description:"Export to import, - for stdin" required:"yes"`
	} `positional-args:"yes"`
}

func (c *importCmd) Execute([]string) error {
	var (
		b   []byte
		err error
	)
	if c.Args.File == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(cfgutil.CleanAndExpandPath(c.Args.File))
	}
	if err != nil {
		return err
	}

	var export staging.Export
	if err := json.Unmarshal(b, &export); err != nil {
		return fmt.Errorf("invalid export: %w", err)
	}

	st, err := staging.Import(stagingConfig(), &export)
	if err != nil {
		return err
	}
	fmt.Println(st.ID())

	return st.Close()
}

type destroyCmd struct {
	Args idArg `positional-args:"yes"`
}

func (c *destroyCmd) Execute([]string) error {
	return withStaged(c.Args.ID, func(st *staging.StagingTransaction) error {
		return st.Destroy()
	})
}

// decodeAddress returns the output script of addr on the network of st.
// Networks without known parameters only accept hex encoded scripts.
func decodeAddress(st *staging.StagingTransaction, addr string) ([]byte,
	error) {

	if p := netparams.ByNet(st.ProtocolMagic()).UnwrapOr(nil); p != nil {
		a, err := btcutil.DecodeAddress(addr, p.Params)
		if err == nil && a.IsForNet(p.Params) {
			return txstate.AddressScript(a)
		}
	}

	script, err := hex.DecodeString(addr)
	if err != nil || len(script) == 0 {
		return nil, fmt.Errorf("%q is neither an address of network "+
			"%v nor a hex encoded script", addr, st.ProtocolMagic())
	}
	return script, nil
}
