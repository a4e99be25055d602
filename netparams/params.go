// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netparams maps network names and protocol magics of staged
// transactions to bitcoin network parameters.
package netparams

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Params groups the chain parameters of a network with the name used to
// select it on the command line.
type Params struct {
	*chaincfg.Params
	Name string
}

// MainNetParams contains parameters of the main network (wire.MainNet).
var MainNetParams = Params{
	Params: &chaincfg.MainNetParams,
	Name:   "mainnet",
}

// TestNet3Params contains parameters of the test network (version 3)
// (wire.TestNet3).
var TestNet3Params = Params{
	Params: &chaincfg.TestNet3Params,
	Name:   "testnet",
}

// TestNet4Params contains parameters of the test network (version 4).
var TestNet4Params = Params{
	Params: &testNet4ChainParams,
	Name:   "testnet4",
}

// RegressionNetParams contains parameters of the regression test network
// (wire.TestNet).
var RegressionNetParams = Params{
	Params: &chaincfg.RegressionNetParams,
	Name:   "regtest",
}

// SimNetParams contains parameters of the simulation test network
// (wire.SimNet).
var SimNetParams = Params{
	Params: &chaincfg.SimNetParams,
	Name:   "simnet",
}

// SigNetParams contains parameters of the default signet (wire.SigNet).
var SigNetParams = Params{
	Params: &chaincfg.SigNetParams,
	Name:   "signet",
}

var knownNets = []*Params{
	&MainNetParams, &TestNet3Params, &TestNet4Params,
	&RegressionNetParams, &SimNetParams, &SigNetParams,
}

// ByName returns the network called name.
func ByName(name string) (*Params, error) {
	for _, p := range knownNets {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown network %q", name)
}

// ByNet returns the bitcoin network whose protocol magic is net, if any.
// Staged transactions may use protocol magics of other networks, for which
// no parameters are known.
func ByNet(net wire.BitcoinNet) fn.Option[*Params] {
	for _, p := range knownNets {
		if p.Net == net {
			return fn.Some(p)
		}
	}
	return fn.None[*Params]()
}

// ParseProtocolMagic parses s as a network name or as a decimal or 0x
// prefixed hexadecimal 32-bit protocol magic.
func ParseProtocolMagic(s string) (wire.BitcoinNet, error) {
	if p, err := ByName(strings.ToLower(s)); err == nil {
		return p.Net, nil
	}

	magic, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid protocol magic %q: not a known "+
			"network or a 32-bit number", s)
	}
	return wire.BitcoinNet(magic), nil
}
