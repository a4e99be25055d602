// Copyright (c) 2013-2015 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netparams

import (
	"encoding/hex"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TestNet4 is the protocol magic of the test network (version 4).
const TestNet4 wire.BitcoinNet = 0x1c163f28

// testNet4ChainParams only needs to be complete enough to encode and
// decode addresses and identify the genesis block.
var testNet4ChainParams = chaincfg.Params{
	Name:        "testnet4",
	Net:         TestNet4,
	DefaultPort: "48333",
	DNSSeeds: []chaincfg.DNSSeed{
		{Host: "seed.testnet4.bitcoin.sprovoost.nl", HasFiltering: true},
		{Host: "seed.testnet4.wiz.biz", HasFiltering: true},
	},

	GenesisBlock:             &testNet4GenesisBlock,
	GenesisHash:              testNet4GenesisHash,
	PowLimit:                 testNet4PowLimit,
	PowLimitBits:             0x1d00ffff,
	BIP0034Height:            1,
	BIP0065Height:            1,
	BIP0066Height:            1,
	CoinbaseMaturity:         100,
	SubsidyReductionInterval: 210000,
	TargetTimespan:           time.Hour * 24 * 14,
	TargetTimePerBlock:       time.Minute * 10,
	RetargetAdjustmentFactor: 4,
	ReduceMinDifficulty:      true,
	MinDiffReductionTime:     time.Minute * 20,

	RuleChangeActivationThreshold: 1512,
	MinerConfirmationWindow:       2016,
	Deployments: [chaincfg.DefinedDeployments]chaincfg.ConsensusDeployment{
		chaincfg.DeploymentTaproot: {
			BitNumber:         2,
			DeploymentStarter: alwaysActive{},
			DeploymentEnder:   alwaysActive{},
		},
	},

	RelayNonStdTxs: true,

	Bech32HRPSegwit: "tb",

	PubKeyHashAddrID:        0x6f,
	ScriptHashAddrID:        0xc4,
	WitnessPubKeyHashAddrID: 0x03,
	WitnessScriptHashAddrID: 0x28,
	PrivateKeyID:            0xef,

	HDPrivateKeyID: [4]byte{0x04, 0x35, 0x83, 0x94}, // tprv
	HDPublicKeyID:  [4]byte{0x04, 0x35, 0x87, 0xcf}, // tpub

	HDCoinType: 1,
}

var (
	testNet4GenesisHash = mustHash(
		"00000000da84f2bafbbc53dee25a72ae507ff4914b867c565be350b0da8bf043",
	)
	testNet4GenesisMerkleRoot = mustHash(
		"7aa0a7ae1e223414cb807e40cd57e667b718e42aaf9306db9102fe28912b7b4e",
	)

	testNet4PowLimit = new(big.Int).Sub(
		new(big.Int).Lsh(big.NewInt(1), 224), big.NewInt(1),
	)
)

var testNet4GenesisBlock = wire.MsgBlock{
	Header: wire.BlockHeader{
		Version:    1,
		MerkleRoot: *testNet4GenesisMerkleRoot,
		Timestamp:  time.Unix(1714777860, 0),
		Bits:       0x1d00ffff,
		Nonce:      393743547,
	},
	Transactions: []*wire.MsgTx{{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: 0xffffffff},
			SignatureScript: mustHex("04ffff001d01044c4c30332f4d6179" +
				"2f3230323420303030303030303030303030303030303030" +
				"30303165626435386332343439373062336161396437383362" +
				"623030313031316662653865613865393865303065"),
			Sequence: 0xffffffff,
		}},
		TxOut: []*wire.TxOut{{
			Value: 0x12a05f200,
			PkScript: mustHex("2100000000000000000000000000000000000" +
				"0000000000000000000000000000000ac"),
		}},
	}},
}

// alwaysActive marks a deployment as active from the genesis block.
type alwaysActive struct{}

func (alwaysActive) HasStarted(*wire.BlockHeader) (bool, error) {
	return true, nil
}

func (alwaysActive) HasEnded(*wire.BlockHeader) (bool, error) {
	return true, nil
}

func mustHash(s string) *chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return h
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
