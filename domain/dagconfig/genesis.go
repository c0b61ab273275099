// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/difficulty"
	"github.com/zmgnet/zmgd/domain/consensus/utils/merkle"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
	"github.com/zmgnet/zmgd/domain/consensus/utils/txscript"
)

// genesisTimeInMilliseconds is the timestamp shared by all genesis blocks:
// 2023-11-14 22:13:20 UTC.
const genesisTimeInMilliseconds = 1_700_000_000_000

// genesisUnspendableScript is the script public key of the main and test
// network genesis outputs. Nothing can satisfy it.
var genesisUnspendableScript = &externalapi.ScriptPublicKey{Script: []byte{txscript.OpFalse}, Version: 0}

// genesisAnyoneCanSpendScript is the script public key of the simulation and
// development network genesis outputs.
var genesisAnyoneCanSpendScript = &externalapi.ScriptPublicKey{Script: []byte{txscript.OpTrue}, Version: 0}

func newGenesisBlock(extraData []byte, powMax *big.Int,
	scriptPublicKey *externalapi.ScriptPublicKey) externalapi.DomainBlock {

	coinbaseTx, err := transactionhelper.NewCoinbaseTransaction(0, extraData,
		[]*externalapi.DomainTransactionOutput{{Value: baseSubsidy, ScriptPublicKey: scriptPublicKey}})
	if err != nil {
		panic(errors.Wrap(err, "couldn't build genesis coinbase. This should never happen"))
	}
	transactions := []*externalapi.DomainTransaction{coinbaseTx}
	return externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:            constants.BlockVersion,
			ParentHash:         externalapi.DomainHash{},
			HashMerkleRoot:     *merkle.CalculateHashMerkleRoot(transactions),
			TimeInMilliseconds: genesisTimeInMilliseconds,
			Bits:               difficulty.BigToCompact(powMax),
			Nonce:              0,
		},
		Transactions: transactions,
	}
}

// genesisBlock defines the genesis block of the block chain which serves as
// the public transaction ledger for the main network.
var genesisBlock = newGenesisBlock([]byte("zmg-mainnet"), mainPowMax, genesisUnspendableScript)

// genesisHash is the hash of the first block in the chain for the main
// network (genesis block).
var genesisHash = consensushashing.BlockHash(&genesisBlock)

var testnetGenesisBlock = newGenesisBlock([]byte("zmg-testnet"), testnetPowMax, genesisUnspendableScript)

var testnetGenesisHash = consensushashing.BlockHash(&testnetGenesisBlock)

var simnetGenesisBlock = newGenesisBlock([]byte("zmg-simnet"), simnetPowMax, genesisAnyoneCanSpendScript)

var simnetGenesisHash = consensushashing.BlockHash(&simnetGenesisBlock)

var devnetGenesisBlock = newGenesisBlock([]byte("zmg-devnet"), devnetPowMax, genesisAnyoneCanSpendScript)

var devnetGenesisHash = consensushashing.BlockHash(&devnetGenesisBlock)
