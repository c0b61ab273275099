// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dagconfig

import (
	"math/big"
	"time"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
)

// These variables are the proof-of-work limit parameters for each default
// network.
var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowMax is the highest proof of work value a block can have for
	// the main network. It is the value 2^240 - 1.
	mainPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 240), bigOne)

	// testnetPowMax is the highest proof of work value a block can have
	// for the test network. It is the value 2^248 - 1.
	testnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 248), bigOne)

	// simnetPowMax is the highest proof of work value a block can have
	// for the simulation test network. It is the value 2^255 - 1.
	simnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

	// devnetPowMax is the highest proof of work value a block can have
	// for the development network. It is the value 2^255 - 1.
	devnetPowMax = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

const (
	maxBlockWeight              = constants.MaxBlockWeight
	timestampDeviationTolerance = 60
	coinbaseHeightActivation    = 1
	baseSubsidy                 = 50 * constants.SompiPerZMG
)

// Params defines a network by its parameters. These parameters may be used
// by applications to differentiate networks.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *externalapi.DomainBlock

	// GenesisHash is the starting block hash.
	GenesisHash *externalapi.DomainHash

	// PowMax defines the highest allowed proof of work value for a block
	// as a uint256.
	PowMax *big.Int

	// BlockCoinbaseMaturity is the number of blocks required before newly mined
	// coins can be spent.
	BlockCoinbaseMaturity uint64

	// SubsidyReductionInterval is the interval of blocks before the subsidy
	// is reduced.
	SubsidyReductionInterval uint64

	// BaseSubsidy is the subsidy of the blocks of the first reduction
	// interval, in sompi.
	BaseSubsidy uint64

	// TargetTimePerBlock is the desired amount of time to generate each
	// block.
	TargetTimePerBlock time.Duration

	// TimestampDeviationTolerance is the maximum offset, in blocks of
	// TargetTimePerBlock, a block timestamp is allowed to be ahead of the
	// local clock.
	TimestampDeviationTolerance uint64

	// DifficultyAdjustmentWindowSize is the number of blocks between
	// difficulty retargets.
	DifficultyAdjustmentWindowSize uint64

	// MaxBlockWeight is the maximum serialized size of a block in bytes.
	MaxBlockWeight uint64

	// RollbackHorizon is the deepest reorganization the node performs.
	// Undo data of blocks deeper than it below the tip is pruned.
	RollbackHorizon uint64

	// CoinbaseHeightActivation is the height from which the coinbase
	// signature script must start with a push of the block height.
	CoinbaseHeightActivation uint64
}

// MainnetParams defines the network parameters for the main network.
var MainnetParams = Params{
	Name:                           "zmg-mainnet",
	GenesisBlock:                   &genesisBlock,
	GenesisHash:                    genesisHash,
	PowMax:                         mainPowMax,
	BlockCoinbaseMaturity:          120,
	SubsidyReductionInterval:       1_051_200,
	BaseSubsidy:                    baseSubsidy,
	TargetTimePerBlock:             2 * time.Minute,
	TimestampDeviationTolerance:    timestampDeviationTolerance,
	DifficultyAdjustmentWindowSize: 720,
	MaxBlockWeight:                 maxBlockWeight,
	RollbackHorizon:                720,
	CoinbaseHeightActivation:       coinbaseHeightActivation,
}

// TestnetParams defines the network parameters for the test network.
var TestnetParams = Params{
	Name:                           "zmg-testnet",
	GenesisBlock:                   &testnetGenesisBlock,
	GenesisHash:                    testnetGenesisHash,
	PowMax:                         testnetPowMax,
	BlockCoinbaseMaturity:          120,
	SubsidyReductionInterval:       1_051_200,
	BaseSubsidy:                    baseSubsidy,
	TargetTimePerBlock:             2 * time.Minute,
	TimestampDeviationTolerance:    timestampDeviationTolerance,
	DifficultyAdjustmentWindowSize: 720,
	MaxBlockWeight:                 maxBlockWeight,
	RollbackHorizon:                720,
	CoinbaseHeightActivation:       coinbaseHeightActivation,
}

// SimnetParams defines the network parameters for the simulation test
// network. This network is intended for private use within a group of
// individuals doing simulation testing, and its genesis output can be spent
// by anyone.
var SimnetParams = Params{
	Name:                           "zmg-simnet",
	GenesisBlock:                   &simnetGenesisBlock,
	GenesisHash:                    simnetGenesisHash,
	PowMax:                         simnetPowMax,
	BlockCoinbaseMaturity:          10,
	SubsidyReductionInterval:       210,
	BaseSubsidy:                    baseSubsidy,
	TargetTimePerBlock:             time.Second,
	TimestampDeviationTolerance:    timestampDeviationTolerance,
	DifficultyAdjustmentWindowSize: 16,
	MaxBlockWeight:                 maxBlockWeight,
	RollbackHorizon:                100,
	CoinbaseHeightActivation:       coinbaseHeightActivation,
}

// DevnetParams defines the network parameters for the development network.
var DevnetParams = Params{
	Name:                           "zmg-devnet",
	GenesisBlock:                   &devnetGenesisBlock,
	GenesisHash:                    devnetGenesisHash,
	PowMax:                         devnetPowMax,
	BlockCoinbaseMaturity:          2,
	SubsidyReductionInterval:       210,
	BaseSubsidy:                    baseSubsidy,
	TargetTimePerBlock:             time.Minute,
	TimestampDeviationTolerance:    timestampDeviationTolerance,
	DifficultyAdjustmentWindowSize: 2,
	MaxBlockWeight:                 maxBlockWeight,
	RollbackHorizon:                100,
	CoinbaseHeightActivation:       coinbaseHeightActivation,
}

// ErrUnknownNetwork describes an error where the requested network is not
// one of the known networks.
var ErrUnknownNetwork = errors.New("unknown network")

var registeredNets = map[string]*Params{
	MainnetParams.Name: &MainnetParams,
	TestnetParams.Name: &TestnetParams,
	SimnetParams.Name:  &SimnetParams,
	DevnetParams.Name:  &DevnetParams,
}

// ParamsByName returns the parameters of the network with the given name
func ParamsByName(name string) (*Params, error) {
	params, ok := registeredNets[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNetwork, "%s", name)
	}
	return params, nil
}

// CalcBlockSubsidy returns the subsidy of the block at blockHeight. The
// subsidy halves every SubsidyReductionInterval blocks.
func (p *Params) CalcBlockSubsidy(blockHeight uint64) uint64 {
	if p.SubsidyReductionInterval == 0 {
		return p.BaseSubsidy
	}
	halvings := blockHeight / p.SubsidyReductionInterval
	if halvings >= 64 {
		return 0
	}
	return p.BaseSubsidy >> halvings
}

// MaxTimeOffset returns how far ahead of the local clock a block timestamp
// may be
func (p *Params) MaxTimeOffset() time.Duration {
	return time.Duration(p.TimestampDeviationTolerance) * p.TargetTimePerBlock
}
