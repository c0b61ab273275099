package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/dagconfig"
)

// NetworkFlags holds the network configuration, that is which network is selected.
type NetworkFlags struct {
	Testnet               bool   `long:"testnet" description:"Use the test network"`
	Simnet                bool   `long:"simnet" description:"Use the simulation test network"`
	Devnet                bool   `long:"devnet" description:"Use the development test network"`
	OverrideDAGParamsFile string `long:"override-dag-params-file" description:"Overrides network params (allowed only on devnet)"`

	ActiveNetParams *dagconfig.Params
}

type overrideDAGParamsConfig struct {
	PowMax                           *string `json:"powMax"`
	BlockCoinbaseMaturity            *uint64 `json:"blockCoinbaseMaturity"`
	SubsidyReductionInterval         *uint64 `json:"subsidyReductionInterval"`
	TargetTimePerBlockInMilliSeconds *int64  `json:"targetTimePerBlockInMilliSeconds"`
	TimestampDeviationTolerance      *uint64 `json:"timestampDeviationTolerance"`
	DifficultyAdjustmentWindowSize   *uint64 `json:"difficultyAdjustmentWindowSize"`
	MaxBlockWeight                   *uint64 `json:"maxBlockWeight"`
	RollbackHorizon                  *uint64 `json:"rollbackHorizon"`
}

// ResolveNetwork parses the network command line argument and sets ActiveNetParams accordingly.
// It returns error if more than one network was selected, nil otherwise.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	// Each run gets its own copy so overrides never leak into the
	// package-level params.
	activeNetParams := dagconfig.MainnetParams
	numNets := 0
	if networkFlags.Testnet {
		numNets++
		activeNetParams = dagconfig.TestnetParams
	}
	if networkFlags.Simnet {
		numNets++
		activeNetParams = dagconfig.SimnetParams
	}
	if networkFlags.Devnet {
		numNets++
		activeNetParams = dagconfig.DevnetParams
	}
	if numNets > 1 {
		message := "Multiple networks parameters (testnet, simnet, devnet, etc.) cannot be used " +
			"together. Please choose only one network"
		err := errors.New(message)
		fmt.Fprintln(os.Stderr, err)
		if parser != nil {
			parser.WriteHelp(os.Stderr)
		}
		return err
	}
	networkFlags.ActiveNetParams = &activeNetParams

	return networkFlags.overrideDAGParams()
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}

func (networkFlags *NetworkFlags) overrideDAGParams() error {
	if networkFlags.OverrideDAGParamsFile == "" {
		return nil
	}

	if !networkFlags.Devnet {
		return errors.Errorf("override-dag-params-file is allowed only when using devnet")
	}

	overrideDAGParamsFile, err := os.Open(networkFlags.OverrideDAGParamsFile)
	if err != nil {
		return err
	}
	defer overrideDAGParamsFile.Close()

	decoder := json.NewDecoder(overrideDAGParamsFile)
	decoder.DisallowUnknownFields()
	config := &overrideDAGParamsConfig{}
	err = decoder.Decode(config)
	if err != nil {
		return errors.Wrapf(err, "could not parse %s", networkFlags.OverrideDAGParamsFile)
	}

	params := networkFlags.ActiveNetParams
	if config.PowMax != nil {
		powMax, ok := big.NewInt(0).SetString(*config.PowMax, 16)
		if !ok {
			return errors.Errorf("couldn't convert %s to big int", *config.PowMax)
		}
		params.PowMax = powMax
	}
	if config.BlockCoinbaseMaturity != nil {
		params.BlockCoinbaseMaturity = *config.BlockCoinbaseMaturity
	}
	if config.SubsidyReductionInterval != nil {
		params.SubsidyReductionInterval = *config.SubsidyReductionInterval
	}
	if config.TargetTimePerBlockInMilliSeconds != nil {
		params.TargetTimePerBlock = time.Duration(*config.TargetTimePerBlockInMilliSeconds) * time.Millisecond
	}
	if config.TimestampDeviationTolerance != nil {
		params.TimestampDeviationTolerance = *config.TimestampDeviationTolerance
	}
	if config.DifficultyAdjustmentWindowSize != nil {
		params.DifficultyAdjustmentWindowSize = *config.DifficultyAdjustmentWindowSize
	}
	if config.MaxBlockWeight != nil {
		params.MaxBlockWeight = *config.MaxBlockWeight
	}
	if config.RollbackHorizon != nil {
		params.RollbackHorizon = *config.RollbackHorizon
	}

	return nil
}
