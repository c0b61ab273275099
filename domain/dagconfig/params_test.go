package dagconfig

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/merkle"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
)

func allParams() []*Params {
	return []*Params{&MainnetParams, &TestnetParams, &SimnetParams, &DevnetParams}
}

func TestGenesisBlocks(t *testing.T) {
	seen := make(map[string]string)
	for _, params := range allParams() {
		block := params.GenesisBlock
		if !consensushashing.BlockHash(block).Equal(params.GenesisHash) {
			t.Fatalf("%s: genesis hash mismatch", params.Name)
		}
		if !merkle.CalculateHashMerkleRoot(block.Transactions).Equal(&block.Header.HashMerkleRoot) {
			t.Fatalf("%s: genesis merkle root mismatch", params.Name)
		}
		if len(block.Transactions) != 1 || !transactionhelper.IsCoinBase(block.Transactions[0]) {
			t.Fatalf("%s: genesis must contain exactly a coinbase", params.Name)
		}
		if other, ok := seen[params.GenesisHash.String()]; ok {
			t.Fatalf("%s: genesis hash collides with %s", params.Name, other)
		}
		seen[params.GenesisHash.String()] = params.Name
	}
}

func TestCalcBlockSubsidy(t *testing.T) {
	params := &SimnetParams
	tests := []struct {
		height   uint64
		expected uint64
	}{
		{height: 0, expected: baseSubsidy},
		{height: 209, expected: baseSubsidy},
		{height: 210, expected: baseSubsidy / 2},
		{height: 420, expected: baseSubsidy / 4},
		{height: 210 * 64, expected: 0},
		{height: 210 * 1000, expected: 0},
	}
	for _, test := range tests {
		subsidy := params.CalcBlockSubsidy(test.height)
		if subsidy != test.expected {
			t.Fatalf("CalcBlockSubsidy(%d): want %d, got %d", test.height, test.expected, subsidy)
		}
	}
}

func TestParamsByName(t *testing.T) {
	for _, params := range allParams() {
		found, err := ParamsByName(params.Name)
		if err != nil {
			t.Fatalf("ParamsByName(%s) unexpectedly failed: %s", params.Name, err)
		}
		if found != params {
			t.Fatalf("ParamsByName(%s) returned the wrong network", params.Name)
		}
	}
	_, err := ParamsByName("nope")
	if !errors.Is(err, ErrUnknownNetwork) {
		t.Fatalf("ParamsByName: expected ErrUnknownNetwork, got %v", err)
	}
}
