package blockvalidator

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/processes/difficultymanager"
	"github.com/zmgnet/zmgd/domain/consensus/processes/pastmediantimemanager"
	"github.com/zmgnet/zmgd/domain/consensus/processes/transactionvalidator"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/difficulty"
	"github.com/zmgnet/zmgd/domain/consensus/utils/merkle"
	"github.com/zmgnet/zmgd/domain/consensus/utils/mining"
	"github.com/zmgnet/zmgd/domain/consensus/utils/testutils"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
	"github.com/zmgnet/zmgd/domain/dagconfig"
)

type testContext struct {
	t           *testing.T
	params      *dagconfig.Params
	validator   *blockValidator
	genesisNode *blocknode.Node
	rd          *rand.Rand
}

func newTestContext(t *testing.T) *testContext {
	params := dagconfig.SimnetParams
	params.BlockCoinbaseMaturity = 1

	transactionValidator, err := transactionvalidator.New(params.BlockCoinbaseMaturity, nil)
	if err != nil {
		t.Fatalf("transactionvalidator.New unexpectedly failed: %s", err)
	}
	validator := New(params.PowMax,
		false,
		params.MaxBlockWeight,
		params.TimestampDeviationTolerance,
		params.TargetTimePerBlock,
		params.CoinbaseHeightActivation,
		params.CalcBlockSubsidy,
		difficultymanager.New(params.PowMax, params.DifficultyAdjustmentWindowSize, params.TargetTimePerBlock),
		pastmediantimemanager.New(constants.MedianTimeWindowSize),
		transactionValidator,
	).(*blockValidator)

	return &testContext{
		t:           t,
		params:      &params,
		validator:   validator,
		genesisNode: blocknode.NewNode(params.GenesisHash, params.GenesisBlock.Header, nil),
		rd:          rand.New(rand.NewSource(0)),
	}
}

func (tc *testContext) genesisUTXOSet() model.UTXOView {
	coinbase := tc.params.GenesisBlock.Transactions[0]
	outpoint := externalapi.NewDomainOutpoint(consensushashing.TransactionID(coinbase), 0)
	return utxo.NewView(utxo.NewCollectionReader(model.UTXOCollection{
		*outpoint: utxo.NewUTXOEntry(coinbase.Outputs[0].Value, coinbase.Outputs[0].ScriptPublicKey, true, 0),
	}))
}

func (tc *testContext) coinbase(height uint64, value uint64) *externalapi.DomainTransaction {
	coinbase, err := transactionhelper.NewCoinbaseTransaction(height, []byte("test"),
		[]*externalapi.DomainTransactionOutput{{Value: value, ScriptPublicKey: testutils.OpTrueScript()}})
	if err != nil {
		tc.t.Fatalf("NewCoinbaseTransaction unexpectedly failed: %s", err)
	}
	return coinbase
}

// buildBlock returns a solved child of genesis holding transactions after
// the given coinbase
func (tc *testContext) buildBlock(coinbase *externalapi.DomainTransaction,
	transactions ...*externalapi.DomainTransaction) *externalapi.DomainBlock {

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:            constants.BlockVersion,
			ParentHash:         *tc.params.GenesisHash,
			TimeInMilliseconds: tc.params.GenesisBlock.Header.TimeInMilliseconds + 1000,
			Bits:               tc.params.GenesisBlock.Header.Bits,
		},
		Transactions: append([]*externalapi.DomainTransaction{coinbase}, transactions...),
	}
	tc.finalize(block)
	return block
}

func (tc *testContext) finalize(block *externalapi.DomainBlock) {
	block.Header.HashMerkleRoot = *merkle.CalculateHashMerkleRoot(block.Transactions)
	mining.SolveBlock(block, tc.rd)
}

func spend(outpoint *externalapi.DomainOutpoint, value uint64) *externalapi.DomainTransaction {
	return transactionhelper.NewNativeTransaction(constants.TransactionVersion,
		[]*externalapi.DomainTransactionInput{{PreviousOutpoint: *outpoint, Sequence: constants.MaxTxInSequenceNum}},
		[]*externalapi.DomainTransactionOutput{{Value: value, ScriptPublicKey: testutils.OpTrueScript()}})
}

func (tc *testContext) validate(block *externalapi.DomainBlock, view model.UTXOView) (*model.UndoData, error) {
	err := tc.validator.ValidateBlockInIsolation(block)
	if err != nil {
		return nil, err
	}
	err = tc.validator.ValidateBlockInContext(tc.genesisNode, block)
	if err != nil {
		return nil, err
	}
	return tc.validator.ValidateBodyInContextAndApply(context.Background(), block, tc.genesisNode, view)
}

func TestValidBlockSpendingWithinTheBlock(t *testing.T) {
	tc := newTestContext(t)
	genesisCoinbase := tc.params.GenesisBlock.Transactions[0]
	genesisOutpoint := externalapi.NewDomainOutpoint(consensushashing.TransactionID(genesisCoinbase), 0)

	first := spend(genesisOutpoint, genesisCoinbase.Outputs[0].Value-100)
	second := spend(externalapi.NewDomainOutpoint(consensushashing.TransactionID(first), 0),
		genesisCoinbase.Outputs[0].Value-300)
	subsidy := tc.params.CalcBlockSubsidy(1)
	block := tc.buildBlock(tc.coinbase(1, subsidy+300), first, second)

	view := tc.genesisUTXOSet()
	undoData, err := tc.validate(block, view)
	if err != nil {
		t.Fatalf("validate unexpectedly failed: %+v", err)
	}
	if len(undoData.Spent) != 2 || len(undoData.Created) != 3 {
		t.Fatalf("unexpected undo data: %d spent, %d created", len(undoData.Spent), len(undoData.Created))
	}
	if first.Fee != 100 || second.Fee != 200 {
		t.Fatalf("unexpected fees %d and %d", first.Fee, second.Fee)
	}
	_, found, err := view.Get(genesisOutpoint)
	if err != nil {
		t.Fatalf("Get unexpectedly failed: %s", err)
	}
	if found {
		t.Fatalf("the genesis output is still unspent")
	}
	entry, found, err := view.Get(externalapi.NewDomainOutpoint(consensushashing.TransactionID(second), 0))
	if err != nil || !found {
		t.Fatalf("the output of the second transaction is missing: %v", err)
	}
	if entry.BlockHeight() != 1 || entry.IsCoinbase() {
		t.Fatalf("unexpected entry: height %d, coinbase %t", entry.BlockHeight(), entry.IsCoinbase())
	}
}

func TestBlockRuleViolations(t *testing.T) {
	tc := newTestContext(t)
	subsidy := tc.params.CalcBlockSubsidy(1)

	tests := []struct {
		name             string
		buildBlock       func() *externalapi.DomainBlock
		expectedErr      error
		expectedCategory externalapi.RejectCategory
	}{
		{
			name: "two coinbases",
			buildBlock: func() *externalapi.DomainBlock {
				return tc.buildBlock(tc.coinbase(1, subsidy), tc.coinbase(1, 1))
			},
			expectedErr:      ruleerrors.ErrMultipleCoinbases,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "first transaction is not a coinbase",
			buildBlock: func() *externalapi.DomainBlock {
				genesisCoinbase := tc.params.GenesisBlock.Transactions[0]
				block := tc.buildBlock(tc.coinbase(1, subsidy))
				block.Transactions[0] = spend(externalapi.NewDomainOutpoint(
					consensushashing.TransactionID(genesisCoinbase), 0), 1)
				tc.finalize(block)
				return block
			},
			expectedErr:      ruleerrors.ErrFirstTxNotCoinbase,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "bad merkle root",
			buildBlock: func() *externalapi.DomainBlock {
				block := tc.buildBlock(tc.coinbase(1, subsidy))
				block.Header.HashMerkleRoot = *externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})
				mining.SolveBlock(block, tc.rd)
				return block
			},
			expectedErr:      ruleerrors.ErrBadMerkleRoot,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "insufficient proof of work",
			buildBlock: func() *externalapi.DomainBlock {
				block := tc.buildBlock(tc.coinbase(1, subsidy))
				target := difficulty.CompactToBig(block.Header.Bits)
				for difficulty.HashToBig(consensushashing.BlockHash(block)).Cmp(target) <= 0 {
					block.Header.Nonce++
				}
				return block
			},
			expectedErr:      ruleerrors.ErrInvalidPoW,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "target above the maximum",
			buildBlock: func() *externalapi.DomainBlock {
				block := tc.buildBlock(tc.coinbase(1, subsidy))
				block.Header.Bits = 0x2100ffff
				return block
			},
			expectedErr:      ruleerrors.ErrTargetTooHigh,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "unexpected difficulty",
			buildBlock: func() *externalapi.DomainBlock {
				block := tc.buildBlock(tc.coinbase(1, subsidy))
				harderTarget := difficulty.CompactToBig(block.Header.Bits)
				harderTarget.Rsh(harderTarget, 1)
				block.Header.Bits = difficulty.BigToCompact(harderTarget)
				tc.finalize(block)
				return block
			},
			expectedErr:      ruleerrors.ErrUnexpectedDifficulty,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "timestamp not after the median time",
			buildBlock: func() *externalapi.DomainBlock {
				block := tc.buildBlock(tc.coinbase(1, subsidy))
				block.Header.TimeInMilliseconds = tc.params.GenesisBlock.Header.TimeInMilliseconds
				tc.finalize(block)
				return block
			},
			expectedErr:      ruleerrors.ErrTimeTooOld,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "timestamp too far in the future",
			buildBlock: func() *externalapi.DomainBlock {
				block := tc.buildBlock(tc.coinbase(1, subsidy))
				block.Header.TimeInMilliseconds = tc.validator.nowMilliseconds() + tc.params.MaxTimeOffset().Milliseconds() + 60_000
				tc.finalize(block)
				return block
			},
			expectedErr:      ruleerrors.ErrTimeTooMuchInTheFuture,
			expectedCategory: externalapi.CategoryMalformedInput,
		},
		{
			name: "coinbase without the block height",
			buildBlock: func() *externalapi.DomainBlock {
				return tc.buildBlock(tc.coinbase(2, subsidy))
			},
			expectedErr:      ruleerrors.ErrBadCoinbaseHeight,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "coinbase pays too much",
			buildBlock: func() *externalapi.DomainBlock {
				return tc.buildBlock(tc.coinbase(1, subsidy+1))
			},
			expectedErr:      ruleerrors.ErrBadCoinbaseValue,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "double spend inside the block",
			buildBlock: func() *externalapi.DomainBlock {
				genesisCoinbase := tc.params.GenesisBlock.Transactions[0]
				outpoint := externalapi.NewDomainOutpoint(consensushashing.TransactionID(genesisCoinbase), 0)
				return tc.buildBlock(tc.coinbase(1, subsidy), spend(outpoint, 1), spend(outpoint, 2))
			},
			expectedErr:      ruleerrors.ErrDoubleSpendInSameBlock,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "duplicate transactions",
			buildBlock: func() *externalapi.DomainBlock {
				genesisCoinbase := tc.params.GenesisBlock.Transactions[0]
				outpoint := externalapi.NewDomainOutpoint(consensushashing.TransactionID(genesisCoinbase), 0)
				tx := spend(outpoint, 1)
				return tc.buildBlock(tc.coinbase(1, subsidy), tx, tx)
			},
			expectedErr:      ruleerrors.ErrDuplicateTx,
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
		{
			name: "spends a missing output",
			buildBlock: func() *externalapi.DomainBlock {
				outpoint := externalapi.NewDomainOutpoint((*externalapi.DomainTransactionID)(
					externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{7})), 0)
				return tc.buildBlock(tc.coinbase(1, subsidy), spend(outpoint, 1))
			},
			expectedCategory: externalapi.CategoryConsensusViolation,
		},
	}

	for _, test := range tests {
		view := tc.genesisUTXOSet()
		_, err := tc.validate(test.buildBlock(), view)
		if err == nil {
			t.Fatalf("%s: validate unexpectedly succeeded", test.name)
		}
		if test.expectedErr != nil && !errors.Is(err, test.expectedErr) {
			t.Fatalf("%s: expected %s, got %+v", test.name, test.expectedErr, err)
		}
		if category := ruleerrors.Categorize(err); category != test.expectedCategory {
			t.Fatalf("%s: expected category %s, got %s", test.name, test.expectedCategory, category)
		}
		diff, err := view.Diff()
		if err != nil {
			t.Fatalf("%s: Diff unexpectedly failed: %s", test.name, err)
		}
		if !diff.IsEmpty() {
			t.Fatalf("%s: a rejected block changed the UTXO view", test.name)
		}
	}
}

func TestBlockWeightLimit(t *testing.T) {
	tc := newTestContext(t)
	block := tc.buildBlock(tc.coinbase(1, 1))
	tc.validator.maxBlockWeight = 50

	err := tc.validator.ValidateBlockInIsolation(block)
	if !errors.Is(err, ruleerrors.ErrBlockWeightTooHigh) {
		t.Fatalf("expected ErrBlockWeightTooHigh, got %v", err)
	}
	if category := ruleerrors.Categorize(err); category != externalapi.CategoryResourceExceeded {
		t.Fatalf("expected ResourceExceeded, got %s", category)
	}
}

func TestApplyIsCancellable(t *testing.T) {
	tc := newTestContext(t)
	block := tc.buildBlock(tc.coinbase(1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	view := tc.genesisUTXOSet()
	_, err := tc.validator.ValidateBodyInContextAndApply(ctx, block, tc.genesisNode, view)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if ruleerrors.IsRuleError(err) {
		t.Fatalf("a cancelled evaluation must not be a rule error")
	}
}
