package consensus_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/zmgnet/zmgd/domain/consensus"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/undodatastore"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/model/testapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/testutils"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
	"github.com/zmgnet/zmgd/domain/dagconfig"
	"github.com/zmgnet/zmgd/infrastructure/db/database/faultydb"
	"github.com/zmgnet/zmgd/infrastructure/db/database/ldb"
)

func newTestConsensus(t *testing.T, params *dagconfig.Params, testName string) testapi.TestConsensus {
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(consensus.NewConfig(params), testName)
	require.NoError(t, err, "NewTestConsensus")
	t.Cleanup(func() { teardown(false) })
	return tc
}

func spendOutput(outpoint *externalapi.DomainOutpoint, value uint64) *externalapi.DomainTransaction {
	return transactionhelper.NewNativeTransaction(constants.TransactionVersion,
		[]*externalapi.DomainTransactionInput{{
			PreviousOutpoint: *outpoint,
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		[]*externalapi.DomainTransactionOutput{{
			Value:           value,
			ScriptPublicKey: testutils.OpTrueScript(),
		}})
}

func genesisCoinbaseOutpoint(params *dagconfig.Params) *externalapi.DomainOutpoint {
	return externalapi.NewDomainOutpoint(consensushashing.TransactionID(params.GenesisBlock.Transactions[0]), 0)
}

func requireTip(t *testing.T, tc testapi.TestConsensus, expectedHash *externalapi.DomainHash) {
	tipHash, _, err := tc.GetBestTip()
	require.NoError(t, err)
	require.Truef(t, tipHash.Equal(expectedHash), "unexpected tip. Want: %s, got: %s", expectedHash, tipHash)
}

func requireUTXO(t *testing.T, tc testapi.TestConsensus, outpoint *externalapi.DomainOutpoint, expectedFound bool) {
	_, found, err := tc.GetUTXOEntry(outpoint)
	require.NoError(t, err)
	require.Equalf(t, expectedFound, found, "unexpected presence of %s in the UTXO set", outpoint)
}

func TestExtendChain(t *testing.T) {
	testutils.ForAllNets(t, func(t *testing.T, params *dagconfig.Params) {
		config := consensus.NewConfig(params)
		config.SkipProofOfWork = true
		tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, "TestExtendChain")
		require.NoError(t, err)
		defer teardown(false)

		hashes, err := tc.AddChain(params.GenesisHash, 3)
		require.NoError(t, err)
		requireTip(t, tc, hashes[2])

		for i, hash := range hashes {
			info, err := tc.GetBlockInfo(hash)
			require.NoError(t, err)
			require.True(t, info.Exists)
			require.Equal(t, externalapi.StatusFullyValid, info.Status)
			require.Equal(t, uint64(i+1), info.Height)
			require.True(t, info.IsInActiveChain)

			hashAtHeight, err := tc.GetBlockHashByHeight(uint64(i + 1))
			require.NoError(t, err)
			require.True(t, hashAtHeight.Equal(hash))
		}
		require.NoError(t, tc.VerifyUTXOCommitment())
	})
}

// TestReorgToHeavierBranch builds a branch that spends the genesis
// coinbase, then a competing branch with more work that does not.
func TestReorgToHeavierBranch(t *testing.T) {
	params := dagconfig.SimnetParams
	tc := newTestConsensus(t, &params, "TestReorgToHeavierBranch")
	genesisOutpoint := genesisCoinbaseOutpoint(&params)

	matureChain, err := tc.AddChain(params.GenesisHash, int(params.BlockCoinbaseMaturity))
	require.NoError(t, err)
	spendingTransaction := spendOutput(genesisOutpoint, params.BaseSubsidy-1000)
	spendingBlockHash, _, err := tc.AddBlock(matureChain[len(matureChain)-1],
		[]*externalapi.DomainTransaction{spendingTransaction})
	require.NoError(t, err)
	requireTip(t, tc, spendingBlockHash)

	spentOutpoint := externalapi.NewDomainOutpoint(consensushashing.TransactionID(spendingTransaction), 0)
	requireUTXO(t, tc, genesisOutpoint, false)
	requireUTXO(t, tc, spentOutpoint, true)
	commitmentBeforeReorg, err := tc.GetUTXOCommitment()
	require.NoError(t, err)

	heavierChain, err := tc.AddChain(params.GenesisHash, len(matureChain)+2)
	require.NoError(t, err)
	heavierTip := heavierChain[len(heavierChain)-1]
	requireTip(t, tc, heavierTip)

	requireUTXO(t, tc, genesisOutpoint, true)
	requireUTXO(t, tc, spentOutpoint, false)
	heavierTipBlock, err := tc.GetBlock(heavierTip)
	require.NoError(t, err)
	heavierCoinbaseOutpoint := externalapi.NewDomainOutpoint(
		consensushashing.TransactionID(heavierTipBlock.Transactions[0]), 0)
	requireUTXO(t, tc, heavierCoinbaseOutpoint, true)

	info, err := tc.GetBlockInfo(spendingBlockHash)
	require.NoError(t, err)
	require.False(t, info.IsInActiveChain)
	require.Equal(t, externalapi.StatusFullyValid, info.Status)
	require.NoError(t, tc.VerifyUTXOCommitment())

	// Two more blocks on the first branch make it the heaviest again, and
	// the spend comes back.
	_, err = tc.AddChain(spendingBlockHash, 2)
	require.NoError(t, err)
	requireUTXO(t, tc, genesisOutpoint, false)
	requireUTXO(t, tc, spentOutpoint, true)
	requireUTXO(t, tc, heavierCoinbaseOutpoint, false)
	require.NoError(t, tc.VerifyUTXOCommitment())

	commitmentAfterReorg, err := tc.GetUTXOCommitment()
	require.NoError(t, err)
	require.False(t, commitmentAfterReorg.Equal(commitmentBeforeReorg),
		"the commitment must cover the two blocks added since")
}

// addBranch adds length blocks on parentHash, spacing their timestamps
// intervalMilliseconds apart
func addBranch(t *testing.T, tc testapi.TestConsensus, parentHash *externalapi.DomainHash, length int,
	intervalMilliseconds int64) []*externalapi.DomainHash {

	hashes := make([]*externalapi.DomainHash, 0, length)
	parentTime := tc.Params().GenesisBlock.Header.TimeInMilliseconds
	for i := 0; i < length; i++ {
		block, err := tc.BuildBlock(parentHash, nil)
		require.NoError(t, err)
		block.Header.TimeInMilliseconds = parentTime + intervalMilliseconds
		tc.SolveBlock(block)

		_, err = tc.ValidateAndInsertBlock(context.Background(), block)
		require.NoError(t, err)
		parentHash = consensushashing.BlockHash(block)
		parentTime = block.Header.TimeInMilliseconds
		hashes = append(hashes, parentHash)
	}
	return hashes
}

// TestEqualHeightUnequalWork builds two branches of the same height past a
// retarget. The branch mined faster retargets to a harder target, so it has
// more work and must win whichever arrives first.
func TestEqualHeightUnequalWork(t *testing.T) {
	params := dagconfig.SimnetParams
	length := int(params.DifficultyAdjustmentWindowSize)

	tests := []struct {
		name      string
		fastFirst bool
	}{
		{name: "fast branch first", fastFirst: true},
		{name: "slow branch first", fastFirst: false},
	}
	for _, test := range tests {
		tc := newTestConsensus(t, &params, "TestEqualHeightUnequalWork")

		var fast, slow []*externalapi.DomainHash
		if test.fastFirst {
			fast = addBranch(t, tc, params.GenesisHash, length, 10)
			slow = addBranch(t, tc, params.GenesisHash, length, params.TargetTimePerBlock.Milliseconds())
		} else {
			slow = addBranch(t, tc, params.GenesisHash, length, params.TargetTimePerBlock.Milliseconds())
			fast = addBranch(t, tc, params.GenesisHash, length, 10)
		}

		fastTip, slowTip := fast[len(fast)-1], slow[len(slow)-1]
		fastInfo, err := tc.GetBlockInfo(fastTip)
		require.NoError(t, err)
		slowInfo, err := tc.GetBlockInfo(slowTip)
		require.NoError(t, err)
		require.Equalf(t, fastInfo.Height, slowInfo.Height, "%s: branches differ in height", test.name)
		require.Equalf(t, 1, fastInfo.CumulativeWork.Cmp(slowInfo.CumulativeWork),
			"%s: the fast branch must have more work", test.name)

		requireTip(t, tc, fastTip)
	}
}

func TestBlockWithTwoCoinbasesIsKnownInvalid(t *testing.T) {
	params := dagconfig.SimnetParams
	tc := newTestConsensus(t, &params, "TestBlockWithTwoCoinbasesIsKnownInvalid")

	block, err := tc.BuildBlock(params.GenesisHash, nil)
	require.NoError(t, err)
	secondCoinbase, err := transactionhelper.NewCoinbaseTransaction(1, []byte("second"),
		[]*externalapi.DomainTransactionOutput{{Value: 1, ScriptPublicKey: testutils.OpTrueScript()}})
	require.NoError(t, err)
	block.Transactions = append(block.Transactions, secondCoinbase)
	tc.SolveBlock(block)
	blockHash := consensushashing.BlockHash(block)

	_, err = tc.ValidateAndInsertBlock(context.Background(), block)
	require.True(t, errors.Is(err, ruleerrors.ErrMultipleCoinbases), "unexpected error: %+v", err)
	require.Equal(t, externalapi.CategoryConsensusViolation, ruleerrors.Categorize(err))

	info, err := tc.GetBlockInfo(blockHash)
	require.NoError(t, err)
	require.True(t, info.Exists)
	require.Equal(t, externalapi.StatusInvalid, info.Status)

	_, err = tc.ValidateAndInsertBlock(context.Background(), block)
	require.True(t, errors.Is(err, ruleerrors.ErrKnownInvalid), "unexpected error: %+v", err)
	require.Equal(t, externalapi.CategoryConsensusViolation, ruleerrors.Categorize(err))
	requireTip(t, tc, params.GenesisHash)
}

func TestInvalidBranchIsMarkedAndPropagates(t *testing.T) {
	params := dagconfig.SimnetParams
	tc := newTestConsensus(t, &params, "TestInvalidBranchIsMarkedAndPropagates")

	activeChain, err := tc.AddChain(params.GenesisHash, 2)
	require.NoError(t, err)
	sideChain, err := tc.AddChain(params.GenesisHash, 2)
	require.NoError(t, err)
	requireTip(t, tc, activeChain[1])

	missingTransactionID := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{0xde, 0xad})
	missingOutpoint := externalapi.NewDomainOutpoint((*externalapi.DomainTransactionID)(missingTransactionID), 0)
	invalidBlock, err := tc.BuildBlock(sideChain[1],
		[]*externalapi.DomainTransaction{spendOutput(missingOutpoint, 1)})
	require.NoError(t, err)
	invalidHash := consensushashing.BlockHash(invalidBlock)

	result, err := tc.ValidateAndInsertBlock(context.Background(), invalidBlock)
	require.True(t, ruleerrors.IsRuleError(err), "unexpected error: %+v", err)
	require.Equal(t, externalapi.CategoryConsensusViolation, ruleerrors.Categorize(err))
	require.NotNil(t, result)
	require.Equal(t, externalapi.StatusInvalid, result.Status)
	require.True(t, result.ChainChanges.IsEmpty())
	requireTip(t, tc, activeChain[1])

	// The side branch below the invalid block was connected and
	// disconnected again, but is still valid.
	for _, hash := range sideChain {
		info, err := tc.GetBlockInfo(hash)
		require.NoError(t, err)
		require.NotEqual(t, externalapi.StatusInvalid, info.Status)
	}

	child, err := tc.BuildBlock(sideChain[1], nil)
	require.NoError(t, err)
	child.Header.ParentHash = *invalidHash
	child.Header.TimeInMilliseconds = invalidBlock.Header.TimeInMilliseconds + 1000
	tc.SolveBlock(child)
	_, err = tc.ValidateAndInsertBlock(context.Background(), child)
	require.True(t, errors.Is(err, ruleerrors.ErrInvalidAncestorBlock), "unexpected error: %+v", err)

	info, err := tc.GetBlockInfo(consensushashing.BlockHash(child))
	require.NoError(t, err)
	require.Equal(t, externalapi.StatusInvalid, info.Status)
	require.NoError(t, tc.VerifyUTXOCommitment())
}

func TestMissingParentIsNotStored(t *testing.T) {
	params := dagconfig.SimnetParams
	tc := newTestConsensus(t, &params, "TestMissingParentIsNotStored")

	block, err := tc.BuildBlock(params.GenesisHash, nil)
	require.NoError(t, err)
	block.Header.ParentHash = *externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})
	tc.SolveBlock(block)

	_, err = tc.ValidateAndInsertBlock(context.Background(), block)
	require.True(t, ruleerrors.IsRuleError(err), "unexpected error: %+v", err)
	require.Equal(t, externalapi.CategoryMalformedInput, ruleerrors.Categorize(err))

	info, err := tc.GetBlockInfo(consensushashing.BlockHash(block))
	require.NoError(t, err)
	require.False(t, info.Exists)
}

func TestDuplicateBlock(t *testing.T) {
	params := dagconfig.SimnetParams
	tc := newTestConsensus(t, &params, "TestDuplicateBlock")

	block, err := tc.BuildBlock(params.GenesisHash, nil)
	require.NoError(t, err)
	_, err = tc.ValidateAndInsertBlock(context.Background(), block)
	require.NoError(t, err)

	_, err = tc.ValidateAndInsertBlock(context.Background(), block)
	require.True(t, errors.Is(err, ruleerrors.ErrDuplicateBlock), "unexpected error: %+v", err)
	require.Equal(t, externalapi.CategoryMalformedInput, ruleerrors.Categorize(err))
}

// submitWithCancelledContext submits a child of the genesis block whose
// evaluation is cancelled, leaving it stored but not connected.
func submitWithCancelledContext(t *testing.T, tc testapi.TestConsensus) *externalapi.DomainHash {
	block, err := tc.BuildBlock(tc.Params().GenesisHash, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = tc.ValidateAndInsertBlock(ctx, block)
	require.True(t, errors.Is(err, context.Canceled), "unexpected error: %+v", err)
	require.Equal(t, externalapi.CategoryMalformedInput, ruleerrors.Categorize(err))

	blockHash := consensushashing.BlockHash(block)
	info, err := tc.GetBlockInfo(blockHash)
	require.NoError(t, err)
	require.True(t, info.Exists)
	require.Equal(t, externalapi.StatusHeaderValid, info.Status)
	require.False(t, info.IsInActiveChain)
	requireTip(t, tc, tc.Params().GenesisHash)
	return blockHash
}

func requireConnected(t *testing.T, tc testapi.TestConsensus, result *externalapi.BlockInsertionResult,
	blockHash *externalapi.DomainHash) {

	require.NotNil(t, result)
	require.Len(t, result.ChainChanges.Added, 1)
	require.True(t, result.ChainChanges.Added[0].Equal(blockHash))
	requireTip(t, tc, blockHash)

	info, err := tc.GetBlockInfo(blockHash)
	require.NoError(t, err)
	require.Equal(t, externalapi.StatusFullyValid, info.Status)
	require.True(t, info.IsInActiveChain)
	require.NoError(t, tc.VerifyUTXOCommitment())
}

func TestCancelledBlockIsConnectedWhenResubmitted(t *testing.T) {
	params := dagconfig.SimnetParams
	tc := newTestConsensus(t, &params, "TestCancelledBlockIsConnectedWhenResubmitted")
	blockHash := submitWithCancelledContext(t, tc)

	block, err := tc.GetBlock(blockHash)
	require.NoError(t, err)
	result, err := tc.ValidateAndInsertBlock(context.Background(), block)
	require.NoError(t, err)
	require.Equal(t, externalapi.StatusFullyValid, result.Status)
	requireConnected(t, tc, result, blockHash)

	_, err = tc.ValidateAndInsertBlock(context.Background(), block)
	require.True(t, errors.Is(err, ruleerrors.ErrDuplicateBlock), "unexpected error: %+v", err)
}

// TestPendingBlockIsConnectedByAnyLaterSubmission checks that a block left
// unconnected by an interrupted evaluation is connected by the next
// submission, even one that is itself rejected.
func TestPendingBlockIsConnectedByAnyLaterSubmission(t *testing.T) {
	params := dagconfig.SimnetParams

	tests := []struct {
		name       string
		buildBlock func(t *testing.T, tc testapi.TestConsensus) *externalapi.DomainBlock
		isExpected func(err error) bool
	}{
		{
			name: "invalid block",
			buildBlock: func(t *testing.T, tc testapi.TestConsensus) *externalapi.DomainBlock {
				block, err := tc.BuildBlock(params.GenesisHash, nil)
				require.NoError(t, err)
				secondCoinbase, err := transactionhelper.NewCoinbaseTransaction(1, []byte("second"),
					[]*externalapi.DomainTransactionOutput{{Value: 1, ScriptPublicKey: testutils.OpTrueScript()}})
				require.NoError(t, err)
				block.Transactions = append(block.Transactions, secondCoinbase)
				tc.SolveBlock(block)
				return block
			},
			isExpected: func(err error) bool { return errors.Is(err, ruleerrors.ErrMultipleCoinbases) },
		},
		{
			name: "duplicate block",
			buildBlock: func(_ *testing.T, _ testapi.TestConsensus) *externalapi.DomainBlock {
				return params.GenesisBlock
			},
			isExpected: func(err error) bool { return errors.Is(err, ruleerrors.ErrDuplicateBlock) },
		},
		{
			name: "orphan block",
			buildBlock: func(t *testing.T, tc testapi.TestConsensus) *externalapi.DomainBlock {
				block, err := tc.BuildBlock(params.GenesisHash, nil)
				require.NoError(t, err)
				block.Header.ParentHash = *externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{1})
				tc.SolveBlock(block)
				return block
			},
			isExpected: func(err error) bool {
				var missingParents *ruleerrors.ErrMissingParents
				return errors.As(err, &missingParents)
			},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tc := newTestConsensus(t, &params, "TestPendingBlockIsConnectedByAnyLaterSubmission")
			pendingHash := submitWithCancelledContext(t, tc)

			result, err := tc.ValidateAndInsertBlock(context.Background(), test.buildBlock(t, tc))
			require.True(t, test.isExpected(err), "unexpected error: %+v", err)
			requireConnected(t, tc, result, pendingHash)
		})
	}
}

// TestStorageFailureDuringReorg fails the commit of a reorganization and
// checks that nothing changed, that the chain state refuses further
// mutation, and that a restart resumes from the last durable commit.
func TestStorageFailureDuringReorg(t *testing.T) {
	params := dagconfig.SimnetParams
	config := consensus.NewConfig(&params)
	factory := consensus.NewFactory()

	ldbInstance, err := ldb.NewLevelDB(t.TempDir(), 8)
	require.NoError(t, err)
	defer ldbInstance.Close()
	db := faultydb.New(ldbInstance)

	tc, err := factory.NewTestConsensusWithDatabase(config, db)
	require.NoError(t, err)

	activeChain, err := tc.AddChain(params.GenesisHash, 3)
	require.NoError(t, err)
	sideChain, err := tc.AddChain(params.GenesisHash, 3)
	require.NoError(t, err)
	requireTip(t, tc, activeChain[2])
	commitmentBefore, err := tc.GetUTXOCommitment()
	require.NoError(t, err)

	// Storing the block takes two writes. The third one belongs to the
	// reorganization.
	db.FailAfterPuts(2)
	heavierBlock, err := tc.BuildBlock(sideChain[2], nil)
	require.NoError(t, err)
	_, err = tc.ValidateAndInsertBlock(context.Background(), heavierBlock)
	require.True(t, errors.Is(err, faultydb.ErrInjected), "unexpected error: %+v", err)
	require.Equal(t, externalapi.CategoryStorageFailure, ruleerrors.Categorize(err))
	require.Error(t, tc.Halted())

	requireTip(t, tc, activeChain[2])
	commitmentAfter, err := tc.GetUTXOCommitment()
	require.NoError(t, err)
	require.True(t, commitmentAfter.Equal(commitmentBefore))
	require.NoError(t, tc.VerifyUTXOCommitment())

	_, _, err = tc.AddBlock(activeChain[2], nil)
	require.Error(t, err)
	require.Equal(t, externalapi.CategoryStorageFailure, ruleerrors.Categorize(err))

	db.Heal()
	restarted, err := factory.NewTestConsensusWithDatabase(config, db)
	require.NoError(t, err)
	require.NoError(t, restarted.Halted())
	requireTip(t, restarted, consensushashing.BlockHash(heavierBlock))
	require.NoError(t, restarted.VerifyUTXOCommitment())
}

func TestRestartResumesState(t *testing.T) {
	params := dagconfig.SimnetParams
	config := consensus.NewConfig(&params)
	factory := consensus.NewFactory()

	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	require.NoError(t, err)
	defer db.Close()

	tc, err := factory.NewTestConsensusWithDatabase(config, db)
	require.NoError(t, err)
	chain, err := tc.AddChain(params.GenesisHash, 5)
	require.NoError(t, err)
	commitment, err := tc.GetUTXOCommitment()
	require.NoError(t, err)

	restarted, err := factory.NewTestConsensusWithDatabase(config, db)
	require.NoError(t, err)
	tipHash, tipHeight, err := restarted.GetBestTip()
	require.NoError(t, err)
	require.True(t, tipHash.Equal(chain[4]))
	require.Equal(t, uint64(5), tipHeight)

	restartedCommitment, err := restarted.GetUTXOCommitment()
	require.NoError(t, err)
	require.True(t, restartedCommitment.Equal(commitment))
	require.NoError(t, restarted.VerifyUTXOCommitment())

	_, err = restarted.AddChain(chain[4], 1)
	require.NoError(t, err)
}

func TestOpenWithAnotherNetworkFails(t *testing.T) {
	factory := consensus.NewFactory()
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	require.NoError(t, err)
	defer db.Close()

	_, err = factory.NewTestConsensusWithDatabase(consensus.NewConfig(&dagconfig.SimnetParams), db)
	require.NoError(t, err)
	_, err = factory.NewTestConsensusWithDatabase(consensus.NewConfig(&dagconfig.DevnetParams), db)
	require.Error(t, err)
}

func TestValidateTransaction(t *testing.T) {
	params := dagconfig.SimnetParams
	params.BlockCoinbaseMaturity = 1
	tc := newTestConsensus(t, &params, "TestValidateTransaction")
	genesisOutpoint := genesisCoinbaseOutpoint(&params)

	transaction := spendOutput(genesisOutpoint, params.BaseSubsidy-500)
	err := tc.ValidateTransactionAndPopulateWithConsensusData(context.Background(), transaction)
	require.NoError(t, err)
	require.Equal(t, uint64(500), transaction.Fee)

	_, _, err = tc.AddBlock(params.GenesisHash, []*externalapi.DomainTransaction{transaction})
	require.NoError(t, err)

	doubleSpend := spendOutput(genesisOutpoint, params.BaseSubsidy-600)
	err = tc.ValidateTransactionAndPopulateWithConsensusData(context.Background(), doubleSpend)
	require.True(t, ruleerrors.IsRuleError(err), "unexpected error: %+v", err)
	var missingTxOut *ruleerrors.ErrMissingTxOut
	require.True(t, errors.As(err, &missingTxOut), "unexpected error: %+v", err)
}

func TestRollbackHorizon(t *testing.T) {
	params := dagconfig.SimnetParams
	params.RollbackHorizon = 2
	tc := newTestConsensus(t, &params, "TestRollbackHorizon")

	activeChain, err := tc.AddChain(params.GenesisHash, 5)
	require.NoError(t, err)

	undoDataStore := undodatastore.New()
	for height, hash := range activeChain {
		hasUndoData, err := undoDataStore.Has(tc.DatabaseContext(), model.NewStagingArea(), hash)
		require.NoError(t, err)
		expected := uint64(height+1) > uint64(len(activeChain))-params.RollbackHorizon-1
		require.Equalf(t, expected, hasUndoData, "undo data of the block at height %d", height+1)
	}

	_, _, err = tc.AddBlock(activeChain[1], nil)
	require.True(t, errors.Is(err, ruleerrors.ErrReorgTooDeep), "unexpected error: %+v", err)

	// Forking exactly at the horizon is still allowed, and reorganizing
	// onto that fork uses the undo data that was kept.
	sideChain, err := tc.AddChain(activeChain[2], 3)
	require.NoError(t, err)
	requireTip(t, tc, sideChain[2])
	require.NoError(t, tc.VerifyUTXOCommitment())
}
