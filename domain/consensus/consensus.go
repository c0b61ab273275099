package consensus

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/difficulty"
)

type consensus struct {
	// lock is the single writer lock. Everything that connects,
	// disconnects or commits holds it; reads do not.
	lock            *sync.Mutex
	databaseContext model.DBManager

	blockProcessor        model.BlockProcessor
	blockValidator        model.BlockValidator
	chainStateManager     model.ChainStateManager
	transactionValidator  model.TransactionValidator
	difficultyManager     model.DifficultyManager
	pastMedianTimeManager model.PastMedianTimeManager

	blockStore model.BlockStore
}

// ValidateAndInsertBlock validates the given block and, if valid, applies it
// to the current state. Checks that need nothing but the block itself run
// before the writer lock is taken.
func (s *consensus) ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock) (
	*externalapi.BlockInsertionResult, error) {

	blockHash := consensushashing.BlockHash(block)

	var isolationErr error
	if !s.chainStateManager.BlockIndex().HaveBlock(blockHash) {
		isolationErr = s.blockProcessor.ValidateBlockInIsolation(block)
		if isolationErr == nil {
			s.preemptWorseEvaluations(block)
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockProcessor.ValidateAndInsertBlock(ctx, block, isolationErr)
}

// preemptWorseEvaluations cancels a running chain evaluation whose
// candidate has less work than the branch block would extend.
func (s *consensus) preemptWorseEvaluations(block *externalapi.DomainBlock) {
	parent, ok := s.chainStateManager.BlockIndex().LookupNode(&block.Header.ParentHash)
	if !ok {
		return
	}
	cumulativeWork := new(big.Int).Add(parent.CumulativeWork, difficulty.CalcWork(block.Header.Bits))
	s.chainStateManager.CancelEvaluationsWorseThan(cumulativeWork)
}

// ValidateTransactionAndPopulateWithConsensusData validates the given
// transaction as if it were included in the block after the tip, and
// populates its fee
func (s *consensus) ValidateTransactionAndPopulateWithConsensusData(ctx context.Context,
	transaction *externalapi.DomainTransaction) error {

	tip := s.chainStateManager.Tip()
	povMedianTime := s.pastMedianTimeManager.PastMedianTime(tip)
	verdict := s.transactionValidator.ValidateTransaction(ctx, transaction, utxoReader{s.chainStateManager},
		tip.Height+1, povMedianTime)
	if !verdict.Accepted {
		return verdict.Reason
	}
	return nil
}

type utxoReader struct {
	chainStateManager model.ChainStateManager
}

func (r utxoReader) Get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error) {
	return r.chainStateManager.UTXOEntry(outpoint)
}

func (s *consensus) GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	block, err := s.blockStore.Block(s.databaseContext, model.NewStagingArea(), blockHash)
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, errors.Wrapf(err, "block %s does not exist", blockHash)
		}
		return nil, err
	}
	return block, nil
}

func (s *consensus) GetBlockInfo(blockHash *externalapi.DomainHash) (*externalapi.BlockInfo, error) {
	blockIndex := s.chainStateManager.BlockIndex()
	node, ok := blockIndex.LookupNode(blockHash)
	if !ok {
		return &externalapi.BlockInfo{Exists: false}, nil
	}
	return &externalapi.BlockInfo{
		Exists:          true,
		Status:          blockIndex.Status(node),
		Height:          node.Height,
		CumulativeWork:  new(big.Int).Set(node.CumulativeWork),
		IsInActiveChain: s.chainStateManager.IsInActiveChain(node),
	}, nil
}

func (s *consensus) GetBestTip() (*externalapi.DomainHash, uint64, error) {
	tip := s.chainStateManager.Tip()
	return tip.Hash, tip.Height, nil
}

func (s *consensus) GetBlockHashByHeight(height uint64) (*externalapi.DomainHash, error) {
	node, ok := s.chainStateManager.ActiveChainBlockAtHeight(height)
	if !ok {
		return nil, errors.Wrapf(database.ErrNotFound, "the active chain has no block at height %d", height)
	}
	return node.Hash, nil
}

func (s *consensus) GetUTXOEntry(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error) {
	return s.chainStateManager.UTXOEntry(outpoint)
}

func (s *consensus) GetUTXOCommitment() (*externalapi.DomainHash, error) {
	return s.chainStateManager.UTXOCommitment()
}

func (s *consensus) VerifyUTXOCommitment() error {
	return s.chainStateManager.VerifyUTXOCommitment()
}

func (s *consensus) Halted() error {
	return s.chainStateManager.Halted()
}
