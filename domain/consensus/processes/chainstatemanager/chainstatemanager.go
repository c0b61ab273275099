package chainstatemanager

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
)

// chainStateManager owns the active chain: the block index, the tip and
// the UTXO set at the tip. Every mutation goes through one staging area
// committed in a single database transaction. Callers are expected to
// serialize mutating calls; reads may happen concurrently.
type chainStateManager struct {
	genesisBlock    *externalapi.DomainBlock
	rollbackHorizon uint64
	databaseContext model.DBManager

	blockValidator model.BlockValidator

	blockStore          model.BlockStore
	blockIndexStore     model.BlockIndexStore
	utxoSetStore        model.UTXOSetStore
	undoDataStore       model.UndoDataStore
	multisetStore       model.MultisetStore
	consensusStateStore model.ConsensusStateStore

	indexers []model.ChainIndexer

	blockIndex *blocknode.Index

	// stateLock guards tip and activeChain, and is held for writing
	// while a change is committed so readers never see a half-applied
	// one.
	stateLock   sync.RWMutex
	tip         *blocknode.Node
	activeChain []*blocknode.Node

	haltLock sync.RWMutex
	haltErr  error

	evaluationLock    sync.Mutex
	currentEvaluation *evaluation
}

type evaluation struct {
	cumulativeWork *big.Int
	cancel         context.CancelCauseFunc
}

// New instantiates a new ChainStateManager
func New(
	databaseContext model.DBManager,
	genesisBlock *externalapi.DomainBlock,
	rollbackHorizon uint64,

	blockValidator model.BlockValidator,

	blockStore model.BlockStore,
	blockIndexStore model.BlockIndexStore,
	utxoSetStore model.UTXOSetStore,
	undoDataStore model.UndoDataStore,
	multisetStore model.MultisetStore,
	consensusStateStore model.ConsensusStateStore,

	indexers []model.ChainIndexer) model.ChainStateManager {

	return &chainStateManager{
		genesisBlock:    genesisBlock,
		rollbackHorizon: rollbackHorizon,
		databaseContext: databaseContext,

		blockValidator: blockValidator,

		blockStore:          blockStore,
		blockIndexStore:     blockIndexStore,
		utxoSetStore:        utxoSetStore,
		undoDataStore:       undoDataStore,
		multisetStore:       multisetStore,
		consensusStateStore: consensusStateStore,

		indexers: indexers,

		blockIndex: blocknode.NewIndex(),
	}
}

func (csm *chainStateManager) BlockIndex() *blocknode.Index {
	return csm.blockIndex
}

func (csm *chainStateManager) Tip() *blocknode.Node {
	csm.stateLock.RLock()
	defer csm.stateLock.RUnlock()
	return csm.tip
}

func (csm *chainStateManager) ActiveChainBlockAtHeight(height uint64) (*blocknode.Node, bool) {
	csm.stateLock.RLock()
	defer csm.stateLock.RUnlock()
	if height >= uint64(len(csm.activeChain)) {
		return nil, false
	}
	return csm.activeChain[height], true
}

func (csm *chainStateManager) IsInActiveChain(node *blocknode.Node) bool {
	csm.stateLock.RLock()
	defer csm.stateLock.RUnlock()
	return csm.isInActiveChainNoLock(node)
}

func (csm *chainStateManager) isInActiveChainNoLock(node *blocknode.Node) bool {
	return node.Height < uint64(len(csm.activeChain)) && csm.activeChain[node.Height] == node
}

// UTXOEntry returns the entry of outpoint in the UTXO set at the tip
func (csm *chainStateManager) UTXOEntry(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error) {
	csm.stateLock.RLock()
	defer csm.stateLock.RUnlock()
	return csm.utxoSetStore.Get(csm.databaseContext, model.NewStagingArea(), outpoint)
}

// setTipNoLock moves the tip to newTip, whose ancestor fork is already in
// the active chain.
func (csm *chainStateManager) setTipNoLock(newTip *blocknode.Node) {
	chain := make([]*blocknode.Node, newTip.Height+1)
	node := newTip
	for ; node != nil && !csm.isInActiveChainNoLock(node); node = node.Parent {
		chain[node.Height] = node
	}
	if node != nil {
		copy(chain, csm.activeChain[:node.Height+1])
	}
	csm.activeChain = chain
	csm.tip = newTip
}

// Halted returns the storage failure that stopped chain mutation, or nil
func (csm *chainStateManager) Halted() error {
	csm.haltLock.RLock()
	defer csm.haltLock.RUnlock()
	return csm.haltErr
}

func (csm *chainStateManager) checkNotHalted() error {
	if haltErr := csm.Halted(); haltErr != nil {
		return errors.Wrap(haltErr, "chain state is halted")
	}
	return nil
}

// halt stops chain mutation after a storage failure. The in-memory state
// may no longer match the database, so the only way out is a restart.
func (csm *chainStateManager) halt(err error) error {
	csm.haltLock.Lock()
	defer csm.haltLock.Unlock()
	if csm.haltErr == nil {
		csm.haltErr = err
		log.Criticalf("Chain state halted after a storage failure: %+v", err)
	}
	return err
}

func recordFromNode(node *blocknode.Node, status externalapi.BlockStatus) *model.BlockIndexRecord {
	var parentHash *externalapi.DomainHash
	if node.Parent != nil {
		parentHash = node.Parent.Hash
	}
	return &model.BlockIndexRecord{
		Hash:               node.Hash,
		ParentHash:         parentHash,
		Height:             node.Height,
		CumulativeWork:     node.CumulativeWork,
		Sequence:           node.Sequence,
		Bits:               node.Bits,
		TimeInMilliseconds: node.TimeInMilliseconds,
		Status:             status,
	}
}

func findFork(a, b *blocknode.Node) *blocknode.Node {
	for a.Height > b.Height {
		a = a.Parent
	}
	for b.Height > a.Height {
		b = b.Parent
	}
	for a != b {
		a = a.Parent
		b = b.Parent
	}
	return a
}
