package externalapi

import (
	"context"
	"math/big"
)

// Consensus maintains the current core state of the node
type Consensus interface {
	ValidateAndInsertBlock(ctx context.Context, block *DomainBlock) (*BlockInsertionResult, error)
	ValidateTransactionAndPopulateWithConsensusData(ctx context.Context, transaction *DomainTransaction) error

	GetBlock(blockHash *DomainHash) (*DomainBlock, error)
	GetBlockInfo(blockHash *DomainHash) (*BlockInfo, error)
	GetBestTip() (hash *DomainHash, height uint64, err error)
	GetBlockHashByHeight(height uint64) (*DomainHash, error)
	GetUTXOEntry(outpoint *DomainOutpoint) (UTXOEntry, bool, error)
	GetUTXOCommitment() (*DomainHash, error)
	VerifyUTXOCommitment() error

	// Halted returns the storage failure that stopped chain mutation,
	// or nil.
	Halted() error
}

// BlockInsertionResult is the result of inserting a block
type BlockInsertionResult struct {
	Status       BlockStatus
	ChainChanges *ChainChanges
}

// ChainChanges is the set of blocks removed from and added to the active
// chain by an insertion. Removed is ordered from the old tip down, Added
// from the fork point up.
type ChainChanges struct {
	Removed []*DomainHash
	Added   []*DomainHash
}

// IsEmpty returns whether the active chain did not change
func (cc *ChainChanges) IsEmpty() bool {
	return cc == nil || (len(cc.Removed) == 0 && len(cc.Added) == 0)
}

// BlockInfo contains various information about a specific block
type BlockInfo struct {
	Exists          bool
	Status          BlockStatus
	Height          uint64
	CumulativeWork  *big.Int
	IsInActiveChain bool
}
