package model

import (
	"context"
	"math/big"

	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
)

// TransactionValidator exposes a set of validation classes, after which
// it's possible to determine whether a transaction is valid
type TransactionValidator interface {
	ValidateTransactionInIsolation(transaction *externalapi.DomainTransaction) error
	ValidateTransactionInContextAndPopulateFee(ctx context.Context, transaction *externalapi.DomainTransaction,
		utxoReader UTXOReader, povHeight uint64, povMedianTime int64) error
	ValidateTransaction(ctx context.Context, transaction *externalapi.DomainTransaction,
		utxoReader UTXOReader, povHeight uint64, povMedianTime int64) externalapi.Verdict
}

// BlockValidator exposes a set of validation classes, after which
// it's possible to determine whether a block is valid
type BlockValidator interface {
	ValidateHeaderInIsolation(header *externalapi.DomainBlockHeader) error
	ValidateBodyInIsolation(block *externalapi.DomainBlock) error
	ValidateBlockInIsolation(block *externalapi.DomainBlock) error
	ValidateHeaderInContext(parent *blocknode.Node, header *externalapi.DomainBlockHeader) error
	ValidateBlockInContext(parent *blocknode.Node, block *externalapi.DomainBlock) error
	ValidateBodyInContextAndApply(ctx context.Context, block *externalapi.DomainBlock,
		parent *blocknode.Node, view UTXOView) (*UndoData, error)
}

// DifficultyManager provides a method to resolve the
// difficulty value of a block
type DifficultyManager interface {
	RequiredBits(parent *blocknode.Node) uint32
}

// PastMedianTimeManager provides a method to resolve the
// past median time of a block
type PastMedianTimeManager interface {
	PastMedianTime(parent *blocknode.Node) int64
}

// ChainStateManager manages the active chain and the UTXO set at its tip
type ChainStateManager interface {
	Init() error
	BlockIndex() *blocknode.Index
	Tip() *blocknode.Node
	ActiveChainBlockAtHeight(height uint64) (*blocknode.Node, bool)
	IsInActiveChain(node *blocknode.Node) bool
	UTXOEntry(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error)
	UTXOCommitment() (*externalapi.DomainHash, error)
	VerifyUTXOCommitment() error

	AddNode(node *blocknode.Node, block *externalapi.DomainBlock, status externalapi.BlockStatus) error
	MarkInvalid(node *blocknode.Node) error
	ResolveTip(ctx context.Context) (*TipResolution, error)
	CancelEvaluationsWorseThan(cumulativeWork *big.Int)

	Halted() error
}

// BlockProcessor is responsible for processing incoming blocks
type BlockProcessor interface {
	ValidateBlockInIsolation(block *externalapi.DomainBlock) error
	ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock,
		isolationErr error) (*externalapi.BlockInsertionResult, error)
}
