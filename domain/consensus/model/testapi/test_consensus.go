package testapi

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/dagconfig"
)

// TestConsensus wraps the Consensus interface with some methods that are needed by tests only
type TestConsensus interface {
	externalapi.Consensus

	Params() *dagconfig.Params
	DatabaseContext() model.DBManager
	ChainStateManager() model.ChainStateManager
	BlockValidator() model.BlockValidator

	// BuildBlock builds a solved block on parentHash holding a coinbase
	// that pays the block subsidy to an OP_TRUE script, followed by
	// transactions. The block is not inserted.
	BuildBlock(parentHash *externalapi.DomainHash,
		transactions []*externalapi.DomainTransaction) (*externalapi.DomainBlock, error)

	// AddBlock builds a block with BuildBlock and inserts it
	AddBlock(parentHash *externalapi.DomainHash, transactions []*externalapi.DomainTransaction) (
		*externalapi.DomainHash, *externalapi.BlockInsertionResult, error)

	// AddChain adds length empty blocks, each on top of the previous,
	// starting on parentHash, and returns their hashes in order
	AddChain(parentHash *externalapi.DomainHash, length int) ([]*externalapi.DomainHash, error)

	// SolveBlock recomputes the merkle root of block and finds a nonce
	// that meets its target. For blocks changed after BuildBlock.
	SolveBlock(block *externalapi.DomainBlock)
}
