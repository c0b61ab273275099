package blockprocessor

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
)

// blockProcessor is responsible for processing incoming blocks
type blockProcessor struct {
	rollbackHorizon uint64

	blockValidator    model.BlockValidator
	chainStateManager model.ChainStateManager
}

// New instantiates a new BlockProcessor
func New(
	rollbackHorizon uint64,
	blockValidator model.BlockValidator,
	chainStateManager model.ChainStateManager) model.BlockProcessor {

	return &blockProcessor{
		rollbackHorizon:   rollbackHorizon,
		blockValidator:    blockValidator,
		chainStateManager: chainStateManager,
	}
}
