package model

import "github.com/zmgnet/zmgd/domain/consensus/model/externalapi"

// ChainBlock is a block connected to or disconnected from the active chain
type ChainBlock struct {
	Hash     *externalapi.DomainHash
	Height   uint64
	Block    *externalapi.DomainBlock
	UndoData *UndoData
}

// ChainIndexer is an index kept in step with the active chain. Its updates
// are staged into the same staging area, and therefore the same database
// transaction, as the chain changes themselves.
type ChainIndexer interface {
	// StageChainChanges stages the disconnection of removed (ordered from
	// the old tip down) and then the connection of added (ordered from
	// the fork point up).
	StageChainChanges(dbContext DBReader, stagingArea *StagingArea, removed []*ChainBlock, added []*ChainBlock) error
}
