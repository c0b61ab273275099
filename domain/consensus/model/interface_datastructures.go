package model

import "github.com/zmgnet/zmgd/domain/consensus/model/externalapi"

// BlockStore represents a store of blocks
type BlockStore interface {
	Stage(stagingArea *StagingArea, blockHash *externalapi.DomainHash, block *externalapi.DomainBlock)
	Block(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error)
	HasBlock(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
}

// BlockIndexStore represents a store of block index records
type BlockIndexStore interface {
	Stage(stagingArea *StagingArea, record *BlockIndexRecord)
	Get(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*BlockIndexRecord, error)
	All(dbContext DBReader) ([]*BlockIndexRecord, error)
}

// UTXOSetStore represents a store of the UTXO set at the chain tip
type UTXOSetStore interface {
	StageDiff(stagingArea *StagingArea, diff *UTXODiff)
	Get(dbContext DBReader, stagingArea *StagingArea, outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error)
	Reader(dbContext DBReader, stagingArea *StagingArea) UTXOReader
	Iterator(dbContext DBReader) (UTXOIterator, error)
}

// UndoDataStore represents a store of the undo data of connected blocks
type UndoDataStore interface {
	Stage(stagingArea *StagingArea, blockHash *externalapi.DomainHash, undoData *UndoData)
	UndoData(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (*UndoData, error)
	Has(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (bool, error)
	Delete(stagingArea *StagingArea, blockHash *externalapi.DomainHash)
}

// MultisetStore represents a store of the UTXO set commitments of
// connected blocks
type MultisetStore interface {
	Stage(stagingArea *StagingArea, blockHash *externalapi.DomainHash, multiset Multiset)
	Get(dbContext DBReader, stagingArea *StagingArea, blockHash *externalapi.DomainHash) (Multiset, error)
	Delete(stagingArea *StagingArea, blockHash *externalapi.DomainHash)
}

// ConsensusStateStore represents a store for the active chain tip
type ConsensusStateStore interface {
	StageTip(stagingArea *StagingArea, tipHash *externalapi.DomainHash)
	Tip(dbContext DBReader, stagingArea *StagingArea) (*externalapi.DomainHash, error)
	HasTip(dbContext DBReader, stagingArea *StagingArea) (bool, error)
}
