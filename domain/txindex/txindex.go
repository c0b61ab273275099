package txindex

import (
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/database/binaryserialization"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
)

// TXIndex maintains an index between the IDs of transactions confirmed on
// the active chain and the hashes of the blocks containing them
type TXIndex struct {
	dbContext model.DBReader
}

// New creates a new TX index reading from dbContext
func New(dbContext model.DBReader) *TXIndex {
	return &TXIndex{dbContext: dbContext}
}

// StageChainChanges stages the index updates for the given chain changes
func (ti *TXIndex) StageChainChanges(_ model.DBReader, stagingArea *model.StagingArea,
	removed []*model.ChainBlock, added []*model.ChainBlock) error {

	shard := stagingShard(stagingArea)
	for _, chainBlock := range removed {
		for _, transactionID := range consensushashing.TransactionIDs(chainBlock.Block.Transactions) {
			shard.remove(transactionID)
		}
	}
	for _, chainBlock := range added {
		for _, transactionID := range consensushashing.TransactionIDs(chainBlock.Block.Transactions) {
			shard.add(transactionID, chainBlock.Hash)
		}
	}
	log.Tracef("Staged the transactions of %d removed and %d added blocks", len(removed), len(added))
	return nil
}

// BlockHashOf returns the hash of the active chain block containing the
// given transaction, and whether there is one
func (ti *TXIndex) BlockHashOf(transactionID *externalapi.DomainTransactionID) (*externalapi.DomainHash, bool, error) {
	blockHashBytes, err := ti.dbContext.Get(transactionIDAsKey(transactionID))
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	blockHash, err := binaryserialization.DeserializeHash(blockHashBytes)
	if err != nil {
		return nil, false, err
	}
	return blockHash, true, nil
}
