package txindex

import (
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/database/binaryserialization"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

var bucket = database.MakeBucket([]byte("tx-index"))

type txIndexStagingShard struct {
	toAdd    map[externalapi.DomainTransactionID]*externalapi.DomainHash
	toRemove map[externalapi.DomainTransactionID]struct{}
}

func stagingShard(stagingArea *model.StagingArea) *txIndexStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDTXIndex, func() model.StagingShard {
		return &txIndexStagingShard{
			toAdd:    make(map[externalapi.DomainTransactionID]*externalapi.DomainHash),
			toRemove: make(map[externalapi.DomainTransactionID]struct{}),
		}
	}).(*txIndexStagingShard)
}

func (shard *txIndexStagingShard) add(transactionID *externalapi.DomainTransactionID, blockHash *externalapi.DomainHash) {
	delete(shard.toRemove, *transactionID)
	shard.toAdd[*transactionID] = blockHash
}

func (shard *txIndexStagingShard) remove(transactionID *externalapi.DomainTransactionID) {
	delete(shard.toAdd, *transactionID)
	shard.toRemove[*transactionID] = struct{}{}
}

func (shard *txIndexStagingShard) Commit(dbTx model.DBTransaction) error {
	for transactionID := range shard.toRemove {
		err := dbTx.Delete(transactionIDAsKey(&transactionID))
		if err != nil {
			return err
		}
	}
	for transactionID, blockHash := range shard.toAdd {
		err := dbTx.Put(transactionIDAsKey(&transactionID), binaryserialization.SerializeHash(blockHash))
		if err != nil {
			return err
		}
	}
	return nil
}

func (shard *txIndexStagingShard) AfterCommit() {}

func transactionIDAsKey(transactionID *externalapi.DomainTransactionID) model.DBKey {
	return bucket.Key(transactionID.ByteSlice())
}
