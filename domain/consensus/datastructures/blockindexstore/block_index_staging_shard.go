package blockindexstore

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

type blockIndexStagingShard struct {
	store *blockIndexStore
	toAdd map[externalapi.DomainHash]*model.BlockIndexRecord
}

func (bis *blockIndexStore) stagingShard(stagingArea *model.StagingArea) *blockIndexStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDBlockIndex, func() model.StagingShard {
		return &blockIndexStagingShard{
			store: bis,
			toAdd: make(map[externalapi.DomainHash]*model.BlockIndexRecord),
		}
	}).(*blockIndexStagingShard)
}

func (biss *blockIndexStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, record := range biss.toAdd {
		recordBytes, err := biss.store.serializeRecord(record)
		if err != nil {
			return err
		}
		err = dbTx.Put(biss.store.hashAsKey(&hash), recordBytes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (biss *blockIndexStagingShard) AfterCommit() {}
