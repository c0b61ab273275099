package undodatastore

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

type undoDataStagingShard struct {
	store    *undoDataStore
	toAdd    map[externalapi.DomainHash]*model.UndoData
	toDelete map[externalapi.DomainHash]struct{}
}

func (uds *undoDataStore) stagingShard(stagingArea *model.StagingArea) *undoDataStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDUndoData, func() model.StagingShard {
		return &undoDataStagingShard{
			store:    uds,
			toAdd:    make(map[externalapi.DomainHash]*model.UndoData),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*undoDataStagingShard)
}

func (udss *undoDataStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, undoData := range udss.toAdd {
		undoDataBytes, err := udss.store.serializeUndoData(undoData)
		if err != nil {
			return err
		}
		err = dbTx.Put(udss.store.hashAsKey(&hash), undoDataBytes)
		if err != nil {
			return err
		}
	}

	for hash := range udss.toDelete {
		err := dbTx.Delete(udss.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
	}
	return nil
}

func (udss *undoDataStagingShard) AfterCommit() {}
