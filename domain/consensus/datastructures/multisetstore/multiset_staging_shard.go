package multisetstore

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

type multisetStagingShard struct {
	store    *multisetStore
	toAdd    map[externalapi.DomainHash]model.Multiset
	toDelete map[externalapi.DomainHash]struct{}
}

func (ms *multisetStore) stagingShard(stagingArea *model.StagingArea) *multisetStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDMultiset, func() model.StagingShard {
		return &multisetStagingShard{
			store:    ms,
			toAdd:    make(map[externalapi.DomainHash]model.Multiset),
			toDelete: make(map[externalapi.DomainHash]struct{}),
		}
	}).(*multisetStagingShard)
}

func (mss *multisetStagingShard) Commit(dbTx model.DBTransaction) error {
	for hash, multiset := range mss.toAdd {
		err := dbTx.Put(mss.store.hashAsKey(&hash), multiset.Serialize())
		if err != nil {
			return err
		}
	}

	for hash := range mss.toDelete {
		err := dbTx.Delete(mss.store.hashAsKey(&hash))
		if err != nil {
			return err
		}
	}
	return nil
}

func (mss *multisetStagingShard) AfterCommit() {
	for hash, multiset := range mss.toAdd {
		mss.store.cache.Add(hash, multiset)
	}
	for hash := range mss.toDelete {
		mss.store.cache.Remove(hash)
	}
}
