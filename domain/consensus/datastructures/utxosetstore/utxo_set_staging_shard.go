package utxosetstore

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
)

type utxoSetStagingShard struct {
	store    *utxoSetStore
	toAdd    model.UTXOCollection
	toRemove model.UTXOCollection
}

func (uss *utxoSetStore) stagingShard(stagingArea *model.StagingArea) *utxoSetStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDUTXOSet, func() model.StagingShard {
		return &utxoSetStagingShard{
			store:    uss,
			toAdd:    make(model.UTXOCollection),
			toRemove: make(model.UTXOCollection),
		}
	}).(*utxoSetStagingShard)
}

func (usss *utxoSetStagingShard) Commit(dbTx model.DBTransaction) error {
	for outpoint := range usss.toRemove {
		err := dbTx.Delete(usss.store.outpointAsKey(&outpoint))
		if err != nil {
			return err
		}
	}

	for outpoint, entry := range usss.toAdd {
		entryBytes, err := utxo.SerializeUTXOEntry(entry)
		if err != nil {
			return err
		}
		err = dbTx.Put(usss.store.outpointAsKey(&outpoint), entryBytes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (usss *utxoSetStagingShard) AfterCommit() {
	for outpoint := range usss.toRemove {
		usss.store.cache.Remove(&outpoint)
	}
	for outpoint, entry := range usss.toAdd {
		usss.store.cache.Add(&outpoint, entry)
	}
}

func (usss *utxoSetStagingShard) get(outpoint *externalapi.DomainOutpoint) (entry externalapi.UTXOEntry, isStaged bool) {
	if entry, ok := usss.toAdd[*outpoint]; ok {
		return entry, true
	}
	if _, ok := usss.toRemove[*outpoint]; ok {
		return nil, true
	}
	return nil, false
}
