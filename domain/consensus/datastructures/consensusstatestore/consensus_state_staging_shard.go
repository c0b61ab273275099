package consensusstatestore

import (
	"github.com/zmgnet/zmgd/domain/consensus/database/binaryserialization"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

type consensusStateStagingShard struct {
	store  *consensusStateStore
	newTip *externalapi.DomainHash
}

func (css *consensusStateStore) stagingShard(stagingArea *model.StagingArea) *consensusStateStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDConsensusState, func() model.StagingShard {
		return &consensusStateStagingShard{store: css}
	}).(*consensusStateStagingShard)
}

func (csss *consensusStateStagingShard) Commit(dbTx model.DBTransaction) error {
	if csss.newTip == nil {
		return nil
	}
	return dbTx.Put(tipKey, binaryserialization.SerializeHash(csss.newTip))
}

func (csss *consensusStateStagingShard) AfterCommit() {
	if csss.newTip == nil {
		return
	}
	csss.store.tipCache.Store(csss.newTip)
}
