package consensusstatestore

import (
	"sync/atomic"

	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/database/binaryserialization"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

var tipKey = database.MakeBucket(nil).Key([]byte("tip"))

// consensusStateStore represents a store for the active chain tip
type consensusStateStore struct {
	tipCache atomic.Pointer[externalapi.DomainHash]
}

// New instantiates a new ConsensusStateStore
func New() model.ConsensusStateStore {
	return &consensusStateStore{}
}

// StageTip stages the hash of the active chain tip
func (css *consensusStateStore) StageTip(stagingArea *model.StagingArea, tipHash *externalapi.DomainHash) {
	stagingShard := css.stagingShard(stagingArea)
	tipClone := *tipHash
	stagingShard.newTip = &tipClone
}

// Tip returns the hash of the active chain tip
func (css *consensusStateStore) Tip(dbContext model.DBReader, stagingArea *model.StagingArea) (*externalapi.DomainHash, error) {
	stagingShard := css.stagingShard(stagingArea)
	if stagingShard.newTip != nil {
		return stagingShard.newTip, nil
	}

	if tip := css.tipCache.Load(); tip != nil {
		return tip, nil
	}

	tipBytes, err := dbContext.Get(tipKey)
	if err != nil {
		return nil, err
	}
	tip, err := binaryserialization.DeserializeHash(tipBytes)
	if err != nil {
		return nil, err
	}
	css.tipCache.Store(tip)
	return tip, nil
}

// HasTip returns whether a tip was ever committed
func (css *consensusStateStore) HasTip(dbContext model.DBReader, stagingArea *model.StagingArea) (bool, error) {
	stagingShard := css.stagingShard(stagingArea)
	if stagingShard.newTip != nil {
		return true, nil
	}
	if css.tipCache.Load() != nil {
		return true, nil
	}
	return dbContext.Has(tipKey)
}
