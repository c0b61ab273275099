package undodatastore

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/database/binaryserialization"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

var bucket = database.MakeBucket([]byte("undo-data"))

// undoDataStore represents a store of the undo data of connected blocks
type undoDataStore struct{}

// New instantiates a new UndoDataStore
func New() model.UndoDataStore {
	return &undoDataStore{}
}

// Stage stages the undo data of the given block
func (uds *undoDataStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash, undoData *model.UndoData) {
	stagingShard := uds.stagingShard(stagingArea)
	delete(stagingShard.toDelete, *blockHash)
	stagingShard.toAdd[*blockHash] = undoData
}

// UndoData gets the undo data of the given block
func (uds *undoDataStore) UndoData(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*model.UndoData, error) {

	stagingShard := uds.stagingShard(stagingArea)
	if undoData, ok := stagingShard.toAdd[*blockHash]; ok {
		return undoData, nil
	}
	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "the undo data of %s is staged for deletion", blockHash)
	}

	undoDataBytes, err := dbContext.Get(uds.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}
	return uds.deserializeUndoData(undoDataBytes)
}

// Has returns whether the undo data of the given block is stored
func (uds *undoDataStore) Has(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := uds.stagingShard(stagingArea)
	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}
	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return false, nil
	}
	return dbContext.Has(uds.hashAsKey(blockHash))
}

// Delete stages the deletion of the undo data of the given block
func (uds *undoDataStore) Delete(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) {
	stagingShard := uds.stagingShard(stagingArea)
	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		delete(stagingShard.toAdd, *blockHash)
		return
	}
	stagingShard.toDelete[*blockHash] = struct{}{}
}

func (uds *undoDataStore) serializeUndoData(undoData *model.UndoData) ([]byte, error) {
	return binaryserialization.SerializeUndoData(undoData)
}

func (uds *undoDataStore) deserializeUndoData(undoDataBytes []byte) (*model.UndoData, error) {
	return binaryserialization.DeserializeUndoData(undoDataBytes)
}

func (uds *undoDataStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bucket.Key(hash.ByteSlice())
}
