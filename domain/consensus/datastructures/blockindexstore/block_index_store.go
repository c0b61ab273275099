package blockindexstore

import (
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/database/binaryserialization"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

var bucket = database.MakeBucket([]byte("block-index"))

// blockIndexStore represents a store of block index records. The block
// index arena itself is kept in memory by the chain state manager, so the
// store holds no cache of its own.
type blockIndexStore struct{}

// New instantiates a new BlockIndexStore
func New() model.BlockIndexStore {
	return &blockIndexStore{}
}

// Stage stages the given record, replacing any record staged before for
// the same block
func (bis *blockIndexStore) Stage(stagingArea *model.StagingArea, record *model.BlockIndexRecord) {
	stagingShard := bis.stagingShard(stagingArea)
	recordClone := *record
	stagingShard.toAdd[*record.Hash] = &recordClone
}

// Get gets the record of the given block
func (bis *blockIndexStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*model.BlockIndexRecord, error) {

	stagingShard := bis.stagingShard(stagingArea)
	if record, ok := stagingShard.toAdd[*blockHash]; ok {
		recordClone := *record
		return &recordClone, nil
	}

	recordBytes, err := dbContext.Get(bis.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}
	return bis.deserializeRecord(recordBytes)
}

// All returns every committed record, in no particular order
func (bis *blockIndexStore) All(dbContext model.DBReader) ([]*model.BlockIndexRecord, error) {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	records := make([]*model.BlockIndexRecord, 0)
	for cursor.Next() {
		recordBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		record, err := bis.deserializeRecord(recordBytes)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (bis *blockIndexStore) serializeRecord(record *model.BlockIndexRecord) ([]byte, error) {
	return binaryserialization.SerializeBlockIndexRecord(record)
}

func (bis *blockIndexStore) deserializeRecord(recordBytes []byte) (*model.BlockIndexRecord, error) {
	return binaryserialization.DeserializeBlockIndexRecord(recordBytes)
}

func (bis *blockIndexStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bucket.Key(hash.ByteSlice())
}
