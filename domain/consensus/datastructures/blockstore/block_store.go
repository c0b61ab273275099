package blockstore

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
)

var bucket = database.MakeBucket([]byte("blocks"))

// blockStore represents a store of blocks
type blockStore struct {
	cache *lru.Cache[externalapi.DomainHash, *externalapi.DomainBlock]
}

// New instantiates a new BlockStore
func New(cacheSize int) (model.BlockStore, error) {
	cache, err := lru.New[externalapi.DomainHash, *externalapi.DomainBlock](cacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create a block cache of %d entries", cacheSize)
	}
	return &blockStore{cache: cache}, nil
}

// Stage stages the given block for the given blockHash
func (bs *blockStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) {
	stagingShard := bs.stagingShard(stagingArea)
	stagingShard.toAdd[*blockHash] = block.Clone()
}

// Block gets the block associated with the given blockHash
func (bs *blockStore) Block(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {

	stagingShard := bs.stagingShard(stagingArea)
	if block, ok := stagingShard.toAdd[*blockHash]; ok {
		return block.Clone(), nil
	}

	if block, ok := bs.cache.Get(*blockHash); ok {
		return block.Clone(), nil
	}

	blockBytes, err := dbContext.Get(bs.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	block, err := bs.deserializeBlock(blockBytes)
	if err != nil {
		return nil, err
	}
	bs.cache.Add(*blockHash, block)
	return block.Clone(), nil
}

// HasBlock returns whether a block with a given hash exists in the store.
func (bs *blockStore) HasBlock(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (bool, error) {

	stagingShard := bs.stagingShard(stagingArea)
	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		return true, nil
	}

	if bs.cache.Contains(*blockHash) {
		return true, nil
	}

	return dbContext.Has(bs.hashAsKey(blockHash))
}

func (bs *blockStore) serializeBlock(block *externalapi.DomainBlock) []byte {
	return serialization.BlockToBytes(block)
}

func (bs *blockStore) deserializeBlock(blockBytes []byte) (*externalapi.DomainBlock, error) {
	block, err := serialization.DeserializeBlock(blockBytes)
	if err != nil {
		return nil, errors.Wrap(err, "stored block is corrupted")
	}
	return block, nil
}

func (bs *blockStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bucket.Key(hash.ByteSlice())
}
