package multisetstore

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/multiset"
)

var bucket = database.MakeBucket([]byte("multisets"))

// multisetStore represents a store of the UTXO set commitments of
// connected blocks
type multisetStore struct {
	cache *lru.Cache[externalapi.DomainHash, model.Multiset]
}

// New instantiates a new MultisetStore
func New(cacheSize int) (model.MultisetStore, error) {
	cache, err := lru.New[externalapi.DomainHash, model.Multiset](cacheSize)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create a multiset cache of %d entries", cacheSize)
	}
	return &multisetStore{cache: cache}, nil
}

// Stage stages the given multiset for the given blockHash
func (ms *multisetStore) Stage(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash, multiset model.Multiset) {
	stagingShard := ms.stagingShard(stagingArea)
	delete(stagingShard.toDelete, *blockHash)
	stagingShard.toAdd[*blockHash] = multiset.Clone()
}

// Get gets the multiset associated with the given blockHash
func (ms *multisetStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea,
	blockHash *externalapi.DomainHash) (model.Multiset, error) {

	stagingShard := ms.stagingShard(stagingArea)
	if multiset, ok := stagingShard.toAdd[*blockHash]; ok {
		return multiset.Clone(), nil
	}
	if _, ok := stagingShard.toDelete[*blockHash]; ok {
		return nil, errors.Wrapf(database.ErrNotFound, "the multiset of %s is staged for deletion", blockHash)
	}

	if multiset, ok := ms.cache.Get(*blockHash); ok {
		return multiset.Clone(), nil
	}

	multisetBytes, err := dbContext.Get(ms.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}

	deserialized, err := multiset.FromBytes(multisetBytes)
	if err != nil {
		return nil, err
	}
	ms.cache.Add(*blockHash, deserialized)
	return deserialized.Clone(), nil
}

// Delete deletes the multiset associated with the given blockHash
func (ms *multisetStore) Delete(stagingArea *model.StagingArea, blockHash *externalapi.DomainHash) {
	stagingShard := ms.stagingShard(stagingArea)
	if _, ok := stagingShard.toAdd[*blockHash]; ok {
		delete(stagingShard.toAdd, *blockHash)
		return
	}
	stagingShard.toDelete[*blockHash] = struct{}{}
}

func (ms *multisetStore) hashAsKey(hash *externalapi.DomainHash) model.DBKey {
	return bucket.Key(hash.ByteSlice())
}
