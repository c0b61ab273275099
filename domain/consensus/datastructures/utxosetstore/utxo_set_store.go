package utxosetstore

import (
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxolrucache"
)

var bucket = database.MakeBucket([]byte("utxo-set"))

// utxoSetStore is the authoritative UTXO set at the chain tip, backed by
// the database with a bounded cache in front of it. The cache is only
// updated after the database transaction holding a change was committed.
type utxoSetStore struct {
	cache *utxolrucache.LRUCache
}

// New instantiates a new UTXOSetStore
func New(cacheSize int) (model.UTXOSetStore, error) {
	cache, err := utxolrucache.New(cacheSize)
	if err != nil {
		return nil, err
	}
	return &utxoSetStore{cache: cache}, nil
}

// StageDiff stages the changes a UTXO view made to the set. Outpoints
// removed by one diff and re-added by a later one end up added.
func (uss *utxoSetStore) StageDiff(stagingArea *model.StagingArea, diff *model.UTXODiff) {
	stagingShard := uss.stagingShard(stagingArea)

	for outpoint, entry := range diff.ToRemove {
		if _, ok := stagingShard.toAdd[outpoint]; ok {
			delete(stagingShard.toAdd, outpoint)
			continue
		}
		stagingShard.toRemove[outpoint] = entry
	}
	for outpoint, entry := range diff.ToAdd {
		stagingShard.toAdd[outpoint] = entry
	}
}

// Get returns the entry of outpoint, and whether it exists
func (uss *utxoSetStore) Get(dbContext model.DBReader, stagingArea *model.StagingArea,
	outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error) {

	stagingShard := uss.stagingShard(stagingArea)
	if entry, isStaged := stagingShard.get(outpoint); isStaged {
		return entry, entry != nil, nil
	}

	if entry, ok := uss.cache.Get(outpoint); ok {
		return entry, true, nil
	}

	entryBytes, err := dbContext.Get(uss.outpointAsKey(outpoint))
	if err != nil {
		if database.IsNotFoundError(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	entry, err := utxo.DeserializeUTXOEntry(entryBytes)
	if err != nil {
		return nil, false, err
	}
	uss.cache.Add(outpoint, entry)
	return entry, true, nil
}

// Reader returns a UTXOReader over the set as seen from stagingArea
func (uss *utxoSetStore) Reader(dbContext model.DBReader, stagingArea *model.StagingArea) model.UTXOReader {
	return &reader{
		store:       uss,
		dbContext:   dbContext,
		stagingArea: stagingArea,
	}
}

type reader struct {
	store       *utxoSetStore
	dbContext   model.DBReader
	stagingArea *model.StagingArea
}

func (r *reader) Get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error) {
	return r.store.Get(r.dbContext, r.stagingArea, outpoint)
}

// Iterator iterates over the committed UTXO set
func (uss *utxoSetStore) Iterator(dbContext model.DBReader) (model.UTXOIterator, error) {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return nil, err
	}
	return &utxoSetIterator{cursor: cursor}, nil
}

func (uss *utxoSetStore) outpointAsKey(outpoint *externalapi.DomainOutpoint) model.DBKey {
	return bucket.Key(utxo.SerializeOutpoint(outpoint))
}
