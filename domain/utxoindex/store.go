package utxoindex

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
)

var bucket = database.MakeBucket([]byte("utxo-index"))

type utxoIndexStagingShard struct {
	toAdd    map[indexKey]externalapi.UTXOEntry
	toRemove map[indexKey]externalapi.UTXOEntry
}

func stagingShard(stagingArea *model.StagingArea) *utxoIndexStagingShard {
	return stagingArea.GetOrCreateShard(model.StagingShardIDUTXOIndex, func() model.StagingShard {
		return &utxoIndexStagingShard{
			toAdd:    make(map[indexKey]externalapi.UTXOEntry),
			toRemove: make(map[indexKey]externalapi.UTXOEntry),
		}
	}).(*utxoIndexStagingShard)
}

func (shard *utxoIndexStagingShard) add(outpoint *externalapi.DomainOutpoint, entry externalapi.UTXOEntry) {
	key := indexKey{scriptPublicKey: ScriptPublicKeyString(entry.ScriptPublicKey()), outpoint: *outpoint}
	delete(shard.toRemove, key)
	shard.toAdd[key] = entry
}

func (shard *utxoIndexStagingShard) remove(outpoint *externalapi.DomainOutpoint, entry externalapi.UTXOEntry) {
	key := indexKey{scriptPublicKey: ScriptPublicKeyString(entry.ScriptPublicKey()), outpoint: *outpoint}
	if _, ok := shard.toAdd[key]; ok {
		delete(shard.toAdd, key)
		return
	}
	shard.toRemove[key] = entry
}

func (shard *utxoIndexStagingShard) Commit(dbTx model.DBTransaction) error {
	for key := range shard.toRemove {
		err := dbTx.Delete(indexKeyToDBKey(&key))
		if err != nil {
			return err
		}
	}
	for key, entry := range shard.toAdd {
		entryBytes, err := utxo.SerializeUTXOEntry(entry)
		if err != nil {
			return err
		}
		err = dbTx.Put(indexKeyToDBKey(&key), entryBytes)
		if err != nil {
			return err
		}
	}
	return nil
}

func (shard *utxoIndexStagingShard) AfterCommit() {}

func (shard *utxoIndexStagingShard) changes() *UTXOChanges {
	changes := &UTXOChanges{
		Added:   make(map[string]UTXOOutpointEntryPairs),
		Removed: make(map[string]UTXOOutpointEntryPairs),
	}
	collect := func(target map[string]UTXOOutpointEntryPairs, staged map[indexKey]externalapi.UTXOEntry) {
		for key, entry := range staged {
			pairs, ok := target[key.scriptPublicKey]
			if !ok {
				pairs = make(UTXOOutpointEntryPairs)
				target[key.scriptPublicKey] = pairs
			}
			pairs[key.outpoint] = entry
		}
	}
	collect(changes.Added, shard.toAdd)
	collect(changes.Removed, shard.toRemove)
	return changes
}

// ScriptPublicKeyString encodes a script public key, version included, as
// hex. Two script public keys encode equally only if they are equal. Hex never contains the bucket separator, so one script's bucket is
// never a prefix of another's.
func ScriptPublicKeyString(scriptPublicKey *externalapi.ScriptPublicKey) string {
	serialized := make([]byte, 2+len(scriptPublicKey.Script))
	binary.LittleEndian.PutUint16(serialized[:2], scriptPublicKey.Version)
	copy(serialized[2:], scriptPublicKey.Script)
	return hex.EncodeToString(serialized)
}

func scriptBucket(scriptPublicKey string) model.DBBucket {
	return bucket.Bucket([]byte(scriptPublicKey))
}

func indexKeyToDBKey(key *indexKey) model.DBKey {
	return scriptBucket(key.scriptPublicKey).Key(utxo.SerializeOutpoint(&key.outpoint))
}

func readUTXOs(dbContext model.DBReader, scriptPublicKey string) (UTXOOutpointEntryPairs, error) {
	cursor, err := dbContext.Cursor(scriptBucket(scriptPublicKey))
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	pairs := make(UTXOOutpointEntryPairs)
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		outpoint, err := utxo.DeserializeOutpoint(key.Suffix())
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt UTXO index key %x", key.Bytes())
		}
		entryBytes, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		entry, err := utxo.DeserializeUTXOEntry(entryBytes)
		if err != nil {
			return nil, err
		}
		pairs[*outpoint] = entry
	}
	return pairs, nil
}
