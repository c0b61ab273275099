package boltdb

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
	bolt "go.etcd.io/bbolt"
)

// rootBucket holds every key. Bucket paths are encoded into the keys
// themselves, same as with leveldb.
var rootBucket = []byte("zmgd")

// BoltDB is a database.Database backed by a single bbolt file.
type BoltDB struct {
	bolt *bolt.DB
}

// NewBoltDB opens the bbolt file at path, creating it when missing.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed opening bolt database at %s", path)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WithStack(err)
	}
	log.Debugf("Opened bolt database at %s", path)
	return &BoltDB{bolt: db}, nil
}

// Compact is a no-op: bbolt reuses freed pages in place.
func (db *BoltDB) Compact() error {
	return nil
}

// Close closes the bolt file.
func (db *BoltDB) Close() error {
	return errors.WithStack(db.bolt.Close())
}

// Put sets the value for the given key.
func (db *BoltDB) Put(key *database.Key, value []byte) error {
	return errors.WithStack(db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Put(key.Bytes(), value)
	}))
}

// Get returns the value for the given key, or database.ErrNotFound.
func (db *BoltDB) Get(key *database.Key) ([]byte, error) {
	var value []byte
	err := db.bolt.View(func(tx *bolt.Tx) error {
		value = copyBytes(tx.Bucket(rootBucket).Get(key.Bytes()))
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if value == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return value, nil
}

// Has returns whether the given key exists.
func (db *BoltDB) Has(key *database.Key) (bool, error) {
	_, err := db.Get(key)
	if database.IsNotFoundError(err) {
		return false, nil
	}
	return err == nil, err
}

// Delete removes the given key.
func (db *BoltDB) Delete(key *database.Key) error {
	return errors.WithStack(db.bolt.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Delete(key.Bytes())
	}))
}

// Cursor opens a cursor over the given bucket. The cursor owns a read-only
// bolt transaction until it is closed.
func (db *BoltDB) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	readTx, err := db.bolt.Begin(false)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return newCursor(readTx, bucket, true), nil
}

// Begin opens a transaction whose reads come from a read-only bolt
// transaction and whose writes are buffered until Commit applies them in a
// single bolt update.
func (db *BoltDB) Begin() (database.Transaction, error) {
	readTx, err := db.bolt.Begin(false)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &transaction{db: db.bolt, readTx: readTx}, nil
}

func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}
