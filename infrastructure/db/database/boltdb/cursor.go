package boltdb

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
	bolt "go.etcd.io/bbolt"
)

type cursor struct {
	readTx     *bolt.Tx
	ownsReadTx bool
	boltCursor *bolt.Cursor
	bucket     *database.Bucket
	prefix     []byte

	key, value []byte
	isSet      bool
	isClosed   bool
}

func newCursor(readTx *bolt.Tx, bucket *database.Bucket, ownsReadTx bool) *cursor {
	return &cursor{
		readTx:     readTx,
		ownsReadTx: ownsReadTx,
		boltCursor: readTx.Bucket(rootBucket).Cursor(),
		bucket:     bucket,
		prefix:     bucket.Path(),
	}
}

func (c *cursor) set(key, value []byte) bool {
	if key == nil || !bytes.HasPrefix(key, c.prefix) {
		c.key, c.value = nil, nil
		return false
	}
	c.key, c.value = copyBytes(key), copyBytes(value)
	return true
}

// Next behaves like First when the cursor was never positioned, matching
// leveldb iterators.
func (c *cursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	if !c.isSet {
		return c.First()
	}
	if c.key == nil {
		return false
	}
	return c.set(c.boltCursor.Next())
}

func (c *cursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	c.isSet = true
	return c.set(c.boltCursor.Seek(c.prefix))
}

func (c *cursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	c.isSet = true
	keyBytes := key.Bytes()
	foundKey, value := c.boltCursor.Seek(keyBytes)
	if !c.set(foundKey, value) || !bytes.Equal(foundKey, keyBytes) {
		return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return nil
}

func (c *cursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	if c.key == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the key of an exhausted cursor")
	}
	return c.bucket.Key(c.key[len(c.prefix):]), nil
}

func (c *cursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	if c.key == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the value of an exhausted cursor")
	}
	return c.value, nil
}

func (c *cursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	if c.ownsReadTx {
		return errors.WithStack(c.readTx.Rollback())
	}
	return nil
}
