package ldb

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
)

type iteratorSource interface {
	NewIterator(slice *util.Range, ro *opt.ReadOptions) iterator.Iterator
}

type cursor struct {
	iterator iterator.Iterator
	bucket   *database.Bucket
	isClosed bool
}

func newCursor(source iteratorSource, bucket *database.Bucket) *cursor {
	return &cursor{
		iterator: source.NewIterator(util.BytesPrefix(bucket.Path()), nil),
		bucket:   bucket,
	}
}

func (c *cursor) Next() bool {
	if c.isClosed {
		panic("cannot call next on a closed cursor")
	}
	return c.iterator.Next()
}

func (c *cursor) First() bool {
	if c.isClosed {
		panic("cannot call first on a closed cursor")
	}
	return c.iterator.First()
}

func (c *cursor) Seek(key *database.Key) error {
	if c.isClosed {
		return errors.New("cannot seek a closed cursor")
	}
	keyBytes := key.Bytes()
	if !c.iterator.Seek(keyBytes) || !bytes.Equal(c.iterator.Key(), keyBytes) {
		return errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return nil
}

func (c *cursor) Key() (*database.Key, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the key of a closed cursor")
	}
	fullKey := c.iterator.Key()
	if fullKey == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the key of an exhausted cursor")
	}
	bucketPath := c.bucket.Path()
	if !bytes.HasPrefix(fullKey, bucketPath) {
		return nil, errors.Errorf("key %x does not belong to bucket %s", fullKey, bucketPath)
	}
	return c.bucket.Key(fullKey[len(bucketPath):]), nil
}

func (c *cursor) Value() ([]byte, error) {
	if c.isClosed {
		return nil, errors.New("cannot get the value of a closed cursor")
	}
	value := c.iterator.Value()
	if value == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "cannot get the value of an exhausted cursor")
	}
	valueCopy := make([]byte, len(value))
	copy(valueCopy, value)
	return valueCopy, nil
}

func (c *cursor) Close() error {
	if c.isClosed {
		return errors.New("cannot close an already closed cursor")
	}
	c.isClosed = true
	c.iterator.Release()
	return nil
}
