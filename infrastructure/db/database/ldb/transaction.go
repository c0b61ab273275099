package ldb

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
)

// transaction reads from a snapshot taken at Begin and buffers writes in a
// batch. Its own writes are not visible to its reads.
type transaction struct {
	ldb      *leveldb.DB
	snapshot *leveldb.Snapshot
	batch    *leveldb.Batch
	closed   bool
}

var errClosedTransaction = errors.New("transaction is closed")

func (tx *transaction) ensureOpen(operation string) error {
	if tx.closed {
		return errors.Wrapf(errClosedTransaction, "cannot %s", operation)
	}
	return nil
}

func (tx *transaction) close() {
	tx.closed = true
	tx.snapshot.Release()
}

// Commit writes the batch atomically with a synced write.
func (tx *transaction) Commit() error {
	if err := tx.ensureOpen("commit"); err != nil {
		return err
	}
	tx.close()
	return errors.WithStack(tx.ldb.Write(tx.batch, &opt.WriteOptions{Sync: true}))
}

func (tx *transaction) Rollback() error {
	if err := tx.ensureOpen("roll back"); err != nil {
		return err
	}
	tx.close()
	tx.batch.Reset()
	return nil
}

func (tx *transaction) RollbackUnlessClosed() error {
	if tx.closed {
		return nil
	}
	return tx.Rollback()
}

func (tx *transaction) Put(key *database.Key, value []byte) error {
	if err := tx.ensureOpen("put"); err != nil {
		return err
	}
	tx.batch.Put(key.Bytes(), value)
	return nil
}

func (tx *transaction) Delete(key *database.Key) error {
	if err := tx.ensureOpen("delete"); err != nil {
		return err
	}
	tx.batch.Delete(key.Bytes())
	return nil
}

func (tx *transaction) Get(key *database.Key) ([]byte, error) {
	if err := tx.ensureOpen("get"); err != nil {
		return nil, err
	}
	value, err := tx.snapshot.Get(key.Bytes(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return value, errors.WithStack(err)
}

func (tx *transaction) Has(key *database.Key) (bool, error) {
	if err := tx.ensureOpen("check a key"); err != nil {
		return false, err
	}
	exists, err := tx.snapshot.Has(key.Bytes(), nil)
	return exists, errors.WithStack(err)
}

func (tx *transaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if err := tx.ensureOpen("open a cursor"); err != nil {
		return nil, err
	}
	return newCursor(tx.snapshot, bucket), nil
}
