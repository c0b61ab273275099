package boltdb

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
	bolt "go.etcd.io/bbolt"
)

type write struct {
	key      []byte
	value    []byte
	isDelete bool
}

type transaction struct {
	db       *bolt.DB
	readTx   *bolt.Tx
	writes   []write
	isClosed bool
}

// Commit releases the read snapshot and applies every buffered write in one
// bolt update transaction.
func (tx *transaction) Commit() error {
	if tx.isClosed {
		return errors.New("cannot commit a closed transaction")
	}
	tx.isClosed = true
	err := tx.readTx.Rollback()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(tx.db.Update(func(boltTx *bolt.Tx) error {
		bucket := boltTx.Bucket(rootBucket)
		for _, w := range tx.writes {
			var err error
			if w.isDelete {
				err = bucket.Delete(w.key)
			} else {
				err = bucket.Put(w.key, w.value)
			}
			if err != nil {
				return err
			}
		}
		return nil
	}))
}

func (tx *transaction) Rollback() error {
	if tx.isClosed {
		return errors.New("cannot rollback a closed transaction")
	}
	tx.isClosed = true
	tx.writes = nil
	return errors.WithStack(tx.readTx.Rollback())
}

func (tx *transaction) RollbackUnlessClosed() error {
	if tx.isClosed {
		return nil
	}
	return tx.Rollback()
}

func (tx *transaction) Put(key *database.Key, value []byte) error {
	if tx.isClosed {
		return errors.New("cannot put into a closed transaction")
	}
	tx.writes = append(tx.writes, write{key: key.Bytes(), value: copyBytes(value)})
	return nil
}

func (tx *transaction) Delete(key *database.Key) error {
	if tx.isClosed {
		return errors.New("cannot delete from a closed transaction")
	}
	tx.writes = append(tx.writes, write{key: key.Bytes(), isDelete: true})
	return nil
}

func (tx *transaction) Get(key *database.Key) ([]byte, error) {
	if tx.isClosed {
		return nil, errors.New("cannot get from a closed transaction")
	}
	value := copyBytes(tx.readTx.Bucket(rootBucket).Get(key.Bytes()))
	if value == nil {
		return nil, errors.Wrapf(database.ErrNotFound, "key %s not found", key)
	}
	return value, nil
}

func (tx *transaction) Has(key *database.Key) (bool, error) {
	if tx.isClosed {
		return false, errors.New("cannot has from a closed transaction")
	}
	return tx.readTx.Bucket(rootBucket).Get(key.Bytes()) != nil, nil
}

func (tx *transaction) Cursor(bucket *database.Bucket) (database.Cursor, error) {
	if tx.isClosed {
		return nil, errors.New("cannot open a cursor from a closed transaction")
	}
	return newCursor(tx.readTx, bucket, false), nil
}
