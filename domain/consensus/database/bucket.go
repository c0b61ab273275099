package database

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
)

// MakeBucket returns the bucket at path. Stores create their root buckets
// with it at package initialization.
func MakeBucket(path []byte) model.DBBucket {
	return dbBucket{inner: database.MakeBucket(path)}
}

// dbBucket adapts *database.Bucket to model.DBBucket.
type dbBucket struct {
	inner *database.Bucket
}

func (b dbBucket) Bucket(name []byte) model.DBBucket {
	return dbBucket{inner: b.inner.Bucket(name)}
}

func (b dbBucket) Key(suffix []byte) model.DBKey {
	return newDBKey(b.inner.Key(suffix))
}

func (b dbBucket) Path() []byte {
	return b.inner.Path()
}

// toDatabaseBucket unwraps bucket. Buckets that were not made by this
// package are rebuilt from their path.
func toDatabaseBucket(bucket model.DBBucket) *database.Bucket {
	if wrapped, ok := bucket.(dbBucket); ok {
		return wrapped.inner
	}
	return database.MakeBucket(bucket.Path())
}
