package model

// DBCursor iterates over the entries of a bucket in key order
type DBCursor interface {
	// First moves to the first entry, returning false if the bucket is empty
	First() bool

	// Next moves to the next entry, returning false once the cursor is
	// exhausted
	Next() bool

	// Key returns the key of the current entry. It is only valid until the
	// next call to Next.
	Key() (DBKey, error)

	// Value returns the value of the current entry. It is only valid until
	// the next call to Next.
	Value() ([]byte, error)

	Close() error
}

// DBReader is read access to consensus data, either directly or within a
// transaction
type DBReader interface {
	// Get returns database.ErrNotFound if key does not exist
	Get(key DBKey) ([]byte, error)
	Has(key DBKey) (bool, error)
	Cursor(bucket DBBucket) (DBCursor, error)
}

// DBWriter is read and write access to consensus data
type DBWriter interface {
	DBReader

	Put(key DBKey, value []byte) error

	// Delete does not fail if key does not exist
	Delete(key DBKey) error
}

// DBTransaction is a DBWriter whose writes become visible atomically on
// Commit
type DBTransaction interface {
	DBWriter

	Rollback() error
	Commit() error

	// RollbackUnlessClosed rolls back the transaction unless Commit or
	// Rollback was already called. It is meant to be deferred.
	RollbackUnlessClosed() error
}

// DBManager is the consensus view of the database
type DBManager interface {
	DBWriter

	Begin() (DBTransaction, error)
	Close() error
}

// DBKey is a key inside a DBBucket
type DBKey interface {
	Bytes() []byte
	Bucket() DBBucket

	// Suffix is the key without its bucket path
	Suffix() []byte
}

// DBBucket is a key prefix. Buckets nest.
type DBBucket interface {
	Bucket(bucketBytes []byte) DBBucket
	Key(suffix []byte) DBKey
	Path() []byte
}
