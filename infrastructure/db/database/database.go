package database

// DataAccessor is the common interface of a database and a database
// transaction.
type DataAccessor interface {
	// Put sets the value for the given key, overwriting any previous
	// value.
	Put(key *Key, value []byte) error

	// Get returns the value of the given key, or ErrNotFound.
	Get(key *Key) ([]byte, error)

	// Has returns whether the given key exists.
	Has(key *Key) (bool, error)

	// Delete removes the given key. Deleting a missing key is not an
	// error.
	Delete(key *Key) error

	// Cursor opens a cursor over every key of the given bucket, in key
	// order.
	Cursor(bucket *Bucket) (Cursor, error)
}

// Database is a key-value store with atomic multi-key transactions.
type Database interface {
	DataAccessor

	// Begin opens a new transaction. Writes made through the
	// transaction become visible, all together, only on Commit.
	Begin() (Transaction, error)

	// Compact compacts the underlying storage.
	Compact() error

	// Close closes the database.
	Close() error
}

// Transaction is an atomic batch of writes.
// Note: reads through a transaction see the database as it was when the
// transaction began. Writes made inside the transaction are not visible
// to its own reads.
type Transaction interface {
	DataAccessor

	// Rollback discards every write made within the transaction.
	Rollback() error

	// Commit atomically applies every write made within the transaction.
	Commit() error

	// RollbackUnlessClosed rolls back the transaction unless it was
	// already committed or rolled back. Meant to be deferred.
	RollbackUnlessClosed() error
}

// Cursor iterates over the keys of one bucket.
type Cursor interface {
	// Next moves the cursor to the next key and returns whether it
	// exists.
	Next() bool

	// First moves the cursor to the first key and returns whether it
	// exists.
	First() bool

	// Seek moves the cursor to the given key. Returns ErrNotFound when
	// the key does not exist.
	Seek(key *Key) error

	// Key returns the key at the cursor's position.
	Key() (*Key, error)

	// Value returns the value at the cursor's position.
	Value() ([]byte, error)

	// Close releases the cursor.
	Close() error
}
