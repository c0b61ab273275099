// Package faultydb wraps a database.Database so that storage failures can
// be injected at chosen points. It is meant for tests of the failure paths
// of code that writes through transactions.
package faultydb

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
)

// ErrInjected is returned by every operation made to fail
var ErrInjected = errors.New("injected storage failure")

// Database is a database.Database that fails on demand
type Database struct {
	database.Database

	lock sync.Mutex
	// putsUntilFailure counts transaction Puts left before one fails.
	// Negative means never.
	putsUntilFailure int
	failNextCommit   bool
	failReads        bool
}

// New wraps db. Until told otherwise, every operation is passed through.
func New(db database.Database) *Database {
	return &Database{
		Database:         db,
		putsUntilFailure: -1,
	}
}

// FailNextCommit makes the next transaction commit fail. The transaction
// is rolled back, so nothing it wrote reaches db.
func (d *Database) FailNextCommit() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.failNextCommit = true
}

// FailAfterPuts lets n more transaction Puts succeed and fails the one
// after them.
func (d *Database) FailAfterPuts(n int) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.putsUntilFailure = n
}

// FailReads makes every Get and Has fail until Heal is called
func (d *Database) FailReads() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.failReads = true
}

// Heal stops all injected failures
func (d *Database) Heal() {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.putsUntilFailure = -1
	d.failNextCommit = false
	d.failReads = false
}

func (d *Database) shouldFailPut() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.putsUntilFailure < 0 {
		return false
	}
	if d.putsUntilFailure == 0 {
		d.putsUntilFailure = -1
		return true
	}
	d.putsUntilFailure--
	return false
}

func (d *Database) shouldFailCommit() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	shouldFail := d.failNextCommit
	d.failNextCommit = false
	return shouldFail
}

func (d *Database) shouldFailRead() bool {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.failReads
}

// Get is database.DataAccessor.Get
func (d *Database) Get(key *database.Key) ([]byte, error) {
	if d.shouldFailRead() {
		return nil, errors.Wrapf(ErrInjected, "get %s", key)
	}
	return d.Database.Get(key)
}

// Has is database.DataAccessor.Has
func (d *Database) Has(key *database.Key) (bool, error) {
	if d.shouldFailRead() {
		return false, errors.Wrapf(ErrInjected, "has %s", key)
	}
	return d.Database.Has(key)
}

// Begin is database.Database.Begin
func (d *Database) Begin() (database.Transaction, error) {
	tx, err := d.Database.Begin()
	if err != nil {
		return nil, err
	}
	return &transaction{Transaction: tx, db: d}, nil
}

type transaction struct {
	database.Transaction
	db *Database
}

func (tx *transaction) Get(key *database.Key) ([]byte, error) {
	if tx.db.shouldFailRead() {
		return nil, errors.Wrapf(ErrInjected, "get %s", key)
	}
	return tx.Transaction.Get(key)
}

func (tx *transaction) Put(key *database.Key, value []byte) error {
	if tx.db.shouldFailPut() {
		return errors.Wrapf(ErrInjected, "put %s", key)
	}
	return tx.Transaction.Put(key, value)
}

func (tx *transaction) Commit() error {
	if tx.db.shouldFailCommit() {
		err := tx.Transaction.Rollback()
		if err != nil {
			return err
		}
		return errors.Wrap(ErrInjected, "commit")
	}
	return tx.Transaction.Commit()
}
