package database_test

import (
	"bytes"
	"testing"

	"github.com/zmgnet/zmgd/infrastructure/db/database"
)

func TestDatabasePutGetHasDelete(t *testing.T) {
	testForAllDatabaseTypes(t, "TestDatabasePutGetHasDelete", testDatabasePutGetHasDelete)
}

func testDatabasePutGetHasDelete(t *testing.T, db database.Database, testName string) {
	key := database.MakeBucket([]byte("bucket")).Key([]byte("key"))
	value := []byte("value")

	_, err := db.Get(key)
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Get of a missing key returned %v instead of ErrNotFound", testName, err)
	}

	err = db.Put(key, value)
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	exists, err := db.Has(key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if !exists {
		t.Fatalf("%s: Has unexpectedly returned false", testName)
	}
	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("%s: Get unexpectedly failed: %s", testName, err)
	}
	if !bytes.Equal(got, value) {
		t.Fatalf("%s: Get returned wrong value. Want: %s, got: %s", testName, value, got)
	}

	err = db.Delete(key)
	if err != nil {
		t.Fatalf("%s: Delete unexpectedly failed: %s", testName, err)
	}
	exists, err = db.Has(key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: Has unexpectedly returned true after Delete", testName)
	}
}

func TestTransactionCommitIsAtomic(t *testing.T) {
	testForAllDatabaseTypes(t, "TestTransactionCommitIsAtomic", testTransactionCommitIsAtomic)
}

func testTransactionCommitIsAtomic(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("atomic"))
	existing := bucket.Key([]byte("existing"))
	err := db.Put(existing, []byte("old"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	defer dbTx.RollbackUnlessClosed()

	added := bucket.Key([]byte("added"))
	err = dbTx.Put(added, []byte("new"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Delete(existing)
	if err != nil {
		t.Fatalf("%s: Delete unexpectedly failed: %s", testName, err)
	}

	// Nothing is visible before commit, neither through the database nor
	// through the transaction itself.
	exists, err := db.Has(added)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: uncommitted write is visible in the database", testName)
	}
	exists, err = dbTx.Has(existing)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if !exists {
		t.Fatalf("%s: transaction read does not see the pre-transaction state", testName)
	}

	err = dbTx.Commit()
	if err != nil {
		t.Fatalf("%s: Commit unexpectedly failed: %s", testName, err)
	}
	exists, err = db.Has(added)
	if err != nil || !exists {
		t.Fatalf("%s: committed write is missing (err: %v)", testName, err)
	}
	exists, err = db.Has(existing)
	if err != nil || exists {
		t.Fatalf("%s: committed delete was not applied (err: %v)", testName, err)
	}

	err = dbTx.Commit()
	if err == nil {
		t.Fatalf("%s: second Commit unexpectedly succeeded", testName)
	}
}

func TestTransactionRollback(t *testing.T) {
	testForAllDatabaseTypes(t, "TestTransactionRollback", testTransactionRollback)
}

func testTransactionRollback(t *testing.T, db database.Database, testName string) {
	key := database.MakeBucket([]byte("rollback")).Key([]byte("key"))

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Put(key, []byte("value"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}
	err = dbTx.Rollback()
	if err != nil {
		t.Fatalf("%s: Rollback unexpectedly failed: %s", testName, err)
	}
	err = dbTx.RollbackUnlessClosed()
	if err != nil {
		t.Fatalf("%s: RollbackUnlessClosed unexpectedly failed: %s", testName, err)
	}
	exists, err := db.Has(key)
	if err != nil {
		t.Fatalf("%s: Has unexpectedly failed: %s", testName, err)
	}
	if exists {
		t.Fatalf("%s: rolled back write is visible", testName)
	}
	err = dbTx.Put(key, []byte("value"))
	if err == nil {
		t.Fatalf("%s: Put into a closed transaction unexpectedly succeeded", testName)
	}
}
