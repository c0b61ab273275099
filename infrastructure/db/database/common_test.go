package database_test

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/zmgnet/zmgd/infrastructure/db/database"
	"github.com/zmgnet/zmgd/infrastructure/db/database/boltdb"
	"github.com/zmgnet/zmgd/infrastructure/db/database/ldb"
)

type databasePrepareFunc func(t *testing.T, testName string) (db database.Database, name string, teardownFunc func())

// databasePrepareFuncs prepares one database per supported driver. See
// testForAllDatabaseTypes.
var databasePrepareFuncs = []databasePrepareFunc{
	prepareLDBForTest,
	prepareBoltForTest,
}

func prepareLDBForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("%s: NewLevelDB unexpectedly failed: %s", testName, err)
	}
	teardownFunc = func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
	}
	return db, "ldb", teardownFunc
}

func prepareBoltForTest(t *testing.T, testName string) (db database.Database, name string, teardownFunc func()) {
	db, err := boltdb.NewBoltDB(filepath.Join(t.TempDir(), "zmgd.bolt"))
	if err != nil {
		t.Fatalf("%s: NewBoltDB unexpectedly failed: %s", testName, err)
	}
	teardownFunc = func() {
		err := db.Close()
		if err != nil {
			t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
		}
	}
	return db, "bolt", teardownFunc
}

// testForAllDatabaseTypes runs testFunc against every driver so that all
// of them honor the contracts of the database interfaces.
func testForAllDatabaseTypes(t *testing.T, testName string,
	testFunc func(t *testing.T, db database.Database, testName string)) {

	for _, prepareDatabase := range databasePrepareFuncs {
		func() {
			db, dbType, teardownFunc := prepareDatabase(t, testName)
			defer teardownFunc()

			testFunc(t, db, fmt.Sprintf("%s: %s", dbType, testName))
		}()
	}
}

type keyValuePair struct {
	key   *database.Key
	value []byte
}

func populateDatabaseForTest(t *testing.T, db database.Database, bucket *database.Bucket, testName string) []keyValuePair {
	entries := make([]keyValuePair, 10)
	for i := range entries {
		entries[i] = keyValuePair{
			key:   bucket.Key([]byte(fmt.Sprintf("key%d", i))),
			value: []byte(fmt.Sprintf("value%d", i)),
		}
		err := db.Put(entries[i].key, entries[i].value)
		if err != nil {
			t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
		}
	}
	return entries
}
