package database_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zmgnet/zmgd/infrastructure/db/database"
)

func TestCursorIteratesOnlyItsBucket(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorIteratesOnlyItsBucket", testCursorIteratesOnlyItsBucket)
}

func testCursorIteratesOnlyItsBucket(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("bucket"))
	entries := populateDatabaseForTest(t, db, bucket, testName)

	// A sibling bucket whose name has the first bucket's name as a prefix
	// must not leak into the cursor.
	populateDatabaseForTest(t, db, database.MakeBucket([]byte("bucket2")), testName)
	populateDatabaseForTest(t, db, bucket.Bucket([]byte("sub")), testName)

	cursor, err := db.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	defer cursor.Close()

	seen := 0
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			t.Fatalf("%s: Key unexpectedly failed: %s", testName, err)
		}
		if strings.HasPrefix(string(key.Suffix()), "sub/") {
			continue
		}
		value, err := cursor.Value()
		if err != nil {
			t.Fatalf("%s: Value unexpectedly failed: %s", testName, err)
		}
		expected := entries[seen]
		if !bytes.Equal(key.Bytes(), expected.key.Bytes()) || !bytes.Equal(value, expected.value) {
			t.Fatalf("%s: cursor returned %s=%s, want %s=%s", testName,
				key.Suffix(), value, expected.key.Suffix(), expected.value)
		}
		seen++
	}
	if seen != len(entries) {
		t.Fatalf("%s: cursor returned %d entries, want %d", testName, seen, len(entries))
	}
}

func TestCursorSeek(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorSeek", testCursorSeek)
}

func testCursorSeek(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("seek"))
	populateDatabaseForTest(t, db, bucket, testName)

	cursor, err := db.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	defer cursor.Close()

	err = cursor.Seek(bucket.Key([]byte("key5")))
	if err != nil {
		t.Fatalf("%s: Seek unexpectedly failed: %s", testName, err)
	}
	value, err := cursor.Value()
	if err != nil {
		t.Fatalf("%s: Value unexpectedly failed: %s", testName, err)
	}
	if string(value) != "value5" {
		t.Fatalf("%s: Seek landed on %s, want value5", testName, value)
	}
	if !cursor.Next() {
		t.Fatalf("%s: Next after Seek unexpectedly returned false", testName)
	}
	key, err := cursor.Key()
	if err != nil {
		t.Fatalf("%s: Key unexpectedly failed: %s", testName, err)
	}
	if string(key.Suffix()) != "key6" {
		t.Fatalf("%s: Next after Seek landed on %s, want key6", testName, key.Suffix())
	}

	err = cursor.Seek(bucket.Key([]byte("missing")))
	if !database.IsNotFoundError(err) {
		t.Fatalf("%s: Seek of a missing key returned %v instead of ErrNotFound", testName, err)
	}
}

func TestCursorOfTransactionSeesSnapshot(t *testing.T) {
	testForAllDatabaseTypes(t, "TestCursorOfTransactionSeesSnapshot", testCursorOfTransactionSeesSnapshot)
}

func testCursorOfTransactionSeesSnapshot(t *testing.T, db database.Database, testName string) {
	bucket := database.MakeBucket([]byte("snapshot"))
	entries := populateDatabaseForTest(t, db, bucket, testName)

	dbTx, err := db.Begin()
	if err != nil {
		t.Fatalf("%s: Begin unexpectedly failed: %s", testName, err)
	}
	defer dbTx.RollbackUnlessClosed()

	err = dbTx.Put(bucket.Key([]byte("key99")), []byte("uncommitted"))
	if err != nil {
		t.Fatalf("%s: Put unexpectedly failed: %s", testName, err)
	}

	cursor, err := dbTx.Cursor(bucket)
	if err != nil {
		t.Fatalf("%s: Cursor unexpectedly failed: %s", testName, err)
	}
	count := 0
	for cursor.Next() {
		count++
	}
	err = cursor.Close()
	if err != nil {
		t.Fatalf("%s: Close unexpectedly failed: %s", testName, err)
	}
	if count != len(entries) {
		t.Fatalf("%s: transaction cursor saw %d entries, want %d", testName, count, len(entries))
	}
	err = cursor.Close()
	if err == nil {
		t.Fatalf("%s: closing a closed cursor unexpectedly succeeded", testName)
	}
}
