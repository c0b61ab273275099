package utxolrucache

import (
	"testing"

	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
)

func outpoint(index uint32) *externalapi.DomainOutpoint {
	return externalapi.NewDomainOutpoint(&externalapi.DomainTransactionID{}, index)
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	cache, err := New(2)
	if err != nil {
		t.Fatalf("New unexpectedly failed: %s", err)
	}
	entry := utxo.NewUTXOEntry(1, &externalapi.ScriptPublicKey{Script: []byte{0x51}}, false, 1)

	cache.Add(outpoint(0), entry)
	cache.Add(outpoint(1), entry)
	if _, ok := cache.Get(outpoint(0)); !ok {
		t.Fatalf("outpoint 0 is missing")
	}
	cache.Add(outpoint(2), entry)

	if cache.Has(outpoint(1)) {
		t.Fatalf("the least recently used entry was not evicted")
	}
	if !cache.Has(outpoint(0)) || !cache.Has(outpoint(2)) {
		t.Fatalf("a recently used entry was evicted")
	}

	cache.Remove(outpoint(0))
	if cache.Has(outpoint(0)) || cache.Len() != 1 {
		t.Fatalf("Remove did not remove the entry")
	}
	cache.Clear()
	if cache.Len() != 0 {
		t.Fatalf("Clear left %d entries", cache.Len())
	}
}

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	_, err := New(0)
	if err == nil {
		t.Fatalf("New unexpectedly accepted a zero capacity")
	}
}
