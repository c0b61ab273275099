package utxolrucache

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

// LRUCache is a least-recently-used cache for UTXO entries
// indexed by DomainOutpoint. It is safe for concurrent access.
type LRUCache struct {
	cache *lru.Cache[externalapi.DomainOutpoint, externalapi.UTXOEntry]
}

// New creates a new LRUCache holding at most capacity entries
func New(capacity int) (*LRUCache, error) {
	cache, err := lru.New[externalapi.DomainOutpoint, externalapi.UTXOEntry](capacity)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create a UTXO cache of capacity %d", capacity)
	}
	return &LRUCache{cache: cache}, nil
}

// Add adds an entry to the LRUCache, evicting the least recently used
// entry if the cache is full
func (c *LRUCache) Add(key *externalapi.DomainOutpoint, value externalapi.UTXOEntry) {
	c.cache.Add(*key, value)
}

// Get returns the entry for the given key, or (nil, false) otherwise
func (c *LRUCache) Get(key *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool) {
	return c.cache.Get(*key)
}

// Has returns whether the LRUCache contains the given key
func (c *LRUCache) Has(key *externalapi.DomainOutpoint) bool {
	return c.cache.Contains(*key)
}

// Remove removes the entry for the the given key. Does nothing if
// the entry does not exist
func (c *LRUCache) Remove(key *externalapi.DomainOutpoint) {
	c.cache.Remove(*key)
}

// Len returns the number of cached entries
func (c *LRUCache) Len() int {
	return c.cache.Len()
}

// Clear clears the cache
func (c *LRUCache) Clear() {
	c.cache.Purge()
}
