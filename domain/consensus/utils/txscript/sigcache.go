// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txscript

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

type sigCacheKey struct {
	sigHash   externalapi.DomainHash
	signature [64]byte
	pubKey    [33]byte
}

// SigCache implements a Schnorr signature verification cache with a
// least-recently-used eviction policy. Only valid signatures will be added
// to the cache. A signature is looked up by the triple of the signed hash,
// the signature and the public key, so a hit is equivalent to a successful
// verification.
//
// SigCache is safe for concurrent access.
type SigCache struct {
	validSigs *lru.Cache[sigCacheKey, struct{}]
}

// NewSigCache creates and initializes a new instance of SigCache. Its sole
// parameter 'maxEntries' represents the maximum number of entries allowed to
// exist in the SigCache at any particular moment.
func NewSigCache(maxEntries int) (*SigCache, error) {
	validSigs, err := lru.New[sigCacheKey, struct{}](maxEntries)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create a signature cache of %d entries", maxEntries)
	}
	return &SigCache{validSigs: validSigs}, nil
}

func newSigCacheKey(sigHash *externalapi.DomainHash, signature []byte, pubKey []byte) (sigCacheKey, bool) {
	key := sigCacheKey{sigHash: *sigHash}
	if len(signature) != len(key.signature) || len(pubKey) != len(key.pubKey) {
		return key, false
	}
	copy(key.signature[:], signature)
	copy(key.pubKey[:], pubKey)
	return key, true
}

// Exists returns true if an existing entry of 'sig' over 'sigHash' for public
// key 'pubKey' is found within the SigCache. Otherwise, false is returned.
//
// NOTE: This function is safe for concurrent access. Readers won't be blocked
// unless there exists a writer, adding an entry to the SigCache.
func (s *SigCache) Exists(sigHash *externalapi.DomainHash, signature []byte, pubKey []byte) bool {
	key, ok := newSigCacheKey(sigHash, signature, pubKey)
	if !ok {
		return false
	}
	return s.validSigs.Contains(key)
}

// Add adds an entry for a signature over 'sigHash' under public key 'pubKey'
// to the signature cache. In the event that the SigCache is 'full', the
// least recently used entry is evicted to make room.
//
// NOTE: This function is safe for concurrent access. Writers will block
// simultaneous readers until function execution has concluded.
func (s *SigCache) Add(sigHash *externalapi.DomainHash, signature []byte, pubKey []byte) {
	key, ok := newSigCacheKey(sigHash, signature, pubKey)
	if !ok {
		return
	}
	s.validSigs.Add(key, struct{}{})
}
