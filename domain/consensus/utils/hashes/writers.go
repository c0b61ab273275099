package hashes

import (
	"hash"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

// HashWriter streams data into a domain-keyed blake2b-256 digest. Obtain
// one from a New*Writer constructor; the zero value is unusable.
type HashWriter struct {
	hash.Hash
}

// InfallibleWrite writes p into the digest. hash.Hash never fails a
// Write, so a failure here is a programming error.
func (h HashWriter) InfallibleWrite(p []byte) {
	if _, err := h.Write(p); err != nil {
		panic(errors.Wrap(err, "hash write failed"))
	}
}

// Finalize returns the digest of everything written so far.
func (h HashWriter) Finalize() *externalapi.DomainHash {
	var digest [externalapi.DomainHashSize]byte
	copy(digest[:], h.Sum(nil))
	return externalapi.NewDomainHashFromByteArray(&digest)
}
