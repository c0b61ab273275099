package externalapi

import (
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainHashSize is the length in bytes of every hash in the ledger.
const DomainHashSize = 32

// DomainHash is an immutable 32-byte digest. Accessors return copies.
type DomainHash struct {
	hashArray [DomainHashSize]byte
}

// NewZeroHash returns the all-zero hash. It is used as the parent of the
// genesis block.
func NewZeroHash() *DomainHash {
	return new(DomainHash)
}

// NewDomainHashFromByteArray copies hashBytes into a new DomainHash.
func NewDomainHashFromByteArray(hashBytes *[DomainHashSize]byte) *DomainHash {
	return &DomainHash{hashArray: *hashBytes}
}

// NewDomainHashFromByteSlice copies hashBytes into a new DomainHash. It
// fails unless hashBytes is exactly DomainHashSize long.
func NewDomainHashFromByteSlice(hashBytes []byte) (*DomainHash, error) {
	var hash DomainHash
	if copied := copy(hash.hashArray[:], hashBytes); copied != len(hashBytes) || copied != DomainHashSize {
		return nil, errors.Errorf("a hash is %d bytes long, got %d", DomainHashSize, len(hashBytes))
	}
	return &hash, nil
}

// NewDomainHashFromString parses the hex form produced by String.
func NewDomainHashFromString(hashString string) (*DomainHash, error) {
	if len(hashString) != hex.EncodedLen(DomainHashSize) {
		return nil, errors.Errorf("a hash string is %d characters long, got %d",
			hex.EncodedLen(DomainHashSize), len(hashString))
	}
	hashBytes, err := hex.DecodeString(hashString)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return NewDomainHashFromByteSlice(hashBytes)
}

func (hash DomainHash) String() string {
	return hex.EncodeToString(hash.hashArray[:])
}

// ByteArray returns a copy of the hash bytes.
func (hash *DomainHash) ByteArray() *[DomainHashSize]byte {
	clone := hash.hashArray
	return &clone
}

// ByteSlice returns a copy of the hash bytes.
func (hash *DomainHash) ByteSlice() []byte {
	clone := hash.hashArray
	return clone[:]
}

// Equal reports whether both hashes hold the same bytes. Two nil hashes
// are equal.
func (hash *DomainHash) Equal(other *DomainHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return hash.hashArray == other.hashArray
}
