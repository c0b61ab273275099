package binaryserialization

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

// SerializeHash returns the stored form of hash, which is its raw bytes
func SerializeHash(hash *externalapi.DomainHash) []byte {
	return hash.ByteSlice()
}

// DeserializeHash parses a hash stored by SerializeHash
func DeserializeHash(hashBytes []byte) (*externalapi.DomainHash, error) {
	hash, err := externalapi.NewDomainHashFromByteSlice(hashBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "stored hash has %d bytes", len(hashBytes))
	}
	return hash, nil
}
