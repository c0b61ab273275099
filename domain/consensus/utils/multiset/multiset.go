// Package multiset implements the rolling UTXO set commitment on top of
// MuHash. Elements can be added and removed in any order and the
// resulting digest only depends on the final contents.
package multiset

import (
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

type utxoMultiset struct {
	muHash *muhash.MuHash
}

// New returns an empty multiset.
func New() model.Multiset {
	return &utxoMultiset{muHash: muhash.NewMuHash()}
}

// FromBytes restores a multiset previously produced by Serialize.
func FromBytes(serialized []byte) (model.Multiset, error) {
	var buffer muhash.SerializedMuHash
	if len(serialized) != len(buffer) {
		return nil, errors.Errorf("serialized multiset is %d bytes, expected %d",
			len(serialized), len(buffer))
	}
	copy(buffer[:], serialized)

	muHash, err := muhash.DeserializeMuHash(&buffer)
	if err != nil {
		return nil, errors.Wrap(err, "malformed serialized multiset")
	}
	return &utxoMultiset{muHash: muHash}, nil
}

func (m *utxoMultiset) Add(element []byte)    { m.muHash.Add(element) }
func (m *utxoMultiset) Remove(element []byte) { m.muHash.Remove(element) }

func (m *utxoMultiset) Hash() *externalapi.DomainHash {
	digest := [externalapi.DomainHashSize]byte(m.muHash.Finalize())
	return externalapi.NewDomainHashFromByteArray(&digest)
}

func (m *utxoMultiset) Serialize() []byte {
	serialized := m.muHash.Serialize()
	return serialized[:]
}

func (m *utxoMultiset) Clone() model.Multiset {
	return &utxoMultiset{muHash: m.muHash.Clone()}
}
