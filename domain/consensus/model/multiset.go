package model

import "github.com/zmgnet/zmgd/domain/consensus/model/externalapi"

// Multiset represents a secure order-independent hash of the UTXO set
type Multiset interface {
	Add(data []byte)
	Remove(data []byte)
	Hash() *externalapi.DomainHash
	Serialize() []byte
	Clone() Multiset
}
