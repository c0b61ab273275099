package model

import "github.com/zmgnet/zmgd/domain/consensus/model/externalapi"

// UTXOReader reads UTXO entries by outpoint
type UTXOReader interface {
	Get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error)
}

// UTXOIterator iterates over a set of UTXO entries
type UTXOIterator interface {
	First() bool
	Next() bool
	Get() (outpoint *externalapi.DomainOutpoint, utxoEntry externalapi.UTXOEntry, err error)
	Close() error
}

// UTXOCollection is a set of outpoints and their entries
type UTXOCollection map[externalapi.DomainOutpoint]externalapi.UTXOEntry

// UTXODiff is the set of changes a view makes to the UTXO set below it.
// ToRemove holds the entries as they were before removal.
type UTXODiff struct {
	ToAdd    UTXOCollection
	ToRemove UTXOCollection
}

// IsEmpty returns whether the diff changes nothing
func (diff *UTXODiff) IsEmpty() bool {
	return len(diff.ToAdd) == 0 && len(diff.ToRemove) == 0
}
