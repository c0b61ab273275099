package utxoindex

import "github.com/zmgnet/zmgd/domain/consensus/model/externalapi"

// UTXOOutpointEntryPairs is a map between UTXO outpoints to UTXO entries
type UTXOOutpointEntryPairs map[externalapi.DomainOutpoint]externalapi.UTXOEntry

// indexKey identifies one indexed UTXO: the script it pays to and its
// outpoint
type indexKey struct {
	scriptPublicKey string
	outpoint        externalapi.DomainOutpoint
}

// UTXOChanges is the set of changes a chain update made to the index
type UTXOChanges struct {
	Added   map[string]UTXOOutpointEntryPairs
	Removed map[string]UTXOOutpointEntryPairs
}
