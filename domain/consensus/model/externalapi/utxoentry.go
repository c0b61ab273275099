package externalapi

// UTXOEntry is an unspent output together with the height of the block
// that created it and whether it came from a coinbase.
type UTXOEntry interface {
	Amount() uint64
	ScriptPublicKey() *ScriptPublicKey
	BlockHeight() uint64
	IsCoinbase() bool
	Equal(other UTXOEntry) bool
}

// OutpointAndUTXOEntryPair is one result of a UTXO query.
type OutpointAndUTXOEntryPair struct {
	Outpoint  *DomainOutpoint
	UTXOEntry UTXOEntry
}
