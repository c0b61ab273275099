package utxo

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

type collectionReader struct {
	collection model.UTXOCollection
}

// NewCollectionReader returns a read-only UTXO source backed by collection
func NewCollectionReader(collection model.UTXOCollection) model.UTXOReader {
	return &collectionReader{collection: collection}
}

func (c *collectionReader) Get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error) {
	entry, ok := c.collection[*outpoint]
	return entry, ok, nil
}
