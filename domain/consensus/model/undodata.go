package model

import "github.com/zmgnet/zmgd/domain/consensus/model/externalapi"

// UndoData is everything needed to exactly reverse the application of a
// block to the UTXO set: the spent outpoints with the entries they held, in
// spending order, and the outpoints the block created.
type UndoData struct {
	Spent   []*externalapi.OutpointAndUTXOEntryPair
	Created []*externalapi.DomainOutpoint
}

// NewUndoData returns an empty UndoData
func NewUndoData() *UndoData {
	return &UndoData{
		Spent:   make([]*externalapi.OutpointAndUTXOEntryPair, 0),
		Created: make([]*externalapi.DomainOutpoint, 0),
	}
}
