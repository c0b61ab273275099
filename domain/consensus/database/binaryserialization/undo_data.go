package binaryserialization

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
)

const maxUTXOLength = 1 << 16

// SerializeUndoData serializes the undo data of a block: the spent
// outpoints with their entries in spending order, followed by the created
// outpoints.
func SerializeUndoData(undoData *model.UndoData) ([]byte, error) {
	w := &bytes.Buffer{}
	err := serialization.WriteElement(w, uint64(len(undoData.Spent)))
	if err != nil {
		return nil, err
	}
	for _, spent := range undoData.Spent {
		utxoBytes, err := utxo.SerializeUTXO(spent.UTXOEntry, spent.Outpoint)
		if err != nil {
			return nil, err
		}
		err = serialization.WriteVarBytes(w, utxoBytes)
		if err != nil {
			return nil, err
		}
	}

	err = serialization.WriteElement(w, uint64(len(undoData.Created)))
	if err != nil {
		return nil, err
	}
	for _, outpoint := range undoData.Created {
		err = serialization.WriteOutpoint(w, outpoint)
		if err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// DeserializeUndoData deserializes undo data serialized by SerializeUndoData
func DeserializeUndoData(undoDataBytes []byte) (*model.UndoData, error) {
	r := bytes.NewReader(undoDataBytes)

	var spentCount uint64
	err := serialization.ReadElement(r, &spentCount)
	if err != nil {
		return nil, err
	}
	if spentCount > uint64(r.Len()) {
		return nil, errors.Errorf("undo data claims %d spent entries in %d bytes", spentCount, r.Len())
	}
	undoData := &model.UndoData{
		Spent: make([]*externalapi.OutpointAndUTXOEntryPair, 0, spentCount),
	}
	for i := uint64(0); i < spentCount; i++ {
		utxoBytes, err := serialization.ReadVarBytes(r, maxUTXOLength, "spent UTXO")
		if err != nil {
			return nil, err
		}
		entry, outpoint, err := utxo.DeserializeUTXO(utxoBytes)
		if err != nil {
			return nil, err
		}
		undoData.Spent = append(undoData.Spent, &externalapi.OutpointAndUTXOEntryPair{
			Outpoint:  outpoint,
			UTXOEntry: entry,
		})
	}

	var createdCount uint64
	err = serialization.ReadElement(r, &createdCount)
	if err != nil {
		return nil, err
	}
	if createdCount > uint64(r.Len()) {
		return nil, errors.Errorf("undo data claims %d created outpoints in %d bytes", createdCount, r.Len())
	}
	undoData.Created = make([]*externalapi.DomainOutpoint, 0, createdCount)
	for i := uint64(0); i < createdCount; i++ {
		outpoint, err := serialization.ReadOutpoint(r)
		if err != nil {
			return nil, err
		}
		undoData.Created = append(undoData.Created, outpoint)
	}

	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after undo data", r.Len())
	}
	return undoData, nil
}
