package binaryserialization

import (
	"bytes"
	"math/big"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
)

// Block work is below 2^256, so sums of it fit comfortably in 64 bytes.
const maxCumulativeWorkLength = 64

// SerializeBlockIndexRecord serializes a block index record
func SerializeBlockIndexRecord(record *model.BlockIndexRecord) ([]byte, error) {
	w := &bytes.Buffer{}
	err := serialization.WriteElement(w, record.Hash)
	if err != nil {
		return nil, err
	}

	hasParent := record.ParentHash != nil
	err = serialization.WriteElement(w, hasParent)
	if err != nil {
		return nil, err
	}
	if hasParent {
		err = serialization.WriteElement(w, record.ParentHash)
		if err != nil {
			return nil, err
		}
	}

	err = serialization.WriteElement(w, record.Height)
	if err != nil {
		return nil, err
	}
	err = serialization.WriteVarBytes(w, record.CumulativeWork.Bytes())
	if err != nil {
		return nil, err
	}
	err = serialization.WriteElements(w, record.Sequence, record.Bits, record.TimeInMilliseconds,
		uint8(record.Status))
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DeserializeBlockIndexRecord deserializes a block index record
func DeserializeBlockIndexRecord(recordBytes []byte) (*model.BlockIndexRecord, error) {
	r := bytes.NewReader(recordBytes)
	record := &model.BlockIndexRecord{Hash: &externalapi.DomainHash{}}

	err := serialization.ReadElement(r, record.Hash)
	if err != nil {
		return nil, err
	}

	var hasParent bool
	err = serialization.ReadElement(r, &hasParent)
	if err != nil {
		return nil, err
	}
	if hasParent {
		record.ParentHash = &externalapi.DomainHash{}
		err = serialization.ReadElement(r, record.ParentHash)
		if err != nil {
			return nil, err
		}
	}

	err = serialization.ReadElement(r, &record.Height)
	if err != nil {
		return nil, err
	}
	workBytes, err := serialization.ReadVarBytes(r, maxCumulativeWorkLength, "cumulative work")
	if err != nil {
		return nil, err
	}
	record.CumulativeWork = new(big.Int).SetBytes(workBytes)

	var status uint8
	err = serialization.ReadElements(r, &record.Sequence, &record.Bits, &record.TimeInMilliseconds, &status)
	if err != nil {
		return nil, err
	}
	if externalapi.BlockStatus(status) > externalapi.StatusInvalid {
		return nil, errors.Errorf("unknown block status %d", status)
	}
	record.Status = externalapi.BlockStatus(status)

	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after block index record", r.Len())
	}
	return record, nil
}
