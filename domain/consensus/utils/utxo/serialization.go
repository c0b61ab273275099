package utxo

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
)

// SerializeUTXO returns the byte-slice representation for given UTXOEntry-outpoint pair
func SerializeUTXO(entry externalapi.UTXOEntry, outpoint *externalapi.DomainOutpoint) ([]byte, error) {
	w := &bytes.Buffer{}

	err := serialization.WriteOutpoint(w, outpoint)
	if err != nil {
		return nil, err
	}

	err = serializeUTXOEntry(w, entry)
	if err != nil {
		return nil, err
	}

	return w.Bytes(), nil
}

// DeserializeUTXO deserializes the given byte slice to UTXOEntry-outpoint pair
func DeserializeUTXO(utxoBytes []byte) (entry externalapi.UTXOEntry, outpoint *externalapi.DomainOutpoint, err error) {
	r := bytes.NewReader(utxoBytes)
	outpoint, err = serialization.ReadOutpoint(r)
	if err != nil {
		return nil, nil, err
	}

	entry, err = deserializeUTXOEntry(r)
	if err != nil {
		return nil, nil, err
	}

	return entry, outpoint, nil
}

// SerializeOutpoint returns the fixed size serialization of outpoint. It
// is used as a database key.
func SerializeOutpoint(outpoint *externalapi.DomainOutpoint) []byte {
	w := &bytes.Buffer{}
	err := serialization.WriteOutpoint(w, outpoint)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. writing to a buffer never fails"))
	}
	return w.Bytes()
}

// DeserializeOutpoint decodes an outpoint serialized by SerializeOutpoint
func DeserializeOutpoint(outpointBytes []byte) (*externalapi.DomainOutpoint, error) {
	r := bytes.NewReader(outpointBytes)
	outpoint, err := serialization.ReadOutpoint(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after outpoint", r.Len())
	}
	return outpoint, nil
}

// SerializeUTXOEntry returns the serialization of entry
func SerializeUTXOEntry(entry externalapi.UTXOEntry) ([]byte, error) {
	w := &bytes.Buffer{}
	err := serializeUTXOEntry(w, entry)
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// DeserializeUTXOEntry decodes an entry serialized by SerializeUTXOEntry
func DeserializeUTXOEntry(entryBytes []byte) (externalapi.UTXOEntry, error) {
	r := bytes.NewReader(entryBytes)
	entry, err := deserializeUTXOEntry(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Errorf("%d trailing bytes after UTXO entry", r.Len())
	}
	return entry, nil
}

func serializeUTXOEntry(w io.Writer, entry externalapi.UTXOEntry) error {
	err := serialization.WriteElements(w, entry.BlockHeight(), entry.Amount(), entry.IsCoinbase())
	if err != nil {
		return err
	}

	return serialization.WriteScriptPublicKey(w, entry.ScriptPublicKey())
}

func deserializeUTXOEntry(r io.Reader) (externalapi.UTXOEntry, error) {
	var blockHeight, amount uint64
	var isCoinbase bool
	err := serialization.ReadElements(r, &blockHeight, &amount, &isCoinbase)
	if err != nil {
		return nil, err
	}

	scriptPublicKey, err := serialization.ReadScriptPublicKey(r)
	if err != nil {
		return nil, err
	}

	return NewUTXOEntry(amount, scriptPublicKey, isCoinbase, blockHeight), nil
}
