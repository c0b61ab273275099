package utxosetstore

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
)

type utxoSetIterator struct {
	cursor   model.DBCursor
	isClosed bool
}

func (u *utxoSetIterator) First() bool {
	if u.isClosed {
		panic("Tried using a closed utxoSetIterator")
	}
	return u.cursor.First()
}

func (u *utxoSetIterator) Next() bool {
	if u.isClosed {
		panic("Tried using a closed utxoSetIterator")
	}
	return u.cursor.Next()
}

func (u *utxoSetIterator) Get() (outpoint *externalapi.DomainOutpoint, utxoEntry externalapi.UTXOEntry, err error) {
	if u.isClosed {
		return nil, nil, errors.New("Tried using a closed utxoSetIterator")
	}
	key, err := u.cursor.Key()
	if err != nil {
		return nil, nil, err
	}
	outpoint, err = utxo.DeserializeOutpoint(key.Suffix())
	if err != nil {
		return nil, nil, err
	}

	entryBytes, err := u.cursor.Value()
	if err != nil {
		return nil, nil, err
	}
	utxoEntry, err = utxo.DeserializeUTXOEntry(entryBytes)
	if err != nil {
		return nil, nil, err
	}
	return outpoint, utxoEntry, nil
}

func (u *utxoSetIterator) Close() error {
	if u.isClosed {
		return errors.New("Tried using a closed utxoSetIterator")
	}
	err := u.cursor.Close()
	if err != nil {
		return err
	}
	u.isClosed = true
	return nil
}
