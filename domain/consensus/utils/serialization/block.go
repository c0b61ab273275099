package serialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
)

// HeaderSize is the size of a serialized block header in bytes
const HeaderSize = 2 + 2*externalapi.DomainHashSize + 8 + 4 + 8

// SerializeHeader writes header to w
func SerializeHeader(w io.Writer, header *externalapi.DomainBlockHeader) error {
	return WriteElements(w, header.Version, &header.ParentHash, &header.HashMerkleRoot,
		header.TimeInMilliseconds, header.Bits, header.Nonce)
}

// ReadHeader reads a header written by SerializeHeader
func ReadHeader(r io.Reader) (*externalapi.DomainBlockHeader, error) {
	header := &externalapi.DomainBlockHeader{}
	err := ReadElements(r, &header.Version, &header.ParentHash, &header.HashMerkleRoot,
		&header.TimeInMilliseconds, &header.Bits, &header.Nonce)
	if err != nil {
		return nil, err
	}
	return header, nil
}

// SerializeBlock writes block to w
func SerializeBlock(w io.Writer, block *externalapi.DomainBlock) error {
	err := SerializeHeader(w, block.Header)
	if err != nil {
		return err
	}
	err = WriteElement(w, uint64(len(block.Transactions)))
	if err != nil {
		return err
	}
	for _, tx := range block.Transactions {
		err = SerializeTransaction(w, tx, TxEncodingFull)
		if err != nil {
			return err
		}
	}
	return nil
}

// BlockToBytes returns the serialization of block
func BlockToBytes(block *externalapi.DomainBlock) []byte {
	buf := &bytes.Buffer{}
	err := SerializeBlock(buf, block)
	if err != nil {
		panic(errors.Wrap(err, "this should never happen. SerializeBlock failed writing to a buffer"))
	}
	return buf.Bytes()
}

// BlockSize returns the size of the serialization of block in bytes
func BlockSize(block *externalapi.DomainBlock) uint64 {
	size := uint64(HeaderSize + 8)
	for _, tx := range block.Transactions {
		size += TransactionSize(tx)
	}
	return size
}

// DeserializeBlock decodes a block. The data must hold exactly one block.
func DeserializeBlock(data []byte) (*externalapi.DomainBlock, error) {
	if len(data) > constants.MaxBlockWeight {
		return nil, errors.Wrapf(errMalformed, "block is %d bytes, which is above the limit of %d",
			len(data), constants.MaxBlockWeight)
	}
	r := bytes.NewReader(data)
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	var transactionCount uint64
	err = ReadElement(r, &transactionCount)
	if err != nil {
		return nil, err
	}
	err = checkCount(r, transactionCount, minTransactionSize, "transaction count")
	if err != nil {
		return nil, err
	}
	transactions := make([]*externalapi.DomainTransaction, transactionCount)
	for i := range transactions {
		transactions[i], err = ReadTransaction(r)
		if err != nil {
			return nil, err
		}
	}
	if r.Len() != 0 {
		return nil, errors.Wrapf(errMalformed, "%d trailing bytes after the block", r.Len())
	}
	return &externalapi.DomainBlock{
		Header:       header,
		Transactions: transactions,
	}, nil
}
