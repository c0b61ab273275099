package serialization

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
)

const (
	outpointSize = externalapi.DomainHashSize + 4

	// version + counts + lock time
	minTransactionSize = 2 + 8 + 8 + 8

	// outpoint + script length + sequence
	minTransactionInputSize = outpointSize + 8 + 8

	// value + script version + script length
	minTransactionOutputSize = 8 + 2 + 8
)

// TxEncoding is a bitmask defining which transaction fields we
// want to encode and which to ignore.
type TxEncoding uint8

const (
	// TxEncodingFull encodes every field of the transaction
	TxEncodingFull TxEncoding = 0

	// TxEncodingExcludeSignatureScript excludes all signature scripts
	// from the encoding
	TxEncodingExcludeSignatureScript TxEncoding = 1
)

// SerializeTransaction writes tx to w in the given encoding
func SerializeTransaction(w io.Writer, tx *externalapi.DomainTransaction, encoding TxEncoding) error {
	err := WriteElements(w, tx.Version, uint64(len(tx.Inputs)))
	if err != nil {
		return err
	}
	for _, input := range tx.Inputs {
		err = writeTransactionInput(w, input, encoding)
		if err != nil {
			return err
		}
	}

	err = WriteElement(w, uint64(len(tx.Outputs)))
	if err != nil {
		return err
	}
	for _, output := range tx.Outputs {
		err = writeTransactionOutput(w, output)
		if err != nil {
			return err
		}
	}

	return WriteElement(w, tx.LockTime)
}

func writeTransactionInput(w io.Writer, input *externalapi.DomainTransactionInput, encoding TxEncoding) error {
	err := WriteOutpoint(w, &input.PreviousOutpoint)
	if err != nil {
		return err
	}
	if encoding&TxEncodingExcludeSignatureScript != TxEncodingExcludeSignatureScript {
		err = WriteVarBytes(w, input.SignatureScript)
	} else {
		err = WriteVarBytes(w, []byte{})
	}
	if err != nil {
		return err
	}
	return WriteElement(w, input.Sequence)
}

// WriteOutpoint writes the transaction ID and the index of outpoint to w
func WriteOutpoint(w io.Writer, outpoint *externalapi.DomainOutpoint) error {
	return WriteElements(w, outpoint.TransactionID, outpoint.Index)
}

func writeTransactionOutput(w io.Writer, output *externalapi.DomainTransactionOutput) error {
	err := WriteElement(w, output.Value)
	if err != nil {
		return err
	}
	return WriteScriptPublicKey(w, output.ScriptPublicKey)
}

// WriteScriptPublicKey writes the version and the script of scriptPublicKey
// to w
func WriteScriptPublicKey(w io.Writer, scriptPublicKey *externalapi.ScriptPublicKey) error {
	err := WriteElement(w, scriptPublicKey.Version)
	if err != nil {
		return err
	}
	return WriteVarBytes(w, scriptPublicKey.Script)
}

// TransactionToBytes returns the full serialization of tx
func TransactionToBytes(tx *externalapi.DomainTransaction) []byte {
	buf := &bytes.Buffer{}
	err := SerializeTransaction(buf, tx, TxEncodingFull)
	if err != nil {
		// Writing to a bytes.Buffer never fails
		panic(errors.Wrap(err, "this should never happen. SerializeTransaction failed writing to a buffer"))
	}
	return buf.Bytes()
}

// TransactionSize returns the size of the full serialization of tx in
// bytes
func TransactionSize(tx *externalapi.DomainTransaction) uint64 {
	size := uint64(minTransactionSize)
	for _, input := range tx.Inputs {
		size += minTransactionInputSize + uint64(len(input.SignatureScript))
	}
	for _, output := range tx.Outputs {
		size += minTransactionOutputSize + uint64(len(output.ScriptPublicKey.Script))
	}
	return size
}

// DeserializeTransaction decodes a transaction. The data must hold exactly
// one transaction.
func DeserializeTransaction(data []byte) (*externalapi.DomainTransaction, error) {
	if len(data) > constants.MaxTransactionSize {
		return nil, errors.Wrapf(errMalformed, "transaction is %d bytes, which is above the limit of %d",
			len(data), constants.MaxTransactionSize)
	}
	r := bytes.NewReader(data)
	tx, err := ReadTransaction(r)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, errors.Wrapf(errMalformed, "%d trailing bytes after the transaction", r.Len())
	}
	return tx, nil
}

// ReadTransaction decodes the next transaction of r
func ReadTransaction(r *bytes.Reader) (*externalapi.DomainTransaction, error) {
	tx := &externalapi.DomainTransaction{}
	var inputCount uint64
	err := ReadElements(r, &tx.Version, &inputCount)
	if err != nil {
		return nil, err
	}
	err = checkCount(r, inputCount, minTransactionInputSize, "input count")
	if err != nil {
		return nil, err
	}
	tx.Inputs = make([]*externalapi.DomainTransactionInput, inputCount)
	for i := range tx.Inputs {
		tx.Inputs[i], err = readTransactionInput(r)
		if err != nil {
			return nil, err
		}
	}

	var outputCount uint64
	err = ReadElement(r, &outputCount)
	if err != nil {
		return nil, err
	}
	err = checkCount(r, outputCount, minTransactionOutputSize, "output count")
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]*externalapi.DomainTransactionOutput, outputCount)
	for i := range tx.Outputs {
		tx.Outputs[i], err = readTransactionOutput(r)
		if err != nil {
			return nil, err
		}
	}

	err = ReadElement(r, &tx.LockTime)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func readTransactionInput(r io.Reader) (*externalapi.DomainTransactionInput, error) {
	input := &externalapi.DomainTransactionInput{}
	outpoint, err := ReadOutpoint(r)
	if err != nil {
		return nil, err
	}
	input.PreviousOutpoint = *outpoint
	input.SignatureScript, err = ReadVarBytes(r, constants.MaxScriptSize, "signature script")
	if err != nil {
		return nil, err
	}
	err = ReadElement(r, &input.Sequence)
	if err != nil {
		return nil, err
	}
	return input, nil
}

// ReadOutpoint reads an outpoint written by WriteOutpoint
func ReadOutpoint(r io.Reader) (*externalapi.DomainOutpoint, error) {
	outpoint := &externalapi.DomainOutpoint{}
	err := ReadElements(r, &outpoint.TransactionID, &outpoint.Index)
	if err != nil {
		return nil, err
	}
	return outpoint, nil
}

func readTransactionOutput(r io.Reader) (*externalapi.DomainTransactionOutput, error) {
	output := &externalapi.DomainTransactionOutput{}
	err := ReadElement(r, &output.Value)
	if err != nil {
		return nil, err
	}
	output.ScriptPublicKey, err = ReadScriptPublicKey(r)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// ReadScriptPublicKey reads a script public key written by
// WriteScriptPublicKey
func ReadScriptPublicKey(r io.Reader) (*externalapi.ScriptPublicKey, error) {
	scriptPublicKey := &externalapi.ScriptPublicKey{}
	err := ReadElement(r, &scriptPublicKey.Version)
	if err != nil {
		return nil, err
	}
	scriptPublicKey.Script, err = ReadVarBytes(r, constants.MaxScriptSize, "script public key")
	if err != nil {
		return nil, err
	}
	return scriptPublicKey, nil
}

// checkCount makes sure r has enough bytes left to hold count items of at
// least minItemSize bytes each, so that a forged count cannot force a large
// allocation.
func checkCount(r *bytes.Reader, count uint64, minItemSize uint64, fieldName string) error {
	if count > uint64(r.Len())/minItemSize {
		return errors.Wrapf(errMalformed, "%s %d is larger than the remaining %d bytes allow",
			fieldName, count, r.Len())
	}
	return nil
}
