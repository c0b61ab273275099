package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/hashes"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
)

// SigHashType represents hash type bits at the end of a signature.
type SigHashType uint8

// Hash type bits from the end of a signature.
const (
	SigHashAll SigHashType = 0x1
)

// IsStandardSigHashType returns whether hashType is a defined sighash type
func (hashType SigHashType) IsStandardSigHashType() bool {
	return hashType == SigHashAll
}

// CalculateSignatureHash will, given a script and hash type calculate the
// signature hash of input idx of tx to be used for signing and
// verification. The input must have its UTXOEntry populated.
//
// The digest commits to the transaction without signature scripts, the
// index of the signed input, the script public key and amount it spends,
// and the hash type.
func CalculateSignatureHash(tx *externalapi.DomainTransaction, idx int, hashType SigHashType) (
	*externalapi.DomainHash, error) {

	if !hashType.IsStandardSigHashType() {
		return nil, errors.Errorf("invalid hash type 0x%x", uint8(hashType))
	}
	if idx < 0 || idx >= len(tx.Inputs) {
		return nil, errors.Errorf("input index %d is out of range for a transaction with %d inputs",
			idx, len(tx.Inputs))
	}
	utxoEntry := tx.Inputs[idx].UTXOEntry
	if utxoEntry == nil {
		return nil, errors.Errorf("input %d of the transaction has no UTXO entry", idx)
	}
	if utxoEntry.ScriptPublicKey().Version > constants.MaxScriptPublicKeyVersion {
		return nil, errors.Errorf("script version %d is unknown", utxoEntry.ScriptPublicKey().Version)
	}

	writer := hashes.NewTransactionSigningHashWriter()
	err := serialization.SerializeTransaction(writer, tx, serialization.TxEncodingExcludeSignatureScript)
	if err != nil {
		return nil, err
	}
	err = serialization.WriteElements(writer, uint32(idx), utxoEntry.Amount())
	if err != nil {
		return nil, err
	}
	err = serialization.WriteScriptPublicKey(writer, utxoEntry.ScriptPublicKey())
	if err != nil {
		return nil, err
	}
	err = serialization.WriteElement(writer, uint8(hashType))
	if err != nil {
		return nil, err
	}
	return writer.Finalize(), nil
}
