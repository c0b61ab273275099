package transactionhelper

import (
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/txscript"
)

// CoinbaseOutpointIndex is the index of the null outpoint a coinbase input
// refers to
const CoinbaseOutpointIndex = ^uint32(0)

// IsCoinBase determines whether or not a transaction is a coinbase. A
// coinbase has exactly one input, which refers to the null outpoint.
func IsCoinBase(tx *externalapi.DomainTransaction) bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	previousOutpoint := tx.Inputs[0].PreviousOutpoint
	return previousOutpoint.Index == CoinbaseOutpointIndex &&
		previousOutpoint.TransactionID == externalapi.DomainTransactionID{}
}

// CoinbaseSignatureScript returns the signature script of the coinbase of
// the block at blockHeight: a push of the height followed by extraData
func CoinbaseSignatureScript(blockHeight uint64, extraData []byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder().AddInt64(int64(blockHeight))
	if len(extraData) > 0 {
		builder.AddData(extraData)
	}
	return builder.Script()
}

// NewCoinbaseTransaction returns the coinbase of the block at blockHeight
// paying the given outputs
func NewCoinbaseTransaction(blockHeight uint64, extraData []byte,
	outputs []*externalapi.DomainTransactionOutput) (*externalapi.DomainTransaction, error) {

	signatureScript, err := CoinbaseSignatureScript(blockHeight, extraData)
	if err != nil {
		return nil, err
	}
	return &externalapi.DomainTransaction{
		Version: constants.TransactionVersion,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{Index: CoinbaseOutpointIndex},
			SignatureScript:  signatureScript,
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		Outputs:  outputs,
		LockTime: 0,
	}, nil
}

// NewNativeTransaction returns a new transaction spending inputs to outputs
func NewNativeTransaction(version uint16, inputs []*externalapi.DomainTransactionInput,
	outputs []*externalapi.DomainTransactionOutput) *externalapi.DomainTransaction {

	return &externalapi.DomainTransaction{
		Version:  version,
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: 0,
	}
}
