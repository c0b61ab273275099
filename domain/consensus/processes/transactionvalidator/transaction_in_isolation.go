package transactionvalidator

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
)

// ValidateTransactionInIsolation validates everything about the
// transaction that does not depend on the UTXO set or the chain
func (v *transactionValidator) ValidateTransactionInIsolation(tx *externalapi.DomainTransaction) error {
	err := v.checkTransactionVersion(tx)
	if err != nil {
		return err
	}
	err = v.checkTransactionInputCount(tx)
	if err != nil {
		return err
	}
	err = v.checkTransactionOutputCount(tx)
	if err != nil {
		return err
	}
	err = v.checkTransactionSize(tx)
	if err != nil {
		return err
	}
	err = v.checkTransactionAmountRanges(tx)
	if err != nil {
		return err
	}
	err = v.checkScriptSizes(tx)
	if err != nil {
		return err
	}
	err = v.checkDuplicateTransactionInputs(tx)
	if err != nil {
		return err
	}
	return v.checkCoinbaseAndNullInputs(tx)
}

func (v *transactionValidator) checkTransactionVersion(tx *externalapi.DomainTransaction) error {
	if tx.Version > constants.TransactionVersion {
		return errors.Wrapf(ruleerrors.ErrTransactionVersionIsUnknown, "transaction version %d is "+
			"higher than the maximum known version %d", tx.Version, constants.TransactionVersion)
	}
	return nil
}

func (v *transactionValidator) checkTransactionInputCount(tx *externalapi.DomainTransaction) error {
	// A transaction must have at least one input.
	if len(tx.Inputs) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTxInputs, "transaction has no inputs")
	}
	return nil
}

func (v *transactionValidator) checkTransactionOutputCount(tx *externalapi.DomainTransaction) error {
	if len(tx.Outputs) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTxOutputs, "transaction has no outputs")
	}
	return nil
}

func (v *transactionValidator) checkTransactionSize(tx *externalapi.DomainTransaction) error {
	size := serialization.TransactionSize(tx)
	if size > constants.MaxTransactionSize {
		return errors.Wrapf(ruleerrors.ErrTxTooLarge, "serialized transaction is too big - got "+
			"%d, max %d", size, constants.MaxTransactionSize)
	}
	return nil
}

func (v *transactionValidator) checkTransactionAmountRanges(tx *externalapi.DomainTransaction) error {
	// Ensure the transaction amounts are in range. Each transaction
	// output must not be more than the max allowed per transaction. Also,
	// the total of all outputs must abide by the same restrictions. All
	// amounts in a transaction are in a unit value known as a sompi. One
	// ZMG is a quantity of sompi as defined by the SompiPerZMG constant.
	var totalSompi uint64
	for _, output := range tx.Outputs {
		sompi := output.Value
		if sompi > constants.MaxSompi {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "transaction output value of %d is "+
				"higher than max allowed value of %d", sompi, uint64(constants.MaxSompi))
		}

		// Binary arithmetic guarantees that any overflow is detected and reported.
		newTotalSompi := totalSompi + sompi
		if newTotalSompi < totalSompi {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
				"outputs exceeds max allowed value of %d", uint64(constants.MaxSompi))
		}
		totalSompi = newTotalSompi
		if totalSompi > constants.MaxSompi {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
				"outputs is %d which is higher than max allowed value of %d", totalSompi,
				uint64(constants.MaxSompi))
		}
	}
	return nil
}

func (v *transactionValidator) checkScriptSizes(tx *externalapi.DomainTransaction) error {
	for i, input := range tx.Inputs {
		if len(input.SignatureScript) > constants.MaxScriptSize {
			return errors.Wrapf(ruleerrors.ErrScriptResourceExceeded, "signature script of input %d "+
				"is %d bytes, max %d", i, len(input.SignatureScript), constants.MaxScriptSize)
		}
	}
	for i, output := range tx.Outputs {
		if output.ScriptPublicKey == nil {
			return errors.Wrapf(ruleerrors.ErrBadTxOutValue, "output %d has no script public key", i)
		}
		if len(output.ScriptPublicKey.Script) > constants.MaxScriptSize {
			return errors.Wrapf(ruleerrors.ErrScriptResourceExceeded, "script public key of output %d "+
				"is %d bytes, max %d", i, len(output.ScriptPublicKey.Script), constants.MaxScriptSize)
		}
	}
	return nil
}

func (v *transactionValidator) checkDuplicateTransactionInputs(tx *externalapi.DomainTransaction) error {
	existingTxOut := make(map[externalapi.DomainOutpoint]struct{})
	for _, input := range tx.Inputs {
		if _, exists := existingTxOut[input.PreviousOutpoint]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTxInputs, "transaction "+
				"contains duplicate inputs")
		}
		existingTxOut[input.PreviousOutpoint] = struct{}{}
	}
	return nil
}

func (v *transactionValidator) checkCoinbaseAndNullInputs(tx *externalapi.DomainTransaction) error {
	if transactionhelper.IsCoinBase(tx) {
		// Coinbase script length must be between min and max length.
		scriptLength := len(tx.Inputs[0].SignatureScript)
		if scriptLength < constants.MinCoinbaseScriptLen || scriptLength > constants.MaxCoinbaseScriptLen {
			return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "coinbase transaction script length "+
				"of %d is out of range (min: %d, max: %d)",
				scriptLength, constants.MinCoinbaseScriptLen, constants.MaxCoinbaseScriptLen)
		}
		return nil
	}

	// Previous transaction outputs referenced by the inputs to this
	// transaction must not be null.
	for _, input := range tx.Inputs {
		if input.PreviousOutpoint.Index == transactionhelper.CoinbaseOutpointIndex &&
			input.PreviousOutpoint.TransactionID == (externalapi.DomainTransactionID{}) {
			return errors.Wrapf(ruleerrors.ErrBadTxInput, "transaction "+
				"input refers to previous output that is null")
		}
	}
	return nil
}

func (v *transactionValidator) checkNotCoinbase(tx *externalapi.DomainTransaction) error {
	if transactionhelper.IsCoinBase(tx) {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction, "a coinbase transaction "+
			"is only valid as the first transaction of a block")
	}
	return nil
}
