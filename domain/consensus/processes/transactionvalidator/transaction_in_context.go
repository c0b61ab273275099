package transactionvalidator

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/txscript"
	"golang.org/x/sync/errgroup"
)

// IsFinalizedTransaction determines whether or not a transaction is finalized.
func IsFinalizedTransaction(tx *externalapi.DomainTransaction, blockHeight uint64, blockTime int64) bool {
	// Lock time of zero means the transaction is finalized.
	lockTime := tx.LockTime
	if lockTime == 0 {
		return true
	}

	// The lock time field of a transaction is either a block height at
	// which the transaction is finalized or a timestamp depending on if the
	// value is before the constants.LockTimeThreshold. When it is under the
	// threshold it is a block height.
	blockTimeOrHeight := uint64(0)
	if lockTime < constants.LockTimeThreshold {
		blockTimeOrHeight = blockHeight
	} else {
		blockTimeOrHeight = uint64(blockTime)
	}
	if lockTime < blockTimeOrHeight {
		return true
	}

	// At this point, the transaction's lock time hasn't occurred yet, but
	// the transaction might still be finalized if the sequence number
	// for all transaction inputs is maxed out.
	for _, input := range tx.Inputs {
		if input.Sequence != constants.MaxTxInSequenceNum {
			return false
		}
	}
	return true
}

// ValidateTransactionInContextAndPopulateFee validates the transaction
// against the UTXO entries it spends as seen through utxoReader, as if it
// were included in a block at povHeight whose parent has povMedianTime as
// its past median time. The inputs are populated with the entries they
// spend and the fee field with the transaction fee.
//
// Note: if the function fails, there's no guarantee that the transaction
// fee and UTXO entry fields will remain unaffected.
func (v *transactionValidator) ValidateTransactionInContextAndPopulateFee(ctx context.Context,
	tx *externalapi.DomainTransaction, utxoReader model.UTXOReader, povHeight uint64, povMedianTime int64) error {

	if !IsFinalizedTransaction(tx, povHeight, povMedianTime) {
		return errors.Wrapf(ruleerrors.ErrUnfinalizedTx, "unfinalized transaction with lock time %d "+
			"at height %d", tx.LockTime, povHeight)
	}

	err := v.populateUTXOEntries(tx, utxoReader)
	if err != nil {
		return err
	}

	err = v.validateTransactionScripts(ctx, tx)
	if err != nil {
		return err
	}

	totalSompiIn, err := v.checkTransactionInputAmounts(tx)
	if err != nil {
		return err
	}

	totalSompiOut, err := v.checkTransactionOutputAmounts(tx, totalSompiIn)
	if err != nil {
		return err
	}

	err = v.checkTransactionCoinbaseMaturity(tx, povHeight)
	if err != nil {
		return err
	}

	tx.Fee = totalSompiIn - totalSompiOut
	return nil
}

func (v *transactionValidator) populateUTXOEntries(tx *externalapi.DomainTransaction, utxoReader model.UTXOReader) error {
	var missingOutpoints []*externalapi.DomainOutpoint
	for _, input := range tx.Inputs {
		entry, found, err := utxoReader.Get(&input.PreviousOutpoint)
		if err != nil {
			return err
		}
		if !found {
			input.UTXOEntry = nil
			missingOutpoints = append(missingOutpoints, input.PreviousOutpoint.Clone())
			continue
		}
		input.UTXOEntry = entry
	}
	if len(missingOutpoints) > 0 {
		return ruleerrors.NewErrMissingTxOut(missingOutpoints)
	}
	return nil
}

func (v *transactionValidator) checkTransactionCoinbaseMaturity(tx *externalapi.DomainTransaction, povHeight uint64) error {
	for _, input := range tx.Inputs {
		utxoEntry := input.UTXOEntry
		if !utxoEntry.IsCoinbase() {
			continue
		}
		originHeight := utxoEntry.BlockHeight()
		if povHeight < originHeight || povHeight-originHeight < v.blockCoinbaseMaturity {
			return errors.Wrapf(ruleerrors.ErrImmatureSpend, "tried to spend coinbase "+
				"transaction output %s from height %d "+
				"at height %d before required maturity "+
				"of %d", input.PreviousOutpoint,
				originHeight, povHeight,
				v.blockCoinbaseMaturity)
		}
	}
	return nil
}

func (v *transactionValidator) checkTransactionInputAmounts(tx *externalapi.DomainTransaction) (totalSompiIn uint64, err error) {
	totalSompiIn = 0
	for _, input := range tx.Inputs {
		// The total of all inputs must not be more than the max allowed
		// per transaction. Also, we could potentially overflow the
		// accumulator so check for overflow.
		originTxSompi := input.UTXOEntry.Amount()
		totalSompiInAfter := totalSompiIn + originTxSompi
		if totalSompiInAfter < totalSompiIn || totalSompiInAfter > constants.MaxSompi {
			return 0, errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total value of all transaction "+
				"inputs is %d which is higher than max "+
				"allowed value of %d", totalSompiIn,
				uint64(constants.MaxSompi))
		}
		totalSompiIn = totalSompiInAfter
	}
	return totalSompiIn, nil
}

func (v *transactionValidator) checkTransactionOutputAmounts(tx *externalapi.DomainTransaction, totalSompiIn uint64) (uint64, error) {
	totalSompiOut := uint64(0)
	// Calculate the total output amount for this transaction. It is safe
	// to ignore overflow and out of range errors here because those error
	// conditions would have already been caught by checkTransactionAmountRanges.
	for _, output := range tx.Outputs {
		totalSompiOut += output.Value
	}

	// Ensure the transaction does not spend more than its inputs.
	if totalSompiIn < totalSompiOut {
		return 0, errors.Wrapf(ruleerrors.ErrSpendTooHigh, "total value of all transaction inputs for "+
			"the transaction is %d which is less than the amount "+
			"spent of %d", totalSompiIn, totalSompiOut)
	}
	return totalSompiOut, nil
}

// validateTransactionScripts runs the script pair of every input, in
// parallel. When several inputs fail, the failure of the lowest input index
// is reported.
func (v *transactionValidator) validateTransactionScripts(ctx context.Context, tx *externalapi.DomainTransaction) error {
	inputErrors := make([]error, len(tx.Inputs))

	group := errgroup.Group{}
	group.SetLimit(v.maxScriptWorkers)
	for i := range tx.Inputs {
		group.Go(func() error {
			err := ctx.Err()
			if err != nil {
				return err
			}
			inputErrors[i] = v.validateInputScript(tx, i)
			return nil
		})
	}
	err := group.Wait()
	if err != nil {
		return errors.WithStack(err)
	}

	for _, err := range inputErrors {
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *transactionValidator) validateInputScript(tx *externalapi.DomainTransaction, inputIndex int) error {
	input := tx.Inputs[inputIndex]
	scriptPubKey := input.UTXOEntry.ScriptPublicKey()

	vm, err := txscript.NewEngine(scriptPubKey, tx, inputIndex, txscript.ScriptNoFlags, v.sigCache)
	if err == nil {
		err = vm.Execute()
	}
	if err == nil {
		return nil
	}

	ruleError := ruleerrors.ErrScriptValidation
	var scriptErr txscript.Error
	if errors.As(err, &scriptErr) {
		switch {
		case scriptErr.ErrorCode.IsResourceLimit():
			ruleError = ruleerrors.ErrScriptResourceExceeded
		case scriptErr.ErrorCode.IsMalformed():
			ruleError = ruleerrors.ErrScriptMalformed
		}
	}
	return errors.Wrapf(ruleError, "failed to validate input "+
		"%d which references output %s - "+
		"%s (input script bytes %x, prev output "+
		"script bytes %x)",
		inputIndex, input.PreviousOutpoint, err, input.SignatureScript, scriptPubKey.Script)
}
