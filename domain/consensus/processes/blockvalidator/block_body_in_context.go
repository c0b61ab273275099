package blockvalidator

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/infrastructure/logger"
)

// ValidateBodyInContextAndApply validates the transactions of block against
// view, the UTXO set of parent, and applies them to it. Transactions are
// validated and applied strictly in order, so a transaction may spend an
// output created earlier in the same block. On failure view is left
// unchanged.
func (v *blockValidator) ValidateBodyInContextAndApply(ctx context.Context, block *externalapi.DomainBlock,
	parent *blocknode.Node, view model.UTXOView) (*model.UndoData, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBodyInContextAndApply")
	defer onEnd()

	blockHeight := parent.Height + 1
	pastMedianTime := v.pastMedianTimeManager.PastMedianTime(parent)

	snapshot := view.Snapshot()
	undoData, err := v.applyTransactions(ctx, block, blockHeight, pastMedianTime, snapshot)
	if err != nil {
		snapshot.Discard()
		return nil, err
	}
	err = snapshot.Merge()
	if err != nil {
		return nil, err
	}
	return undoData, nil
}

func (v *blockValidator) applyTransactions(ctx context.Context, block *externalapi.DomainBlock,
	blockHeight uint64, pastMedianTime int64, snapshot model.UTXOView) (*model.UndoData, error) {

	undoData := model.NewUndoData()
	totalFees := uint64(0)
	for i, tx := range block.Transactions {
		err := ctx.Err()
		if err != nil {
			return nil, errors.WithStack(err)
		}

		isCoinbase := i == coinbaseTransactionIndex
		if !isCoinbase {
			err = v.transactionValidator.ValidateTransactionInContextAndPopulateFee(
				ctx, tx, snapshot, blockHeight, pastMedianTime)
			if err != nil {
				return nil, errors.Wrapf(err, "transaction %s failed validation",
					consensushashing.TransactionID(tx))
			}
			newTotalFees := totalFees + tx.Fee
			if newTotalFees < totalFees {
				return nil, errors.Wrapf(ruleerrors.ErrBadTxOutValue, "total fees of the block overflow")
			}
			totalFees = newTotalFees
		}

		err = snapshot.ApplyTransaction(tx, blockHeight, isCoinbase, undoData)
		if err != nil {
			return nil, err
		}
	}

	err := v.checkCoinbaseValue(block, blockHeight, totalFees)
	if err != nil {
		return nil, err
	}
	return undoData, nil
}

// checkCoinbaseValue ensures the coinbase pays at most the block subsidy
// plus the fees of the block's transactions
func (v *blockValidator) checkCoinbaseValue(block *externalapi.DomainBlock, blockHeight uint64, totalFees uint64) error {
	coinbaseValue := uint64(0)
	for _, output := range block.Transactions[coinbaseTransactionIndex].Outputs {
		coinbaseValue += output.Value
	}

	maxCoinbaseValue := v.calcBlockSubsidy(blockHeight) + totalFees
	if coinbaseValue > maxCoinbaseValue {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseValue, "coinbase pays %d, which is more than "+
			"the subsidy plus fees of %d", coinbaseValue, maxCoinbaseValue)
	}
	return nil
}
