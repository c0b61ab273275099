package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/merkle"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
	"github.com/zmgnet/zmgd/infrastructure/logger"
)

const coinbaseTransactionIndex = 0

// ValidateBlockInIsolation runs every check that needs nothing but the
// block itself: the header first, then the body.
func (v *blockValidator) ValidateBlockInIsolation(block *externalapi.DomainBlock) error {
	err := v.ValidateHeaderInIsolation(block.Header)
	if err != nil {
		return err
	}
	return v.ValidateBodyInIsolation(block)
}

// ValidateBodyInIsolation checks the block's transaction list. The checks
// run in a fixed order so that a block breaking several rules is always
// rejected for the same one.
func (v *blockValidator) ValidateBodyInIsolation(block *externalapi.DomainBlock) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBodyInIsolation")
	defer onEnd()

	checks := []func(*externalapi.DomainBlock) error{
		v.checkBlockWeight,
		v.checkCoinbasePlacement,
		v.checkBlockHashMerkleRoot,
		v.checkTransactionsInIsolation,
		v.checkTransactionUniqueness,
	}
	for _, check := range checks {
		err := check(block)
		if err != nil {
			return err
		}
	}
	return nil
}

func (v *blockValidator) checkBlockWeight(block *externalapi.DomainBlock) error {
	weight := serialization.BlockSize(block)
	if weight > v.maxBlockWeight {
		return errors.Wrapf(ruleerrors.ErrBlockWeightTooHigh,
			"serialized block is %d bytes, limit is %d", weight, v.maxBlockWeight)
	}
	return nil
}

// checkCoinbasePlacement requires exactly one coinbase, at index 0.
func (v *blockValidator) checkCoinbasePlacement(block *externalapi.DomainBlock) error {
	if len(block.Transactions) == 0 {
		return errors.Wrap(ruleerrors.ErrNoTransactions, "block has no transactions")
	}
	if !transactionhelper.IsCoinBase(block.Transactions[0]) {
		return errors.Wrap(ruleerrors.ErrFirstTxNotCoinbase, "first transaction is not a coinbase")
	}
	for i := 1; i < len(block.Transactions); i++ {
		if transactionhelper.IsCoinBase(block.Transactions[i]) {
			return errors.Wrapf(ruleerrors.ErrMultipleCoinbases, "second coinbase at index %d", i)
		}
	}
	return nil
}

func (v *blockValidator) checkBlockHashMerkleRoot(block *externalapi.DomainBlock) error {
	calculated := merkle.CalculateHashMerkleRoot(block.Transactions)
	if !block.Header.HashMerkleRoot.Equal(calculated) {
		return errors.Wrapf(ruleerrors.ErrBadMerkleRoot,
			"header commits to merkle root %s, transactions hash to %s",
			block.Header.HashMerkleRoot, calculated)
	}
	return nil
}

func (v *blockValidator) checkTransactionsInIsolation(block *externalapi.DomainBlock) error {
	for _, tx := range block.Transactions {
		err := v.transactionValidator.ValidateTransactionInIsolation(tx)
		if err != nil {
			return errors.Wrapf(err, "transaction %s", consensushashing.TransactionID(tx))
		}
	}
	return nil
}

// checkTransactionUniqueness rejects a block that repeats a transaction or
// spends the same outpoint twice.
func (v *blockValidator) checkTransactionUniqueness(block *externalapi.DomainBlock) error {
	seenIDs := make(map[externalapi.DomainTransactionID]struct{}, len(block.Transactions))
	spentBy := make(map[externalapi.DomainOutpoint]*externalapi.DomainTransactionID)

	for i, tx := range block.Transactions {
		txID := consensushashing.TransactionID(tx)
		if _, ok := seenIDs[*txID]; ok {
			return errors.Wrapf(ruleerrors.ErrDuplicateTx, "transaction %s appears twice", txID)
		}
		seenIDs[*txID] = struct{}{}

		if i == 0 {
			continue
		}
		for _, input := range tx.Inputs {
			if spender, ok := spentBy[input.PreviousOutpoint]; ok {
				return errors.Wrapf(ruleerrors.ErrDoubleSpendInSameBlock,
					"transaction %s spends %s, already spent by %s", txID, input.PreviousOutpoint, spender)
			}
			spentBy[input.PreviousOutpoint] = txID
		}
	}
	return nil
}
