package transactionvalidator

import (
	"context"
	"runtime"

	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/txscript"
)

const sigCacheSize = 10_000

// transactionValidator exposes a set of validation classes, after which
// it's possible to determine whether either a transaction is valid
type transactionValidator struct {
	blockCoinbaseMaturity uint64
	sigCache              *txscript.SigCache
	maxScriptWorkers      int
}

// New instantiates a new TransactionValidator. A nil sigCache is replaced
// with a fresh one.
func New(blockCoinbaseMaturity uint64, sigCache *txscript.SigCache) (model.TransactionValidator, error) {
	if sigCache == nil {
		var err error
		sigCache, err = txscript.NewSigCache(sigCacheSize)
		if err != nil {
			return nil, err
		}
	}
	return &transactionValidator{
		blockCoinbaseMaturity: blockCoinbaseMaturity,
		sigCache:              sigCache,
		maxScriptWorkers:      runtime.NumCPU(),
	}, nil
}

// ValidateTransaction runs every check on a transaction submitted outside
// of a block, as if it were included in a block at povHeight, and returns
// the verdict. On acceptance the transaction's fee and input UTXO entries
// are populated.
func (v *transactionValidator) ValidateTransaction(ctx context.Context, tx *externalapi.DomainTransaction,
	utxoReader model.UTXOReader, povHeight uint64, povMedianTime int64) externalapi.Verdict {

	err := v.validateTransaction(ctx, tx, utxoReader, povHeight, povMedianTime)
	if err != nil {
		log.Debugf("Transaction %s rejected: %s", consensushashing.TransactionID(tx), err)
		return ruleerrors.NewVerdict(0, err)
	}
	return ruleerrors.NewVerdict(tx.Fee, nil)
}

func (v *transactionValidator) validateTransaction(ctx context.Context, tx *externalapi.DomainTransaction,
	utxoReader model.UTXOReader, povHeight uint64, povMedianTime int64) error {

	err := v.ValidateTransactionInIsolation(tx)
	if err != nil {
		return err
	}
	err = v.checkNotCoinbase(tx)
	if err != nil {
		return err
	}
	return v.ValidateTransactionInContextAndPopulateFee(ctx, tx, utxoReader, povHeight, povMedianTime)
}
