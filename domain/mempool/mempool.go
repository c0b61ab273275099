package mempool

import (
	"context"
	"sync"

	"github.com/jellydator/ttlcache/v3"
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
	"github.com/zmgnet/zmgd/infrastructure/logger"
)

// TransactionValidator validates a transaction against the current chain
// tip and populates its fee
type TransactionValidator interface {
	ValidateTransactionAndPopulateWithConsensusData(ctx context.Context, transaction *externalapi.DomainTransaction) error
}

// Mempool holds loose transactions that are valid against the current tip
// and spend no outpoint spent by another of its transactions. Transactions
// expire after a while, and the least recently added ones are evicted when
// the mempool is full.
type Mempool struct {
	lock      sync.Mutex
	config    *Config
	validator TransactionValidator

	transactions *ttlcache.Cache[externalapi.DomainTransactionID, *externalapi.DomainTransaction]

	// spentOutpoints maps every outpoint spent by a mempool transaction to
	// its spender. Entries whose spender has since expired or been evicted
	// are stale and are ignored.
	spentOutpoints map[externalapi.DomainOutpoint]externalapi.DomainTransactionID
}

// New creates a new mempool. Start must be called for expired
// transactions to be cleaned up proactively.
func New(config *Config, validator TransactionValidator) *Mempool {
	transactions := ttlcache.New[externalapi.DomainTransactionID, *externalapi.DomainTransaction](
		ttlcache.WithTTL[externalapi.DomainTransactionID, *externalapi.DomainTransaction](config.TransactionExpiry),
		ttlcache.WithCapacity[externalapi.DomainTransactionID, *externalapi.DomainTransaction](config.MaximumTransactionCount),
		ttlcache.WithDisableTouchOnHit[externalapi.DomainTransactionID, *externalapi.DomainTransaction](),
	)
	transactions.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason,
		item *ttlcache.Item[externalapi.DomainTransactionID, *externalapi.DomainTransaction]) {

		switch reason {
		case ttlcache.EvictionReasonExpired:
			log.Debugf("Transaction %s expired from the mempool", item.Key())
		case ttlcache.EvictionReasonCapacityReached:
			log.Debugf("Transaction %s was evicted from the full mempool", item.Key())
		}
	})

	return &Mempool{
		config:         config,
		validator:      validator,
		transactions:   transactions,
		spentOutpoints: make(map[externalapi.DomainOutpoint]externalapi.DomainTransactionID),
	}
}

// Start runs the cleanup of expired transactions until Stop is called
func (mp *Mempool) Start() {
	go mp.transactions.Start()
}

// Stop stops the cleanup of expired transactions
func (mp *Mempool) Stop() {
	mp.transactions.Stop()
}

// ValidateAndInsertTransaction validates transaction against the current
// tip and the rest of the mempool, and inserts it if it is valid. On
// success the transaction's fee is populated.
func (mp *Mempool) ValidateAndInsertTransaction(ctx context.Context, transaction *externalapi.DomainTransaction) error {
	mp.lock.Lock()
	defer mp.lock.Unlock()

	return mp.validateAndInsertTransactionNoLock(ctx, transaction)
}

func (mp *Mempool) validateAndInsertTransactionNoLock(ctx context.Context,
	transaction *externalapi.DomainTransaction) error {

	transactionID := consensushashing.TransactionID(transaction)
	if mp.transactions.Has(*transactionID) {
		return errors.Wrapf(ruleerrors.ErrTransactionInMempool, "transaction %s", transactionID)
	}
	if transactionhelper.IsCoinBase(transaction) {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseTransaction,
			"transaction %s is a coinbase. Coinbases are only valid in blocks", transactionID)
	}

	for _, input := range transaction.Inputs {
		if spender, ok := mp.spenderNoLock(&input.PreviousOutpoint); ok {
			return errors.Wrapf(ruleerrors.ErrDoubleSpendInMempool,
				"transaction %s spends outpoint %s, already spent by mempool transaction %s",
				transactionID, input.PreviousOutpoint, spender)
		}
	}

	err := mp.validator.ValidateTransactionAndPopulateWithConsensusData(ctx, transaction)
	if err != nil {
		return err
	}

	mp.transactions.Set(*transactionID, transaction, ttlcache.DefaultTTL)
	for _, input := range transaction.Inputs {
		mp.spentOutpoints[input.PreviousOutpoint] = *transactionID
	}
	log.Debugf("Accepted transaction %s paying a fee of %d", transactionID, transaction.Fee)
	return nil
}

// spenderNoLock returns the mempool transaction spending outpoint, if any
func (mp *Mempool) spenderNoLock(outpoint *externalapi.DomainOutpoint) (*externalapi.DomainTransactionID, bool) {
	spender, ok := mp.spentOutpoints[*outpoint]
	if !ok {
		return nil, false
	}
	if !mp.transactions.Has(spender) {
		delete(mp.spentOutpoints, *outpoint)
		return nil, false
	}
	return &spender, true
}

func (mp *Mempool) removeTransactionNoLock(transactionID *externalapi.DomainTransactionID) {
	item := mp.transactions.Get(*transactionID)
	if item == nil {
		return
	}
	for _, input := range item.Value().Inputs {
		if spender, ok := mp.spentOutpoints[input.PreviousOutpoint]; ok && spender == *transactionID {
			delete(mp.spentOutpoints, input.PreviousOutpoint)
		}
	}
	mp.transactions.Delete(*transactionID)
}

// HandleChainChanges updates the mempool after the active chain changed.
// Transactions of removed blocks are offered to the mempool again.
// Transactions of added blocks, and mempool transactions conflicting with
// them, are removed. Every remaining transaction is revalidated against
// the new tip and dropped if no longer valid.
func (mp *Mempool) HandleChainChanges(ctx context.Context, removed, added []*externalapi.DomainBlock) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "HandleChainChanges")
	defer onEnd()

	mp.lock.Lock()
	defer mp.lock.Unlock()

	for _, block := range added {
		for _, transaction := range block.Transactions {
			mp.removeTransactionNoLock(consensushashing.TransactionID(transaction))
			for _, input := range transaction.Inputs {
				if spender, ok := mp.spenderNoLock(&input.PreviousOutpoint); ok {
					log.Debugf("Removing transaction %s: it double spends %s, spent in block %s",
						spender, input.PreviousOutpoint, consensushashing.BlockHash(block))
					mp.removeTransactionNoLock(spender)
				}
			}
		}
	}

	for _, item := range mp.transactions.Items() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := mp.validator.ValidateTransactionAndPopulateWithConsensusData(ctx, item.Value())
		if err != nil {
			if !ruleerrors.IsRuleError(err) {
				return err
			}
			log.Debugf("Removing transaction %s, no longer valid: %s", item.Key(), err)
			transactionID := item.Key()
			mp.removeTransactionNoLock(&transactionID)
		}
	}

	for _, block := range removed {
		for _, transaction := range block.Transactions {
			if transactionhelper.IsCoinBase(transaction) {
				continue
			}
			err := mp.validateAndInsertTransactionNoLock(ctx, transaction.Clone())
			if err != nil {
				if !ruleerrors.IsRuleError(err) {
					return err
				}
				log.Debugf("Transaction %s of a disconnected block was not returned to the mempool: %s",
					consensushashing.TransactionID(transaction), err)
			}
		}
	}
	return nil
}

// Transactions returns copies of all the transactions in the mempool
func (mp *Mempool) Transactions() []*externalapi.DomainTransaction {
	mp.lock.Lock()
	defer mp.lock.Unlock()

	items := mp.transactions.Items()
	transactions := make([]*externalapi.DomainTransaction, 0, len(items))
	for _, item := range items {
		transactions = append(transactions, item.Value().Clone())
	}
	return transactions
}

// Transaction returns a copy of the mempool transaction with the given
// ID, if any
func (mp *Mempool) Transaction(transactionID *externalapi.DomainTransactionID) (*externalapi.DomainTransaction, bool) {
	mp.lock.Lock()
	defer mp.lock.Unlock()

	item := mp.transactions.Get(*transactionID)
	if item == nil {
		return nil, false
	}
	return item.Value().Clone(), true
}

// Count returns the number of transactions in the mempool
func (mp *Mempool) Count() int {
	return mp.transactions.Len()
}
