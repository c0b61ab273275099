package domain

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus"
	consensusdatabase "github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
	"github.com/zmgnet/zmgd/domain/mempool"
	"github.com/zmgnet/zmgd/domain/txindex"
	"github.com/zmgnet/zmgd/domain/utxoindex"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
	"github.com/zmgnet/zmgd/infrastructure/metrics"
)

// Domain is the node's ledger: the consensus state, the mempool and the
// indexes serving wallets
type Domain interface {
	// SubmitBlock decodes, validates and, if valid, stores a block and
	// resolves the chain tip
	SubmitBlock(ctx context.Context, blockBytes []byte) externalapi.Verdict

	// SubmitTransaction decodes and validates a loose transaction against
	// the chain tip and, if valid, adds it to the mempool
	SubmitTransaction(ctx context.Context, transactionBytes []byte) externalapi.Verdict

	GetBestTip() (hash *externalapi.DomainHash, height uint64, err error)

	// GetUTXOsFor returns the UTXOs paying to any of scriptPublicKeys
	GetUTXOsFor(scriptPublicKeys []*externalapi.ScriptPublicKey) ([]*externalapi.OutpointAndUTXOEntryPair, error)

	// GetConfirmations returns the number of confirmations of a
	// transaction on the active chain, or 0 if it is not confirmed
	GetConfirmations(transactionID *externalapi.DomainTransactionID) (int64, error)

	Consensus() externalapi.Consensus
	Mempool() *mempool.Mempool
}

type domain struct {
	consensus externalapi.Consensus
	mempool   *mempool.Mempool
	utxoIndex *utxoindex.UTXOIndex
	txIndex   *txindex.TXIndex
	metrics   *metrics.Metrics

	onStorageFailure     func(err error)
	storageFailureReport sync.Once
}

// New instantiates a Domain over db
func New(config *Config, db database.Database, nodeMetrics *metrics.Metrics) (Domain, error) {
	dbContext := consensusdatabase.New(db)
	utxoIndex := utxoindex.New(dbContext, nil)
	txIndex := txindex.New(dbContext)

	consensusInstance, err := consensus.NewFactory().NewConsensus(config.Consensus, db,
		[]model.ChainIndexer{utxoIndex, txIndex})
	if err != nil {
		return nil, err
	}

	if config.VerifyUTXOCommitment {
		err = consensusInstance.VerifyUTXOCommitment()
		if err != nil {
			return nil, errors.Wrap(err, "the stored UTXO set does not match its commitment")
		}
	}

	d := &domain{
		consensus:        consensusInstance,
		mempool:          mempool.New(config.Mempool, consensusInstance),
		utxoIndex:        utxoIndex,
		txIndex:          txIndex,
		metrics:          nodeMetrics,
		onStorageFailure: config.OnStorageFailure,
	}

	_, tipHeight, err := consensusInstance.GetBestTip()
	if err != nil {
		return nil, err
	}
	nodeMetrics.ObserveChainChanges(nil, tipHeight)
	return d, nil
}

func (d *domain) Consensus() externalapi.Consensus {
	return d.consensus
}

func (d *domain) Mempool() *mempool.Mempool {
	return d.mempool
}

func (d *domain) SubmitBlock(ctx context.Context, blockBytes []byte) externalapi.Verdict {
	verdict := d.submitBlock(ctx, blockBytes)
	d.metrics.ObserveBlock(verdict)
	d.reportStorageFailure(verdict)
	return verdict
}

func (d *domain) submitBlock(ctx context.Context, blockBytes []byte) externalapi.Verdict {
	block, err := serialization.DeserializeBlock(blockBytes)
	if err != nil {
		return ruleerrors.NewVerdict(0, errors.Wrapf(ruleerrors.ErrMalformedBlock, "%s", err))
	}

	result, err := d.consensus.ValidateAndInsertBlock(ctx, block)
	if result != nil && !result.ChainChanges.IsEmpty() {
		chainErr := d.handleChainChanges(ctx, result.ChainChanges)
		if chainErr != nil {
			log.Errorf("Could not update the mempool after the chain changed: %+v", chainErr)
		}
	}
	if err != nil {
		log.Debugf("Rejected block %s: %s", consensushashing.BlockHash(block), err)
	}
	return ruleerrors.NewVerdict(0, err)
}

func (d *domain) handleChainChanges(ctx context.Context, chainChanges *externalapi.ChainChanges) error {
	removed, err := d.blocks(chainChanges.Removed)
	if err != nil {
		return err
	}
	added, err := d.blocks(chainChanges.Added)
	if err != nil {
		return err
	}

	_, tipHeight, err := d.consensus.GetBestTip()
	if err != nil {
		return err
	}
	d.metrics.ObserveChainChanges(chainChanges, tipHeight)

	err = d.mempool.HandleChainChanges(ctx, removed, added)
	if err != nil {
		return err
	}
	d.metrics.SetMempoolSize(d.mempool.Count())
	return nil
}

func (d *domain) blocks(hashes []*externalapi.DomainHash) ([]*externalapi.DomainBlock, error) {
	blocks := make([]*externalapi.DomainBlock, len(hashes))
	for i, hash := range hashes {
		block, err := d.consensus.GetBlock(hash)
		if err != nil {
			return nil, err
		}
		blocks[i] = block
	}
	return blocks, nil
}

func (d *domain) SubmitTransaction(ctx context.Context, transactionBytes []byte) externalapi.Verdict {
	verdict := d.submitTransaction(ctx, transactionBytes)
	d.metrics.ObserveTransaction(verdict)
	d.reportStorageFailure(verdict)
	return verdict
}

func (d *domain) submitTransaction(ctx context.Context, transactionBytes []byte) externalapi.Verdict {
	transaction, err := serialization.DeserializeTransaction(transactionBytes)
	if err != nil {
		return ruleerrors.NewVerdict(0, errors.Wrapf(ruleerrors.ErrMalformedTransaction, "%s", err))
	}

	err = d.mempool.ValidateAndInsertTransaction(ctx, transaction)
	if err != nil {
		log.Debugf("Rejected transaction %s: %s", consensushashing.TransactionID(transaction), err)
		return ruleerrors.NewVerdict(0, err)
	}
	d.metrics.SetMempoolSize(d.mempool.Count())
	return ruleerrors.NewVerdict(transaction.Fee, nil)
}

func (d *domain) reportStorageFailure(verdict externalapi.Verdict) {
	if verdict.Category != externalapi.CategoryStorageFailure || d.onStorageFailure == nil {
		return
	}
	d.storageFailureReport.Do(func() {
		d.onStorageFailure(verdict.Reason)
	})
}

func (d *domain) GetBestTip() (*externalapi.DomainHash, uint64, error) {
	return d.consensus.GetBestTip()
}

func (d *domain) GetUTXOsFor(scriptPublicKeys []*externalapi.ScriptPublicKey) (
	[]*externalapi.OutpointAndUTXOEntryPair, error) {

	var pairs []*externalapi.OutpointAndUTXOEntryPair
	seen := make(map[string]struct{}, len(scriptPublicKeys))
	for _, scriptPublicKey := range scriptPublicKeys {
		key := utxoindex.ScriptPublicKeyString(scriptPublicKey)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		utxos, err := d.utxoIndex.UTXOs(scriptPublicKey)
		if err != nil {
			return nil, err
		}
		for outpoint, entry := range utxos {
			outpoint := outpoint
			pairs = append(pairs, &externalapi.OutpointAndUTXOEntryPair{
				Outpoint:  &outpoint,
				UTXOEntry: entry,
			})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		compared := bytes.Compare(pairs[i].Outpoint.TransactionID.ByteSlice(),
			pairs[j].Outpoint.TransactionID.ByteSlice())
		if compared != 0 {
			return compared < 0
		}
		return pairs[i].Outpoint.Index < pairs[j].Outpoint.Index
	})
	return pairs, nil
}

func (d *domain) GetConfirmations(transactionID *externalapi.DomainTransactionID) (int64, error) {
	blockHash, found, err := d.txIndex.BlockHashOf(transactionID)
	if err != nil || !found {
		return 0, err
	}
	blockInfo, err := d.consensus.GetBlockInfo(blockHash)
	if err != nil {
		return 0, err
	}
	_, tipHeight, err := d.consensus.GetBestTip()
	if err != nil {
		return 0, err
	}
	// The index and the tip are read separately, so the block may have
	// been disconnected in between.
	if !blockInfo.Exists || !blockInfo.IsInActiveChain || blockInfo.Height > tipHeight {
		return 0, nil
	}
	return int64(tipHeight-blockInfo.Height) + 1, nil
}
