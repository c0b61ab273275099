package utxoindex

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
	"github.com/zmgnet/zmgd/infrastructure/logger"
)

// UTXOIndex maintains an index between script public keys and the UTXOs
// paying to them. It is updated in the same database transaction as the
// chain state it mirrors.
type UTXOIndex struct {
	dbContext model.DBReader
	onChanges func(*UTXOChanges)
}

// New creates a new UTXO index reading from dbContext. onChanges, if not
// nil, is called with the changes of every chain update it stages.
func New(dbContext model.DBReader, onChanges func(*UTXOChanges)) *UTXOIndex {
	return &UTXOIndex{
		dbContext: dbContext,
		onChanges: onChanges,
	}
}

// StageChainChanges stages the index updates for the given chain changes
func (ui *UTXOIndex) StageChainChanges(_ model.DBReader, stagingArea *model.StagingArea,
	removed []*model.ChainBlock, added []*model.ChainBlock) error {

	onEnd := logger.LogAndMeasureExecutionTime(log, "UTXOIndex.StageChainChanges")
	defer onEnd()

	shard := stagingShard(stagingArea)
	for _, chainBlock := range removed {
		created, spent := netChanges(chainBlock)
		for outpoint, entry := range created {
			outpoint := outpoint
			shard.remove(&outpoint, entry)
		}
		for outpoint, entry := range spent {
			outpoint := outpoint
			shard.add(&outpoint, entry)
		}
	}
	for _, chainBlock := range added {
		created, spent := netChanges(chainBlock)
		for outpoint, entry := range spent {
			outpoint := outpoint
			shard.remove(&outpoint, entry)
		}
		for outpoint, entry := range created {
			outpoint := outpoint
			shard.add(&outpoint, entry)
		}
	}

	if ui.onChanges != nil {
		ui.onChanges(shard.changes())
	}
	return nil
}

// netChanges returns the outputs chainBlock added to the UTXO set and the
// entries it removed from it. Outputs created and spent within the block
// appear in neither.
func netChanges(chainBlock *model.ChainBlock) (created, spent UTXOOutpointEntryPairs) {
	spent = make(UTXOOutpointEntryPairs, len(chainBlock.UndoData.Spent))
	for _, pair := range chainBlock.UndoData.Spent {
		spent[*pair.Outpoint] = pair.UTXOEntry
	}

	created = make(UTXOOutpointEntryPairs)
	for i, transaction := range chainBlock.Block.Transactions {
		transactionID := consensushashing.TransactionID(transaction)
		for index, output := range transaction.Outputs {
			outpoint := externalapi.NewDomainOutpoint(transactionID, uint32(index))
			if _, ok := spent[*outpoint]; ok {
				delete(spent, *outpoint)
				continue
			}
			created[*outpoint] = utxo.NewUTXOEntry(output.Value, output.ScriptPublicKey, i == 0, chainBlock.Height)
		}
	}

	return created, spent
}

// UTXOs returns all the UTXOs paying to scriptPublicKey
func (ui *UTXOIndex) UTXOs(scriptPublicKey *externalapi.ScriptPublicKey) (UTXOOutpointEntryPairs, error) {
	return readUTXOs(ui.dbContext, ScriptPublicKeyString(scriptPublicKey))
}
