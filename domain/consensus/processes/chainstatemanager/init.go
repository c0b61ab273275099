package chainstatemanager

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/multiset"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
	"github.com/zmgnet/zmgd/infrastructure/logger"
	"github.com/zmgnet/zmgd/util/staging"
)

// Init loads the chain state from the database, or writes the genesis
// state when the database is empty.
func (csm *chainStateManager) Init() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "csm.Init")
	defer onEnd()

	hasTip, err := csm.consensusStateStore.HasTip(csm.databaseContext, model.NewStagingArea())
	if err != nil {
		return err
	}
	if !hasTip {
		return csm.initGenesis()
	}
	return csm.loadBlockIndex()
}

func (csm *chainStateManager) initGenesis() error {
	genesisHash := consensushashing.BlockHash(csm.genesisBlock)
	log.Infof("Initializing an empty database with genesis %s", genesisHash)

	node := blocknode.NewNode(genesisHash, csm.genesisBlock.Header, nil)
	err := csm.blockIndex.AddNode(node, externalapi.StatusFullyValid)
	if err != nil {
		return err
	}

	stagingArea := model.NewStagingArea()
	view := utxo.NewView(csm.utxoSetStore.Reader(csm.databaseContext, stagingArea))
	undoData, err := view.ApplyBlock(csm.genesisBlock, 0)
	if err != nil {
		return err
	}
	diff, err := view.Diff()
	if err != nil {
		return err
	}
	ms := multiset.New()
	err = utxo.UpdateMultiset(ms, csm.genesisBlock, 0, undoData, false)
	if err != nil {
		return err
	}

	csm.utxoSetStore.StageDiff(stagingArea, diff)
	csm.blockStore.Stage(stagingArea, genesisHash, csm.genesisBlock)
	csm.blockIndexStore.Stage(stagingArea, recordFromNode(node, externalapi.StatusFullyValid))
	csm.undoDataStore.Stage(stagingArea, genesisHash, undoData)
	csm.multisetStore.Stage(stagingArea, genesisHash, ms)
	csm.consensusStateStore.StageTip(stagingArea, genesisHash)

	added := []*model.ChainBlock{{
		Hash:     genesisHash,
		Height:   0,
		Block:    csm.genesisBlock,
		UndoData: undoData,
	}}
	for _, indexer := range csm.indexers {
		err = indexer.StageChainChanges(csm.databaseContext, stagingArea, nil, added)
		if err != nil {
			return err
		}
	}

	err = staging.CommitAllChanges(csm.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	csm.stateLock.Lock()
	defer csm.stateLock.Unlock()
	csm.setTipNoLock(node)
	return nil
}

func (csm *chainStateManager) loadBlockIndex() error {
	records, err := csm.blockIndexStore.All(csm.databaseContext)
	if err != nil {
		return err
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Height != records[j].Height {
			return records[i].Height < records[j].Height
		}
		return records[i].Sequence < records[j].Sequence
	})

	genesisHash := consensushashing.BlockHash(csm.genesisBlock)
	for _, record := range records {
		var parent *blocknode.Node
		if record.ParentHash != nil {
			var ok bool
			parent, ok = csm.blockIndex.LookupNode(record.ParentHash)
			if !ok {
				return errors.Errorf("block index is corrupt: parent %s of block %s is missing",
					record.ParentHash, record.Hash)
			}
		} else if !record.Hash.Equal(genesisHash) {
			return errors.Errorf("the database was created with genesis %s while the configured "+
				"network's genesis is %s", record.Hash, genesisHash)
		}

		node := &blocknode.Node{
			Hash:               record.Hash,
			Parent:             parent,
			Height:             record.Height,
			CumulativeWork:     record.CumulativeWork,
			Sequence:           record.Sequence,
			Bits:               record.Bits,
			TimeInMilliseconds: record.TimeInMilliseconds,
		}
		err = csm.blockIndex.LoadNode(node, record.Status)
		if err != nil {
			return err
		}
	}

	tipHash, err := csm.consensusStateStore.Tip(csm.databaseContext, model.NewStagingArea())
	if err != nil {
		return err
	}
	tip, ok := csm.blockIndex.LookupNode(tipHash)
	if !ok {
		return errors.Errorf("block index is corrupt: tip %s is missing", tipHash)
	}

	csm.stateLock.Lock()
	defer csm.stateLock.Unlock()
	csm.setTipNoLock(tip)
	log.Infof("Loaded %d blocks. Tip %s at height %d", len(records), tip.Hash, tip.Height)
	return nil
}
