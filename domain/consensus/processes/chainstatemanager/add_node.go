package chainstatemanager

import (
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/util/staging"
)

// AddNode adds node to the block index and persists it with the given
// status. The block body is stored unless the block is invalid.
func (csm *chainStateManager) AddNode(node *blocknode.Node, block *externalapi.DomainBlock,
	status externalapi.BlockStatus) error {

	err := csm.checkNotHalted()
	if err != nil {
		return err
	}

	err = csm.blockIndex.AddNode(node, status)
	if err != nil {
		return err
	}

	stagingArea := model.NewStagingArea()
	if status != externalapi.StatusInvalid {
		csm.blockStore.Stage(stagingArea, node.Hash, block)
	}
	csm.blockIndexStore.Stage(stagingArea, recordFromNode(node, status))

	err = staging.CommitAllChanges(csm.databaseContext, stagingArea)
	if err != nil {
		return csm.halt(err)
	}
	return nil
}

// MarkInvalid marks node and all of its descendants invalid, persistently
func (csm *chainStateManager) MarkInvalid(node *blocknode.Node) error {
	err := csm.checkNotHalted()
	if err != nil {
		return err
	}

	changed := csm.blockIndex.MarkInvalid(node)
	if len(changed) == 0 {
		return nil
	}
	log.Warnf("Marked %d blocks invalid, starting at %s", len(changed), node)

	stagingArea := model.NewStagingArea()
	for _, changedNode := range changed {
		csm.blockIndexStore.Stage(stagingArea, recordFromNode(changedNode, externalapi.StatusInvalid))
	}
	err = staging.CommitAllChanges(csm.databaseContext, stagingArea)
	if err != nil {
		return csm.halt(err)
	}
	return nil
}
