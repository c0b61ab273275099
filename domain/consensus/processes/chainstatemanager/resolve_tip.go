package chainstatemanager

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
	"github.com/zmgnet/zmgd/infrastructure/logger"
	"github.com/zmgnet/zmgd/util/staging"
)

// ResolveTip moves the tip to the best valid candidate. Candidates are
// tried best first. A candidate whose branch breaks a consensus rule is
// marked invalid from the failing block on, and the next best candidate
// is tried. The active chain only ever changes by a fully committed
// reorganization.
func (csm *chainStateManager) ResolveTip(ctx context.Context) (*model.TipResolution, error) {
	onEnd := logger.LogAndMeasureExecutionTime(log, "csm.ResolveTip")
	defer onEnd()

	err := csm.checkNotHalted()
	if err != nil {
		return nil, err
	}

	resolution := &model.TipResolution{ChainChanges: &externalapi.ChainChanges{}}
	for {
		tip := csm.Tip()
		candidate, fork, ok := csm.bestReachableCandidate(tip)
		if !ok {
			return resolution, nil
		}

		chainChanges, failingNode, err := csm.evaluateCandidate(ctx, tip, fork, candidate)
		if err == nil {
			resolution.ChainChanges = chainChanges
			return resolution, nil
		}
		if failingNode == nil || !ruleerrors.IsRuleError(err) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) ||
				errors.Is(err, model.ErrEvaluationPreempted) {
				return nil, err
			}
			return nil, csm.halt(err)
		}

		log.Warnf("Block %s at height %d failed validation while evaluating candidate %s: %s",
			failingNode, failingNode.Height, candidate, err)
		markErr := csm.MarkInvalid(failingNode)
		if markErr != nil {
			return nil, markErr
		}
		resolution.Invalidated = append(resolution.Invalidated, &model.InvalidatedBlock{
			Node:   failingNode,
			Reason: err,
		})
	}
}

// bestReachableCandidate returns the best candidate tip that can be
// reached without disconnecting blocks below the rollback horizon.
func (csm *chainStateManager) bestReachableCandidate(tip *blocknode.Node) (
	candidate *blocknode.Node, fork *blocknode.Node, ok bool) {

	for _, candidate := range csm.blockIndex.CandidatesBetterThan(tip) {
		fork := findFork(tip, candidate)
		if tip.Height-fork.Height > csm.rollbackHorizon {
			log.Debugf("Skipping candidate %s: its fork point %s is %d blocks below the tip",
				candidate, fork, tip.Height-fork.Height)
			continue
		}
		return candidate, fork, true
	}
	return nil, nil, false
}

// CancelEvaluationsWorseThan cancels the running evaluation if its
// candidate has less cumulative work than cumulativeWork.
func (csm *chainStateManager) CancelEvaluationsWorseThan(cumulativeWork *big.Int) {
	csm.evaluationLock.Lock()
	defer csm.evaluationLock.Unlock()

	if csm.currentEvaluation == nil || csm.currentEvaluation.cumulativeWork.Cmp(cumulativeWork) >= 0 {
		return
	}
	log.Debugf("Preempting the evaluation of a candidate with cumulative work %s", csm.currentEvaluation.cumulativeWork)
	csm.currentEvaluation.cancel(model.ErrEvaluationPreempted)
}

func (csm *chainStateManager) startEvaluation(ctx context.Context, candidate *blocknode.Node) (
	context.Context, func()) {

	evaluationCtx, cancel := context.WithCancelCause(ctx)

	csm.evaluationLock.Lock()
	defer csm.evaluationLock.Unlock()
	csm.currentEvaluation = &evaluation{
		cumulativeWork: candidate.CumulativeWork,
		cancel:         cancel,
	}

	return evaluationCtx, func() {
		csm.evaluationLock.Lock()
		defer csm.evaluationLock.Unlock()
		csm.currentEvaluation = nil
		cancel(nil)
	}
}

// evaluateCandidate reorganizes the active chain from tip to candidate
// through their fork point. On failure nothing is written, and if a block
// of the branch broke a consensus rule it is returned as failingNode.
func (csm *chainStateManager) evaluateCandidate(ctx context.Context, tip, fork, candidate *blocknode.Node) (
	chainChanges *externalapi.ChainChanges, failingNode *blocknode.Node, err error) {

	evaluationCtx, endEvaluation := csm.startEvaluation(ctx, candidate)
	defer endEvaluation()

	stagingArea := model.NewStagingArea()
	view := utxo.NewView(csm.utxoSetStore.Reader(csm.databaseContext, stagingArea))

	removed := make([]*model.ChainBlock, 0, tip.Height-fork.Height)
	for node := tip; node != fork; node = node.Parent {
		chainBlock, err := csm.disconnectBlock(stagingArea, view, node)
		if err != nil {
			return nil, nil, err
		}
		removed = append(removed, chainBlock)
	}

	path := make([]*blocknode.Node, candidate.Height-fork.Height)
	for node := candidate; node != fork; node = node.Parent {
		path[node.Height-fork.Height-1] = node
	}

	ms, err := csm.multisetStore.Get(csm.databaseContext, stagingArea, fork.Hash)
	if err != nil {
		return nil, nil, err
	}

	added := make([]*model.ChainBlock, 0, len(path))
	for _, node := range path {
		if evaluationCtx.Err() != nil {
			return nil, nil, context.Cause(evaluationCtx)
		}

		block, err := csm.blockStore.Block(csm.databaseContext, stagingArea, node.Hash)
		if err != nil {
			return nil, nil, err
		}
		undoData, err := csm.blockValidator.ValidateBodyInContextAndApply(evaluationCtx, block, node.Parent, view)
		if err != nil {
			if evaluationCtx.Err() != nil {
				return nil, nil, context.Cause(evaluationCtx)
			}
			return nil, node, err
		}

		err = utxo.UpdateMultiset(ms, block, node.Height, undoData, false)
		if err != nil {
			return nil, nil, err
		}
		csm.multisetStore.Stage(stagingArea, node.Hash, ms)
		csm.undoDataStore.Stage(stagingArea, node.Hash, undoData)
		csm.blockIndexStore.Stage(stagingArea, recordFromNode(node, externalapi.StatusFullyValid))
		added = append(added, &model.ChainBlock{
			Hash:     node.Hash,
			Height:   node.Height,
			Block:    block,
			UndoData: undoData,
		})
	}

	err = csm.commitReorganization(stagingArea, view, candidate, removed, added)
	if err != nil {
		return nil, nil, err
	}

	chainChanges = &externalapi.ChainChanges{
		Removed: make([]*externalapi.DomainHash, len(removed)),
		Added:   make([]*externalapi.DomainHash, len(added)),
	}
	for i, chainBlock := range removed {
		chainChanges.Removed[i] = chainBlock.Hash
	}
	for i, chainBlock := range added {
		chainChanges.Added[i] = chainBlock.Hash
	}

	if len(removed) > 0 {
		log.Infof("Reorganized the chain at fork point %s: disconnected %d blocks, connected %d. New tip %s at height %d",
			fork, len(removed), len(added), candidate, candidate.Height)
	} else {
		log.Debugf("New tip %s at height %d", candidate, candidate.Height)
	}
	return chainChanges, nil, nil
}

func (csm *chainStateManager) disconnectBlock(stagingArea *model.StagingArea, view model.UTXOView,
	node *blocknode.Node) (*model.ChainBlock, error) {

	block, err := csm.blockStore.Block(csm.databaseContext, stagingArea, node.Hash)
	if err != nil {
		return nil, err
	}
	undoData, err := csm.undoDataStore.UndoData(csm.databaseContext, stagingArea, node.Hash)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load the undo data of %s", node)
	}
	err = view.UndoBlock(undoData)
	if err != nil {
		return nil, err
	}

	// Both are rebuilt if the block is connected again.
	csm.undoDataStore.Delete(stagingArea, node.Hash)
	csm.multisetStore.Delete(stagingArea, node.Hash)

	return &model.ChainBlock{
		Hash:     node.Hash,
		Height:   node.Height,
		Block:    block,
		UndoData: undoData,
	}, nil
}

func (csm *chainStateManager) commitReorganization(stagingArea *model.StagingArea, view model.UTXOView,
	newTip *blocknode.Node, removed, added []*model.ChainBlock) error {

	diff, err := view.Diff()
	if err != nil {
		return err
	}
	csm.utxoSetStore.StageDiff(stagingArea, diff)
	csm.consensusStateStore.StageTip(stagingArea, newTip.Hash)

	// Blocks deeper than the rollback horizon can never be disconnected,
	// so their undo data and commitments are no longer needed.
	for _, chainBlock := range added {
		if chainBlock.Height <= csm.rollbackHorizon {
			continue
		}
		pruned := newTip.Ancestor(chainBlock.Height - csm.rollbackHorizon - 1)
		csm.undoDataStore.Delete(stagingArea, pruned.Hash)
		csm.multisetStore.Delete(stagingArea, pruned.Hash)
	}

	for _, indexer := range csm.indexers {
		err = indexer.StageChainChanges(csm.databaseContext, stagingArea, removed, added)
		if err != nil {
			return err
		}
	}

	csm.stateLock.Lock()
	defer csm.stateLock.Unlock()

	err = staging.CommitAllChanges(csm.databaseContext, stagingArea)
	if err != nil {
		return err
	}

	for _, chainBlock := range added {
		node, _ := csm.blockIndex.LookupNode(chainBlock.Hash)
		err = csm.blockIndex.SetStatus(node, externalapi.StatusFullyValid)
		if err != nil {
			return err
		}
	}
	csm.setTipNoLock(newTip)
	return nil
}
