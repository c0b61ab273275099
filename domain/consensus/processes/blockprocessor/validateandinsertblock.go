package blockprocessor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/processes/blockprocessor/blocklogger"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/infrastructure/logger"
)

// ValidateBlockInIsolation runs the checks that need nothing but the block
// itself. It holds no lock and may run concurrently with the writer.
func (bp *blockProcessor) ValidateBlockInIsolation(block *externalapi.DomainBlock) error {
	return bp.blockValidator.ValidateBlockInIsolation(block)
}

// ValidateAndInsertBlock validates block against its parent, stores it and
// resolves the tip. isolationErr is the result of ValidateBlockInIsolation
// for the same block. It must only be called by the single writer.
//
// When the block is stored but found invalid while being connected, both
// the result, carrying whatever chain changes the resolution made, and the
// rule error are returned. Candidates left better than the tip by an
// earlier cancelled or preempted evaluation are resolved on every call,
// whether or not block itself is accepted.
func (bp *blockProcessor) ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock,
	isolationErr error) (*externalapi.BlockInsertionResult, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateAndInsertBlock")
	defer onEnd()

	blockHash := consensushashing.BlockHash(block)
	blockIndex := bp.chainStateManager.BlockIndex()
	if node, ok := blockIndex.LookupNode(blockHash); ok {
		switch {
		case blockIndex.Status(node) == externalapi.StatusInvalid:
			return bp.resolvePendingCandidates(ctx, errors.Wrapf(ruleerrors.ErrKnownInvalid, "block %s", blockHash))
		case bp.isPendingCandidate(node):
			log.Debugf("Block %s is known but was never connected, resolving the tip again", blockHash)
			return bp.resolveTip(ctx, node, block)
		default:
			return bp.resolvePendingCandidates(ctx, errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s", blockHash))
		}
	}

	parent, ok := blockIndex.LookupNode(&block.Header.ParentHash)
	if !ok {
		if isolationErr != nil {
			return bp.resolvePendingCandidates(ctx, isolationErr)
		}
		return bp.resolvePendingCandidates(ctx,
			ruleerrors.NewErrMissingParents([]*externalapi.DomainHash{&block.Header.ParentHash}))
	}
	node := blocknode.NewNode(blockHash, block.Header, parent)

	err := bp.validateBlockInContext(node, block, isolationErr)
	if err != nil {
		err = bp.rejectBlock(node, block, err)
		if !ruleerrors.IsRuleError(err) {
			return nil, err
		}
		return bp.resolvePendingCandidates(ctx, err)
	}

	log.Debugf("Adding block %s at height %d", blockHash, node.Height)
	err = bp.chainStateManager.AddNode(node, block, externalapi.StatusHeaderValid)
	if err != nil {
		return nil, err
	}

	return bp.resolveTip(ctx, node, block)
}

// resolveTip resolves the tip after node was stored as header valid, and
// reports the outcome for node.
func (bp *blockProcessor) resolveTip(ctx context.Context, node *blocknode.Node,
	block *externalapi.DomainBlock) (*externalapi.BlockInsertionResult, error) {

	blockIndex := bp.chainStateManager.BlockIndex()
	resolution, err := bp.chainStateManager.ResolveTip(ctx)
	if err != nil {
		if errors.Is(err, model.ErrEvaluationPreempted) {
			log.Debugf("Evaluation after adding block %s was preempted by a better block", node)
			return &externalapi.BlockInsertionResult{
				Status:       blockIndex.Status(node),
				ChainChanges: &externalapi.ChainChanges{},
			}, nil
		}
		return nil, err
	}

	result := &externalapi.BlockInsertionResult{
		Status:       blockIndex.Status(node),
		ChainChanges: resolution.ChainChanges,
	}
	if failure, ok := resolution.FailureOf(node); ok {
		if failure.Node == node {
			return result, failure.Reason
		}
		return result, errors.Wrapf(ruleerrors.ErrInvalidAncestorBlock, "ancestor %s of block %s: %s",
			failure.Node, node, failure.Reason)
	}

	blocklogger.LogBlock(block)
	return result, nil
}

// resolvePendingCandidates resolves the tip if a stored block is better
// than it, then returns submissionErr, the verdict on the submitted block.
// The result is non-nil only if the active chain changed.
func (bp *blockProcessor) resolvePendingCandidates(ctx context.Context, submissionErr error) (
	*externalapi.BlockInsertionResult, error) {

	blockIndex := bp.chainStateManager.BlockIndex()
	if len(blockIndex.CandidatesBetterThan(bp.chainStateManager.Tip())) == 0 {
		return nil, submissionErr
	}

	resolution, err := bp.chainStateManager.ResolveTip(ctx)
	if err != nil {
		if errors.Is(err, model.ErrEvaluationPreempted) ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Debugf("Resolving pending candidates was interrupted: %s", err)
			return nil, submissionErr
		}
		return nil, err
	}
	if resolution.ChainChanges.IsEmpty() {
		return nil, submissionErr
	}
	return &externalapi.BlockInsertionResult{
		Status:       externalapi.StatusUnknown,
		ChainChanges: resolution.ChainChanges,
	}, submissionErr
}

// isPendingCandidate returns whether node is header valid and on the branch
// of a candidate that is better than the tip, which means an evaluation
// that would have connected it was cancelled or preempted.
func (bp *blockProcessor) isPendingCandidate(node *blocknode.Node) bool {
	blockIndex := bp.chainStateManager.BlockIndex()
	if blockIndex.Status(node) != externalapi.StatusHeaderValid {
		return false
	}
	for _, candidate := range blockIndex.CandidatesBetterThan(bp.chainStateManager.Tip()) {
		if candidate.Ancestor(node.Height) == node {
			return true
		}
	}
	return false
}

func (bp *blockProcessor) validateBlockInContext(node *blocknode.Node, block *externalapi.DomainBlock,
	isolationErr error) error {

	if isolationErr != nil {
		return isolationErr
	}

	blockIndex := bp.chainStateManager.BlockIndex()
	if blockIndex.Status(node.Parent) == externalapi.StatusInvalid {
		return errors.Wrapf(ruleerrors.ErrInvalidAncestorBlock, "parent %s of block %s is invalid",
			node.Parent, node)
	}

	err := bp.blockValidator.ValidateBlockInContext(node.Parent, block)
	if err != nil {
		return err
	}

	return bp.checkReorgDepth(node)
}

// checkReorgDepth rejects blocks that fork off the active chain below the
// rollback horizon.
func (bp *blockProcessor) checkReorgDepth(node *blocknode.Node) error {
	tip := bp.chainStateManager.Tip()
	fork := node.Parent
	for !bp.chainStateManager.IsInActiveChain(fork) {
		fork = fork.Parent
	}
	if fork.Height < tip.Height && tip.Height-fork.Height > bp.rollbackHorizon {
		return errors.Wrapf(ruleerrors.ErrReorgTooDeep, "block %s forks off the active chain at height %d, "+
			"%d blocks below the tip. The rollback horizon is %d", node, fork.Height,
			tip.Height-fork.Height, bp.rollbackHorizon)
	}
	return nil
}

// rejectBlock stores node as invalid when err proves the block breaks a
// consensus rule, so that it is rejected without validation if it is
// submitted again. err is returned either way.
func (bp *blockProcessor) rejectBlock(node *blocknode.Node, block *externalapi.DomainBlock, err error) error {
	if !isPermanentRejection(err) {
		return err
	}

	log.Infof("Rejected block %s: %s", node, err)
	addErr := bp.chainStateManager.AddNode(node, block, externalapi.StatusInvalid)
	if addErr != nil {
		return addErr
	}
	return err
}

// headerOnlyFailures are consensus violations that are detected before the
// proof of work is known to be valid, or that condemn a body rather than
// the header it claims to match. Neither says anything about the block
// hash, so the block is not remembered as invalid.
var headerOnlyFailures = []error{
	ruleerrors.ErrBlockVersionIsUnknown,
	ruleerrors.ErrNegativeTarget,
	ruleerrors.ErrTargetTooHigh,
	ruleerrors.ErrInvalidPoW,
	ruleerrors.ErrBadMerkleRoot,
}

func isPermanentRejection(err error) bool {
	category := ruleerrors.Categorize(err)
	if category != externalapi.CategoryConsensusViolation && category != externalapi.CategoryResourceExceeded {
		return false
	}
	for _, headerOnlyFailure := range headerOnlyFailures {
		if errors.Is(err, headerOnlyFailure) {
			return false
		}
	}
	return true
}
