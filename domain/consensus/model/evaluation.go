package model

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
)

// ErrEvaluationPreempted is the cancellation cause of a chain evaluation
// that was abandoned because a block with more cumulative work arrived.
// Nothing the evaluation staged is kept.
var ErrEvaluationPreempted = errors.New("chain evaluation preempted by a better candidate")

// TipResolution is the outcome of resolving the tip: the change to the
// active chain, and the blocks found to break a consensus rule while
// candidates were evaluated.
type TipResolution struct {
	ChainChanges *externalapi.ChainChanges
	Invalidated  []*InvalidatedBlock
}

// InvalidatedBlock is a block that failed validation while being
// connected. Its descendants were marked invalid with it.
type InvalidatedBlock struct {
	Node   *blocknode.Node
	Reason error
}

// FailureOf returns the reason node, or one of its ancestors, was
// invalidated. ok is false if it was not invalidated during the
// resolution.
func (tr *TipResolution) FailureOf(node *blocknode.Node) (failing *InvalidatedBlock, ok bool) {
	for _, invalidated := range tr.Invalidated {
		if node.Ancestor(invalidated.Node.Height) == invalidated.Node {
			return invalidated, true
		}
	}
	return nil, false
}
