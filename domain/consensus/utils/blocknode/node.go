// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocknode

import (
	"math/big"

	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/difficulty"
)

// Node represents a block within the block tree. The tree is stored into
// the block index bucket of the database.
type Node struct {
	// Hash is the hash of the block.
	Hash *externalapi.DomainHash

	// Parent is the parent block for this node. It is nil only for
	// genesis.
	Parent *Node

	// Height is the number of blocks between this block and genesis.
	Height uint64

	// CumulativeWork is the total work of this block and all its
	// ancestors.
	CumulativeWork *big.Int

	// Sequence is the order in which the block was first seen. Among
	// branches of equal work, the one seen first wins.
	Sequence uint64

	// Some fields from block headers to aid in computing difficulty and
	// median time without going to the database. These must be treated
	// as immutable.
	Bits               uint32
	TimeInMilliseconds int64

	// Status, unlike the other fields, may be written to and so should
	// only be accessed using the concurrent-safe Status method on Index
	// once the node has been added to the Index.
	status externalapi.BlockStatus
}

// NewNode returns a new block node for the given header, as a child of
// parent. parent is nil only for genesis.
func NewNode(blockHash *externalapi.DomainHash, header *externalapi.DomainBlockHeader, parent *Node) *Node {
	node := &Node{
		Hash:               blockHash,
		Parent:             parent,
		Bits:               header.Bits,
		TimeInMilliseconds: header.TimeInMilliseconds,
		status:             externalapi.StatusUnknown,
	}

	work := difficulty.CalcWork(header.Bits)
	if parent == nil {
		node.CumulativeWork = work
		return node
	}
	node.Height = parent.Height + 1
	node.CumulativeWork = new(big.Int).Add(parent.CumulativeWork, work)
	return node
}

// Ancestor returns the ancestor block node at the provided height by following
// the chain backwards from this node. The returned block will be nil when a
// height is requested that is after the height of the passed node.
//
// This function is safe for concurrent access.
func (node *Node) Ancestor(height uint64) *Node {
	if height > node.Height {
		return nil
	}

	n := node
	for n != nil && n.Height > height {
		n = n.Parent
	}

	return n
}

// RelativeAncestor returns the ancestor block node a relative 'distance' of
// blocks before this node. This is equivalent to calling Ancestor with
// the node's height minus provided distance.
//
// This function is safe for concurrent access.
func (node *Node) RelativeAncestor(distance uint64) *Node {
	if distance > node.Height {
		return nil
	}
	return node.Ancestor(node.Height - distance)
}

// IsGenesis returns if the current block is the genesis block
func (node *Node) IsGenesis() bool {
	return node.Parent == nil
}

// IsBetterThan returns whether node is a better chain tip than other: it
// has more cumulative work, or as much work and was seen first.
func (node *Node) IsBetterThan(other *Node) bool {
	workComparison := node.CumulativeWork.Cmp(other.CumulativeWork)
	if workComparison != 0 {
		return workComparison > 0
	}
	return node.Sequence < other.Sequence
}

// String returns a string that contains the block Hash.
func (node Node) String() string {
	return node.Hash.String()
}
