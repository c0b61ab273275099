// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blocknode

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

// Index provides facilities for keeping track of an in-memory Index of the
// block tree. Nodes are kept in an arena keyed by hash; each node points to
// its parent and the index keeps the reverse edges.
type Index struct {
	sync.RWMutex
	index    map[externalapi.DomainHash]*Node
	children map[externalapi.DomainHash][]*Node

	// leaves holds every node that is not Invalid and has no child that
	// is not Invalid. The best chain candidate is always a leaf.
	leaves map[externalapi.DomainHash]*Node

	nextSequence uint64
}

// NewIndex returns a new empty instance of a block Index. The Index will
// be dynamically populated as block nodes are loaded from the database and
// manually added.
func NewIndex() *Index {
	return &Index{
		index:    make(map[externalapi.DomainHash]*Node),
		children: make(map[externalapi.DomainHash][]*Node),
		leaves:   make(map[externalapi.DomainHash]*Node),
	}
}

// HaveBlock returns whether or not the block Index contains the provided hash.
//
// This function is safe for concurrent access.
func (bi *Index) HaveBlock(hash *externalapi.DomainHash) bool {
	bi.RLock()
	defer bi.RUnlock()
	_, hasBlock := bi.index[*hash]
	return hasBlock
}

// LookupNode returns the block node identified by the provided hash. It will
// return false if there is no entry for the hash.
//
// This function is safe for concurrent access.
func (bi *Index) LookupNode(hash *externalapi.DomainHash) (*Node, bool) {
	bi.RLock()
	defer bi.RUnlock()
	node, ok := bi.index[*hash]
	return node, ok
}

// Len returns the number of nodes in the index
func (bi *Index) Len() int {
	bi.RLock()
	defer bi.RUnlock()
	return len(bi.index)
}

// AddNode adds the provided node to the block Index with the given status
// and assigns it the next first-seen sequence number. Its parent must
// already be in the index.
//
// This function is safe for concurrent access.
func (bi *Index) AddNode(node *Node, status externalapi.BlockStatus) error {
	bi.Lock()
	defer bi.Unlock()

	node.Sequence = bi.nextSequence
	node.status = status
	return bi.addNodeNoLock(node)
}

// LoadNode adds a node read from the database. Its sequence and status are
// kept as stored. Nodes must be loaded parents first.
func (bi *Index) LoadNode(node *Node, status externalapi.BlockStatus) error {
	bi.Lock()
	defer bi.Unlock()

	node.status = status
	return bi.addNodeNoLock(node)
}

func (bi *Index) addNodeNoLock(node *Node) error {
	if _, exists := bi.index[*node.Hash]; exists {
		return errors.Errorf("block %s is already in the block index", node.Hash)
	}
	if node.Parent != nil {
		if _, exists := bi.index[*node.Parent.Hash]; !exists {
			return errors.Errorf("parent %s of block %s is not in the block index", node.Parent.Hash, node.Hash)
		}
	}

	bi.index[*node.Hash] = node
	if node.Sequence >= bi.nextSequence {
		bi.nextSequence = node.Sequence + 1
	}
	if node.Parent != nil {
		parentHash := *node.Parent.Hash
		bi.children[parentHash] = append(bi.children[parentHash], node)
	}
	if node.status != externalapi.StatusInvalid {
		bi.leaves[*node.Hash] = node
		if node.Parent != nil {
			delete(bi.leaves, *node.Parent.Hash)
		}
	}
	return nil
}

// Status provides concurrent-safe access to the status field of a node.
//
// This function is safe for concurrent access.
func (bi *Index) Status(node *Node) externalapi.BlockStatus {
	bi.RLock()
	defer bi.RUnlock()
	return node.status
}

// SetStatus changes the status of a node. Use MarkInvalid to invalidate
// nodes.
//
// This function is safe for concurrent access.
func (bi *Index) SetStatus(node *Node, newStatus externalapi.BlockStatus) error {
	bi.Lock()
	defer bi.Unlock()
	if node.status == externalapi.StatusInvalid && newStatus != externalapi.StatusInvalid {
		return errors.Errorf("block %s is invalid and cannot become %s", node, newStatus)
	}
	if newStatus == externalapi.StatusInvalid {
		bi.markInvalidNoLock(node)
		return nil
	}
	node.status = newStatus
	return nil
}

// MarkInvalid marks node and every one of its descendants as invalid and
// returns the nodes whose status changed.
//
// This function is safe for concurrent access.
func (bi *Index) MarkInvalid(node *Node) []*Node {
	bi.Lock()
	defer bi.Unlock()
	return bi.markInvalidNoLock(node)
}

func (bi *Index) markInvalidNoLock(node *Node) []*Node {
	changed := make([]*Node, 0)
	queue := []*Node{node}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.status != externalapi.StatusInvalid {
			current.status = externalapi.StatusInvalid
			changed = append(changed, current)
		}
		delete(bi.leaves, *current.Hash)
		queue = append(queue, bi.children[*current.Hash]...)
	}

	parent := node.Parent
	if parent != nil && parent.status != externalapi.StatusInvalid && !bi.hasValidChildNoLock(parent) {
		bi.leaves[*parent.Hash] = parent
	}
	return changed
}

func (bi *Index) hasValidChildNoLock(node *Node) bool {
	for _, child := range bi.children[*node.Hash] {
		if child.status != externalapi.StatusInvalid {
			return true
		}
	}
	return false
}

// Children returns the known children of node
//
// This function is safe for concurrent access.
func (bi *Index) Children(node *Node) []*Node {
	bi.RLock()
	defer bi.RUnlock()
	children := bi.children[*node.Hash]
	clone := make([]*Node, len(children))
	copy(clone, children)
	return clone
}

// CandidatesBetterThan returns every leaf that is a better chain tip than
// tip, best first
//
// This function is safe for concurrent access.
func (bi *Index) CandidatesBetterThan(tip *Node) []*Node {
	bi.RLock()
	defer bi.RUnlock()

	candidates := NewDownHeap()
	for _, leaf := range bi.leaves {
		if leaf.status == externalapi.StatusUnknown {
			continue
		}
		if tip == nil || leaf.IsBetterThan(tip) {
			candidates.Push(leaf)
		}
	}

	sorted := make([]*Node, 0, candidates.Len())
	for candidates.Len() > 0 {
		sorted = append(sorted, candidates.Pop())
	}
	return sorted
}
