package blocknode

import "container/heap"

// candidateHeap orders nodes so that the best chain tip is popped first.
type candidateHeap []*Node

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].IsBetterThan(h[j]) }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x interface{}) { *h = append(*h, x.(*Node)) }

func (h *candidateHeap) Pop() interface{} {
	last := len(*h) - 1
	node := (*h)[last]
	(*h)[last] = nil
	*h = (*h)[:last]
	return node
}

// BlockHeap is a priority queue of nodes ordered by chain preference.
type BlockHeap struct {
	nodes *candidateHeap
}

// NewDownHeap returns an empty BlockHeap that pops the best node first.
func NewDownHeap() BlockHeap {
	return BlockHeap{nodes: &candidateHeap{}}
}

// Push adds node to the heap.
func (bh BlockHeap) Push(node *Node) { heap.Push(bh.nodes, node) }

// Pop removes and returns the best node in the heap.
func (bh BlockHeap) Pop() *Node { return heap.Pop(bh.nodes).(*Node) }

// Len returns the number of nodes in the heap.
func (bh BlockHeap) Len() int { return bh.nodes.Len() }
