package blocknode

import (
	"testing"

	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

const testBits = 0x207fffff

func hashFromByte(b byte) *externalapi.DomainHash {
	var hashArray [externalapi.DomainHashSize]byte
	hashArray[0] = b
	return externalapi.NewDomainHashFromByteArray(&hashArray)
}

func addChild(t *testing.T, index *Index, id byte, parent *Node, bits uint32) *Node {
	node := NewNode(hashFromByte(id), &externalapi.DomainBlockHeader{Bits: bits}, parent)
	err := index.AddNode(node, externalapi.StatusHeaderValid)
	if err != nil {
		t.Fatalf("AddNode unexpectedly failed: %s", err)
	}
	return node
}

func TestAncestor(t *testing.T) {
	index := NewIndex()
	genesis := addChild(t, index, 1, nil, testBits)
	chain := []*Node{genesis}
	for i := byte(2); i < 10; i++ {
		chain = append(chain, addChild(t, index, i, chain[len(chain)-1], testBits))
	}
	tip := chain[len(chain)-1]

	tests := []struct {
		height   uint64
		expected *Node
	}{
		{height: 0, expected: genesis},
		{height: 4, expected: chain[4]},
		{height: tip.Height, expected: tip},
		{height: tip.Height + 1, expected: nil},
	}
	for _, test := range tests {
		ancestor := tip.Ancestor(test.height)
		if ancestor != test.expected {
			t.Fatalf("Ancestor(%d): expected %v, got %v", test.height, test.expected, ancestor)
		}
	}
	if tip.RelativeAncestor(2) != chain[len(chain)-3] {
		t.Fatalf("RelativeAncestor(2) returned the wrong node")
	}
	if tip.RelativeAncestor(tip.Height+1) != nil {
		t.Fatalf("RelativeAncestor past genesis must return nil")
	}
}

func TestAddNodeRequiresParent(t *testing.T) {
	index := NewIndex()
	genesis := NewNode(hashFromByte(1), &externalapi.DomainBlockHeader{Bits: testBits}, nil)
	orphan := NewNode(hashFromByte(2), &externalapi.DomainBlockHeader{Bits: testBits}, genesis)
	err := index.AddNode(orphan, externalapi.StatusHeaderValid)
	if err == nil {
		t.Fatalf("AddNode unexpectedly accepted a node whose parent is unknown")
	}
	err = index.AddNode(genesis, externalapi.StatusHeaderValid)
	if err != nil {
		t.Fatalf("AddNode unexpectedly failed: %s", err)
	}
	err = index.AddNode(genesis, externalapi.StatusHeaderValid)
	if err == nil {
		t.Fatalf("AddNode unexpectedly accepted the same node twice")
	}
}

func TestIsBetterThanTieBreak(t *testing.T) {
	index := NewIndex()
	genesis := addChild(t, index, 1, nil, testBits)
	first := addChild(t, index, 2, genesis, testBits)
	second := addChild(t, index, 3, genesis, testBits)

	if first.CumulativeWork.Cmp(second.CumulativeWork) != 0 {
		t.Fatalf("siblings with the same bits must have the same work")
	}
	if !first.IsBetterThan(second) || second.IsBetterThan(first) {
		t.Fatalf("the sibling seen first must win a work tie")
	}

	heavier := addChild(t, index, 4, second, testBits)
	if !heavier.IsBetterThan(first) {
		t.Fatalf("more cumulative work must win over first-seen order")
	}
}

func TestMarkInvalidPropagates(t *testing.T) {
	index := NewIndex()
	genesis := addChild(t, index, 1, nil, testBits)
	a1 := addChild(t, index, 2, genesis, testBits)
	a2 := addChild(t, index, 3, a1, testBits)
	a3 := addChild(t, index, 4, a2, testBits)
	b2 := addChild(t, index, 5, a1, testBits)

	changed := index.MarkInvalid(a2)
	if len(changed) != 2 {
		t.Fatalf("expected 2 nodes to change status, got %d", len(changed))
	}
	for _, node := range []*Node{a2, a3} {
		if index.Status(node) != externalapi.StatusInvalid {
			t.Fatalf("node %s is not invalid", node)
		}
	}
	for _, node := range []*Node{genesis, a1, b2} {
		if index.Status(node) == externalapi.StatusInvalid {
			t.Fatalf("node %s was wrongly invalidated", node)
		}
	}

	err := index.SetStatus(a3, externalapi.StatusFullyValid)
	if err == nil {
		t.Fatalf("SetStatus unexpectedly revived an invalid node")
	}

	// A child of an invalid block joins the index as invalid
	a4 := NewNode(hashFromByte(6), &externalapi.DomainBlockHeader{Bits: testBits}, a3)
	err = index.AddNode(a4, externalapi.StatusInvalid)
	if err != nil {
		t.Fatalf("AddNode unexpectedly failed: %s", err)
	}

	candidates := index.CandidatesBetterThan(genesis)
	if len(candidates) != 1 || candidates[0] != b2 {
		t.Fatalf("expected b2 to be the only candidate, got %v", candidates)
	}
}

func TestCandidatesBetterThan(t *testing.T) {
	index := NewIndex()
	genesis := addChild(t, index, 1, nil, testBits)
	a1 := addChild(t, index, 2, genesis, testBits)
	a2 := addChild(t, index, 3, a1, testBits)
	b1 := addChild(t, index, 4, genesis, testBits)
	c1 := addChild(t, index, 5, genesis, testBits)

	candidates := index.CandidatesBetterThan(nil)
	expected := []*Node{a2, b1, c1}
	if len(candidates) != len(expected) {
		t.Fatalf("expected %d candidates, got %d", len(expected), len(candidates))
	}
	for i := range expected {
		if candidates[i] != expected[i] {
			t.Fatalf("candidate %d: expected %s, got %s", i, expected[i], candidates[i])
		}
	}

	candidates = index.CandidatesBetterThan(a2)
	if len(candidates) != 0 {
		t.Fatalf("nothing is better than the heaviest leaf, got %v", candidates)
	}

	// Invalidating the tip of the heaviest branch makes its parent a leaf
	index.MarkInvalid(a2)
	candidates = index.CandidatesBetterThan(b1)
	if len(candidates) != 1 || candidates[0] != a1 {
		t.Fatalf("a1 has the same work as b1 and was seen earlier, got %v", candidates)
	}
	candidates = index.CandidatesBetterThan(c1)
	if len(candidates) != 2 || candidates[0] != a1 || candidates[1] != b1 {
		t.Fatalf("unexpected candidates after invalidation: %v", candidates)
	}
}

func TestLoadNodeKeepsSequence(t *testing.T) {
	index := NewIndex()
	genesis := NewNode(hashFromByte(1), &externalapi.DomainBlockHeader{Bits: testBits}, nil)
	genesis.Sequence = 0
	loaded := NewNode(hashFromByte(2), &externalapi.DomainBlockHeader{Bits: testBits}, genesis)
	loaded.Sequence = 41

	for _, node := range []*Node{genesis, loaded} {
		err := index.LoadNode(node, externalapi.StatusFullyValid)
		if err != nil {
			t.Fatalf("LoadNode unexpectedly failed: %s", err)
		}
	}
	added := addChild(t, index, 3, genesis, testBits)
	if loaded.Sequence != 41 {
		t.Fatalf("LoadNode changed the stored sequence")
	}
	if added.Sequence != 42 {
		t.Fatalf("expected the next sequence to follow the loaded ones, got %d", added.Sequence)
	}
}
