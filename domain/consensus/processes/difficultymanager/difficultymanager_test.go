package difficultymanager

import (
	"math/big"
	"testing"
	"time"

	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/domain/consensus/utils/difficulty"
)

func buildChain(length int, bits uint32, startTime int64, spacing int64) []*blocknode.Node {
	nodes := make([]*blocknode.Node, 0, length)
	var parent *blocknode.Node
	for i := 0; i < length; i++ {
		hash := externalapi.NewDomainHashFromByteArray(&[externalapi.DomainHashSize]byte{byte(i), byte(i >> 8), 1})
		header := &externalapi.DomainBlockHeader{Bits: bits, TimeInMilliseconds: startTime + int64(i)*spacing}
		node := blocknode.NewNode(hash, header, parent)
		nodes = append(nodes, node)
		parent = node
	}
	return nodes
}

func TestRequiredBits(t *testing.T) {
	powMax := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	const window = 4
	targetTime := time.Second
	startBits := difficulty.BigToCompact(new(big.Int).Rsh(powMax, 8))

	tests := []struct {
		name         string
		spacing      int64
		chainLength  int
		expectChange int // -1 harder, 0 same, 1 easier
	}{
		{name: "not a retarget height", spacing: 1000, chainLength: 2, expectChange: 0},
		{name: "too fast", spacing: 100, chainLength: window, expectChange: -1},
		{name: "too slow", spacing: 3000, chainLength: window, expectChange: 1},
	}

	dm := New(powMax, window, targetTime)
	for _, test := range tests {
		chain := buildChain(test.chainLength, startBits, 1_000_000, test.spacing)
		parent := chain[len(chain)-1]
		bits := dm.RequiredBits(parent)

		oldTarget := difficulty.CompactToBig(startBits)
		newTarget := difficulty.CompactToBig(bits)
		comparison := newTarget.Cmp(oldTarget)
		if test.expectChange == 0 && bits != startBits {
			t.Fatalf("%s: expected bits %x, got %x", test.name, startBits, bits)
		}
		if test.expectChange != 0 && comparison != test.expectChange {
			t.Fatalf("%s: expected the target to move by %d, got %d", test.name, test.expectChange, comparison)
		}
	}
}

func TestRequiredBitsClamped(t *testing.T) {
	powMax := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	const window = 4
	startBits := difficulty.BigToCompact(new(big.Int).Rsh(powMax, 32))
	dm := New(powMax, window, time.Second)

	// Blocks with identical timestamps cannot push the target below a quarter.
	chain := buildChain(window, startBits, 1_000_000, 0)
	quarterBits := difficulty.BigToCompact(new(big.Int).Div(difficulty.CompactToBig(startBits), big.NewInt(4)))
	if bits := dm.RequiredBits(chain[len(chain)-1]); bits != quarterBits {
		t.Fatalf("expected the target to drop to a quarter (%x), got %x", quarterBits, bits)
	}

	// A very slow window cannot raise the target beyond powMax.
	chain = buildChain(window, difficulty.BigToCompact(powMax), 1_000_000, 1_000_000)
	bits := dm.RequiredBits(chain[len(chain)-1])
	if bits != difficulty.BigToCompact(powMax) {
		t.Fatalf("expected the target to be capped at powMax, got %x", bits)
	}
}

func TestRequiredBitsGenesis(t *testing.T) {
	powMax := big.NewInt(0xffff)
	dm := New(powMax, 4, time.Second)
	if dm.RequiredBits(nil) != difficulty.BigToCompact(powMax) {
		t.Fatalf("genesis bits should be the powMax bits")
	}
}
