package difficultymanager

import (
	"math/big"
	"time"

	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/domain/consensus/utils/difficulty"
)

// DifficultyManager provides a method to resolve the
// difficulty value of a block
type difficultyManager struct {
	powMax                         *big.Int
	powMaxBits                     uint32
	difficultyAdjustmentWindowSize uint64
	targetTimePerBlock             time.Duration
}

// New instantiates a new DifficultyManager
func New(powMax *big.Int, difficultyAdjustmentWindowSize uint64,
	targetTimePerBlock time.Duration) model.DifficultyManager {

	return &difficultyManager{
		powMax:                         powMax,
		powMaxBits:                     difficulty.BigToCompact(powMax),
		difficultyAdjustmentWindowSize: difficultyAdjustmentWindowSize,
		targetTimePerBlock:             targetTimePerBlock,
	}
}

// RequiredBits returns the bits a child of parent must carry. The target
// is retargeted once every difficultyAdjustmentWindowSize blocks, and
// otherwise equals the parent's.
func (dm *difficultyManager) RequiredBits(parent *blocknode.Node) uint32 {
	// Genesis block.
	if parent == nil {
		return dm.powMaxBits
	}

	height := parent.Height + 1
	if dm.difficultyAdjustmentWindowSize == 0 || height%dm.difficultyAdjustmentWindowSize != 0 {
		return parent.Bits
	}

	windowStart := parent.Ancestor(height - dm.difficultyAdjustmentWindowSize)
	actualTimespan := parent.TimeInMilliseconds - windowStart.TimeInMilliseconds
	expectedTimespan := int64(dm.difficultyAdjustmentWindowSize) * dm.targetTimePerBlock.Milliseconds()

	minTimespan := expectedTimespan / 4
	maxTimespan := expectedTimespan * 4
	if actualTimespan < minTimespan {
		actualTimespan = minTimespan
	} else if actualTimespan > maxTimespan {
		actualTimespan = maxTimespan
	}

	// Calculate new target difficulty as:
	// oldTarget * (actualTimespan / expectedTimespan)
	// The result uses integer division which means it will be slightly
	// rounded down.
	newTarget := difficulty.CompactToBig(parent.Bits)
	newTarget.
		Mul(newTarget, big.NewInt(actualTimespan)).
		Div(newTarget, big.NewInt(expectedTimespan))
	if newTarget.Cmp(dm.powMax) > 0 {
		return dm.powMaxBits
	}
	return difficulty.BigToCompact(newTarget)
}
