package blockvalidator

import (
	"math/big"
	"time"

	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/utils/difficulty"
	"github.com/zmgnet/zmgd/util/mstime"
)

// SubsidyCalculator returns the block subsidy at a height
type SubsidyCalculator func(blockHeight uint64) uint64

// blockValidator exposes a set of validation classes, after which
// it's possible to determine whether either a block is valid
type blockValidator struct {
	powMax                      *big.Int
	powMaxBits                  uint32
	skipPoW                     bool
	maxBlockWeight              uint64
	timestampDeviationTolerance uint64
	targetTimePerBlock          time.Duration
	coinbaseHeightActivation    uint64
	calcBlockSubsidy            SubsidyCalculator
	nowMilliseconds             func() int64

	difficultyManager     model.DifficultyManager
	pastMedianTimeManager model.PastMedianTimeManager
	transactionValidator  model.TransactionValidator
}

// New instantiates a new BlockValidator
func New(powMax *big.Int,
	skipPoW bool,
	maxBlockWeight uint64,
	timestampDeviationTolerance uint64,
	targetTimePerBlock time.Duration,
	coinbaseHeightActivation uint64,
	calcBlockSubsidy SubsidyCalculator,

	difficultyManager model.DifficultyManager,
	pastMedianTimeManager model.PastMedianTimeManager,
	transactionValidator model.TransactionValidator,
) model.BlockValidator {

	return &blockValidator{
		powMax:                      powMax,
		powMaxBits:                  difficulty.BigToCompact(powMax),
		skipPoW:                     skipPoW,
		maxBlockWeight:              maxBlockWeight,
		timestampDeviationTolerance: timestampDeviationTolerance,
		targetTimePerBlock:          targetTimePerBlock,
		coinbaseHeightActivation:    coinbaseHeightActivation,
		calcBlockSubsidy:            calcBlockSubsidy,
		nowMilliseconds:             mstime.NowUnixMilli,

		difficultyManager:     difficultyManager,
		pastMedianTimeManager: pastMedianTimeManager,
		transactionValidator:  transactionValidator,
	}
}
