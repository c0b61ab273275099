package blockvalidator

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
)

// ValidateBlockInContext validates the parts of a block that depend on its
// position in the chain: the header against its parent, and the coinbase
// against the block height
func (v *blockValidator) ValidateBlockInContext(parent *blocknode.Node, block *externalapi.DomainBlock) error {
	err := v.ValidateHeaderInContext(parent, block.Header)
	if err != nil {
		return err
	}
	return v.checkCoinbaseHeight(parent.Height+1, block)
}

// ValidateHeaderInContext validates a block header against its parent
func (v *blockValidator) ValidateHeaderInContext(parent *blocknode.Node, header *externalapi.DomainBlockHeader) error {
	err := v.checkMedianTimePast(parent, header)
	if err != nil {
		return err
	}

	err = v.checkBlockTimeNotTooFarInTheFuture(header)
	if err != nil {
		return err
	}

	return v.checkDifficulty(parent, header)
}

func (v *blockValidator) checkMedianTimePast(parent *blocknode.Node, header *externalapi.DomainBlockHeader) error {
	pastMedianTime := v.pastMedianTimeManager.PastMedianTime(parent)
	if header.TimeInMilliseconds <= pastMedianTime {
		return errors.Wrapf(ruleerrors.ErrTimeTooOld, "block timestamp of %d is not after "+
			"expected %d", header.TimeInMilliseconds, pastMedianTime)
	}
	return nil
}

func (v *blockValidator) checkBlockTimeNotTooFarInTheFuture(header *externalapi.DomainBlockHeader) error {
	maxTimestamp := v.nowMilliseconds() +
		int64(v.timestampDeviationTolerance)*v.targetTimePerBlock.Milliseconds()
	if header.TimeInMilliseconds > maxTimestamp {
		return errors.Wrapf(ruleerrors.ErrTimeTooMuchInTheFuture, "block timestamp of %d is too far in the "+
			"future, max %d", header.TimeInMilliseconds, maxTimestamp)
	}
	return nil
}

func (v *blockValidator) checkDifficulty(parent *blocknode.Node, header *externalapi.DomainBlockHeader) error {
	expectedBits := v.difficultyManager.RequiredBits(parent)
	if header.Bits != expectedBits {
		return errors.Wrapf(ruleerrors.ErrUnexpectedDifficulty, "block difficulty of %d is not the expected value of %d",
			header.Bits, expectedBits)
	}
	return nil
}

// checkCoinbaseHeight ensures the coinbase signature script of a block at
// or above the activation height starts with a push of the block height
func (v *blockValidator) checkCoinbaseHeight(blockHeight uint64, block *externalapi.DomainBlock) error {
	if blockHeight < v.coinbaseHeightActivation {
		return nil
	}

	expectedPrefix, err := transactionhelper.CoinbaseSignatureScript(blockHeight, nil)
	if err != nil {
		return err
	}
	signatureScript := block.Transactions[coinbaseTransactionIndex].Inputs[0].SignatureScript
	if !bytes.HasPrefix(signatureScript, expectedPrefix) {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseHeight, "the coinbase signature script of the "+
			"block at height %d does not start with a push of its height", blockHeight)
	}
	return nil
}
