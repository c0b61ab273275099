package blockvalidator

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/difficulty"
)

// ValidateHeaderInIsolation validates block headers in isolation from the current
// consensus state
func (v *blockValidator) ValidateHeaderInIsolation(header *externalapi.DomainBlockHeader) error {
	err := v.checkBlockVersion(header)
	if err != nil {
		return err
	}

	return v.checkProofOfWork(header)
}

func (v *blockValidator) checkBlockVersion(header *externalapi.DomainBlockHeader) error {
	if header.Version > constants.BlockVersion {
		return errors.Wrapf(
			ruleerrors.ErrBlockVersionIsUnknown, "The block version is unknown.")
	}
	return nil
}

// checkProofOfWork ensures the block header bits which indicate the target
// difficulty is in min/max range and that the block hash is less than the
// target difficulty as claimed.
func (v *blockValidator) checkProofOfWork(header *externalapi.DomainBlockHeader) error {
	// The target difficulty must be larger than zero.
	target := difficulty.CompactToBig(header.Bits)
	if target.Sign() <= 0 {
		return errors.Wrapf(ruleerrors.ErrNegativeTarget, "block target difficulty of %064x is too low",
			target)
	}

	// The target difficulty must be less than the maximum allowed.
	if target.Cmp(v.powMax) > 0 {
		return errors.Wrapf(ruleerrors.ErrTargetTooHigh, "block target difficulty of %064x is "+
			"higher than max of %064x", target, v.powMax)
	}

	// The block hash must be less than the claimed target unless the flag
	// to avoid proof of work checks is set.
	if !v.skipPoW {
		hash := consensushashing.HeaderHash(header)
		hashNum := difficulty.HashToBig(hash)
		if hashNum.Cmp(target) > 0 {
			return errors.Wrapf(ruleerrors.ErrInvalidPoW, "block hash of %064x is higher than "+
				"expected max of %064x", hashNum, target)
		}
	}

	return nil
}
