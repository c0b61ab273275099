package ruleerrors

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrMalformedBlock indicates the block bytes could not be decoded.
	ErrMalformedBlock = newMalformedInputError("ErrMalformedBlock")

	// ErrMalformedTransaction indicates the transaction bytes could not be
	// decoded.
	ErrMalformedTransaction = newMalformedInputError("ErrMalformedTransaction")

	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock = newMalformedInputError("ErrDuplicateBlock")

	//ErrTimeTooMuchInTheFuture indicates that the block timestamp is too much in the future.
	ErrTimeTooMuchInTheFuture = newMalformedInputError("ErrTimeTooMuchInTheFuture")

	// ErrTimeTooOld indicates the time is not after the median time of
	// the last several blocks of the chain.
	ErrTimeTooOld = newRuleError("ErrTimeTooOld")

	// ErrUnexpectedDifficulty indicates specified bits do not align with
	// the expected value either because it doesn't match the calculated
	// valued based on difficulty regarted rules.
	ErrUnexpectedDifficulty = newRuleError("ErrUnexpectedDifficulty")

	// ErrTargetTooHigh indicates specified bits do not align with
	// the expected value either because it is above the valid
	// range.
	ErrTargetTooHigh = newRuleError("ErrTargetTooHigh")

	// ErrNegativeTarget indicates specified bits do not align with
	// the expected value either because it is negative.
	ErrNegativeTarget = newRuleError("ErrNegativeTarget")

	// ErrInvalidPoW indicates that the block proof-of-work is invalid.
	ErrInvalidPoW = newRuleError("ErrInvalidPoW")

	// ErrBadMerkleRoot indicates the calculated merkle root does not match
	// the expected value.
	ErrBadMerkleRoot = newRuleError("ErrBadMerkleRoot")

	// ErrNoTransactions indicates the block does not have a least one
	// transaction. A valid block must have at least the coinbase
	// transaction.
	ErrNoTransactions = newRuleError("ErrNoTransactions")

	// ErrNoTxInputs indicates a transaction does not have any inputs. A
	// valid transaction must have at least one input.
	ErrNoTxInputs = newRuleError("ErrNoTxInputs")

	// ErrNoTxOutputs indicates a transaction does not have any outputs.
	ErrNoTxOutputs = newRuleError("ErrNoTxOutputs")

	// ErrBadTxOutValue indicates an output value for a transaction is
	// invalid in some way such as being out of range.
	ErrBadTxOutValue = newRuleError("ErrBadTxOutValue")

	// ErrDuplicateTxInputs indicates a transaction references the same
	// input more than once.
	ErrDuplicateTxInputs = newRuleError("ErrDuplicateTxInputs")

	// ErrBadTxInput indicates a transaction input is invalid in some way
	// such as referencing a previous transaction outpoint which is out of
	// range or not referencing one at all.
	ErrBadTxInput = newRuleError("ErrBadTxInput")

	// ErrDoubleSpendInSameBlock indicates a transaction
	// that spends an output that was already spent by another
	// transaction in the same block.
	ErrDoubleSpendInSameBlock = newRuleError("ErrDoubleSpendInSameBlock")

	// ErrUnfinalizedTx indicates a transaction has not been finalized.
	// A valid block may only contain finalized transactions.
	ErrUnfinalizedTx = newRuleError("ErrUnfinalizedTx")

	// ErrDuplicateTx indicates a block contains an identical transaction
	// (or at least two transactions which hash to the same value). A
	// valid block may only contain unique transactions.
	ErrDuplicateTx = newRuleError("ErrDuplicateTx")

	// ErrImmatureSpend indicates a transaction is attempting to spend a
	// coinbase that has not yet reached the required maturity.
	ErrImmatureSpend = newRuleError("ErrImmatureSpend")

	// ErrSpendTooHigh indicates a transaction is attempting to spend more
	// value than the sum of all of its inputs.
	ErrSpendTooHigh = newRuleError("ErrSpendTooHigh")

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase = newRuleError("ErrFirstTxNotCoinbase")

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases = newRuleError("ErrMultipleCoinbases")

	// ErrBadCoinbaseTransaction indicates that a coinbase transaction was
	// found where it is not allowed, or is not built as expected
	ErrBadCoinbaseTransaction = newRuleError("ErrBadCoinbaseTransaction")

	// ErrBadCoinbaseValue indicates the coinbase pays more than the block
	// subsidy plus the fees of the block.
	ErrBadCoinbaseValue = newRuleError("ErrBadCoinbaseValue")

	// ErrBadCoinbaseHeight indicates the coinbase signature script does not
	// start with a push of the block height.
	ErrBadCoinbaseHeight = newRuleError("ErrBadCoinbaseHeight")

	// ErrScriptMalformed indicates a transaction script is malformed in
	// some way. For example, it might fail to parse.
	ErrScriptMalformed = newRuleError("ErrScriptMalformed")

	// ErrScriptValidation indicates the result of executing transaction
	// script failed. The error covers any failure when executing scripts
	// such signature verification failures and execution past the end of
	// the stack.
	ErrScriptValidation = newRuleError("ErrScriptValidation")

	// ErrInvalidAncestorBlock indicates that an ancestor of this block has
	// already failed validation.
	ErrInvalidAncestorBlock = newRuleError("ErrInvalidAncestorBlock")

	// ErrKnownInvalid indicates the block was already found invalid. The
	// block is not validated again.
	ErrKnownInvalid = newRuleError("ErrKnownInvalid")

	// ErrReorgTooDeep indicates that connecting the block requires
	// disconnecting more blocks than the rollback horizon allows.
	ErrReorgTooDeep = newRuleError("ErrReorgTooDeep")

	//ErrBlockVersionIsUnknown indicates that the block version is unknown.
	ErrBlockVersionIsUnknown = newRuleError("ErrBlockVersionIsUnknown")

	//ErrTransactionVersionIsUnknown indicates that the transaction version is unknown.
	ErrTransactionVersionIsUnknown = newRuleError("ErrTransactionVersionIsUnknown")

	// ErrBlockWeightTooHigh indicates the serialized size of a block
	// exceeds the maximum allowed limit.
	ErrBlockWeightTooHigh = newResourceExceededError("ErrBlockWeightTooHigh")

	// ErrTxTooLarge indicates the serialized size of a transaction exceeds
	// the maximum allowed limit.
	ErrTxTooLarge = newResourceExceededError("ErrTxTooLarge")

	// ErrScriptResourceExceeded indicates a script is too large or its
	// execution exceeded an operation or stack limit.
	ErrScriptResourceExceeded = newResourceExceededError("ErrScriptResourceExceeded")

	// ErrTransactionInMempool indicates the transaction is already in the
	// mempool.
	ErrTransactionInMempool = newMalformedInputError("ErrTransactionInMempool")

	// ErrDoubleSpendInMempool indicates the transaction spends an outpoint
	// already spent by another mempool transaction. It may be accepted
	// once that transaction leaves the mempool.
	ErrDoubleSpendInMempool = newMalformedInputError("ErrDoubleSpendInMempool")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many validation
// rules. The caller can use type assertions to determine if a failure was
// specifically due to a rule violation.
type RuleError struct {
	message  string
	category externalapi.RejectCategory
	inner    error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

// Category returns the reject category of the rule
func (e RuleError) Category() externalapi.RejectCategory {
	return e.category
}

func newRuleError(message string) RuleError {
	return RuleError{message: message, category: externalapi.CategoryConsensusViolation}
}

func newMalformedInputError(message string) RuleError {
	return RuleError{message: message, category: externalapi.CategoryMalformedInput}
}

func newResourceExceededError(message string) RuleError {
	return RuleError{message: message, category: externalapi.CategoryResourceExceeded}
}

// ErrMissingTxOut indicates a transaction output referenced by an input
// either does not exist or has already been spent.
type ErrMissingTxOut struct {
	MissingOutpoints []*externalapi.DomainOutpoint
}

func (e *ErrMissingTxOut) Error() string {
	return fmt.Sprintf("missing the following outpoint: %v", e.MissingOutpoints)
}

// NewErrMissingTxOut Creates a new ErrMissingTxOut error wrapped in a RuleError
func NewErrMissingTxOut(missingOutpoints []*externalapi.DomainOutpoint) error {
	return errors.WithStack(RuleError{
		message:  "ErrMissingTxOut",
		category: externalapi.CategoryConsensusViolation,
		inner:    &ErrMissingTxOut{missingOutpoints},
	})
}

// ErrMissingParents indicates a block points to an unknown parent. Such a
// block can be submitted again once its parent is known.
type ErrMissingParents struct {
	MissingParentHashes []*externalapi.DomainHash
}

func (e *ErrMissingParents) Error() string {
	return fmt.Sprintf("missing the following parent hashes: %v", e.MissingParentHashes)
}

// NewErrMissingParents creates a new ErrMissingParents error wrapped in a RuleError
func NewErrMissingParents(missingParentHashes []*externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message:  "ErrMissingParents",
		category: externalapi.CategoryMalformedInput,
		inner:    &ErrMissingParents{missingParentHashes},
	})
}

// IsRuleError returns whether err is or wraps a RuleError
func IsRuleError(err error) bool {
	return errors.As(err, &RuleError{})
}

// Categorize returns the reject category of err. Errors that are not rule
// errors come from the storage layer and are fatal, except for
// cancellation which is reported as malformed input so the caller may
// resubmit.
func Categorize(err error) externalapi.RejectCategory {
	if err == nil {
		return externalapi.CategoryNone
	}
	ruleErr := RuleError{}
	if errors.As(err, &ruleErr) {
		return ruleErr.category
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return externalapi.CategoryMalformedInput
	}
	return externalapi.CategoryStorageFailure
}

// NewVerdict returns the verdict of a validation that ended with err, or
// an accepted verdict paying fee if err is nil
func NewVerdict(fee uint64, err error) externalapi.Verdict {
	if err == nil {
		return externalapi.AcceptedVerdict(fee)
	}
	return externalapi.RejectedVerdict(Categorize(err), err)
}
