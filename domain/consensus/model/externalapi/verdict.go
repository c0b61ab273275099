package externalapi

import "fmt"

// RejectCategory classifies why an input was rejected
type RejectCategory byte

const (
	// CategoryNone is the category of accepted inputs
	CategoryNone RejectCategory = iota

	// CategoryMalformedInput is for inputs that cannot be decoded or cannot
	// be evaluated yet. No state changes.
	CategoryMalformedInput

	// CategoryConsensusViolation is for inputs that break a consensus rule.
	// Blocks in this category are marked invalid permanently.
	CategoryConsensusViolation

	// CategoryResourceExceeded is for inputs that exceed a size or
	// execution limit.
	CategoryResourceExceeded

	// CategoryStorageFailure is for failures of the storage layer. It is
	// fatal: chain mutation halts until the operator intervenes.
	CategoryStorageFailure
)

var rejectCategoryStrings = map[RejectCategory]string{
	CategoryNone:               "None",
	CategoryMalformedInput:     "MalformedInput",
	CategoryConsensusViolation: "ConsensusViolation",
	CategoryResourceExceeded:   "ResourceExceeded",
	CategoryStorageFailure:     "StorageFailure",
}

func (rc RejectCategory) String() string {
	return rejectCategoryStrings[rc]
}

// Verdict is the outcome of submitting a block or a transaction
type Verdict struct {
	Accepted bool
	Fee      uint64
	Category RejectCategory
	Reason   error
}

// AcceptedVerdict returns a verdict accepting an input that pays fee
func AcceptedVerdict(fee uint64) Verdict {
	return Verdict{Accepted: true, Fee: fee, Category: CategoryNone}
}

// RejectedVerdict returns a verdict rejecting an input
func RejectedVerdict(category RejectCategory, reason error) Verdict {
	return Verdict{Accepted: false, Category: category, Reason: reason}
}

func (v Verdict) String() string {
	if v.Accepted {
		return fmt.Sprintf("accepted (fee %d)", v.Fee)
	}
	return fmt.Sprintf("rejected: %s: %s", v.Category, v.Reason)
}
