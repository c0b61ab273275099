package externalapi

// BlockStatus represents the validation state of a block in the block
// index
type BlockStatus byte

const (
	// StatusUnknown indicates the block was seen but none of its checks
	// have completed
	StatusUnknown BlockStatus = iota

	// StatusHeaderValid indicates the block passed every header and
	// in-isolation check but was not connected yet
	StatusHeaderValid

	// StatusFullyValid indicates the block was fully validated while being
	// connected to a chain
	StatusFullyValid

	// StatusInvalid indicates the block or one of its ancestors broke a
	// consensus rule. This status is permanent.
	StatusInvalid
)

var blockStatusStrings = map[BlockStatus]string{
	StatusUnknown:     "Unknown",
	StatusHeaderValid: "HeaderValid",
	StatusFullyValid:  "FullyValid",
	StatusInvalid:     "Invalid",
}

func (bs BlockStatus) String() string {
	return blockStatusStrings[bs]
}
