package constants

const (
	// BlockVersion represents the current version of blocks mined and the maximum block version
	// this node is able to validate
	BlockVersion = 0

	// TransactionVersion is the current latest supported transaction version.
	TransactionVersion = 0

	// MaxScriptPublicKeyVersion is the current latest supported public key script version.
	MaxScriptPublicKeyVersion = 0

	// SompiPerZMG is the number of sompi in one ZMG.
	SompiPerZMG = 100_000_000

	// MaxSompi is the maximum transaction amount allowed in sompi.
	MaxSompi = 21_000_000 * SompiPerZMG

	// MaxTxInSequenceNum is the maximum sequence number the sequence field
	// of a transaction input can be.
	MaxTxInSequenceNum uint64 = 1<<64 - 1

	// LockTimeThreshold is the number below which a lock time is
	// interpreted to be a block height. Lock times at or above it are
	// unix timestamps in milliseconds.
	LockTimeThreshold = 5e11

	// MaxTransactionSize is the maximum serialized size of a single
	// transaction in bytes.
	MaxTransactionSize = 100_000

	// MaxBlockWeight is the highest block weight, in serialized bytes, any
	// network allows. A block is never decoded from more bytes than this.
	MaxBlockWeight = 2_000_000

	// MaxScriptSize is the maximum length of a script in bytes.
	MaxScriptSize = 10_000

	// MaxScriptElementSize is the maximum number of bytes allowed in a
	// single element pushed to the stack.
	MaxScriptElementSize = 520

	// MaxOpsPerScript is the maximum number of non-push operations in a
	// script.
	MaxOpsPerScript = 201

	// MaxStackSize is the maximum combined height of the main and alt
	// stacks during script execution.
	MaxStackSize = 1000

	// MinCoinbaseScriptLen is the minimum length a coinbase signature
	// script can be.
	MinCoinbaseScriptLen = 1

	// MaxCoinbaseScriptLen is the maximum length a coinbase signature
	// script can be.
	MaxCoinbaseScriptLen = 100

	// MedianTimeWindowSize is the number of preceding blocks whose median
	// timestamp a new block must exceed.
	MedianTimeWindowSize = 11
)
