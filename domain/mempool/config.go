package mempool

import (
	"time"
)

const (
	defaultMaximumTransactionCount = 100_000
	defaultTransactionExpiry       = 24 * time.Hour
)

// Config represents a mempool configuration
type Config struct {
	// MaximumTransactionCount is the number of transactions the mempool
	// holds before it evicts the least recently added ones.
	MaximumTransactionCount uint64

	// TransactionExpiry is how long a transaction stays in the mempool
	// without being included in a block.
	TransactionExpiry time.Duration
}

// DefaultConfig returns the default mempool configuration
func DefaultConfig() *Config {
	return &Config{
		MaximumTransactionCount: defaultMaximumTransactionCount,
		TransactionExpiry:       defaultTransactionExpiry,
	}
}
