package consensus

import (
	"github.com/zmgnet/zmgd/domain/dagconfig"
)

const (
	defaultUTXOCacheSize     = 100_000
	defaultSigCacheSize      = 100_000
	defaultBlockCacheSize    = 200
	defaultMultisetCacheSize = 200
)

// Config is a descriptor of a consensus instance
type Config struct {
	dagconfig.Params

	// SkipProofOfWork skips the check that a block hash meets its target.
	// Only for tests.
	SkipProofOfWork bool

	UTXOCacheSize int
	SigCacheSize  int
}

// NewConfig returns the default configuration for params
func NewConfig(params *dagconfig.Params) *Config {
	return &Config{
		Params:        *params,
		UTXOCacheSize: defaultUTXOCacheSize,
		SigCacheSize:  defaultSigCacheSize,
	}
}

func (config *Config) utxoCacheSize() int {
	if config.UTXOCacheSize <= 0 {
		return defaultUTXOCacheSize
	}
	return config.UTXOCacheSize
}

func (config *Config) sigCacheSize() int {
	if config.SigCacheSize <= 0 {
		return defaultSigCacheSize
	}
	return config.SigCacheSize
}
