package domain

import (
	"github.com/zmgnet/zmgd/domain/consensus"
	"github.com/zmgnet/zmgd/domain/mempool"
)

// Config is the configuration of a Domain
type Config struct {
	Consensus *consensus.Config
	Mempool   *mempool.Config

	// VerifyUTXOCommitment recomputes the UTXO set commitment on startup
	// and refuses to start if it does not match the stored one.
	VerifyUTXOCommitment bool

	// OnStorageFailure, if set, is called once the chain state halted
	// after a storage failure.
	OnStorageFailure func(err error)
}
