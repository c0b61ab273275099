package hashes

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const (
	transcationHashDomain    = "TransactionHash"
	transcationIDDomain      = "TransactionID"
	transcationSigningDomain = "TransactionSigningHash"
	blockDomain              = "BlockHash"
	merkleBranchDomain       = "MerkleBranchHash"
	utxoCommitmentDomain     = "UTXOCommitmentHash"
)

// NewTransactionHashWriter Returns a new HashWriter used for transaction hashes
func NewTransactionHashWriter() HashWriter {
	return newKeyedWriter(transcationHashDomain)
}

// NewTransactionIDWriter Returns a new HashWriter used for transaction IDs
func NewTransactionIDWriter() HashWriter {
	return newKeyedWriter(transcationIDDomain)
}

// NewTransactionSigningHashWriter Returns a new HashWriter used for signing on a transaction
func NewTransactionSigningHashWriter() HashWriter {
	return newKeyedWriter(transcationSigningDomain)
}

// NewBlockHashWriter Returns a new HashWriter used for hashing blocks
func NewBlockHashWriter() HashWriter {
	return newKeyedWriter(blockDomain)
}

// NewMerkleBranchHashWriter Returns a new HashWriter used for a merkle tree branch
func NewMerkleBranchHashWriter() HashWriter {
	return newKeyedWriter(merkleBranchDomain)
}

// NewUTXOCommitmentHashWriter Returns a new HashWriter used for hashing
// serialized UTXO set commitments
func NewUTXOCommitmentHashWriter() HashWriter {
	return newKeyedWriter(utxoCommitmentDomain)
}

func newKeyedWriter(domain string) HashWriter {
	blake, err := blake2b.New256([]byte(domain))
	if err != nil {
		panic(errors.Wrapf(err, "this should never happen. %s is less than 64 bytes", domain))
	}
	return HashWriter{blake}
}

// Blake2b256 returns the unkeyed blake2b-256 digest of data
func Blake2b256(data []byte) [32]byte {
	return blake2b.Sum256(data)
}
