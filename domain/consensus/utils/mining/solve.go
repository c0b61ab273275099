// Package mining finds valid nonces for blocks built in tests.
package mining

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/difficulty"
)

// SolveBlock searches nonces, starting from a random one, until the block
// hash meets the target encoded in the header's bits. It panics if the
// whole nonce space is exhausted.
func SolveBlock(block *externalapi.DomainBlock, rd *rand.Rand) {
	target := difficulty.CompactToBig(block.Header.Bits)
	start := rd.Uint64()

	nonce := start
	for {
		block.Header.Nonce = nonce
		if difficulty.HashToBig(consensushashing.BlockHash(block)).Cmp(target) <= 0 {
			return
		}
		nonce++
		if nonce == start {
			panic(errors.Errorf("no nonce satisfies bits %08x", block.Header.Bits))
		}
	}
}
