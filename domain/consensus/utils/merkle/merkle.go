package merkle

import (
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/hashes"
)

const (
	leafPrefix = 0x00
	nodePrefix = 0x01
)

func hashLeaf(id *externalapi.DomainTransactionID) *externalapi.DomainHash {
	w := hashes.NewMerkleBranchHashWriter()
	w.InfallibleWrite([]byte{leafPrefix})
	w.InfallibleWrite(id.ByteSlice())
	return w.Finalize()
}

func hashMerkleBranches(left, right *externalapi.DomainHash) *externalapi.DomainHash {
	w := hashes.NewMerkleBranchHashWriter()
	w.InfallibleWrite([]byte{nodePrefix})
	w.InfallibleWrite(left.ByteSlice())
	w.InfallibleWrite(right.ByteSlice())
	return w.Finalize()
}

// CalculateHashMerkleRoot calculates the merkle root of a tree whose leaves
// are the IDs of the given transactions. An unpaired node at the end of a
// level is carried up unchanged, so no two distinct transaction lists share
// a root. The root of an empty list is the zero hash.
func CalculateHashMerkleRoot(transactions []*externalapi.DomainTransaction) *externalapi.DomainHash {
	if len(transactions) == 0 {
		return externalapi.NewZeroHash()
	}

	level := make([]*externalapi.DomainHash, 0, len(transactions))
	for _, id := range consensushashing.TransactionIDs(transactions) {
		level = append(level, hashLeaf(id))
	}

	for len(level) > 1 {
		next := make([]*externalapi.DomainHash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i == len(level)-1 {
				next = append(next, level[i])
				continue
			}
			next = append(next, hashMerkleBranches(level[i], level[i+1]))
		}
		level = next
	}
	return level[0]
}
