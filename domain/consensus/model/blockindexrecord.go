package model

import (
	"math/big"

	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

// BlockIndexRecord is the persisted form of a block index node
type BlockIndexRecord struct {
	Hash               *externalapi.DomainHash
	ParentHash         *externalapi.DomainHash // nil for genesis
	Height             uint64
	CumulativeWork     *big.Int
	Sequence           uint64
	Bits               uint32
	TimeInMilliseconds int64
	Status             externalapi.BlockStatus
}
