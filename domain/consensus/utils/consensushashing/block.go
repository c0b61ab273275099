package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/hashes"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
)

// BlockHash is the hash of the block's header. Transactions are committed
// to through the header's merkle root.
func BlockHash(block *externalapi.DomainBlock) *externalapi.DomainHash {
	return HeaderHash(block.Header)
}

// HeaderHash hashes the canonical serialization of header.
func HeaderHash(header *externalapi.DomainBlockHeader) *externalapi.DomainHash {
	writer := hashes.NewBlockHashWriter()
	if err := serialization.SerializeHeader(writer, header); err != nil {
		panic(errors.Wrap(err, "serializing a header into a hash writer"))
	}
	return writer.Finalize()
}
