package consensushashing

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/hashes"
	"github.com/zmgnet/zmgd/domain/consensus/utils/serialization"
)

// TransactionID generates the Hash for the transaction. Every serialized
// field, signature scripts included, is committed to.
func TransactionID(tx *externalapi.DomainTransaction) *externalapi.DomainTransactionID {
	writer := hashes.NewTransactionIDWriter()
	err := serialization.SerializeTransaction(writer, tx, serialization.TxEncodingFull)
	if err != nil {
		// this writer never return errors (no allocations or possible failures) so errors can only come from validity checks,
		// and we assume we never construct malformed transactions.
		panic(errors.Wrap(err, "TransactionID() failed. this should never fail for structurally-valid transactions"))
	}
	return (*externalapi.DomainTransactionID)(writer.Finalize())
}

// TransactionIDs returns the IDs of the given transactions, in order
func TransactionIDs(transactions []*externalapi.DomainTransaction) []*externalapi.DomainTransactionID {
	ids := make([]*externalapi.DomainTransactionID, len(transactions))
	for i, tx := range transactions {
		ids[i] = TransactionID(tx)
	}
	return ids
}
