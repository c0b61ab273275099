package chainstatemanager

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/multiset"
	"github.com/zmgnet/zmgd/domain/consensus/utils/utxo"
	"github.com/zmgnet/zmgd/infrastructure/logger"
)

// UTXOCommitment returns the MuHash commitment to the UTXO set at the tip
func (csm *chainStateManager) UTXOCommitment() (*externalapi.DomainHash, error) {
	csm.stateLock.RLock()
	defer csm.stateLock.RUnlock()
	return csm.utxoCommitmentNoLock()
}

func (csm *chainStateManager) utxoCommitmentNoLock() (*externalapi.DomainHash, error) {
	ms, err := csm.multisetStore.Get(csm.databaseContext, model.NewStagingArea(), csm.tip.Hash)
	if err != nil {
		return nil, err
	}
	return ms.Hash(), nil
}

// VerifyUTXOCommitment recomputes the commitment from every entry of the
// stored UTXO set and compares it with the commitment kept for the tip.
func (csm *chainStateManager) VerifyUTXOCommitment() error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "csm.VerifyUTXOCommitment")
	defer onEnd()

	csm.stateLock.RLock()
	defer csm.stateLock.RUnlock()

	iterator, err := csm.utxoSetStore.Iterator(csm.databaseContext)
	if err != nil {
		return err
	}
	defer iterator.Close()

	ms := multiset.New()
	entryCount := 0
	for ok := iterator.First(); ok; ok = iterator.Next() {
		outpoint, entry, err := iterator.Get()
		if err != nil {
			return err
		}
		serialized, err := utxo.SerializeUTXO(entry, outpoint)
		if err != nil {
			return err
		}
		ms.Add(serialized)
		entryCount++
	}

	expected, err := csm.utxoCommitmentNoLock()
	if err != nil {
		return err
	}
	if !ms.Hash().Equal(expected) {
		return errors.Errorf("UTXO set of %d entries has commitment %s, but the tip %s commits to %s",
			entryCount, ms.Hash(), csm.tip, expected)
	}
	log.Infof("Verified the commitment of %d UTXO entries at tip %s", entryCount, csm.tip)
	return nil
}
