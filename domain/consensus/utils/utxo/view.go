package utxo

import (
	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/ruleerrors"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
)

// ErrViewClosed is returned when a merged or discarded view is used
var ErrViewClosed = errors.New("the UTXO view was merged or discarded")

// View is a copy-on-write overlay over a UTXO set. Reads fall through to
// the layer below unless the view added or removed the outpoint.
//
// A View is not safe for concurrent use.
type View struct {
	base   model.UTXOReader
	parent *View

	toAdd    model.UTXOCollection
	toRemove model.UTXOCollection

	closed bool
}

// NewView returns an empty view over base
func NewView(base model.UTXOReader) *View {
	return &View{
		base:     base,
		toAdd:    make(model.UTXOCollection),
		toRemove: make(model.UTXOCollection),
	}
}

// Get returns the entry of outpoint as seen through the view
func (v *View) Get(outpoint *externalapi.DomainOutpoint) (externalapi.UTXOEntry, bool, error) {
	if v.closed {
		return nil, false, errors.WithStack(ErrViewClosed)
	}
	if entry, ok := v.toAdd[*outpoint]; ok {
		return entry, true, nil
	}
	if _, ok := v.toRemove[*outpoint]; ok {
		return nil, false, nil
	}
	return v.base.Get(outpoint)
}

// add makes outpoint unspent with the given entry. The outpoint must not
// be visible through the view.
func (v *View) add(outpoint *externalapi.DomainOutpoint, entry externalapi.UTXOEntry) {
	if removed, ok := v.toRemove[*outpoint]; ok && removed.Equal(entry) {
		delete(v.toRemove, *outpoint)
		return
	}
	v.toAdd[*outpoint] = entry
}

// remove spends outpoint, whose current entry is entry.
func (v *View) remove(outpoint *externalapi.DomainOutpoint, entry externalapi.UTXOEntry) {
	if _, ok := v.toAdd[*outpoint]; ok {
		delete(v.toAdd, *outpoint)
		return
	}
	v.toRemove[*outpoint] = entry
}

// ApplyTransaction spends the inputs of tx and adds its outputs, recording
// the changes in undoData. If any input is missing the view is left
// unchanged and a ruleerrors.ErrMissingTxOut is returned.
func (v *View) ApplyTransaction(tx *externalapi.DomainTransaction, blockHeight uint64, isCoinbase bool,
	undoData *model.UndoData) error {

	if v.closed {
		return errors.WithStack(ErrViewClosed)
	}

	var spentEntries []externalapi.UTXOEntry
	if !isCoinbase {
		spentEntries = make([]externalapi.UTXOEntry, len(tx.Inputs))
		var missingOutpoints []*externalapi.DomainOutpoint
		spentInTransaction := make(map[externalapi.DomainOutpoint]struct{}, len(tx.Inputs))
		for i, input := range tx.Inputs {
			entry, found, err := v.Get(&input.PreviousOutpoint)
			if err != nil {
				return err
			}
			_, alreadySpent := spentInTransaction[input.PreviousOutpoint]
			if !found || alreadySpent {
				missingOutpoints = append(missingOutpoints, input.PreviousOutpoint.Clone())
				continue
			}
			spentInTransaction[input.PreviousOutpoint] = struct{}{}
			spentEntries[i] = entry
		}
		if len(missingOutpoints) > 0 {
			return ruleerrors.NewErrMissingTxOut(missingOutpoints)
		}
	}

	transactionID := consensushashing.TransactionID(tx)
	for i := range tx.Outputs {
		_, found, err := v.Get(externalapi.NewDomainOutpoint(transactionID, uint32(i)))
		if err != nil {
			return err
		}
		if found {
			return errors.Wrapf(ruleerrors.ErrDuplicateTx, "transaction %s overwrites an unspent output of "+
				"an earlier transaction with the same ID", transactionID)
		}
	}

	for i, input := range tx.Inputs {
		if isCoinbase {
			break
		}
		v.remove(&input.PreviousOutpoint, spentEntries[i])
		undoData.Spent = append(undoData.Spent, &externalapi.OutpointAndUTXOEntryPair{
			Outpoint:  input.PreviousOutpoint.Clone(),
			UTXOEntry: spentEntries[i],
		})
	}

	for i, output := range tx.Outputs {
		outpoint := externalapi.NewDomainOutpoint(transactionID, uint32(i))
		v.add(outpoint, NewUTXOEntry(output.Value, output.ScriptPublicKey, isCoinbase, blockHeight))
		undoData.Created = append(undoData.Created, outpoint)
	}
	return nil
}

// ApplyBlock applies every transaction of block in order, the first one as
// the coinbase, and returns the data needed to undo it. On failure the
// view is left unchanged.
func (v *View) ApplyBlock(block *externalapi.DomainBlock, blockHeight uint64) (*model.UndoData, error) {
	if v.closed {
		return nil, errors.WithStack(ErrViewClosed)
	}

	snapshot := v.newSnapshot()
	undoData := model.NewUndoData()
	for i, tx := range block.Transactions {
		err := snapshot.ApplyTransaction(tx, blockHeight, i == 0, undoData)
		if err != nil {
			snapshot.Discard()
			return nil, err
		}
	}
	err := snapshot.Merge()
	if err != nil {
		return nil, err
	}
	return undoData, nil
}

// UndoBlock reverses a prior ApplyBlock: outpoints the block created are
// removed and outpoints it spent are restored with their prior entries.
func (v *View) UndoBlock(undoData *model.UndoData) error {
	if v.closed {
		return errors.WithStack(ErrViewClosed)
	}

	created := make(map[externalapi.DomainOutpoint]struct{}, len(undoData.Created))
	for _, outpoint := range undoData.Created {
		created[*outpoint] = struct{}{}
		entry, found, err := v.Get(outpoint)
		if err != nil {
			return err
		}
		if found {
			v.remove(outpoint, entry)
		}
	}

	for i := len(undoData.Spent) - 1; i >= 0; i-- {
		spent := undoData.Spent[i]
		if _, ok := created[*spent.Outpoint]; ok {
			continue
		}
		_, found, err := v.Get(spent.Outpoint)
		if err != nil {
			return err
		}
		if found {
			return errors.Errorf("cannot restore outpoint %s: it is already unspent", spent.Outpoint)
		}
		v.add(spent.Outpoint, spent.UTXOEntry)
	}
	return nil
}

// Snapshot returns a new view layered over v
func (v *View) Snapshot() model.UTXOView {
	return v.newSnapshot()
}

func (v *View) newSnapshot() *View {
	snapshot := NewView(v)
	snapshot.parent = v
	return snapshot
}

// Merge folds the changes of a snapshot into the view it was taken from
func (v *View) Merge() error {
	if v.closed {
		return errors.WithStack(ErrViewClosed)
	}
	if v.parent == nil {
		return errors.New("only a snapshot can be merged")
	}
	for outpoint, entry := range v.toRemove {
		outpoint := outpoint
		v.parent.remove(&outpoint, entry)
	}
	for outpoint, entry := range v.toAdd {
		outpoint := outpoint
		v.parent.add(&outpoint, entry)
	}
	v.Discard()
	return nil
}

// Discard drops the changes of the view
func (v *View) Discard() {
	v.closed = true
	v.toAdd = nil
	v.toRemove = nil
}

// Diff returns the changes the view makes to the set below it
func (v *View) Diff() (*model.UTXODiff, error) {
	if v.closed {
		return nil, errors.WithStack(ErrViewClosed)
	}
	toAdd := make(model.UTXOCollection, len(v.toAdd))
	for outpoint, entry := range v.toAdd {
		toAdd[outpoint] = entry
	}
	toRemove := make(model.UTXOCollection, len(v.toRemove))
	for outpoint, entry := range v.toRemove {
		toRemove[outpoint] = entry
	}
	return &model.UTXODiff{ToAdd: toAdd, ToRemove: toRemove}, nil
}

// UpdateMultiset applies the change a block made to the UTXO set, as
// recorded by its undo data, to ms. Outputs the block created and spent
// itself cancel out.
func UpdateMultiset(ms model.Multiset, block *externalapi.DomainBlock, blockHeight uint64,
	undoData *model.UndoData, isDisconnect bool) error {

	add, remove := ms.Add, ms.Remove
	if isDisconnect {
		add, remove = ms.Remove, ms.Add
	}

	for _, spent := range undoData.Spent {
		serialized, err := SerializeUTXO(spent.UTXOEntry, spent.Outpoint)
		if err != nil {
			return err
		}
		remove(serialized)
	}
	for i, tx := range block.Transactions {
		transactionID := consensushashing.TransactionID(tx)
		for j, output := range tx.Outputs {
			outpoint := externalapi.NewDomainOutpoint(transactionID, uint32(j))
			entry := NewUTXOEntry(output.Value, output.ScriptPublicKey, i == 0, blockHeight)
			serialized, err := SerializeUTXO(entry, outpoint)
			if err != nil {
				return err
			}
			add(serialized)
		}
	}
	return nil
}
