package model

import "github.com/zmgnet/zmgd/domain/consensus/model/externalapi"

// UTXOView is a mutable overlay over a UTXO set. Changes made through a
// view are invisible to the set below it until merged or committed.
type UTXOView interface {
	UTXOReader

	// ApplyTransaction spends the inputs of tx and adds its outputs,
	// recording the changes in undoData. A missing input leaves the view
	// unchanged.
	ApplyTransaction(tx *externalapi.DomainTransaction, blockHeight uint64, isCoinbase bool,
		undoData *UndoData) error

	// ApplyBlock applies every transaction of block in order and returns
	// the data needed to undo it. Either every transaction is applied or
	// none is.
	ApplyBlock(block *externalapi.DomainBlock, blockHeight uint64) (*UndoData, error)

	// UndoBlock reverses a prior ApplyBlock.
	UndoBlock(undoData *UndoData) error

	// Snapshot returns a new view layered over this one.
	Snapshot() UTXOView

	// Merge folds the changes of a snapshot into the view it was taken
	// from. The snapshot cannot be used afterwards.
	Merge() error

	// Discard drops the view's changes. The view cannot be used
	// afterwards.
	Discard()

	// Diff returns the changes the view makes to the set below it.
	Diff() (*UTXODiff, error)
}
