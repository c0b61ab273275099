package chainstatemanager

import (
	"context"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/blockindexstore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/blockstore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/consensusstatestore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/multisetstore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/undodatastore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/utxosetstore"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/blocknode"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/dagconfig"
	"github.com/zmgnet/zmgd/infrastructure/db/database/ldb"
)

// blockingValidator blocks every body validation until its context is
// done. Once released it accepts every body without touching the view.
type blockingValidator struct {
	model.BlockValidator
	entered  chan struct{}
	released atomic.Bool
}

func (v *blockingValidator) ValidateBodyInContextAndApply(ctx context.Context, _ *externalapi.DomainBlock,
	_ *blocknode.Node, _ model.UTXOView) (*model.UndoData, error) {

	if v.released.Load() {
		return model.NewUndoData(), nil
	}
	v.entered <- struct{}{}
	<-ctx.Done()
	return nil, ctx.Err()
}

func newTestChainStateManager(t *testing.T, validator model.BlockValidator) *chainStateManager {
	db, err := ldb.NewLevelDB(t.TempDir(), 8)
	if err != nil {
		t.Fatalf("NewLevelDB: %s", err)
	}
	t.Cleanup(func() { db.Close() })

	blockStore, err := blockstore.New(10)
	if err != nil {
		t.Fatalf("blockstore.New: %s", err)
	}
	multisetStore, err := multisetstore.New(10)
	if err != nil {
		t.Fatalf("multisetstore.New: %s", err)
	}
	utxoSetStore, err := utxosetstore.New(10)
	if err != nil {
		t.Fatalf("utxosetstore.New: %s", err)
	}

	csm := New(database.New(db), dagconfig.SimnetParams.GenesisBlock, 100, validator,
		blockStore, blockindexstore.New(), utxoSetStore, undodatastore.New(), multisetStore,
		consensusstatestore.New(), nil).(*chainStateManager)
	err = csm.Init()
	if err != nil {
		t.Fatalf("Init: %+v", err)
	}
	return csm
}

func addTestBlock(t *testing.T, csm *chainStateManager, parent *blocknode.Node, nonce uint64) *blocknode.Node {
	genesis := dagconfig.SimnetParams.GenesisBlock
	header := *genesis.Header
	header.ParentHash = *parent.Hash
	header.Nonce = nonce
	header.TimeInMilliseconds = parent.TimeInMilliseconds + 1000
	block := &externalapi.DomainBlock{Header: &header, Transactions: genesis.Transactions}

	node := blocknode.NewNode(consensushashing.BlockHash(block), block.Header, parent)
	err := csm.AddNode(node, block, externalapi.StatusHeaderValid)
	if err != nil {
		t.Fatalf("AddNode: %+v", err)
	}
	return node
}

func TestPreemptEvaluation(t *testing.T) {
	validator := &blockingValidator{entered: make(chan struct{}, 1)}
	csm := newTestChainStateManager(t, validator)
	genesis := csm.Tip()
	candidate := addTestBlock(t, csm, genesis, 1)

	resolved := make(chan error, 1)
	go func() {
		_, err := csm.ResolveTip(context.Background())
		resolved <- err
	}()
	<-validator.entered

	// A block with no more work than the candidate does not preempt it.
	csm.CancelEvaluationsWorseThan(candidate.CumulativeWork)
	select {
	case err := <-resolved:
		t.Fatalf("ResolveTip returned before being preempted: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	csm.CancelEvaluationsWorseThan(new(big.Int).Add(candidate.CumulativeWork, big.NewInt(1)))
	select {
	case err := <-resolved:
		if !errors.Is(err, model.ErrEvaluationPreempted) {
			t.Fatalf("ResolveTip: expected ErrEvaluationPreempted, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("ResolveTip was not preempted")
	}

	if csm.Tip() != genesis {
		t.Fatalf("a preempted evaluation moved the tip to %s", csm.Tip())
	}
	if csm.blockIndex.Status(candidate) != externalapi.StatusHeaderValid {
		t.Fatalf("a preempted evaluation changed the candidate status to %s", csm.blockIndex.Status(candidate))
	}
	hasUndoData, err := csm.undoDataStore.Has(csm.databaseContext, model.NewStagingArea(), candidate.Hash)
	if err != nil {
		t.Fatalf("Has: %+v", err)
	}
	if hasUndoData {
		t.Fatalf("a preempted evaluation committed undo data")
	}
	if csm.Halted() != nil {
		t.Fatalf("a preempted evaluation halted the chain state: %s", csm.Halted())
	}

	// Nothing is evaluating, so this is a no-op.
	csm.CancelEvaluationsWorseThan(new(big.Int).Lsh(candidate.CumulativeWork, 1))
}

func TestResolveTipHonorsContext(t *testing.T) {
	validator := &blockingValidator{entered: make(chan struct{}, 1)}
	csm := newTestChainStateManager(t, validator)
	addTestBlock(t, csm, csm.Tip(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-validator.entered
		cancel()
	}()
	_, err := csm.ResolveTip(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ResolveTip: expected context.Canceled, got %v", err)
	}
	if csm.Halted() != nil {
		t.Fatalf("cancellation halted the chain state: %s", csm.Halted())
	}
}

// TestInterruptedCandidateIsResolvedLater checks that a candidate whose
// evaluation was preempted or cancelled stays a candidate, and becomes the
// tip the next time the tip is resolved.
func TestInterruptedCandidateIsResolvedLater(t *testing.T) {
	tests := []struct {
		name        string
		interrupt   func(csm *chainStateManager, candidate *blocknode.Node, cancel context.CancelFunc)
		expectedErr error
	}{
		{
			name: "preempted",
			interrupt: func(csm *chainStateManager, candidate *blocknode.Node, _ context.CancelFunc) {
				csm.CancelEvaluationsWorseThan(new(big.Int).Add(candidate.CumulativeWork, big.NewInt(1)))
			},
			expectedErr: model.ErrEvaluationPreempted,
		},
		{
			name: "cancelled",
			interrupt: func(_ *chainStateManager, _ *blocknode.Node, cancel context.CancelFunc) {
				cancel()
			},
			expectedErr: context.Canceled,
		},
	}
	for _, test := range tests {
		validator := &blockingValidator{entered: make(chan struct{}, 1)}
		csm := newTestChainStateManager(t, validator)
		genesis := csm.Tip()
		candidate := addTestBlock(t, csm, addTestBlock(t, csm, genesis, 1), 2)

		ctx, cancel := context.WithCancel(context.Background())
		resolved := make(chan error, 1)
		go func() {
			_, err := csm.ResolveTip(ctx)
			resolved <- err
		}()
		<-validator.entered
		test.interrupt(csm, candidate, cancel)

		select {
		case err := <-resolved:
			if !errors.Is(err, test.expectedErr) {
				t.Fatalf("%s: ResolveTip: expected %v, got %v", test.name, test.expectedErr, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("%s: ResolveTip was not interrupted", test.name)
		}
		cancel()

		candidates := csm.blockIndex.CandidatesBetterThan(csm.Tip())
		if len(candidates) != 1 || candidates[0] != candidate {
			t.Fatalf("%s: expected %s to still be the only candidate, got %v", test.name, candidate, candidates)
		}

		validator.released.Store(true)
		resolution, err := csm.ResolveTip(context.Background())
		if err != nil {
			t.Fatalf("%s: ResolveTip: %+v", test.name, err)
		}
		if csm.Tip() != candidate {
			t.Fatalf("%s: expected the tip to move to %s, got %s", test.name, candidate, csm.Tip())
		}
		if len(resolution.ChainChanges.Added) != 2 || !resolution.ChainChanges.Added[1].Equal(candidate.Hash) {
			t.Fatalf("%s: unexpected chain changes %v", test.name, resolution.ChainChanges.Added)
		}
		if status := csm.blockIndex.Status(candidate); status != externalapi.StatusFullyValid {
			t.Fatalf("%s: expected the candidate to be fully valid, got %s", test.name, status)
		}
		if !csm.IsInActiveChain(candidate) {
			t.Fatalf("%s: the candidate is not in the active chain", test.name)
		}
	}
}

func TestFindForkAndSetTip(t *testing.T) {
	validator := &blockingValidator{entered: make(chan struct{}, 1)}
	csm := newTestChainStateManager(t, validator)
	genesis := csm.Tip()

	a1 := addTestBlock(t, csm, genesis, 1)
	a2 := addTestBlock(t, csm, a1, 2)
	a3 := addTestBlock(t, csm, a2, 3)
	b2 := addTestBlock(t, csm, a1, 4)
	c1 := addTestBlock(t, csm, genesis, 5)

	tests := []struct {
		a, b     *blocknode.Node
		expected *blocknode.Node
	}{
		{a: a3, b: b2, expected: a1},
		{a: b2, b: a3, expected: a1},
		{a: a3, b: a2, expected: a2},
		{a: a3, b: c1, expected: genesis},
		{a: genesis, b: genesis, expected: genesis},
	}
	for _, test := range tests {
		fork := findFork(test.a, test.b)
		if fork != test.expected {
			t.Fatalf("findFork(%s, %s): expected %s, got %s", test.a, test.b, test.expected, fork)
		}
	}

	csm.stateLock.Lock()
	csm.setTipNoLock(a3)
	csm.setTipNoLock(b2)
	csm.stateLock.Unlock()

	expectedChain := []*blocknode.Node{genesis, a1, b2}
	for height, expected := range expectedChain {
		node, ok := csm.ActiveChainBlockAtHeight(uint64(height))
		if !ok || node != expected {
			t.Fatalf("ActiveChainBlockAtHeight(%d): expected %s, got %v", height, expected, node)
		}
	}
	if _, ok := csm.ActiveChainBlockAtHeight(3); ok {
		t.Fatalf("the active chain still has a block at height 3")
	}
	if csm.IsInActiveChain(a2) || csm.IsInActiveChain(a3) {
		t.Fatalf("blocks of the old branch are still in the active chain")
	}
}
