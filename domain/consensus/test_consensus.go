package consensus

import (
	"context"
	"encoding/binary"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/utils/consensushashing"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/merkle"
	"github.com/zmgnet/zmgd/domain/consensus/utils/mining"
	"github.com/zmgnet/zmgd/domain/consensus/utils/testutils"
	"github.com/zmgnet/zmgd/domain/consensus/utils/transactionhelper"
	"github.com/zmgnet/zmgd/domain/dagconfig"
)

type testConsensus struct {
	*consensus
	config *Config

	rdLock     sync.Mutex
	rd         *rand.Rand
	extraNonce uint64
}

func (tc *testConsensus) Params() *dagconfig.Params {
	return &tc.config.Params
}

func (tc *testConsensus) DatabaseContext() model.DBManager {
	return tc.databaseContext
}

func (tc *testConsensus) ChainStateManager() model.ChainStateManager {
	return tc.chainStateManager
}

func (tc *testConsensus) BlockValidator() model.BlockValidator {
	return tc.blockValidator
}

func (tc *testConsensus) BuildBlock(parentHash *externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainBlock, error) {

	parent, ok := tc.chainStateManager.BlockIndex().LookupNode(parentHash)
	if !ok {
		return nil, errors.Errorf("parent %s is not in the block index", parentHash)
	}
	height := parent.Height + 1

	coinbase, err := transactionhelper.NewCoinbaseTransaction(height, tc.nextExtraData(),
		[]*externalapi.DomainTransactionOutput{{
			Value:           tc.config.CalcBlockSubsidy(height),
			ScriptPublicKey: testutils.OpTrueScript(),
		}})
	if err != nil {
		return nil, err
	}

	timeInMilliseconds := parent.TimeInMilliseconds + tc.config.TargetTimePerBlock.Milliseconds()
	pastMedianTime := tc.pastMedianTimeManager.PastMedianTime(parent)
	if timeInMilliseconds <= pastMedianTime {
		timeInMilliseconds = pastMedianTime + 1
	}

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:            constants.BlockVersion,
			ParentHash:         *parentHash,
			TimeInMilliseconds: timeInMilliseconds,
			Bits:               tc.difficultyManager.RequiredBits(parent),
		},
		Transactions: append([]*externalapi.DomainTransaction{coinbase}, transactions...),
	}
	tc.SolveBlock(block)
	return block, nil
}

func (tc *testConsensus) nextExtraData() []byte {
	tc.rdLock.Lock()
	defer tc.rdLock.Unlock()
	tc.extraNonce++
	extraData := make([]byte, 8)
	binary.BigEndian.PutUint64(extraData, tc.extraNonce)
	return extraData
}

func (tc *testConsensus) SolveBlock(block *externalapi.DomainBlock) {
	block.Header.HashMerkleRoot = *merkle.CalculateHashMerkleRoot(block.Transactions)
	if tc.config.SkipProofOfWork {
		return
	}
	tc.rdLock.Lock()
	defer tc.rdLock.Unlock()
	mining.SolveBlock(block, tc.rd)
}

func (tc *testConsensus) AddBlock(parentHash *externalapi.DomainHash, transactions []*externalapi.DomainTransaction) (
	*externalapi.DomainHash, *externalapi.BlockInsertionResult, error) {

	block, err := tc.BuildBlock(parentHash, transactions)
	if err != nil {
		return nil, nil, err
	}
	result, err := tc.ValidateAndInsertBlock(context.Background(), block)
	if err != nil {
		return nil, nil, err
	}
	return consensushashing.BlockHash(block), result, nil
}

func (tc *testConsensus) AddChain(parentHash *externalapi.DomainHash, length int) ([]*externalapi.DomainHash, error) {
	hashes := make([]*externalapi.DomainHash, 0, length)
	tipHash := parentHash
	for i := 0; i < length; i++ {
		var err error
		tipHash, _, err = tc.AddBlock(tipHash, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "could not add block %d of the chain", i)
		}
		hashes = append(hashes, tipHash)
	}
	return hashes, nil
}
