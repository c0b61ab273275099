package consensus

import (
	"context"
	"math/rand"
	"os"
	"sync"

	"github.com/pkg/errors"
	consensusdatabase "github.com/zmgnet/zmgd/domain/consensus/database"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/blockindexstore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/blockstore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/consensusstatestore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/multisetstore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/undodatastore"
	"github.com/zmgnet/zmgd/domain/consensus/datastructures/utxosetstore"
	"github.com/zmgnet/zmgd/domain/consensus/model"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
	"github.com/zmgnet/zmgd/domain/consensus/model/testapi"
	"github.com/zmgnet/zmgd/domain/consensus/processes/blockprocessor"
	"github.com/zmgnet/zmgd/domain/consensus/processes/blockvalidator"
	"github.com/zmgnet/zmgd/domain/consensus/processes/chainstatemanager"
	"github.com/zmgnet/zmgd/domain/consensus/processes/difficultymanager"
	"github.com/zmgnet/zmgd/domain/consensus/processes/pastmediantimemanager"
	"github.com/zmgnet/zmgd/domain/consensus/processes/transactionvalidator"
	"github.com/zmgnet/zmgd/domain/consensus/utils/constants"
	"github.com/zmgnet/zmgd/domain/consensus/utils/txscript"
	"github.com/zmgnet/zmgd/infrastructure/db/database"
	"github.com/zmgnet/zmgd/infrastructure/db/database/ldb"
)

// Factory instantiates new Consensuses
type Factory interface {
	NewConsensus(config *Config, db database.Database, indexers []model.ChainIndexer) (externalapi.Consensus, error)
	NewTestConsensus(config *Config, testName string) (
		tc testapi.TestConsensus, teardown func(keepDataDir bool), err error)
	NewTestConsensusWithDatabase(config *Config, db database.Database) (testapi.TestConsensus, error)
}

type factory struct{}

// NewFactory creates a new Consensus factory
func NewFactory() Factory {
	return &factory{}
}

// NewConsensus instantiates a new Consensus over db, loading its state or
// writing the genesis state on first use. indexers are kept in step with
// the active chain.
func (f *factory) NewConsensus(config *Config, db database.Database, indexers []model.ChainIndexer) (
	externalapi.Consensus, error) {

	c, err := f.newConsensus(config, db, indexers)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (f *factory) newConsensus(config *Config, db database.Database, indexers []model.ChainIndexer) (
	*consensus, error) {

	dbManager := consensusdatabase.New(db)

	// Data Structures
	blockStore, err := blockstore.New(defaultBlockCacheSize)
	if err != nil {
		return nil, err
	}
	multisetStore, err := multisetstore.New(defaultMultisetCacheSize)
	if err != nil {
		return nil, err
	}
	utxoSetStore, err := utxosetstore.New(config.utxoCacheSize())
	if err != nil {
		return nil, err
	}
	blockIndexStore := blockindexstore.New()
	undoDataStore := undodatastore.New()
	consensusStateStore := consensusstatestore.New()

	sigCache, err := txscript.NewSigCache(config.sigCacheSize())
	if err != nil {
		return nil, err
	}

	// Processes
	difficultyManager := difficultymanager.New(
		config.PowMax,
		config.DifficultyAdjustmentWindowSize,
		config.TargetTimePerBlock)
	pastMedianTimeManager := pastmediantimemanager.New(constants.MedianTimeWindowSize)
	transactionValidator, err := transactionvalidator.New(config.BlockCoinbaseMaturity, sigCache)
	if err != nil {
		return nil, err
	}
	blockValidator := blockvalidator.New(
		config.PowMax,
		config.SkipProofOfWork,
		config.MaxBlockWeight,
		config.TimestampDeviationTolerance,
		config.TargetTimePerBlock,
		config.CoinbaseHeightActivation,
		config.CalcBlockSubsidy,
		difficultyManager,
		pastMedianTimeManager,
		transactionValidator)
	chainStateManager := chainstatemanager.New(
		dbManager,
		config.GenesisBlock,
		config.RollbackHorizon,
		blockValidator,
		blockStore,
		blockIndexStore,
		utxoSetStore,
		undoDataStore,
		multisetStore,
		consensusStateStore,
		indexers)
	blockProcessor := blockprocessor.New(
		config.RollbackHorizon,
		blockValidator,
		chainStateManager)

	c := &consensus{
		lock:            &sync.Mutex{},
		databaseContext: dbManager,

		blockProcessor:        blockProcessor,
		blockValidator:        blockValidator,
		chainStateManager:     chainStateManager,
		transactionValidator:  transactionValidator,
		difficultyManager:     difficultyManager,
		pastMedianTimeManager: pastMedianTimeManager,

		blockStore: blockStore,
	}

	err = chainStateManager.Init()
	if err != nil {
		return nil, err
	}

	// Blocks stored before a shutdown may beat the loaded tip
	_, err = chainStateManager.ResolveTip(context.Background())
	if err != nil {
		return nil, err
	}

	return c, nil
}

func (f *factory) NewTestConsensus(config *Config, testName string) (
	tc testapi.TestConsensus, teardown func(keepDataDir bool), err error) {

	dataDir, err := os.MkdirTemp("", testName)
	if err != nil {
		return nil, nil, err
	}
	db, err := ldb.NewLevelDB(dataDir, 8)
	if err != nil {
		return nil, nil, err
	}

	testConsensus, err := f.NewTestConsensusWithDatabase(config, db)
	if err != nil {
		db.Close()
		return nil, nil, errors.Wrapf(err, "could not create a test consensus in %s", dataDir)
	}
	teardown = func(keepDataDir bool) {
		db.Close()
		if !keepDataDir {
			err := os.RemoveAll(dataDir)
			if err != nil {
				log.Errorf("Error removing data directory for test consensus: %s", err)
			}
		}
	}
	return testConsensus, teardown, nil
}

// NewTestConsensusWithDatabase creates a test consensus over an already
// open database. The caller owns db.
func (f *factory) NewTestConsensusWithDatabase(config *Config, db database.Database) (testapi.TestConsensus, error) {
	c, err := f.newConsensus(config, db, nil)
	if err != nil {
		return nil, err
	}
	return &testConsensus{
		consensus: c,
		config:    config,
		rd:        rand.New(rand.NewSource(0)),
	}, nil
}
