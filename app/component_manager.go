package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/zmgnet/zmgd/domain"
	"github.com/zmgnet/zmgd/domain/consensus"
	"github.com/zmgnet/zmgd/domain/mempool"
	"github.com/zmgnet/zmgd/infrastructure/config"
	infrastructuredatabase "github.com/zmgnet/zmgd/infrastructure/db/database"
	"github.com/zmgnet/zmgd/infrastructure/metrics"
	"github.com/zmgnet/zmgd/infrastructure/os/signal"
	"github.com/zmgnet/zmgd/util/panics"
)

const metricsShutdownTimeout = 5 * time.Second

// ComponentManager is a wrapper for all the zmgd services
type ComponentManager struct {
	cfg           *config.Config
	domain        domain.Domain
	metricsServer *metrics.Server

	started, shutdown int32
}

// Start launches all the zmgd services.
func (a *ComponentManager) Start() {
	// Already started?
	if atomic.AddInt32(&a.started, 1) != 1 {
		return
	}

	log.Trace("Starting zmgd")

	a.domain.Mempool().Start()
	if a.metricsServer != nil {
		a.metricsServer.Start()
	}

	tipHash, tipHeight, err := a.domain.GetBestTip()
	if err != nil {
		panics.Exit(log, fmt.Sprintf("Error reading the chain tip: %+v", err))
	}
	log.Infof("Chain tip is %s at height %d", tipHash, tipHeight)
}

// Stop gracefully shuts down all the zmgd services.
func (a *ComponentManager) Stop() {
	// Make sure this only happens once.
	if atomic.AddInt32(&a.shutdown, 1) != 1 {
		log.Infof("Zmgd is already in the process of shutting down")
		return
	}

	log.Warnf("Zmgd shutting down")

	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		err := a.metricsServer.Stop(ctx)
		if err != nil {
			log.Errorf("Error stopping the metrics server: %+v", err)
		}
	}

	a.domain.Mempool().Stop()
}

// Domain returns the Domain served by this ComponentManager
func (a *ComponentManager) Domain() domain.Domain {
	return a.domain
}

// NewComponentManager returns a new ComponentManager instance.
// Use Start() to begin all services within this ComponentManager
func NewComponentManager(cfg *config.Config, db infrastructuredatabase.Database) (*ComponentManager, error) {
	consensusConfig := consensus.NewConfig(cfg.NetParams())
	consensusConfig.UTXOCacheSize = cfg.UTXOCacheSize
	consensusConfig.SigCacheSize = cfg.SigCacheMaxSize

	mempoolConfig := mempool.DefaultConfig()
	mempoolConfig.MaximumTransactionCount = cfg.MaxMempoolTransactions
	mempoolConfig.TransactionExpiry = cfg.MempoolExpiry

	nodeMetrics := metrics.New()
	domainInstance, err := domain.New(&domain.Config{
		Consensus:            consensusConfig,
		Mempool:              mempoolConfig,
		VerifyUTXOCommitment: cfg.VerifyUTXOCommitment,
		OnStorageFailure:     requestShutdownOnStorageFailure,
	}, db, nodeMetrics)
	if err != nil {
		return nil, err
	}

	var metricsServer *metrics.Server
	if cfg.MetricsListen != "" {
		metricsServer, err = metrics.NewServer(nodeMetrics, cfg.MetricsListen)
		if err != nil {
			return nil, err
		}
	}

	return &ComponentManager{
		cfg:           cfg,
		domain:        domainInstance,
		metricsServer: metricsServer,
	}, nil
}

// requestShutdownOnStorageFailure stops the node once the chain state
// halted. The stored state is consistent, so a restart recovers it.
func requestShutdownOnStorageFailure(err error) {
	log.Criticalf("Storage failure, shutting down: %+v", err)
	spawn("requestShutdownOnStorageFailure", func() {
		signal.ShutdownRequestChannel <- struct{}{}
	})
}
