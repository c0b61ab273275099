// Package metrics exposes the node's Prometheus metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zmgnet/zmgd/domain/consensus/model/externalapi"
)

const namespace = "zmgd"

// Metrics holds the collectors of a node. Each instance registers them in
// its own registry.
type Metrics struct {
	registry *prometheus.Registry

	blocks          *prometheus.CounterVec
	transactions    *prometheus.CounterVec
	reorgs          prometheus.Counter
	reorgDepth      prometheus.Histogram
	tipHeight       prometheus.Gauge
	mempoolSize     prometheus.Gauge
	storageFailures prometheus.Counter
}

// New creates a new Metrics with its own registry, which also carries the
// Go runtime and process collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		blocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocks_submitted_total",
				Help:      "Number of submitted blocks by verdict",
			},
			[]string{"verdict"},
		),
		transactions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transactions_submitted_total",
				Help:      "Number of submitted transactions by verdict",
			},
			[]string{"verdict"},
		),
		reorgs: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reorganizations_total",
				Help:      "Number of chain reorganizations that disconnected at least one block",
			},
		),
		reorgDepth: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reorganization_depth_blocks",
				Help:      "Number of blocks disconnected by a reorganization",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		tipHeight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "tip_height",
				Help:      "Height of the active chain tip",
			},
		),
		mempoolSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mempool_transactions",
				Help:      "Number of transactions in the mempool",
			},
		),
		storageFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_failures_total",
				Help:      "Number of storage failures. Any is fatal",
			},
		),
	}
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func verdictLabel(verdict externalapi.Verdict) string {
	if verdict.Accepted {
		return "accepted"
	}
	return verdict.Category.String()
}

// ObserveBlock records the verdict of a submitted block
func (m *Metrics) ObserveBlock(verdict externalapi.Verdict) {
	m.blocks.WithLabelValues(verdictLabel(verdict)).Inc()
	if verdict.Category == externalapi.CategoryStorageFailure {
		m.storageFailures.Inc()
	}
}

// ObserveTransaction records the verdict of a submitted transaction
func (m *Metrics) ObserveTransaction(verdict externalapi.Verdict) {
	m.transactions.WithLabelValues(verdictLabel(verdict)).Inc()
	if verdict.Category == externalapi.CategoryStorageFailure {
		m.storageFailures.Inc()
	}
}

// ObserveChainChanges records a change of the active chain ending at
// tipHeight
func (m *Metrics) ObserveChainChanges(chainChanges *externalapi.ChainChanges, tipHeight uint64) {
	m.tipHeight.Set(float64(tipHeight))
	if chainChanges == nil || len(chainChanges.Removed) == 0 {
		return
	}
	m.reorgs.Inc()
	m.reorgDepth.Observe(float64(len(chainChanges.Removed)))
}

// SetMempoolSize records the number of transactions in the mempool
func (m *Metrics) SetMempoolSize(size int) {
	m.mempoolSize.Set(float64(size))
}
