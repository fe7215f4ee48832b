package revlog

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "hg"

// Metrics holds the collectors updated while reading revlogs. A single
// Metrics may be shared by every revlog of a repository.
type Metrics struct {
	// RevisionsRead counts the revision texts returned by RevisionData.
	RevisionsRead prometheus.Counter
	// CacheHits counts the reconstructions that started from a cached
	// text instead of a snapshot.
	CacheHits prometheus.Counter
	// NodemapFallbacks counts the persisted node maps ignored because they
	// did not match their index.
	NodemapFallbacks prometheus.Counter
	// DeltaChainLength observes the number of deltas applied to rebuild a
	// revision.
	DeltaChainLength prometheus.Histogram
}

// NewMetrics returns a new set of collectors, not registered anywhere.
func NewMetrics() *Metrics {
	return &Metrics{
		RevisionsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "revlog",
			Name:      "revisions_read_total",
			Help:      "Number of revision texts read.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "revlog",
			Name:      "cache_hits_total",
			Help:      "Number of revision texts rebuilt from a cached text.",
		}),
		NodemapFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "revlog",
			Name:      "nodemap_fallbacks_total",
			Help:      "Number of persisted node maps ignored for being out of date.",
		}),
		DeltaChainLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "revlog",
			Name:      "delta_chain_length",
			Help:      "Number of deltas applied to rebuild a revision.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// Register registers every collector of m with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.RevisionsRead,
		m.CacheHits,
		m.NodemapFallbacks,
		m.DeltaChainLength,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}

func (m *Metrics) revisionRead(chainLength int) {
	if m == nil {
		return
	}

	m.RevisionsRead.Inc()
	m.DeltaChainLength.Observe(float64(chainLength))
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) nodemapFallback() {
	if m != nil {
		m.NodemapFallbacks.Inc()
	}
}
