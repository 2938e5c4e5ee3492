package metric

import "github.com/prometheus/client_golang/prometheus"

// KeyCounter is the part of the store a StoreCollector samples.
type KeyCounter interface {
	Len() int
	ExpiringLen() int
}

// StoreCollector reports the store size at scrape time.
type StoreCollector struct {
	store    KeyCounter
	keys     *prometheus.Desc
	expiring *prometheus.Desc
}

// NewStoreCollector creates a collector for store.
func NewStoreCollector(store KeyCounter) *StoreCollector {
	return &StoreCollector{
		store: store,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "keys", "count"),
			"Keys in the primary map, expired but not yet evicted ones included.",
			nil, nil,
		),
		expiring: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "keys", "expiring"),
			"Keys carrying a TTL.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expiring
}

// Collect implements prometheus.Collector.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(c.store.Len()))
	ch <- prometheus.MustNewConstMetric(c.expiring, prometheus.GaugeValue, float64(c.store.ExpiringLen()))
}
