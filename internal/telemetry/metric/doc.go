// Package metric provides Prometheus metrics for redikv.
//
//   - prometheus.go: the metric registry and its HTTP handler
//   - collector.go: a collector sampling key counts from the store
//
// All recording methods are safe to call on a nil *Registry, which lets
// components run with metrics disabled without branching at every call site.
package metric
