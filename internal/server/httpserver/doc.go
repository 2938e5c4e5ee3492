// Package httpserver serves the operational HTTP endpoint of redikv.
//
// Routes:
//
//   - GET /metrics: Prometheus exposition of the server metrics
//   - GET /health: JSON liveness report with store and connection counts
//
// The endpoint is off by default and never carries key-value traffic.
package httpserver
