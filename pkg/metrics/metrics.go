// Package metrics documents the Prometheus metrics exposed by the client.
// All metrics are defined in their owning packages (client, cache) via
// promauto to keep modularity and avoid circular dependencies.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - netclient_requests_total{method, status} (Counter): Total requests by method and HTTP status
//   - netclient_request_duration_seconds{method} (Histogram): Request duration by method
//   - netclient_errors_total{class} (Counter): Errors by class (client, server, timeout, cancelled, unknown)
//
// Retry Metrics (pkg/client):
//   - netclient_retries_total{class} (Counter): Retry attempts by error class
//   - netclient_retry_backoff_seconds{class} (Histogram): Backoff duration by error class
//   - netclient_retry_exhausted_total{class} (Counter): Requests that exhausted max retries
//
// Cache Metrics (pkg/cache):
//   - netclient_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - netclient_cache_misses_total (Counter): Cache misses
//   - netclient_cache_size_bytes{layer="redis"} (Gauge): Current cache size in bytes
//   - netclient_304_responses_total (Counter): 304 Not Modified responses
//   - netclient_conditional_requests_total (Counter): Conditional requests sent
//   - netclient_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(netclient_cache_hits_total[5m])) /
//   (sum(rate(netclient_cache_hits_total[5m])) + sum(rate(netclient_cache_misses_total[5m])))
//
//   # Request Error Rate
//   rate(netclient_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(netclient_request_duration_seconds_bucket[5m]))
