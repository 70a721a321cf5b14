// Package metric provides Prometheus metrics for lexdesk.
//
//   - prometheus.go: the Registry, its metric families and the /metrics handler
//   - collector.go: a collector reporting the lifetime left on the held token
//
// Families are namespaced "lexdesk". Every Registry method tolerates a nil
// receiver so components can run without metrics in tests.
package metric
