// Package metrics declares the prometheus namespaces cmd/forge exports
// over its "forge serve" debug surface, grounded on metrics/prometheus.go
// and registry/storage/cache/metrics/prom.go's NewLabeledCounter/
// NewLabeledTimer usage pattern.
package metrics

import "github.com/docker/go-metrics"

// NamespacePrefix is the namespace every forge metric is registered under.
const NamespacePrefix = "forge"

var (
	// StorageNamespace covers object graph store operations (reads,
	// writes, cache hits) -- the replacement for the teacher's
	// blob/cache storage namespace.
	StorageNamespace = metrics.NewNamespace(NamespacePrefix, "storage", nil)

	// RemoteNamespace covers the read-only HTTP surface in remote/ --
	// the replacement for the teacher's registry middleware namespace,
	// since this system has no middleware chain to instrument.
	RemoteNamespace = metrics.NewNamespace(NamespacePrefix, "remote", nil)
)

// RemoteRequests counts requests served by remote.NewRouter, broken down
// by route name (tag/object/payload).
var RemoteRequests = RemoteNamespace.NewLabeledCounter("requests", "total requests served by the remote object surface", "route")

func init() {
	metrics.Register(StorageNamespace)
	metrics.Register(RemoteNamespace)
}
