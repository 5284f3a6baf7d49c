package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RemoteRequestDuration observes how long each remote/ route takes to
// serve a request, broken down by route name -- grounded on
// utils/prometheus.go's PrometheusObserveDuration/SummaryVec pattern,
// registered directly with prometheus/client_golang since it predates
// (and isn't covered by) docker/go-metrics' namespace wrapper.
var RemoteRequestDuration = prometheus.NewSummaryVec(prometheus.SummaryOpts{
	Namespace: NamespacePrefix,
	Subsystem: "remote",
	Name:      "request_duration_seconds",
	Help:      "time to serve a request on the remote object surface, by route",
}, []string{"route"})

func init() {
	prometheus.MustRegister(RemoteRequestDuration)
}

// ObserveDuration records the duration between start and now against
// metric, labeled by route.
func ObserveDuration(start time.Time, metric *prometheus.SummaryVec, route string) {
	metric.WithLabelValues(route).Observe(time.Since(start).Seconds())
}
