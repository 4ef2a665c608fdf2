package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters exported on /metrics. Registered on the default
// registry at init.
var (
	CloudsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cloudview",
		Name:      "clouds_received_total",
		Help:      "Point-cloud messages ingested by the display.",
	})

	PointsRendered = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cloudview",
		Name:      "points_rendered_total",
		Help:      "Points appended to the renderer's vertex queue.",
	})

	CloudsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cloudview",
		Name:      "clouds_evicted_total",
		Help:      "Buffered clouds evicted by decay.",
	})

	TransformFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cloudview",
		Name:      "transform_failures_total",
		Help:      "Fixed-frame reprojections that failed; clouds kept untransformed.",
	})

	MalformedChannels = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cloudview",
		Name:      "malformed_channels_total",
		Help:      "Channels whose value count did not match the point count.",
	})
)
