package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_sim", Name: "events_processed_total", Help: "Simulation events processed by kind"},
		[]string{"kind"},
	)
	MatchesTotal       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_sim", Name: "matches_total", Help: "Rider/driver pairs formed by the dispatcher"})
	CancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "ride_sim", Name: "cancellations_total", Help: "Riders that gave up before pickup"})
	QueueDepth         = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ride_sim",
		Name:      "event_queue_depth",
		Help:      "Pending events observed after each step",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_sim", Name: "runs_total", Help: "Simulation runs by outcome"},
		[]string{"outcome"},
	)
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{Namespace: "ride_sim", Name: "run_duration_seconds", Help: "Wall time spent draining the event queue"})
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_sim", Name: "report_cache_lookups_total", Help: "Report cache lookups by result"},
		[]string{"result"},
	)
	WatchersConnected = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "ride_sim", Name: "trace_watchers", Help: "Connected websocket trace watchers"})

	TracesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_sim", Name: "traces_dropped_total", Help: "Trace records dropped because a sink could not keep up"},
		[]string{"sink"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "ride_sim", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ride_sim",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
