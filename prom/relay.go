package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// collector side
	RelayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupwatch_relay_requests_total",
		Help: "Relay requests handled by the collector, by decode outcome",
	}, []string{"outcome"})
	RelayReplyErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_relay_reply_errors_total",
		Help: "Replies the collector failed to send",
	})

	// producer side
	RelaySent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_relay_sent_total",
		Help: "Records completed as a request/reply round trip",
	})
	RelaySendErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupwatch_relay_send_errors_total",
		Help: "Records that failed to complete a round trip",
	}, []string{"stage"})
	RelayRoundTrip = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dupwatch_relay_round_trip_seconds",
		Help:    "Duration of a relay request/reply round trip",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1.0, 5.0},
	})
)
