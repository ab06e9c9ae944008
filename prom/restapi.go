package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RestapiTimes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dupwatch_restapi_time_seconds",
		Help:    "Duration of restapi processing",
		Buckets: []float64{.0005, .001, .005, .01, .025, .050, .1, .25, .5, 1, 2.5},
	}, []string{"method", "path"})
	RestapiCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupwatch_restapi_response_codes",
		Help: "The response codes for restapi endpoints",
	}, []string{"method", "path", "code"})
)
