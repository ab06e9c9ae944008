package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CounterObservations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_counter_observations_total",
		Help: "The total number of fingerprint observations",
	})
	CounterDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_counter_duplicates_total",
		Help: "Observations of a fingerprint that had already been seen",
	})
	CounterDistinct = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dupwatch_counter_distinct_fingerprints",
		Help: "Distinct fingerprints held by the counter",
	})
	SightingLookups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_sightings_lookups_total",
		Help: "The total number of first sighting lookups",
	})
	SightingMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_sightings_misses_total",
		Help: "Duplicates whose first sighting had already aged out of the index",
	})
)
