package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// bounded queues shared by the capture pipeline, relay producer and report dispatcher
	QueueEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupwatch_queue_enqueued_total",
		Help: "Items accepted onto a bounded queue",
	}, []string{"queue", "producer"})
	QueueDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupwatch_queue_dropped_total",
		Help: "Items dropped because a bounded queue was full",
	}, []string{"queue", "producer"})
	QueueLength = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dupwatch_queue_length",
		Help: "Items currently waiting on a bounded queue",
	}, []string{"queue"})

	PipelinePulses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_pipeline_pulses_total",
		Help: "Pulses consumed by the pipeline",
	})
	PipelineFramesConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dupwatch_pipeline_frames_consumed_total",
		Help: "Frame records handed to the pipeline consumer's forwarder",
	})
)
