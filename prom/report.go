package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupwatch_report_delivered_total",
		Help: "Duplicate reports delivered to a sink",
	}, []string{"sink"})
	ReportErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupwatch_report_errors_total",
		Help: "Duplicate reports a sink failed to accept",
	}, []string{"sink"})
	ReportKVKeys = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dupwatch_report_kv_keys",
		Help: "Keys held by the key-value report store",
	})
	KafkaTransmitMessageBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dupwatch_kafka_produced_message_bytes_total",
		Help: "Total bytes produced to Kafka.",
	}, []string{"topic"})
)
