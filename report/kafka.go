package report

import (
	"context"
	"fmt"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/IBM/sarama"
	prometheusmetrics "github.com/deathowl/go-metrics-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rcrowley/go-metrics"
)

// KafkaSink publishes duplicate reports keyed by fingerprint, so every report for
// one fingerprint lands on the same partition.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// NewKafkaProducer connects a sync producer using the report settings.
func NewKafkaProducer(cfg st.DWKafka) (sarama.SyncProducer, error) {
	// Disable or enable extendedKafkaMetrics
	if cfg.ExtendedMetrics {
		prometheusClient := prometheusmetrics.NewPrometheusProvider(
			metrics.DefaultRegistry, "dupwatch", "sarama", prometheus.DefaultRegisterer, 1*time.Second)
		go prometheusClient.UpdatePrometheusMetrics()
	} else {
		metrics.UseNilMetrics = true
	}

	config := sarama.NewConfig()
	config.MetricRegistry = metrics.DefaultRegistry
	config.Metadata.Full = false
	config.Producer.Compression = sarama.CompressionLZ4
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Producer.RequiredAcks = sarama.WaitForLocal
	// Provides a name for this kafka connection for logging debugging and auditing.
	config.ClientID = "dupwatchReportProducer"
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewSyncProducer([]string{cfg.Endpoint}, config)
	if err != nil {
		return nil, fmt.Errorf("could not connect to kafka %s: %w", cfg.Endpoint, err)
	}
	return producer, nil
}

func (k *KafkaSink) Name() string { return "kafka" }

func (k *KafkaSink) Deliver(ctx context.Context, d models.Duplicate) error {
	raw, err := Marshal(d)
	if err != nil {
		return err
	}
	_, _, err = k.producer.SendMessage(&sarama.ProducerMessage{
		Topic: k.topic,
		Key:   sarama.StringEncoder(d.Fingerprint.String()),
		Value: sarama.ByteEncoder(raw),
	})
	if err != nil {
		return err
	}
	prom.KafkaTransmitMessageBytes.WithLabelValues(k.topic).Add(float64(len(raw)))
	return nil
}

func (k *KafkaSink) Close() error {
	return k.producer.Close()
}
