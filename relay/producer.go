package relay

import (
	"context"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/queue"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/rs/zerolog"
)

// Producer ships records to a collector one round trip at a time.
// Records offered while the queue is full are dropped.
type Producer struct {
	sock        Socket
	queue       *queue.Bounded[models.Record]
	sendPayload bool
	logger      zerolog.Logger
}

type ProducerOption func(*Producer)

func WithProducerLogger(l zerolog.Logger) ProducerOption {
	return func(p *Producer) { p.logger = l }
}

// NewProducer relays records over sock. With sendPayload set whole frames are shipped
// and hashed by the collector, except frames of exactly 16 bytes which the collector
// reads as fingerprints.
func NewProducer(sock Socket, capacity int, sendPayload bool, opts ...ProducerOption) *Producer {
	p := &Producer{
		sock:        sock,
		queue:       queue.NewBounded[models.Record]("relay", capacity),
		sendPayload: sendPayload,
		logger:      st.Logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Offer queues rec without blocking, returning false if it was dropped.
func (p *Producer) Offer(rec models.Record) bool {
	return p.queue.TryPush("pipeline", rec)
}

// Forward lets the producer terminate a capture pipeline.
func (p *Producer) Forward(rec models.Record) {
	p.Offer(rec)
}

func (p *Producer) Queue() *queue.Bounded[models.Record] { return p.queue }

// Run drains the queue until ctx is cancelled, which also closes the socket.
func (p *Producer) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { p.sock.Close() })
	defer stop()
	for {
		rec, ok := p.queue.Pop(ctx)
		if !ok {
			return nil
		}
		p.send(rec)
	}
}

// send blocks until the collector replies.
func (p *Producer) send(rec models.Record) {
	raw, err := EncodeRecord(rec, p.sendPayload)
	if err != nil {
		prom.RelaySendErrors.WithLabelValues("encode").Inc()
		p.logger.Warn().Err(err).Msg("could not encode relay message")
		return
	}
	start := time.Now()
	if err := p.sock.Send([][]byte{raw}); err != nil {
		prom.RelaySendErrors.WithLabelValues("send").Inc()
		p.logger.Debug().Err(err).Str("fingerprint", rec.Fingerprint.String()).Msg("relay send failed")
		return
	}
	if _, err := p.sock.Recv(); err != nil {
		prom.RelaySendErrors.WithLabelValues("reply").Inc()
		p.logger.Debug().Err(err).Str("fingerprint", rec.Fingerprint.String()).Msg("relay reply failed")
		return
	}
	prom.RelayRoundTrip.Observe(time.Since(start).Seconds())
	prom.RelaySent.Inc()
}
