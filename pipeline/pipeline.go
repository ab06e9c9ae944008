/*
Package pipeline turns captured frames into fingerprint records.

A frame producer and a pulse producer share one bounded queue drained by a single
consumer. Both producers use a non-blocking enqueue, so a slow consumer costs
records rather than stalling capture.
*/
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/capture"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/counter"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/queue"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/google/gopacket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Forwarder takes ownership of records leaving the pipeline.
type Forwarder interface {
	Forward(rec models.Record)
}

type localForwarder struct {
	c *counter.Counter
}

func (l localForwarder) Forward(rec models.Record) {
	l.c.ObserveAt(rec.Fingerprint, rec.Timestamp)
}

// CountLocally forwards records straight into c.
func CountLocally(c *counter.Counter) Forwarder {
	return localForwarder{c: c}
}

// Archiver persists admitted frames.
type Archiver interface {
	Write(ci gopacket.CaptureInfo, data []byte) error
}

type Config struct {
	QueueSize     int
	PulseInterval time.Duration
	// keep frame bytes on each record for relays that ship payloads
	KeepPayload bool
}

func ConfigFromSettings() Config {
	return Config{
		QueueSize:     st.Pipeline.QueueSize,
		PulseInterval: st.Pipeline.PulseInterval,
		KeepPayload:   st.Relay.SendPayload,
	}
}

type Pipeline struct {
	cfg       Config
	source    capture.Source
	decoder   *capture.Decoder
	filter    capture.Filter
	archive   Archiver
	forwarder Forwarder
	queue     *queue.Bounded[Event]
	stats     *Stats
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Pipeline)

func WithFilter(f capture.Filter) Option {
	return func(p *Pipeline) { p.filter = f }
}

// WithArchive writes every admitted frame to a.
func WithArchive(a Archiver) Option {
	return func(p *Pipeline) { p.archive = a }
}

func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

func New(cfg Config, src capture.Source, fwd Forwarder, opts ...Option) *Pipeline {
	if cfg.PulseInterval <= 0 {
		cfg.PulseInterval = time.Second
	}
	p := &Pipeline{
		cfg:       cfg,
		source:    src,
		decoder:   capture.NewDecoder(),
		filter:    capture.AdmitAll,
		forwarder: fwd,
		queue:     queue.NewBounded[Event]("pipeline", cfg.QueueSize),
		stats:     NewStats(),
		logger:    st.Logger,
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Pipeline) Queue() *queue.Bounded[Event] { return p.queue }

func (p *Pipeline) Stats() *Stats { return p.stats }

// Run blocks until ctx is cancelled. Anything still queued at that point is dropped.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.produceFrames(ctx) })
	g.Go(func() error { return p.producePulses(ctx) })
	g.Go(func() error { return p.consume(ctx) })
	return g.Wait()
}

// produceFrames reads until the source is exhausted or ctx is done.
func (p *Pipeline) produceFrames(ctx context.Context) error {
	for ctx.Err() == nil {
		data, ci, err := p.source.ReadFrame()
		if errors.Is(err, capture.ErrNoFrame) {
			continue
		}
		if errors.Is(err, io.EOF) {
			p.logger.Info().Msg("capture source exhausted")
			return nil
		}
		if err != nil {
			prom.CaptureReadErrors.Inc()
			p.logger.Debug().Err(err).Msg("skipping failed capture read")
			continue
		}
		prom.CaptureFramesRead.Inc()
		p.offerFrame(data, ci)
	}
	return nil
}

func (p *Pipeline) offerFrame(data []byte, ci gopacket.CaptureInfo) bool {
	frame := p.decoder.Decode(data, ci)
	if !p.filter.Admit(&frame) {
		prom.CaptureFramesFiltered.Inc()
		return false
	}
	prom.CaptureFramesAdmitted.Inc()

	if p.archive != nil {
		if err := p.archive.Write(ci, data); err != nil {
			prom.CaptureTraceErrors.Inc()
			p.logger.Debug().Err(err).Msg("could not archive frame")
		}
	}

	when := ci.Timestamp
	if when.IsZero() {
		when = p.now()
	}
	rec := models.NewRecord(data, when, p.cfg.KeepPayload)
	return p.queue.TryPush(EventFrame.String(), Event{Kind: EventFrame, Frame: models.Frame{Record: rec, Meta: frame.Meta}})
}

func (p *Pipeline) producePulses(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.PulseInterval)
	defer ticker.Stop()
	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			p.queue.TryPush(EventPulse.String(), Event{Kind: EventPulse, Pulse: models.Pulse{Sequence: seq}})
			seq++
		}
	}
}

func (p *Pipeline) consume(ctx context.Context) error {
	for {
		ev, ok := p.queue.Pop(ctx)
		if !ok {
			return nil
		}
		p.handle(ev)
	}
}

func (p *Pipeline) handle(ev Event) {
	switch ev.Kind {
	case EventFrame:
		prom.PipelineFramesConsumed.Inc()
		p.stats.Add(ev.Frame.Meta)
		p.forwarder.Forward(ev.Frame.Record)
	case EventPulse:
		prom.PipelinePulses.Inc()
		p.report(p.stats.Rotate(ev.Pulse))
	}
}

func (p *Pipeline) report(snap StatsSnapshot) {
	sources := zerolog.Dict()
	for k, v := range snap.Sources {
		sources.Uint64(k, v)
	}
	destinations := zerolog.Dict()
	for k, v := range snap.Destinations {
		destinations.Uint64(k, v)
	}
	etherTypes := zerolog.Dict()
	for k, v := range snap.EtherTypes {
		etherTypes.Uint64(k, v)
	}
	p.logger.Info().
		Uint64("pulse", snap.Pulse).
		Uint64("frames", snap.Frames).
		Int("queued", p.queue.Len()).
		Uint64("dropped", p.queue.Dropped()).
		Dict("sources", sources).
		Dict("destinations", destinations).
		Dict("ethertypes", etherTypes).
		Msg("pulse")
}
