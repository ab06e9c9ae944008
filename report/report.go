/*
Package report fans duplicate observations out to external sinks.

The counter hands each duplicate to a Dispatcher without blocking; a single worker
delivers them to every configured sink in order.
*/
package report

import (
	"context"
	"errors"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/queue"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Sink receives duplicate reports.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, d models.Duplicate) error
	Close() error
}

// Line is the serialised form of a duplicate report.
type Line struct {
	Fingerprint    string  `json:"fingerprint"`
	Count          uint64  `json:"count"`
	Timestamp      float64 `json:"timestamp"`
	FirstSeen      float64 `json:"first_seen,omitempty"`
	SinceFirstSeen float64 `json:"since_first_seen,omitempty"`
}

func NewLine(d models.Duplicate) Line {
	return Line{
		Fingerprint:    d.Fingerprint.String(),
		Count:          d.Count,
		Timestamp:      d.Timestamp,
		FirstSeen:      d.FirstSeen,
		SinceFirstSeen: d.SinceFirstSeen(),
	}
}

func Marshal(d models.Duplicate) ([]byte, error) {
	return json.Marshal(NewLine(d))
}

type Dispatcher struct {
	queue  *queue.Bounded[models.Duplicate]
	sinks  []Sink
	logger zerolog.Logger
}

func NewDispatcher(capacity int, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		queue:  queue.NewBounded[models.Duplicate]("report", capacity),
		sinks:  sinks,
		logger: st.Logger,
	}
}

func (d *Dispatcher) WithLogger(l zerolog.Logger) *Dispatcher {
	d.logger = l
	return d
}

// Report queues dup without blocking, it is dropped if the queue is full.
func (d *Dispatcher) Report(dup models.Duplicate) {
	d.queue.TryPush("counter", dup)
}

func (d *Dispatcher) Sinks() []Sink { return d.sinks }

func (d *Dispatcher) Queue() *queue.Bounded[models.Duplicate] { return d.queue }

// Run delivers reports until ctx is cancelled, then closes every sink.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.close()
	for {
		dup, ok := d.queue.Pop(ctx)
		if !ok {
			return nil
		}
		d.deliver(ctx, dup)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, dup models.Duplicate) {
	for _, s := range d.sinks {
		if err := s.Deliver(ctx, dup); err != nil {
			prom.ReportErrors.WithLabelValues(s.Name()).Inc()
			d.logger.Debug().Err(err).Str("sink", s.Name()).Str("fingerprint", dup.Fingerprint.String()).Msg("could not deliver duplicate report")
			continue
		}
		prom.ReportDelivered.WithLabelValues(s.Name()).Inc()
	}
}

func (d *Dispatcher) close() {
	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		d.logger.Warn().Err(err).Msg("could not close report sinks")
	}
}
