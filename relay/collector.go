/*
Package relay moves fingerprint records from remote producers to a central collector.

Each request is three frames, [identity][empty][json payload], answered by a fixed
three frame reply. A producer has at most one request outstanding.
*/
package relay

import (
	"context"
	"fmt"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=mock_observer_test.go -package=relay . Observer

// Observer counts fingerprints received from producers.
type Observer interface {
	ObserveAt(fp fingerprint.Fingerprint, ts float64) uint64
}

type Status int

const (
	StatusDecoded Status = iota
	StatusSkippedMalformed
)

func (s Status) String() string {
	switch s {
	case StatusDecoded:
		return "decoded"
	case StatusSkippedMalformed:
		return "skipped_malformed"
	}
	return "unknown"
}

// Outcome is the result of handling one request.
type Outcome struct {
	Status   Status
	Identity []byte
	// set when Status is StatusDecoded
	Record models.Record
	// post increment count, set when Status is StatusDecoded
	Count uint64
	// set when Status is StatusSkippedMalformed
	Err error
}

type Collector struct {
	sock     Socket
	observer Observer
	// nil echoes the identity of each request
	replyIdentity []byte
	logger        zerolog.Logger
}

type CollectorOption func(*Collector)

// WithReplyIdentity sets the identity replies are routed to, empty echoes the sender.
func WithReplyIdentity(id string) CollectorOption {
	return func(c *Collector) {
		if id == "" {
			c.replyIdentity = nil
			return
		}
		c.replyIdentity = []byte(id)
	}
}

func WithCollectorLogger(l zerolog.Logger) CollectorOption {
	return func(c *Collector) { c.logger = l }
}

func NewCollector(sock Socket, obs Observer, opts ...CollectorOption) *Collector {
	c := &Collector{
		sock:          sock,
		observer:      obs,
		replyIdentity: []byte(st.Relay.ReplyIdentity),
		logger:        st.Logger,
	}
	if len(c.replyIdentity) == 0 {
		c.replyIdentity = nil
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run serves requests until ctx is cancelled, which also closes the socket.
// A malformed request never stops the loop; a failed receive does.
func (c *Collector) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { c.sock.Close() })
	defer stop()
	c.logger.Info().Msg("collector waiting for relay requests")
	for {
		frames, err := c.sock.Recv()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("collector receive: %w", err)
		}
		out := c.Handle(frames)
		if err := c.sock.Send(c.reply(out.Identity)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			prom.RelayReplyErrors.Inc()
			c.logger.Warn().Err(err).Str("identity", string(out.Identity)).Msg("could not reply to relay request")
		}
	}
}

// Handle decodes one request and observes its fingerprint.
func (c *Collector) Handle(frames [][]byte) Outcome {
	out := c.decode(frames)
	prom.RelayRequests.WithLabelValues(out.Status.String()).Inc()
	if out.Status == StatusDecoded {
		out.Count = c.observer.ObserveAt(out.Record.Fingerprint, out.Record.Timestamp)
		return out
	}
	c.logger.Debug().Err(out.Err).Str("identity", string(out.Identity)).Msg("skipping malformed relay request")
	c.logMalformed(out, frames)
	return out
}

func (c *Collector) decode(frames [][]byte) Outcome {
	out := Outcome{Status: StatusSkippedMalformed}
	if len(frames) > 0 {
		out.Identity = frames[0]
	}
	if len(frames) != 3 {
		out.Err = &DecodeError{Reason: fmt.Sprintf("expected 3 frames, got %d", len(frames))}
		return out
	}
	if len(frames[1]) != 0 {
		out.Err = &DecodeError{Reason: "missing empty delimiter frame"}
		return out
	}
	rec, err := DecodeRecord(frames[2])
	if err != nil {
		out.Err = err
		return out
	}
	out.Status = StatusDecoded
	out.Record = rec
	return out
}

type malformedLine struct {
	Identity string `json:"identity"`
	Reason   string `json:"reason"`
	Frames   int    `json:"frames"`
	Payload  string `json:"payload,omitempty"`
}

const maxLoggedPayload = 512

func (c *Collector) logMalformed(out Outcome, frames [][]byte) {
	line := malformedLine{Identity: string(out.Identity), Frames: len(frames)}
	if out.Err != nil {
		line.Reason = out.Err.Error()
	}
	if len(frames) > 0 {
		payload := frames[len(frames)-1]
		if len(payload) > maxLoggedPayload {
			payload = payload[:maxLoggedPayload]
		}
		line.Payload = string(payload)
	}
	raw, err := json.Marshal(line)
	if err != nil {
		return
	}
	st.WriteFileLog(st.ChLogRelayErr, raw)
}

func (c *Collector) reply(identity []byte) [][]byte {
	id := c.replyIdentity
	if id == nil {
		id = identity
	}
	return [][]byte{id, {}, {}}
}
