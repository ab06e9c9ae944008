/*
Package counter tracks how many times each fingerprint has been observed.

A Counter is constructed once and shared by every path that observes fingerprints
(local capture and relayed records). Entries are never evicted, so a fingerprint
reported as a duplicate stays a duplicate for the life of the process.
*/
package counter

import (
	"sync"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/rs/zerolog"
)

// Sightings remembers when fingerprints were first seen.
type Sightings interface {
	// Sight records ts as the first sighting of fp if it is not already known,
	// returning the first sighting and whether it was already known.
	Sight(fp fingerprint.Fingerprint, ts float64) (first float64, known bool)
}

// Reporter receives every duplicate observation.
type Reporter interface {
	Report(d models.Duplicate)
}

type Summary struct {
	// fingerprints observed at least once
	Distinct int `json:"distinct"`
	// calls to observe
	Observations uint64 `json:"observations"`
	// fingerprints observed more than once
	Duplicated int `json:"duplicated"`
}

// observations of one fingerprint reach the sightings index in count order
const sightStripes = 64

type Counter struct {
	mu           sync.Mutex
	counts       map[fingerprint.Fingerprint]uint64
	observations uint64
	duplicated   int

	logger    zerolog.Logger
	sightings Sightings
	stripes   [sightStripes]sync.Mutex
	reporter  Reporter
	now       func() time.Time
}

type Option func(*Counter)

// WithLogger replaces the process logger for the duplicate signal.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Counter) { c.logger = l }
}

func WithSightings(s Sightings) Option {
	return func(c *Counter) { c.sightings = s }
}

func WithReporter(r Reporter) Option {
	return func(c *Counter) { c.reporter = r }
}

func New(opts ...Option) *Counter {
	c := &Counter{
		counts: map[fingerprint.Fingerprint]uint64{},
		logger: st.Logger,
		now:    time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Observe counts fp as seen now and returns the post increment count.
func (c *Counter) Observe(fp fingerprint.Fingerprint) uint64 {
	return c.ObserveAt(fp, 0)
}

// ObserveAt counts fp as seen at ts (unix seconds, <= 0 means now) and returns the
// post increment count. Only the lookup and increment happen under the counter lock;
// with a sightings index, calls for fingerprints sharing a stripe are also serialised
// until the sighting is recorded, so the first observation is always the first sighting.
func (c *Counter) ObserveAt(fp fingerprint.Fingerprint, ts float64) uint64 {
	var stripe *sync.Mutex
	if c.sightings != nil {
		stripe = &c.stripes[int(fp[0])%sightStripes]
		stripe.Lock()
	}
	c.mu.Lock()
	n := c.counts[fp] + 1
	c.counts[fp] = n
	c.observations++
	if n == 2 {
		c.duplicated++
	}
	distinct := len(c.counts)
	c.mu.Unlock()

	prom.CounterObservations.Inc()
	prom.CounterDistinct.Set(float64(distinct))

	if ts <= 0 {
		ts = models.Seconds(c.now())
	}
	var first float64
	if c.sightings != nil {
		prom.SightingLookups.Inc()
		var known bool
		first, known = c.sightings.Sight(fp, ts)
		if !known && n >= 2 {
			// aged out, this observation is now the earliest known
			prom.SightingMisses.Inc()
			first = 0
		}
		stripe.Unlock()
	}
	if n < 2 {
		return n
	}

	prom.CounterDuplicates.Inc()
	c.logger.Info().Str("fingerprint", fp.String()).Uint64("count", n).Msg("fingerprint seen more than once")
	if c.reporter != nil {
		c.reporter.Report(models.Duplicate{Fingerprint: fp, Count: n, Timestamp: ts, FirstSeen: first})
	}
	return n
}

// Count returns the current count for fp, 0 if it was never observed.
func (c *Counter) Count(fp fingerprint.Fingerprint) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[fp]
}

// Len is the number of distinct fingerprints observed.
func (c *Counter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.counts)
}

func (c *Counter) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Summary{Distinct: len(c.counts), Observations: c.observations, Duplicated: c.duplicated}
}
