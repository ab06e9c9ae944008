/*
Package sightings remembers when each fingerprint was first observed.

The index is bounded in memory and time, so it can forget. It only annotates
duplicate reports with the delay between copies; counting never depends on it.
*/
package sightings

import (
	"context"
	"encoding/binary"
	"math"
	"math/bits"
	"sync"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/metrics"
	"github.com/eko/gocache/lib/v4/store"
	bigcache_store "github.com/eko/gocache/store/bigcache/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	SizeBytes uint64
	TTL       time.Duration
	Shards    int
	// where cache metrics are registered, a private registry if nil
	Registerer prometheus.Registerer
}

func ConfigFromSettings() Config {
	return Config{
		SizeBytes: uint64(st.Sightings.SizeBytes),
		TTL:       st.Sightings.TTL,
		Shards:    st.Sightings.Shards,
	}
}

// xxHasher spreads fingerprint keys across bigcache shards
type xxHasher struct{}

func (xxHasher) Sum64(key string) uint64 {
	return xxhash.Sum64String(key)
}

type Index struct {
	client  *bigcache.BigCache
	manager cache.CacheInterface[[]byte]
	ttl     time.Duration
	// bigcache has no set-if-absent, Sight holds the key's lock across get and set
	locks [64]sync.Mutex
}

func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	c := bigcache.DefaultConfig(cfg.TTL)
	c.HardMaxCacheSize = int(cfg.SizeBytes / 1048576) // in MB
	if c.HardMaxCacheSize < 1 {
		c.HardMaxCacheSize = 1
	}
	c.Verbose = false
	c.Shards = shards(cfg.Shards)
	// hex fingerprint keys and 8 byte values
	c.MaxEntrySize = 64
	c.Hasher = xxHasher{}
	client, err := bigcache.New(ctx, c)
	if err != nil {
		return nil, err
	}

	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	promMetrics := metrics.NewPrometheus("dupwatch_sightings", metrics.WithRegisterer(reg))
	manager := cache.NewMetric(promMetrics, cache.New[[]byte](bigcache_store.NewBigcache(client)))
	return &Index{client: client, manager: manager, ttl: cfg.TTL}, nil
}

// bigcache requires a power of two
func shards(n int) int {
	if n < 1 {
		return 64
	}
	return 1 << bits.Len(uint(n-1))
}

// Sight stores ts as the first sighting of fp unless one is already known.
// Returns the first sighting and whether it was already known.
func (i *Index) Sight(fp fingerprint.Fingerprint, ts float64) (float64, bool) {
	l := &i.locks[int(fp[0])%len(i.locks)]
	l.Lock()
	defer l.Unlock()
	ctx := context.Background()
	key := fp.String()
	val, err := i.manager.Get(ctx, key)
	if err == nil && len(val) == 8 {
		return math.Float64frombits(binary.BigEndian.Uint64(val)), true
	}
	raw := make([]byte, 8)
	binary.BigEndian.PutUint64(raw, math.Float64bits(ts))
	if err := i.manager.Set(ctx, key, raw, store.WithExpiration(i.ttl)); err != nil {
		st.Logger.Debug().Err(err).Str("fingerprint", key).Msg("could not store first sighting")
	}
	return ts, false
}

// FirstSeen returns the first sighting of fp if it is still remembered.
func (i *Index) FirstSeen(fp fingerprint.Fingerprint) (float64, bool) {
	val, err := i.manager.Get(context.Background(), fp.String())
	if err != nil || len(val) != 8 {
		return 0, false
	}
	return math.Float64frombits(binary.BigEndian.Uint64(val)), true
}

// Len is the number of remembered sightings.
func (i *Index) Len() int {
	return i.client.Len()
}

func (i *Index) Close() error {
	return i.client.Close()
}
