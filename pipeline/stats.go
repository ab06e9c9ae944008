package pipeline

import (
	"fmt"
	"sync"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
)

// StatsSnapshot holds frame counts accumulated between two pulses.
type StatsSnapshot struct {
	Pulse        uint64            `json:"pulse"`
	Frames       uint64            `json:"frames"`
	Sources      map[string]uint64 `json:"sources"`
	Destinations map[string]uint64 `json:"destinations"`
	EtherTypes   map[string]uint64 `json:"ethertypes"`
}

// Stats aggregates frame metadata. Only the consumer writes to it; reads of the
// last snapshot may come from other goroutines.
type Stats struct {
	current StatsSnapshot

	mu   sync.Mutex
	last StatsSnapshot
}

func newSnapshot() StatsSnapshot {
	return StatsSnapshot{
		Sources:      map[string]uint64{},
		Destinations: map[string]uint64{},
		EtherTypes:   map[string]uint64{},
	}
}

func NewStats() *Stats {
	return &Stats{current: newSnapshot(), last: newSnapshot()}
}

// EtherTypeLabel renders an ethertype as Name/hex, e.g IPv4/0800.
func EtherTypeLabel(meta models.FrameMeta) string {
	return fmt.Sprintf("%s/%04x", meta.EtherType, uint16(meta.EtherType))
}

func (s *Stats) Add(meta models.FrameMeta) {
	s.current.Frames++
	s.current.Sources[meta.Source.String()]++
	s.current.Destinations[meta.Destination.String()]++
	s.current.EtherTypes[EtherTypeLabel(meta)]++
}

// Rotate closes the current interval and starts a new one.
func (s *Stats) Rotate(p models.Pulse) StatsSnapshot {
	snap := s.current
	snap.Pulse = p.Sequence
	s.current = newSnapshot()
	s.mu.Lock()
	s.last = snap
	s.mu.Unlock()
	return snap
}

// Last is the most recently completed interval.
func (s *Stats) Last() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
