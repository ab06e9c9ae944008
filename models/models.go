// Package models holds the records that move between capture, counting and relay.
package models

import (
	"net"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/google/gopacket/layers"
)

// Record is a single observed frame, reduced to what duplicate detection needs.
// Records are never mutated after creation and are consumed exactly once.
type Record struct {
	// seconds since the unix epoch when the frame was observed
	Timestamp   float64
	Fingerprint fingerprint.Fingerprint
	// full frame bytes, only retained when the relay ships payloads instead of fingerprints
	Payload []byte
}

// NewRecord fingerprints data observed at when.
// The payload is kept (copied) only when keepPayload is set.
func NewRecord(data []byte, when time.Time, keepPayload bool) Record {
	rec := Record{
		Timestamp:   Seconds(when),
		Fingerprint: fingerprint.Compute(data),
	}
	if keepPayload {
		rec.Payload = append([]byte{}, data...)
	}
	return rec
}

// FrameMeta is the link layer detail used for periodic statistics.
type FrameMeta struct {
	Source      net.HardwareAddr
	Destination net.HardwareAddr
	EtherType   layers.EthernetType
}

// Frame pairs a record with the metadata of the frame it came from.
type Frame struct {
	Record Record
	Meta   FrameMeta
}

// Pulse is emitted once per interval to trigger a stats report.
type Pulse struct {
	Sequence uint64
}

// Duplicate describes a fingerprint that has been observed more than once.
type Duplicate struct {
	Fingerprint fingerprint.Fingerprint
	// post increment count from the counter, always >= 2
	Count uint64
	// when this observation happened
	Timestamp float64
	// when the fingerprint was first observed, zero if no longer known
	FirstSeen float64
}

// SinceFirstSeen is the number of seconds between the first and this observation.
func (d Duplicate) SinceFirstSeen() float64 {
	if d.FirstSeen <= 0 || d.Timestamp < d.FirstSeen {
		return 0
	}
	return d.Timestamp - d.FirstSeen
}

// Seconds converts a time to floating point unix seconds.
func Seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
