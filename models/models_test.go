package models

import (
	"testing"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	when := time.Unix(1700000000, 500000000)
	data := []byte("some frame bytes")

	rec := NewRecord(data, when, false)
	require.Equal(t, fingerprint.Compute(data), rec.Fingerprint)
	require.InDelta(t, 1700000000.5, rec.Timestamp, 1e-6)
	require.Nil(t, rec.Payload)

	rec = NewRecord(data, when, true)
	require.Equal(t, data, rec.Payload)
	// payload must not alias the capture buffer
	data[0] = 'X'
	require.Equal(t, byte('s'), rec.Payload[0])
}

func TestDuplicateSinceFirstSeen(t *testing.T) {
	require.Equal(t, 0.0, Duplicate{Timestamp: 10}.SinceFirstSeen())
	require.Equal(t, 0.0, Duplicate{Timestamp: 10, FirstSeen: 12}.SinceFirstSeen())
	require.InDelta(t, 2.5, Duplicate{Timestamp: 12.5, FirstSeen: 10}.SinceFirstSeen(), 1e-9)
}
