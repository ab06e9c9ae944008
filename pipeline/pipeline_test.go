package pipeline

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/capture"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/counter"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/testdata"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordingForwarder struct {
	mu   sync.Mutex
	recs []models.Record
}

func (r *recordingForwarder) Forward(rec models.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
}

func (r *recordingForwarder) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recs)
}

type recordingArchive struct {
	mu     sync.Mutex
	frames [][]byte
}

func (r *recordingArchive) Write(ci gopacket.CaptureInfo, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, data)
	return nil
}

func ipv4Only(t *testing.T) capture.Filter {
	f, err := capture.NewAddressFilter(settings.FilterRules{EtherTypes: []string{"0x0800"}}, nil)
	require.Nil(t, err)
	return f
}

func TestPipelineCountsLocally(t *testing.T) {
	dup := testdata.IPv4Frame(testdata.MacA, testdata.MacB, "10.1.1.1", "10.1.1.2", []byte("dup"))
	other := testdata.IPv4Frame(testdata.MacB, testdata.MacA, "10.1.1.2", "10.1.1.1", []byte("other"))
	arp := testdata.ARPFrame(testdata.MacA, "10.1.1.1", "10.1.1.2")
	src := capture.NewMemorySource(dup, arp, other, dup)

	var logs bytes.Buffer
	c := counter.New(counter.WithLogger(zerolog.New(&logs)))
	archive := &recordingArchive{}
	p := New(Config{QueueSize: 50, PulseInterval: time.Hour}, src, CountLocally(c),
		WithFilter(ipv4Only(t)), WithArchive(archive), WithLogger(zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()

	fp := fingerprint.Compute(dup)
	require.Eventually(t, func() bool { return c.Count(fp) == 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.Nil(t, <-done)

	require.Equal(t, 2, c.Len())
	require.Equal(t, uint64(1), c.Count(fingerprint.Compute(other)))
	require.Equal(t, 1, strings.Count(logs.String(), fp.String()))
	// the arp frame is filtered before archival
	require.Len(t, archive.frames, 3)
}

func TestFrameProducerDropsWhenSaturated(t *testing.T) {
	frames := make([][]byte, 0, 60)
	for i := 0; i < 60; i++ {
		frames = append(frames, testdata.IPv4Frame(testdata.MacA, testdata.MacB, "10.1.1.1", "10.1.1.2", []byte{byte(i)}))
	}
	p := New(Config{QueueSize: 50}, capture.NewMemorySource(frames...), &recordingForwarder{}, WithLogger(zerolog.Nop()))

	// no consumer is running, the producer must still reach the end of the source
	done := make(chan error)
	go func() { done <- p.produceFrames(context.Background()) }()
	select {
	case err := <-done:
		require.Nil(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("frame producer blocked on a saturated queue")
	}
	require.Equal(t, 50, p.Queue().Len())
	require.Equal(t, uint64(10), p.Queue().Dropped())

	// the oldest frames survive
	ev, ok := p.Queue().Pop(context.Background())
	require.True(t, ok)
	require.Equal(t, fingerprint.Compute(frames[0]), ev.Frame.Record.Fingerprint)
}

func TestPulsesAndStats(t *testing.T) {
	var logs bytes.Buffer
	fwd := &recordingForwarder{}
	src := capture.NewMemorySource(
		testdata.IPv4Frame(testdata.MacA, testdata.MacB, "10.1.1.1", "10.1.1.2", []byte("one")),
		testdata.IPv4Frame(testdata.MacA, testdata.MacB, "10.1.1.1", "10.1.1.2", []byte("two")),
	)
	p := New(Config{QueueSize: 50, PulseInterval: 10 * time.Millisecond}, src, fwd, WithLogger(zerolog.New(&logs)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()
	require.Eventually(t, func() bool { return p.Stats().Last().Pulse >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.Nil(t, <-done)

	require.Equal(t, 2, fwd.len())
	require.Contains(t, logs.String(), `"message":"pulse"`)
	require.Contains(t, logs.String(), `"IPv4/0800":2`)
	require.Contains(t, logs.String(), testdata.MacA.String())
	// later intervals saw no traffic
	require.Equal(t, uint64(0), p.Stats().Last().Frames)
}

func TestStatsRotate(t *testing.T) {
	s := NewStats()
	meta := models.FrameMeta{Source: testdata.MacA, Destination: testdata.MacB, EtherType: layers.EthernetTypeIPv4}
	s.Add(meta)
	s.Add(meta)
	s.Add(models.FrameMeta{Source: testdata.MacB, Destination: testdata.MacA, EtherType: layers.EthernetTypeARP})

	snap := s.Rotate(models.Pulse{Sequence: 7})
	require.Equal(t, uint64(7), snap.Pulse)
	require.Equal(t, uint64(3), snap.Frames)
	require.Equal(t, uint64(2), snap.Sources[testdata.MacA.String()])
	require.Equal(t, uint64(1), snap.Destinations[testdata.MacA.String()])
	require.Equal(t, uint64(1), snap.EtherTypes["ARP/0806"])
	require.Equal(t, snap, s.Last())

	require.Equal(t, uint64(0), s.Rotate(models.Pulse{Sequence: 8}).Frames)
}

func TestEventKindString(t *testing.T) {
	require.Equal(t, "frame", EventFrame.String())
	require.Equal(t, "pulse", EventPulse.String())
}
