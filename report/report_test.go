package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/fingerprint"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/kvprovider"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var dup = models.Duplicate{
	Fingerprint: fingerprint.Compute([]byte("abcdefghijklmnopqrstuvwxyz")),
	Count:       2,
	Timestamp:   12.5,
	FirstSeen:   10,
}

type failingSink struct {
	mu     sync.Mutex
	calls  int
	closed bool
}

func (f *failingSink) Name() string { return "failing" }
func (f *failingSink) Deliver(ctx context.Context, d models.Duplicate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("unavailable")
}
func (f *failingSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestMarshal(t *testing.T) {
	raw, err := Marshal(dup)
	require.Nil(t, err)
	require.JSONEq(t, `{"fingerprint":"c3fcd3d76192e4007dfb496cca67e13b","count":2,"timestamp":12.5,"first_seen":10,"since_first_seen":2.5}`, string(raw))

	raw, err = Marshal(models.Duplicate{Fingerprint: dup.Fingerprint, Count: 3, Timestamp: 1})
	require.Nil(t, err)
	require.JSONEq(t, `{"fingerprint":"c3fcd3d76192e4007dfb496cca67e13b","count":3,"timestamp":1}`, string(raw))
}

func TestFileSink(t *testing.T) {
	ch := make(chan []byte, 1)
	s := NewFileSink(ch)
	require.Nil(t, s.Deliver(context.Background(), dup))
	line := <-ch
	require.Contains(t, string(line), `"fingerprint":"c3fcd3d76192e4007dfb496cca67e13b"`)

	require.ErrorIs(t, NewFileSink(nil).Deliver(context.Background(), dup), ErrFileLogBusy)
}

func TestKVSink(t *testing.T) {
	kv := kvprovider.NewMemoryProvider()
	s := NewKVSink(kv, 0)
	require.Nil(t, s.Deliver(context.Background(), dup))
	later := dup
	later.Count = 5
	require.Nil(t, s.Deliver(context.Background(), later))

	raw, err := kv.GetBytes(context.Background(), "dup.c3fcd3d76192e4007dfb496cca67e13b")
	require.Nil(t, err)
	require.Contains(t, string(raw), `"count":5`)
	require.Equal(t, float64(1), testutil.ToFloat64(prom.ReportKVKeys))
	require.Nil(t, s.Close())
}

func TestKVSinkPrepare(t *testing.T) {
	ctx := context.Background()
	kv := kvprovider.NewMemoryProvider()
	require.Nil(t, kv.Set(ctx, "dup.aa", "{}", 0))
	require.Nil(t, kv.Set(ctx, "dup.bb", "{}", 0))
	require.Nil(t, kv.Set(ctx, "unrelated", "x", 0))
	s := NewKVSink(kv, 0)

	kept, err := s.Prepare(ctx, false)
	require.Nil(t, err)
	require.Equal(t, 2, kept)
	require.Equal(t, float64(3), testutil.ToFloat64(prom.ReportKVKeys))

	kept, err = s.Prepare(ctx, true)
	require.Nil(t, err)
	require.Equal(t, 0, kept)
	require.Equal(t, float64(1), testutil.ToFloat64(prom.ReportKVKeys))
	raw, err := kv.GetBytes(ctx, "dup.aa")
	require.Nil(t, err)
	require.Nil(t, raw)
	raw, err = kv.GetBytes(ctx, "unrelated")
	require.Nil(t, err)
	require.Equal(t, []byte("x"), raw)
}

func TestKafkaSink(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if len(val) == 0 {
			return errors.New("empty report")
		}
		return nil
	})
	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	s := NewKafkaSink(producer, "dupwatch.duplicates")
	before := testutil.ToFloat64(prom.KafkaTransmitMessageBytes.WithLabelValues("dupwatch.duplicates"))
	require.Nil(t, s.Deliver(context.Background(), dup))
	require.Greater(t, testutil.ToFloat64(prom.KafkaTransmitMessageBytes.WithLabelValues("dupwatch.duplicates")), before)
	require.NotNil(t, s.Deliver(context.Background(), dup))
	require.Nil(t, s.Close())
}

func TestDispatcher(t *testing.T) {
	ch := make(chan []byte, 10)
	failing := &failingSink{}
	d := NewDispatcher(10, NewFileSink(ch), failing).WithLogger(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- d.Run(ctx) }()

	d.Report(dup)
	d.Report(dup)
	require.Eventually(t, func() bool { return len(ch) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.Nil(t, <-done)

	failing.mu.Lock()
	defer failing.mu.Unlock()
	require.Equal(t, 2, failing.calls)
	require.True(t, failing.closed)
	require.Equal(t, float64(2), testutil.ToFloat64(prom.ReportErrors.WithLabelValues("failing")))
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	d := NewDispatcher(1).WithLogger(zerolog.Nop())
	d.Report(dup)
	d.Report(dup)
	require.Equal(t, 1, d.Queue().Len())
	require.Equal(t, uint64(1), d.Queue().Dropped())
}
