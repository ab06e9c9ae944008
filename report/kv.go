package report

import (
	"context"
	"fmt"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/kvprovider"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/prom"
)

const KVPrefix = "dup."

// KVSink mirrors the latest report for each fingerprint to a key-value store.
type KVSink struct {
	kv         kvprovider.KVInterface
	expiration time.Duration
	closer     func() error
}

func NewKVSink(kv kvprovider.KVInterface, expiration time.Duration) *KVSink {
	s := &KVSink{kv: kv, expiration: expiration}
	if c, ok := kv.(interface{ Close() error }); ok {
		s.closer = c.Close
	}
	return s
}

func (s *KVSink) Name() string { return "kv" }

// Prepare walks the report keys left by an earlier run, deleting them when reset is set,
// and publishes how many remain.
func (s *KVSink) Prepare(ctx context.Context, reset bool) (int, error) {
	var cursor uint64
	kept := 0
	for {
		keys, next, err := s.kv.Scan(ctx, cursor, KVPrefix+"*", 500)
		if err != nil {
			return kept, fmt.Errorf("could not scan report keys: %w", err)
		}
		if reset && len(keys) > 0 {
			if _, err := s.kv.Del(ctx, keys...); err != nil {
				return kept, fmt.Errorf("could not delete report keys: %w", err)
			}
		} else {
			kept += len(keys)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	prom.ReportKVKeys.Set(float64(s.kv.GetDBSize(ctx)))
	return kept, nil
}

func (s *KVSink) Deliver(ctx context.Context, d models.Duplicate) error {
	raw, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, KVPrefix+d.Fingerprint.String(), raw, s.expiration); err != nil {
		return err
	}
	prom.ReportKVKeys.Set(float64(s.kv.GetDBSize(ctx)))
	return nil
}

func (s *KVSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
