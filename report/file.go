package report

import (
	"context"
	"errors"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	st "github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
)

var ErrFileLogBusy = errors.New("file log unavailable or backed up")

// FileSink writes one json line per duplicate to a rotating file log.
type FileSink struct {
	ch chan []byte
}

func NewFileSink(ch chan []byte) *FileSink {
	return &FileSink{ch: ch}
}

func (f *FileSink) Name() string { return "file" }

func (f *FileSink) Deliver(ctx context.Context, d models.Duplicate) error {
	raw, err := Marshal(d)
	if err != nil {
		return err
	}
	if !st.WriteFileLog(f.ch, raw) {
		return ErrFileLogBusy
	}
	return nil
}

func (f *FileSink) Close() error { return nil }
