package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// TraceWriter archives admitted frames to a pcap file.
type TraceWriter struct {
	mu     sync.Mutex
	w      *pcapgo.Writer
	buf    *bufio.Writer
	closer io.Closer
}

// CreateTrace truncates path and writes a pcap file header.
func CreateTrace(path string, snaplen int, linkType layers.LinkType) (*TraceWriter, error) {
	fh, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create trace %s: %w", path, err)
	}
	t, err := NewTraceWriter(fh, snaplen, linkType)
	if err != nil {
		fh.Close()
		return nil, err
	}
	t.closer = fh
	return t, nil
}

func NewTraceWriter(w io.Writer, snaplen int, linkType layers.LinkType) (*TraceWriter, error) {
	buf := bufio.NewWriter(w)
	pw := pcapgo.NewWriter(buf)
	if err := pw.WriteFileHeader(uint32(snaplen), linkType); err != nil {
		return nil, fmt.Errorf("could not write trace header: %w", err)
	}
	return &TraceWriter{w: pw, buf: buf}, nil
}

// Write appends one frame. Missing capture info is filled from the data.
func (t *TraceWriter) Write(ci gopacket.CaptureInfo, data []byte) error {
	if ci.Timestamp.IsZero() {
		ci.Timestamp = time.Now()
	}
	ci.CaptureLength = len(data)
	if ci.Length < len(data) {
		ci.Length = len(data)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.w.WritePacket(ci, data)
}

func (t *TraceWriter) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.Flush()
}

func (t *TraceWriter) Close() error {
	err := t.Flush()
	if t.closer != nil {
		if cerr := t.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
