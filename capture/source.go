/*
Package capture decodes the link layer headers needed for admission and statistics,
filters frames and archives admitted ones. It has no libpcap dependency; live and
offline sources are in capture/pcap.
*/
package capture

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ErrNoFrame is returned by a live source when its read timeout expires without a frame.
var ErrNoFrame = errors.New("no frame available")

// Source delivers raw frames. io.EOF means the source is exhausted.
type Source interface {
	// ReadFrame returns the next frame. The data is owned by the caller.
	ReadFrame() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
	Close() error
}

// MemorySource replays a fixed list of frames, for tests and dry runs.
type MemorySource struct {
	mu     sync.Mutex
	frames [][]byte
	next   int
	start  time.Time
}

func NewMemorySource(frames ...[]byte) *MemorySource {
	return &MemorySource{frames: frames, start: time.Now()}
}

func (m *MemorySource) ReadFrame() ([]byte, gopacket.CaptureInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next >= len(m.frames) {
		return nil, gopacket.CaptureInfo{}, io.EOF
	}
	data := append([]byte{}, m.frames[m.next]...)
	ci := gopacket.CaptureInfo{
		Timestamp:     m.start.Add(time.Duration(m.next) * time.Millisecond),
		CaptureLength: len(data),
		Length:        len(data),
	}
	m.next++
	return data, ci, nil
}

func (m *MemorySource) LinkType() layers.LinkType {
	return layers.LinkTypeEthernet
}

func (m *MemorySource) Close() error { return nil }
