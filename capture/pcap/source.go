/*
Package pcap opens libpcap capture sources and enumerates capture devices.
It is the only package that needs cgo and the libpcap headers.
*/
package pcap

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/capture"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	libpcap "github.com/google/gopacket/pcap"
)

var _ capture.Source = (*Source)(nil)

type Options struct {
	Snaplen     int
	Promiscuous bool
	// live reads return capture.ErrNoFrame after this long without traffic
	ReadTimeout time.Duration
	BPF         string
}

// Source reads frames through libpcap.
type Source struct {
	handle *libpcap.Handle
	name   string
	once   sync.Once
}

// OpenLive starts capturing on the named interface.
func OpenLive(iface string, opts Options) (*Source, error) {
	timeout := opts.ReadTimeout
	if timeout <= 0 {
		timeout = libpcap.BlockForever
	}
	handle, err := libpcap.OpenLive(iface, int32(opts.Snaplen), opts.Promiscuous, timeout)
	if err != nil {
		return nil, fmt.Errorf("could not open interface %s: %w", iface, err)
	}
	return newSource(handle, iface, opts.BPF)
}

// OpenOffline replays frames from a pcap file.
func OpenOffline(path string, opts Options) (*Source, error) {
	handle, err := libpcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("could not open trace %s: %w", path, err)
	}
	return newSource(handle, path, opts.BPF)
}

func newSource(handle *libpcap.Handle, name string, bpf string) (*Source, error) {
	if bpf != "" {
		if err := handle.SetBPFFilter(bpf); err != nil {
			handle.Close()
			return nil, fmt.Errorf("invalid bpf filter %q: %w", bpf, err)
		}
	}
	return &Source{handle: handle, name: name}, nil
}

func (s *Source) ReadFrame() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := s.handle.ReadPacketData()
	switch {
	case err == nil:
		return data, ci, nil
	case err == libpcap.NextErrorTimeoutExpired:
		return nil, ci, capture.ErrNoFrame
	case err == libpcap.NextErrorNoMorePackets || errors.Is(err, io.EOF):
		return nil, ci, io.EOF
	}
	return nil, ci, fmt.Errorf("read from %s: %w", s.name, err)
}

func (s *Source) LinkType() layers.LinkType {
	return s.handle.LinkType()
}

func (s *Source) Close() error {
	s.once.Do(s.handle.Close)
	return nil
}
