package pcap

import (
	"io"
	"net"
	"path/filepath"
	"testing"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/capture"
	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/testdata"
	"github.com/google/gopacket/layers"
	libpcap "github.com/google/gopacket/pcap"
	"github.com/stretchr/testify/require"
)

func TestFindInterface(t *testing.T) {
	orig := findAllDevs
	defer func() { findAllDevs = orig }()
	findAllDevs = func() ([]libpcap.Interface, error) {
		return []libpcap.Interface{
			{Name: "eth0", Addresses: []libpcap.InterfaceAddress{{IP: net.ParseIP("172.21.0.24")}}},
			{Name: "lo"},
		}, nil
	}

	iface, err := FindInterface("eth0")
	require.Nil(t, err)
	require.Equal(t, "172.21.0.24", iface.Addresses[0].String())

	_, err = FindInterface("wlan9")
	var notFound *InterfaceNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Equal(t, "wlan9", notFound.Name)
}

func TestOpenOfflineReplaysTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.pcap")
	frames := [][]byte{
		testdata.IPv4Frame(testdata.MacA, testdata.MacB, "10.1.1.1", "10.1.1.2", []byte("one")),
		testdata.ARPFrame(testdata.MacB, "10.1.1.2", "10.1.1.1"),
	}
	trace, err := capture.CreateTrace(path, 65535, layers.LinkTypeEthernet)
	require.Nil(t, err)
	src := capture.NewMemorySource(frames...)
	for range frames {
		data, ci, err := src.ReadFrame()
		require.Nil(t, err)
		require.Nil(t, trace.Write(ci, data))
	}
	require.Nil(t, trace.Close())

	replay, err := OpenOffline(path, Options{})
	require.Nil(t, err)
	defer replay.Close()
	require.Equal(t, layers.LinkTypeEthernet, replay.LinkType())
	for _, want := range frames {
		data, _, err := replay.ReadFrame()
		require.Nil(t, err)
		require.Equal(t, want, data)
	}
	_, _, err = replay.ReadFrame()
	require.ErrorIs(t, err, io.EOF)
}

func TestOpenOfflineMissingFile(t *testing.T) {
	_, err := OpenOffline(filepath.Join(t.TempDir(), "absent.pcap"), Options{})
	require.NotNil(t, err)
}
