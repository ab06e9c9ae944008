package capture

import (
	"net"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/models"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Frame is a captured frame with the headers admission and statistics look at.
type Frame struct {
	Data []byte
	Info gopacket.CaptureInfo
	Meta models.FrameMeta
	// nil unless the frame carried a decodable IPv4 header
	SrcIP net.IP
	DstIP net.IP
}

// Decoder extracts Ethernet and IPv4 headers. It is not safe for concurrent use.
type Decoder struct {
	eth     layers.Ethernet
	ip4     layers.IPv4
	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
}

func NewDecoder() *Decoder {
	d := &Decoder{}
	d.parser = gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &d.eth, &d.ip4)
	// payloads above the network layer are never inspected
	d.parser.IgnoreUnsupported = true
	return d
}

// Decode fills in whatever headers could be parsed. Frames that are not Ethernet
// are returned with empty metadata rather than an error.
func (d *Decoder) Decode(data []byte, ci gopacket.CaptureInfo) Frame {
	f := Frame{Data: data, Info: ci}
	d.decoded = d.decoded[:0]
	// truncated headers still leave the layers decoded before them
	_ = d.parser.DecodeLayers(data, &d.decoded)
	for _, lt := range d.decoded {
		switch lt {
		case layers.LayerTypeEthernet:
			f.Meta = models.FrameMeta{
				Source:      append(net.HardwareAddr{}, d.eth.SrcMAC...),
				Destination: append(net.HardwareAddr{}, d.eth.DstMAC...),
				EtherType:   d.eth.EthernetType,
			}
		case layers.LayerTypeIPv4:
			f.SrcIP = append(net.IP{}, d.ip4.SrcIP.To4()...)
			f.DstIP = append(net.IP{}, d.ip4.DstIP.To4()...)
		}
	}
	return f
}
