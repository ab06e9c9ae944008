// Package testdata builds link layer frames for tests.
package testdata

import (
	"log"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	MacA = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x0a}
	MacB = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x0b}
)

func serialize(ls ...gopacket.SerializableLayer) []byte {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		log.Fatalf("could not build test frame: %v", err)
	}
	return append([]byte{}, buf.Bytes()...)
}

// IPv4Frame is an Ethernet/IPv4/UDP frame from src to dst carrying payload.
func IPv4Frame(srcMac, dstMac net.HardwareAddr, src, dst string, payload []byte) []byte {
	eth := &layers.Ethernet{SrcMAC: srcMac, DstMAC: dstMac, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.ParseIP(src).To4(),
		DstIP:    net.ParseIP(dst).To4(),
	}
	udp := &layers.UDP{SrcPort: 40000, DstPort: 9999}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		log.Fatalf("could not build test frame: %v", err)
	}
	return serialize(eth, ip, udp, gopacket.Payload(payload))
}

// ARPFrame is a broadcast ARP request, which is not IPv4.
func ARPFrame(srcMac net.HardwareAddr, src, target string) []byte {
	eth := &layers.Ethernet{
		SrcMAC:       srcMac,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMac,
		SourceProtAddress: net.ParseIP(src).To4(),
		DstHwAddress:      make([]byte, 6),
		DstProtAddress:    net.ParseIP(target).To4(),
	}
	return serialize(eth, arp)
}
