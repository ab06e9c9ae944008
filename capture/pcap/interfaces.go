package pcap

import (
	"fmt"
	"net"

	libpcap "github.com/google/gopacket/pcap"
)

// Interface is a capture device visible to libpcap.
type Interface struct {
	Name        string
	Description string
	Addresses   []net.IP
}

type InterfaceNotFoundError struct {
	Name string
}

func (e *InterfaceNotFoundError) Error() string {
	return fmt.Sprintf("interface %s not found", e.Name)
}

// replaced in tests
var findAllDevs = libpcap.FindAllDevs

// ListInterfaces returns every device libpcap can capture on.
func ListInterfaces() ([]Interface, error) {
	devices, err := findAllDevs()
	if err != nil {
		return nil, fmt.Errorf("could not list interfaces: %w", err)
	}
	ifaces := make([]Interface, 0, len(devices))
	for _, d := range devices {
		iface := Interface{Name: d.Name, Description: d.Description}
		for _, a := range d.Addresses {
			if a.IP != nil {
				iface.Addresses = append(iface.Addresses, a.IP)
			}
		}
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

// FindInterface looks up a device by name.
func FindInterface(name string) (Interface, error) {
	ifaces, err := ListInterfaces()
	if err != nil {
		return Interface{}, err
	}
	for _, iface := range ifaces {
		if iface.Name == name {
			return iface, nil
		}
	}
	return Interface{}, &InterfaceNotFoundError{Name: name}
}
