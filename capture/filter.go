package capture

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/AustralianCyberSecurityCentre/azul-dupwatch.git/settings"
	"github.com/google/gopacket/layers"
)

// Filter decides whether a frame is fingerprinted.
type Filter interface {
	Admit(f *Frame) bool
}

// FilterFunc adapts a function to a Filter.
type FilterFunc func(f *Frame) bool

func (fn FilterFunc) Admit(f *Frame) bool { return fn(f) }

// AdmitAll admits every frame.
var AdmitAll Filter = FilterFunc(func(*Frame) bool { return true })

// AddressFilter admits frames of the configured ethertypes whose IPv4 source and
// destination are outside every excluded range.
type AddressFilter struct {
	etherTypes map[layers.EthernetType]bool
	exclude    []netip.Prefix
}

// NewAddressFilter builds a filter from rules. local addresses are excluded when the
// rules ask for it, so the relay's own traffic is never fingerprinted.
func NewAddressFilter(rules settings.FilterRules, local []net.IP) (*AddressFilter, error) {
	f := &AddressFilter{etherTypes: map[layers.EthernetType]bool{}}
	for _, raw := range rules.EtherTypes {
		et, err := ParseEtherType(raw)
		if err != nil {
			return nil, err
		}
		f.etherTypes[et] = true
	}
	for _, raw := range rules.Exclude {
		p, err := parsePrefix(raw)
		if err != nil {
			return nil, err
		}
		f.exclude = append(f.exclude, p)
	}
	if rules.ExcludeLocal != nil && *rules.ExcludeLocal {
		for _, ip := range local {
			addr, ok := netip.AddrFromSlice(ip)
			if !ok {
				continue
			}
			addr = addr.Unmap()
			f.exclude = append(f.exclude, netip.PrefixFrom(addr, addr.BitLen()))
		}
	}
	return f, nil
}

// ParseEtherType accepts 0x0800 style hex or decimal.
func ParseEtherType(s string) (layers.EthernetType, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid ethertype %q: %w", s, err)
	}
	return layers.EthernetType(v), nil
}

func parsePrefix(s string) (netip.Prefix, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "/") {
		p, err := netip.ParsePrefix(s)
		if err != nil {
			return netip.Prefix{}, fmt.Errorf("invalid excluded range %q: %w", s, err)
		}
		return p.Masked(), nil
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("invalid excluded address %q: %w", s, err)
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

func (a *AddressFilter) excluded(ip net.IP) bool {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return false
	}
	addr = addr.Unmap()
	for _, p := range a.exclude {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func (a *AddressFilter) Admit(f *Frame) bool {
	if len(a.etherTypes) > 0 && !a.etherTypes[f.Meta.EtherType] {
		return false
	}
	if f.SrcIP != nil && a.excluded(f.SrcIP) {
		return false
	}
	if f.DstIP != nil && a.excluded(f.DstIP) {
		return false
	}
	return true
}
