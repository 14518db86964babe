package gige

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"net"
	"net/netip"
)

// VerifySettings checks a persistent IP configuration against the host's
// networks: ip must be a host address on a network one of the local
// interfaces is attached to, and netmask must match that interface.
func VerifySettings(ip, netmask, gateway string) error {
	networks, err := hostNetworks()
	if err != nil {
		return err
	}
	return verifySettings(ip, netmask, gateway, networks)
}

func verifySettings(ip, netmask, gateway string, networks []netip.Prefix) error {
	var addrs [3]netip.Addr
	for i, v := range []struct{ name, value string }{
		{"ip", ip}, {"netmask", netmask}, {"gateway", gateway},
	} {
		a, err := netip.ParseAddr(v.value)
		if err != nil || !a.Is4() {
			return fmt.Errorf("%w: invalid %s address %q", ErrInvalidSettings, v.name, v.value)
		}
		addrs[i] = a
	}
	addr, mask := addrs[0], addrs[1]

	m := ipv4Uint(mask)
	if inv := ^m; inv&(inv+1) != 0 || m == 0 {
		return fmt.Errorf("%w: netmask %s is not contiguous", ErrInvalidSettings, mask)
	}
	ones := bits.OnesCount32(m)

	var network netip.Prefix
	for _, p := range networks {
		if p.Contains(addr) {
			network = p
			break
		}
	}
	if !network.IsValid() {
		return fmt.Errorf("%w: no compatible interface for address %s", ErrInvalidSettings, addr)
	}
	if network.Bits() != ones {
		return fmt.Errorf("%w: netmask %s does not align with %s", ErrInvalidSettings, mask, network)
	}

	host := ipv4Uint(addr) &^ m
	switch host {
	case 0:
		return fmt.Errorf("%w: %s is the network address", ErrInvalidSettings, addr)
	case ^m:
		return fmt.Errorf("%w: broadcast addresses are not allowed", ErrInvalidSettings)
	}
	return nil
}

func ipv4Uint(a netip.Addr) uint32 {
	b := a.As4()
	return binary.BigEndian.Uint32(b[:])
}

// hostNetworks lists the IPv4 networks of the local interfaces.
func hostNetworks() ([]netip.Prefix, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("listing interface addresses: %w", err)
	}

	var networks []netip.Prefix
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipnet.IP.To4()
		if ip4 == nil {
			continue
		}
		ones, _ := ipnet.Mask.Size()
		addr, _ := netip.AddrFromSlice(ip4)
		networks = append(networks, netip.PrefixFrom(addr, ones).Masked())
	}
	return networks, nil
}
