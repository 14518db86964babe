package gige

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"

	"github.com/TheImagingSource/tiscamera/pkg/models"
)

const (
	rescueNetmask = "255.255.255.0"
	rescueGateway = "0.0.0.0"

	// DefaultHostOctet is the last octet of the first address handed out
	// when no base address is given.
	DefaultHostOctet = 10
)

// Sequencer rescues a batch of cameras into a contiguous address range.
type Sequencer struct {
	ctrl *Controller
	log  *slog.Logger
}

func NewSequencer(ctrl *Controller, log *slog.Logger) *Sequencer {
	if log == nil {
		log = slog.Default()
	}
	return &Sequencer{ctrl: ctrl, log: log.With("component", "sequencer")}
}

// AddressRange returns the addresses assigned to n cameras starting at base.
func AddressRange(base netip.Addr, n int) ([]netip.Addr, error) {
	if !base.Is4() {
		return nil, fmt.Errorf("base address %s is not IPv4", base)
	}
	octets := base.As4()
	if int(octets[3])+n-1 > 255 {
		return nil, fmt.Errorf("%d cameras do not fit into %s .. x.x.x.255", n, base)
	}

	addrs := make([]netip.Addr, n)
	for i := range addrs {
		addrs[i] = netip.AddrFrom4(octets)
		octets[3]++
	}
	return addrs, nil
}

// AssignSequential rescues cameras in the given order with consecutive
// addresses starting at base, a /24 netmask and no gateway. Addresses are not
// checked for collisions with other hosts. A failing rescue does not stop the
// remaining cameras; all failures are returned joined.
func (s *Sequencer) AssignSequential(ctx context.Context, cameras []models.CameraRecord, base netip.Addr) error {
	addrs, err := AddressRange(base, len(cameras))
	if err != nil {
		return err
	}

	var errs []error
	for i, cam := range cameras {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		ip := addrs[i].String()
		if _, err := s.ctrl.Rescue(ctx, cam.MACAddress, ip, rescueNetmask, rescueGateway); err != nil {
			s.log.Warn("rescue failed", "serial", cam.Serial, "ip", ip, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", cam.Serial, err))
		}
	}
	return errors.Join(errs...)
}

// DefaultBaseAddress returns the IPv4 address of the host on iface with the
// last octet replaced by DefaultHostOctet.
func DefaultBaseAddress(iface string) (netip.Addr, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("looking up interface %s: %w", iface, err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("reading addresses of %s: %w", iface, err)
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ip, ok := netip.AddrFromSlice(ipnet.IP.To4()); ok && ip.Is4() {
			octets := ip.As4()
			octets[3] = DefaultHostOctet
			return netip.AddrFrom4(octets), nil
		}
	}
	return netip.Addr{}, fmt.Errorf("failed to get IPv4 address for interface %s", iface)
}
