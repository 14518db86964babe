package gige

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
)

// Persistent parameter keys understood by the bridge.
const (
	KeyIP      = "ip"
	KeyNetmask = "netmask"
	KeyGateway = "gateway"
	KeyName    = "name"
	KeyDHCP    = "dhcp"
	KeyStatic  = "static"
)

// IPMode selects how a camera obtains its IP address after power up.
// Exactly one mode is enabled at a time.
type IPMode int

const (
	ModeDHCP IPMode = iota + 1
	ModeStatic
	ModeLinkLocal
)

// ParseIPMode parses "dhcp", "static" or "linklocal".
func ParseIPMode(s string) (IPMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dhcp":
		return ModeDHCP, nil
	case "static":
		return ModeStatic, nil
	case "linklocal", "link-local":
		return ModeLinkLocal, nil
	}
	return 0, fmt.Errorf("invalid ip mode %q (expected dhcp, static or linklocal)", s)
}

func (m IPMode) String() string {
	switch m {
	case ModeDHCP:
		return "dhcp"
	case ModeStatic:
		return "static"
	case ModeLinkLocal:
		return "linklocal"
	}
	return ""
}

// Params returns the persistent writes that select the mode. The camera only
// knows the dhcp and static flags; link-local is both of them cleared. The
// clearing writes come first, dhcp before static.
func (m IPMode) Params() []Param {
	switch m {
	case ModeDHCP:
		return []Param{IntParam(KeyStatic, 0), IntParam(KeyDHCP, 1)}
	case ModeStatic:
		return []Param{IntParam(KeyDHCP, 0), IntParam(KeyStatic, 1)}
	case ModeLinkLocal:
		return []Param{IntParam(KeyDHCP, 0), IntParam(KeyStatic, 0)}
	}
	return nil
}

// Controller writes persistent parameters and performs rescues.
type Controller struct {
	bridge   Bridge
	registry *Registry
	log      *slog.Logger
}

// NewController creates a Controller resolving identifiers through registry.
func NewController(bridge Bridge, registry *Registry, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		bridge:   bridge,
		registry: registry,
		log:      log.With("component", "controller"),
	}
}

// SetPersistentParameter writes p to the camera's non-volatile storage.
// The bridge status is returned as is; a non-zero status also comes back as
// a *ConfigError so callers can decide whether it is fatal.
func (c *Controller) SetPersistentParameter(ctx context.Context, identifier string, p Param) (Status, error) {
	cam, err := c.registry.Details(ctx, identifier)
	if err != nil {
		return StatusNoDevice, err
	}
	if cam.IsBusy {
		return StatusFailure, fmt.Errorf("%w: %s", ErrCameraBusy, cam.Serial)
	}
	return c.write(ctx, cam.Serial, p)
}

// SetIPMode writes mode.Params() regardless of the flags the camera reports.
// It stops at the first failing write and returns the writes that were
// issued, including the failing one.
func (c *Controller) SetIPMode(ctx context.Context, identifier string, mode IPMode) ([]Param, error) {
	writes := mode.Params()
	if writes == nil {
		return nil, fmt.Errorf("invalid ip mode %d", int(mode))
	}

	cam, err := c.registry.Details(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if cam.IsBusy {
		return nil, fmt.Errorf("%w: %s", ErrCameraBusy, cam.Serial)
	}

	for i, p := range writes {
		if _, err := c.write(ctx, cam.Serial, p); err != nil {
			return writes[:i+1], err
		}
	}
	return writes, nil
}

// Rescue temporarily assigns ip, netmask and gateway to the camera. The MAC
// address is taken from the cached registry snapshot, so Discover must have
// run before.
func (c *Controller) Rescue(ctx context.Context, identifier, ip, netmask, gateway string) (Status, error) {
	for _, addr := range []struct{ name, value string }{
		{"ip", ip}, {"netmask", netmask}, {"gateway", gateway},
	} {
		if a, err := netip.ParseAddr(addr.value); err != nil || !a.Is4() {
			return StatusInvalidParameter, fmt.Errorf("invalid %s address %q", addr.name, addr.value)
		}
	}

	cam, err := c.registry.Lookup(identifier)
	if err != nil {
		return StatusNoDevice, err
	}

	status, err := c.bridge.Rescue(ctx, cam.MACAddress, ip, netmask, gateway)
	if err != nil {
		return StatusFailure, fmt.Errorf("rescuing %s: %w", cam.MACAddress, err)
	}
	if status != StatusSuccess {
		return status, &ConfigError{Identifier: identifier, Key: "rescue", Status: status}
	}

	c.log.Info("rescue issued", "mac", cam.MACAddress, "ip", ip, "netmask", netmask, "gateway", gateway)
	return status, nil
}

func (c *Controller) write(ctx context.Context, serial string, p Param) (Status, error) {
	status, err := c.bridge.SetPersistentParameter(ctx, serial, p)
	if err != nil {
		return StatusFailure, fmt.Errorf("setting %s on %s: %w", p.Key, serial, err)
	}
	if status != StatusSuccess {
		c.log.Warn("persistent parameter rejected", "serial", serial, "param", p.String(), "status", status.String())
		return status, &ConfigError{Identifier: serial, Key: p.Key, Status: status}
	}
	c.log.Debug("persistent parameter written", "serial", serial, "param", p.String())
	return status, nil
}
