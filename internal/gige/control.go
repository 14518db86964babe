package gige

import (
	"context"
	"fmt"
	"time"
)

// ControlInfo tells who holds the control channel of a camera.
type ControlInfo struct {
	Busy             bool          `json:"busy"`
	Address          string        `json:"address,omitempty"`
	Port             int           `json:"port,omitempty"`
	HeartbeatTimeout time.Duration `json:"heartbeat_timeout,omitempty"`
}

func (i ControlInfo) String() string {
	if !i.Busy {
		return "not controlled"
	}
	return fmt.Sprintf("%s:%d", i.Address, i.Port)
}

// CheckControl reports the application controlling a busy camera. A camera
// that is not busy yields a zero ControlInfo.
func (c *Controller) CheckControl(ctx context.Context, identifier string) (ControlInfo, error) {
	cam, err := c.registry.Details(ctx, identifier)
	if err != nil {
		return ControlInfo{}, err
	}
	if !cam.IsReachable {
		return ControlInfo{}, fmt.Errorf("%w: %s", ErrCameraUnreachable, cam.Serial)
	}
	if !cam.IsBusy {
		return ControlInfo{}, nil
	}

	rec, status, err := c.bridge.ControlChannel(ctx, cam.Serial)
	if err != nil {
		return ControlInfo{}, fmt.Errorf("reading control channel of %s: %w", cam.Serial, err)
	}
	if status != StatusSuccess {
		return ControlInfo{}, fmt.Errorf("%w: control channel of %s: %s", ErrRegisterRead, cam.Serial, status)
	}

	return ControlInfo{
		Busy:             true,
		Address:          rec.IP,
		Port:             controlPort(rec.Port),
		HeartbeatTimeout: time.Duration(rec.HeartbeatTimeoutUS) * time.Microsecond,
	}, nil
}

// controlPort fixes up firmware that reports the port in the upper half of
// the register.
func controlPort(reg uint32) int {
	if reg > 0xffff {
		reg >>= 16
	}
	return int(reg)
}
