package gige

import (
	"context"
	"fmt"

	"github.com/TheImagingSource/tiscamera/pkg/models"
)

// Status is a status code returned by the bridge for discovery and
// configuration calls.
type Status int

const (
	StatusSuccess          Status = 0x0
	StatusFailure          Status = 0x8000
	StatusNoDevice         Status = 0x8001
	StatusInvalidParameter Status = 0x8002
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusNoDevice:
		return "no device"
	case StatusInvalidParameter:
		return "invalid parameter"
	}
	return fmt.Sprintf("status 0x%x", int(s))
}

// UploadCode is the result of a native firmware upload. Zero is success,
// negative values are failures (see uploadErrors).
type UploadCode int

const UploadSuccess UploadCode = 0

// Progress is one progress notification of a running firmware upload.
type Progress struct {
	Message string
	Percent int
}

// Param is a persistent parameter write. The native layer has separate
// setters for string and integer values.
type Param struct {
	Key     string
	Str     string
	Int     int
	Numeric bool
}

// StringParam returns a string valued parameter.
func StringParam(key, value string) Param {
	return Param{Key: key, Str: value}
}

// IntParam returns an integer valued parameter.
func IntParam(key string, value int) Param {
	return Param{Key: key, Int: value, Numeric: true}
}

// Value returns the parameter value as string or int.
func (p Param) Value() any {
	if p.Numeric {
		return p.Int
	}
	return p.Str
}

func (p Param) String() string {
	return fmt.Sprintf("%s=%v", p.Key, p.Value())
}

// Bridge is the boundary to the vendor camera library.
//
// Errors returned by Bridge methods are transport failures. Device level
// outcomes are reported through Status and UploadCode.
type Bridge interface {
	// Discover reports every camera found on all interfaces to fn.
	// Persistent values are only filled in when includePersistent is set.
	Discover(ctx context.Context, includePersistent bool, fn func(models.CameraRecord)) error

	// CameraDetails returns the full record, persistent values included.
	CameraDetails(ctx context.Context, identifier string) (models.CameraRecord, Status, error)

	SetPersistentParameter(ctx context.Context, identifier string, p Param) (Status, error)

	// Rescue temporarily assigns an IP configuration to the camera with the
	// given MAC address. Nothing is written to the camera's flash.
	Rescue(ctx context.Context, mac, ip, netmask, gateway string) (Status, error)

	// ControlChannel reads the control channel registers of the camera.
	ControlChannel(ctx context.Context, identifier string) (models.ControlRecord, Status, error)

	// UploadFirmware flashes the firmware file at path. Progress is sent on
	// progress, which the caller owns and the bridge never closes.
	UploadFirmware(ctx context.Context, identifier, path string, progress chan<- Progress) (UploadCode, error)
}
