package gige

import (
	"errors"
	"fmt"
)

var (
	ErrCameraNotFound      = errors.New("camera not found")
	ErrAmbiguousIdentifier = errors.New("camera identifier is ambiguous")
	ErrCameraBusy          = errors.New("camera is busy")
	ErrNoCameras           = errors.New("no cameras found")
	ErrConfigurationWrite  = errors.New("configuration write failed")
	ErrCameraUnreachable   = errors.New("camera is not reachable")
	ErrRegisterRead        = errors.New("register read failed")
	ErrInvalidSettings     = errors.New("settings verification failed")

	ErrFileNotFoundOrInvalid      = errors.New("file not found, corrupt or not matching the camera model")
	ErrDeviceNotRecognized        = errors.New("device not recognized")
	ErrDeviceSupportsFirmwareOnly = errors.New("device supports firmware only")
	ErrNoMatchFoundInPackage      = errors.New("no match found in package")
	ErrWriteError                 = errors.New("write error")
	ErrWriteVerificationError     = errors.New("write verification error")
	ErrDeviceAccessFailed         = errors.New("device access failed")
	ErrMotorFirmwareUpdateFailed  = errors.New("motor firmware update failed")
	ErrFocusTableUpdateFailed     = errors.New("focus table update failed")
	ErrMachXO2UpdateFailed        = errors.New("MachXO2 update failed")
	ErrUnknownUploadCode          = errors.New("unknown upload result")

	ErrUploadTimeout = errors.New("firmware upload timed out")
	ErrBatchAborted  = errors.New("batch upload aborted")
)

// uploadErrors maps native upload result codes to their error kind.
var uploadErrors = map[UploadCode]error{
	-1:  ErrDeviceNotRecognized,
	-2:  ErrDeviceSupportsFirmwareOnly,
	-3:  ErrFileNotFoundOrInvalid,
	-4:  ErrNoMatchFoundInPackage,
	-5:  ErrWriteError,
	-6:  ErrWriteVerificationError,
	-7:  ErrDeviceAccessFailed,
	-8:  ErrMotorFirmwareUpdateFailed,
	-9:  ErrFocusTableUpdateFailed,
	-10: ErrMachXO2UpdateFailed,
}

// UploadError is a failed firmware upload to one camera.
type UploadError struct {
	Identifier string
	Code       UploadCode
	Err        error
}

func (e *UploadError) Error() string {
	if e.Code != UploadSuccess {
		return fmt.Sprintf("upload to %s failed (%d): %v", e.Identifier, int(e.Code), e.Err)
	}
	return fmt.Sprintf("upload to %s failed: %v", e.Identifier, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// uploadCodeError converts a native upload result into an error, nil on success.
func uploadCodeError(identifier string, code UploadCode) error {
	if code == UploadSuccess {
		return nil
	}
	kind, ok := uploadErrors[code]
	if !ok {
		kind = ErrUnknownUploadCode
	}
	return &UploadError{Identifier: identifier, Code: code, Err: kind}
}

// ConfigError is a non-zero status returned by a persistent parameter write
// or a rescue.
type ConfigError struct {
	Identifier string
	Key        string
	Status     Status
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("setting %s on %s: %v (%s)", e.Key, e.Identifier, ErrConfigurationWrite, e.Status)
}

func (e *ConfigError) Unwrap() error { return ErrConfigurationWrite }

var resultLabels = []struct {
	err   error
	label string
}{
	{ErrCameraNotFound, "not_found"},
	{ErrAmbiguousIdentifier, "ambiguous"},
	{ErrCameraBusy, "busy"},
	{ErrCameraUnreachable, "unreachable"},
	{ErrFileNotFoundOrInvalid, "file_invalid"},
	{ErrDeviceNotRecognized, "device_not_recognized"},
	{ErrDeviceSupportsFirmwareOnly, "firmware_only"},
	{ErrNoMatchFoundInPackage, "no_match_in_package"},
	{ErrWriteError, "write_error"},
	{ErrWriteVerificationError, "write_verification_error"},
	{ErrDeviceAccessFailed, "device_access_failed"},
	{ErrMotorFirmwareUpdateFailed, "motor_update_failed"},
	{ErrFocusTableUpdateFailed, "focus_table_update_failed"},
	{ErrMachXO2UpdateFailed, "machxo2_update_failed"},
	{ErrUnknownUploadCode, "unknown_code"},
	{ErrUploadTimeout, "timeout"},
	{ErrBatchAborted, "aborted"},
}

// ResultLabel returns a short, stable name for the kind of err, "success"
// for nil. Used as metric label.
func ResultLabel(err error) string {
	if err == nil {
		return "success"
	}
	for _, k := range resultLabels {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return "error"
}
