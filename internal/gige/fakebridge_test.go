package gige

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/TheImagingSource/tiscamera/pkg/models"
)

type paramCall struct {
	Serial string
	Param  Param
}

type rescueCall struct {
	MAC, IP, Netmask, Gateway string
}

// fakeBridge is an in-memory Bridge for tests.
type fakeBridge struct {
	mu sync.Mutex

	cameras       []models.CameraRecord
	discoverErr   error
	paramStatus   Status
	rescueStatus  Status
	uploadDelay   time.Duration
	// uploadCodes holds the results of successive uploads per serial.
	// Missing entries succeed.
	uploadCodes   map[string][]UploadCode
	control       models.ControlRecord
	controlStatus Status
	// onRescue is called after a rescue was recorded.
	onRescue func(f *fakeBridge, call rescueCall)

	discovers    int
	persistent   []bool // includePersistent of each Discover call
	details      int
	params       []paramCall
	rescues      []rescueCall
	controlReads int
	uploads      []string
	running      int
	maxRunning   int
}

func newFakeBridge(cameras ...models.CameraRecord) *fakeBridge {
	return &fakeBridge{
		cameras:     cameras,
		uploadCodes: make(map[string][]UploadCode),
	}
}

// Discover mirrors the native layer: the busy flag, the IP mode flags and
// the persistent addresses are only filled in when includePersistent is set.
func (f *fakeBridge) Discover(_ context.Context, includePersistent bool, fn func(models.CameraRecord)) error {
	f.mu.Lock()
	f.discovers++
	f.persistent = append(f.persistent, includePersistent)
	cameras := append([]models.CameraRecord(nil), f.cameras...)
	err := f.discoverErr
	f.mu.Unlock()

	if err != nil {
		return err
	}
	for _, cam := range cameras {
		if !includePersistent {
			cam.IsBusy = false
			cam.IsDHCPEnabled = false
			cam.IsStaticIP = false
			cam.PersistentIP, cam.PersistentNetmask, cam.PersistentGateway = "", "", ""
		}
		fn(cam)
	}
	return nil
}

func (f *fakeBridge) CameraDetails(_ context.Context, identifier string) (models.CameraRecord, Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.details++

	for _, cam := range f.cameras {
		if cam.Matches(identifier) {
			return cam, StatusSuccess, nil
		}
	}
	return models.CameraRecord{}, StatusNoDevice, nil
}

func (f *fakeBridge) SetPersistentParameter(_ context.Context, identifier string, p Param) (Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.params = append(f.params, paramCall{Serial: identifier, Param: p})
	return f.paramStatus, nil
}

func (f *fakeBridge) Rescue(_ context.Context, mac, ip, netmask, gateway string) (Status, error) {
	f.mu.Lock()
	call := rescueCall{MAC: mac, IP: ip, Netmask: netmask, Gateway: gateway}
	f.rescues = append(f.rescues, call)
	status := f.rescueStatus
	if f.onRescue != nil {
		f.onRescue(f, call)
	}
	f.mu.Unlock()
	return status, nil
}

func (f *fakeBridge) ControlChannel(_ context.Context, _ string) (models.ControlRecord, Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controlReads++
	return f.control, f.controlStatus, nil
}

func (f *fakeBridge) UploadFirmware(ctx context.Context, identifier, path string, progress chan<- Progress) (UploadCode, error) {
	f.mu.Lock()
	f.uploads = append(f.uploads, identifier)
	f.running++
	if f.running > f.maxRunning {
		f.maxRunning = f.running
	}
	var code UploadCode
	if codes := f.uploadCodes[identifier]; len(codes) > 0 {
		code, f.uploadCodes[identifier] = codes[0], codes[1:]
	}
	delay := f.uploadDelay
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.running--
		f.mu.Unlock()
	}()

	progress <- Progress{Message: "Erasing", Percent: 10}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	if code != UploadSuccess {
		progress <- Progress{Message: "Failed", Percent: 42}
		return code, nil
	}
	progress <- Progress{Message: "Done", Percent: 100}
	return code, nil
}

func (f *fakeBridge) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func testCamera(serial, iface string) models.CameraRecord {
	return models.CameraRecord{
		Serial:        serial,
		ModelName:     "DFK 33GX264",
		MACAddress:    fmt.Sprintf("00:07:48:00:00:%s", serial[len(serial)-2:]),
		CurrentIP:     "169.254.0." + serial[len(serial)-2:],
		InterfaceName: iface,
		IsReachable:   true,
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFirmware(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "firmware.fwpack")
	if err := os.WriteFile(path, []byte("firmware"), 0o644); err != nil {
		t.Fatalf("writing firmware file: %v", err)
	}
	return path
}

type testStack struct {
	bridge    *fakeBridge
	registry  *Registry
	ctrl      *Controller
	sequencer *Sequencer
	coord     *Coordinator
}

func newTestStack(bridge *fakeBridge, opts Options) *testStack {
	log := testLogger()
	opts.Logger = log
	registry := NewRegistry(bridge, log)
	ctrl := NewController(bridge, registry, log)
	seq := NewSequencer(ctrl, log)
	return &testStack{
		bridge:    bridge,
		registry:  registry,
		ctrl:      ctrl,
		sequencer: seq,
		coord:     NewCoordinator(bridge, registry, seq, opts),
	}
}
