package gige

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/TheImagingSource/tiscamera/internal/metrics"
	"github.com/TheImagingSource/tiscamera/pkg/models"
)

func testCameras(n int, iface string) []models.CameraRecord {
	cameras := make([]models.CameraRecord, n)
	for i := range cameras {
		cameras[i] = testCamera(fmt.Sprintf("470000%02d", i), iface)
	}
	return cameras
}

func TestCoordinator_BatchUploadWorkerCount(t *testing.T) {
	tests := []struct {
		cameras int
		workers int
	}{
		{1, 1},
		{3, 3},
		{8, 8},
		{12, 8},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d cameras", tt.cameras), func(t *testing.T) {
			bridge := newFakeBridge(testCameras(tt.cameras, "eth0")...)
			bridge.uploadDelay = 10 * time.Millisecond
			s := newTestStack(bridge, Options{RenderInterval: time.Millisecond})

			summary, err := s.coord.BatchUpload(context.Background(), BatchOptions{
				Interface:       "eth0",
				Path:            writeFirmware(t),
				SkipReconfigure: true,
			})
			if err != nil {
				t.Fatalf("BatchUpload failed: %v", err)
			}
			if summary.Workers != tt.workers {
				t.Errorf("Expected %d workers, got %d", tt.workers, summary.Workers)
			}
			if bridge.maxRunning > tt.workers {
				t.Errorf("Expected at most %d concurrent uploads, got %d", tt.workers, bridge.maxRunning)
			}
			if len(summary.Succeeded()) != tt.cameras {
				t.Errorf("Expected %d successful uploads, got %d", tt.cameras, len(summary.Succeeded()))
			}
			if bridge.uploadCount() != tt.cameras {
				t.Errorf("Expected one upload per camera, got %d", bridge.uploadCount())
			}
		})
	}
}

func TestCoordinator_BatchUploadRetriesSequentially(t *testing.T) {
	cameras := testCameras(6, "eth0")
	bridge := newFakeBridge(cameras...)
	bridge.uploadCodes[cameras[2].Serial] = []UploadCode{-5, 0}
	bridge.uploadCodes[cameras[5].Serial] = []UploadCode{-6, -7}
	s := newTestStack(bridge, Options{})

	var mu sync.Mutex
	retried := map[string]bool{}
	summary, err := s.coord.BatchUpload(context.Background(), BatchOptions{
		Interface:       "eth0",
		Path:            writeFirmware(t),
		SkipReconfigure: true,
		OnRetry: func(task *UploadTask, _ Progress) {
			mu.Lock()
			retried[task.Identifier] = true
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("BatchUpload failed: %v", err)
	}

	byID := map[string]*UploadTask{}
	for _, task := range summary.Tasks {
		byID[task.Identifier] = task
	}

	two := byID[cameras[2].Serial]
	if two.Err != nil || !two.Retried || !errors.Is(two.FirstErr, ErrWriteError) {
		t.Errorf("Expected device 2 to succeed on retry after a write error, got err=%v retried=%v first=%v", two.Err, two.Retried, two.FirstErr)
	}

	five := byID[cameras[5].Serial]
	if !errors.Is(five.Err, ErrDeviceAccessFailed) {
		t.Errorf("Expected device 5 to end with the retry's error kind, got %v", five.Err)
	}
	if !errors.Is(five.FirstErr, ErrWriteVerificationError) {
		t.Errorf("Expected device 5 first error to be kept, got %v", five.FirstErr)
	}
	if five.Progress() != 42 {
		t.Errorf("Expected device 5 to report progress at failure, got %d", five.Progress())
	}

	if failed := summary.Failed(); len(failed) != 1 || failed[0].Identifier != cameras[5].Serial {
		t.Errorf("Expected only device 5 to fail, got %d failures", len(failed))
	}
	for i, cam := range cameras {
		if i == 2 || i == 5 {
			continue
		}
		if byID[cam.Serial].Retried {
			t.Errorf("Device %d succeeded and must not be retried", i)
		}
	}
	if !retried[cameras[2].Serial] || !retried[cameras[5].Serial] || len(retried) != 2 {
		t.Errorf("Expected retry progress for devices 2 and 5 only, got %v", retried)
	}
	if bridge.uploadCount() != 8 {
		t.Errorf("Expected 6 parallel and 2 retry uploads, got %d", bridge.uploadCount())
	}
	// initial discovery plus the fresh one before the retry
	if bridge.discovers != 2 {
		t.Errorf("Expected 2 discoveries, got %d", bridge.discovers)
	}
}

func TestCoordinator_BatchUploadReconfigures(t *testing.T) {
	cameras := testCameras(3, "eth0")
	cameras = append(cameras, testCamera("47000099", "eth1"))
	bridge := newFakeBridge(cameras...)
	s := newTestStack(bridge, Options{})

	summary, err := s.coord.BatchUpload(context.Background(), BatchOptions{
		Interface:   "eth0",
		Path:        writeFirmware(t),
		BaseAddress: netip.MustParseAddr("192.168.3.10"),
	})
	if err != nil {
		t.Fatalf("BatchUpload failed: %v", err)
	}

	if len(bridge.rescues) != 3 {
		t.Fatalf("Expected 3 rescues for eth0 cameras, got %+v", bridge.rescues)
	}
	for i, r := range bridge.rescues {
		if want := fmt.Sprintf("192.168.3.%d", 10+i); r.IP != want {
			t.Errorf("Rescue %d: expected %s, got %s", i, want, r.IP)
		}
	}
	if len(summary.Tasks) != 3 {
		t.Errorf("Expected 3 tasks, got %d", len(summary.Tasks))
	}
	if bridge.discovers != 2 {
		t.Errorf("Expected discovery before and after reconfiguration, got %d", bridge.discovers)
	}
}

func TestCoordinator_BatchUploadBusyAfterRediscovery(t *testing.T) {
	cameras := testCameras(2, "eth0")
	bridge := newFakeBridge(cameras...)
	// another session grabs the camera while it is being rescued
	bridge.onRescue = func(f *fakeBridge, call rescueCall) {
		f.cameras[1].IsBusy = true
	}
	s := newTestStack(bridge, Options{})

	_, err := s.coord.BatchUpload(context.Background(), BatchOptions{
		Interface:   "eth0",
		Path:        writeFirmware(t),
		BaseAddress: netip.MustParseAddr("10.0.0.10"),
	})
	if !errors.Is(err, ErrCameraBusy) {
		t.Fatalf("Expected ErrCameraBusy, got %v", err)
	}
	if bridge.uploadCount() != 0 {
		t.Errorf("Expected the batch to abort before any upload")
	}
}

func TestCoordinator_BatchUploadBusyBeforeReconfigure(t *testing.T) {
	cameras := testCameras(2, "eth0")
	cameras[0].IsBusy = true
	bridge := newFakeBridge(cameras...)
	s := newTestStack(bridge, Options{})

	_, err := s.coord.BatchUpload(context.Background(), BatchOptions{
		Interface:   "eth0",
		Path:        writeFirmware(t),
		BaseAddress: netip.MustParseAddr("10.0.0.10"),
	})
	if !errors.Is(err, ErrCameraBusy) {
		t.Fatalf("Expected ErrCameraBusy, got %v", err)
	}
	if len(bridge.rescues) != 0 {
		t.Errorf("Expected no rescues, got %d", len(bridge.rescues))
	}
	if len(bridge.persistent) == 0 || !bridge.persistent[0] {
		t.Errorf("Expected the first discovery to include persistent values, got %v", bridge.persistent)
	}
}

func TestCoordinator_BatchUploadSkipReconfigureDiscovery(t *testing.T) {
	bridge := newFakeBridge(testCameras(2, "eth0")...)
	s := newTestStack(bridge, Options{})

	if _, err := s.coord.BatchUpload(context.Background(), BatchOptions{
		Interface:       "eth0",
		Path:            writeFirmware(t),
		SkipReconfigure: true,
	}); err != nil {
		t.Fatalf("BatchUpload failed: %v", err)
	}
	if len(bridge.persistent) != 1 || bridge.persistent[0] {
		t.Errorf("Expected a single plain discovery, got %v", bridge.persistent)
	}
}

func TestCoordinator_BatchUploadPreflight(t *testing.T) {
	bridge := newFakeBridge(testCameras(2, "eth0")...)
	s := newTestStack(bridge, Options{})
	ctx := context.Background()

	if _, err := s.coord.BatchUpload(ctx, BatchOptions{Interface: "eth7", Path: writeFirmware(t), SkipReconfigure: true}); !errors.Is(err, ErrNoCameras) {
		t.Errorf("Expected ErrNoCameras, got %v", err)
	}
	if _, err := s.coord.BatchUpload(ctx, BatchOptions{Interface: "eth0", Path: "/does/not/exist"}); !errors.Is(err, ErrFileNotFoundOrInvalid) {
		t.Errorf("Expected ErrFileNotFoundOrInvalid, got %v", err)
	}
	if _, err := s.coord.BatchUpload(ctx, BatchOptions{Path: writeFirmware(t)}); err == nil {
		t.Error("Expected error without interface")
	}
	if bridge.uploadCount() != 0 {
		t.Errorf("Expected no uploads, got %d", bridge.uploadCount())
	}
}

func TestCoordinator_BatchUploadBadInterfaceAddress(t *testing.T) {
	bridge := newFakeBridge(testCameras(2, "does-not-exist0")...)
	s := newTestStack(bridge, Options{})

	_, err := s.coord.BatchUpload(context.Background(), BatchOptions{
		Interface: "does-not-exist0",
		Path:      writeFirmware(t),
	})
	if err == nil {
		t.Fatal("Expected error when the host address of the interface is unknown")
	}
	if len(bridge.rescues) != 0 || bridge.uploadCount() != 0 {
		t.Errorf("Expected no device calls")
	}
}

func TestCoordinator_BatchUploadReportsStatus(t *testing.T) {
	bridge := newFakeBridge(testCameras(4, "eth0")...)
	bridge.uploadDelay = 30 * time.Millisecond
	s := newTestStack(bridge, Options{MaxWorkers: 2, RenderInterval: 5 * time.Millisecond})

	var (
		mu       sync.Mutex
		statuses []BatchStatus
	)
	_, err := s.coord.BatchUpload(context.Background(), BatchOptions{
		Interface:       "eth0",
		Path:            writeFirmware(t),
		SkipReconfigure: true,
		OnStatus: func(st BatchStatus) {
			mu.Lock()
			statuses = append(statuses, st)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("BatchUpload failed: %v", err)
	}

	if len(statuses) < 2 {
		t.Fatalf("Expected periodic status updates, got %d", len(statuses))
	}
	for _, st := range statuses {
		if len(st.Progress) != 2 {
			t.Fatalf("Expected one progress entry per worker, got %v", st.Progress)
		}
	}
	last := statuses[len(statuses)-1]
	if last.Working != 0 || last.Remaining != 0 {
		t.Errorf("Expected final status with no work left, got %+v", last)
	}
	if last.Progress[0] != -1 || last.Progress[1] != -1 {
		t.Errorf("Expected idle workers at the end, got %v", last.Progress)
	}
}

func TestCoordinator_BatchUploadAbort(t *testing.T) {
	bridge := newFakeBridge(testCameras(3, "eth0")...)
	bridge.uploadDelay = 50 * time.Millisecond
	s := newTestStack(bridge, Options{MaxWorkers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	summary, err := s.coord.BatchUpload(ctx, BatchOptions{
		Interface:       "eth0",
		Path:            writeFirmware(t),
		SkipReconfigure: true,
	})
	if err != nil {
		t.Fatalf("BatchUpload failed: %v", err)
	}

	if summary.Tasks[0].Err != nil {
		t.Errorf("Expected the running upload to finish, got %v", summary.Tasks[0].Err)
	}
	for _, task := range summary.Tasks[1:] {
		if !errors.Is(task.Err, ErrBatchAborted) || task.Retried {
			t.Errorf("Expected %s to be aborted without retry, got %v", task.Identifier, task.Err)
		}
	}
	if bridge.uploadCount() != 1 {
		t.Errorf("Expected 1 upload, got %d", bridge.uploadCount())
	}
}

func TestCoordinator_BatchUploadMetrics(t *testing.T) {
	cameras := testCameras(3, "eth0")
	bridge := newFakeBridge(cameras...)
	bridge.uploadCodes[cameras[1].Serial] = []UploadCode{-5, -5}

	reg := prometheus.NewRegistry()
	m := metrics.NewUploads(reg)
	s := newTestStack(bridge, Options{Metrics: m})

	if _, err := s.coord.BatchUpload(context.Background(), BatchOptions{
		Interface:       "eth0",
		Path:            writeFirmware(t),
		SkipReconfigure: true,
	}); err != nil {
		t.Fatalf("BatchUpload failed: %v", err)
	}

	expected := `
# HELP gige_firmware_uploads_total Firmware uploads by result.
# TYPE gige_firmware_uploads_total counter
gige_firmware_uploads_total{result="success"} 2
gige_firmware_uploads_total{result="write_error"} 2
# HELP gige_batch_workers Upload workers started by the last batch.
# TYPE gige_batch_workers gauge
gige_batch_workers 3
# HELP gige_firmware_upload_retries_total Uploads retried sequentially after failing in the parallel phase.
# TYPE gige_firmware_upload_retries_total counter
gige_firmware_upload_retries_total 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"gige_firmware_uploads_total", "gige_batch_workers", "gige_firmware_upload_retries_total"); err != nil {
		t.Errorf("Unexpected metrics: %v", err)
	}
}
