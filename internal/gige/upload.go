package gige

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/TheImagingSource/tiscamera/internal/metrics"
)

const (
	DefaultMaxWorkers     = 8
	DefaultSettleDelay    = time.Second
	DefaultUploadTimeout  = 30 * time.Minute
	DefaultRenderInterval = 500 * time.Millisecond
)

// Options tunes the Coordinator. Zero MaxWorkers, UploadTimeout and
// RenderInterval fall back to the defaults; a negative UploadTimeout disables
// the limit. SettleDelay is used as given.
type Options struct {
	MaxWorkers     int
	SettleDelay    time.Duration
	UploadTimeout  time.Duration
	RenderInterval time.Duration

	Metrics *metrics.Uploads
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = DefaultMaxWorkers
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.UploadTimeout == 0 {
		o.UploadTimeout = DefaultUploadTimeout
	}
	if o.RenderInterval <= 0 {
		o.RenderInterval = DefaultRenderInterval
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Coordinator runs single and batch firmware uploads.
type Coordinator struct {
	bridge    Bridge
	registry  *Registry
	sequencer *Sequencer
	opts      Options
	log       *slog.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewCoordinator(bridge Bridge, registry *Registry, sequencer *Sequencer, opts Options) *Coordinator {
	opts = opts.withDefaults()
	return &Coordinator{
		bridge:    bridge,
		registry:  registry,
		sequencer: sequencer,
		opts:      opts,
		log:       opts.Logger.With("component", "coordinator"),
		inflight:  make(map[string]struct{}),
	}
}

// Upload flashes the firmware file at path to the camera. The file is checked
// before the camera is contacted; a busy or unreachable camera is refused.
// onProgress may be nil.
//
// Cancelling ctx does not interrupt a flash that has already started; the
// upload is bounded by the configured upload timeout instead.
func (c *Coordinator) Upload(ctx context.Context, identifier, path string, onProgress func(Progress)) error {
	start := time.Now()
	err := c.upload(ctx, identifier, path, onProgress)
	c.opts.Metrics.Observe(ResultLabel(err), time.Since(start))
	if err != nil {
		c.log.Warn("upload failed", "camera", identifier, "error", err)
	} else {
		c.log.Info("upload finished", "camera", identifier, "took", time.Since(start).Round(time.Second))
	}
	return err
}

func (c *Coordinator) upload(ctx context.Context, identifier, path string, onProgress func(Progress)) error {
	abs, err := CheckFirmwareFile(path)
	if err != nil {
		return &UploadError{Identifier: identifier, Err: err}
	}

	cam, err := c.registry.Details(ctx, identifier)
	if err != nil {
		return err
	}
	if !cam.IsReachable {
		return &UploadError{Identifier: cam.Serial, Err: ErrCameraUnreachable}
	}
	if cam.IsBusy {
		return &UploadError{Identifier: cam.Serial, Err: ErrCameraBusy}
	}

	release, ok := c.claim(cam.Serial)
	if !ok {
		return &UploadError{Identifier: cam.Serial, Err: ErrCameraBusy}
	}
	defer release()

	uctx, cancel := c.uploadContext(ctx)
	defer cancel()

	progress := make(chan Progress, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for p := range progress {
			if onProgress != nil {
				onProgress(p)
			}
		}
	}()

	code, err := c.bridge.UploadFirmware(uctx, cam.Serial, abs, progress)
	close(progress)
	<-drained

	if err != nil {
		if errors.Is(uctx.Err(), context.DeadlineExceeded) {
			return &UploadError{Identifier: cam.Serial, Err: ErrUploadTimeout}
		}
		return &UploadError{Identifier: cam.Serial, Err: err}
	}
	return uploadCodeError(cam.Serial, code)
}

func (c *Coordinator) uploadContext(ctx context.Context) (context.Context, context.CancelFunc) {
	base := context.WithoutCancel(ctx)
	if c.opts.UploadTimeout < 0 {
		return context.WithCancel(base)
	}
	return context.WithTimeout(base, c.opts.UploadTimeout)
}

// claim marks serial as being uploaded to. It fails when another upload to
// the same camera is already running in this process.
func (c *Coordinator) claim(serial string) (release func(), ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inflight[serial]; busy {
		return nil, false
	}
	c.inflight[serial] = struct{}{}
	return func() {
		c.mu.Lock()
		delete(c.inflight, serial)
		c.mu.Unlock()
	}, true
}

// CheckFirmwareFile resolves path to an absolute regular file.
func CheckFirmwareFile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrFileNotFoundOrInvalid)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileNotFoundOrInvalid, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFileNotFoundOrInvalid, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrFileNotFoundOrInvalid, abs)
	}
	return abs, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
