package gige

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/TheImagingSource/tiscamera/pkg/models"
)

// UploadTask is the upload of one firmware file to one camera in a batch.
// Progress and result are written only by the worker owning the task.
type UploadTask struct {
	Identifier string
	Path       string

	// Err is nil on success.
	Err error
	// FirstErr keeps the parallel phase error of a task that was retried.
	FirstErr error
	Retried  bool

	progress atomic.Int32
}

// Progress returns the last reported percentage.
func (t *UploadTask) Progress() int { return int(t.progress.Load()) }

func (t *UploadTask) setProgress(p Progress) { t.progress.Store(int32(p.Percent)) }

// BatchOptions configures one batch upload.
type BatchOptions struct {
	Interface string
	Path      string

	// BaseAddress is the first address assigned during reconfiguration.
	// The zero value means the host's address on Interface with the last
	// octet set to DefaultHostOctet.
	BaseAddress     netip.Addr
	SkipReconfigure bool

	// OnStatus is called periodically while the parallel phase runs.
	OnStatus func(BatchStatus)
	// OnRetry receives progress of the sequential retry phase.
	OnRetry func(task *UploadTask, p Progress)
}

// BatchStatus is a snapshot of the parallel phase.
type BatchStatus struct {
	Working   int
	Remaining int
	// Progress holds one entry per worker, -1 for a worker without a task.
	Progress []int
}

// Summary is the outcome of a batch upload.
type Summary struct {
	ID        string
	Interface string
	Workers   int
	Tasks     []*UploadTask
}

func (s *Summary) Succeeded() []*UploadTask {
	var tasks []*UploadTask
	for _, t := range s.Tasks {
		if t.Err == nil {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

func (s *Summary) Failed() []*UploadTask {
	var tasks []*UploadTask
	for _, t := range s.Tasks {
		if t.Err != nil {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// BatchUpload flashes the firmware at opts.Path to every camera found on
// opts.Interface.
//
// Unless SkipReconfigure is set, the cameras are first rescued into a
// contiguous address range and rediscovered. Uploads then run on up to
// MaxWorkers workers. Uploads that failed are retried once, one after the
// other, against a fresh discovery.
//
// Errors found before the first upload starts abort the batch and are
// returned. Per camera failures are reported in the Summary only.
func (c *Coordinator) BatchUpload(ctx context.Context, opts BatchOptions) (*Summary, error) {
	if opts.Interface == "" {
		return nil, errors.New("no interface given")
	}
	path, err := CheckFirmwareFile(opts.Path)
	if err != nil {
		return nil, err
	}

	summary := &Summary{ID: uuid.New().String(), Interface: opts.Interface}
	log := c.log.With("batch", summary.ID, "interface", opts.Interface)

	// The busy flag is only reported together with persistent values.
	if _, err := c.registry.Discover(ctx, !opts.SkipReconfigure); err != nil {
		return nil, err
	}
	cameras := c.registry.OnInterface(opts.Interface)
	if len(cameras) == 0 {
		return nil, fmt.Errorf("%w on interface %s", ErrNoCameras, opts.Interface)
	}

	if !opts.SkipReconfigure {
		if err := checkBusy(cameras, true); err != nil {
			return nil, err
		}
		cameras, err = c.reconfigure(ctx, log, opts, cameras)
		if err != nil {
			return nil, err
		}
	}

	for _, cam := range cameras {
		summary.Tasks = append(summary.Tasks, &UploadTask{Identifier: cam.Serial, Path: path})
	}

	summary.Workers = c.runParallel(ctx, log, summary.Tasks, opts.OnStatus)
	c.retryFailed(ctx, log, summary.Tasks, opts.OnRetry)

	log.Info("batch finished", "succeeded", len(summary.Succeeded()), "failed", len(summary.Failed()))
	return summary, nil
}

func (c *Coordinator) reconfigure(ctx context.Context, log *slog.Logger, opts BatchOptions, cameras []models.CameraRecord) ([]models.CameraRecord, error) {
	base := opts.BaseAddress
	if !base.IsValid() {
		var err error
		if base, err = DefaultBaseAddress(opts.Interface); err != nil {
			return nil, err
		}
	}
	addrs, err := AddressRange(base, len(cameras))
	if err != nil {
		return nil, err
	}

	log.Info("configuring cameras for address range", "first", addrs[0], "last", addrs[len(addrs)-1])
	if err := c.sequencer.AssignSequential(ctx, cameras, base); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("not every camera could be rescued", "error", err)
	}

	if err := sleepContext(ctx, c.opts.SettleDelay); err != nil {
		return nil, err
	}

	log.Info("rediscovering cameras")
	if _, err := c.registry.Discover(ctx, true); err != nil {
		return nil, err
	}
	cameras = c.registry.OnInterface(opts.Interface)
	if len(cameras) == 0 {
		return nil, fmt.Errorf("%w on interface %s after reconfiguration", ErrNoCameras, opts.Interface)
	}
	// a busy camera at this point means another controller session
	if err := checkBusy(cameras, false); err != nil {
		return nil, err
	}
	return cameras, nil
}

func checkBusy(cameras []models.CameraRecord, reachableOnly bool) error {
	for _, cam := range cameras {
		if reachableOnly && !cam.IsReachable {
			continue
		}
		if cam.IsBusy {
			return fmt.Errorf("%w: %s is controlled by another session", ErrCameraBusy, cam.Serial)
		}
	}
	return nil
}

// runParallel uploads all tasks on a bounded worker pool and returns the
// number of workers started.
func (c *Coordinator) runParallel(ctx context.Context, log *slog.Logger, tasks []*UploadTask, onStatus func(BatchStatus)) int {
	queue := make(chan *UploadTask, len(tasks))
	for _, t := range tasks {
		queue <- t
	}
	close(queue)

	results := make(chan *UploadTask, len(tasks))
	workers := make([]*worker, min(len(tasks), c.opts.MaxWorkers))
	c.opts.Metrics.SetWorkers(len(workers))
	log.Info("starting upload workers", "workers", len(workers), "cameras", len(tasks))

	var (
		wg     sync.WaitGroup
		active atomic.Int32
	)
	for i := range workers {
		workers[i] = newWorker(i, c, queue, results)
		wg.Add(1)
		active.Add(1)
		go func(w *worker) {
			defer wg.Done()
			defer active.Add(-1)
			w.run(ctx)
		}(workers[i])
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	status := func() BatchStatus {
		s := BatchStatus{
			Working:   int(active.Load()),
			Remaining: len(queue),
			Progress:  make([]int, len(workers)),
		}
		for i, w := range workers {
			s.Progress[i] = w.progress()
		}
		return s
	}

	ticker := time.NewTicker(c.opts.RenderInterval)
	defer ticker.Stop()

	for {
		select {
		case t, ok := <-results:
			if !ok {
				if onStatus != nil {
					onStatus(status())
				}
				return len(workers)
			}
			log.Debug("task finished", "camera", t.Identifier, "progress", t.Progress(), "result", ResultLabel(t.Err))
		case <-ticker.C:
			if onStatus != nil {
				onStatus(status())
			}
		}
	}
}

// retryFailed retries every failed task once, sequentially. Tasks skipped
// because of an abort are not retried, and nothing is retried once ctx is
// done.
func (c *Coordinator) retryFailed(ctx context.Context, log *slog.Logger, tasks []*UploadTask, onRetry func(*UploadTask, Progress)) {
	var failed []*UploadTask
	for _, t := range tasks {
		if t.Err != nil && !errors.Is(t.Err, ErrBatchAborted) {
			failed = append(failed, t)
		}
	}
	if len(failed) == 0 || ctx.Err() != nil {
		return
	}

	log.Warn("retrying failed uploads in sequential mode", "count", len(failed))
	if _, err := c.registry.Discover(ctx, true); err != nil {
		log.Error("rediscovery before retry failed", "error", err)
		return
	}
	if err := sleepContext(ctx, c.opts.SettleDelay); err != nil {
		return
	}

	for _, t := range failed {
		if ctx.Err() != nil {
			return
		}
		t.FirstErr, t.Retried = t.Err, true
		t.progress.Store(0)
		c.opts.Metrics.Retried()

		log.Info("uploading to device", "camera", t.Identifier)
		t.Err = c.Upload(ctx, t.Identifier, t.Path, func(p Progress) {
			t.setProgress(p)
			if onRetry != nil {
				onRetry(t, p)
			}
		})
	}
}

// worker takes tasks from the shared queue until it is drained.
type worker struct {
	id      int
	coord   *Coordinator
	queue   <-chan *UploadTask
	results chan<- *UploadTask
	current atomic.Pointer[UploadTask]
}

func newWorker(id int, coord *Coordinator, queue <-chan *UploadTask, results chan<- *UploadTask) *worker {
	return &worker{id: id, coord: coord, queue: queue, results: results}
}

func (w *worker) run(ctx context.Context) {
	for task := range w.queue {
		if ctx.Err() != nil {
			task.Err = &UploadError{Identifier: task.Identifier, Err: ErrBatchAborted}
			w.results <- task
			continue
		}

		w.current.Store(task)
		task.progress.Store(0)
		task.Err = w.coord.Upload(ctx, task.Identifier, task.Path, task.setProgress)
		w.current.Store(nil)

		w.results <- task
	}
}

// progress returns the percentage of the running task, -1 when idle.
func (w *worker) progress() int {
	if t := w.current.Load(); t != nil {
		return t.Progress()
	}
	return -1
}
