package exporter

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/TheImagingSource/tiscamera/internal/gige"
	"github.com/TheImagingSource/tiscamera/pkg/models"
)

// Fleet periodically rediscovers the cameras the exporter reports on.
type Fleet struct {
	registry *gige.Registry
	interval time.Duration
	log      *slog.Logger

	mu       sync.RWMutex
	lastErr  error
	lastAt   time.Time
	duration time.Duration
}

// Snapshot is the state after the most recent refresh.
type Snapshot struct {
	Cameras  []models.CameraRecord
	Err      error
	At       time.Time
	Duration time.Duration
}

func NewFleet(registry *gige.Registry, interval time.Duration, log *slog.Logger) *Fleet {
	return &Fleet{
		registry: registry,
		interval: interval,
		log:      log.With("component", "fleet"),
	}
}

// Run refreshes once immediately and then every interval until ctx is done.
func (f *Fleet) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		_ = f.Refresh(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Refresh runs one discovery with persistent values.
func (f *Fleet) Refresh(ctx context.Context) error {
	start := time.Now()
	cameras, err := f.discoverWithRetry(ctx)
	elapsed := time.Since(start)

	f.mu.Lock()
	f.lastErr = err
	f.lastAt = start
	f.duration = elapsed
	f.mu.Unlock()

	if err != nil {
		f.log.Error("discovery failed", "error", err)
		return err
	}
	f.log.Debug("discovery finished", "cameras", len(cameras), "duration", elapsed)
	return nil
}

func (f *Fleet) discoverWithRetry(ctx context.Context) ([]models.CameraRecord, error) {
	cameras, err := f.registry.Discover(ctx, true)
	if err == nil || ctx.Err() != nil {
		return cameras, err
	}
	f.log.Warn("discovery failed, retrying", "error", err)
	return f.registry.Discover(ctx, true)
}

func (f *Fleet) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return Snapshot{
		Cameras:  f.registry.Cameras(),
		Err:      f.lastErr,
		At:       f.lastAt,
		Duration: f.duration,
	}
}

// Lookup resolves an identifier against the last discovery.
func (f *Fleet) Lookup(identifier string) (models.CameraRecord, error) {
	return f.registry.Lookup(identifier)
}
