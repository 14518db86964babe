package gige

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/TheImagingSource/tiscamera/pkg/models"
)

// Registry holds the cameras reported by the most recent discovery.
type Registry struct {
	bridge  Bridge
	log     *slog.Logger
	mu      sync.RWMutex
	cameras []models.CameraRecord
}

// NewRegistry creates an empty registry. Call Discover before any lookup.
func NewRegistry(bridge Bridge, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		bridge: bridge,
		log:    log.With("component", "registry"),
	}
}

// Discover scans for cameras and replaces the cached list with the result.
// Cameras missing from this round are dropped. The cache is replaced even
// when the bridge fails, so a failed scan looks like an empty network.
func (r *Registry) Discover(ctx context.Context, includePersistent bool) ([]models.CameraRecord, error) {
	var found []models.CameraRecord
	err := r.bridge.Discover(ctx, includePersistent, func(cam models.CameraRecord) {
		found = append(found, cam)
	})
	if err != nil {
		found = nil
	}

	r.mu.Lock()
	r.cameras = found
	r.mu.Unlock()

	if err != nil {
		r.log.Warn("discovery failed", "error", err)
		return nil, fmt.Errorf("discovering cameras: %w", err)
	}

	r.log.Debug("discovery finished", "cameras", len(found), "persistent", includePersistent)
	return clone(found), nil
}

// Cameras returns a copy of the cached camera list.
func (r *Registry) Cameras() []models.CameraRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return clone(r.cameras)
}

// OnInterface returns the cached cameras seen through the given host
// interface, in discovery order.
func (r *Registry) OnInterface(iface string) []models.CameraRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var cameras []models.CameraRecord
	for _, cam := range r.cameras {
		if cam.InterfaceName == iface {
			cameras = append(cameras, cam)
		}
	}
	return cameras
}

// Lookup resolves identifier against the cached list by serial number, user
// defined name or MAC address. An identifier that matches more than one
// camera through any of these fields is an error.
func (r *Registry) Lookup(identifier string) (models.CameraRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	match := -1
	for i, cam := range r.cameras {
		if !cam.Matches(identifier) {
			continue
		}
		if match >= 0 {
			return models.CameraRecord{}, fmt.Errorf("%w: %q", ErrAmbiguousIdentifier, identifier)
		}
		match = i
	}

	if match < 0 {
		return models.CameraRecord{}, fmt.Errorf("%w: %q", ErrCameraNotFound, identifier)
	}
	return r.cameras[match], nil
}

// Details resolves identifier and fetches the full record, persistent values
// included, from the bridge.
func (r *Registry) Details(ctx context.Context, identifier string) (models.CameraRecord, error) {
	cam, err := r.Lookup(identifier)
	if err != nil {
		return models.CameraRecord{}, err
	}

	details, status, err := r.bridge.CameraDetails(ctx, cam.Serial)
	if err != nil {
		return models.CameraRecord{}, fmt.Errorf("fetching details for %s: %w", cam.Serial, err)
	}
	if status == StatusNoDevice || details.Serial == "" {
		return models.CameraRecord{}, fmt.Errorf("%w: %q", ErrCameraNotFound, identifier)
	}
	return details, nil
}

func clone(cameras []models.CameraRecord) []models.CameraRecord {
	if cameras == nil {
		return []models.CameraRecord{}
	}
	out := make([]models.CameraRecord, len(cameras))
	copy(out, cameras)
	return out
}
