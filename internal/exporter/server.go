package exporter

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheImagingSource/tiscamera/internal/gige"
	"github.com/TheImagingSource/tiscamera/pkg/models"
)

// HealthChecker reports whether the daemon answers.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler serves the exporter's HTTP API.
type Handler struct {
	fleet  *Fleet
	bridge HealthChecker
}

// NewRouter wires /metrics, /health and the camera API. bridge is checked on
// every /health request.
func NewRouter(fleet *Fleet, bridge HealthChecker, gatherer prometheus.Gatherer) *gin.Engine {
	h := &Handler{fleet: fleet, bridge: bridge}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	})))
	r.GET("/health", h.Health)
	r.GET("/api/cameras", h.GetCameras)
	r.GET("/api/cameras/:id", h.GetCamera)

	return r
}

// Health reports 503 until a discovery has succeeded and while the daemon
// does not answer.
func (h *Handler) Health(c *gin.Context) {
	snap := h.fleet.Snapshot()
	bridgeErr := h.bridge.Health(c.Request.Context())

	body := gin.H{
		"status":    "healthy",
		"cameras":   len(snap.Cameras),
		"refreshed": snap.At.Format(time.RFC3339),
	}
	code := http.StatusOK

	switch {
	case bridgeErr != nil:
		body["status"] = "bridge unreachable"
		body["error"] = bridgeErr.Error()
		code = http.StatusServiceUnavailable
	case snap.At.IsZero():
		body["status"] = "starting"
		code = http.StatusServiceUnavailable
	case snap.Err != nil:
		body["status"] = "unhealthy"
		body["error"] = snap.Err.Error()
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, body)
}

// GetCameras returns the last discovery in the daemon's list format.
func (h *Handler) GetCameras(c *gin.Context) {
	var resp models.CameraListResponse
	resp.Result.Cameras = h.fleet.Snapshot().Cameras

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetCamera(c *gin.Context) {
	cam, err := h.fleet.Lookup(c.Param("id"))
	switch {
	case errors.Is(err, gige.ErrCameraNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case errors.Is(err, gige.ErrAmbiguousIdentifier):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var resp models.CameraDetailsResponse
	resp.Result.Camera = cam
	c.JSON(http.StatusOK, resp)
}
