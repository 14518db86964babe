package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/TheImagingSource/tiscamera/internal/client"
	"github.com/TheImagingSource/tiscamera/internal/config"
	"github.com/TheImagingSource/tiscamera/internal/gige"
	"github.com/TheImagingSource/tiscamera/internal/metrics"
)

// stack is everything a command needs to talk to cameras.
type stack struct {
	cfg       *config.Config
	log       *slog.Logger
	bridge    *client.BridgeClient
	registry  *gige.Registry
	ctrl      *gige.Controller
	sequencer *gige.Sequencer
	coord     *gige.Coordinator
}

// setupStack loads the configuration and wires the components. m may be nil.
func setupStack(m *metrics.Uploads) *stack {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(log)

	return newStack(cfg, log, m)
}

func newStack(cfg *config.Config, log *slog.Logger, m *metrics.Uploads) *stack {
	bridge := client.New(client.ClientConfig{
		BaseURL: cfg.Bridge.URL,
		Nonce:   cfg.Bridge.Nonce,
		Key:     cfg.Bridge.Key,
		Timeout: cfg.Bridge.Timeout,
	})

	registry := gige.NewRegistry(bridge, log)
	ctrl := gige.NewController(bridge, registry, log)
	sequencer := gige.NewSequencer(ctrl, log)
	coord := gige.NewCoordinator(bridge, registry, sequencer, gige.Options{
		MaxWorkers:     cfg.Upload.MaxWorkers,
		SettleDelay:    cfg.Upload.SettleDelay,
		UploadTimeout:  cfg.Upload.Timeout,
		RenderInterval: cfg.Upload.RenderInterval,
		Metrics:        m,
		Logger:         log,
	})

	return &stack{
		cfg:       cfg,
		log:       log,
		bridge:    bridge,
		registry:  registry,
		ctrl:      ctrl,
		sequencer: sequencer,
		coord:     coord,
	}
}

// discover fills the registry or exits.
func (s *stack) discover(ctx context.Context, includePersistent bool) {
	if _, err := s.registry.Discover(ctx, includePersistent); err != nil {
		fmt.Printf("Error discovering cameras: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Printf("Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
