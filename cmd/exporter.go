package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kardianos/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TheImagingSource/tiscamera/internal/exporter"
)

var serviceAction string // "install", "uninstall", "start", "stop"

// program implements the kardianos/service interface
type program struct {
	stack  *stack
	server *http.Server
	cancel context.CancelFunc
}

func (p *program) Start(s service.Service) error {
	// Start should not block. Do the actual work async.
	go p.run()
	return nil
}

func (p *program) run() {
	cfg := p.stack.cfg

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	fleet := exporter.NewFleet(p.stack.registry, cfg.Exporter.Interval, p.stack.log)
	go fleet.Run(ctx)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		&exporter.Collector{Fleet: fleet},
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gin.SetMode(gin.ReleaseMode)
	addr := fmt.Sprintf(":%d", cfg.Exporter.Port)
	p.server = &http.Server{
		Addr:              addr,
		Handler:           exporter.NewRouter(fleet, p.stack.bridge, registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("GigE exporter listening on %s (bridge %s, refresh every %s)", addr, cfg.Bridge.URL, cfg.Exporter.Interval)

	// Blocking call to listen
	if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("HTTP Server error: %v", err)
	}
}

func (p *program) Stop(s service.Service) error {
	log.Println("Stopping service...")
	if p.cancel != nil {
		p.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
		}
	}
	return nil
}

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Start Prometheus exporter for the camera fleet",
	Long: `Starts a long-running HTTP server that periodically rediscovers all
cameras and exposes them as Prometheus metrics and JSON.
Can be installed as a system service.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		prg := &program{stack: setupStack(nil)}
		cfg := prg.stack.cfg

		svcConfig := &service.Config{
			Name:        "tcam-gige-exporter",
			DisplayName: "GigE Camera Prometheus Exporter",
			Description: "Exposes GigE camera fleet metrics to Prometheus",
			// Arguments passed to the binary when run as a service
			Arguments: []string{
				"exporter",
				"--bridge-url", cfg.Bridge.URL,
				"--port", fmt.Sprint(cfg.Exporter.Port),
				"--interval", cfg.Exporter.Interval.String(),
			},
		}
		if used := viper.ConfigFileUsed(); used != "" {
			if abs, err := filepath.Abs(used); err == nil {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", abs)
			}
		}

		s, err := service.New(prg, svcConfig)
		if err != nil {
			log.Fatal(err)
		}

		if serviceAction != "" {
			if err := service.Control(s, serviceAction); err != nil {
				log.Fatalf("Failed to %s service: %v", serviceAction, err)
			}
			fmt.Printf("Service action '%s' completed successfully.\n", serviceAction)
			return
		}

		// Runs until the service manager or an interrupt stops it.
		logger, err := s.Logger(nil)
		if err != nil {
			log.Fatal(err)
		}
		if err = s.Run(); err != nil {
			logger.Error(err)
		}
	},
}

func init() {
	rootCmd.AddCommand(exporterCmd)

	exporterCmd.Flags().Int("port", 9101, "Port to listen on")
	exporterCmd.Flags().Duration("interval", 30*time.Second, "Camera rediscovery interval")
	exporterCmd.Flags().StringVar(&serviceAction, "service", "", "Service action: install, uninstall, start, stop")

	_ = viper.BindPFlag("exporter.port", exporterCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("exporter.interval", exporterCmd.Flags().Lookup("interval"))
}
