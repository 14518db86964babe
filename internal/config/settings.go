package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/viper"
)

// Config is the typed view of the viper keys.
type Config struct {
	Bridge   BridgeConfig
	Upload   UploadConfig
	Exporter ExporterConfig
	Log      LogConfig
}

type BridgeConfig struct {
	URL     string
	Key     string
	Nonce   string
	Timeout time.Duration
}

type UploadConfig struct {
	MaxWorkers     int
	SettleDelay    time.Duration
	Timeout        time.Duration // negative disables
	RenderInterval time.Duration
}

type ExporterConfig struct {
	Port     int
	Interval time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// SetDefaults registers the default for every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("bridge.url", "http://127.0.0.1:8642")
	v.SetDefault("bridge.key", "")
	v.SetDefault("bridge.nonce", "")
	v.SetDefault("bridge.timeout", 15*time.Second)

	v.SetDefault("upload.max_workers", 8)
	v.SetDefault("upload.settle_delay", time.Second)
	v.SetDefault("upload.timeout", 30*time.Minute)
	v.SetDefault("upload.render_interval", 500*time.Millisecond)

	v.SetDefault("exporter.port", 9101)
	v.SetDefault("exporter.interval", 30*time.Second)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "text")
}

// Load returns the validated configuration held by the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

func LoadFrom(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		Bridge: BridgeConfig{
			URL:     v.GetString("bridge.url"),
			Key:     v.GetString("bridge.key"),
			Nonce:   v.GetString("bridge.nonce"),
			Timeout: v.GetDuration("bridge.timeout"),
		},
		Upload: UploadConfig{
			MaxWorkers:     v.GetInt("upload.max_workers"),
			SettleDelay:    v.GetDuration("upload.settle_delay"),
			Timeout:        v.GetDuration("upload.timeout"),
			RenderInterval: v.GetDuration("upload.render_interval"),
		},
		Exporter: ExporterConfig{
			Port:     v.GetInt("exporter.port"),
			Interval: v.GetDuration("exporter.interval"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Bridge.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("bridge.url: %q is not an absolute URL", c.Bridge.URL))
	}
	if c.Bridge.Timeout < 0 {
		errs = append(errs, errors.New("bridge.timeout must not be negative"))
	}
	if c.Upload.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("upload.max_workers must be at least 1, got %d", c.Upload.MaxWorkers))
	}
	if c.Upload.SettleDelay < 0 {
		errs = append(errs, errors.New("upload.settle_delay must not be negative"))
	}
	if c.Upload.RenderInterval <= 0 {
		errs = append(errs, errors.New("upload.render_interval must be positive"))
	}
	if c.Exporter.Port < 1 || c.Exporter.Port > 65535 {
		errs = append(errs, fmt.Errorf("exporter.port: %d out of range", c.Exporter.Port))
	}
	if c.Exporter.Interval <= 0 {
		errs = append(errs, errors.New("exporter.interval must be positive"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
