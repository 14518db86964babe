package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/TheImagingSource/tiscamera/internal/auth"
	"github.com/TheImagingSource/tiscamera/internal/gige"
)

// TokenHeader carries the signed token on every request.
const TokenHeader = "x-gige-token"

// BridgeClient talks to the gige daemon that owns the vendor camera library.
// It implements gige.Bridge.
type BridgeClient struct {
	HTTP   *resty.Client
	Config ClientConfig
}

type ClientConfig struct {
	BaseURL string
	Nonce   string // For Auth Token
	Key     string // For Auth Token

	// Timeout bounds every call except firmware uploads, which are bounded
	// by the caller's context.
	Timeout time.Duration
}

var _ gige.Bridge = (*BridgeClient)(nil)

func New(cfg ClientConfig) *BridgeClient {
	r := resty.New()
	r.SetBaseURL(cfg.BaseURL)

	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")

	// The token embeds a timestamp, so sign each request as it goes out.
	if cfg.Key != "" {
		r.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			req.SetHeader(TokenHeader, auth.GenerateToken(cfg.Nonce, cfg.Key))
			return nil
		})
	}

	return &BridgeClient{
		HTTP:   r,
		Config: cfg,
	}
}

// request returns a request bound to ctx and the configured call timeout.
func (c *BridgeClient) request(ctx context.Context) (*resty.Request, context.CancelFunc) {
	cancel := context.CancelFunc(func() {})
	if c.Config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.Config.Timeout)
	}
	return c.HTTP.R().SetContext(ctx), cancel
}

// Health checks that the daemon is up.
func (c *BridgeClient) Health(ctx context.Context) error {
	req, cancel := c.request(ctx)
	defer cancel()

	resp, err := req.Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("bridge unhealthy: %s", resp.Status())
	}
	return nil
}
