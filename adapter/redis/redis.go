// Package redis delivers run-recorded events over Redis pub/sub.
//
// Each event is published as JSON onto one channel. Connection errors
// are retried with exponential backoff; with no subscribers the PUBLISH
// still succeeds and the event is simply dropped, which matches the
// best-effort contract of the adapter boundary.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/shirogane-dev/handseal/adapter"
)

// DefaultChannel receives events when no channel is configured.
const DefaultChannel = "handseal:run_recorded"

// DefaultTimeout bounds a single PUBLISH when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the retry count used when the config leaves it unset.
const DefaultRetries = 3

const backoffUnit = 500 * time.Millisecond

// Config configures the Redis pub/sub adapter.
type Config struct {
	// URL is the Redis connection URL (required), in the form
	// redis://[:password@]host:port[/db].
	URL string
	// Channel is the pub/sub channel name.
	Channel string
	// Timeout bounds each individual PUBLISH.
	Timeout time.Duration
	// Retries is how many times a failed publish is re-attempted.
	Retries int
}

// Adapter publishes run-recorded events onto a single Redis channel.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New parses the connection URL and builds the adapter.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Publish sends event as JSON onto the configured channel, retrying
// until the attempt budget is spent.
func (a *Adapter) Publish(ctx context.Context, event *adapter.RunRecordedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	attempts := 1 + a.config.Retries
	var lastErr error

	for i := range attempts {
		if i > 0 {
			if err := adapter.Backoff(ctx, i, backoffUnit); err != nil {
				return fmt.Errorf("redis: context canceled during backoff: %w", err)
			}
		} else if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}

		lastErr = a.publish(ctx, body)
		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// publish runs one PUBLISH under the configured per-attempt timeout.
func (a *Adapter) publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()
	return a.client.Publish(ctx, a.config.Channel, body).Err()
}

// Close shuts down the underlying Redis client.
func (a *Adapter) Close() error {
	return a.client.Close()
}

var _ adapter.Adapter = (*Adapter)(nil)
