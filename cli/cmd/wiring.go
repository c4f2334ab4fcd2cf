package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/shirogane-dev/handseal/adapter"
	adapterredis "github.com/shirogane-dev/handseal/adapter/redis"
	"github.com/shirogane-dev/handseal/adapter/webhook"
	"github.com/shirogane-dev/handseal/authority"
	"github.com/shirogane-dev/handseal/cli/config"
	"github.com/shirogane-dev/handseal/integrity"
	"github.com/shirogane-dev/handseal/outbox"
)

// loadConfig reads the --config file. The default path is optional: a
// missing handseal.yaml yields a zero config so flag-only invocations
// work. An explicitly named file must exist.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	if _, err := os.Stat(path); err != nil && !c.IsSet("config") {
		return &config.Config{}, nil
	}
	return config.Load(path)
}

// resolveIdentity picks the player identity: flag over config.
func resolveIdentity(c *cli.Context, cfg *config.Config) (string, error) {
	identity := c.String("identity")
	if identity == "" {
		identity = cfg.Identity
	}
	if identity == "" {
		return "", fmt.Errorf("no identity: set --identity or the identity config key")
	}
	return identity, nil
}

// buildInvoker constructs the authority HTTP invoker from config.
func buildInvoker(c *cli.Context, cfg *config.Config) (authority.Invoker, error) {
	endpoint := c.String("endpoint")
	if endpoint == "" {
		endpoint = cfg.Authority.Endpoint
	}
	if endpoint == "" {
		return nil, fmt.Errorf("no authority endpoint: set --endpoint or the authority.endpoint config key")
	}
	return authority.NewHTTPInvoker(authority.HTTPConfig{
		Endpoint: endpoint,
		Headers:  cfg.Authority.Headers,
		Timeout:  cfg.Authority.Timeout.Duration,
	})
}

// buildStore constructs the outbox persistence backend from config.
// Returns nil for the memory backend; the outbox treats a nil store as
// in-memory only.
func buildStore(ctx context.Context, cfg *config.Config) (outbox.Store, error) {
	switch cfg.Storage.Backend {
	case "", "memory":
		return nil, nil
	case "file":
		return outbox.NewFileStore(cfg.Storage.Path)
	case "redis":
		return outbox.NewRedisStore(cfg.Storage.URL)
	case "s3":
		return outbox.NewS3Store(ctx, outbox.S3Config{
			Bucket:       cfg.Storage.Bucket,
			Prefix:       cfg.Storage.Prefix,
			Region:       cfg.Storage.Region,
			Endpoint:     cfg.Storage.Endpoint,
			UsePathStyle: cfg.Storage.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

// buildAdapters constructs downstream notification adapters from config.
func buildAdapters(cfg *config.Config) ([]adapter.Adapter, error) {
	switch cfg.Adapter.Type {
	case "":
		return nil, nil
	case "webhook":
		retries := webhook.DefaultRetries
		if cfg.Adapter.Retries != nil {
			retries = *cfg.Adapter.Retries
		}
		a, err := webhook.New(webhook.Config{
			URL:     cfg.Adapter.URL,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return []adapter.Adapter{a}, nil
	case "redis":
		retries := adapterredis.DefaultRetries
		if cfg.Adapter.Retries != nil {
			retries = *cfg.Adapter.Retries
		}
		a, err := adapterredis.New(adapterredis.Config{
			URL:     cfg.Adapter.URL,
			Channel: cfg.Adapter.Channel,
			Timeout: cfg.Adapter.Timeout.Duration,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return []adapter.Adapter{a}, nil
	default:
		return nil, fmt.Errorf("unknown adapter type: %s", cfg.Adapter.Type)
	}
}

// buildHasher constructs the integrity hasher from config. An empty
// algorithm uses the SHA-256 default.
func buildHasher(cfg *config.Config) *integrity.Hasher {
	if cfg.HashAlgorithm == "" {
		return nil
	}
	return integrity.NewWithAlgorithm(integrity.Algorithm(cfg.HashAlgorithm))
}
