package provider

import (
	"context"
	"fmt"
	"os"

	"github.com/cshum/drive-sync/internal/auth"
	"github.com/cshum/drive-sync/internal/config"
	"github.com/cshum/drive-sync/internal/provider/gcs"
	"github.com/cshum/drive-sync/internal/provider/gdrive"
	"github.com/cshum/drive-sync/internal/provider/s3"
	"github.com/cshum/drive-sync/providerapi"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const (
	defaultRequestsPerSecond = 10
	defaultChunkSizeMB       = 8
)

// Names lists the supported providers.
var Names = []string{"gdrive", "gcs", "s3"}

// GetProvider builds the named provider. OAuth providers load the cached
// credential, logging in interactively when none is cached.
func GetProvider(ctx context.Context, providerName string, cfg *config.Config, logger *logrus.Logger) (providerapi.Provider, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	switch providerName {
	case "gdrive":
		a, err := newAuthenticator(cfg, providerName, logger)
		if err != nil {
			return nil, err
		}
		ts, err := a.TokenSource(ctx)
		if err != nil {
			return nil, err
		}
		return gdrive.New(ctx, ts, gdrive.Options{
			RequestsPerSecond: cfg.GetFloat("requests_per_second", defaultRequestsPerSecond),
			ChunkSize:         int(cfg.GetFloat("chunk_size_mb", defaultChunkSizeMB) * (1 << 20)),
			Logger:            logger,
		})
	case "gcs":
		bucket, err := requireBucket(cfg, providerName)
		if err != nil {
			return nil, err
		}
		a, err := newAuthenticator(cfg, providerName, logger)
		if err != nil {
			return nil, err
		}
		ts, err := a.TokenSource(ctx)
		if err != nil {
			return nil, err
		}
		return gcs.New(ctx, bucket, ts, logger)
	case "s3":
		bucket, err := requireBucket(cfg, providerName)
		if err != nil {
			return nil, err
		}
		return s3.New(ctx, s3.Options{
			Bucket:    bucket,
			Region:    cfg.GetString("aws_region", ""),
			Endpoint:  cfg.GetString("aws_endpoint", ""),
			PathStyle: cfg.GetBool("aws_path_style"),
			Logger:    logger,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// FromCLI builds the provider chosen by the global --provider flag, falling
// back to the configured one.
func FromCLI(c *cli.Context, cfg *config.Config) (providerapi.Provider, error) {
	return GetProvider(c.Context, cfg.ProviderName(c.String("provider")), cfg, logrus.StandardLogger())
}

func newAuthenticator(cfg *config.Config, providerName string, logger *logrus.Logger) (*auth.Authenticator, error) {
	a, err := auth.NewAuthenticator(cfg, providerName)
	if err != nil {
		return nil, err
	}
	a.Out = os.Stdout
	a.Logger = logger
	return a, nil
}

func requireBucket(cfg *config.Config, providerName string) (string, error) {
	bucket := cfg.GetString("bucket", "")
	if bucket == "" {
		return "", fmt.Errorf("provider %s needs a bucket, run 'drivesync config set bucket <name>'", providerName)
	}
	return bucket, nil
}
