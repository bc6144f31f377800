package provider

import (
	"context"
	"testing"

	"github.com/cshum/drive-sync/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestGetProviderUnsupported(t *testing.T) {
	_, err := GetProvider(context.Background(), "dropbox", config.Load(t.TempDir(), ""), nil)
	assert.EqualError(t, err, "unsupported provider: dropbox")
}

func TestBucketProvidersNeedBucket(t *testing.T) {
	cfg := config.Load(t.TempDir(), "")
	for _, name := range []string{"gcs", "s3"} {
		_, err := GetProvider(context.Background(), name, cfg, nil)
		assert.ErrorContains(t, err, "needs a bucket", name)
	}
}

func TestGDriveNeedsClientSecrets(t *testing.T) {
	_, err := GetProvider(context.Background(), "gdrive", config.Load(t.TempDir(), ""), nil)
	assert.ErrorContains(t, err, "client secrets")
}
