package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cshum/drive-sync/pkg/utils"
	"github.com/cshum/drive-sync/providerapi"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCS exposes one Cloud Storage bucket as a folder tree. Node ids are
// object keys; folder ids end with "/".
type GCS struct {
	client *storage.Client
	bucket string
	logger *logrus.Logger
}

func New(ctx context.Context, bucket string, ts oauth2.TokenSource, logger *logrus.Logger) (*GCS, error) {
	client, err := storage.NewClient(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("unable to create storage client: %w", err)
	}
	return NewWithClient(client, bucket, logger), nil
}

func NewWithClient(client *storage.Client, bucket string, logger *logrus.Logger) *GCS {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GCS{client: client, bucket: bucket, logger: logger}
}

func (g *GCS) Name() string {
	return "gs://" + g.bucket
}

func (g *GCS) ListChildren(ctx context.Context, parentID string) ([]providerapi.Node, error) {
	prefix := utils.FolderPrefix(parentID)
	g.logger.WithFields(logrus.Fields{
		"bucket": g.bucket,
		"prefix": prefix,
	}).Debug("Listing objects")

	var nodes []providerapi.Node
	it := g.client.Bucket(g.bucket).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gs://%s/%s: %w", g.bucket, prefix, err)
		}
		switch {
		case attrs.Prefix != "":
			nodes = append(nodes, providerapi.Node{
				ID:   attrs.Prefix,
				Name: utils.KeyName(attrs.Prefix),
				Kind: providerapi.KindFolder,
			})
		case attrs.Name == prefix:
			// folder placeholder
		default:
			nodes = append(nodes, providerapi.Node{
				ID:       attrs.Name,
				Name:     utils.KeyName(attrs.Name),
				Kind:     providerapi.KindFile,
				MimeType: attrs.ContentType,
				Size:     attrs.Size,
			})
		}
	}
	return nodes, nil
}

func (g *GCS) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	if utils.IsFolderKey(id) {
		return nil, fmt.Errorf("%s is a folder", id)
	}
	r, err := g.client.Bucket(g.bucket).Object(id).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", g.bucket, id, err)
	}
	return r, nil
}

func (g *GCS) Create(ctx context.Context, name, parentID string, kind providerapi.Kind, content io.Reader) (string, error) {
	key, err := utils.ObjectKey(parentID, name, kind == providerapi.KindFolder)
	if err != nil {
		return "", err
	}
	if kind == providerapi.KindFolder || content == nil {
		content = strings.NewReader("")
	}

	g.logger.WithFields(logrus.Fields{
		"bucket": g.bucket,
		"key":    key,
	}).Debug("Writing object")
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(w, content); err != nil {
		w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", g.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("write gs://%s/%s: %w", g.bucket, key, err)
	}
	return key, nil
}

// Delete removes an object, or every object under a folder prefix.
func (g *GCS) Delete(ctx context.Context, id string) error {
	if id == providerapi.RootID {
		return errors.New("refusing to delete the bucket root")
	}
	bucket := g.client.Bucket(g.bucket)
	if !utils.IsFolderKey(id) {
		if err := bucket.Object(id).Delete(ctx); err != nil {
			return fmt.Errorf("delete gs://%s/%s: %w", g.bucket, id, err)
		}
		return nil
	}

	it := bucket.Objects(ctx, &storage.Query{Prefix: id})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("list gs://%s/%s: %w", g.bucket, id, err)
		}
		g.logger.WithField("key", attrs.Name).Debug("Deleting object")
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil {
			return fmt.Errorf("delete gs://%s/%s: %w", g.bucket, attrs.Name, err)
		}
	}
}
