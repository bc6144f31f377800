package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cshum/drive-sync/pkg/utils"
	"github.com/cshum/drive-sync/providerapi"
	"github.com/sirupsen/logrus"
)

// Client is the subset of the S3 API the provider calls.
type Client interface {
	s3.ListObjectsV2APIClient
	manager.UploadAPIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
	Logger    *logrus.Logger
}

// S3 exposes one bucket as a folder tree. Node ids are object keys;
// folder ids end with "/".
type S3 struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	logger   *logrus.Logger
}

// New builds a client from the AWS default credential chain.
func New(ctx context.Context, opts Options) (*S3, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS configuration: %w", err)
	}
	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if opts.Region != "" {
			o.Region = opts.Region
		}
		o.UsePathStyle = opts.PathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return NewWithClient(client, opts.Bucket, opts.Logger), nil
}

func NewWithClient(client Client, bucket string, logger *logrus.Logger) *S3 {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &S3{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   bucket,
		logger:   logger,
	}
}

func (p *S3) Name() string {
	return "s3://" + p.bucket
}

func (p *S3) ListChildren(ctx context.Context, parentID string) ([]providerapi.Node, error) {
	prefix := utils.FolderPrefix(parentID)
	p.logger.WithFields(logrus.Fields{
		"bucket": p.bucket,
		"prefix": prefix,
	}).Debug("Listing objects")

	var nodes []providerapi.Node
	pager := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(p.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", p.bucket, prefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			key := aws.ToString(cp.Prefix)
			nodes = append(nodes, providerapi.Node{
				ID:   key,
				Name: utils.KeyName(key),
				Kind: providerapi.KindFolder,
			})
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue
			}
			nodes = append(nodes, providerapi.Node{
				ID:   key,
				Name: utils.KeyName(key),
				Kind: providerapi.KindFile,
				Size: aws.ToInt64(obj.Size),
			})
		}
	}
	return nodes, nil
}

func (p *S3) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	if utils.IsFolderKey(id) {
		return nil, fmt.Errorf("%s is a folder", id)
	}
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", p.bucket, id, err)
	}
	return out.Body, nil
}

func (p *S3) Create(ctx context.Context, name, parentID string, kind providerapi.Kind, content io.Reader) (string, error) {
	key, err := utils.ObjectKey(parentID, name, kind == providerapi.KindFolder)
	if err != nil {
		return "", err
	}
	if kind == providerapi.KindFolder || content == nil {
		content = strings.NewReader("")
	}

	p.logger.WithFields(logrus.Fields{
		"bucket": p.bucket,
		"key":    key,
	}).Debug("Uploading object")
	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
		Body:   content,
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", p.bucket, key, err)
	}
	return key, nil
}

// Delete removes an object, or every object under a folder prefix.
func (p *S3) Delete(ctx context.Context, id string) error {
	if id == providerapi.RootID {
		return errors.New("refusing to delete the bucket root")
	}
	if !utils.IsFolderKey(id) {
		return p.deleteObject(ctx, id)
	}

	pager := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String(id),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("list s3://%s/%s: %w", p.bucket, id, err)
		}
		for _, obj := range page.Contents {
			if err := p.deleteObject(ctx, aws.ToString(obj.Key)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *S3) deleteObject(ctx context.Context, key string) error {
	p.logger.WithField("key", key).Debug("Deleting object")
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete s3://%s/%s: %w", p.bucket, key, err)
	}
	return nil
}
