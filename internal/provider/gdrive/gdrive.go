package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/cshum/drive-sync/providerapi"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	FolderMimeType = "application/vnd.google-apps.folder"
	nativePrefix   = "application/vnd.google-apps."
	listFields     = "nextPageToken, files(id, name, mimeType, size)"
	rootAlias      = "root"
)

// exportFormats maps Google-native document types to the format they are
// exported as, since they have no downloadable content of their own.
var exportFormats = map[string]string{
	"application/vnd.google-apps.document":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.google-apps.spreadsheet":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.google-apps.presentation": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.google-apps.drawing":      "application/pdf",
}

type Options struct {
	// RequestsPerSecond caps API calls; zero or less disables the limit.
	RequestsPerSecond float64
	// ChunkSize is the resumable upload chunk size in bytes.
	ChunkSize int
	Logger    *logrus.Logger
}

type GDrive struct {
	service   *drive.Service
	limiter   *rate.Limiter
	chunkSize int
	logger    *logrus.Logger
}

func New(ctx context.Context, ts oauth2.TokenSource, opts Options) (*GDrive, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	return NewWithService(svc, opts), nil
}

func NewWithService(svc *drive.Service, opts Options) *GDrive {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := int(math.Max(1, math.Ceil(opts.RequestsPerSecond)))
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = googleapi.DefaultUploadChunkSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &GDrive{
		service:   svc,
		limiter:   rate.NewLimiter(limit, burst),
		chunkSize: chunkSize,
		logger:    logger,
	}
}

func (g *GDrive) Name() string {
	return "Google Drive"
}

func (g *GDrive) ListChildren(ctx context.Context, parentID string) ([]providerapi.Node, error) {
	if parentID == providerapi.RootID {
		parentID = rootAlias
	}
	q := fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(parentID))

	var nodes []providerapi.Node
	pageToken := ""
	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		g.logger.WithFields(logrus.Fields{
			"q":         q,
			"pageToken": pageToken,
		}).Debug("Listing files")

		call := g.service.Files.List().Q(q).Fields(listFields).OrderBy("folder,name").Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return nil, g.wrap("list "+parentID, err)
		}
		for _, f := range list.Files {
			nodes = append(nodes, toNode(f))
		}
		if list.NextPageToken == "" {
			break
		}
		pageToken = list.NextPageToken
	}
	return nodes, nil
}

func (g *GDrive) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	f, err := g.service.Files.Get(id).Fields("id, name, mimeType").Context(ctx).Do()
	if err != nil {
		return nil, g.wrap("get "+id, err)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if export, ok := exportFormats[f.MimeType]; ok {
		g.logger.WithFields(logrus.Fields{
			"id":     id,
			"from":   f.MimeType,
			"export": export,
		}).Debug("Exporting native document")
		resp, err := g.service.Files.Export(id, export).Context(ctx).Download()
		if err != nil {
			return nil, g.wrap("export "+id, err)
		}
		return resp.Body, nil
	}
	if strings.HasPrefix(f.MimeType, nativePrefix) {
		return nil, fmt.Errorf("%s (%s) has no downloadable content", f.Name, f.MimeType)
	}

	resp, err := g.service.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, g.wrap("download "+id, err)
	}
	return resp.Body, nil
}

func (g *GDrive) Create(ctx context.Context, name, parentID string, kind providerapi.Kind, content io.Reader) (string, error) {
	f := &drive.File{Name: name}
	if parentID != providerapi.RootID {
		f.Parents = []string{parentID}
	}
	call := g.service.Files.Create(f).Fields("id")
	if kind == providerapi.KindFolder {
		f.MimeType = FolderMimeType
	} else {
		if content == nil {
			content = strings.NewReader("")
		}
		call = call.Media(content, googleapi.ChunkSize(g.chunkSize))
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	g.logger.WithFields(logrus.Fields{
		"name":   name,
		"parent": parentID,
		"kind":   kind.String(),
	}).Debug("Creating file")
	created, err := call.Context(ctx).Do()
	if err != nil {
		return "", g.wrap("create "+name, err)
	}
	return created.Id, nil
}

func (g *GDrive) Delete(ctx context.Context, id string) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	g.logger.WithField("id", id).Debug("Deleting file")
	if err := g.service.Files.Delete(id).Context(ctx).Do(); err != nil {
		return g.wrap("delete "+id, err)
	}
	return nil
}

func (g *GDrive) wrap(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		g.logger.WithFields(logrus.Fields{
			"status":  apiErr.Code,
			"message": apiErr.Message,
		}).Debug("Drive API error")
	}
	return fmt.Errorf("drive %s: %w", op, err)
}

func toNode(f *drive.File) providerapi.Node {
	kind := providerapi.KindFile
	if f.MimeType == FolderMimeType {
		kind = providerapi.KindFolder
	}
	return providerapi.Node{
		ID:       f.Id,
		Name:     f.Name,
		Kind:     kind,
		MimeType: f.MimeType,
		Size:     f.Size,
	}
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
