package sync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cshum/drive-sync/internal/config"
	"github.com/cshum/drive-sync/pkg/utils"
	"github.com/cshum/drive-sync/providerapi"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	okColor   = color.New(color.FgGreen)
	infoColor = color.New(color.FgCyan)
)

// SyncManager mirrors trees between the local filesystem and a provider.
// Walks are sequential and stop at the first error.
type SyncManager struct {
	provider providerapi.Provider
	out      io.Writer
	logger   *logrus.Logger
	ignore   mapset.Set[string]
}

func NewSyncManager(p providerapi.Provider, c *config.Config) *SyncManager {
	return &SyncManager{
		provider: p,
		out:      os.Stdout,
		logger:   logrus.StandardLogger(),
		ignore:   mapset.NewSet[string](c.GetList("ignore")...),
	}
}

func (sm *SyncManager) SetOutput(w io.Writer) {
	sm.out = w
}

func (sm *SyncManager) SetLogger(l *logrus.Logger) {
	sm.logger = l
}

func (sm *SyncManager) Provider() providerapi.Provider {
	return sm.provider
}

// Ignored reports whether name is in the configured ignore list.
func (sm *SyncManager) Ignored(name string) bool {
	return sm.ignore.Contains(name)
}

// DownloadFile writes the content of remote file id to dest, creating
// missing parent directories.
func (sm *SyncManager) DownloadFile(ctx context.Context, id, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}

	body, err := sm.provider.Download(ctx, id)
	if err != nil {
		return err
	}
	defer body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	sm.logger.WithFields(logrus.Fields{
		"id":    id,
		"path":  dest,
		"bytes": n,
	}).Debug("Downloaded file")
	okColor.Fprintf(sm.out, "Downloaded: %s\n", dest)
	return nil
}

// DownloadFolder recreates the remote folder id under dest.
func (sm *SyncManager) DownloadFolder(ctx context.Context, id, dest string) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	nodes, err := sm.provider.ListChildren(ctx, id)
	if err != nil {
		return err
	}
	for _, node := range nodes {
		if sm.Ignored(node.Name) {
			sm.logger.WithField("name", node.Name).Debug("Skipping ignored entry")
			continue
		}
		path := filepath.Join(dest, LocalName(node.Name))
		if node.IsFolder() {
			err = sm.DownloadFolder(ctx, node.ID, path)
		} else {
			err = sm.DownloadFile(ctx, node.ID, path)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// UploadFile creates a remote file named after path under parentID.
func (sm *SyncManager) UploadFile(ctx context.Context, path, parentID string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	id, err := sm.provider.Create(ctx, filepath.Base(path), parentID, providerapi.KindFile, f)
	if err != nil {
		return "", err
	}
	sm.logger.WithFields(logrus.Fields{
		"id":     id,
		"path":   path,
		"parent": parentID,
	}).Debug("Uploaded file")
	okColor.Fprintf(sm.out, "Uploaded file: %s\n", path)
	return id, nil
}

// UploadFolder creates a remote folder named after path under parentID and
// uploads the local tree into it.
func (sm *SyncManager) UploadFolder(ctx context.Context, path, parentID string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	id, err := sm.provider.Create(ctx, filepath.Base(abs), parentID, providerapi.KindFolder, nil)
	if err != nil {
		return "", err
	}
	infoColor.Fprintf(sm.out, "Created remote folder: %s -> %s\n", path, id)

	entries, err := utils.ListDir(path)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if sm.Ignored(entry.Name) {
			sm.logger.WithField("name", entry.Name).Debug("Skipping ignored entry")
			continue
		}
		if entry.IsDir {
			_, err = sm.UploadFolder(ctx, entry.Path, id)
		} else {
			_, err = sm.UploadFile(ctx, entry.Path, id)
		}
		if err != nil {
			return "", err
		}
	}
	return id, nil
}

// LocalName maps a remote name to a single safe path element.
func LocalName(name string) string {
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	if name == "" || name == "." || name == ".." {
		return "_"
	}
	return name
}
