package providerapi

import (
	"context"
	"io"
)

// RootID addresses the top-level container of a provider.
const RootID = ""

type Kind int

const (
	KindFile Kind = iota
	KindFolder
)

func (k Kind) String() string {
	if k == KindFolder {
		return "Folder"
	}
	return "File"
}

// Node is a file or folder entry in the remote hierarchy.
type Node struct {
	ID       string
	Name     string
	Kind     Kind
	MimeType string
	Size     int64
}

func (n Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// Provider is the remote surface consumed by the walkers and browsers.
// Every call is a single blocking request against the remote service.
type Provider interface {
	Name() string
	ListChildren(ctx context.Context, parentID string) ([]Node, error)
	Download(ctx context.Context, id string) (io.ReadCloser, error)
	// Create makes a file or folder named name under parentID and returns
	// its id. content is read only for KindFile and may be nil for folders.
	Create(ctx context.Context, name, parentID string, kind Kind, content io.Reader) (string, error)
	Delete(ctx context.Context, id string) error
}
