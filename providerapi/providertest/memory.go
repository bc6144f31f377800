// Package providertest provides an in-memory providerapi.Provider for tests.
package providertest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/cshum/drive-sync/providerapi"
)

type entry struct {
	node     providerapi.Node
	parent   string
	content  []byte
	children []string
}

// Memory keeps a tree of nodes keyed by id. The root has id "".
// Listings are returned in insertion order.
type Memory struct {
	mu      sync.Mutex
	nodes   map[string]*entry
	nextID  int
	Deleted []string
}

func New() *Memory {
	return &Memory{
		nodes: map[string]*entry{
			providerapi.RootID: {node: providerapi.Node{Kind: providerapi.KindFolder}},
		},
	}
}

func (m *Memory) Name() string {
	return "memory"
}

// AddFolder adds a folder and returns its id.
func (m *Memory) AddFolder(parentID, name string) string {
	id, err := m.Create(context.Background(), name, parentID, providerapi.KindFolder, nil)
	if err != nil {
		panic(err)
	}
	return id
}

// AddFile adds a file with the given content and returns its id.
func (m *Memory) AddFile(parentID, name, content string) string {
	id, err := m.Create(context.Background(), name, parentID, providerapi.KindFile, bytes.NewBufferString(content))
	if err != nil {
		panic(err)
	}
	return id
}

// Content returns the stored bytes of a file.
func (m *Memory) Content(id string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.nodes[id]
	if !ok {
		return "", false
	}
	return string(e.content), true
}

// Lookup finds a child of parentID by name.
func (m *Memory) Lookup(parentID, name string) (providerapi.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.nodes[parentID]
	if !ok {
		return providerapi.Node{}, false
	}
	for _, id := range p.children {
		if e := m.nodes[id]; e.node.Name == name {
			return e.node, true
		}
	}
	return providerapi.Node{}, false
}

// Names returns the sorted child names of parentID.
func (m *Memory) Names(parentID string) []string {
	nodes, _ := m.ListChildren(context.Background(), parentID)
	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	sort.Strings(names)
	return names
}

func (m *Memory) ListChildren(_ context.Context, parentID string) ([]providerapi.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.nodes[parentID]
	if !ok || !p.node.IsFolder() {
		return nil, fmt.Errorf("folder %q not found", parentID)
	}
	nodes := make([]providerapi.Node, 0, len(p.children))
	for _, id := range p.children {
		nodes = append(nodes, m.nodes[id].node)
	}
	return nodes, nil
}

func (m *Memory) Download(_ context.Context, id string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.nodes[id]
	if !ok || e.node.IsFolder() {
		return nil, fmt.Errorf("file %q not found", id)
	}
	return io.NopCloser(bytes.NewReader(e.content)), nil
}

func (m *Memory) Create(_ context.Context, name, parentID string, kind providerapi.Kind, content io.Reader) (string, error) {
	var data []byte
	if kind == providerapi.KindFile && content != nil {
		var err error
		if data, err = io.ReadAll(content); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.nodes[parentID]
	if !ok || !p.node.IsFolder() {
		return "", fmt.Errorf("folder %q not found", parentID)
	}
	m.nextID++
	id := fmt.Sprintf("id-%d", m.nextID)
	m.nodes[id] = &entry{
		node:    providerapi.Node{ID: id, Name: name, Kind: kind, Size: int64(len(data))},
		parent:  parentID,
		content: data,
	}
	p.children = append(p.children, id)
	return id, nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.nodes[id]
	if !ok || id == providerapi.RootID {
		return fmt.Errorf("node %q not found", id)
	}
	p := m.nodes[e.parent]
	for i, c := range p.children {
		if c == id {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	m.remove(id)
	m.Deleted = append(m.Deleted, id)
	return nil
}

func (m *Memory) remove(id string) {
	for _, c := range m.nodes[id].children {
		m.remove(c)
	}
	delete(m.nodes, id)
}
