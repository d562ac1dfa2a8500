package testutils

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/sandeshbnataraj/gitlab-jar-manager/model"
	"github.com/sandeshbnataraj/gitlab-jar-manager/registry"
)

var _ registry.RegistryProvider = (*MemoryRegistry)(nil)

// MemoryRegistry keeps artifacts in memory, keyed by Maven path
type MemoryRegistry struct {
	mu      sync.Mutex
	objects map[string][]byte

	// PutStatus and GetStatus make requests for a file name fail with the given status
	PutStatus map[string]int
	GetStatus map[string]int

	Puts []string
	Gets []string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		objects:   make(map[string][]byte),
		PutStatus: make(map[string]int),
		GetStatus: make(map[string]int),
	}
}

func (m *MemoryRegistry) Put(ctx context.Context, coords model.Coordinates, content io.Reader, size int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Puts = append(m.Puts, coords.MavenPath())
	if status, ok := m.PutStatus[coords.FileName()]; ok {
		return &registry.StatusError{Method: http.MethodPut, URL: m.Location(coords), StatusCode: status}
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.objects[coords.MavenPath()] = data
	return nil
}

func (m *MemoryRegistry) Get(ctx context.Context, coords model.Coordinates) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Gets = append(m.Gets, coords.MavenPath())
	if status, ok := m.GetStatus[coords.FileName()]; ok {
		return nil, &registry.StatusError{Method: http.MethodGet, URL: m.Location(coords), StatusCode: status}
	}

	data, ok := m.objects[coords.MavenPath()]
	if !ok {
		return nil, &registry.StatusError{Method: http.MethodGet, URL: m.Location(coords), StatusCode: http.StatusNotFound}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MemoryRegistry) Location(coords model.Coordinates) string {
	return "mem://" + coords.MavenPath()
}

func (m *MemoryRegistry) Close() error {
	return nil
}

// Object returns the stored content at a Maven path
func (m *MemoryRegistry) Object(mavenPath string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[mavenPath]
	return data, ok
}

// Store adds content at a Maven path
func (m *MemoryRegistry) Store(mavenPath string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[mavenPath] = data
}
