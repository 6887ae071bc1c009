package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/BradenHooton/tripshare/internal/models"
)

// MemoryProvider keeps objects in process memory. It backs local development
// and tests.
type MemoryProvider struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

func NewMemoryProvider(baseURL string) *MemoryProvider {
	if baseURL == "" {
		baseURL = "memory://media"
	}
	return &MemoryProvider{
		objects: make(map[string][]byte),
		baseURL: baseURL,
	}
}

func (p *MemoryProvider) Upload(_ context.Context, key string, body io.Reader, _ int64, _ string) (*UploadResult, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return nil, fmt.Errorf("memory upload: %w", err)
	}

	p.mu.Lock()
	p.objects[key] = buf.Bytes()
	p.mu.Unlock()

	return &UploadResult{URL: joinURL(p.baseURL, key), PublicID: key}, nil
}

func (p *MemoryProvider) Delete(_ context.Context, publicID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.objects[publicID]; !ok {
		return fmt.Errorf("memory delete %q: %w", publicID, models.ErrNotFound)
	}
	delete(p.objects, publicID)
	return nil
}

func (p *MemoryProvider) DownloadURL(_ context.Context, publicID, fileURL string) (string, error) {
	if fileURL != "" {
		return fileURL, nil
	}
	return joinURL(p.baseURL, publicID), nil
}

// Object returns a stored object's bytes
func (p *MemoryProvider) Object(key string) ([]byte, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	b, ok := p.objects[key]
	return b, ok
}

func (p *MemoryProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.objects)
}
