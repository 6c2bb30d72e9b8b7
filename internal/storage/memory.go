package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// LocalFilesPath is where the router serves MemoryStore downloads
const LocalFilesPath = "/files"

var ErrLinkExpired = errors.New("download link expired")

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryStore is a process-local AttachmentStore used in tests and local runs without MinIO
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	now     func() time.Time
}

// NewMemoryStore creates an empty store whose download URLs start with baseURL
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{objects: map[string]memoryObject{}, baseURL: baseURL, now: time.Now}
}

func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return fmt.Errorf("failed to read object: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: buf.Bytes(), contentType: contentType}
	return nil
}

func (m *MemoryStore) PresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.objects[key]; !ok {
		return "", ErrObjectNotFound
	}
	// expires is the unix second after which Fetch refuses the link
	return fmt.Sprintf("%s/%s?expires=%d", m.baseURL, key, m.now().Add(expiry).Unix()), nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Object returns the stored bytes and content type for key
func (m *MemoryStore) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.data, obj.contentType, ok
}

// Fetch resolves a download link produced by PresignedURL
func (m *MemoryStore) Fetch(key string, expires int64) ([]byte, string, error) {
	if m.now().Unix() > expires {
		return nil, "", ErrLinkExpired
	}
	data, contentType, ok := m.Object(key)
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return data, contentType, nil
}
