package testutil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/dalemusser/stratasite/internal/app/system/objectstore"
)

// MemObject is one blob held by MemStore.
type MemObject struct {
	Data        []byte
	ContentType string
}

// MemStore is an in-memory objectstore.Store for tests. Set PutErr or
// DeleteErr to simulate backend failures.
type MemStore struct {
	mu        sync.Mutex
	Objects   map[string]MemObject
	PutErr    error
	DeleteErr error
	Deleted   []string
}

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{Objects: map[string]MemObject{}}
}

func (m *MemStore) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[key] = MemObject{Data: b, ContentType: contentType}
	return nil
}

func (m *MemStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.Objects[key]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.Data)), nil
}

func (m *MemStore) Delete(_ context.Context, key string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, key)
	m.Deleted = append(m.Deleted, key)
	return nil
}

func (m *MemStore) URL(key string) string { return "/files/" + key }

func (m *MemStore) Bucket() string { return "test-bucket" }

func (m *MemStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.Objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Object returns the blob stored at key.
func (m *MemStore) Object(key string) (MemObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.Objects[key]
	return obj, ok
}

// Len reports how many blobs are stored.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}

// ErrBackend is a canned storage failure.
var ErrBackend = errors.New("backend unavailable")
