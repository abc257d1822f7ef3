package memory

import (
	"context"
	"fmt"
	"sync"

	"aptimaster-sync/internal/domain"
)

// BlobRepository is an in-memory implementation of app.BlobRepository.
type BlobRepository struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewBlobRepository() *BlobRepository {
	return &BlobRepository{blobs: make(map[string][]byte)}
}

func (r *BlobRepository) Create(_ context.Context, id string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blobs[id]; ok {
		return fmt.Errorf("blob %s already exists", id)
	}
	r.blobs[id] = append([]byte(nil), data...)
	return nil
}

func (r *BlobRepository) Put(_ context.Context, id string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blobs[id]; !ok {
		return domain.ErrNotFound
	}
	r.blobs[id] = append([]byte(nil), data...)
	return nil
}

func (r *BlobRepository) Get(_ context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	data, ok := r.blobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Len reports how many blobs are stored.
func (r *BlobRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
