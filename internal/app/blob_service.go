package app

import (
	"context"

	"aptimaster-sync/internal/domain"
)

// BlobRepository stores opaque snapshot payloads keyed by identifier (in-memory, Redis).
type BlobRepository interface {
	// Create stores data under a new id; it fails if the id is taken.
	Create(ctx context.Context, id string, data []byte) error
	// Put overwrites an existing id and returns domain.ErrNotFound for unknown ids.
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) ([]byte, error)
}

// BlobService implements the remote shared store: create, overwrite and read snapshots by
// server-issued identifier. It offers no namespaces and no versioning; any write replaces
// the previous payload.
type BlobService struct {
	repo  BlobRepository
	newID func() string
}

func NewBlobService(repo BlobRepository) *BlobService {
	return &BlobService{repo: repo, newID: domain.NewID}
}

// Create validates payload as a Snapshot and stores it under a fresh identifier.
func (s *BlobService) Create(ctx context.Context, payload []byte) (string, error) {
	if _, err := domain.DecodeSnapshot(payload); err != nil {
		return "", err
	}
	id := s.newID()
	if err := s.repo.Create(ctx, id, payload); err != nil {
		return "", err
	}
	return id, nil
}

func (s *BlobService) Update(ctx context.Context, id string, payload []byte) error {
	if _, err := domain.DecodeSnapshot(payload); err != nil {
		return err
	}
	return s.repo.Put(ctx, id, payload)
}

func (s *BlobService) Fetch(ctx context.Context, id string) ([]byte, error) {
	return s.repo.Get(ctx, id)
}
