package memory

import (
	"context"
	"sync"

	"aptimaster-sync/internal/domain"
)

// StateRepository is an in-memory implementation of app.StateRepository.
type StateRepository struct {
	mu   sync.RWMutex
	snap domain.Snapshot
}

func NewStateRepository() *StateRepository {
	return &StateRepository{snap: domain.EmptySnapshot()}
}

// NewSeededStateRepository starts from seed (useful for demos and tests).
func NewSeededStateRepository(seed domain.Snapshot) *StateRepository {
	return &StateRepository{snap: seed.Clone()}
}

func (r *StateRepository) Load(_ context.Context) (domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snap.Clone(), nil
}

func (r *StateRepository) AddQuestion(_ context.Context, q domain.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.AddQuestion(q)
	return nil
}

func (r *StateRepository) DeleteQuestion(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.DeleteQuestion(id)
	return nil
}

func (r *StateRepository) AddSubmission(_ context.Context, s domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.PrependSubmission(s)
	return nil
}

func (r *StateRepository) AddFile(_ context.Context, f domain.FileSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snap.PrependFile(f)
	return nil
}
