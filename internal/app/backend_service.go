package app

import (
	"context"

	"aptimaster-sync/internal/domain"
)

// StateRepository stores the local backend's authoritative state (in-memory, Postgres).
type StateRepository interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	// AddQuestion ignores a question whose id already exists.
	AddQuestion(ctx context.Context, q domain.Question) error
	// DeleteQuestion removes the question and every submission referencing it.
	DeleteQuestion(ctx context.Context, id string) error
	AddSubmission(ctx context.Context, s domain.Submission) error
	AddFile(ctx context.Context, f domain.FileSubmission) error
}

// BackendService holds the local backend use cases served over REST.
type BackendService struct {
	repo StateRepository
	feed *RevisionFeed
}

func NewBackendService(repo StateRepository, feed *RevisionFeed) *BackendService {
	if feed == nil {
		feed = NewRevisionFeed()
	}
	return &BackendService{repo: repo, feed: feed}
}

// State returns the full state, stamped with the time of the latest change.
func (s *BackendService) State(ctx context.Context) (domain.Snapshot, error) {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snap = snap.Clone()
	snap.LastUpdated = s.feed.Current().UpdatedAt
	return snap, nil
}

func (s *BackendService) AddQuestion(ctx context.Context, q domain.Question) error {
	if err := domain.ValidateQuestion(q); err != nil {
		return err
	}
	if err := s.repo.AddQuestion(ctx, q); err != nil {
		return err
	}
	s.feed.Bump()
	return nil
}

// DeleteQuestion cascades to the question's submissions. Unknown ids succeed.
func (s *BackendService) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.feed.Bump()
	return nil
}

func (s *BackendService) AddSubmission(ctx context.Context, sub domain.Submission) error {
	if err := domain.ValidateSubmission(sub); err != nil {
		return err
	}
	if err := s.repo.AddSubmission(ctx, sub); err != nil {
		return err
	}
	s.feed.Bump()
	return nil
}

func (s *BackendService) AddFile(ctx context.Context, f domain.FileSubmission) error {
	if err := domain.ValidateFile(f); err != nil {
		return err
	}
	if err := s.repo.AddFile(ctx, f); err != nil {
		return err
	}
	s.feed.Bump()
	return nil
}

// Subscribe streams change revisions; see RevisionFeed.Subscribe.
func (s *BackendService) Subscribe(_ context.Context) (<-chan domain.Revision, func()) {
	return s.feed.Subscribe()
}
