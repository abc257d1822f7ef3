package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/domain"
	"aptimaster-sync/internal/infra/memory"
	"aptimaster-sync/internal/infra/records"
)

var errDown = errors.New("connection refused")

// fakeLocal is a LocalBackend over the in-memory repository that can be taken offline.
type fakeLocal struct {
	mu     sync.Mutex
	down   bool
	repo   *memory.StateRepository
	writes int
	probes int
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{repo: memory.NewStateRepository()}
}

func (f *fakeLocal) setDown(down bool) {
	f.mu.Lock()
	f.down = down
	f.mu.Unlock()
}

func (f *fakeLocal) check() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return errDown
	}
	return nil
}

func (f *fakeLocal) Health(context.Context) error {
	f.mu.Lock()
	f.probes++
	f.mu.Unlock()
	return f.check()
}

func (f *fakeLocal) FetchState(ctx context.Context) (domain.Snapshot, error) {
	if err := f.check(); err != nil {
		return domain.Snapshot{}, err
	}
	return f.repo.Load(ctx)
}

func (f *fakeLocal) write(fn func() error) error {
	if err := f.check(); err != nil {
		return err
	}
	f.mu.Lock()
	f.writes++
	f.mu.Unlock()
	return fn()
}

func (f *fakeLocal) AddQuestion(ctx context.Context, q domain.Question) error {
	return f.write(func() error { return f.repo.AddQuestion(ctx, q) })
}

func (f *fakeLocal) DeleteQuestion(ctx context.Context, id string) error {
	return f.write(func() error { return f.repo.DeleteQuestion(ctx, id) })
}

func (f *fakeLocal) AddSubmission(ctx context.Context, s domain.Submission) error {
	return f.write(func() error { return f.repo.AddSubmission(ctx, s) })
}

func (f *fakeLocal) AddFile(ctx context.Context, file domain.FileSubmission) error {
	return f.write(func() error { return f.repo.AddFile(ctx, file) })
}

// fakeRemote is a shared blob store; several clients may point at the same instance.
type fakeRemote struct {
	mu         sync.Mutex
	blobs      map[string][]byte
	next       int
	failCreate bool
	failUpdate bool
	failFetch  bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{blobs: make(map[string][]byte)}
}

func (r *fakeRemote) Create(_ context.Context, snap domain.Snapshot) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return "", errDown
	}
	data, err := domain.EncodeSnapshot(snap)
	if err != nil {
		return "", err
	}
	r.next++
	id := fmt.Sprintf("blob-%d", r.next)
	r.blobs[id] = data
	return id, nil
}

func (r *fakeRemote) Update(_ context.Context, id string, snap domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdate {
		return errDown
	}
	if _, ok := r.blobs[id]; !ok {
		return domain.ErrNotFound
	}
	data, err := domain.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	r.blobs[id] = data
	return nil
}

func (r *fakeRemote) Fetch(_ context.Context, id string) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFetch {
		return domain.Snapshot{}, errDown
	}
	data, ok := r.blobs[id]
	if !ok {
		return domain.Snapshot{}, domain.ErrNotFound
	}
	return domain.DecodeSnapshot(data)
}

func (r *fakeRemote) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blobs)
}

type client struct {
	service *app.SyncService
	records *records.MemoryStore
	local   *fakeLocal
}

func newClient(local *fakeLocal, remote *fakeRemote, localCapable bool) client {
	return newClientWithRecords(local, remote, localCapable, records.NewMemoryStore())
}

func newClientWithRecords(local *fakeLocal, remote *fakeRemote, localCapable bool, store *records.MemoryStore) client {
	logger := log.New(io.Discard, "", 0)
	service := app.NewSyncService(app.SyncDeps{
		Cache:      app.NewStateCache(),
		Locator:    app.NewLocator(local, localCapable, 200*time.Millisecond, logger),
		Local:      local,
		Remote:     remote,
		Partitions: app.NewPartitionResolver(store),
		Configs:    app.NewConfigStore(store),
		Logger:     logger,
		Clock: func() time.Time {
			return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
		},
	})
	return client{service: service, records: store, local: local}
}

func sampleQuestion(id, text string) domain.Question {
	return domain.Question{
		ID:               id,
		Text:             text,
		Category:         "Quantitative",
		Options:          []string{"3", "4", "5", "6"},
		CorrectAnswer:    1,
		Difficulty:       domain.DifficultyEasy,
		Explanation:      "Basic arithmetic.",
		TimeLimitMinutes: 1,
	}
}

func sampleSubmission(id, questionID string) domain.Submission {
	return domain.Submission{
		ID:          id,
		StudentID:   "s-" + id,
		StudentName: "Student " + id,
		QuestionID:  questionID,
		Answer:      1,
		IsCorrect:   true,
		Timestamp:   time.Date(2026, 10, 17, 9, 5, 0, 0, time.UTC),
		NoteID:      "NOTE-123456",
	}
}

func sampleFile(id string) domain.FileSubmission {
	return domain.FileSubmission{
		ID:          id,
		StudentID:   "s1",
		StudentName: "Student",
		FileName:    "notes.txt",
		FileType:    "text/plain",
		FileData:    "data:text/plain;base64,aGVsbG8=",
		Timestamp:   time.Date(2026, 10, 17, 9, 6, 0, 0, time.UTC),
	}
}

func countQuestion(qs []domain.Question, id string) int {
	n := 0
	for _, q := range qs {
		if q.ID == id {
			n++
		}
	}
	return n
}
