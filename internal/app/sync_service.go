package app

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"aptimaster-sync/internal/domain"
)

// DefaultFetchTimeout bounds remote fetches, pushes and local writes.
const DefaultFetchTimeout = 5 * time.Second

// RemoteStore is the shared blob-style key/value service reachable by every client.
type RemoteStore interface {
	Create(ctx context.Context, snap domain.Snapshot) (string, error)
	Update(ctx context.Context, id string, snap domain.Snapshot) error
	Fetch(ctx context.Context, id string) (domain.Snapshot, error)
}

// SyncDeps wires a SyncService. Cache, Locator, Partitions and Configs are required.
type SyncDeps struct {
	Cache        *StateCache
	Locator      *Locator
	Local        LocalBackend
	Remote       RemoteStore
	Partitions   *PartitionResolver
	Configs      *ConfigStore
	FetchTimeout time.Duration
	Logger       *log.Logger
	Clock        func() time.Time
}

// SyncService keeps the StateCache consistent with whichever backend is authoritative for
// the current cycle and applies mutations through the matching write path. It never
// schedules itself; callers drive Sync on their own cadence. Concurrent Sync and Mutate
// calls are not serialized: the last snapshot to land in the cache wins.
type SyncService struct {
	cache        *StateCache
	locator      *Locator
	local        LocalBackend
	remote       RemoteStore
	partitions   *PartitionResolver
	configs      *ConfigStore
	fetchTimeout time.Duration
	logger       *log.Logger
	now          func() time.Time
	mode         atomic.Int32

	// loaded is the remote identifier whose snapshot the cache currently mirrors, empty
	// when the cache holds local or no remote data.
	mu     sync.Mutex
	loaded string
}

func NewSyncService(deps SyncDeps) *SyncService {
	s := &SyncService{
		cache:        deps.Cache,
		locator:      deps.Locator,
		local:        deps.Local,
		remote:       deps.Remote,
		partitions:   deps.Partitions,
		configs:      deps.Configs,
		fetchTimeout: deps.FetchTimeout,
		logger:       deps.Logger,
		now:          deps.Clock,
	}
	if s.fetchTimeout <= 0 {
		s.fetchTimeout = DefaultFetchTimeout
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg, ok := s.configs.Load(); ok {
		s.cache.SetConfig(cfg)
	}
	return s
}

// Mode returns the backend chosen by the most recent sync.
func (s *SyncService) Mode() domain.SyncMode {
	return domain.SyncMode(s.mode.Load())
}

func (s *SyncService) setMode(next domain.SyncMode) {
	prev := domain.SyncMode(s.mode.Swap(int32(next)))
	if prev != next {
		s.logger.Printf("sync mode %s -> %s", prev, next)
	}
}

// Sync refreshes the cache from the authoritative backend for classroomID. It prefers the
// local backend when reachable and otherwise reads the classroom's remote snapshot. It
// returns false when nothing could be read; the cache then keeps its last good state.
func (s *SyncService) Sync(ctx context.Context, classroomID string) bool {
	probe, snap := s.locator.Locate(ctx)
	mode := domain.NextMode(s.Mode(), probe)
	s.setMode(mode)
	if mode == domain.ModeLocal {
		s.cache.Replace(snap)
		s.setLoaded("")
		return true
	}

	if s.remote == nil {
		return false
	}
	remoteID, ok := s.partitions.Resolve(classroomID)
	if !ok {
		return false
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	snap, err := s.remote.Fetch(fetchCtx, remoteID)
	if err != nil {
		s.logger.Printf("fetch remote snapshot %s for %s: %v", remoteID, domain.NormalizeClassroomID(classroomID), err)
		return false
	}
	s.cache.Replace(snap)
	s.setLoaded(remoteID)
	return true
}

func (s *SyncService) setLoaded(remoteID string) {
	s.mu.Lock()
	s.loaded = remoteID
	s.mu.Unlock()
}

// needsLoad reports a CLOUD session whose cache does not mirror the classroom's stored
// remote snapshot.
func (s *SyncService) needsLoad(classroomID string) bool {
	if s.Mode() != domain.ModeCloud {
		return false
	}
	remoteID, ok := s.partitions.Resolve(classroomID)
	return ok && !s.loadedFrom(remoteID)
}

func (s *SyncService) loadedFrom(remoteID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded == remoteID
}

// Mutate submits m through the write path of the current mode and then re-syncs. The
// result is the success of that re-sync: true means the cache reflects the write or
// something later, not that the write is durable. Invalid mutations, and CLOUD writes to a
// classroom whose snapshot this session has not loaded, are refused and return false
// without writing anything.
func (s *SyncService) Mutate(ctx context.Context, m Mutation, classroomID string) bool {
	if err := m.validate(); err != nil {
		s.logger.Printf("reject %s: %v", m.Kind, err)
		return false
	}
	if !s.submit(ctx, m, classroomID) {
		return false
	}
	return s.Sync(ctx, classroomID)
}

func (s *SyncService) submit(ctx context.Context, m Mutation, classroomID string) bool {
	if s.Mode() == domain.ModeUndetermined || s.needsLoad(classroomID) {
		s.Sync(ctx, classroomID)
	}
	mode := s.Mode()

	writeCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	if mode == domain.ModeLocal {
		if err := m.forward(writeCtx, s.local); err != nil {
			s.logger.Printf("local %s: %v", m.Kind, err)
		}
		return true
	}
	if s.remote == nil {
		return false
	}

	key := domain.PartitionKey(classroomID)
	remoteID, ok := s.partitions.Resolve(classroomID)
	if ok && !s.loadedFrom(remoteID) {
		// Pushing now would replace the classroom with whatever this cache holds.
		s.logger.Printf("skip %s: remote snapshot %s (%s) not loaded", m.Kind, remoteID, key)
		return false
	}
	snap := s.cache.Apply(m, s.now())

	// There is no version check: the push replaces whatever another client wrote since
	// our last sync.
	if ok {
		if err := s.remote.Update(writeCtx, remoteID, snap); err != nil {
			s.logger.Printf("update remote snapshot %s (%s): %v", remoteID, key, err)
		}
		return true
	}
	remoteID, err := s.remote.Create(writeCtx, snap)
	if err != nil {
		s.logger.Printf("create remote snapshot (%s): %v", key, err)
		return true
	}
	if err := s.partitions.Persist(classroomID, remoteID); err != nil {
		s.logger.Printf("persist %s: %v", key, err)
		return true
	}
	s.setLoaded(remoteID)
	s.logger.Printf("created remote snapshot %s (%s)", remoteID, key)
	return true
}

func (s *SyncService) Questions() []domain.Question { return s.cache.Questions() }
func (s *SyncService) Submissions() []domain.Submission { return s.cache.Submissions() }
func (s *SyncService) Files() []domain.FileSubmission { return s.cache.Files() }
func (s *SyncService) Config() domain.SupportConfig { return s.cache.Config() }
func (s *SyncService) Snapshot() domain.Snapshot { return s.cache.Snapshot() }

// SaveConfig persists cfg on this device and updates the cached copy.
func (s *SyncService) SaveConfig(cfg domain.SupportConfig) error {
	if err := s.configs.Save(cfg); err != nil {
		return err
	}
	s.cache.SetConfig(cfg)
	return nil
}

// Logout drops the session's cached state and forgets the sync mode.
func (s *SyncService) Logout() {
	s.cache.Reset()
	if cfg, ok := s.configs.Load(); ok {
		s.cache.SetConfig(cfg)
	}
	s.mode.Store(int32(domain.ModeUndetermined))
	s.setLoaded("")
}
