package app

import (
	"sync"
	"time"

	"aptimaster-sync/internal/domain"
)

// StateCache is the in-memory mirror of one session's shared state. Reads never touch the
// network; writes happen only through Replace (a sync) or Apply (a CLOUD-path mutation).
type StateCache struct {
	mu     sync.RWMutex
	snap   domain.Snapshot
	config domain.SupportConfig
}

func NewStateCache() *StateCache {
	return &StateCache{
		snap:   domain.EmptySnapshot(),
		config: domain.DefaultSupportConfig(),
	}
}

func (c *StateCache) Questions() []domain.Question {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Question, len(c.snap.Questions))
	for i, q := range c.snap.Questions {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

func (c *StateCache) Submissions() []domain.Submission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Submission{}, c.snap.Submissions...)
}

func (c *StateCache) Files() []domain.FileSubmission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.FileSubmission{}, c.snap.Files...)
}

func (c *StateCache) Config() domain.SupportConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// Snapshot returns a deep copy of the cached collections.
func (c *StateCache) Snapshot() domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Clone()
}

// Replace swaps the cached collections for snap wholesale.
func (c *StateCache) Replace(snap domain.Snapshot) {
	next := snap.Clone()
	c.mu.Lock()
	c.snap = next
	c.mu.Unlock()
}

// Apply performs a single-entity mutation on the cache and returns the resulting
// snapshot, stamped with now, ready to be pushed.
func (c *StateCache) Apply(m Mutation, now time.Time) domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	m.apply(&c.snap)
	c.snap.LastUpdated = now
	return c.snap.Clone()
}

func (c *StateCache) SetConfig(cfg domain.SupportConfig) {
	c.mu.Lock()
	c.config = cfg
	c.mu.Unlock()
}

// Reset empties the cache; used on explicit logout.
func (c *StateCache) Reset() {
	c.mu.Lock()
	c.snap = domain.EmptySnapshot()
	c.config = domain.DefaultSupportConfig()
	c.mu.Unlock()
}
