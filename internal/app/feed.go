package app

import (
	"sync"
	"time"

	"aptimaster-sync/internal/domain"
)

// RevisionFeed fans out local backend change notifications to subscribers.
type RevisionFeed struct {
	now         func() time.Time
	mu          sync.RWMutex
	current     domain.Revision
	subscribers map[chan domain.Revision]struct{}
}

func NewRevisionFeed() *RevisionFeed {
	return NewRevisionFeedWithClock(time.Now)
}

// NewRevisionFeedWithClock allows deterministic timestamps in tests.
func NewRevisionFeedWithClock(now func() time.Time) *RevisionFeed {
	return &RevisionFeed{
		now:         now,
		current:     domain.Revision{UpdatedAt: now()},
		subscribers: make(map[chan domain.Revision]struct{}),
	}
}

// Current returns the latest committed revision.
func (f *RevisionFeed) Current() domain.Revision {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.current
}

// Bump records a committed change and notifies subscribers.
func (f *RevisionFeed) Bump() domain.Revision {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = domain.Revision{Revision: f.current.Revision + 1, UpdatedAt: f.now()}
	f.broadcastLocked()
	return f.current
}

// Subscribe returns a channel that first receives the current revision and then every
// later one. Slow subscribers only ever see the newest revision. The caller must invoke
// the returned cancel function.
func (f *RevisionFeed) Subscribe() (<-chan domain.Revision, func()) {
	ch := make(chan domain.Revision, 1)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	ch <- f.current
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *RevisionFeed) broadcastLocked() {
	for ch := range f.subscribers {
		select {
		case ch <- f.current:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- f.current
		}
	}
}
