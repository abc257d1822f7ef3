// Package poller drives periodic synchronization on behalf of a host application. The
// sync layer never schedules itself; this driver owns the timer, the optional change-feed
// trigger, and the synced/syncing/error indicator.
package poller

import (
	"context"
	"log"
	"sync"
	"time"

	"aptimaster-sync/internal/app"
	"aptimaster-sync/internal/domain"
	"github.com/robfig/cron/v3"
)

// DefaultInterval matches the host applications' usual poll cadence.
const DefaultInterval = 5 * time.Second

// Syncer is the subset of app.SyncService the driver needs.
type Syncer interface {
	Sync(ctx context.Context, classroomID string) bool
	Mutate(ctx context.Context, m app.Mutation, classroomID string) bool
}

// Watcher delivers change revisions from the local backend.
type Watcher interface {
	Watch(ctx context.Context) (<-chan domain.Revision, error)
}

type Option func(*Driver)

// WithWatcher triggers an immediate sync whenever the watcher reports a new revision.
func WithWatcher(w Watcher) Option {
	return func(d *Driver) { d.watcher = w }
}

// WithStatusHook is called on every status transition.
func WithStatusHook(fn func(domain.SyncStatus)) Option {
	return func(d *Driver) { d.onStatus = fn }
}

// WithRefreshHook is called after every successful sync so the host can re-read the cache.
func WithRefreshHook(fn func()) Option {
	return func(d *Driver) { d.onRefresh = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(d *Driver) { d.logger = l }
}

// Driver invokes Sync on an interval and on demand. Ticks never overlap each other, but a
// host mutation may run concurrently with a tick; the last snapshot to land wins.
type Driver struct {
	syncer      Syncer
	classroomID string
	interval    time.Duration
	watcher     Watcher
	logger      *log.Logger
	onStatus    func(domain.SyncStatus)
	onRefresh   func()

	mu       sync.RWMutex
	status   domain.SyncStatus
	inFlight int
}

func New(syncer Syncer, classroomID string, interval time.Duration, opts ...Option) *Driver {
	if interval < time.Second {
		interval = DefaultInterval
	}
	d := &Driver{
		syncer:      syncer,
		classroomID: classroomID,
		interval:    interval,
		logger:      log.Default(),
		status:      domain.StatusSynced,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Status returns the current indicator value.
func (d *Driver) Status() domain.SyncStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// Tick runs one synchronization and updates the indicator.
func (d *Driver) Tick(ctx context.Context) bool {
	d.begin()
	ok := d.syncer.Sync(ctx, d.classroomID)
	d.finish(ok)
	return ok
}

// Mutate applies m through the sync layer, which re-syncs before returning.
func (d *Driver) Mutate(ctx context.Context, m app.Mutation) bool {
	d.begin()
	ok := d.syncer.Mutate(ctx, m, d.classroomID)
	d.finish(ok)
	return ok
}

// Run syncs immediately, then on every interval (and on change-feed revisions when a
// watcher is configured) until ctx is canceled.
func (d *Driver) Run(ctx context.Context) error {
	d.Tick(ctx)

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddFunc("@every "+d.interval.String(), func() { d.Tick(ctx) }); err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	if d.watcher != nil {
		go d.watch(ctx)
	}

	<-ctx.Done()
	return nil
}

func (d *Driver) watch(ctx context.Context) {
	var last int64 = -1
	for {
		revisions, err := d.watcher.Watch(ctx)
		if err != nil {
			d.logger.Printf("change feed unavailable: %v", err)
		} else {
			for rev := range revisions {
				if rev.Revision == last {
					continue
				}
				first := last == -1
				last = rev.Revision
				if !first {
					d.Tick(ctx)
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(d.interval):
		}
	}
}

func (d *Driver) begin() {
	d.mu.Lock()
	d.inFlight++
	changed := d.status != domain.StatusSyncing
	d.status = domain.StatusSyncing
	d.mu.Unlock()
	if changed && d.onStatus != nil {
		d.onStatus(domain.StatusSyncing)
	}
}

func (d *Driver) finish(ok bool) {
	next := domain.StatusError
	if ok {
		next = domain.StatusSynced
	}
	d.mu.Lock()
	d.inFlight--
	if d.inFlight > 0 && ok {
		next = domain.StatusSyncing
	}
	changed := d.status != next
	d.status = next
	d.mu.Unlock()

	if changed && d.onStatus != nil {
		d.onStatus(next)
	}
	if ok && d.onRefresh != nil {
		d.onRefresh()
	}
}
