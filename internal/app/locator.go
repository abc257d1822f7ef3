package app

import (
	"context"
	"log"
	"time"

	"aptimaster-sync/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DefaultProbeTimeout bounds every local reachability check.
const DefaultProbeTimeout = time.Second

// LocalBackend is the locally reachable REST service that is authoritative when present.
type LocalBackend interface {
	Health(ctx context.Context) error
	FetchState(ctx context.Context) (domain.Snapshot, error)
	AddQuestion(ctx context.Context, q domain.Question) error
	DeleteQuestion(ctx context.Context, id string) error
	AddSubmission(ctx context.Context, s domain.Submission) error
	AddFile(ctx context.Context, f domain.FileSubmission) error
}

// Locator decides, per sync attempt, whether the local backend is reachable. It keeps no
// state beyond the in-flight health probe.
type Locator struct {
	backend      LocalBackend
	localCapable bool
	timeout      time.Duration
	logger       *log.Logger
	sf           singleflight.Group
}

// NewLocator builds a locator. When localCapable is false every probe is skipped.
func NewLocator(backend LocalBackend, localCapable bool, timeout time.Duration, logger *log.Logger) *Locator {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Locator{
		backend:      backend,
		localCapable: localCapable,
		timeout:      timeout,
		logger:       logger,
	}
}

// Locate fetches the local state within the probe deadline. The snapshot is only
// meaningful when the result is ProbeReachable.
func (l *Locator) Locate(ctx context.Context) (domain.ProbeResult, domain.Snapshot) {
	if !l.localCapable || l.backend == nil {
		return domain.ProbeSkipped, domain.Snapshot{}
	}
	probeCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	snap, err := l.backend.FetchState(probeCtx)
	if err != nil {
		l.logger.Printf("local backend unreachable: %v", err)
		return domain.ProbeUnreachable, domain.Snapshot{}
	}
	return domain.ProbeReachable, snap
}

// ProbeLocal reports reachability using the health endpoint only. Concurrent callers
// share one round trip, which is bounded by the probe timeout rather than by any one
// caller's context.
func (l *Locator) ProbeLocal(ctx context.Context) bool {
	return l.Probe(ctx) == domain.ProbeReachable
}

func (l *Locator) Probe(ctx context.Context) domain.ProbeResult {
	if !l.localCapable || l.backend == nil {
		return domain.ProbeSkipped
	}
	result, _, _ := l.sf.Do("health", func() (any, error) {
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
		defer cancel()
		if err := l.backend.Health(probeCtx); err != nil {
			return domain.ProbeUnreachable, nil
		}
		return domain.ProbeReachable, nil
	})
	return result.(domain.ProbeResult)
}
