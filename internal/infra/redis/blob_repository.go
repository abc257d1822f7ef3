package redis

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"aptimaster-sync/internal/domain"
	"github.com/redis/go-redis/v9"
)

// BlobRepository stores snapshot payloads in Redis, one string key per blob:
//
//	SET blob:{id} {snapshot json}
//
// With a positive TTL every write refreshes the expiry, so blobs nobody writes to
// eventually disappear.
type BlobRepository struct {
	client *redis.Client
	ttl    time.Duration
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewBlobRepository(client *redis.Client, ttl time.Duration) *BlobRepository {
	return &BlobRepository{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *BlobRepository) Create(ctx context.Context, id string, data []byte) error {
	ok, err := r.client.SetNX(ctx, r.key(id), data, r.ttlWithJitter()).Result()
	if err != nil {
		return fmt.Errorf("create blob %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("create blob %s: already exists", id)
	}
	return nil
}

func (r *BlobRepository) Put(ctx context.Context, id string, data []byte) error {
	ok, err := r.client.SetXX(ctx, r.key(id), data, r.ttlWithJitter()).Result()
	if err != nil {
		return fmt.Errorf("put blob %s: %w", id, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BlobRepository) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blob %s: %w", id, err)
	}
	return data, nil
}

func (r *BlobRepository) key(id string) string {
	return "blob:" + id
}

// ttlWithJitter adds up to 10% jitter to spread expirations. Zero means no expiry.
func (r *BlobRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
