package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// InFlightGuard is a short-lived SET NX lock. The TTL bounds how long a
// crashed holder can block others.
type InFlightGuard struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewInFlightGuard(rdb *redis.Client, ttl time.Duration) *InFlightGuard {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &InFlightGuard{
		rdb:    rdb,
		prefix: "activity-bff:",
		ttl:    ttl,
	}
}

func (g *InFlightGuard) Key(key string) string {
	return g.prefix + key
}

// Acquire takes the lock for key. ok is false when someone else holds it.
func (g *InFlightGuard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	fullKey := g.Key(key)
	token := uuid.NewString()

	set, err := g.rdb.SetNX(ctx, fullKey, token, g.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", fullKey, err)
	}
	if !set {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(ctx, g.rdb, []string{fullKey}, token).Err()
	}
	return release, true, nil
}
