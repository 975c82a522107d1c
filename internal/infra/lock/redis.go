package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ─── Redis Locker ───────────────────────────────────────────────────────────
// Used when several back-office processes share one database. Each hold is a
// SET NX PX with a random token; release deletes the key only if the token
// still matches, so an expired hold can never free someone else's lock.
// While held, the lease is extended every ttl/3 so a long critical section
// keeps exclusion; a crashed holder still frees the key after ttl.

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// Connect initializes a Redis client from URL or host:port input.
func Connect(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// Redis is a Locker backed by a Redis server.
type Redis struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
	logger *slog.Logger
}

// NewRedis creates a Redis locker. ttl bounds how long a crashed holder can
// block others.
func NewRedis(client redis.UniversalClient, prefix string, ttl time.Duration, logger *slog.Logger) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		logger: logger.With("component", "lock"),
	}
}

// Acquire implements Locker.
func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := r.prefix + key
	token := uuid.NewString()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("acquire %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retry):
		}
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.renew(redisKey, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// Release must not inherit a cancelled request context.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.logger.Warn("lock release failed; key stays held until ttl",
					"key", redisKey, "ttl", r.ttl, "error", err)
			}
		})
	}, nil
}

// renew extends the lease until stop is closed or the hold is lost.
func (r *Redis) renew(redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
		n, err := renewScript.Run(ctx, r.client, []string{redisKey}, token, r.ttl.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			r.logger.Warn("lock renewal failed", "key", redisKey, "error", err)
		case n == 0:
			r.logger.Error("lock lease lost", "key", redisKey)
			return
		}
	}
}
