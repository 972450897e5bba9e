// Package locks provides distributed exclusive locks backed by Redis.
// Locks are scoped to a single key, expire after a TTL so a crashed holder
// cannot wedge a cell forever, and are released with a fenced
// compare-and-delete so one holder can never release another's lease.
package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/casefold/tabular/pkg/lifecycle"
)

// releaseScript deletes the lock key only if it still holds this lease's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lease represents a held lock. Release must be called on every path,
// success or failure.
type Lease struct {
	key    string
	token  string
	client *redis.Client
}

// Release frees the lock if this lease still holds it. Releasing an
// expired or stolen lease is not an error; the TTL already reclaimed it.
func (l *Lease) Release(ctx context.Context) error {
	_, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock %s: %w", l.key, err)
	}
	return nil
}

// System manages distributed lock acquisition and lifecycle coordination.
type System interface {
	// Acquire attempts to take the lock for key, retrying until the
	// configured acquire timeout elapses. Returns ErrHeld if the lock
	// remains held by another party for the full wait window.
	Acquire(ctx context.Context, key string) (*Lease, error)
	// TryAcquire makes a single attempt with no retry window.
	TryAcquire(ctx context.Context, key string) (*Lease, error)
	// Start registers startup and shutdown hooks with the lifecycle coordinator.
	Start(lc *lifecycle.Coordinator) error
}

type manager struct {
	client         *redis.Client
	prefix         string
	ttl            time.Duration
	acquireTimeout time.Duration
	retryInterval  time.Duration
	logger         *slog.Logger
}

// New creates a lock system from the given configuration. The Redis
// connection is validated lazily by the Start lifecycle hook.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	return &manager{
		client:         redis.NewClient(opts),
		prefix:         cfg.Prefix,
		ttl:            cfg.TTLDuration(),
		acquireTimeout: cfg.AcquireTimeoutDuration(),
		retryInterval:  cfg.RetryIntervalDuration(),
		logger:         logger.With("system", "locks"),
	}, nil
}

func (m *manager) Start(lc *lifecycle.Coordinator) error {
	m.logger.Info("starting lock system")

	lc.OnStartup(func() {
		pingCtx, cancel := context.WithTimeout(lc.Context(), 5*time.Second)
		defer cancel()

		if err := m.client.Ping(pingCtx).Err(); err != nil {
			m.logger.Error("redis ping failed", "error", err)
			return
		}

		m.logger.Info("lock backend ready")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := m.client.Close(); err != nil {
			m.logger.Error("redis close failed", "error", err)
			return
		}
		m.logger.Info("lock backend closed")
	})

	return nil
}

func (m *manager) TryAcquire(ctx context.Context, key string) (*Lease, error) {
	return m.attempt(ctx, m.prefix+key)
}

func (m *manager) Acquire(ctx context.Context, key string) (*Lease, error) {
	full := m.prefix + key
	deadline := time.Now().Add(m.acquireTimeout)

	for {
		lease, err := m.attempt(ctx, full)
		if err == nil {
			return lease, nil
		}
		if !errors.Is(err, ErrHeld) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrHeld, key)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.retryInterval):
		}
	}
}

func (m *manager) attempt(ctx context.Context, fullKey string) (*Lease, error) {
	token := uuid.NewString()

	ok, err := m.client.SetNX(ctx, fullKey, token, m.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	return &Lease{key: fullKey, token: token, client: m.client}, nil
}
