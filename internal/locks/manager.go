// Package locks provides distributed locking on top of the Redlock
// implementation in go-redsync/redsync/v4. Locks renew themselves at a
// third of their expiration so a slow holder does not silently lose the
// lock mid-operation.
package locks

import (
	"context"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"

	"payment-router/internal/common/errors"
	"payment-router/internal/common/logging"
	"payment-router/internal/redis"
)

// Manager hands out distributed locks backed by a single Redis instance.
type Manager struct {
	redsync *redsync.Redsync
	logger  logging.Logger

	mu   sync.Mutex
	held map[string]*Lock
}

// Lock is one acquired distributed lock. Release must be called exactly
// once; the renewal goroutine stops when it is.
type Lock struct {
	mutex   *redsync.Mutex
	key     string
	manager *Manager
	cancel  context.CancelFunc
}

func NewManager(client *redis.Client, logger logging.Logger) (*Manager, error) {
	if client == nil {
		return nil, errors.ConfigError("redis client is required for distributed locks")
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	pool := goredis.NewPool(client.GetGoRedisClient())
	return &Manager{
		redsync: redsync.New(pool),
		logger:  logger,
		held:    make(map[string]*Lock),
	}, nil
}

// Acquire takes the named lock or reports that another node holds it.
// A held lock renews itself until released.
func (m *Manager) Acquire(ctx context.Context, key string, expiration time.Duration) (*Lock, bool, error) {
	mutex := m.redsync.NewMutex("lock:"+key,
		redsync.WithExpiry(expiration),
		redsync.WithTries(1),
	)

	if err := mutex.TryLockContext(ctx); err != nil {
		if _, taken := err.(*redsync.ErrTaken); taken {
			return nil, false, nil
		}
		if err == redsync.ErrFailed {
			return nil, false, nil
		}
		return nil, false, errors.ConnectionError("lock acquisition failed", err)
	}

	renewCtx, cancel := context.WithCancel(context.Background())
	lock := &Lock{
		mutex:   mutex,
		key:     key,
		manager: m,
		cancel:  cancel,
	}

	m.mu.Lock()
	m.held[key] = lock
	m.mu.Unlock()

	go lock.renew(renewCtx, expiration/3)
	return lock, true, nil
}

// Close releases every lock this manager still holds.
func (m *Manager) Close() {
	m.mu.Lock()
	locks := make([]*Lock, 0, len(m.held))
	for _, lock := range m.held {
		locks = append(locks, lock)
	}
	m.mu.Unlock()

	for _, lock := range locks {
		lock.Release()
	}
}

// Release gives the lock back. Releasing a lock that already expired is
// not an error.
func (l *Lock) Release() {
	l.cancel()

	l.manager.mu.Lock()
	delete(l.manager.held, l.key)
	l.manager.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := l.mutex.UnlockContext(ctx); err != nil {
		l.manager.logger.Warn("Lock release failed",
			logging.String("key", l.key), logging.Err(err))
	}
}

func (l *Lock) renew(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ok, err := l.mutex.ExtendContext(ctx)
			if err != nil || !ok {
				l.manager.logger.Warn("Lock renewal failed",
					logging.String("key", l.key), logging.Err(err))
				return
			}
		}
	}
}
