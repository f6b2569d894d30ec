package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrIngestionInProgress = errors.New("ingestion already in progress for session")

// Locker serializes ingestion per session. Acquire fails with
// ErrIngestionInProgress instead of waiting.
type Locker interface {
	Acquire(ctx context.Context, session string) (release func(), err error)
}

// LocalLocker holds locks in process memory.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]bool)}
}

func (l *LocalLocker) Acquire(ctx context.Context, session string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[session] {
		return nil, ErrIngestionInProgress
	}
	l.held[session] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, session)
			l.mu.Unlock()
		})
	}, nil
}

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds locks in Redis so several server processes share them.
// A held lock is renewed until released.
type RedisLocker struct {
	client  redis.UniversalClient
	timeout time.Duration
	logger  *zap.Logger
}

func NewRedisLocker(client redis.UniversalClient, timeout time.Duration, logger *zap.Logger) *RedisLocker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RedisLocker{client: client, timeout: timeout, logger: logger.Named("ingestion_lock")}
}

func lockKey(session string) string {
	return fmt.Sprintf("lock:ingest:%s", session)
}

func (l *RedisLocker) Acquire(ctx context.Context, session string) (func(), error) {
	if session == "" {
		return nil, fmt.Errorf("session cannot be empty")
	}
	key := lockKey(session)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.timeout).Result()
	if err != nil {
		return nil, fmt.Errorf("lock acquisition failed: %w", err)
	}
	if !acquired {
		return nil, ErrIngestionInProgress
	}

	done := make(chan struct{})
	ticker := time.NewTicker(l.timeout / 3)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				ok, err := l.client.Expire(context.Background(), key, l.timeout).Result()
				if err != nil {
					l.logger.Warn("failed to renew ingestion lock", zap.String("session", session), zap.Error(err))
					continue
				}
				if !ok {
					l.logger.Warn("ingestion lock lost", zap.String("session", session))
					return
				}
			case <-done:
				return
			}
		}
	}()

	l.logger.Debug("Ingestion lock acquired", zap.String("session", session), zap.Duration("timeout", l.timeout))

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			if err := releaseScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil {
				l.logger.Warn("failed to release ingestion lock", zap.String("session", session), zap.Error(err))
				return
			}
			l.logger.Debug("Ingestion lock released", zap.String("session", session))
		})
	}, nil
}
