package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	valueField     = "value"
	timestampField = "ts"
)

// RedisStore keeps each value in a hash next to its write time in unix
// nanoseconds.
type RedisStore struct {
	client redis.UniversalClient
	// MaxAge bounds how long Redis retains a key nobody reads again.
	MaxAge time.Duration

	Now func() time.Time
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client, MaxAge: 24 * time.Hour, Now: time.Now}
}

func (r *RedisStore) SetWithTimestamp(ctx context.Context, session, key, value string) error {
	k := storeKey(session, key)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, valueField, value, timestampField, r.Now().UnixNano())
		if r.MaxAge > 0 {
			pipe.Expire(ctx, k, r.MaxAge)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set session value: %w", err)
	}
	return nil
}

func (r *RedisStore) GetIfNotExpired(ctx context.Context, session, key string, ttl time.Duration) (string, bool, error) {
	k := storeKey(session, key)
	vals, err := r.client.HMGet(ctx, k, valueField, timestampField).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get session value: %w", err)
	}

	value, okValue := vals[0].(string)
	rawTS, okTS := vals[1].(string)
	if !okValue || !okTS {
		return "", false, nil
	}
	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return "", false, fmt.Errorf("corrupt session timestamp %q: %w", rawTS, err)
	}

	if r.Now().Sub(time.Unix(0, ts)) > ttl {
		if err := r.client.Del(ctx, k).Err(); err != nil {
			return "", false, fmt.Errorf("failed to purge expired session value: %w", err)
		}
		return "", false, nil
	}
	return value, true, nil
}
