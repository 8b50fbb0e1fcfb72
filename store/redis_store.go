// store/redis_store.go
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/intai-app/intai_backend/models"
)

const (
	challengeKeyPrefix = "otp:challenge:"

	// Bounded optimistic-concurrency retries when a concurrent writer
	// invalidates the watched key.
	casMaxRetries = 4

	// Floor for record TTLs so a just-lapsed record still disappears on its
	// own instead of lingering forever.
	minChallengeTTL = time.Minute
)

// RedisStore keeps challenges in Redis so multiple instances share one view
// of attempt counters and lockouts. Per-phone atomicity is provided by
// WATCH-based compare-and-swap on the challenge key.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a challenge store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(phone string) string {
	return challengeKeyPrefix + phone
}

// Get returns the challenge for phone, or nil when absent.
func (s *RedisStore) Get(ctx context.Context, phone string) (*models.OTPChallenge, error) {
	data, err := s.client.Get(ctx, s.key(phone)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("challenge store unavailable: %w", err)
	}

	var ch models.OTPChallenge
	if err := json.Unmarshal(data, &ch); err != nil {
		return nil, fmt.Errorf("corrupt challenge record for %s: %w", phone, err)
	}
	return &ch, nil
}

// Put stores the challenge with a TTL covering its expiry and block window.
func (s *RedisStore) Put(ctx context.Context, challenge *models.OTPChallenge) error {
	data, err := json.Marshal(challenge)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(challenge.Phone), data, challengeTTL(challenge)).Err(); err != nil {
		return fmt.Errorf("challenge store unavailable: %w", err)
	}
	return nil
}

// Delete removes the challenge for phone, if any.
func (s *RedisStore) Delete(ctx context.Context, phone string) error {
	if err := s.client.Del(ctx, s.key(phone)).Err(); err != nil {
		return fmt.Errorf("challenge store unavailable: %w", err)
	}
	return nil
}

// Update applies fn to the current record under optimistic concurrency and
// persists the result. When a concurrent writer touches the same phone the
// transaction is retried a bounded number of times.
func (s *RedisStore) Update(ctx context.Context, phone string, fn UpdateFunc) (*models.OTPChallenge, error) {
	key := s.key(phone)

	for i := 0; i < casMaxRetries; i++ {
		var next *models.OTPChallenge
		var fnErr error

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			var current *models.OTPChallenge

			data, err := tx.Get(ctx, key).Bytes()
			if err != nil && err != redis.Nil {
				return err
			}
			if err == nil {
				current = &models.OTPChallenge{}
				if err := json.Unmarshal(data, current); err != nil {
					return fmt.Errorf("corrupt challenge record for %s: %w", phone, err)
				}
			}

			next, fnErr = fn(current)

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if next == nil {
					pipe.Del(ctx, key)
					return nil
				}
				encoded, err := json.Marshal(next)
				if err != nil {
					return err
				}
				pipe.Set(ctx, key, encoded, challengeTTL(next))
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("challenge store unavailable: %w", err)
		}
		return next, fnErr
	}

	return nil, fmt.Errorf("challenge store unavailable: update contention on %s", phone)
}

func challengeTTL(ch *models.OTPChallenge) time.Duration {
	ttl := ch.Retention(time.Now())
	if ttl < minChallengeTTL {
		ttl = minChallengeTTL
	}
	return ttl
}
