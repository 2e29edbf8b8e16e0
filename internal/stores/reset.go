package stores

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrResetNotFound         = errors.New("reset record not found")
	ErrResetRedisUnavailable = errors.New("reset redis unavailable")
)

// ResetTokenStore is the single-use ledger for outstanding password
// reset tokens. The signed token carried in the email is stateless; the
// ledger entry keyed by its token ID is what makes it one-shot. Consume
// deletes the entry atomically, so a replayed token loses the race even
// under concurrent confirmations.
type ResetTokenStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewResetTokenStore creates a store using the given key prefix.
func NewResetTokenStore(redisClient redis.UniversalClient, prefix string) *ResetTokenStore {
	if prefix == "" {
		prefix = "prt"
	}
	return &ResetTokenStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

// Save records an outstanding token ID bound to an identity. The entry
// expires with the token itself.
func (s *ResetTokenStore) Save(ctx context.Context, tokenID, identityID string, ttl time.Duration) error {
	if err := s.redis.Set(ctx, s.key(tokenID), identityID, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}
	return nil
}

// Get returns the identity bound to an outstanding token ID without
// consuming it. Used to reject a token before the caller has committed
// to burning it (e.g. the new password failed the strength check).
func (s *ResetTokenStore) Get(ctx context.Context, tokenID string) (string, error) {
	identityID, err := s.redis.Get(ctx, s.key(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrResetNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}
	return identityID, nil
}

// Consume atomically removes an outstanding token ID and returns the
// identity it was bound to. A second Consume of the same ID reports
// ErrResetNotFound.
func (s *ResetTokenStore) Consume(ctx context.Context, tokenID string) (string, error) {
	identityID, err := s.redis.GetDel(ctx, s.key(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrResetNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrResetRedisUnavailable, err)
	}
	return identityID, nil
}

func (s *ResetTokenStore) key(tokenID string) string {
	return s.prefix + ":" + tokenID
}
