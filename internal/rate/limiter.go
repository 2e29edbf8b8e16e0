package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rule is one (max attempts, window) budget. A namespace may carry
// several rules; exceeding any one of them limits the key.
type Rule struct {
	MaxAttempts int
	Window      time.Duration
}

// Config holds the limiter key prefix and the per-namespace rule sets.
type Config struct {
	Prefix string
	Rules  map[string][]Rule
}

// Result reports the outcome of a single RateLimit call. RetryAfter is
// the longest remaining wait among all violated rules, zero when the
// key is not limited.
type Result struct {
	Limited    bool
	RetryAfter time.Duration
}

// Limiter enforces namespaced, multi-rule attempt budgets using Redis
// fixed-window counters. Counters live in Redis, so the same budget
// holds across concurrent request-handling processes.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	rules  map[string][]Rule
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "rl"
	}
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
		rules:  cfg.Rules,
	}
}

// RateLimit records one attempt for the (namespace, subject) key and
// reports whether the key is over budget. The attempt is recorded on
// every rule window exactly once per call, limited or not: the check
// itself counts. Namespaces with no configured rules are unlimited and
// record nothing.
func (l *Limiter) RateLimit(ctx context.Context, namespace, subject string) (Result, error) {
	rules := l.rules[namespace]
	if len(rules) == 0 {
		return Result{}, nil
	}

	var out Result
	for _, rule := range rules {
		key := l.key(namespace, rule.Window, subject)

		count, err := l.redis.Incr(ctx, key).Result()
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		// Fixed-window semantics: the first hit in a window owns the TTL.
		if count == 1 {
			if err := l.redis.Expire(ctx, key, rule.Window).Err(); err != nil {
				return Result{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
			}
		}
		if count <= int64(rule.MaxAttempts) {
			continue
		}

		out.Limited = true
		wait, err := l.remaining(ctx, key, rule.Window)
		if err != nil {
			return Result{}, err
		}
		if wait > out.RetryAfter {
			out.RetryAfter = wait
		}
	}

	return out, nil
}

// Attempts returns the recorded attempt count in the first rule window
// of the namespace. Missing keys report zero and do not reveal whether
// the subject has ever been seen.
func (l *Limiter) Attempts(ctx context.Context, namespace, subject string) (int, error) {
	rules := l.rules[namespace]
	if len(rules) == 0 {
		return 0, nil
	}

	count, err := l.redis.Get(ctx, l.key(namespace, rules[0].Window, subject)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) remaining(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	ttl, err := l.redis.PTTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if ttl <= 0 {
		// Counter without expiry (lost EXPIRE): report the full window
		// rather than letting the key wedge at zero.
		return window, nil
	}
	return ttl, nil
}

func (l *Limiter) key(namespace string, window time.Duration, subject string) string {
	return l.prefix + ":" + namespace + ":" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + subject
}
