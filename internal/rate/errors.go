package rate

import "errors"

// ErrRedisUnavailable wraps any Redis transport or command failure so
// callers can surface it as an internal fault instead of a denial.
var ErrRedisUnavailable = errors.New("rate limit store unavailable")
