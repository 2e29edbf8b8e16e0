// Package stores holds the Redis-backed state that outlives a single
// request: currently the single-use password reset token ledger.
//
// Store methods wrap transport failures in ErrResetRedisUnavailable so
// the engine can distinguish "token invalid" from "backend down".
package stores
