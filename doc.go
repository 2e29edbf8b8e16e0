// Package realmauth implements the form-validation and account-lifecycle core
// of a multi-tenant chat platform: realm-scoped password authentication,
// subdomain availability checks, signup eligibility screening, password reset
// dispatch and confirmation, and registration validation.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// realmauth is the public surface. It exposes [Engine], [Builder], [Config],
// the collaborator interfaces ([RealmProvider], [IdentityProvider],
// [EmailSender], the oracle interfaces), and value types. Rate limit counters,
// the reset token ledger, and audit dispatch live under internal/ and are
// never exported.
//
// # What this package must NOT do
//
//   - Reveal account existence through return values: the password reset and
//     team-lookup flows answer identically whether or not an account matched.
//   - Expose Redis clients or internal stores in its public API.
//   - Perform HTTP routing or session management; callers own the transport.
//
// # Error contract
//
// Every user-visible failure is a sentinel error (or [RateLimitedError] /
// [FieldErrors]) that [UserMessage] maps to a fixed display string. Anything
// wrapped in [InternalFaultError] is a bug or a backing-store failure and must
// be rendered as a generic error.
package realmauth
