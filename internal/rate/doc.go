// Package rate provides the Redis-backed attempt limiter shared by the
// login decision engine and the password reset dispatcher.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on the first hit of
// a window. Every call records exactly one attempt on every rule of the
// namespace; the check itself counts. A key is limited when any rule's
// in-window count exceeds that rule's budget, and the reported
// retry-after is the longest remaining window among violated rules.
//
// # What this package must NOT do
//
//   - Decide which namespaces exist or what their budgets are (the rule
//     table is injected at construction).
//   - Be imported outside the realmauth module.
package rate
