package realmauth

import (
	"github.com/rs/zerolog"

	internalaudit "github.com/openparley/realmauth/internal/audit"
	"github.com/openparley/realmauth/internal/rate"
	"github.com/openparley/realmauth/internal/stores"
)

// Engine is the account-lifecycle core. Build one with [New] and share
// it; all methods are safe for concurrent use.
type Engine struct {
	config     Config
	logger     zerolog.Logger
	limiter    *rate.Limiter
	resetStore *stores.ResetTokenStore
	audit      *internalaudit.Dispatcher
	metrics    *Metrics

	realms      RealmProvider
	identities  IdentityProvider
	hasher      PasswordHasher
	eligibility EligibilityOracle
	mailingList MailingListOracle
	licenses    LicenseOracle
	directory   DirectoryOracle
	strength    StrengthOracle
	names       NameValidator
	mailer      EmailSender

	// dummyHash is verified against when no account matches a login or
	// reset request, so the not-found path costs the same as a real
	// comparison.
	dummyHash string
}

// Close flushes and stops the audit dispatcher. The engine must not be
// used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded under
// backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
