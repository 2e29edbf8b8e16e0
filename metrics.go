package realmauth

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected logins of every kind.
	MetricLoginFailure
	// MetricLoginRateLimited counts logins rejected by the limiter.
	MetricLoginRateLimited
	// MetricLoginWrongRealm counts credential matches in a realm other
	// than the one being logged into.
	MetricLoginWrongRealm
	// MetricPasswordResetRequest counts reset dispatches that sent a
	// reset link.
	MetricPasswordResetRequest
	// MetricPasswordResetNoAccount counts reset dispatches that sent
	// the no-account notice.
	MetricPasswordResetNoAccount
	// MetricPasswordResetSuppressed counts reset dispatches silently
	// dropped by policy.
	MetricPasswordResetSuppressed
	// MetricPasswordResetRateLimited counts reset dispatches rejected
	// by the limiter.
	MetricPasswordResetRateLimited
	// MetricPasswordResetConfirmSuccess counts completed resets.
	MetricPasswordResetConfirmSuccess
	// MetricPasswordResetConfirmFailure counts rejected reset tokens.
	MetricPasswordResetConfirmFailure
	// MetricSubdomainRejected counts failed subdomain checks.
	MetricSubdomainRejected
	// MetricEligibilityRejected counts failed signup eligibility checks.
	MetricEligibilityRejected
	// MetricRegistrationRejected counts registration submissions with
	// field errors.
	MetricRegistrationRejected
	// MetricFindTeamRequest counts team-lookup dispatches.
	MetricFindTeamRequest
	// MetricRateLimitHit counts limiter rejections across namespaces.
	MetricRateLimitHit
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of in-process counters. All methods are safe
// for concurrent use and are no-ops on a nil or disabled receiver.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled: cfg.Enabled,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
