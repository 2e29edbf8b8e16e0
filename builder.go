package realmauth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	internalaudit "github.com/openparley/realmauth/internal/audit"
	"github.com/openparley/realmauth/internal/rate"
	"github.com/openparley/realmauth/internal/stores"
	"github.com/openparley/realmauth/password"
)

// Builder assembles an [Engine]. Configure it with the With* methods
// and call Build once.
type Builder struct {
	config Config

	redis      *redis.Client
	realms     RealmProvider
	identities IdentityProvider
	mailer     EmailSender

	hasher      PasswordHasher
	eligibility EligibilityOracle
	mailingList MailingListOracle
	licenses    LicenseOracle
	directory   DirectoryOracle
	strength    StrengthOracle
	names       NameValidator

	logger    *zerolog.Logger
	auditSink AuditSink

	built bool
}

// New returns a Builder preloaded with default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing rate limit counters and the
// reset token ledger. Required.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithRealmProvider sets the realm repository. Required.
func (b *Builder) WithRealmProvider(rp RealmProvider) *Builder {
	b.realms = rp
	return b
}

// WithIdentityProvider sets the account repository. Required.
func (b *Builder) WithIdentityProvider(ip IdentityProvider) *Builder {
	b.identities = ip
	return b
}

// WithEmailSender sets the outbound email transport. Required.
func (b *Builder) WithEmailSender(s EmailSender) *Builder {
	b.mailer = s
	return b
}

// WithHasher overrides the default argon2id password hasher.
func (b *Builder) WithHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithEligibilityOracle sets the signup policy oracle. Defaults to
// allowing every address.
func (b *Builder) WithEligibilityOracle(o EligibilityOracle) *Builder {
	b.eligibility = o
	return b
}

// WithMailingListOracle sets the mailing-list screening oracle used for
// legacy realms. Defaults to treating every address as deliverable.
func (b *Builder) WithMailingListOracle(o MailingListOracle) *Builder {
	b.mailingList = o
	return b
}

// WithLicenseOracle sets the seat-availability oracle. Only consulted
// when Billing.EnforceLicenses is on.
func (b *Builder) WithLicenseOracle(o LicenseOracle) *Builder {
	b.licenses = o
	return b
}

// WithDirectoryOracle sets the external-directory oracle that
// suppresses local password resets for managed addresses. Defaults to
// managing nothing.
func (b *Builder) WithDirectoryOracle(o DirectoryOracle) *Builder {
	b.directory = o
	return b
}

// WithStrengthOracle sets the password strength checker. Defaults to a
// minimum-length rule.
func (b *Builder) WithStrengthOracle(o StrengthOracle) *Builder {
	b.strength = o
	return b
}

// WithNameValidator sets deployment-specific full-name rules.
func (b *Builder) WithNameValidator(v NameValidator) *Builder {
	b.names = v
	return b
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.logger = &l
	return b
}

// WithAuditSink sets the audit event consumer. Only used when
// Audit.Enabled is on.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// Build validates the configuration, wires the stores and defaults,
// and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.realms == nil {
		return nil, errors.New("realm provider required")
	}
	if b.identities == nil {
		return nil, errors.New("identity provider required")
	}
	if b.mailer == nil {
		return nil, errors.New("email sender required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hasher := b.hasher
	if hasher == nil {
		argon, err := password.NewArgon2(cfg.Password)
		if err != nil {
			return nil, err
		}
		hasher = argon
	}

	// Hash of a throwaway secret nobody knows. Verifying against it
	// keeps the no-such-account paths as slow as real comparisons.
	dummyHash, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:     cfg,
		realms:     b.realms,
		identities: b.identities,
		mailer:     b.mailer,
		hasher:     hasher,
		dummyHash:  dummyHash,
	}

	engine.limiter = rate.New(b.redis, rate.Config{
		Prefix: cfg.RateLimit.Prefix,
		Rules:  cfg.RateLimit.Rules,
	})
	engine.resetStore = stores.NewResetTokenStore(b.redis, cfg.PasswordReset.RedisPrefix)
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.Backpressure == DropIfFull,
	}, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	if b.logger != nil {
		engine.logger = *b.logger
	} else {
		engine.logger = zerolog.Nop()
	}

	engine.eligibility = b.eligibility
	if engine.eligibility == nil {
		engine.eligibility = allowAllEligibility{}
	}
	engine.mailingList = b.mailingList
	if engine.mailingList == nil {
		engine.mailingList = alwaysResolves{}
	}
	engine.licenses = b.licenses
	if engine.licenses == nil {
		engine.licenses = unlimitedLicenses{}
	}
	engine.directory = b.directory
	if engine.directory == nil {
		engine.directory = managesNothing{}
	}
	engine.strength = b.strength
	if engine.strength == nil {
		engine.strength = minLengthStrength{min: 6}
	}
	engine.names = b.names

	b.built = true
	return engine, nil
}

/*
====================================
DEFAULT ORACLES
====================================
*/

type allowAllEligibility struct{}

func (allowAllEligibility) EmailAllowedForRealm(context.Context, *Realm, string) error {
	return nil
}

func (allowAllEligibility) DisposableDomain(context.Context, string) (bool, error) {
	return false, nil
}

type alwaysResolves struct{}

func (alwaysResolves) Resolve(context.Context, string) (bool, error) { return true, nil }

type unlimitedLicenses struct{}

func (unlimitedLicenses) SpareLicenseFor(context.Context, *Realm) (bool, error) { return true, nil }

type managesNothing struct{}

func (managesNothing) ManagesEmail(context.Context, string) (bool, error) { return false, nil }

type minLengthStrength struct {
	min int
}

func (s minLengthStrength) Accept(password string) bool {
	return len(password) >= s.min
}
