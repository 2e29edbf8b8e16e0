package realmauth

import (
	"errors"
	"time"

	"github.com/openparley/realmauth/internal/rate"
	"github.com/openparley/realmauth/password"
)

// Rate limit namespaces. Keys under one namespace share its rule set.
const (
	// RateLimitAuthenticate throttles login attempts per (realm, email).
	RateLimitAuthenticate = "authenticate_by_username"
	// RateLimitPasswordReset throttles reset emails per address.
	RateLimitPasswordReset = "password_reset_by_email"
)

// Config holds every tunable of the engine. Configure it before Build
// and treat it as immutable afterwards.
type Config struct {
	Subdomain     SubdomainConfig
	RateLimit     RateLimitConfig
	PasswordReset PasswordResetConfig
	Registration  RegistrationConfig
	Billing       BillingConfig
	Email         EmailConfig
	Password      password.Config
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
SUBDOMAIN CONFIG
====================================
*/

// SubdomainConfig controls subdomain availability checks.
type SubdomainConfig struct {
	// Reserved lists subdomains that cannot be registered even when no
	// realm uses them.
	Reserved []string
	// RootAvailable reports whether the root domain is still free for a
	// realm to claim.
	RootAvailable bool
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig maps namespaces to their counting rules. A namespace
// with no rules is unlimited and records nothing.
type RateLimitConfig struct {
	// Prefix namespaces the Redis keys, so several deployments can
	// share one Redis.
	Prefix string
	Rules  map[string][]rate.Rule
}

/*
====================================
PASSWORD RESET CONFIG
====================================
*/

// PasswordResetConfig controls the reset email flow.
type PasswordResetConfig struct {
	// TokenTTL bounds how long a reset link stays valid.
	TokenTTL time.Duration
	// SigningKey signs reset link tokens. Required.
	SigningKey []byte
	// DiscloseOtherRealms lets the no-account email mention the realms
	// where the address does have active accounts.
	DiscloseOtherRealms bool
	// RedisPrefix namespaces the single-use token ledger.
	RedisPrefix string
}

/*
====================================
REGISTRATION CONFIG
====================================
*/

// RegistrationConfig controls signup form validation.
type RegistrationConfig struct {
	// RequireTermsAcceptance makes the terms-of-service checkbox
	// mandatory.
	RequireTermsAcceptance bool
	// MaxPasswordLength bounds submitted passwords.
	MaxPasswordLength int
	// MaxNameLength bounds the full name field.
	MaxNameLength int
}

/*
====================================
BILLING CONFIG
====================================
*/

// BillingConfig controls seat enforcement.
type BillingConfig struct {
	// EnforceLicenses gates signups on the license oracle. Off by
	// default; self-hosted deployments have no seat counts.
	EnforceLicenses bool
}

/*
====================================
EMAIL CONFIG
====================================
*/

// EmailConfig controls outbound email addressing.
type EmailConfig struct {
	// MaxFindTeamEmails bounds one team-lookup request.
	MaxFindTeamEmails int
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditBackpressure selects what the dispatcher does when its buffer
// is full.
type AuditBackpressure int

const (
	// DropIfFull discards the event and counts the drop.
	DropIfFull AuditBackpressure = iota
	// Block waits for buffer space.
	Block
)

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled      bool
	BufferSize   int
	Backpressure AuditBackpressure
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Subdomain: SubdomainConfig{
			RootAvailable: false,
		},
		RateLimit: RateLimitConfig{
			Prefix: "rl",
			Rules: map[string][]rate.Rule{
				RateLimitAuthenticate: {
					{MaxAttempts: 5, Window: 30 * time.Minute},
				},
				RateLimitPasswordReset: {
					{MaxAttempts: 5, Window: time.Hour},
					{MaxAttempts: 24, Window: 24 * time.Hour},
				},
			},
		},
		PasswordReset: PasswordResetConfig{
			TokenTTL:    24 * time.Hour,
			RedisPrefix: "prt",
		},
		Registration: RegistrationConfig{
			RequireTermsAcceptance: false,
			MaxPasswordLength:      100,
			MaxNameLength:          100,
		},
		Billing: BillingConfig{
			EnforceLicenses: false,
		},
		Email: EmailConfig{
			MaxFindTeamEmails: 10,
		},
		Password: password.Config{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:      false,
			BufferSize:   1024,
			Backpressure: DropIfFull,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.PasswordReset.SigningKey = cloneBytes(cfg.PasswordReset.SigningKey)
	if cfg.Subdomain.Reserved != nil {
		out.Subdomain.Reserved = append([]string(nil), cfg.Subdomain.Reserved...)
	}
	if cfg.RateLimit.Rules != nil {
		rules := make(map[string][]rate.Rule, len(cfg.RateLimit.Rules))
		for ns, rs := range cfg.RateLimit.Rules {
			rules[ns] = append([]rate.Rule(nil), rs...)
		}
		out.RateLimit.Rules = rules
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	for ns, rules := range c.RateLimit.Rules {
		for _, r := range rules {
			if r.MaxAttempts <= 0 {
				return errors.New("RateLimit MaxAttempts must be > 0 in namespace " + ns)
			}
			if r.Window <= 0 {
				return errors.New("RateLimit Window must be > 0 in namespace " + ns)
			}
		}
	}

	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("PasswordReset TokenTTL must be > 0")
	}
	if len(c.PasswordReset.SigningKey) < 32 {
		return errors.New("PasswordReset SigningKey must be >= 32 bytes")
	}

	if c.Registration.MaxPasswordLength <= 0 {
		return errors.New("Registration MaxPasswordLength must be > 0")
	}
	if c.Registration.MaxNameLength <= 0 {
		return errors.New("Registration MaxNameLength must be > 0")
	}

	if c.Email.MaxFindTeamEmails <= 0 {
		return errors.New("Email MaxFindTeamEmails must be > 0")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when Audit is enabled")
	}

	return nil
}
