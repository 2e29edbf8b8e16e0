package realmauth

import "context"

// Realm is an isolated tenant. Providers return it by subdomain; the
// empty subdomain addresses the organization served from the root
// domain itself.
type Realm struct {
	Subdomain string
	Name      string
	// URI is the canonical base URL for the realm, used in outbound
	// email links.
	URI string

	Deactivated bool
	// InviteRequired closes the realm to self-signup.
	InviteRequired bool
	// EmailAuthDisabled turns off password authentication realm-wide.
	EmailAuthDisabled bool
	// MailingListLegacy marks realms created before mailing-list
	// screening existed; their signups skip the resolution check.
	MailingListLegacy bool
}

// Identity is one account inside one realm. The same delivery email may
// appear in many realms as distinct identities.
type Identity struct {
	ID            string
	DeliveryEmail string
	// PasswordHash is empty when password authentication is disabled
	// for the account.
	PasswordHash string
	Active       bool
	// MirrorDummy identities are placeholders created by data imports.
	// They can never authenticate.
	MirrorDummy    bool
	RealmSubdomain string
}

// RealmProvider resolves realms from backing storage.
//
// Get returns ErrRealmNotFound when no realm has the subdomain. Exists
// reports whether a subdomain is taken; it must compare exactly and
// case-sensitively.
type RealmProvider interface {
	Get(ctx context.Context, subdomain string) (*Realm, error)
	Exists(ctx context.Context, subdomain string) (bool, error)
}

// IdentityProvider resolves accounts from backing storage.
//
// GetByEmail scopes the lookup to one realm and returns
// ErrIdentityNotFound on a miss. GetActiveByEmailAnywhere returns every
// active identity with the delivery email across all realms, in any
// order. UpdatePasswordHash persists a new hash for the identity.
type IdentityProvider interface {
	GetByEmail(ctx context.Context, realmSubdomain, email string) (*Identity, error)
	GetActiveByEmailAnywhere(ctx context.Context, email string) ([]*Identity, error)
	GetByID(ctx context.Context, id string) (*Identity, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// PasswordHasher hashes and verifies passwords. Verify must take the
// same time on a failed comparison as on a successful one.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) (bool, error)
}

// EligibilityOracle answers realm signup policy questions.
//
// EmailAllowedForRealm returns nil when the address may join the realm,
// or one of ErrDomainNotAllowed, ErrDisposableEmail,
// ErrPlusAddressNotAllowed. DisposableDomain reports whether the
// address uses a throwaway email provider.
type EligibilityOracle interface {
	EmailAllowedForRealm(ctx context.Context, realm *Realm, email string) error
	DisposableDomain(ctx context.Context, email string) (bool, error)
}

// MailingListOracle reports whether an address resolves to a real,
// deliverable individual mailbox rather than a list or a dead address.
// An error means the oracle could not decide; callers treat that as an
// internal fault, not a verdict.
type MailingListOracle interface {
	Resolve(ctx context.Context, email string) (bool, error)
}

// LicenseOracle answers seat-availability questions for paid realms.
type LicenseOracle interface {
	SpareLicenseFor(ctx context.Context, realm *Realm) (bool, error)
}

// DirectoryOracle reports whether an external identity directory owns
// password management for the address, in which case local password
// reset must be silently suppressed.
type DirectoryOracle interface {
	ManagesEmail(ctx context.Context, email string) (bool, error)
}

// StrengthOracle scores candidate passwords. Accept returns false for
// passwords that are too guessable regardless of length.
type StrengthOracle interface {
	Accept(password string) bool
}

// NameValidator applies deployment-specific rules to a user's full
// name during registration.
type NameValidator interface {
	ValidateName(name string) error
}

// EmailTemplate identifies which outbound email body the sender should
// render.
type EmailTemplate string

const (
	// TemplatePasswordReset carries a reset link for a known account.
	TemplatePasswordReset EmailTemplate = "password_reset"
	// TemplateNoAccount tells the recipient no account exists in the
	// realm, optionally pointing at their accounts elsewhere.
	TemplateNoAccount EmailTemplate = "password_reset_no_account"
	// TemplateFindTeam lists the realms where the recipient has
	// active accounts.
	TemplateFindTeam EmailTemplate = "find_team"
)

// EmailRequest is one outbound email. Context carries template inputs;
// its keys are template-specific.
type EmailRequest struct {
	Template EmailTemplate
	To       string
	// RealmSubdomain scopes the email to the realm it was triggered
	// from; empty for cross-realm emails such as team lookups.
	RealmSubdomain string
	Context        map[string]any
}

// EmailSender delivers outbound email. Implementations are expected to
// enqueue rather than block on SMTP.
type EmailSender interface {
	Send(ctx context.Context, req EmailRequest) error
}
