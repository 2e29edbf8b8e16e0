package realmauth

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrEngineNotReady is returned when an Engine is used before Build
	// wired its required collaborators.
	ErrEngineNotReady = errors.New("engine not initialized")

	// ErrInvalidCredentials covers every login failure that must stay
	// indistinguishable from "no such account": wrong password, unknown
	// email, and mirror-dummy placeholders.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDeactivated is returned for a known, deactivated,
	// non-placeholder account.
	ErrAccountDeactivated = errors.New("account deactivated")
	// ErrPasswordResetRequired is returned when the account exists but
	// password authentication is disabled for it (no usable hash).
	ErrPasswordResetRequired = errors.New("password reset required")
	// ErrWrongRealm is returned when the credentials match an account
	// that lives in a different realm than the one being logged into.
	ErrWrongRealm = errors.New("account belongs to another realm")
	// ErrRateLimited is the target for errors.Is on [RateLimitedError].
	ErrRateLimited = errors.New("rate limited")
	// ErrRealmDeactivated is the inactive-realm authentication outcome.
	// It never crosses the Engine boundary: Login converts it into an
	// [InternalFaultError] because callers must reject deactivated
	// realms before attempting authentication.
	ErrRealmDeactivated = errors.New("realm deactivated")

	// ErrRealmNotFound is the RealmProvider not-found sentinel.
	ErrRealmNotFound = errors.New("realm not found")
	// ErrIdentityNotFound is the IdentityProvider not-found sentinel.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrSubdomainTooShort rejects subdomains shorter than 3 characters.
	ErrSubdomainTooShort = errors.New("subdomain too short")
	// ErrSubdomainExtremalDash rejects a leading or trailing '-'.
	ErrSubdomainExtremalDash = errors.New("subdomain starts or ends with dash")
	// ErrSubdomainBadCharacter rejects characters outside [a-z0-9-].
	ErrSubdomainBadCharacter = errors.New("subdomain has invalid characters")
	// ErrSubdomainUnavailable covers taken, reserved, and unavailable
	// root-domain registrations without distinguishing them.
	ErrSubdomainUnavailable = errors.New("subdomain unavailable")

	// ErrInviteRequired is returned when a realm only admits invited users.
	ErrInviteRequired = errors.New("invite required")
	// ErrDomainNotAllowed is the eligibility oracle's allow-list failure.
	ErrDomainNotAllowed = errors.New("email domain not allowed in realm")
	// ErrDisposableEmail is the eligibility oracle's disposable-domain failure.
	ErrDisposableEmail = errors.New("disposable email address")
	// ErrPlusAddressNotAllowed is the eligibility oracle's plus-address failure.
	ErrPlusAddressNotAllowed = errors.New("email contains +")
	// ErrMailingListUnresolved is returned when the mailing-list oracle
	// reports the address does not resolve to a deliverable user.
	ErrMailingListUnresolved = errors.New("address is a mailing list or does not exist")
	// ErrNoSpareLicenses is returned when the license oracle reports the
	// realm has no seats left.
	ErrNoSpareLicenses = errors.New("no spare licenses")

	// ErrPasswordTooWeak is returned when the strength oracle rejects a
	// submitted password.
	ErrPasswordTooWeak = errors.New("password too weak")
	// ErrPasswordRequired is returned when a required password field is empty.
	ErrPasswordRequired = errors.New("password required")
	// ErrPasswordTooLong bounds submitted password length.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrFullNameRequired is returned when the full name field is empty.
	ErrFullNameRequired = errors.New("full name required")
	// ErrNameTooLong bounds the full name field.
	ErrNameTooLong = errors.New("name too long")
	// ErrRealmNameRequired is returned in realm-creation mode when the
	// realm name is missing.
	ErrRealmNameRequired = errors.New("realm name required")
	// ErrTermsNotAccepted is returned when the deployment requires
	// terms-of-service acceptance and the box was not checked.
	ErrTermsNotAccepted = errors.New("terms of service not accepted")

	// ErrInvalidEmail rejects syntactically invalid email addresses.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrTooManyEmails bounds the team-lookup address list.
	ErrTooManyEmails = errors.New("too many email addresses")

	// ErrResetTokenInvalid covers expired, malformed, tampered, and
	// already-used password reset tokens.
	ErrResetTokenInvalid = errors.New("invalid password reset token")

	// ErrInternalFault is the target for errors.Is on [InternalFaultError].
	ErrInternalFault = errors.New("internal fault")
)

// RateLimitedError is returned when an operation's attempt budget is
// exhausted. errors.Is(err, ErrRateLimited) matches it.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %ds", e.RetryAfterSeconds())
}

func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// RetryAfterSeconds rounds the remaining wait up to whole seconds, so a
// positive wait never truncates to zero.
func (e *RateLimitedError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// InternalFaultError marks a programming-invariant violation or a
// backing-store failure. It must never be rendered to the end user
// beyond a generic failure message; errors.Is(err, ErrInternalFault)
// matches it.
type InternalFaultError struct {
	Op  string
	Err error
}

func (e *InternalFaultError) Error() string {
	if e.Err == nil {
		return "internal fault: " + e.Op
	}
	return fmt.Sprintf("internal fault: %s: %v", e.Op, e.Err)
}

func (e *InternalFaultError) Unwrap() error { return e.Err }

func (e *InternalFaultError) Is(target error) bool {
	return target == ErrInternalFault
}

func internalFault(op string, err error) error {
	return &InternalFaultError{Op: op, Err: err}
}

// FieldErrors maps submission field names to their validation error.
// Registration validation returns one so the HTTP layer can render
// errors next to the offending fields.
type FieldErrors map[string]error

func (f FieldErrors) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(f))
}

// Field returns the error recorded for a field, or nil.
func (f FieldErrors) Field(name string) error {
	return f[name]
}
