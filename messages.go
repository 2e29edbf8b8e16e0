package realmauth

import (
	"errors"
	"fmt"
)

// Fixed user-facing strings. Security-relevant denials stay
// deliberately vague; never extend them with account details.
const (
	msgSubdomainTooShort     = "Subdomain needs to have length 3 or greater."
	msgSubdomainExtremalDash = "Subdomain cannot start or end with a '-'."
	msgSubdomainBadCharacter = "Subdomain can only have lowercase letters, numbers, and '-'s."
	msgSubdomainUnavailable  = "Subdomain unavailable. Please choose a different one."

	msgInvalidCredentials = "Please enter a correct email and password. Note that both fields may be case-sensitive."
	msgAccountDeactivated = "Your account is no longer active. " +
		"Please contact your organization administrator to reactivate it."
	msgPasswordResetNeeded = "Your password has been disabled because it is too weak. " +
		"Reset your password to create a new one."
	msgWrongRealm = "Your account is not a member of the " +
		"organization associated with this subdomain. " +
		"Please contact your organization administrator with any questions."
	msgRateLimited = "You're making too many attempts to sign in. " +
		"Try again in %d seconds or contact your organization administrator " +
		"for help."

	msgInviteRequired = "Please request an invite from the organization administrator."
	msgDomainNotAllowed = "Your email address is not in one of the domains " +
		"that are allowed to register for accounts in this organization."
	msgDisposableEmail       = "Please use your real email address."
	msgPlusAddressNotAllowed = "Email addresses containing + are not allowed in this organization."
	msgMailingListUnresolved = "That user does not exist or is a mailing list. " +
		"If you want to sign up an alias, contact support."
	msgNoSpareLicenses = "New members cannot join this organization because all licenses are in use. " +
		"Please contact the person who invited you and ask them to increase the number of licenses, " +
		"then try again."

	msgPasswordTooWeak   = "The password is too weak."
	msgPasswordRequired  = "Please enter a password."
	msgPasswordTooLong   = "The password is too long."
	msgFullNameRequired  = "Please enter your name."
	msgNameTooLong       = "Name too long!"
	msgRealmNameRequired = "Please enter a name for your organization."
	msgTermsNotAccepted  = "You must accept the Terms of Service to register."

	msgInvalidEmail  = "Please enter a valid email address."
	msgTooManyEmails = "Please enter at most 10 emails."
	msgRealmNotFound = "We couldn't find that organization."

	msgResetTokenInvalid = "The password reset link is invalid or has expired."

	msgInternal = "Something went wrong. Please try again later."
)

// UserMessage maps an engine error to its user-displayable message.
// Internal faults and unknown errors collapse to a generic failure.
func UserMessage(err error) string {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return fmt.Sprintf(msgRateLimited, rl.RetryAfterSeconds())
	}

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSubdomainTooShort):
		return msgSubdomainTooShort
	case errors.Is(err, ErrSubdomainExtremalDash):
		return msgSubdomainExtremalDash
	case errors.Is(err, ErrSubdomainBadCharacter):
		return msgSubdomainBadCharacter
	case errors.Is(err, ErrSubdomainUnavailable):
		return msgSubdomainUnavailable
	case errors.Is(err, ErrInvalidCredentials):
		return msgInvalidCredentials
	case errors.Is(err, ErrAccountDeactivated):
		return msgAccountDeactivated
	case errors.Is(err, ErrPasswordResetRequired):
		return msgPasswordResetNeeded
	case errors.Is(err, ErrWrongRealm):
		return msgWrongRealm
	case errors.Is(err, ErrInviteRequired):
		return msgInviteRequired
	case errors.Is(err, ErrDomainNotAllowed):
		return msgDomainNotAllowed
	case errors.Is(err, ErrDisposableEmail):
		return msgDisposableEmail
	case errors.Is(err, ErrPlusAddressNotAllowed):
		return msgPlusAddressNotAllowed
	case errors.Is(err, ErrMailingListUnresolved):
		return msgMailingListUnresolved
	case errors.Is(err, ErrNoSpareLicenses):
		return msgNoSpareLicenses
	case errors.Is(err, ErrPasswordTooWeak):
		return msgPasswordTooWeak
	case errors.Is(err, ErrPasswordRequired):
		return msgPasswordRequired
	case errors.Is(err, ErrPasswordTooLong):
		return msgPasswordTooLong
	case errors.Is(err, ErrFullNameRequired):
		return msgFullNameRequired
	case errors.Is(err, ErrNameTooLong):
		return msgNameTooLong
	case errors.Is(err, ErrRealmNameRequired):
		return msgRealmNameRequired
	case errors.Is(err, ErrTermsNotAccepted):
		return msgTermsNotAccepted
	case errors.Is(err, ErrInvalidEmail):
		return msgInvalidEmail
	case errors.Is(err, ErrTooManyEmails):
		return msgTooManyEmails
	case errors.Is(err, ErrRealmNotFound):
		return msgRealmNotFound
	case errors.Is(err, ErrResetTokenInvalid):
		return msgResetTokenInvalid
	default:
		return msgInternal
	}
}
