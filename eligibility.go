package realmauth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
)

// CheckEligibility reports whether email may sign up in realm. Checks
// run in order and the first failure wins; the license check always
// runs last because it consults an independent billing system.
func (e *Engine) CheckEligibility(ctx context.Context, email string, realm *Realm, fromMultiuseInvite bool) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if realm == nil {
		return internalFault("eligibility check", errors.New("nil realm"))
	}

	if err := e.checkEligibility(ctx, email, realm, fromMultiuseInvite); err != nil {
		if !errors.Is(err, ErrInternalFault) {
			e.metricInc(MetricEligibilityRejected)
		}
		return err
	}
	return nil
}

func (e *Engine) checkEligibility(ctx context.Context, email string, realm *Realm, fromMultiuseInvite bool) error {
	if !fromMultiuseInvite && realm.InviteRequired {
		return ErrInviteRequired
	}

	if err := e.eligibility.EmailAllowedForRealm(ctx, realm, email); err != nil {
		switch {
		case errors.Is(err, ErrDomainNotAllowed),
			errors.Is(err, ErrDisposableEmail),
			errors.Is(err, ErrPlusAddressNotAllowed):
			return err
		default:
			return internalFault("eligibility oracle", err)
		}
	}

	if realm.MailingListLegacy {
		resolves, err := e.mailingList.Resolve(ctx, email)
		if err != nil {
			return internalFault("mailing list oracle", err)
		}
		if !resolves {
			return ErrMailingListUnresolved
		}
	}

	if e.config.Billing.EnforceLicenses {
		spare, err := e.licenses.SpareLicenseFor(ctx, realm)
		if err != nil {
			return internalFault("license oracle", err)
		}
		if !spare {
			return ErrNoSpareLicenses
		}
	}

	return nil
}

// CheckRealmCreationEmail validates the email given on the new-realm
// form: address syntax plus a disposable-domain screen. Realm-scoped
// policy does not apply because no realm exists yet.
func (e *Engine) CheckRealmCreationEmail(ctx context.Context, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		return ErrInvalidEmail
	}

	disposable, err := e.eligibility.DisposableDomain(ctx, email)
	if err != nil {
		return internalFault("disposable domain oracle", err)
	}
	if disposable {
		return ErrDisposableEmail
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
