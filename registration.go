package realmauth

import (
	"context"
	"strings"
)

// RegistrationRequest is one signup form submission. RealmCreation
// switches the subdomain and realm-name rules on; the subdomain fields
// are ignored when joining an existing realm.
type RegistrationRequest struct {
	FullName string
	Password string

	// PasswordRequired is false when the realm or deployment disables
	// password authentication, in which case the password field is
	// skipped entirely.
	PasswordRequired bool

	RealmCreation  bool
	RealmSubdomain string
	// RealmInRoot requests the root domain instead of a subdomain.
	RealmInRoot bool
	RealmName   string

	TermsAccepted bool
}

// Registration is a validated, normalized submission.
type Registration struct {
	FullName       string
	RealmSubdomain string
	RealmName      string
}

// ValidateRegistration checks every field of req and returns a
// [FieldErrors] naming each failure, or the normalized values when all
// fields pass. Fields are validated independently so the caller can
// render every problem at once.
func (e *Engine) ValidateRegistration(ctx context.Context, req RegistrationRequest) (*Registration, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	fieldErrs := FieldErrors{}

	fullName := strings.TrimSpace(req.FullName)
	if err := e.checkFullName(fullName); err != nil {
		fieldErrs["full_name"] = err
	}

	if req.PasswordRequired {
		if err := e.checkNewPassword(req.Password); err != nil {
			fieldErrs["password"] = err
		}
	}

	subdomain := ""
	if req.RealmCreation {
		subdomain = strings.TrimSpace(req.RealmSubdomain)
		if req.RealmInRoot {
			subdomain = RootSubdomain
		}
		if err := e.CheckSubdomainAvailable(ctx, subdomain, false); err != nil {
			fieldErrs["realm_subdomain"] = err
		}

		if strings.TrimSpace(req.RealmName) == "" {
			fieldErrs["realm_name"] = ErrRealmNameRequired
		}
	}

	if e.config.Registration.RequireTermsAcceptance && !req.TermsAccepted {
		fieldErrs["terms"] = ErrTermsNotAccepted
	}

	if len(fieldErrs) > 0 {
		e.metricInc(MetricRegistrationRejected)
		return nil, fieldErrs
	}

	return &Registration{
		FullName:       fullName,
		RealmSubdomain: subdomain,
		RealmName:      strings.TrimSpace(req.RealmName),
	}, nil
}

func (e *Engine) checkFullName(fullName string) error {
	if fullName == "" {
		return ErrFullNameRequired
	}
	if len(fullName) > e.config.Registration.MaxNameLength {
		return ErrNameTooLong
	}
	if e.names != nil {
		return e.names.ValidateName(fullName)
	}
	return nil
}
