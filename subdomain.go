package realmauth

import (
	"context"
	"errors"
)

// RootSubdomain is the sentinel identifier for the organization served
// from the root domain itself.
const RootSubdomain = ""

// CheckSubdomainAvailable reports whether subdomain can be registered
// for a new realm. Checks run in order and the first failure wins:
// length, extremal dash, character set, existing realm, reserved word.
// allowReserved admits reserved words that no realm uses yet.
func (e *Engine) CheckSubdomainAvailable(ctx context.Context, subdomain string, allowReserved bool) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.checkSubdomain(ctx, subdomain, allowReserved); err != nil {
		if !errors.Is(err, ErrInternalFault) {
			e.metricInc(MetricSubdomainRejected)
		}
		return err
	}
	return nil
}

func (e *Engine) checkSubdomain(ctx context.Context, subdomain string, allowReserved bool) error {
	if subdomain == RootSubdomain {
		if e.config.Subdomain.RootAvailable {
			return nil
		}
		return ErrSubdomainUnavailable
	}

	if len(subdomain) < 3 {
		return ErrSubdomainTooShort
	}
	if subdomain[0] == '-' || subdomain[len(subdomain)-1] == '-' {
		return ErrSubdomainExtremalDash
	}
	for i := 0; i < len(subdomain); i++ {
		c := subdomain[i]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' {
			continue
		}
		return ErrSubdomainBadCharacter
	}

	exists, err := e.realms.Exists(ctx, subdomain)
	if err != nil {
		return internalFault("subdomain lookup", err)
	}
	if exists {
		return ErrSubdomainUnavailable
	}

	if !allowReserved && e.isReservedSubdomain(subdomain) {
		return ErrSubdomainUnavailable
	}

	return nil
}

func (e *Engine) isReservedSubdomain(subdomain string) bool {
	for _, r := range e.config.Subdomain.Reserved {
		if r == subdomain {
			return true
		}
	}
	return false
}

// CheckRealmRedirect resolves a subdomain typed into the
// organization-finder form. It returns ErrRealmNotFound when no realm
// uses the subdomain.
func (e *Engine) CheckRealmRedirect(ctx context.Context, subdomain string) (*Realm, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	realm, err := e.realms.Get(ctx, subdomain)
	if err != nil {
		if errors.Is(err, ErrRealmNotFound) {
			return nil, ErrRealmNotFound
		}
		return nil, internalFault("realm lookup", err)
	}
	return realm, nil
}
