package realmauth

import (
	"context"
	"errors"
)

// Login authenticates email and passwd against realm. The caller must
// have already resolved realm and verified it is active; a deactivated
// realm here is a caller-contract violation and comes back as an
// [InternalFaultError].
//
// The rate limiter is consulted before any credential work, so a
// limited caller never learns anything from timing. On success the
// matched identity is returned; otherwise one of ErrInvalidCredentials,
// ErrAccountDeactivated, ErrPasswordResetRequired, ErrWrongRealm, or a
// [RateLimitedError].
func (e *Engine) Login(ctx context.Context, realm *Realm, email, passwd string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}
	if realm == nil {
		return nil, internalFault("login", errors.New("nil realm"))
	}

	email = normalizeEmail(email)

	res, err := e.limiter.RateLimit(ctx, RateLimitAuthenticate, realm.Subdomain+":"+email)
	if err != nil {
		return nil, internalFault("rate limit", err)
	}
	if res.Limited {
		e.metricInc(MetricLoginRateLimited)
		e.metricInc(MetricLoginFailure)
		e.emitRateLimit(ctx, RateLimitAuthenticate, realm.Subdomain, res.RetryAfter)
		return nil, &RateLimitedError{RetryAfter: res.RetryAfter}
	}

	identity, err := e.authenticate(ctx, realm, email, passwd)
	if err != nil {
		if errors.Is(err, ErrRealmDeactivated) {
			// Callers validate realm liveness before asking for
			// authentication; reaching this point is a bug upstream.
			return nil, internalFault("login", err)
		}
		if !errors.Is(err, ErrInternalFault) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", realm.Subdomain, err, func() map[string]string {
				return map[string]string{"email": email}
			})
		}
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, identity.ID, realm.Subdomain, nil, nil)
	return identity, nil
}

func (e *Engine) authenticate(ctx context.Context, realm *Realm, email, passwd string) (*Identity, error) {
	if realm.Deactivated {
		return nil, ErrRealmDeactivated
	}

	identity, err := e.identities.GetByEmail(ctx, realm.Subdomain, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return nil, e.probeOtherRealms(ctx, realm, email, passwd)
		}
		return nil, internalFault("identity lookup", err)
	}

	if identity.MirrorDummy {
		// Import placeholders must look exactly like absent accounts.
		_, _ = e.hasher.Verify(passwd, e.dummyHash)
		return nil, ErrInvalidCredentials
	}
	if !identity.Active {
		return nil, ErrAccountDeactivated
	}
	if identity.PasswordHash == "" {
		return nil, ErrPasswordResetRequired
	}

	ok, err := e.hasher.Verify(passwd, identity.PasswordHash)
	if err != nil {
		return nil, internalFault("password verify", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return identity, nil
}

// probeOtherRealms runs after an in-realm lookup miss. A credential
// match elsewhere is reported as ErrWrongRealm with a warning log for
// abuse monitoring; anything else degrades to ErrInvalidCredentials
// after equivalent hashing work.
func (e *Engine) probeOtherRealms(ctx context.Context, realm *Realm, email, passwd string) error {
	others, err := e.identities.GetActiveByEmailAnywhere(ctx, email)
	if err != nil {
		return internalFault("cross-realm lookup", err)
	}

	for _, other := range others {
		if other.RealmSubdomain == realm.Subdomain || other.PasswordHash == "" {
			continue
		}
		ok, err := e.hasher.Verify(passwd, other.PasswordHash)
		if err != nil {
			return internalFault("password verify", err)
		}
		if ok {
			e.logger.Warn().
				Str("email", email).
				Str("attempted_subdomain", realm.Subdomain).
				Str("account_subdomain", other.RealmSubdomain).
				Msg("password login attempted against wrong subdomain")
			e.metricInc(MetricLoginWrongRealm)
			e.emitAudit(ctx, auditEventLoginWrongRealm, false, other.ID, realm.Subdomain, ErrWrongRealm, func() map[string]string {
				return map[string]string{
					"email":             email,
					"account_subdomain": other.RealmSubdomain,
				}
			})
			return ErrWrongRealm
		}
	}

	_, _ = e.hasher.Verify(passwd, e.dummyHash)
	return ErrInvalidCredentials
}
