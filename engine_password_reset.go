package realmauth

import (
	"context"
	"errors"
	"time"

	"github.com/openparley/realmauth/internal/stores"
)

// DispatchPasswordReset handles a password reset request for email in
// realm. It returns a non-nil error only for internal faults; every
// policy outcome, including "no such account", is deliberately
// indistinguishable from success so the response shape never reveals
// whether an account exists. Suppressed requests are logged server-side
// only.
func (e *Engine) DispatchPasswordReset(ctx context.Context, realm *Realm, email string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	if realm == nil {
		return internalFault("password reset", errors.New("nil realm"))
	}

	email = normalizeEmail(email)

	if realm.EmailAuthDisabled {
		e.logger.Info().
			Str("email", email).
			Str("subdomain", realm.Subdomain).
			Msg("password reset attempted with password auth disabled")
		e.dropReset(ctx, realm, email, "email_auth_disabled")
		return nil
	}

	managed, err := e.directory.ManagesEmail(ctx, email)
	if err != nil {
		return internalFault("directory oracle", err)
	}
	if managed {
		e.logger.Info().
			Str("email", email).
			Msg("password reset not allowed for directory-managed address")
		e.dropReset(ctx, realm, email, "directory_managed")
		return nil
	}

	if realm.Deactivated {
		e.logger.Info().
			Str("subdomain", realm.Subdomain).
			Msg("password reset attempted for deactivated realm")
		e.dropReset(ctx, realm, email, "realm_deactivated")
		return nil
	}

	res, err := e.limiter.RateLimit(ctx, RateLimitPasswordReset, email)
	if err != nil {
		return internalFault("rate limit", err)
	}
	if res.Limited {
		e.logger.Info().
			Str("email", email).
			Msg("too many password reset attempts")
		e.metricInc(MetricPasswordResetRateLimited)
		e.emitRateLimit(ctx, RateLimitPasswordReset, realm.Subdomain, res.RetryAfter)
		return nil
	}

	identity, err := e.identities.GetByEmail(ctx, realm.Subdomain, email)
	if err != nil && !errors.Is(err, ErrIdentityNotFound) {
		return internalFault("identity lookup", err)
	}

	emailCtx := map[string]any{
		"email":      email,
		"realm_uri":  realm.URI,
		"realm_name": realm.Name,
	}
	if locale := localeFromContext(ctx); locale != "" {
		emailCtx["locale"] = locale
	}

	if identity != nil && !identity.Active {
		emailCtx["user_deactivated"] = true
		identity = nil
	}

	if identity == nil {
		return e.sendNoAccountEmail(ctx, realm, email, emailCtx)
	}
	return e.sendResetEmail(ctx, realm, identity, emailCtx)
}

func (e *Engine) sendResetEmail(ctx context.Context, realm *Realm, identity *Identity, emailCtx map[string]any) error {
	token, jti, err := e.newResetToken(identity.ID, realm.Subdomain, time.Now())
	if err != nil {
		return internalFault("reset token", err)
	}
	if err := e.resetStore.Save(ctx, jti, identity.ID, e.config.PasswordReset.TokenTTL); err != nil {
		return internalFault("reset token store", err)
	}

	emailCtx["active_account_in_realm"] = true
	emailCtx["reset_url"] = realm.URI + "/accounts/password/reset/confirm/" + token

	// The link goes to the on-file address, not whatever casing the
	// requester typed.
	err = e.mailer.Send(ctx, EmailRequest{
		Template:       TemplatePasswordReset,
		To:             identity.DeliveryEmail,
		RealmSubdomain: realm.Subdomain,
		Context:        emailCtx,
	})
	if err != nil {
		return internalFault("send email", err)
	}

	e.metricInc(MetricPasswordResetRequest)
	e.emitAudit(ctx, auditEventPasswordResetRequest, true, identity.ID, realm.Subdomain, nil, nil)
	return nil
}

func (e *Engine) sendNoAccountEmail(ctx context.Context, realm *Realm, email string, emailCtx map[string]any) error {
	emailCtx["active_account_in_realm"] = false

	if e.config.PasswordReset.DiscloseOtherRealms {
		others, err := e.identities.GetActiveByEmailAnywhere(ctx, email)
		if err != nil {
			return internalFault("cross-realm lookup", err)
		}
		var subdomains []string
		for _, other := range others {
			subdomains = append(subdomains, other.RealmSubdomain)
		}
		if len(subdomains) > 0 {
			emailCtx["active_accounts_in_other_realms"] = subdomains
		}
	}

	err := e.mailer.Send(ctx, EmailRequest{
		Template:       TemplateNoAccount,
		To:             email,
		RealmSubdomain: realm.Subdomain,
		Context:        emailCtx,
	})
	if err != nil {
		return internalFault("send email", err)
	}

	e.metricInc(MetricPasswordResetNoAccount)
	e.emitAudit(ctx, auditEventPasswordResetNoAccount, true, "", realm.Subdomain, nil, nil)
	return nil
}

func (e *Engine) dropReset(ctx context.Context, realm *Realm, email, reason string) {
	e.metricInc(MetricPasswordResetSuppressed)
	e.emitAudit(ctx, auditEventPasswordResetDropped, false, "", realm.Subdomain, nil, func() map[string]string {
		return map[string]string{"reason": reason, "email": email}
	})
}

// ConfirmPasswordReset redeems a reset link token and sets a new
// password. Tokens are single use; a weak replacement password is
// rejected without consuming the token so the user can try again from
// the same link.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (*Identity, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.parseResetToken(token)
	if err != nil {
		e.metricInc(MetricPasswordResetConfirmFailure)
		return nil, ErrResetTokenInvalid
	}

	identityID, err := e.resetStore.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, stores.ErrResetNotFound) {
			e.metricInc(MetricPasswordResetConfirmFailure)
			e.emitAudit(ctx, auditEventPasswordResetConfirm, false, claims.Subject, claims.Realm, ErrResetTokenInvalid, nil)
			return nil, ErrResetTokenInvalid
		}
		return nil, internalFault("reset token store", err)
	}
	if identityID != claims.Subject {
		e.metricInc(MetricPasswordResetConfirmFailure)
		return nil, ErrResetTokenInvalid
	}

	if err := e.checkNewPassword(newPassword); err != nil {
		return nil, err
	}

	identity, err := e.identities.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.metricInc(MetricPasswordResetConfirmFailure)
			return nil, ErrResetTokenInvalid
		}
		return nil, internalFault("identity lookup", err)
	}
	if !identity.Active {
		e.metricInc(MetricPasswordResetConfirmFailure)
		return nil, ErrResetTokenInvalid
	}

	// Burn the token before writing the new hash, so two concurrent
	// confirmations cannot both succeed.
	if _, err := e.resetStore.Consume(ctx, claims.ID); err != nil {
		if errors.Is(err, stores.ErrResetNotFound) {
			e.metricInc(MetricPasswordResetConfirmFailure)
			return nil, ErrResetTokenInvalid
		}
		return nil, internalFault("reset token store", err)
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return nil, internalFault("password hash", err)
	}
	if err := e.identities.UpdatePasswordHash(ctx, identity.ID, hash); err != nil {
		return nil, internalFault("password update", err)
	}

	e.metricInc(MetricPasswordResetConfirmSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, identity.ID, claims.Realm, nil, nil)
	return identity, nil
}

func (e *Engine) checkNewPassword(newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) > e.config.Registration.MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if !e.strength.Accept(newPassword) {
		return ErrPasswordTooWeak
	}
	return nil
}
