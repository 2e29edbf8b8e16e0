package realmauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLoginSuccess           = "login_success"
	auditEventLoginFailure           = "login_failure"
	auditEventLoginRateLimited       = "login_rate_limited"
	auditEventLoginWrongRealm        = "login_wrong_realm"
	auditEventPasswordResetRequest   = "password_reset_request"
	auditEventPasswordResetNoAccount = "password_reset_no_account"
	auditEventPasswordResetDropped   = "password_reset_dropped"
	auditEventPasswordResetConfirm   = "password_reset_confirm"
	auditEventFindTeamRequest        = "find_team_request"
	auditEventRateLimitTriggered     = "rate_limit_triggered"
)

// AuditErrorCode is the stable error vocabulary recorded on audit
// events in place of raw error text.
type AuditErrorCode string

const (
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrAccountDeactivated    AuditErrorCode = "account_deactivated"
	auditErrPasswordResetRequired AuditErrorCode = "password_auth_disabled"
	auditErrWrongRealm            AuditErrorCode = "wrong_realm"
	auditErrRateLimited           AuditErrorCode = "rate_limited"
	auditErrInvalidToken          AuditErrorCode = "invalid_token"
	auditErrPasswordPolicy        AuditErrorCode = "password_policy"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrAccountDeactivated):
		return auditErrAccountDeactivated
	case errors.Is(err, ErrPasswordResetRequired):
		return auditErrPasswordResetRequired
	case errors.Is(err, ErrWrongRealm):
		return auditErrWrongRealm
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrResetTokenInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrPasswordTooWeak), errors.Is(err, ErrPasswordRequired), errors.Is(err, ErrPasswordTooLong):
		return auditErrPasswordPolicy
	default:
		return auditErrInternal
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	identityID string,
	realmSubdomain string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		IdentityID: identityID,
		Realm:      realmSubdomain,
		IP:         clientIPFromContext(ctx),
		Success:    success,
		Metadata:   metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func (e *Engine) emitRateLimit(ctx context.Context, namespace, realmSubdomain string, retryAfter time.Duration) {
	e.metricInc(MetricRateLimitHit)
	e.emitAudit(ctx, auditEventRateLimitTriggered, false, "", realmSubdomain, ErrRateLimited, func() map[string]string {
		return map[string]string{
			"namespace":   namespace,
			"retry_after": retryAfter.String(),
		}
	})
}
