package realmauth

import (
	"context"
	"net/mail"
	"strconv"
	"strings"
)

// FindTeams takes a comma-separated list of email addresses and sends
// each address that has active accounts an email listing the realms
// they belong to. The return value is the normalized address list only;
// whether any address matched an account is never revealed to the
// caller.
func (e *Engine) FindTeams(ctx context.Context, rawEmails string) ([]string, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	emails, err := e.parseEmailList(rawEmails)
	if err != nil {
		return nil, err
	}

	for _, email := range emails {
		accounts, err := e.identities.GetActiveByEmailAnywhere(ctx, email)
		if err != nil {
			return nil, internalFault("cross-realm lookup", err)
		}
		if len(accounts) == 0 {
			continue
		}

		var subdomains []string
		for _, account := range accounts {
			subdomains = append(subdomains, account.RealmSubdomain)
		}

		emailCtx := map[string]any{
			"email":  email,
			"realms": subdomains,
		}
		if locale := localeFromContext(ctx); locale != "" {
			emailCtx["locale"] = locale
		}

		err = e.mailer.Send(ctx, EmailRequest{
			Template: TemplateFindTeam,
			To:       email,
			Context:  emailCtx,
		})
		if err != nil {
			return nil, internalFault("send email", err)
		}
	}

	e.metricInc(MetricFindTeamRequest)
	e.emitAudit(ctx, auditEventFindTeamRequest, true, "", "", nil, func() map[string]string {
		return map[string]string{"count": strconv.Itoa(len(emails))}
	})
	return emails, nil
}

func (e *Engine) parseEmailList(rawEmails string) ([]string, error) {
	var emails []string
	for _, part := range strings.Split(rawEmails, ",") {
		email := normalizeEmail(part)
		if email == "" {
			continue
		}
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, ErrInvalidEmail
		}
		emails = append(emails, email)
	}
	if len(emails) == 0 {
		return nil, ErrInvalidEmail
	}
	if len(emails) > e.config.Email.MaxFindTeamEmails {
		return nil, ErrTooManyEmails
	}
	return emails, nil
}
