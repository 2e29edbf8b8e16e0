package realmauth

import "context"

type clientIPContextKey struct{}
type localeContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. The Engine
// records it on audit events for abuse monitoring.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithLocale attaches the caller's locale to ctx. Outbound emails carry
// it so the sender can render localized templates.
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeContextKey{}, locale)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}

func localeFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	locale, _ := ctx.Value(localeContextKey{}).(string)
	return locale
}
