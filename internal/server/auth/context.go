package auth

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

type accountKey struct{}

// WithAccount attaches the authenticated account to ctx.
func WithAccount(ctx context.Context, account *models.PublicAccountView) context.Context {
	return context.WithValue(ctx, accountKey{}, account)
}

// AccountFromContext returns the account attached by WithAccount.
func AccountFromContext(ctx context.Context) (*models.PublicAccountView, bool) {
	a, ok := ctx.Value(accountKey{}).(*models.PublicAccountView)
	return a, ok && a != nil
}

type clientIPKey struct{}

// WithClientIP records the caller's network address for login throttling.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIPFromContext returns the address set by WithClientIP, or "".
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
