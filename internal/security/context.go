package security

import (
	"context"
	"shop-auth/internal/model"
	"strings"
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"
)

func WithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(*model.Identity)
	return identity, ok && identity != nil
}

// ExtractBearerToken срезает префикс без учета регистра. Заголовок без
// префикса целиком считается токеном.
func ExtractBearerToken(header, prefix string) string {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, strings.TrimSpace(prefix)) {
		return ""
	}

	if len(header) >= len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return header
}
