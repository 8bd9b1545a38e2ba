package ports

import (
	"context"
	"shop-auth/internal/model"
	"time"
)

type AuthenticationService interface {
	Login(ctx context.Context, username, password string) (*model.TokensPair, error)
	Refresh(ctx context.Context, refreshJwt string) (*model.TokensPair, error)
	CheckAccessToken(ctx context.Context, accessJwt string) (*model.TokenIntrospection, error)
	RevokeAll(ctx context.Context, userID string) (time.Time, error)
	ClearRevocation(ctx context.Context, userID string) error
}

// SessionRevoker отзывает все выданные пользователю токены.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID string) (time.Time, error)
}
