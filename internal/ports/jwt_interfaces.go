package ports

import (
	"shop-auth/internal/security"
	"time"
)

type TokenIssuer interface {
	Issue(tokenType security.TokenType, userID string, roles []string, ttl time.Duration) (string, *security.Token, error)
	Now() time.Time
}
