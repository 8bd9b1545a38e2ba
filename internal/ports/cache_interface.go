package ports

import (
	"context"
	"time"
)

// RevocationRepository : Redis слой
type RevocationRepository interface {
	SetCutoff(ctx context.Context, userID string, cutoff time.Time, ttl time.Duration) error
	GetCutoff(ctx context.Context, userID string) (time.Time, bool, error)
	ClearCutoff(ctx context.Context, userID string) error
}
