package ports

import (
	"context"
	"shop-auth/internal/model"
	"shop-auth/internal/model/requestresponse"
)

// UserRepository : SQL слой
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, uuid string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePassword(ctx context.Context, uuid, newPasswordHash string) error
	UpdateJWTValidator(ctx context.Context, uuid string, validator int64) error
}

type UserService interface {
	Register(ctx context.Context, request *requestresponse.RegisterRequest) (*model.User, error)
	GetUser(ctx context.Context, uuid string) (*model.User, error)
	ChangePassword(ctx context.Context, uuid, currentPassword, newPassword string) error
}
