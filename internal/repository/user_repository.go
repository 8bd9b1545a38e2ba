package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"shop-auth/config"
	"shop-auth/internal/model"
	"shop-auth/internal/util"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

const userColumns = `uuid, username, password_hash, nickname, email, roles, jwt_validator, created_at`

type UserRepository struct {
	*config.Database
}

func NewUserRepository(database *config.Database) *UserRepository {
	return &UserRepository{database}
}

// CreateUser : сохраняет нового пользователя
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
	INSERT INTO users (uuid, username, password_hash, nickname, email, roles, jwt_validator)
	VALUES ($1, $2, $3, $4, $5, $6, 0)
	RETURNING ` + userColumns

	createdUser := &model.User{}
	err := r.DB.QueryRowxContext(ctx, query,
		user.UUID,
		user.Username,
		user.PasswordHash,
		user.Nickname,
		user.Email,
		user.Roles,
	).StructScan(createdUser)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, fmt.Errorf("[UserRepo] %w: %s", model.ErrUserAlreadyExists, user.Username)
		}
		return nil, util.LogError("[UserRepo] ошибка вставки данных в БД", err)
	}

	return createdUser, nil
}

// FindByID : ищет пользователя по UUID
func (r *UserRepository) FindByID(ctx context.Context, uuid string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uuid = $1 AND deleted_at IS NULL`
	return r.findOne(ctx, query, uuid)
}

// FindByUsername : ищет пользователя по username
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 AND deleted_at IS NULL`
	return r.findOne(ctx, query, username)
}

// UpdatePassword : меняет хэш пароля пользователя
func (r *UserRepository) UpdatePassword(ctx context.Context, uuid, newPasswordHash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE uuid = $1`
	return r.execOne(ctx, query, uuid, newPasswordHash)
}

// UpdateJWTValidator : сохраняет отсечку отзыва токенов пользователя (epoch-мс)
func (r *UserRepository) UpdateJWTValidator(ctx context.Context, uuid string, validator int64) error {
	query := `UPDATE users SET jwt_validator = $2 WHERE uuid = $1`
	return r.execOne(ctx, query, uuid, validator)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User
	err := r.DB.GetContext(ctx, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("[UserRepo] %w", model.ErrUserNotFound)
		}
		return nil, util.LogError("[UserRepo] не удалось найти пользователя в БД", err)
	}
	return &user, nil
}

func (r *UserRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return util.LogError("[UserRepo] не удалось обновить пользователя", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return util.LogError("[UserRepo] не удалось проверить, обновлен ли пользователь", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("[UserRepo] %w", model.ErrUserNotFound)
	}

	return nil
}
