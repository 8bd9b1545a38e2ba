package repository

import (
	"context"
	"errors"
	"fmt"
	"shop-auth/config"
	"shop-auth/internal/model"
	"shop-auth/internal/util"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationRepository хранит отсечку отзыва userId -> epoch-мс в Redis.
// Запись перезаписывается (last-write-wins) и живет ttl.
type RevocationRepository struct {
	client    *config.RedisClient
	keyPrefix string
	timeout   time.Duration
}

func NewRevocationRepository(rdb *config.RedisClient, keyPrefix string, timeout time.Duration) *RevocationRepository {
	return &RevocationRepository{client: rdb, keyPrefix: keyPrefix, timeout: timeout}
}

// SetCutoff отзывает все токены пользователя, выпущенные не позже cutoff.
func (r *RevocationRepository) SetCutoff(ctx context.Context, userID string, cutoff time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl отсечки должен быть положительным")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	value := strconv.FormatInt(cutoff.UnixMilli(), 10)
	cmd := r.client.Client.Set(ctx, r.key(userID), value, ttl)
	if err := cmd.Err(); err != nil {
		return unavailable("ошибка сохранения отсечки в Redis", err)
	}
	if cmd.Val() != "OK" {
		return fmt.Errorf("неожиданный ответ Redis: %s", cmd.Val())
	}

	return nil
}

// GetCutoff возвращает false, если отсечки нет.
func (r *RevocationRepository) GetCutoff(ctx context.Context, userID string) (time.Time, bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	val, err := r.client.Client.Get(ctx, r.key(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	} else if err != nil {
		return time.Time{}, false, unavailable("ошибка получения отсечки из Redis", err)
	}

	millis, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, util.LogError("некорректное значение отсечки в Redis", err)
	}

	return time.UnixMilli(millis), true, nil
}

func (r *RevocationRepository) ClearCutoff(ctx context.Context, userID string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.client.Client.Del(ctx, r.key(userID)).Err(); err != nil {
		return unavailable("ошибка удаления отсечки из Redis", err)
	}
	return nil
}

func (r *RevocationRepository) key(userID string) string {
	return r.keyPrefix + userID
}

func (r *RevocationRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func unavailable(message string, err error) error {
	util.Logger.WithError(err).Error(message)
	return fmt.Errorf("%s: %w: %w", message, model.ErrUpstreamUnavailable, err)
}
