package config

import (
	"context"
	"fmt"
	"shop-auth/internal/util"

	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client redis.UniversalClient
}

func NewRedisClient(cfg *RedisConfig) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.OperationTimeout,
		WriteTimeout: cfg.OperationTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}

	util.Logger.Infof("Подключение к Redis %s успешно выполнено", cfg.Addr)
	return &RedisClient{Client: client}, nil
}

// NewRedisClientWithClient оборачивает уже настроенный клиент (в тестах
// он смотрит на miniredis).
func NewRedisClientWithClient(client redis.UniversalClient) *RedisClient {
	return &RedisClient{Client: client}
}

func (c *RedisClient) Close() error {
	if err := c.Client.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия соединения с Redis: %w", err)
	}
	return nil
}
