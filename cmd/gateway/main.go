package main

import (
	"context"
	"net/http"
	"os"
	"shop-auth/config"
	"shop-auth/internal/handler"
	"shop-auth/internal/metrics"
	"shop-auth/internal/repository"
	"shop-auth/internal/security"
	"shop-auth/internal/util"
)

func main() {
	util.InitLogger("gateway")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		util.Logger.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	registry := metrics.NewRegistry()
	m := metrics.New(registry)

	var verifier security.Verifier
	switch cfg.Gateway.VerifierMode {
	case config.VerifierModeRemote:
		verifier = security.NewRemoteVerifier(
			cfg.Gateway.IntrospectionURL,
			&http.Client{},
			cfg.JWT.VerifyTimeout,
			cfg.JWT.HeaderPrefix,
			m,
		)
	default:
		redisClient, err := config.SetupRedis(&cfg.RedisConfig)
		if err != nil {
			util.Logger.Fatalf("Ошибка подключения к Redis: %v", err)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				util.Logger.Errorf("Ошибка при закрытии Redis: %v", err)
			}
		}()

		revocationRepo := repository.NewRevocationRepository(redisClient, cfg.RedisConfig.KeyPrefix, cfg.RedisConfig.OperationTimeout)
		verifier = security.NewLocalVerifier(security.NewJWTService(&cfg.JWT), revocationRepo, cfg.JWT.HeaderPrefix)
	}
	verifier = security.NewInstrumentedVerifier(verifier, cfg.Gateway.VerifierMode, m)
	util.Logger.Infof("проверка токенов в режиме %s", cfg.Gateway.VerifierMode)

	srv, router := config.SetupServer(cfg.ServerAddr)
	router.Handle("/metrics", metrics.Handler(registry))

	err = handler.SetupGatewayRoutes(router, cfg.Gateway.Routes, security.AuthenticationMiddleware(verifier, cfg.JWT.HeaderName))
	if err != nil {
		util.Logger.Fatalf("Ошибка настройки маршрутов шлюза: %v", err)
	}

	config.RunServer(ctx, srv)
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}
