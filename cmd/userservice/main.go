package main

import (
	"context"
	"os"
	"shop-auth/config"
	"shop-auth/internal/handler"
	"shop-auth/internal/metrics"
	"shop-auth/internal/repository"
	"shop-auth/internal/security"
	"shop-auth/internal/service"
	"shop-auth/internal/util"
)

// @title shop-auth user-service
// @version 1.0
// @description Выдача, проверка и отзыв JWT токенов

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	util.InitLogger("user-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		util.Logger.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	db, err := config.SetupDatabase(cfg.DatabaseConfig.DSN)
	if err != nil {
		util.Logger.Fatalf("Не удалось подключиться к БД: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			util.Logger.Errorf("Ошибка при закрытии БД: %v", err)
		}
	}()

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		util.Logger.Fatalf("Ошибка подключения к Redis: %v", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			util.Logger.Errorf("Ошибка при закрытии Redis: %v", err)
		}
	}()

	registry := metrics.NewRegistry()
	m := metrics.New(registry)

	srv, router := config.SetupServer(cfg.ServerAddr)
	router.Handle("/metrics", metrics.Handler(registry))
	handler.SetupDocsRoutes(router)

	userRepo := repository.NewUserRepository(db)
	revocationRepo := repository.NewRevocationRepository(redisClient, cfg.RedisConfig.KeyPrefix, cfg.RedisConfig.OperationTimeout)

	jwtService := security.NewJWTService(&cfg.JWT)
	verifier := security.NewInstrumentedVerifier(
		security.NewLocalVerifier(jwtService, revocationRepo, cfg.JWT.HeaderPrefix),
		config.VerifierModeLocal,
		m,
	)

	authService := service.NewAuthenticationService(userRepo, revocationRepo, jwtService, verifier, &cfg.JWT, m)
	userService := service.NewUserService(userRepo, authService)

	handler.SetupUserServiceRoutes(
		router,
		handler.NewAuthenticationHandler(authService),
		handler.NewUserHandler(userService),
		security.AuthenticationMiddleware(verifier, cfg.JWT.HeaderName),
	)

	config.RunServer(ctx, srv)
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "config.yaml"
}
