package config

import (
	"fmt"
	"strings"
	"time"
)

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// KeyPrefix: префикс ключей отсечек, например "auth:deny:".
	KeyPrefix        string        `yaml:"key_prefix"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	OperationTimeout time.Duration `yaml:"operation_timeout"`
}

type JWTConfig struct {
	SecretKey       string        `yaml:"secret_key"`
	Issuer          string        `yaml:"issuer"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	HeaderName      string        `yaml:"header_name"`
	HeaderPrefix    string        `yaml:"header_prefix"`
	AccessSubject   string        `yaml:"access_subject"`
	RefreshSubject  string        `yaml:"refresh_subject"`
	// VerifyTimeout ограничивает один удаленный запрос проверки.
	VerifyTimeout time.Duration `yaml:"verify_timeout"`
}

// Режимы проверки токенов для GatewayConfig.VerifierMode.
const (
	VerifierModeLocal  = "local"
	VerifierModeRemote = "remote"
)

type GatewayConfig struct {
	VerifierMode     string  `yaml:"verifier_mode"`
	IntrospectionURL string  `yaml:"introspection_url"`
	Routes           []Route `yaml:"routes"`
}

type Route struct {
	Prefix   string `yaml:"prefix"`
	Upstream string `yaml:"upstream"`
}

type AppConfig struct {
	DatabaseConfig DatabaseConfig `yaml:"databaseConfig"`
	RedisConfig    RedisConfig    `yaml:"redisConfig"`
	ServerAddr     string         `yaml:"serverAddr"`
	JWT            JWTConfig      `yaml:"jwt"`
	Gateway        GatewayConfig  `yaml:"gateway"`
}

// ApplyDefaults заполняет незаданные поля значениями по умолчанию.
func (c *AppConfig) ApplyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}

	if c.RedisConfig.KeyPrefix == "" {
		c.RedisConfig.KeyPrefix = "auth:deny:"
	}
	if c.RedisConfig.DialTimeout == 0 {
		c.RedisConfig.DialTimeout = 5 * time.Second
	}
	if c.RedisConfig.OperationTimeout == 0 {
		c.RedisConfig.OperationTimeout = 3 * time.Second
	}

	if c.JWT.Issuer == "" {
		c.JWT.Issuer = "shop-auth"
	}
	if c.JWT.AccessTokenTTL == 0 {
		c.JWT.AccessTokenTTL = 30 * time.Minute
	}
	if c.JWT.RefreshTokenTTL == 0 {
		c.JWT.RefreshTokenTTL = 180 * 24 * time.Hour
	}
	if c.JWT.HeaderName == "" {
		c.JWT.HeaderName = "Authorization"
	}
	if c.JWT.HeaderPrefix == "" {
		c.JWT.HeaderPrefix = "Bearer "
	}
	if c.JWT.AccessSubject == "" {
		c.JWT.AccessSubject = "accessJwt"
	}
	if c.JWT.RefreshSubject == "" {
		c.JWT.RefreshSubject = "refreshJwt"
	}
	if c.JWT.VerifyTimeout == 0 {
		c.JWT.VerifyTimeout = 3 * time.Second
	}

	if c.Gateway.VerifierMode == "" {
		c.Gateway.VerifierMode = VerifierModeLocal
	}
}

func (c *AppConfig) Validate() error {
	// в режиме remote шлюз не проверяет подпись сам
	if c.Gateway.VerifierMode != VerifierModeRemote && strings.TrimSpace(c.JWT.SecretKey) == "" {
		return fmt.Errorf("jwt.secret_key обязателен")
	}
	if c.JWT.AccessTokenTTL < time.Second || c.JWT.RefreshTokenTTL < time.Second {
		return fmt.Errorf("время жизни токенов должно быть не меньше секунды")
	}
	if c.JWT.AccessTokenTTL >= c.JWT.RefreshTokenTTL {
		return fmt.Errorf("access_token_ttl должен быть меньше refresh_token_ttl")
	}
	if c.JWT.AccessSubject == c.JWT.RefreshSubject {
		return fmt.Errorf("access_subject и refresh_subject должны различаться")
	}

	switch c.Gateway.VerifierMode {
	case VerifierModeLocal:
	case VerifierModeRemote:
		if c.Gateway.IntrospectionURL == "" {
			return fmt.Errorf("gateway.introspection_url обязателен для режима remote")
		}
	default:
		return fmt.Errorf("неизвестный gateway.verifier_mode: %q", c.Gateway.VerifierMode)
	}

	for _, route := range c.Gateway.Routes {
		if !strings.HasPrefix(route.Prefix, "/") || route.Upstream == "" {
			return fmt.Errorf("некорректный маршрут шлюза: %q -> %q", route.Prefix, route.Upstream)
		}
	}

	return nil
}
