package security

import (
	"errors"
	"fmt"
	"shop-auth/config"
	"shop-auth/internal/model"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClaimsVersion: текущая версия схемы claims. Токены с другой версией
// считаются некорректными.
const ClaimsVersion = 1

// TokenType различает access и refresh токены.
type TokenType int

const (
	AccessToken TokenType = iota + 1
	RefreshToken
)

func (t TokenType) String() string {
	switch t {
	case AccessToken:
		return "access"
	case RefreshToken:
		return "refresh"
	default:
		return "unknown"
	}
}

type Claims struct {
	Version int      `json:"ver"`
	UserID  string   `json:"id"`
	Roles   []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Token: проверенное и разобранное содержимое JWT.
type Token struct {
	Type      TokenType
	UserID    string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Identity строит личность пользователя для контекста запроса.
func (t *Token) Identity() *model.Identity {
	return &model.Identity{
		UserID:    t.UserID,
		Roles:     slices.Clone(t.Roles),
		IssuedAt:  t.IssuedAt,
		ExpiresAt: t.ExpiresAt,
	}
}

type JWTService struct {
	secret   []byte
	issuer   string
	subjects map[TokenType]string
	now      func() time.Time
}

func NewJWTService(cfg *config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.SecretKey),
		issuer: cfg.Issuer,
		subjects: map[TokenType]string{
			AccessToken:  cfg.AccessSubject,
			RefreshToken: cfg.RefreshSubject,
		},
		now: time.Now,
	}
}

// WithClock подменяет источник времени (используется в тестах).
func (s *JWTService) WithClock(now func() time.Time) *JWTService {
	s.now = now
	return s
}

func (s *JWTService) Now() time.Time {
	return s.now()
}

// Issue подписывает новый токен. Время выпуска и ttl округляются вниз до
// секунды, поэтому expiresAt ровно на ttl позже issuedAt.
func (s *JWTService) Issue(tokenType TokenType, userID string, roles []string, ttl time.Duration) (string, *Token, error) {
	subject, ok := s.subjects[tokenType]
	if !ok {
		return "", nil, fmt.Errorf("неизвестный тип токена: %v", tokenType)
	}
	if _, err := uuid.Parse(userID); err != nil {
		return "", nil, fmt.Errorf("некорректный идентификатор пользователя %q: %w", userID, err)
	}
	ttl = ttl.Truncate(time.Second)
	if ttl < time.Second {
		return "", nil, fmt.Errorf("время жизни токена должно быть не меньше секунды")
	}

	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims := Claims{
		Version: ClaimsVersion,
		UserID:  userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	if tokenType == AccessToken {
		claims.Roles = slices.Clone(roles)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return signed, &Token{
		Type:      tokenType,
		UserID:    userID,
		Roles:     claims.Roles,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Decode проверяет подпись и срок действия токена.
// Возвращает model.ErrMalformedToken, model.ErrSignatureInvalid или model.ErrExpired.
func (s *JWTService) Decode(tokenStr string) (*Token, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, fmt.Errorf("%w: %v", model.ErrSignatureInvalid, err)
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, fmt.Errorf("%w: %v", model.ErrExpired, err)
		default:
			return nil, fmt.Errorf("%w: %v", model.ErrMalformedToken, err)
		}
	}

	if claims.Version != ClaimsVersion {
		return nil, fmt.Errorf("%w: неподдерживаемая версия claims %d", model.ErrMalformedToken, claims.Version)
	}
	if claims.IssuedAt == nil {
		return nil, fmt.Errorf("%w: отсутствует iat", model.ErrMalformedToken)
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, fmt.Errorf("%w: некорректный id", model.ErrMalformedToken)
	}

	tokenType, ok := s.typeOf(claims.Subject)
	if !ok {
		return nil, fmt.Errorf("%w: неизвестный subject %q", model.ErrMalformedToken, claims.Subject)
	}

	return &Token{
		Type:      tokenType,
		UserID:    claims.UserID,
		Roles:     claims.Roles,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *JWTService) typeOf(subject string) (TokenType, bool) {
	for tokenType, tag := range s.subjects {
		if tag == subject {
			return tokenType, true
		}
	}
	return 0, false
}
