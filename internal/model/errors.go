package model

import "errors"

// Ошибки проверки токенов.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrWrongTokenType   = errors.New("wrong token type")
	ErrRevoked          = errors.New("token revoked")

	// ErrUpstreamUnavailable: хранилище отзывов или удаленная проверка
	// не ответили вовремя.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Ошибки выдачи токенов и работы с пользователями.
var (
	ErrCredentialMismatch  = errors.New("credential mismatch")
	ErrUserNotFound        = errors.New("user not found")
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
	ErrUserAlreadyExists   = errors.New("user already exists")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidRequest      = errors.New("invalid request")
)
