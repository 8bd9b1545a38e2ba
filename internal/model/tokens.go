package model

import (
	"slices"
	"time"
)

// TokensPair содержит пару access и refresh токенов
type TokensPair struct {
	AccessToken  string `json:"accessJwt"`
	RefreshToken string `json:"refreshJwt"`
}

// Identity: проверенная личность, привязанная к контексту запроса.
type Identity struct {
	UserID    string
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (i *Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// TokenIntrospection: ответ на проверку access токена.
type TokenIntrospection struct {
	UserID           string   `json:"userId,omitempty"`
	Roles            []string `json:"roles,omitempty"`
	Valid            bool     `json:"valid"`
	RemainingSeconds int64    `json:"remainingSeconds"`
}
