package requestresponse

import "shop-auth/internal/model"

// LoginRequest : тело запроса на аутентификацию
type LoginRequest struct {
	Username string `json:"username" validate:"required" example:"user1"`
	Password string `json:"password" validate:"required" example:"P@ssw0rd123"`
}

// TokensResponse : пара токенов после login или refresh
type TokensResponse struct {
	Response model.TokensPair `json:"response"`
}

// RefreshTokenRequest : запрос на обновление пары токенов
type RefreshTokenRequest struct {
	RefreshJwt string `json:"refreshJwt" validate:"required"`
}

// AccessTokenCheckRequest : запрос на проверку access токена
type AccessTokenCheckRequest struct {
	AccessJwt string `json:"accessJwt"`
}

// AccessTokenCheckResponse : результат проверки access токена
type AccessTokenCheckResponse struct {
	Response model.TokenIntrospection `json:"response"`
}

// RevocationResponse : результат отзыва всех сессий
type RevocationResponse struct {
	Response struct {
		UserID   string `json:"userId"`
		CutoffMs int64  `json:"cutoffMs"`
	} `json:"response"`
}
