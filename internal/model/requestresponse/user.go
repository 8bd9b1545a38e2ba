package requestresponse

import "shop-auth/internal/model"

// RegisterRequest : тело запроса регистрации
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64,alphanum" example:"newuser123"`
	Password string `json:"password" validate:"required,min=8,max=72" example:"P@ssw0rd!"`
	Nickname string `json:"nickname" validate:"omitempty,max=64" example:"Новый пользователь"`
	Email    string `json:"email" validate:"omitempty,email" example:"user@example.com"`
}

// UserResponse : данные пользователя без секретов
type UserResponse struct {
	Response UserData `json:"response"`
}

type UserData struct {
	UUID     string   `json:"uuid" example:"123e4567-e89b-12d3-a456-426614174000"`
	Username string   `json:"username" example:"newuser123"`
	Nickname string   `json:"nickname,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles"`
}

func NewUserData(user *model.User) UserData {
	return UserData{
		UUID:     user.UUID,
		Username: user.Username,
		Nickname: user.Nickname,
		Email:    user.Email,
		Roles:    user.Roles,
	}
}

// ChangePasswordRequest : тело запроса смены пароля
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72,nefield=CurrentPassword" example:"P@ssw0rd123"`
}

// UpdatePasswordResponse : успешный ответ
type UpdatePasswordResponse struct {
	Response struct {
		Updated bool `json:"updated" example:"true"`
	} `json:"response"`
}
