package service

import (
	"context"
	"errors"
	"fmt"
	"shop-auth/internal/model"
	"shop-auth/internal/model/requestresponse"
	"shop-auth/internal/ports"
	"shop-auth/internal/security"
	"shop-auth/internal/util"
	"unicode"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type UserService struct {
	userRepository ports.UserRepository
	sessions       ports.SessionRevoker
}

func NewUserService(userRepository ports.UserRepository, sessions ports.SessionRevoker) *UserService {
	return &UserService{
		userRepository: userRepository,
		sessions:       sessions,
	}
}

// Register создает пользователя с ролью USER.
func (s *UserService) Register(ctx context.Context, request *requestresponse.RegisterRequest) (*model.User, error) {
	if err := validatePassword(request.Password); err != nil {
		return nil, fmt.Errorf("[UserService] %w: %w", model.ErrInvalidRequest, err)
	}

	hash, err := security.HashPassword(request.Password)
	if err != nil {
		return nil, fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	user := &model.User{
		UUID:         uuid.New().String(),
		Username:     request.Username,
		PasswordHash: hash,
		Nickname:     request.Nickname,
		Email:        request.Email,
		Roles:        pq.StringArray{model.RoleUser},
	}

	created, err := s.userRepository.CreateUser(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("[UserService] ошибка создания пользователя: %w", err)
	}

	util.Logger.WithField("user_id", created.UUID).Info("зарегистрирован новый пользователь")
	return created, nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("пароль должен содержать минимум 8 символов")
	}

	var upperCount, lowerCount, digitCount, specialCount int

	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upperCount++
		case unicode.IsLower(c):
			lowerCount++
		case unicode.IsDigit(c):
			digitCount++
		case unicode.IsPunct(c) || unicode.IsSymbol(c):
			specialCount++
		}
	}

	if upperCount == 0 || lowerCount == 0 {
		return fmt.Errorf("пароль должен содержать буквы в разных регистрах")
	}
	if digitCount < 1 {
		return fmt.Errorf("пароль должен содержать хотя бы одну цифру")
	}
	if specialCount < 1 {
		return fmt.Errorf("пароль должен содержать хотя бы один специальный символ")
	}

	return nil
}

func (s *UserService) GetUser(ctx context.Context, uuid string) (*model.User, error) {
	user, err := s.userRepository.FindByID(ctx, uuid)
	if err != nil {
		return nil, fmt.Errorf("[UserService] %w", err)
	}
	return user, nil
}

// ChangePassword меняет пароль и отзывает все выданные пользователю токены.
func (s *UserService) ChangePassword(ctx context.Context, uuid, currentPassword, newPassword string) error {
	user, err := s.userRepository.FindByID(ctx, uuid)
	if err != nil {
		return fmt.Errorf("[UserService] %w", err)
	}

	if !security.CheckPassword(currentPassword, user.PasswordHash) {
		return fmt.Errorf("[UserService] неверный текущий пароль: %w", model.ErrCredentialMismatch)
	}

	if err := validatePassword(newPassword); err != nil {
		return fmt.Errorf("[UserService] %w: %w", model.ErrInvalidRequest, err)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("[UserService] не удалось создать хэш пароля: %w", err)
	}

	if err := s.userRepository.UpdatePassword(ctx, uuid, hash); err != nil {
		return fmt.Errorf("[UserService] ошибка смены пароля: %w", err)
	}

	if _, err := s.sessions.RevokeAll(ctx, uuid); err != nil {
		if errors.Is(err, model.ErrUpstreamUnavailable) {
			return fmt.Errorf("[UserService] пароль изменен, но сессии не отозваны: %w", err)
		}
		return util.LogError("[UserService] пароль изменен, но сессии не отозваны", err)
	}

	return nil
}
