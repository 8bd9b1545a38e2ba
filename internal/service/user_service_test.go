package service_test

import (
	"context"
	"errors"
	"shop-auth/internal/model"
	"shop-auth/internal/model/requestresponse"
	"shop-auth/internal/security"
	srv "shop-auth/internal/service"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSessionRevoker struct {
	mock.Mock
}

func (m *MockSessionRevoker) RevokeAll(ctx context.Context, userID string) (time.Time, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(time.Time), args.Error(1)
}

func TestUserService_Register(t *testing.T) {
	tests := []struct {
		name        string
		password    string
		setupMocks  func(u *MockUserRepository)
		expectError error
	}{
		{
			name:        "weak password",
			password:    "password",
			expectError: model.ErrInvalidRequest,
		},
		{
			name:        "no special symbol",
			password:    "Password123",
			expectError: model.ErrInvalidRequest,
		},
		{
			name:     "duplicate username",
			password: testPassword,
			setupMocks: func(u *MockUserRepository) {
				u.On("CreateUser", mock.Anything, mock.Anything).Return(nil, model.ErrUserAlreadyExists)
			},
			expectError: model.ErrUserAlreadyExists,
		},
		{
			name:     "success",
			password: testPassword,
			setupMocks: func(u *MockUserRepository) {
				u.On("CreateUser", mock.Anything, mock.MatchedBy(func(user *model.User) bool {
					_, err := uuid.Parse(user.UUID)
					return err == nil &&
						user.Username == "validlogin" &&
						security.CheckPassword(testPassword, user.PasswordHash) &&
						len(user.Roles) == 1 && user.Roles[0] == model.RoleUser
				})).Return(&model.User{UUID: testUserID, Username: "validlogin"}, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)
			service := srv.NewUserService(mockUserRepo, new(MockSessionRevoker))

			if tt.setupMocks != nil {
				tt.setupMocks(mockUserRepo)
			}

			user, err := service.Register(context.Background(), &requestresponse.RegisterRequest{
				Username: "validlogin",
				Password: tt.password,
			})

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, testUserID, user.UUID)
			}

			mockUserRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_GetUser(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := srv.NewUserService(mockRepo, nil)

	mockRepo.On("FindByID", mock.Anything, testUserID).Return(testUser(), nil)
	mockRepo.On("FindByID", mock.Anything, "missing").Return(nil, model.ErrUserNotFound)

	user, err := service.GetUser(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Equal(t, "user1", user.Username)

	_, err = service.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}

func TestUserService_ChangePassword(t *testing.T) {
	const newPassword = "N3wStrongPass!"

	tests := []struct {
		name        string
		current     string
		newPassword string
		setupMocks  func(u *MockUserRepository, s *MockSessionRevoker)
		expectError error
	}{
		{
			name:        "wrong current password",
			current:     "nope",
			newPassword: newPassword,
			setupMocks: func(u *MockUserRepository, s *MockSessionRevoker) {
				u.On("FindByID", mock.Anything, testUserID).Return(testUser(), nil)
			},
			expectError: model.ErrCredentialMismatch,
		},
		{
			name:        "weak new password",
			current:     testPassword,
			newPassword: "weak",
			setupMocks: func(u *MockUserRepository, s *MockSessionRevoker) {
				u.On("FindByID", mock.Anything, testUserID).Return(testUser(), nil)
			},
			expectError: model.ErrInvalidRequest,
		},
		{
			name:        "revocation unavailable",
			current:     testPassword,
			newPassword: newPassword,
			setupMocks: func(u *MockUserRepository, s *MockSessionRevoker) {
				u.On("FindByID", mock.Anything, testUserID).Return(testUser(), nil)
				u.On("UpdatePassword", mock.Anything, testUserID, mock.Anything).Return(nil)
				s.On("RevokeAll", mock.Anything, testUserID).Return(time.Time{}, model.ErrUpstreamUnavailable)
			},
			expectError: model.ErrUpstreamUnavailable,
		},
		{
			name:        "success revokes sessions",
			current:     testPassword,
			newPassword: newPassword,
			setupMocks: func(u *MockUserRepository, s *MockSessionRevoker) {
				u.On("FindByID", mock.Anything, testUserID).Return(testUser(), nil)
				u.On("UpdatePassword", mock.Anything, testUserID, mock.MatchedBy(func(hash string) bool {
					return security.CheckPassword(newPassword, hash)
				})).Return(nil)
				s.On("RevokeAll", mock.Anything, testUserID).Return(t0, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockUserRepo := new(MockUserRepository)
			mockRevoker := new(MockSessionRevoker)
			service := srv.NewUserService(mockUserRepo, mockRevoker)
			tt.setupMocks(mockUserRepo, mockRevoker)

			err := service.ChangePassword(context.Background(), testUserID, tt.current, tt.newPassword)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				assert.NoError(t, err)
			}

			mockUserRepo.AssertExpectations(t)
			mockRevoker.AssertExpectations(t)
		})
	}
}

func TestUserService_ChangePassword_RepositoryError(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockRevoker := new(MockSessionRevoker)
	service := srv.NewUserService(mockUserRepo, mockRevoker)

	mockUserRepo.On("FindByID", mock.Anything, testUserID).Return(testUser(), nil)
	mockUserRepo.On("UpdatePassword", mock.Anything, testUserID, mock.Anything).Return(errors.New("db error"))

	err := service.ChangePassword(context.Background(), testUserID, testPassword, "N3wStrongPass!")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ошибка смены пароля")
	mockRevoker.AssertNotCalled(t, "RevokeAll", mock.Anything, mock.Anything)
}
