package service

import (
	"context"
	"errors"
	"fmt"
	"shop-auth/config"
	"shop-auth/internal/metrics"
	"shop-auth/internal/model"
	"shop-auth/internal/ports"
	"shop-auth/internal/security"
	"shop-auth/internal/util"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"
)

const (
	cutoffRetryAttempts     = 3
	cutoffRetryInitialDelay = 50 * time.Millisecond
)

type AuthenticationService struct {
	userRepository ports.UserRepository
	revocations    ports.RevocationRepository
	tokens         ports.TokenIssuer
	verifier       security.Verifier
	jwtConfig      *config.JWTConfig
	metrics        *metrics.Metrics
}

func NewAuthenticationService(
	userRepository ports.UserRepository,
	revocations ports.RevocationRepository,
	tokens ports.TokenIssuer,
	verifier security.Verifier,
	jwtConfig *config.JWTConfig,
	m *metrics.Metrics,
) *AuthenticationService {
	return &AuthenticationService{
		userRepository: userRepository,
		revocations:    revocations,
		tokens:         tokens,
		verifier:       verifier,
		jwtConfig:      jwtConfig,
		metrics:        m,
	}
}

// Login проверяет логин и пароль и выдает новую пару токенов.
//
// Возвращает:
//   - model.ErrUserNotFound, если пользователя нет
//   - model.ErrCredentialMismatch, если пароль не подошел
func (s *AuthenticationService) Login(ctx context.Context, username, password string) (*model.TokensPair, error) {
	user, err := s.userRepository.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, fmt.Errorf("пользователь не найден: %w", err)
		}
		return nil, util.LogError("ошибка поиска пользователя", err)
	}

	if !security.CheckPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("неверный пароль: %w", model.ErrCredentialMismatch)
	}

	return s.issuePair(user)
}

// Refresh выдает новую пару по действующему refresh токену. Старый
// refresh токен остается действительным до истечения срока или отзыва.
func (s *AuthenticationService) Refresh(ctx context.Context, refreshJwt string) (*model.TokensPair, error) {
	result, err := s.verifier.Verify(ctx, refreshJwt, security.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !result.Valid() {
		return nil, rejected(result)
	}

	user, err := s.userRepository.FindByID(ctx, result.Identity.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", model.ErrRefreshTokenInvalid, err)
		}
		return nil, util.LogError("ошибка поиска пользователя", err)
	}

	// запись в Redis живет только access TTL, поэтому для refresh
	// токенов решает отсечка, сохраненная у пользователя
	if user.RevokedBefore(result.Identity.IssuedAt) {
		return nil, fmt.Errorf("%w: %w", model.ErrRefreshTokenInvalid, model.ErrRevoked)
	}

	return s.issuePair(user)
}

// CheckAccessToken отвечает на check-token запрос. Любой непригодный токен
// дает valid=false и remainingSeconds=0, ошибка возвращается только при
// недоступности хранилищ.
func (s *AuthenticationService) CheckAccessToken(ctx context.Context, accessJwt string) (*model.TokenIntrospection, error) {
	result, err := s.verifier.Verify(ctx, accessJwt, security.AccessToken)
	if err != nil {
		return nil, err
	}

	if result.Valid() {
		result, err = s.checkUser(ctx, result)
		if err != nil {
			return nil, err
		}
	}

	if !result.Valid() && result.Reason != nil {
		util.Logger.WithError(result.Reason).Debug("access токен не прошел проверку")
	}

	return security.Introspect(result), nil
}

func (s *AuthenticationService) checkUser(ctx context.Context, result *security.Verification) (*security.Verification, error) {
	user, err := s.userRepository.FindByID(ctx, result.Identity.UserID)
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return &security.Verification{Outcome: security.OutcomeInvalid, Reason: err}, nil
	case err != nil:
		return nil, fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, util.LogError("ошибка поиска пользователя", err))
	case user.RevokedBefore(result.Identity.IssuedAt):
		return &security.Verification{Outcome: security.OutcomeInvalid, Reason: model.ErrRevoked}, nil
	}
	return result, nil
}

// RevokeAll отзывает все токены пользователя, выпущенные не позже текущего
// момента. Отсечка сохраняется у пользователя и в Redis на время жизни
// access токена.
func (s *AuthenticationService) RevokeAll(ctx context.Context, userID string) (time.Time, error) {
	cutoff := s.tokens.Now()

	if err := s.userRepository.UpdateJWTValidator(ctx, userID, cutoff.UnixMilli()); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return time.Time{}, err
		}
		return time.Time{}, util.LogError("не удалось сохранить отсечку пользователя", err)
	}

	if err := s.setCutoff(ctx, userID, cutoff); err != nil {
		util.Logger.WithFields(logrus.Fields{
			"user_id":   userID,
			"cutoff_ms": cutoff.UnixMilli(),
		}).WithError(err).Error("отсечка сохранена у пользователя, но не записана в Redis")
		return time.Time{}, err
	}

	s.metrics.Revocation("revoke_all")
	util.Logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"cutoff_ms": cutoff.UnixMilli(),
	}).Info("все сессии пользователя отозваны")

	return cutoff, nil
}

// setCutoff повторяет запись в Redis при недоступности. Отсечка у пользователя
// к этому моменту уже сохранена, а шлюз в режиме local читает только Redis.
func (s *AuthenticationService) setCutoff(ctx context.Context, userID string, cutoff time.Time) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = cutoffRetryInitialDelay
	expBackoff.MaxInterval = 4 * cutoffRetryInitialDelay
	expBackoff.Reset()

	operation := func() (struct{}, error) {
		err := s.revocations.SetCutoff(ctx, userID, cutoff, s.jwtConfig.AccessTokenTTL)
		if err != nil && !errors.Is(err, model.ErrUpstreamUnavailable) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(cutoffRetryAttempts),
		backoff.WithNotify(func(err error, delay time.Duration) {
			util.Logger.WithField("user_id", userID).WithError(err).Debugf("повтор записи отсечки через %v", delay)
		}),
	)
	if err != nil && ctx.Err() != nil && !errors.Is(err, model.ErrUpstreamUnavailable) {
		err = fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
	}
	return err
}

// ClearRevocation снимает отсечку в Redis. Сохраненная у пользователя
// отсечка не меняется.
func (s *AuthenticationService) ClearRevocation(ctx context.Context, userID string) error {
	if err := s.revocations.ClearCutoff(ctx, userID); err != nil {
		return err
	}

	s.metrics.Revocation("clear")
	util.Logger.WithField("user_id", userID).Info("отсечка отзыва снята")
	return nil
}

func (s *AuthenticationService) issuePair(user *model.User) (*model.TokensPair, error) {
	accessToken, _, err := s.tokens.Issue(security.AccessToken, user.UUID, user.Roles, s.jwtConfig.AccessTokenTTL)
	if err != nil {
		return nil, util.LogError("ошибка генерации access токена", err)
	}

	refreshToken, _, err := s.tokens.Issue(security.RefreshToken, user.UUID, nil, s.jwtConfig.RefreshTokenTTL)
	if err != nil {
		return nil, util.LogError("ошибка генерации refresh токена", err)
	}

	s.metrics.TokenIssued(security.AccessToken.String())
	s.metrics.TokenIssued(security.RefreshToken.String())

	return &model.TokensPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func rejected(result *security.Verification) error {
	if result.Reason == nil {
		return fmt.Errorf("%w: токен не передан", model.ErrRefreshTokenInvalid)
	}
	return fmt.Errorf("%w: %w", model.ErrRefreshTokenInvalid, result.Reason)
}
